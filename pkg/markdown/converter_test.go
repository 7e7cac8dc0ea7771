package markdown

import (
	"strings"
	"testing"
)

func TestToSafeHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "empty input",
			input:    "",
			contains: nil,
		},
		{
			name:     "bold and code",
			input:    "Use a **hash map** with `O(1)` lookups.",
			contains: []string{"<strong>hash map</strong>", "<code>O(1)</code>"},
		},
		{
			name:     "headings survive",
			input:    "## Approach\nSort first.",
			contains: []string{"<h2>", "Approach"},
		},
		{
			name:     "script stripped",
			input:    "hello <script>alert(1)</script> world",
			contains: []string{"hello", "world"},
			excludes: []string{"<script>", "alert(1)"},
		},
		{
			name:     "event handlers stripped from links",
			input:    `[click](https://example.com)`,
			contains: []string{`<a href="https://example.com">`},
			excludes: []string{"onclick"},
		},
		{
			name:     "unknown tags removed",
			input:    "text <iframe src=\"x\"></iframe> more",
			contains: []string{"text", "more"},
			excludes: []string{"<iframe"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToSafeHTML(tt.input)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("output %q missing %q", got, want)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("output %q contains %q", got, bad)
				}
			}
		})
	}
}
