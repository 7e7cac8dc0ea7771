package history

import (
	"testing"
)

func TestKeyDeterministic(t *testing.T) {
	tests := []struct {
		name   string
		siteA  string
		titleA string
		siteB  string
		titleB string
		same   bool
	}{
		{"same inputs collide", "leetcode", "Two Sum", "leetcode", "Two Sum", true},
		{"different titles differ", "leetcode", "Two Sum", "leetcode", "Three Sum", false},
		{"different sites differ", "leetcode", "Two Sum", "codeforces", "Two Sum", false},
		{"empty title is stable", "codeforces", "", "codeforces", "", true},
		{"case sensitive", "leetcode", "two sum", "leetcode", "Two Sum", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Key(tt.siteA, tt.titleA)
			b := Key(tt.siteB, tt.titleB)
			if (a == b) != tt.same {
				t.Errorf("Key(%q,%q)=%q, Key(%q,%q)=%q, want same=%v",
					tt.siteA, tt.titleA, a, tt.siteB, tt.titleB, b, tt.same)
			}
		})
	}
}

func TestKeyRepeatable(t *testing.T) {
	first := Key("atcoder", "ABC 300 D")
	for i := 0; i < 10; i++ {
		if got := Key("atcoder", "ABC 300 D"); got != first {
			t.Fatalf("Key not stable across calls: %q vs %q", got, first)
		}
	}
}
