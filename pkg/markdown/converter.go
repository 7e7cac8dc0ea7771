package markdown

import (
	"regexp"
	"strings"

	"github.com/russross/blackfriday/v2"
)

// Tags allowed through sanitization. Everything else is stripped so the
// extension popup can inject the result directly.
var supportedTags = []string{"b", "i", "u", "s", "em", "strong", "code", "pre", "a", "br", "p", "ul", "ol", "li", "h1", "h2", "h3", "h4", "blockquote"}

var (
	tagPattern     = regexp.MustCompile(`</?([a-zA-Z][a-zA-Z0-9]*)(?:\s[^>]*)?>`)
	tagNamePattern = regexp.MustCompile(`</?([a-zA-Z][a-zA-Z0-9]*)`)
	scriptPattern  = regexp.MustCompile(`(?is)<script.*?</script>`)
	excessNewlines = regexp.MustCompile(`\n{3,}`)
)

// ToSafeHTML converts a markdown answer to sanitized HTML.
func ToSafeHTML(md string) string {
	if md == "" {
		return ""
	}

	html := string(blackfriday.Run([]byte(md), blackfriday.WithExtensions(blackfriday.CommonExtensions)))

	return sanitize(html)
}

// sanitize strips scripts and any tag outside the whitelist.
func sanitize(html string) string {
	html = scriptPattern.ReplaceAllString(html, "")

	html = tagPattern.ReplaceAllStringFunc(html, func(match string) string {
		tagMatch := tagNamePattern.FindStringSubmatch(match)
		if len(tagMatch) > 1 {
			tagName := strings.ToLower(tagMatch[1])
			for _, supported := range supportedTags {
				if tagName == supported {
					// Drop attributes except href on links
					return stripAttributes(match, tagName)
				}
			}
		}
		return ""
	})

	html = excessNewlines.ReplaceAllString(html, "\n\n")

	return strings.TrimSpace(html)
}

var hrefPattern = regexp.MustCompile(`href="(https?://[^"]*)"`)

func stripAttributes(tag, name string) string {
	if strings.HasPrefix(tag, "</") {
		return "</" + name + ">"
	}
	if name == "a" {
		if href := hrefPattern.FindString(tag); href != "" {
			return "<a " + href + ">"
		}
	}
	return "<" + name + ">"
}
