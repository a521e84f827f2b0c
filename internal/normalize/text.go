package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	markdownLinkRE = regexp.MustCompile(`\[([^\]]*)\]\(([^)]*)\)`)
	bareURLRE      = regexp.MustCompile(`<?https?://\S+>?`)
)

// CleanText strips control characters and collapses runs of whitespace.
// Truncation for display is deliberately left to the front end.
func CleanText(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// StripLinkSyntax removes raw link syntax for display: markdown links keep
// their label, bare URLs are dropped. The full text is still used for
// feature inference before stripping.
func StripLinkSyntax(s string) string {
	s = markdownLinkRE.ReplaceAllString(s, "$1")
	s = bareURLRE.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}
