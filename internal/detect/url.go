package detect

import (
	"regexp"

	"github.com/ai8future/textprep/internal/textspan"
)

// urlPattern matches a scheme, a "www" host or a bare "domain.tld/" prefix, then a
// body that may hold balanced parentheses but does not end on punctuation.
var urlPattern = regexp.MustCompile(
	`(?i)\b(?:https?://|www\d{0,3}[.]|[a-z0-9.\-]+[.][a-z]{2,4}/)` +
		`(?:[^\s()<>]+|\((?:[^\s()<>]+|\([^\s()<>]+\))*\))+` +
		`(?:\((?:[^\s()<>]+|\([^\s()<>]+\))*\)|[^\s` + "`" + `!()\[\]{};:'".,<>?«»“”‘’])`,
)

// URLs returns every URL in text.
func URLs(text string) []textspan.TextSpan {
	return textspan.Find(urlPattern, text, 0)
}

// ReplaceURLs replaces every URL in text with placeholder.
func ReplaceURLs(text, placeholder string) string {
	return urlPattern.ReplaceAllLiteralString(text, placeholder)
}
