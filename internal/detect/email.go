package detect

import (
	"regexp"

	"github.com/ai8future/textprep/internal/textspan"
)

var emailPattern = regexp.MustCompile(
	`[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9-]+(?:\.[a-zA-Z0-9-]+)*`,
)

// Emails returns every email address in text.
func Emails(text string) []textspan.TextSpan {
	return textspan.Find(emailPattern, text, 0)
}

// ReplaceEmails replaces every email address in text with placeholder.
func ReplaceEmails(text, placeholder string) string {
	return emailPattern.ReplaceAllLiteralString(text, placeholder)
}
