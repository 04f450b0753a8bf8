package detect

import (
	"regexp"

	"github.com/ai8future/textprep/internal/textspan"
)

var (
	decimalPattern = regexp.MustCompile(`\b\d+\.\d+`)

	// Item labels at the start of a line: "1.", "12.", "a.", "B.", "iv.".
	numberedListPattern = regexp.MustCompile(`(?m)^[ \t]*(?:\d{1,3}|[A-Za-z]|[ivxIVX]{2,4})\.`)
)

// Decimals returns numbers with a decimal point, such as "3.14".
func Decimals(text string) []textspan.TextSpan {
	return textspan.Find(decimalPattern, text, 0)
}

// NumberedListMarkers returns list item labels that open a line, including the
// label's period.
func NumberedListMarkers(text string) []textspan.TextSpan {
	return textspan.Find(numberedListPattern, text, 0)
}
