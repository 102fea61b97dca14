package chunking

import (
	"regexp"
	"strings"
)

var divisionHeading = regexp.MustCompile(`\n([A-Z ]+DIVISION)\n`)

// CutBeforeDivision drops the scraped page chrome that precedes the first
// "<...> DIVISION" line. Text without such a line is returned unchanged.
func CutBeforeDivision(text string) string {
	loc := divisionHeading.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return strings.TrimLeft(text[loc[0]+1:], " \t\r\n\v\f")
}
