package chunking

import (
	"regexp"
	"strings"

	"lexai-backend/models"
)

const titleScanLines = 20

var (
	// G.R. No. 123456, G.R. Nos. 123456-78
	caseNoPattern   = regexp.MustCompile(`G\.\s*R\.\s*Nos?\.\s*[A-Za-z0-9\-]+`)
	divisionPattern = regexp.MustCompile(`(?i)\b(?:FIRST|SECOND|THIRD)\s+DIVISION\b|\bEN\s+BANC\b`)
	boilerplateLine = regexp.MustCompile(`(?i)Republic of the Philippines|Supreme Court`)
)

// ExtractMetadata derives the case number, division and title from a decision.
// Every field is optional; a missing marker leaves the field nil.
func ExtractMetadata(text string) models.CaseMetadata {
	var meta models.CaseMetadata

	if m := caseNoPattern.FindString(text); m != "" {
		meta.CaseNo = &m
	}

	if m := divisionPattern.FindString(text); m != "" {
		division := strings.ToUpper(m)
		meta.Division = &division
	}

	seen := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if seen == titleScanLines {
			break
		}
		seen++
		if !boilerplateLine.MatchString(line) {
			title := line
			meta.Title = &title
			break
		}
	}

	return meta
}
