package chunking

import (
	"regexp"
	"strings"

	"lexai-backend/models"
)

type headingRule struct {
	name    models.SectionName
	pattern *regexp.Regexp
}

func fullLine(spellings ...string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^(?:` + strings.Join(spellings, "|") + `)$`)
}

// headingRules is evaluated in order against a whole, normalised line.
var headingRules = []headingRule{
	{models.SectionDecision, fullLine(`D\sE\sC\sI\sS\sI\sO\sN`)},
	{models.SectionSyllabus, fullLine(`SYLLABUS`)},
	{models.SectionFacts, fullLine(`THE\s+FACTS`, `STATEMENT\s+OF\s+FACTS`, `FACTS`)},
	{models.SectionIssues, fullLine(`ISSUES?`, `ASSIGNED\s+ERRORS`)},
	{models.SectionRuling, fullLine(`RULING`, `DISCUSSION`, `THE\s+COURT['’`+"`"+`]S?\s+RULING`)},
	{models.SectionWherefore, fullLine(`WHEREFORE`, `SO\s+ORDERED`)},
}

// HeadingName returns the canonical section a line introduces, if any
func HeadingName(line string) (models.SectionName, bool) {
	key := strings.TrimSpace(line)
	if key == "" {
		return "", false
	}
	key = strings.TrimSpace(strings.TrimRight(key, ":"))

	for _, rule := range headingRules {
		if rule.pattern.MatchString(key) {
			return rule.name, true
		}
	}
	return "", false
}

// SplitSections scans text line by line and cuts it at recognised headings.
// The heading is kept at the top of its section as "NAME:" followed by a blank line.
func SplitSections(text string) []models.Section {
	var sections []models.Section
	current := models.SectionPreamble
	var body []string

	flush := func() {
		content := strings.TrimSpace(strings.Join(body, "\n"))
		if content != "" {
			sections = append(sections, models.Section{Name: current, Text: content})
		}
		body = nil
	}

	for _, line := range strings.Split(text, "\n") {
		name, ok := HeadingName(line)
		if !ok {
			body = append(body, line)
			continue
		}
		flush()
		current = name
		body = []string{string(name) + ":", ""}
	}
	flush()

	if len(sections) == 1 && sections[0].Name == models.SectionPreamble {
		sections[0].Name = models.SectionFullText
	}
	return sections
}
