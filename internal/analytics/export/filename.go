package export

import (
	"fmt"
	"regexp"
	"strings"
)

var unsafeChars = regexp.MustCompile(`[^a-z0-9-]+`)

// Filename builds the download name for a report over a date range:
// <report-name>-<from>-<to>.csv with ISO date tokens.
func Filename(report, from, to string) string {
	name := unsafeChars.ReplaceAllString(strings.ToLower(report), "-")
	name = strings.Trim(name, "-")
	if name == "" {
		name = "report"
	}
	return fmt.Sprintf("%s-%s-%s.csv", name, from, to)
}
