package tally

import (
	"regexp"
	"strings"
)

// recordIDPattern matches a transcript record identifier: the letter M, one or
// more digits, an underscore, and a six-digit serial (e.g. M24_230001).
// Matching is a leftmost substring search on the trimmed line, so an
// identifier embedded in surrounding text still marks the line as data.
var recordIDPattern = regexp.MustCompile(`M\d+_\d{6}`)

// tagPattern matches one annotation tag: non-empty text between full-width
// lenticular brackets. The content never spans a closing bracket, so repeated
// groups on a line match left to right without overlapping.
var tagPattern = regexp.MustCompile(`【([^】]+)】`)

// Extraction is the outcome of classifying one data line: the record
// identifier plus every tag on the line in order of appearance. Duplicate
// tags on a line are kept as separate occurrences.
type Extraction struct {
	RecordID string
	Tags     []string
}

// ExtractLine classifies one line of transcript text and extracts its tags.
// It returns ok=false for lines that carry no data: continuation lines (the
// original, untrimmed line starts with a tab), lines without a record
// identifier, and identifier lines without a single complete 【tag】 group.
// An unmatched opening bracket is not an error; it simply yields no tag.
func ExtractLine(line string) (Extraction, bool) {
	// Continuation/annotation lines are marked by a leading tab before any
	// trimming happens.
	if strings.HasPrefix(line, "\t") {
		return Extraction{}, false
	}

	trimmed := strings.TrimSpace(line)

	id := recordIDPattern.FindString(trimmed)
	if id == "" {
		return Extraction{}, false
	}

	groups := tagPattern.FindAllStringSubmatch(trimmed, -1)
	if len(groups) == 0 {
		return Extraction{}, false
	}

	tags := make([]string, 0, len(groups))
	for _, group := range groups {
		tags = append(tags, group[1])
	}

	return Extraction{RecordID: id, Tags: tags}, true
}
