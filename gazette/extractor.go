package gazette

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PedroPPVM/Intelectus-Api/models"
)

// Each category has its own extraction grammar: a search-key transformation
// plus a stop-condition pattern that delimits one process's record block
// within the gazette's free-text layout. The grammars are not interchangeable.
type extractFunc func(processNumber string, doc Document) (*StatusRecord, error)

var extractors = map[models.ProcessType]extractFunc{
	models.ProcessTypeBrand:    extractBrand,
	models.ProcessTypeSoftware: extractSoftware,
	models.ProcessTypePatent:   extractPatent,
	models.ProcessTypeDesign:   extractDesign,
}

// Extract locates the record block for one process in a gazette document.
// Returns (nil, nil) when the number is not present anywhere in the
// document: absence from an issue is an expected outcome, not an error.
func Extract(processNumber string, processType models.ProcessType, doc Document) (*StatusRecord, error) {
	fn, ok := extractors[processType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCategoryNotSupported, processType)
	}
	return fn(processNumber, doc)
}

var brandStopPattern = regexp.MustCompile(`^\d{9}$`)

// Brand blocks start at the line carrying the process number and end at the
// next strictly 9-digit line (the next brand's number).
// Block: [0]=number, [1]=status.
func extractBrand(processNumber string, doc Document) (*StatusRecord, error) {
	needle := strings.ToLower(processNumber)
	block := collectBlock(doc, func(line string) bool {
		return strings.Contains(strings.ToLower(line), needle)
	}, func(line string) bool {
		return brandStopPattern.MatchString(strings.TrimSpace(line))
	})
	if block == nil {
		return nil, nil
	}
	if len(block) < 2 {
		return nil, fmt.Errorf("malformed brand block for %s: %d lines", processNumber, len(block))
	}
	return &StatusRecord{
		ProcessNumber: strings.TrimSpace(block[0]),
		Status:        strings.TrimSpace(block[1]),
	}, nil
}

var softwareStopPattern = regexp.MustCompile(`Processo: BR \d{2} \d{4} \d{6}-\d`)

// Software blocks end at the next "Processo: BR NN NNNN NNNNNN-N" header.
// Block: [0]="Processo: <number>", [1]=status, [2]=title.
func extractSoftware(processNumber string, doc Document) (*StatusRecord, error) {
	searchPattern, err := regexp.Compile("(?i)" + regexp.QuoteMeta(processNumber))
	if err != nil {
		return nil, err
	}
	block := collectBlock(doc, func(line string) bool {
		return searchPattern.MatchString(line)
	}, func(line string) bool {
		return matchAtStart(softwareStopPattern, strings.TrimSpace(line))
	})
	if block == nil {
		return nil, nil
	}
	if len(block) < 3 {
		return nil, fmt.Errorf("malformed software block for %s: %d lines", processNumber, len(block))
	}
	_, number, found := strings.Cut(block[0], ":")
	if !found {
		return nil, fmt.Errorf("malformed software block header for %s: %q", processNumber, block[0])
	}
	return &StatusRecord{
		ProcessNumber: strings.TrimSpace(number),
		Status:        strings.TrimSpace(block[1]),
		Title:         strings.TrimSpace(block[2]),
	}, nil
}

var patentStopPattern = regexp.MustCompile(`\(21\) BR \d{2} \d{4} \d{6}-\d`)

// Patent blocks end at the next "(21) BR ..." header line.
// Block: [0]="(21) <number>", [1]=status.
func extractPatent(processNumber string, doc Document) (*StatusRecord, error) {
	searchPattern, err := regexp.Compile("(?i)" + regexp.QuoteMeta(processNumber))
	if err != nil {
		return nil, err
	}
	block := collectBlock(doc, func(line string) bool {
		return searchPattern.MatchString(line)
	}, func(line string) bool {
		return matchAtStart(patentStopPattern, strings.TrimSpace(line))
	})
	if block == nil {
		return nil, nil
	}
	if len(block) < 2 {
		return nil, fmt.Errorf("malformed patent block for %s: %d lines", processNumber, len(block))
	}
	_, number, found := strings.Cut(strings.TrimSpace(block[0]), " ")
	if !found {
		return nil, fmt.Errorf("malformed patent block header for %s: %q", processNumber, block[0])
	}
	return &StatusRecord{
		ProcessNumber: strings.TrimSpace(number),
		Status:        strings.TrimSpace(block[1]),
	}, nil
}

// The three number shapes a design process can carry. The stop pattern is
// chosen by which shape the input number itself matches.
var designNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bDI\d{7,8}-\d\b`),
	regexp.MustCompile(`\b\d{12}\b`),
	regexp.MustCompile(`\bBR\d{2}\d{4}\d{6}-\d\b`),
}

// Design blocks end at the next number of the same shape as the input.
// The gazette places an intermediate line between number and status, so
// block index 2 (not 1) carries the status.
func extractDesign(processNumber string, doc Document) (*StatusRecord, error) {
	var stopPattern *regexp.Regexp
	for _, pattern := range designNumberPatterns {
		if pattern.MatchString(processNumber) {
			stopPattern = pattern
			break
		}
	}
	if stopPattern == nil {
		return nil, fmt.Errorf("unrecognized design process number shape: %q", processNumber)
	}

	searchPattern, err := regexp.Compile("(?i)" + regexp.QuoteMeta(processNumber))
	if err != nil {
		return nil, err
	}
	block := collectBlock(doc, func(line string) bool {
		return searchPattern.MatchString(line)
	}, func(line string) bool {
		return matchAtStart(stopPattern, strings.TrimSpace(line))
	})
	if block == nil {
		return nil, nil
	}
	if len(block) < 3 {
		return nil, fmt.Errorf("malformed design block for %s: %d lines", processNumber, len(block))
	}
	return &StatusRecord{
		ProcessNumber: strings.TrimSpace(block[0]),
		Status:        strings.TrimSpace(block[2]),
	}, nil
}

// collectBlock scans page by page for the first line satisfying match, then
// gathers that line plus every following line on the page up to (excluding)
// the first line satisfying stop. Only the first occurrence in the document
// is used.
func collectBlock(doc Document, match func(string) bool, stop func(string) bool) []string {
	for page := 0; page < doc.NumPages(); page++ {
		lines := doc.PageLines(page)
		for i, line := range lines {
			if !match(line) {
				continue
			}
			block := []string{line}
			for _, next := range lines[i+1:] {
				if stop(next) {
					break
				}
				block = append(block, next)
			}
			return block
		}
	}
	return nil
}

// matchAtStart reports whether the pattern matches at the beginning of s,
// mirroring an anchored match without requiring the full line to conform.
func matchAtStart(pattern *regexp.Regexp, s string) bool {
	loc := pattern.FindStringIndex(s)
	return loc != nil && loc[0] == 0
}
