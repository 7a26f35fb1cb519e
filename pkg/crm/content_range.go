package crm

import (
	"fmt"
	"regexp"
	"strconv"
)

var contentRangePattern = regexp.MustCompile(`(?i)^\s*items\s+(\d+)-(-?\d+)/(\d+)`)

// ParseContentRange parses a Content-Range header of the form
// "items <start>-<end>/<total>". Empty pages are reported as "items 0--1/0".
func ParseContentRange(header string) (PageRange, error) {
	m := contentRangePattern.FindStringSubmatch(header)
	if m == nil {
		return PageRange{}, fmt.Errorf("%w: %q", ErrContentRangeMissing, header)
	}

	start, err := strconv.Atoi(m[1])
	if err != nil {
		return PageRange{}, fmt.Errorf("%w: start: %w", ErrContentRangeMissing, err)
	}

	end, err := strconv.Atoi(m[2])
	if err != nil {
		return PageRange{}, fmt.Errorf("%w: end: %w", ErrContentRangeMissing, err)
	}

	total, err := strconv.Atoi(m[3])
	if err != nil {
		return PageRange{}, fmt.Errorf("%w: total: %w", ErrContentRangeMissing, err)
	}

	return PageRange{StartIndex: start, EndIndex: end, TotalCount: total}, nil
}
