package agent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var amountPattern = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

// ParseAmount extracts the first numeric amount from a price or budget string
// ("under $2,000" -> 2000, "$1,000 - $2,000" -> 1000). Returns an error when
// no digits are present.
func ParseAmount(s string) (float64, error) {
	match := amountPattern.FindString(s)
	if match == "" {
		return 0, fmt.Errorf("no numeric amount in %q", s)
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return v, nil
}
