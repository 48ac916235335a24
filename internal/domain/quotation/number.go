package quotation

import (
	"fmt"
	"strconv"
	"strings"
)

// NumberPrefix returns the prefix shared by every quotation number of a year
func NumberPrefix(year int) string {
	return fmt.Sprintf("COT-%d-", year)
}

// FormatNumber renders a quotation number, e.g. COT-2025-007
func FormatNumber(year, seq int) string {
	return fmt.Sprintf("COT-%d-%03d", year, seq)
}

// ParseSequence extracts the trailing sequence from a quotation number
func ParseSequence(number string) (int, error) {
	idx := strings.LastIndex(number, "-")
	if idx < 0 || idx == len(number)-1 {
		return 0, fmt.Errorf("malformed quotation number %q", number)
	}
	seq, err := strconv.Atoi(number[idx+1:])
	if err != nil || seq < 0 {
		return 0, fmt.Errorf("malformed quotation number %q", number)
	}
	return seq, nil
}

// NextNumber derives the number following last within year.
// An empty last starts the year's sequence at 1.
func NextNumber(year int, last string) (string, error) {
	if last == "" {
		return FormatNumber(year, 1), nil
	}
	if !strings.HasPrefix(last, NumberPrefix(year)) {
		return "", fmt.Errorf("quotation number %q does not belong to year %d", last, year)
	}
	seq, err := ParseSequence(last)
	if err != nil {
		return "", err
	}
	return FormatNumber(year, seq+1), nil
}
