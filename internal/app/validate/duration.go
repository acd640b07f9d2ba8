package validate

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var durationPattern = regexp.MustCompile(`^(\d+)\s*(minute|hour|day|week|month)s?$`)

var ErrBadDuration = errors.New(`invalid duration, expected something like "5 days" or "2 hours"`)

// ParseHumanDuration parses admin-typed durations like "5 minutes",
// "2 hours", "7 days", "1 week", "2 months". Months count as 30 days.
func ParseHumanDuration(s string) (time.Duration, error) {
	m := durationPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return 0, ErrBadDuration
	}
	amount, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, ErrBadDuration
	}
	n := time.Duration(amount)
	switch m[2] {
	case "minute":
		return n * time.Minute, nil
	case "hour":
		return n * time.Hour, nil
	case "day":
		return n * 24 * time.Hour, nil
	case "week":
		return n * 7 * 24 * time.Hour, nil
	case "month":
		return n * 30 * 24 * time.Hour, nil
	}
	return 0, ErrBadDuration
}
