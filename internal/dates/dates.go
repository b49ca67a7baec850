// Package dates provides the calendar helpers behind every computed input list.
//
// All arithmetic is done on calendar days (time.AddDate on local midnights),
// never on elapsed hours, so DST transitions cannot shift a result.
package dates

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TokenLayout is the 8-digit date token written into query inputs.
const TokenLayout = "20060102"

var (
	tokenRegex = regexp.MustCompile(`^\d{8}$`)
)

var (
	// ErrInvalidDate indicates a token that is not a real YYYYMMDD calendar date.
	ErrInvalidDate = errors.New("invalid date token")
	// ErrInvertedRange indicates a range whose start falls after its end.
	ErrInvertedRange = errors.New("range start is after range end")
	// ErrRangeTooLarge indicates a range that expands past the configured day cap.
	ErrRangeTooLarge = errors.New("range exceeds max days")
)

// IsValidToken checks if a string is a valid YYYYMMDD date.
func IsValidToken(s string) bool {
	_, err := ParseToken(s)
	return err == nil
}

// ParseToken parses a YYYYMMDD token as local midnight of that day.
// Day-of-month overflow (20250230, 20250229) is rejected.
func ParseToken(s string) (time.Time, error) {
	if !tokenRegex.MatchString(s) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	t, err := time.ParseInLocation(TokenLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatToken formats the calendar day of t as YYYYMMDD.
func FormatToken(t time.Time) string {
	return t.Format(TokenLayout)
}

// Today returns local midnight of the calendar day containing now.
func Today(now time.Time) time.Time {
	return startOfDay(now.In(time.Local))
}

// NextMidnight returns the first second of the local day after now.
func NextMidnight(now time.Time) time.Time {
	local := now.In(time.Local)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 1, 0, time.Local)
}

// ParseOffsets parses a comma separated offset list such as "1,2,4,7".
// Entries that are not positive integers are dropped; the result is ascending.
func ParseOffsets(s string) []int {
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n <= 0 {
			continue
		}
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// OffsetDates returns one token per offset, counted back from the calendar day of now.
//
// With excludeToday an offset n means n days ago (1 = yesterday); otherwise it
// means max(0, n-1) days ago (1 = today). Non-positive offsets are ignored and
// the offsets are processed in ascending order, so the most recent date comes first.
func OffsetDates(offsets []int, excludeToday bool, now time.Time) []string {
	sorted := make([]int, 0, len(offsets))
	for _, n := range offsets {
		if n > 0 {
			sorted = append(sorted, n)
		}
	}
	sort.Ints(sorted)

	today := Today(now)
	out := make([]string, 0, len(sorted))
	for _, n := range sorted {
		back := n
		if !excludeToday {
			back = max(0, n-1)
		}
		out = append(out, FormatToken(today.AddDate(0, 0, -back)))
	}
	return out
}

// DaysInclusive counts calendar days from start to end, both included.
func DaysInclusive(start, end time.Time) int {
	a := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int((b.Unix()-a.Unix())/secondsPerDay) + 1
}

// RangeDates expands an inclusive YYYYMMDD range into every calendar day.
// The range is rejected when either token is invalid, when start > end, or
// when it covers more than maxDays days.
func RangeDates(start, end string, maxDays int) ([]string, error) {
	s, err := ParseToken(start)
	if err != nil {
		return nil, err
	}
	e, err := ParseToken(end)
	if err != nil {
		return nil, err
	}
	if s.After(e) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvertedRange, start, end)
	}

	n := DaysInclusive(s, e)
	if n > maxDays {
		return nil, fmt.Errorf("%w: %d days > %d", ErrRangeTooLarge, n, maxDays)
	}

	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, FormatToken(s.AddDate(0, 0, i)))
	}
	return out, nil
}

const secondsPerDay = 24 * 60 * 60

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
