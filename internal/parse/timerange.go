package parse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidRange is wrapped by every ParseTimeRange failure.
var ErrInvalidRange = errors.New("invalid time range")

var rangeRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*-\s*(\d{1,2}):(\d{2})$`)

// Interval is a naive local time span in minutes since midnight.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Overlaps reports whether the half-open intervals [Start, End) intersect.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && o.Start < i.End
}

// ParseTimeRange parses "H[H]:MM - H[H]:MM" into an Interval.
func ParseTimeRange(raw string) (Interval, error) {
	s := strings.TrimSpace(raw)
	m := rangeRe.FindStringSubmatch(s)
	if m == nil {
		return Interval{}, fmt.Errorf("%w: %q does not match HH:MM - HH:MM", ErrInvalidRange, raw)
	}

	start, err := clockMinutes(m[1], m[2])
	if err != nil {
		return Interval{}, fmt.Errorf("%w: start of %q: %v", ErrInvalidRange, raw, err)
	}
	end, err := clockMinutes(m[3], m[4])
	if err != nil {
		return Interval{}, fmt.Errorf("%w: end of %q: %v", ErrInvalidRange, raw, err)
	}
	if end <= start {
		return Interval{}, fmt.Errorf("%w: %q ends before it starts", ErrInvalidRange, raw)
	}

	return Interval{Start: start, End: end}, nil
}

func clockMinutes(hh, mm string) (int, error) {
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, err
	}
	if h < 0 || h > 23 {
		return 0, fmt.Errorf("hour %d out of range", h)
	}
	if m < 0 || m > 59 {
		return 0, fmt.Errorf("minute %d out of range", m)
	}
	return h*60 + m, nil
}
