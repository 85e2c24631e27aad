package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidClock is returned for clock strings that cannot be parsed.
var ErrInvalidClock = errors.New("invalid clock")

// ParseClock converts a game clock to the time remaining in the period.
// Accepts "MM:SS", "MM:SS.f" and plain seconds ("42", "4.7").
func ParseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidClock)
	}

	if !strings.Contains(s, ":") {
		secs, err := strconv.ParseFloat(s, 64)
		if err != nil || secs < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
		}
		return time.Duration(secs * float64(time.Second)).Round(time.Millisecond), nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	mins, err := strconv.Atoi(parts[0])
	if err != nil || mins < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	secs, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || secs < 0 || secs >= 60 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	d := time.Duration(mins)*time.Minute + time.Duration(secs*float64(time.Second))
	return d.Round(time.Millisecond), nil
}

// FormatClock renders d as "MM:SS", with tenths under a minute.
func FormatClock(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("00:%04.1f", d.Seconds())
	}
	mins := int(d / time.Minute)
	secs := int((d % time.Minute) / time.Second)
	return fmt.Sprintf("%02d:%02d", mins, secs)
}
