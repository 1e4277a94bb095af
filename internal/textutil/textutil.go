// Package textutil holds small text normalization and parsing helpers
// shared by the report intake paths.
package textutil

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	nonDigitRe = regexp.MustCompile(`\D`)
	nonAlnumRe = regexp.MustCompile(`[\W_]+`)
	spanRe     = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*([a-z]+)`)
)

// ErrUnparsableDuration is returned when a duration expression matches no
// supported format.
var ErrUnparsableDuration = errors.New("unparsable duration")

// ParsePhoneNumber normalizes a phone number toward E.164: every
// non-digit character is stripped, a bare 10-digit national number gets
// the country code digit 1, and the result is prefixed with "+".
// Inputs with any other digit count are passed through un-validated,
// matching the behavior report forms have always had.
func ParsePhoneNumber(phoneNumber string) string {
	if phoneNumber == "" {
		return ""
	}

	stripped := nonDigitRe.ReplaceAllString(phoneNumber, "")
	if len(stripped) == 10 {
		stripped = "1" + stripped
	}
	return "+" + stripped
}

// StripNonAlphanumeric removes everything that is not a letter or a
// digit. Underscores are removed too.
func StripNonAlphanumeric(input string) string {
	return nonAlnumRe.ReplaceAllString(input, "")
}

// MinutesToDuration converts a whole number of minutes, as submitted on
// report forms, into a time.Duration.
func MinutesToDuration(minutes int) time.Duration {
	return time.Duration(minutes) * time.Minute
}

// ParseDuration parses a free-text duration expression into a
// time.Duration. Supported forms:
//
//	"1:30:00"      clock style, h:m:s (two fields mean m:s)
//	"5 minutes"    natural units, possibly chained: "1 hour 30 mins"
//	"1h30m"        Go duration syntax
//
// Unparsable input yields ErrUnparsableDuration.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty input", ErrUnparsableDuration)
	}

	if strings.Contains(s, ":") {
		return parseClock(s)
	}

	if d, err := time.ParseDuration(s); err == nil {
		if d < 0 {
			return 0, fmt.Errorf("%w: negative duration %q", ErrUnparsableDuration, s)
		}
		return d, nil
	}

	return parseSpan(s)
}

// parseClock parses "h:m:s" and "m:s" expressions. The seconds field may
// carry a fraction.
func parseClock(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrUnparsableDuration, s)
	}

	secs, err := strconv.ParseFloat(strings.TrimSpace(parts[len(parts)-1]), 64)
	if err != nil || secs < 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnparsableDuration, s)
	}
	total := secs

	multiplier := 60.0
	for i := len(parts) - 2; i >= 0; i-- {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: %q", ErrUnparsableDuration, s)
		}
		total += float64(n) * multiplier
		multiplier *= 60
	}

	return time.Duration(total * float64(time.Second)), nil
}

// parseSpan parses natural-language expressions like "5 minutes" or
// "1 hour 30 mins" by summing each number/unit pair.
func parseSpan(s string) (time.Duration, error) {
	matches := spanRe.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnparsableDuration, s)
	}

	var total time.Duration
	for _, m := range matches {
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrUnparsableDuration, s)
		}
		unit, ok := spanUnits[strings.ToLower(m[2])]
		if !ok {
			return 0, fmt.Errorf("%w: unknown unit %q in %q", ErrUnparsableDuration, m[2], s)
		}
		total += time.Duration(value * float64(unit))
	}
	return total, nil
}

var spanUnits = map[string]time.Duration{
	"s": time.Second, "sec": time.Second, "secs": time.Second,
	"second": time.Second, "seconds": time.Second,
	"m": time.Minute, "min": time.Minute, "mins": time.Minute,
	"minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hr": time.Hour, "hrs": time.Hour,
	"hour": time.Hour, "hours": time.Hour,
	"d": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
	"w": 7 * 24 * time.Hour, "week": 7 * 24 * time.Hour, "weeks": 7 * 24 * time.Hour,
}
