// Package fields converts raw substrings captured from tracker sentences into typed values.
package fields

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidField is returned when a raw value is outside the domain of a conversion.
var ErrInvalidField = errors.New("invalid field value")

// YearEpoch is the year that two-digit year fields are counted from.
const YearEpoch = 2000

// HexToInt parses a string of hexadecimal digits as an unsigned integer.
func HexToInt(s string) (int64, error) {
	v, err := strconv.ParseUint(s, 16, 63)
	if err != nil {
		return 0, fmt.Errorf("%w: hex %q: %v", ErrInvalidField, s, err)
	}
	return int64(v), nil
}

// BCDComponent decodes a pair of hexadecimal digits into a calendar component.
func BCDComponent(s string) (int, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("%w: bcd pair %q", ErrInvalidField, s)
	}
	v, err := HexToInt(s)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// BCDYear decodes a two-digit year counted from YearEpoch.
func BCDYear(s string) (int, error) {
	v, err := BCDComponent(s)
	if err != nil {
		return 0, err
	}
	return YearEpoch + v, nil
}

// BCDMonth decodes a 1-based wire month and returns it 0-based.
func BCDMonth(s string) (int, error) {
	v, err := BCDComponent(s)
	if err != nil {
		return 0, err
	}
	return v - 1, nil
}

// HemisphereDigit returns -1 for the digit "8" and 1 for any other single hex digit.
func HemisphereDigit(s string) (float64, error) {
	if len(s) != 1 || !isHexDigit(s[0]) {
		return 0, fmt.Errorf("%w: hemisphere digit %q", ErrInvalidField, s)
	}
	if s == "8" {
		return -1, nil
	}
	return 1, nil
}

// HemisphereLetter returns -1 for S and W, 1 for N and E.
func HemisphereLetter(s string) (float64, error) {
	switch s {
	case "N", "E":
		return 1, nil
	case "S", "W":
		return -1, nil
	}
	return 0, fmt.Errorf("%w: hemisphere letter %q", ErrInvalidField, s)
}

// FixedPointHex parses a hex integer and divides it by divisor.
func FixedPointHex(s string, divisor float64) (float64, error) {
	v, err := HexToInt(s)
	if err != nil {
		return 0, err
	}
	return float64(v) / divisor, nil
}

// DegreesMinutes combines whole degrees and decimal minutes into decimal degrees.
func DegreesMinutes(degrees, minutes float64) float64 {
	return degrees + minutes/60.0
}

// ParseDegreesMinutes is DegreesMinutes over the raw decimal strings.
func ParseDegreesMinutes(degPart, minPart string) (float64, error) {
	deg, err := ParseDecimal(degPart)
	if err != nil {
		return 0, err
	}
	min, err := ParseDecimal(minPart)
	if err != nil {
		return 0, err
	}
	return DegreesMinutes(deg, min), nil
}

// ParseDecimal parses a decimal number.
func ParseDecimal(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: decimal %q: %v", ErrInvalidField, s, err)
	}
	return v, nil
}

// ParseInt parses a decimal integer.
func ParseInt(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: integer %q: %v", ErrInvalidField, s, err)
	}
	return v, nil
}

// OptionalFloat returns def when the value is absent and the parsed decimal otherwise.
func OptionalFloat(s string, present bool, def float64) (float64, error) {
	if !present {
		return def, nil
	}
	return ParseDecimal(s)
}

// Calendar holds the discrete components of a timestamp. Month is 0-based.
type Calendar struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
}

// Time assembles the components into a UTC time. Out of range components
// roll over into the next larger unit.
func (c Calendar) Time() time.Time {
	return time.Date(c.Year, time.Month(c.Month+1), c.Day, c.Hour, c.Minute, c.Second, 0, time.UTC)
}

// Split cuts s around sep and drops trailing empty elements.
// An empty s yields a single empty element.
func Split(s, sep string) []string {
	if s == "" {
		return []string{""}
	}
	parts := strings.Split(s, sep)
	n := len(parts)
	for n > 0 && parts[n-1] == "" {
		n--
	}
	return parts[:n]
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
