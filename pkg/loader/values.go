// pkg/loader/values.go
package loader

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timeFormats are the layouts seen in wearable export files, most
// specific first. The m/d/Y variants are what the device vendor emits.
var timeFormats = []string{
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04:05",
	"1/2/2006",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// parseTimeValue parses a cell into a time.Time, trying each known layout
func parseTimeValue(s string) (time.Time, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return time.Time{}, errors.New("empty string")
	}

	for _, format := range timeFormats {
		if t, err := time.Parse(format, cleaned); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("cannot parse time from '%s'", cleaned)
}

// parseFloatValue parses a cell into a float64
func parseFloatValue(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return 0, errors.New("empty string")
	}
	return strconv.ParseFloat(cleaned, 64)
}

// Cell parsers return nil for empty cells: a blank cell is a missing
// value for the presence rules to judge, not a load error.

func asString(s string) (interface{}, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return nil, nil
	}
	return cleaned, nil
}

func asFloat(s string) (interface{}, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	v, err := parseFloatValue(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func asTime(s string) (interface{}, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseTimeValue(s)
	if err != nil {
		return nil, err
	}
	return t, nil
}
