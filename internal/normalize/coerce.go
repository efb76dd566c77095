// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package normalize

import (
	"bytes"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/goccy/go-json"
)

// flexFloat accepts a JSON number, a numeric string with grouping or a
// currency sign, or null. Anything unparseable decodes as absent.
type flexFloat struct {
	Value float64
	Valid bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	*f = flexFloat{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		if v, ok := parseLooseFloat(s); ok {
			*f = flexFloat{Value: v, Valid: true}
		}
		return nil
	}
	if v, err := strconv.ParseFloat(string(data), 64); err == nil {
		*f = flexFloat{Value: v, Valid: true}
	}
	return nil
}

// Or returns the value or def when absent.
func (f flexFloat) Or(def float64) float64 {
	if !f.Valid {
		return def
	}
	return f.Value
}

// Ptr returns nil when absent.
func (f flexFloat) Ptr() *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// flexInt is flexFloat truncated toward zero.
type flexInt struct {
	flexFloat
}

// Int returns the value or 0 when absent.
func (i flexInt) Int() int {
	return int(i.Or(0))
}

// parseLooseFloat handles "1 200,50", "$1,200.00", "2500 RUB".
func parseLooseFloat(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsDigit(r), r == '.', r == ',', r == '-':
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if clean == "" {
		return 0, false
	}

	// A single comma followed by 1-2 digits is a decimal separator,
	// any other comma groups thousands.
	if idx := strings.LastIndexByte(clean, ','); idx >= 0 {
		if !strings.Contains(clean, ".") && len(clean)-idx-1 <= 2 && strings.Count(clean, ",") == 1 {
			clean = clean[:idx] + "." + clean[idx+1:]
		} else {
			clean = strings.ReplaceAll(clean, ",", "")
		}
	}

	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// flexTime accepts RFC 3339, a plain date, or unix seconds.
type flexTime struct {
	Time time.Time
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	*t = flexTime{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] != '"' {
		if sec, err := strconv.ParseInt(string(data), 10, 64); err == nil && sec > 0 {
			t.Time = time.Unix(sec, 0).UTC()
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	t.Time = parseTime(s)
	return nil
}

var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}

// cleanStrings trims entries and drops empty ones.
func cleanStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
