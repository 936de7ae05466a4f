package features

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Source and derived column names.
const (
	DateColumn        = "date"
	TimeColumn        = "time"
	DateNumericColumn = "date_numeric"
	TimeNumericColumn = "time_numeric"
)

// DateDisplay is the layout dates are reported in.
const DateDisplay = "2006-01-02"

const (
	dateLayout  = "2-1-06" // DD-MM-YY
	clockLayout = "15:4:5" // HH:MM:SS
)

// DateTimeError reports that date/time derivation could not run for the batch.
type DateTimeError struct {
	Missing []string
}

func (e *DateTimeError) Error() string {
	return fmt.Sprintf("column(s) not found: %s", strings.Join(e.Missing, ", "))
}

// ParseDate parses a DD-MM-YY date as midnight UTC.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseClock parses HH:MM:SS and returns seconds since midnight.
func ParseClock(s string) (int, bool) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return t.Hour()*3600 + t.Minute()*60 + t.Second(), true
}

// DeriveTemporal adds date_numeric (epoch seconds) and time_numeric (seconds since
// midnight) to every row. Unparseable cells become NaN; a missing date or time
// column fails the whole batch.
func DeriveTemporal(f *Frame) error {
	dates, okDate := f.Strings(DateColumn)
	clocks, okTime := f.Strings(TimeColumn)
	if !okDate || !okTime {
		var missing []string
		if !okDate {
			missing = append(missing, DateColumn)
		}
		if !okTime {
			missing = append(missing, TimeColumn)
		}
		return &DateTimeError{Missing: missing}
	}

	dateNumeric := make([]float64, f.Len())
	parsed := make([]time.Time, f.Len())
	for i, s := range dates {
		t, ok := ParseDate(s)
		if !ok {
			dateNumeric[i] = math.NaN()
			continue
		}
		parsed[i] = t
		dateNumeric[i] = float64(t.Unix())
	}

	timeNumeric := make([]float64, f.Len())
	for i, s := range clocks {
		secs, ok := ParseClock(s)
		if !ok {
			timeNumeric[i] = math.NaN()
			continue
		}
		timeNumeric[i] = float64(secs)
	}

	f.dates = parsed
	f.SetNumeric(DateNumericColumn, dateNumeric)
	f.SetNumeric(TimeNumericColumn, timeNumeric)
	return nil
}
