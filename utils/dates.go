// utils/dates.go
package utils

import (
	"fmt"
	"time"
)

// KST is the business timezone. The offset is fixed (+09:00) and has no DST.
var KST = time.FixedZone("KST", 9*60*60)

const (
	DateLayout     = "2006-01-02"
	ClockLayout    = "15:04"
	DateTimeLayout = "2006-01-02 15:04"
)

// KSTTime resolves a civil date ("YYYY-MM-DD") and wall clock ("HH:MM") in KST
// to an absolute instant, returned in UTC.
func KSTTime(date, clock string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+ClockLayout, date+" "+clock, KST)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid KST date/time %q %q: %w", date, clock, err)
	}
	return t.UTC(), nil
}

func FormatKSTDate(t time.Time) string {
	return t.In(KST).Format(DateLayout)
}

func FormatKSTDateTime(t time.Time) string {
	return t.In(KST).Format(DateTimeLayout)
}

// AddCivilDays moves a "YYYY-MM-DD" date by n calendar days.
func AddCivilDays(date string, n int) (string, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t.AddDate(0, 0, n).Format(DateLayout), nil
}

// KSTDayBounds returns the first and last instant of the KST day containing t.
func KSTDayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.In(KST).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, KST)
	return start.UTC(), start.AddDate(0, 0, 1).Add(-time.Millisecond).UTC()
}

// KSTMonthBounds returns the first and last instant of a KST calendar month.
func KSTMonthBounds(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, KST)
	return start.UTC(), start.AddDate(0, 1, 0).Add(-time.Millisecond).UTC()
}

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// DaysBetween counts KST calendar days from start to end.
func DaysBetween(start, end time.Time) int {
	s := BeginningOfDay(start.In(KST))
	e := BeginningOfDay(end.In(KST))
	return int(e.Sub(s).Hours() / 24)
}
