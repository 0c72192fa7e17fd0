// Package calendar derives UTC civil date and hour bucket labels from Unix
// seconds with plain proleptic Gregorian arithmetic. It never consults a time
// zone database, so the labels are stable across hosts.
package calendar

import "fmt"

const (
	secondsPerDay  = 86400
	secondsPerHour = 3600
	daysPerEra     = 146097 // 400 Gregorian years
)

var monthDays = [12]uint64{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// IsLeapYear applies the Gregorian rule.
func IsLeapYear(year uint64) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// Civil splits a Unix timestamp into year, month (1-12) and day (1-31).
func Civil(unix uint64) (year, month, day uint64) {
	remaining := unix / secondsPerDay
	year = 1970
	// 1970 is not aligned to an era but every 400-year span has the same length.
	year += remaining / daysPerEra * 400
	remaining %= daysPerEra
	for {
		days := uint64(365)
		if IsLeapYear(year) {
			days = 366
		}
		if remaining < days {
			break
		}
		remaining -= days
		year++
	}

	month = 1
	for i, days := range monthDays {
		if i == 1 && IsLeapYear(year) {
			days = 29
		}
		if remaining < days {
			break
		}
		remaining -= days
		month++
	}
	return year, month, remaining + 1
}

// CivilDate formats a timestamp as YYYY-MM-DD.
func CivilDate(unix uint64) string {
	year, month, day := Civil(unix)
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// CivilHour formats a timestamp as YYYY-MM-DD-HH.
func CivilHour(unix uint64) string {
	return fmt.Sprintf("%s-%02d", CivilDate(unix), (unix%secondsPerDay)/secondsPerHour)
}
