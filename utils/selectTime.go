package utils

import "time"

// SelectTime переводит значение из конфига в time.Duration
func SelectTime(unit string, timeoutValue int) time.Duration {
	switch unit {
	case "seconds":
		return time.Duration(timeoutValue) * time.Second
	case "minutes":
		return time.Duration(timeoutValue) * time.Minute
	case "hours":
		return time.Duration(timeoutValue) * time.Hour
	case "days":
		return time.Duration(timeoutValue) * 24 * time.Hour
	default:
		return time.Duration(timeoutValue) * time.Second
	}
}
