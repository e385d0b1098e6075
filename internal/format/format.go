// Package format renders partition fields the way the resource manager's own
// tools print them.
package format

import "fmt"

// Duration renders seconds as "D-HH:MM:SS", dropping the day part when zero
func Duration(seconds int64) string {
	if seconds < 0 {
		return "INVALID"
	}
	days := seconds / 86400
	hours := (seconds / 3600) % 24
	minutes := (seconds / 60) % 60
	secs := seconds % 60

	if days > 0 {
		return fmt.Sprintf("%d-%02d:%02d:%02d", days, hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}

// Kilo abbreviates exact multiples of 1024 as "nK"
func Kilo(n uint64) string {
	if n >= 1024 && n%1024 == 0 {
		return fmt.Sprintf("%dK", n/1024)
	}
	return fmt.Sprintf("%d", n)
}
