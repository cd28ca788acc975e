// Package display holds the pure formatting helpers behind the status item:
// tracked-time strings, focus dots and focus labels.
package display

import "fmt"

// FormatDuration renders tracked seconds as "Xh Ym" or "Ym".
//
// The value is read as a clock time (HH:MM:SS), so leftover seconds are
// dropped and hours wrap at 24.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours, minutes, _ := clock(seconds)
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

func clock(seconds int64) (hours, minutes, secs int64) {
	seconds %= 24 * 60 * 60
	hours = seconds / 3600
	minutes = (seconds % 3600) / 60
	secs = seconds % 60
	return hours, minutes, secs
}
