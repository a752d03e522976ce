// Package timeutil formats transcript timestamps and elapsed times for display.
package timeutil

import (
	"fmt"
	"time"
)

// FormatTimestamp converts seconds to HH:MM:SS.cc.
//
// Example:
//
//	FormatTimestamp(0)      // "00:00:00.00"
//	FormatTimestamp(90)     // "00:01:30.00"
//	FormatTimestamp(3661)   // "01:01:01.00"
//	FormatTimestamp(30.53)  // "00:00:30.53"
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := seconds - float64(hours*3600) - float64(minutes*60)
	return fmt.Sprintf("%02d:%02d:%05.2f", hours, minutes, secs)
}

// FormatDuration renders an elapsed time compactly: "850ms", "4.2s", "3m07s", "1h02m".
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
