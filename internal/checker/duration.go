package checker

import (
	"fmt"
	"time"
)

// FormatDuration renders a downtime duration as a short human-readable
// string: 42s, 5m, 3h 20m, 2d 4h. Zero minor units are omitted.
func FormatDuration(d time.Duration) string {
	total := int(d.Seconds())
	switch {
	case total < 60:
		return fmt.Sprintf("%ds", total)
	case total < 3600:
		return fmt.Sprintf("%dm", total/60)
	case total < 86400:
		hours := total / 3600
		minutes := (total % 3600) / 60
		if minutes == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		days := total / 86400
		hours := (total % 86400) / 3600
		if hours == 0 {
			return fmt.Sprintf("%dd", days)
		}
		return fmt.Sprintf("%dd %dh", days, hours)
	}
}
