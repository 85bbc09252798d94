package util

import (
	"strconv"
	"time"
)

// FormatTimeAgo renders a millisecond timestamp relative to now:
// "Just now" under a minute, then whole minutes, hours and days.
func FormatTimeAgo(ts int64, now time.Time) string {
	diff := now.UnixMilli() - ts
	minutes := diff / 60_000
	hours := diff / 3_600_000
	days := diff / 86_400_000

	switch {
	case minutes < 1:
		return "Just now"
	case minutes < 60:
		return strconv.FormatInt(minutes, 10) + "m ago"
	case hours < 24:
		return strconv.FormatInt(hours, 10) + "h ago"
	default:
		return strconv.FormatInt(days, 10) + "d ago"
	}
}
