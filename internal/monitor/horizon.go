// Package monitor detects significant probability moves on tracked markets
// and attributes them to the bettors who drove them.
package monitor

import "time"

// Horizon is a lookback window for probability change detection. Horizons
// are evaluated shortest-first so a move is always reported against the
// tightest window that crossed the threshold.
type Horizon int

const (
	HorizonDay Horizon = iota
	HorizonWeek
	HorizonMonth
)

// Horizons lists all lookback windows in evaluation order.
var Horizons = []Horizon{HorizonDay, HorizonWeek, HorizonMonth}

// Hours returns the horizon length in hours.
func (h Horizon) Hours() int {
	switch h {
	case HorizonDay:
		return 24
	case HorizonWeek:
		return 24 * 7
	case HorizonMonth:
		return 24 * 30
	default:
		return 0
	}
}

// Window returns the horizon length as a duration.
func (h Horizon) Window() time.Duration {
	return time.Duration(h.Hours()) * time.Hour
}

func (h Horizon) String() string {
	switch h {
	case HorizonDay:
		return "day"
	case HorizonWeek:
		return "week"
	case HorizonMonth:
		return "month"
	default:
		return "unknown"
	}
}
