// Package timegrid models the bounded working day the planner schedules
// into. Times are minutes from midnight within a single day; nothing
// here spans overnight.
package timegrid

import (
	"fmt"
	"strconv"
	"strings"
)

// Block is a half-open [Start, End) interval in minutes from midnight.
type Block struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Grid is the working-day frame: bounds in whole hours plus the snap
// interval requested start times are rounded to.
type Grid struct {
	StartHour   int
	EndHour     int
	SnapMinutes int
}

// Start returns the first minute of the working day.
func (g Grid) Start() int { return g.StartHour * 60 }

// DayEnd returns the minute the working day closes.
func (g Grid) DayEnd() int { return g.EndHour * 60 }

// Snap rounds t to the nearest grid line. Ties round up, and rounding
// carries across hour boundaries (e.g. 08:53 on a 15-minute grid
// becomes 09:00).
func (g Grid) Snap(t int) int {
	if g.SnapMinutes <= 0 {
		return t
	}
	remainder := t % g.SnapMinutes
	if remainder == 0 {
		return t
	}
	if remainder*2 >= g.SnapMinutes {
		return t + g.SnapMinutes - remainder
	}
	return t - remainder
}

// End computes the end of a placement from its start and duration.
func End(start, durationMinutes int) int {
	return start + durationMinutes
}

// FreeBlocks returns the gaps between scheduled intervals, clipped to
// the working-day bounds. scheduled must be sorted by start and
// non-overlapping; one pass over it produces zero or more disjoint
// blocks that never overlap the scheduled ones.
func (g Grid) FreeBlocks(scheduled []Block) []Block {
	var free []Block
	cursor := g.Start()
	dayEnd := g.DayEnd()

	for _, b := range scheduled {
		start, end := b.Start, b.End
		if end <= g.Start() || start >= dayEnd {
			continue
		}
		if start < g.Start() {
			start = g.Start()
		}
		if end > dayEnd {
			end = dayEnd
		}
		if start > cursor {
			free = append(free, Block{Start: cursor, End: start})
		}
		if end > cursor {
			cursor = end
		}
	}

	if cursor < dayEnd {
		free = append(free, Block{Start: cursor, End: dayEnd})
	}
	return free
}

// ParseClock reads an "HH:MM" string into minutes from midnight.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return hour*60 + minute, nil
}

// FormatClock renders minutes from midnight as "HH:MM". Values at or
// past midnight clamp to "23:59" since the grid never spans overnight.
func FormatClock(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	if minutes > 23*60+59 {
		minutes = 23*60 + 59
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
