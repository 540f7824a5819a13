// Package analytics aggregates completion history into the dashboard
// numbers: the today summary, the weekly trend, and streaks. All date
// arithmetic is calendar-day based.
package analytics

import (
	"time"

	"github.com/daybookapp/daybook/internal/store"
)

const dateLayout = "2006-01-02"

type Aggregator struct {
	store *store.Store
}

func New(s *store.Store) *Aggregator {
	return &Aggregator{store: s}
}

// TodaySummary is one day's headline numbers.
type TodaySummary struct {
	Date           string      `json:"date"`
	CompletedCount int         `json:"completed_count"`
	DueCount       int         `json:"due_count"`
	CompletionRate float64     `json:"completion_rate"` // 0 when nothing was due
	FocusMinutes   int         `json:"focus_minutes"`
	DueTierCounts  map[int]int `json:"due_tier_counts"`
}

// Today summarizes the given date.
func (a *Aggregator) Today(now time.Time) (*TodaySummary, error) {
	date := now.Format(dateLayout)

	completed, err := a.store.CountCompletedOn(date)
	if err != nil {
		return nil, err
	}
	due, err := a.store.TasksDueOn(date)
	if err != nil {
		return nil, err
	}
	focusMinutes, err := a.store.FocusMinutesOn(date)
	if err != nil {
		return nil, err
	}

	summary := &TodaySummary{
		Date:           date,
		CompletedCount: completed,
		DueCount:       len(due),
		FocusMinutes:   focusMinutes,
		DueTierCounts:  map[int]int{1: 0, 2: 0, 3: 0},
	}

	dueCompleted := 0
	for _, task := range due {
		if task.Completed {
			dueCompleted++
		}
		if task.PriorityTier != nil {
			summary.DueTierCounts[*task.PriorityTier]++
		}
	}
	if len(due) > 0 {
		summary.CompletionRate = float64(dueCompleted) / float64(len(due))
	}
	return summary, nil
}

// TrendDay is one day of the weekly trend.
type TrendDay struct {
	Date      string `json:"date"`
	Weekday   string `json:"weekday"`
	Completed int    `json:"completed"`
}

// WeeklyTrend returns completion counts for the trailing seven calendar
// days, oldest first, ending on the given date.
func (a *Aggregator) WeeklyTrend(now time.Time) ([]TrendDay, error) {
	trend := make([]TrendDay, 0, 7)
	for offset := -6; offset <= 0; offset++ {
		day := now.AddDate(0, 0, offset)
		date := day.Format(dateLayout)
		count, err := a.store.CountCompletedOn(date)
		if err != nil {
			return nil, err
		}
		trend = append(trend, TrendDay{
			Date:      date,
			Weekday:   day.Weekday().String()[:3],
			Completed: count,
		})
	}
	return trend, nil
}

// Streaks is the pair of streak numbers the dashboard shows.
type Streaks struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// Streaks computes the current and longest consecutive-day completion
// streaks. The current streak counts back from today if today has a
// completion, else from yesterday; otherwise it is zero.
func (a *Aggregator) Streaks(now time.Time) (*Streaks, error) {
	dates, err := a.store.DistinctCompletionDates()
	if err != nil {
		return nil, err
	}

	have := make(map[string]bool, len(dates))
	for _, d := range dates {
		have[d] = true
	}

	result := &Streaks{}

	anchor := now
	if !have[anchor.Format(dateLayout)] {
		anchor = anchor.AddDate(0, 0, -1)
	}
	for have[anchor.Format(dateLayout)] {
		result.Current++
		anchor = anchor.AddDate(0, 0, -1)
	}

	// Longest run over the ascending distinct dates.
	run := 0
	var prev time.Time
	for i, d := range dates {
		day, err := time.Parse(dateLayout, d)
		if err != nil {
			return nil, err
		}
		if i > 0 && day.Sub(prev) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > result.Longest {
			result.Longest = run
		}
		prev = day
	}
	return result, nil
}
