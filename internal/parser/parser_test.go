package parser

import (
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC) // a Monday

func TestParse_PlainText(t *testing.T) {
	inputs := []string{
		"Buy milk",
		"  padded title  ",
		"Call Janet about the quarterly review",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			result := Parse(input, testNow)
			if result.Title != strings.TrimSpace(input) {
				t.Errorf("expected trimmed original, got %q", result.Title)
			}
			if result.DueDate != "" || result.DueTime != "" {
				t.Error("no date fields should be set")
			}
			if result.PriorityTier != nil || result.EstimatedMinutes != nil {
				t.Error("no optional fields should be set")
			}
			if len(result.Tags) != 0 || len(result.Tokens) != 0 {
				t.Error("no tags or tokens should be recognized")
			}
		})
	}
}

func TestParse_FullTaskLine(t *testing.T) {
	result := Parse("Buy milk tomorrow #errands !1 ~30m", testNow)

	if result.Title != "Buy milk" {
		t.Errorf("expected clean title %q, got %q", "Buy milk", result.Title)
	}
	if result.DueDate != "2026-09-01" {
		t.Errorf("expected tomorrow 2026-09-01, got %q", result.DueDate)
	}
	if len(result.Tags) != 1 || result.Tags[0] != "errands" {
		t.Errorf("expected tags [errands], got %v", result.Tags)
	}
	if result.PriorityTier == nil || *result.PriorityTier != 1 {
		t.Errorf("expected tier 1, got %v", result.PriorityTier)
	}
	if result.EstimatedMinutes == nil || *result.EstimatedMinutes != 30 {
		t.Errorf("expected 30 minutes, got %v", result.EstimatedMinutes)
	}
	if len(result.Tokens) != 4 {
		t.Fatalf("expected 4 tokens, got %d: %+v", len(result.Tokens), result.Tokens)
	}
	for i := 1; i < len(result.Tokens); i++ {
		if result.Tokens[i].Start < result.Tokens[i-1].Start {
			t.Error("tokens should be sorted by position")
		}
	}
}

func TestParse_MonthDayRollover(t *testing.T) {
	newYearsEve := time.Date(2026, 12, 31, 9, 0, 0, 0, time.UTC)
	result := Parse("File taxes Jan 15", newYearsEve)
	if result.DueDate != "2027-01-15" {
		t.Errorf("past date should roll to next year, got %q", result.DueDate)
	}

	newYearsDay := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	result = Parse("File taxes Jan 15", newYearsDay)
	if result.DueDate != "2026-01-15" {
		t.Errorf("future date should stay this year, got %q", result.DueDate)
	}
}

func TestParse_SlashDateRollover(t *testing.T) {
	result := Parse("Renew passport 3/15", time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	if result.DueDate != "2027-03-15" {
		t.Errorf("expected rollover to 2027-03-15, got %q", result.DueDate)
	}
	if result.Title != "Renew passport" {
		t.Errorf("token not removed: %q", result.Title)
	}
}

func TestParse_InvalidDayStaysLiteral(t *testing.T) {
	result := Parse("Meet on Feb 30", testNow)
	if result.DueDate != "" {
		t.Errorf("impossible date should not match, got %q", result.DueDate)
	}
	if result.Title != "Meet on Feb 30" {
		t.Errorf("unmatched text must stay in title, got %q", result.Title)
	}
}

func TestParse_Durations(t *testing.T) {
	cases := []struct {
		input   string
		minutes int
	}{
		{"Deep work ~1h30m", 90},
		{"Quick call ~15m", 15},
		{"Workshop ~2h", 120},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			result := Parse(tc.input, testNow)
			if result.EstimatedMinutes == nil || *result.EstimatedMinutes != tc.minutes {
				t.Errorf("expected %d minutes, got %v", tc.minutes, result.EstimatedMinutes)
			}
			if strings.Contains(result.Title, "~") {
				t.Errorf("duration token left in title: %q", result.Title)
			}
		})
	}
}

func TestParse_PriorityWords(t *testing.T) {
	cases := []struct {
		input string
		tier  int
	}{
		{"Fix prod !now", 1},
		{"Write docs !soon", 2},
		{"Clean desk !backlog", 3},
		{"Pay rent !2", 2},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			result := Parse(tc.input, testNow)
			if result.PriorityTier == nil || *result.PriorityTier != tc.tier {
				t.Errorf("expected tier %d, got %v", tc.tier, result.PriorityTier)
			}
			if strings.Contains(result.Title, "!") {
				t.Errorf("priority token left in title: %q", result.Title)
			}
		})
	}
}

func TestParse_ClockTimes(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"Standup at 9am", "09:00"},
		{"Dinner at 7:30pm", "19:30"},
		{"Review at 14:00", "14:00"},
		{"Lunch at noon", "12:00"},
		{"Deploy at midnight", "00:00"},
		{"Nap at 12pm", "12:00"},
		{"Launch at 12am", "00:00"},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			result := Parse(tc.input, testNow)
			if result.DueTime != tc.want {
				t.Errorf("expected %q, got %q", tc.want, result.DueTime)
			}
		})
	}
}

func TestParse_RelativeDates(t *testing.T) {
	// testNow is Monday 2026-08-31.
	cases := []struct {
		input string
		want  string
	}{
		{"Pack today", "2026-08-31"},
		{"Ship tomorrow", "2026-09-01"},
		{"Dentist next friday", "2026-09-04"},
		{"Retro next monday", "2026-09-07"}, // same weekday means a week out
		{"Plan next week", "2026-09-07"},
		{"Invoice next month", "2026-09-30"},
		{"Follow up in 3 days", "2026-09-03"},
		{"Check in 2 weeks", "2026-09-14"},
		{"Renew in 1 month", "2026-09-30"},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			result := Parse(tc.input, testNow)
			if result.DueDate != tc.want {
				t.Errorf("expected %q, got %q", tc.want, result.DueDate)
			}
		})
	}
}

func TestParse_FirstValueWins(t *testing.T) {
	result := Parse("Gym today tomorrow !1 !3", testNow)
	if result.DueDate != "2026-08-31" {
		t.Errorf("first date should win, got %q", result.DueDate)
	}
	if result.PriorityTier == nil || *result.PriorityTier != 1 {
		t.Errorf("first priority should win, got %v", result.PriorityTier)
	}
	// Both tokens are still recognized and removed from the title.
	if result.Title != "Gym" {
		t.Errorf("expected later tokens removed too, got %q", result.Title)
	}
}

func TestParse_TagsAccumulate(t *testing.T) {
	result := Parse("Plan trip #travel #family #travel", testNow)
	want := []string{"travel", "family", "travel"}
	if len(result.Tags) != len(want) {
		t.Fatalf("expected %v, got %v", want, result.Tags)
	}
	for i := range want {
		if result.Tags[i] != want[i] {
			t.Fatalf("expected %v in appearance order, got %v", want, result.Tags)
		}
	}
}

func TestParse_RemovalLeavesNoResidue(t *testing.T) {
	inputs := []string{
		"Buy milk tomorrow #errands !1 ~30m",
		"Standup at 9am today #work",
		"File taxes Jan 15 !now ~1h30m",
		"#solo",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			result := Parse(input, testNow)
			for _, residue := range []string{"#", "!", "~"} {
				if strings.Contains(result.Title, residue) {
					t.Errorf("residual %q in title %q", residue, result.Title)
				}
			}
			if strings.Contains(result.Title, "  ") {
				t.Errorf("whitespace not collapsed: %q", result.Title)
			}
		})
	}
}

func TestParse_UnmatchedAdjacentTextSurvives(t *testing.T) {
	result := Parse("Email report to boss tomorrow morning", testNow)
	if result.Title != "Email report to boss morning" {
		t.Errorf("only the matched token should be removed, got %q", result.Title)
	}
}
