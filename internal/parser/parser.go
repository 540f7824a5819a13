// Package parser turns free-form task input like
// "Buy milk tomorrow #errands !1 ~30m" into a cleaned title plus
// structured date, time, priority, tag, and duration fields.
package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TokenKind classifies a recognized token.
type TokenKind string

const (
	KindDuration TokenKind = "duration"
	KindPriority TokenKind = "priority"
	KindTag      TokenKind = "tag"
	KindTime     TokenKind = "time"
	KindDate     TokenKind = "date"
)

// Token is one recognized span of the input, kept for display so the UI
// can highlight what was understood.
type Token struct {
	Kind  TokenKind `json:"kind"`
	Text  string    `json:"text"`
	Value string    `json:"value"`
	Start int       `json:"start"`
	End   int       `json:"end"`
}

// Result is the structured reading of one input string.
type Result struct {
	Title            string   `json:"title"`
	DueDate          string   `json:"due_date,omitempty"`  // "2006-01-02"
	DueTime          string   `json:"due_time,omitempty"`  // "15:04"
	PriorityTier     *int     `json:"priority_tier,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	EstimatedMinutes *int     `json:"estimated_minutes,omitempty"`
	Tokens           []Token  `json:"tokens,omitempty"`
}

const dateLayout = "2006-01-02"

// matcher is one pattern in the fixed recognition order. resolve turns a
// regexp match into a token; returning ok=false leaves the span
// unclaimed so the text stays in the title literally.
type matcher struct {
	kind    TokenKind
	re      *regexp.Regexp
	resolve func(p *parse, groups []string) (value string, ok bool)
}

type parse struct {
	now    time.Time
	result *Result
}

// Ordered most specific first: long duration forms before short ones,
// numeric priority before word form, then tags, clock times, and date
// phrases from relative to absolute.
var matchers = []matcher{
	{KindDuration, regexp.MustCompile(`~(\d+)h(\d+)m\b`), resolveDurationHM},
	{KindDuration, regexp.MustCompile(`~(\d+)m\b`), resolveDurationM},
	{KindDuration, regexp.MustCompile(`~(\d+)h\b`), resolveDurationH},
	{KindPriority, regexp.MustCompile(`!([1-3])\b`), resolvePriorityNum},
	{KindPriority, regexp.MustCompile(`(?i)!(now|soon|backlog)\b`), resolvePriorityWord},
	{KindTag, regexp.MustCompile(`#([A-Za-z0-9_-]+)`), resolveTag},
	{KindTime, regexp.MustCompile(`(?i)\bat (\d{1,2}):(\d{2})\s?(am|pm)?\b`), resolveClock},
	{KindTime, regexp.MustCompile(`(?i)\bat (\d{1,2})\s?(am|pm)\b`), resolveClockHour},
	{KindTime, regexp.MustCompile(`(?i)\bat noon\b`), fixedTime(12, 0)},
	{KindTime, regexp.MustCompile(`(?i)\bat midnight\b`), fixedTime(0, 0)},
	{KindDate, regexp.MustCompile(`(?i)\btoday\b`), relativeDays(0)},
	{KindDate, regexp.MustCompile(`(?i)\btomorrow\b`), relativeDays(1)},
	{KindDate, regexp.MustCompile(`(?i)\bnext (monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`), resolveNextWeekday},
	{KindDate, regexp.MustCompile(`(?i)\bnext week\b`), relativeDays(7)},
	{KindDate, regexp.MustCompile(`(?i)\bnext month\b`), resolveNextMonth},
	{KindDate, regexp.MustCompile(`(?i)\bin (\d+) (day|days|week|weeks|month|months)\b`), resolveInN},
	{KindDate, regexp.MustCompile(`(?i)\b(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?) (\d{1,2})\b`), resolveMonthDay},
	{KindDate, regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})\b`), resolveSlashDate},
}

// Parse reads input against the fixed matcher order. now anchors all
// relative dates so results are deterministic under test.
func Parse(input string, now time.Time) Result {
	result := Result{}
	p := &parse{now: now, result: &result}

	type span struct{ start, end int }
	var claimed []span
	overlaps := func(start, end int) bool {
		for _, c := range claimed {
			if start < c.end && c.start < end {
				return true
			}
		}
		return false
	}

	for _, m := range matchers {
		for _, loc := range m.re.FindAllStringSubmatchIndex(input, -1) {
			start, end := loc[0], loc[1]
			if overlaps(start, end) {
				continue
			}
			groups := make([]string, 0, len(loc)/2)
			for g := 0; g < len(loc); g += 2 {
				if loc[g] < 0 {
					groups = append(groups, "")
				} else {
					groups = append(groups, input[loc[g]:loc[g+1]])
				}
			}
			value, ok := m.resolve(p, groups)
			if !ok {
				continue
			}
			claimed = append(claimed, span{start, end})
			result.Tokens = append(result.Tokens, Token{
				Kind:  m.kind,
				Text:  input[start:end],
				Value: value,
				Start: start,
				End:   end,
			})
		}
	}

	// Remove claimed spans highest start first so earlier indices stay
	// valid, then report tokens in reading order.
	removal := make([]Token, len(result.Tokens))
	copy(removal, result.Tokens)
	sort.Slice(removal, func(i, j int) bool { return removal[i].Start > removal[j].Start })
	title := input
	for _, tok := range removal {
		title = title[:tok.Start] + title[tok.End:]
	}
	result.Title = strings.Join(strings.Fields(title), " ")

	sort.Slice(result.Tokens, func(i, j int) bool { return result.Tokens[i].Start < result.Tokens[j].Start })
	return result
}

func (p *parse) setDuration(minutes int) (string, bool) {
	if p.result.EstimatedMinutes == nil {
		p.result.EstimatedMinutes = &minutes
	}
	return fmt.Sprintf("%dm", minutes), true
}

func (p *parse) setTier(tier int) (string, bool) {
	if p.result.PriorityTier == nil {
		p.result.PriorityTier = &tier
	}
	return strconv.Itoa(tier), true
}

func (p *parse) setTime(hour, minute int) (string, bool) {
	value := fmt.Sprintf("%02d:%02d", hour, minute)
	if p.result.DueTime == "" {
		p.result.DueTime = value
	}
	return value, true
}

func (p *parse) setDate(d time.Time) (string, bool) {
	value := d.Format(dateLayout)
	if p.result.DueDate == "" {
		p.result.DueDate = value
	}
	return value, true
}

func resolveDurationHM(p *parse, g []string) (string, bool) {
	h, _ := strconv.Atoi(g[1])
	m, _ := strconv.Atoi(g[2])
	return p.setDuration(h*60 + m)
}

func resolveDurationM(p *parse, g []string) (string, bool) {
	m, _ := strconv.Atoi(g[1])
	return p.setDuration(m)
}

func resolveDurationH(p *parse, g []string) (string, bool) {
	h, _ := strconv.Atoi(g[1])
	return p.setDuration(h * 60)
}

func resolvePriorityNum(p *parse, g []string) (string, bool) {
	tier, _ := strconv.Atoi(g[1])
	return p.setTier(tier)
}

var wordTiers = map[string]int{"now": 1, "soon": 2, "backlog": 3}

func resolvePriorityWord(p *parse, g []string) (string, bool) {
	return p.setTier(wordTiers[strings.ToLower(g[1])])
}

func resolveTag(p *parse, g []string) (string, bool) {
	name := strings.ToLower(g[1])
	p.result.Tags = append(p.result.Tags, name)
	return name, true
}

func resolveClock(p *parse, g []string) (string, bool) {
	hour, _ := strconv.Atoi(g[1])
	minute, _ := strconv.Atoi(g[2])
	hour, ok := applyMeridiem(hour, g[3])
	if !ok || minute > 59 {
		return "", false
	}
	return p.setTime(hour, minute)
}

func resolveClockHour(p *parse, g []string) (string, bool) {
	hour, _ := strconv.Atoi(g[1])
	hour, ok := applyMeridiem(hour, g[2])
	if !ok {
		return "", false
	}
	return p.setTime(hour, 0)
}

// applyMeridiem maps 12-hour clock readings onto 24-hour values:
// 12am is midnight, 12pm is noon.
func applyMeridiem(hour int, meridiem string) (int, bool) {
	switch strings.ToLower(meridiem) {
	case "":
		return hour, hour <= 23
	case "am":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour == 12 {
			return 0, true
		}
		return hour, true
	case "pm":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour == 12 {
			return 12, true
		}
		return hour + 12, true
	}
	return 0, false
}

func fixedTime(hour, minute int) func(*parse, []string) (string, bool) {
	return func(p *parse, _ []string) (string, bool) {
		return p.setTime(hour, minute)
	}
}

func relativeDays(n int) func(*parse, []string) (string, bool) {
	return func(p *parse, _ []string) (string, bool) {
		return p.setDate(p.now.AddDate(0, 0, n))
	}
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday,
	"friday": time.Friday, "saturday": time.Saturday,
}

// resolveNextWeekday picks the next occurrence strictly after today, so
// "next monday" said on a Monday means a week out.
func resolveNextWeekday(p *parse, g []string) (string, bool) {
	target := weekdays[strings.ToLower(g[1])]
	days := (int(target) - int(p.now.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return p.setDate(p.now.AddDate(0, 0, days))
}

func resolveNextMonth(p *parse, _ []string) (string, bool) {
	return p.setDate(addMonths(p.now, 1))
}

// addMonths clamps to the last day of the target month instead of
// normalizing, so Aug 31 + 1 month is Sep 30, not Oct 1.
func addMonths(t time.Time, n int) time.Time {
	firstOfTarget := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, n, 0)
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, t.Location())
}

func resolveInN(p *parse, g []string) (string, bool) {
	n, _ := strconv.Atoi(g[1])
	switch strings.TrimSuffix(strings.ToLower(g[2]), "s") {
	case "day":
		return p.setDate(p.now.AddDate(0, 0, n))
	case "week":
		return p.setDate(p.now.AddDate(0, 0, n*7))
	case "month":
		return p.setDate(addMonths(p.now, n))
	}
	return "", false
}

var monthNames = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// resolveMonthDay reads "Jan 15" style dates. A date already past this
// year rolls to next year; an impossible day of month stays literal text.
func resolveMonthDay(p *parse, g []string) (string, bool) {
	month := monthNames[strings.ToLower(g[1])[:3]]
	day, _ := strconv.Atoi(g[2])
	return p.resolveAbsolute(month, day)
}

// resolveSlashDate reads "MM/DD" or "MM-DD" with the same rollover rule.
func resolveSlashDate(p *parse, g []string) (string, bool) {
	m, _ := strconv.Atoi(g[1])
	day, _ := strconv.Atoi(g[2])
	if m < 1 || m > 12 {
		return "", false
	}
	return p.resolveAbsolute(time.Month(m), day)
}

func (p *parse) resolveAbsolute(month time.Month, day int) (string, bool) {
	candidate := time.Date(p.now.Year(), month, day, 0, 0, 0, 0, p.now.Location())
	if candidate.Month() != month || candidate.Day() != day {
		return "", false // normalized away, so the day was invalid
	}
	today := time.Date(p.now.Year(), p.now.Month(), p.now.Day(), 0, 0, 0, 0, p.now.Location())
	if candidate.Before(today) {
		candidate = candidate.AddDate(1, 0, 0)
	}
	return p.setDate(candidate)
}
