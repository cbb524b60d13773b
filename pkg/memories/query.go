package memories

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// DateLabelLayout formats timeline group headings, e.g. "January 15, 2025".
const DateLabelLayout = "January 2, 2006"

// Filter selects memories by free text and tags. The zero Filter matches everything.
type Filter struct {
	SearchText string   `json:"search_text,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// Validate rejects search text that is not UTF-8 and blank tags.
func (f Filter) Validate() error {
	if !utf8.ValidString(f.SearchText) {
		return fmt.Errorf("%w: search text is not valid UTF-8", ErrInvalidInput)
	}
	for _, tag := range f.Tags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("%w: blank tag in filter", ErrInvalidInput)
		}
	}
	return nil
}

// Matches reports whether m passes both the text and the tag condition.
// Text matches case-insensitively against title or content; tags match when
// m carries any of the selected tags.
func (f Filter) Matches(m Memory) bool {
	return matchesText(m, strings.ToLower(f.SearchText)) && matchesTags(m, f.Tags)
}

func matchesText(m Memory, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(m.Title), needle) ||
		strings.Contains(strings.ToLower(m.Content), needle)
}

func matchesTags(m Memory, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	return HasAnyTag(m, selected)
}

// DateGroup holds the memories created on one local calendar day.
type DateGroup struct {
	Date     time.Time `json:"date"`
	Label    string    `json:"label"`
	Memories []Memory  `json:"memories"`
}

// Timeline is a query result: date groups ordered newest day first.
// A Timeline with no groups is a loaded, empty result.
type Timeline struct {
	Groups []DateGroup `json:"groups"`
	Total  int         `json:"total"`
}

func (t Timeline) Empty() bool {
	return t.Total == 0
}

// Flatten returns the grouped memories in timeline order.
func (t Timeline) Flatten() []Memory {
	out := make([]Memory, 0, t.Total)
	for _, group := range t.Groups {
		out = append(out, group.Memories...)
	}
	return out
}

// Query filters records and groups the matches by local date. A nil loc
// means time.Local.
func Query(records []Memory, filter Filter, loc *time.Location) (Timeline, error) {
	if err := filter.Validate(); err != nil {
		return Timeline{}, err
	}

	needle := strings.ToLower(filter.SearchText)
	matched := make([]Memory, 0, len(records))
	for _, record := range records {
		if matchesText(record, needle) && matchesTags(record, filter.Tags) {
			matched = append(matched, record)
		}
	}

	return GroupByDate(matched, loc), nil
}

// GroupByDate buckets records by the calendar day of CreatedAt in loc.
// Groups run newest to oldest; within a day the input order is kept.
func GroupByDate(records []Memory, loc *time.Location) Timeline {
	if loc == nil {
		loc = time.Local
	}

	groups := []DateGroup{}
	byDay := make(map[time.Time]int)
	for _, record := range records {
		day := startOfDay(record.CreatedAt, loc)
		i, ok := byDay[day]
		if !ok {
			i = len(groups)
			byDay[day] = i
			groups = append(groups, DateGroup{Date: day, Label: day.Format(DateLabelLayout)})
		}
		groups[i].Memories = append(groups[i].Memories, record)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Date.After(groups[j].Date)
	})

	return Timeline{Groups: groups, Total: len(records)}
}

// DateLabel renders t's local calendar day the way timeline groups are labeled.
func DateLabel(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateLabelLayout)
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
