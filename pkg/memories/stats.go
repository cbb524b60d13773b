package memories

import "time"

// Stats summarizes a memory collection for the dashboard.
type Stats struct {
	Total        int            `json:"total"`
	Shared       int            `json:"shared"`
	DistinctTags int            `json:"distinct_tags"`
	ThisMonth    int            `json:"this_month"`
	ByKind       map[Kind]int   `json:"by_kind"`
	ByOrigin     map[Origin]int `json:"by_origin"`
	TopTags      []TagCount     `json:"top_tags"`
}

// topTagLimit caps Stats.TopTags.
const topTagLimit = 5

// Summarize computes Stats over records. ThisMonth counts records created in
// now's calendar month in loc.
func Summarize(records []Memory, now time.Time, loc *time.Location) Stats {
	if loc == nil {
		loc = time.Local
	}

	stats := Stats{
		Total:    len(records),
		ByKind:   make(map[Kind]int),
		ByOrigin: make(map[Origin]int),
	}

	year, month, _ := now.In(loc).Date()
	for _, record := range records {
		if record.Shared() {
			stats.Shared++
		}
		stats.ByKind[record.Kind]++
		stats.ByOrigin[record.Origin]++

		y, m, _ := record.CreatedAt.In(loc).Date()
		if y == year && m == month {
			stats.ThisMonth++
		}
	}

	counts := TagCounts(records)
	stats.DistinctTags = len(counts)
	if len(counts) > topTagLimit {
		counts = counts[:topTagLimit]
	}
	stats.TopTags = counts

	return stats
}
