package report

import (
	"fmt"
	"sort"
	"time"

	"health-journal/internal/journal"
)

// ActivityStats summarizes journal activity for the report's overview
// block: how many complaints exist, which body parts recur, and how many
// reports landed in the last seven days.
type ActivityStats struct {
	TotalReports  int
	LastSevenDays int
	ByBodyPart    map[string]int
	LatestReport  string
}

// SummarizeActivity walks the symptom history (any order) and counts
// per-body-part activity. Records with unparsable timestamps still count
// toward totals but never toward the seven-day window.
func SummarizeActivity(history []journal.SymptomRecord) *ActivityStats {
	stats := &ActivityStats{ByBodyPart: make(map[string]int)}
	weekAgo := time.Now().UTC().AddDate(0, 0, -7)

	var latest time.Time
	for _, rec := range history {
		stats.TotalReports++
		part := rec.BodyPart
		if part == "" {
			part = "Unknown area"
		}
		stats.ByBodyPart[part]++

		t, ok := journal.ParseTimestamp(rec.Timestamp)
		if !ok {
			continue
		}
		if !t.Before(weekAgo) {
			stats.LastSevenDays++
		}
		if t.After(latest) {
			latest = t
			stats.LatestReport = journal.FormatTimestamp(rec.Timestamp)
		}
	}
	return stats
}

// Lines renders the stats as short report lines, body parts in
// descending count order with names as tiebreak.
func (s *ActivityStats) Lines() []string {
	lines := []string{
		fmt.Sprintf("Total symptom reports: %d (%d in the last 7 days)", s.TotalReports, s.LastSevenDays),
	}
	if s.LatestReport != "" {
		lines = append(lines, fmt.Sprintf("Most recent report: %s", s.LatestReport))
	}

	type partCount struct {
		part  string
		count int
	}
	parts := make([]partCount, 0, len(s.ByBodyPart))
	for part, count := range s.ByBodyPart {
		parts = append(parts, partCount{part, count})
	}
	sort.Slice(parts, func(i, j int) bool {
		if parts[i].count != parts[j].count {
			return parts[i].count > parts[j].count
		}
		return parts[i].part < parts[j].part
	})
	for _, pc := range parts {
		lines = append(lines, fmt.Sprintf("%s: %d report(s)", pc.part, pc.count))
	}
	return lines
}
