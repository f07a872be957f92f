package domain

import (
	"time"

	"github.com/montanaflynn/stats"
)

// InventorySummary aggregates a few counters over an exported project list.
type InventorySummary struct {
	Total        int            `json:"total"`
	Archived     int            `json:"archived"`
	Empty        int            `json:"empty"`
	ByVisibility map[string]int `json:"by_visibility"`
	// IdleDays statistics only cover projects with a parseable last_activity_at.
	MedianIdleDays float64 `json:"median_idle_days"`
	MaxIdleDays    float64 `json:"max_idle_days"`
}

// Summarize builds an InventorySummary, measuring idle time relative to now.
func Summarize(projects []Project, now time.Time) InventorySummary {
	summary := InventorySummary{
		Total:        len(projects),
		ByVisibility: make(map[string]int),
	}

	idleDays := make([]float64, 0, len(projects))
	for _, p := range projects {
		if p.Archived != nil && *p.Archived {
			summary.Archived++
		}
		if p.EmptyRepo != nil && *p.EmptyRepo {
			summary.Empty++
		}
		if v := StringOrEmpty(p.Visibility); v != "" {
			summary.ByVisibility[v]++
		}
		lastActivity, err := time.Parse(time.RFC3339, StringOrEmpty(p.LastActivityAt))
		if err != nil {
			continue
		}
		idleDays = append(idleDays, now.Sub(lastActivity).Hours()/24)
	}

	if len(idleDays) == 0 {
		return summary
	}
	// Errors are only returned for empty input, which is ruled out above.
	summary.MedianIdleDays, _ = stats.Median(idleDays)
	summary.MaxIdleDays, _ = stats.Max(idleDays)
	return summary
}
