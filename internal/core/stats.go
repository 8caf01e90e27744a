package core

import (
	"math"
	"sort"
)

// DateRange is an inclusive window of calendar days.
type DateRange struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Contains reports whether d falls within [Start, End]. An inverted range
// contains nothing.
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.Start.Time) && !d.After(r.End.Time)
}

// ProjectStat is the share of in-range hours logged on one project.
type ProjectStat struct {
	Project    Project `json:"project"`
	Hours      float64 `json:"hours"`
	Percentage float64 `json:"percentage"`
}

// CategoryStat is the share of in-range hours logged under one category.
type CategoryStat struct {
	Category   Category `json:"category"`
	Hours      float64  `json:"hours"`
	Percentage float64  `json:"percentage"`
}

// Stats summarizes the entries of a date range.
type Stats struct {
	TotalHours   float64        `json:"totalHours"`
	AverageHours float64        `json:"averageHours"`
	Projects     []ProjectStat  `json:"projects"`
	Categories   []CategoryStat `json:"categories"`
}

// DailyHours is one point of the trend series.
type DailyHours struct {
	Date  Date    `json:"date"`
	Hours float64 `json:"hours"`
}

// ProjectProgressLine reports the all-time progress of a project with a goal.
type ProjectProgressLine struct {
	Project     Project `json:"project"`
	Hours       float64 `json:"hours"`
	TargetHours float64 `json:"targetHours"`
	Progress    float64 `json:"progress"`
}

// FilterEntries returns the entries whose date falls within rng, in order.
func FilterEntries(entries []TimeEntry, rng DateRange) []TimeEntry {
	out := make([]TimeEntry, 0, len(entries))
	for _, e := range entries {
		if rng.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out
}

// ComputeStats aggregates the entries of rng into totals, a per-day average
// and per-project / per-category breakdowns. Projects and categories without
// hours in range are left out; the remaining lines keep store order.
func ComputeStats(entries []TimeEntry, projects []Project, categories []Category, rng DateRange) Stats {
	filtered := FilterEntries(entries, rng)

	var total float64
	byProject := make(map[string]float64, len(projects))
	days := make(map[string]struct{})
	for _, e := range filtered {
		total += e.Hours
		byProject[e.ProjectID] += e.Hours
		days[e.Date.String()] = struct{}{}
	}

	stats := Stats{
		TotalHours: total,
		Projects:   []ProjectStat{},
		Categories: []CategoryStat{},
	}

	for _, p := range projects {
		hours := byProject[p.ID]
		if hours <= 0 {
			continue
		}
		stats.Projects = append(stats.Projects, ProjectStat{
			Project:    p,
			Hours:      hours,
			Percentage: percentOf(hours, total),
		})
	}

	for _, c := range categories {
		members := make(map[string]struct{})
		for _, p := range projects {
			if p.CategoryID == c.ID {
				members[p.ID] = struct{}{}
			}
		}
		var hours float64
		for _, e := range filtered {
			if _, ok := members[e.ProjectID]; ok {
				hours += e.Hours
			}
		}
		if hours <= 0 {
			continue
		}
		stats.Categories = append(stats.Categories, CategoryStat{
			Category:   c,
			Hours:      hours,
			Percentage: percentOf(hours, total),
		})
	}

	if len(days) > 0 {
		stats.AverageHours = total / float64(len(days))
	}
	return stats
}

// DailySeries sums the in-range hours per day. Days without entries are not
// emitted, while a day whose entries are all zero hours is, with Hours 0.
// The result is sorted by date ascending.
func DailySeries(entries []TimeEntry, rng DateRange) []DailyHours {
	sums := make(map[string]*DailyHours)
	for _, e := range entries {
		if !rng.Contains(e.Date) {
			continue
		}
		key := e.Date.String()
		if point, ok := sums[key]; ok {
			point.Hours += e.Hours
			continue
		}
		sums[key] = &DailyHours{Date: e.Date, Hours: e.Hours}
	}

	series := make([]DailyHours, 0, len(sums))
	for _, point := range sums {
		series = append(series, *point)
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.String() < series[j].Date.String()
	})
	return series
}

// ProjectHours sums every entry of the project regardless of date.
func ProjectHours(projectID string, entries []TimeEntry) float64 {
	var total float64
	for _, e := range entries {
		if e.ProjectID == projectID {
			total += e.Hours
		}
	}
	return total
}

// ProjectProgress returns the all-time completion of the project's goal as
// a percentage in [0, 100]. Projects without a goal report 0.
func ProjectProgress(project Project, entries []TimeEntry) float64 {
	if project.TargetHours <= 0 {
		return 0
	}
	progress := ProjectHours(project.ID, entries) / project.TargetHours * 100
	if math.IsNaN(progress) || progress < 0 {
		return 0
	}
	return math.Min(progress, 100)
}

// ProgressByProject lists the progress of every project that has a goal,
// in store order.
func ProgressByProject(projects []Project, entries []TimeEntry) []ProjectProgressLine {
	lines := []ProjectProgressLine{}
	for _, p := range projects {
		if p.TargetHours <= 0 {
			continue
		}
		lines = append(lines, ProjectProgressLine{
			Project:     p,
			Hours:       ProjectHours(p.ID, entries),
			TargetHours: p.TargetHours,
			Progress:    ProjectProgress(p, entries),
		})
	}
	return lines
}

func percentOf(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return part / total * 100
}
