package sheets

import (
	"math"
	"sort"

	"timetracker/internal/core"
)

var (
	EntryHeader   = []any{"Date", "Category", "Project", "Hours", "Notes", "Entry ID"}
	ProjectHeader = []any{"Category", "Project", "Total hours", "Target hours", "Progress %"}
)

// EntryRows renders one row per time entry, oldest first, preceded by a
// header. Entries whose project is gone keep their project id as the name.
func EntryRows(s core.Snapshot) [][]any {
	projects := make(map[string]core.Project, len(s.Projects))
	for _, p := range s.Projects {
		projects[p.ID] = p
	}
	categories := make(map[string]string, len(s.Categories))
	for _, c := range s.Categories {
		categories[c.ID] = c.Name
	}

	entries := append([]core.TimeEntry(nil), s.TimeEntries...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date.Time)
	})

	rows := make([][]any, 0, len(entries)+1)
	rows = append(rows, EntryHeader)
	for _, e := range entries {
		project, ok := projects[e.ProjectID]
		name := e.ProjectID
		category := ""
		if ok {
			name = project.Name
			category = categories[project.CategoryID]
		}
		rows = append(rows, []any{e.Date.String(), category, name, round2(e.Hours), e.Notes, e.ID})
	}
	return rows
}

// ProjectRows renders the all-time total and goal progress of every project.
func ProjectRows(s core.Snapshot) [][]any {
	categories := make(map[string]string, len(s.Categories))
	for _, c := range s.Categories {
		categories[c.ID] = c.Name
	}

	rows := make([][]any, 0, len(s.Projects)+1)
	rows = append(rows, ProjectHeader)
	for _, p := range s.Projects {
		var target any = ""
		if p.TargetHours > 0 {
			target = round2(p.TargetHours)
		}
		rows = append(rows, []any{
			categories[p.CategoryID],
			p.Name,
			round2(core.ProjectHours(p.ID, s.TimeEntries)),
			target,
			round2(core.ProjectProgress(p, s.TimeEntries)),
		})
	}
	return rows
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
