package core

import "time"

// DefaultSnapshot returns the starter categories and projects offered on
// first run. It carries no time entries.
func DefaultSnapshot(now time.Time) Snapshot {
	categories := []Category{
		{ID: "1", Name: "Technical books", Description: "Reading technical books", Color: "#3B82F6", CreatedAt: now},
		{ID: "2", Name: "Leisure reading", Description: "Non-technical books", Color: "#10B981", CreatedAt: now},
		{ID: "3", Name: "Projects", Description: "Personal or work projects", Color: "#F59E0B", CreatedAt: now},
		{ID: "4", Name: "Learning", Description: "Online courses and study", Color: "#8B5CF6", CreatedAt: now},
	}
	projects := []Project{
		{ID: "1", CategoryID: "1", Name: "C++ in practice", Description: "Hands-on C++ development", TargetHours: 100, Color: "#2563EB", CreatedAt: now},
		{ID: "2", CategoryID: "1", Name: "C++ concurrency in action", Description: "Concurrent programming in C++", TargetHours: 80, Color: "#1D4ED8", CreatedAt: now},
		{ID: "3", CategoryID: "2", Name: "The Three-Body Problem", Description: "Science fiction", TargetHours: 50, Color: "#047857", CreatedAt: now},
		{ID: "4", CategoryID: "3", Name: "Personal blog", Description: "Building a personal blog", TargetHours: 200, Color: "#D97706", CreatedAt: now},
		{ID: "5", CategoryID: "4", Name: "Advanced React", Description: "Advanced React features", TargetHours: 60, Color: "#7C3AED", CreatedAt: now},
	}
	return Snapshot{
		Categories:  categories,
		Projects:    projects,
		TimeEntries: []TimeEntry{},
	}
}
