// Package store applies commands to core snapshots.
//
// Every function here is pure: it takes a snapshot and a payload and returns
// a new snapshot, never touching the input slices. Records that survive a
// command keep their insertion order.
package store

import (
	"errors"
	"fmt"

	"timetracker/internal/core"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnknownCategory = errors.New("unknown category")
	ErrUnknownProject  = errors.New("unknown project")
)

func AddCategory(s core.Snapshot, c core.Category) core.Snapshot {
	s.Categories = appendCopy(s.Categories, c)
	return s
}

// UpdateCategory replaces the category with c's id. A zero CreatedAt keeps
// the stored one.
func UpdateCategory(s core.Snapshot, c core.Category) (core.Snapshot, error) {
	existing, ok := s.FindCategory(c.ID)
	if !ok {
		return s, fmt.Errorf("category %q: %w", c.ID, ErrNotFound)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = existing.CreatedAt
	}
	s.Categories, _ = replaceByID(s.Categories, c, func(x core.Category) string { return x.ID })
	return s, nil
}

// DeleteCategory removes the category, its projects and their time entries.
func DeleteCategory(s core.Snapshot, id string) (core.Snapshot, error) {
	if _, ok := s.FindCategory(id); !ok {
		return s, fmt.Errorf("category %q: %w", id, ErrNotFound)
	}
	projectIDs := CategoryCascade(s, id)

	s.Categories = filter(s.Categories, func(c core.Category) bool { return c.ID != id })
	s.Projects = filter(s.Projects, func(p core.Project) bool { return p.CategoryID != id })
	s.TimeEntries = withoutProjects(s.TimeEntries, projectIDs)
	return s, nil
}

// CategoryCascade returns the ids of the projects that deleting category id
// takes with it, computed from s before any filtering.
func CategoryCascade(s core.Snapshot, id string) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, p := range s.Projects {
		if p.CategoryID == id {
			ids[p.ID] = struct{}{}
		}
	}
	return ids
}

func AddProject(s core.Snapshot, p core.Project) (core.Snapshot, error) {
	if _, ok := s.FindCategory(p.CategoryID); !ok {
		return s, fmt.Errorf("project %q references category %q: %w", p.ID, p.CategoryID, ErrUnknownCategory)
	}
	s.Projects = appendCopy(s.Projects, p)
	return s, nil
}

// UpdateProject replaces the project with p's id. Moving it to another
// category requires that category to exist; a zero CreatedAt keeps the
// stored one.
func UpdateProject(s core.Snapshot, p core.Project) (core.Snapshot, error) {
	existing, ok := s.FindProject(p.ID)
	if !ok {
		return s, fmt.Errorf("project %q: %w", p.ID, ErrNotFound)
	}
	if p.CategoryID != existing.CategoryID {
		if _, ok := s.FindCategory(p.CategoryID); !ok {
			return s, fmt.Errorf("project %q references category %q: %w", p.ID, p.CategoryID, ErrUnknownCategory)
		}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = existing.CreatedAt
	}
	s.Projects, _ = replaceByID(s.Projects, p, func(x core.Project) string { return x.ID })
	return s, nil
}

// DeleteProject removes the project and its time entries.
func DeleteProject(s core.Snapshot, id string) (core.Snapshot, error) {
	if _, ok := s.FindProject(id); !ok {
		return s, fmt.Errorf("project %q: %w", id, ErrNotFound)
	}
	projectIDs := ProjectCascade(id)

	s.Projects = filter(s.Projects, func(p core.Project) bool { return p.ID != id })
	s.TimeEntries = withoutProjects(s.TimeEntries, projectIDs)
	return s, nil
}

// ProjectCascade returns the project ids whose entries go away with project id.
func ProjectCascade(id string) map[string]struct{} {
	return map[string]struct{}{id: {}}
}

func AddTimeEntry(s core.Snapshot, e core.TimeEntry) (core.Snapshot, error) {
	if _, ok := s.FindProject(e.ProjectID); !ok {
		return s, fmt.Errorf("time entry %q references project %q: %w", e.ID, e.ProjectID, ErrUnknownProject)
	}
	s.TimeEntries = appendCopy(s.TimeEntries, e)
	return s, nil
}

// UpdateTimeEntry replaces the entry with e's id. Moving it to another
// project requires that project to exist; a zero CreatedAt keeps the stored
// one.
func UpdateTimeEntry(s core.Snapshot, e core.TimeEntry) (core.Snapshot, error) {
	existing, ok := s.FindTimeEntry(e.ID)
	if !ok {
		return s, fmt.Errorf("time entry %q: %w", e.ID, ErrNotFound)
	}
	if e.ProjectID != existing.ProjectID {
		if _, ok := s.FindProject(e.ProjectID); !ok {
			return s, fmt.Errorf("time entry %q references project %q: %w", e.ID, e.ProjectID, ErrUnknownProject)
		}
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = existing.CreatedAt
	}
	s.TimeEntries, _ = replaceByID(s.TimeEntries, e, func(x core.TimeEntry) string { return x.ID })
	return s, nil
}

func DeleteTimeEntry(s core.Snapshot, id string) (core.Snapshot, error) {
	if _, ok := s.FindTimeEntry(id); !ok {
		return s, fmt.Errorf("time entry %q: %w", id, ErrNotFound)
	}
	s.TimeEntries = filter(s.TimeEntries, func(e core.TimeEntry) bool { return e.ID != id })
	return s, nil
}

func withoutProjects(entries []core.TimeEntry, projectIDs map[string]struct{}) []core.TimeEntry {
	return filter(entries, func(e core.TimeEntry) bool {
		_, gone := projectIDs[e.ProjectID]
		return !gone
	})
}

// appendCopy never shares a backing array with in.
func appendCopy[T any](in []T, v T) []T {
	out := make([]T, len(in), len(in)+1)
	copy(out, in)
	return append(out, v)
}

func replaceByID[T any](in []T, v T, id func(T) string) ([]T, bool) {
	found := false
	out := make([]T, len(in))
	for i, x := range in {
		if id(x) == id(v) {
			out[i] = v
			found = true
			continue
		}
		out[i] = x
	}
	return out, found
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, x := range in {
		if keep(x) {
			out = append(out, x)
		}
	}
	return out
}
