package store

import (
	"fmt"

	"timetracker/internal/core"
)

// Kind identifies a command.
type Kind string

const (
	KindAddCategory     Kind = "add_category"
	KindUpdateCategory  Kind = "update_category"
	KindDeleteCategory  Kind = "delete_category"
	KindAddProject      Kind = "add_project"
	KindUpdateProject   Kind = "update_project"
	KindDeleteProject   Kind = "delete_project"
	KindAddTimeEntry    Kind = "add_time_entry"
	KindUpdateTimeEntry Kind = "update_time_entry"
	KindDeleteTimeEntry Kind = "delete_time_entry"
)

// Command is a single mutation. Only the payload field matching Kind is read.
type Command struct {
	Kind      Kind
	Category  core.Category
	Project   core.Project
	TimeEntry core.TimeEntry
	ID        string // target of delete commands
}

func AddCategoryCmd(c core.Category) Command { return Command{Kind: KindAddCategory, Category: c} }
func UpdateCategoryCmd(c core.Category) Command { return Command{Kind: KindUpdateCategory, Category: c} }
func DeleteCategoryCmd(id string) Command { return Command{Kind: KindDeleteCategory, ID: id} }
func AddProjectCmd(p core.Project) Command { return Command{Kind: KindAddProject, Project: p} }
func UpdateProjectCmd(p core.Project) Command { return Command{Kind: KindUpdateProject, Project: p} }
func DeleteProjectCmd(id string) Command { return Command{Kind: KindDeleteProject, ID: id} }
func AddTimeEntryCmd(e core.TimeEntry) Command { return Command{Kind: KindAddTimeEntry, TimeEntry: e} }
func UpdateTimeEntryCmd(e core.TimeEntry) Command { return Command{Kind: KindUpdateTimeEntry, TimeEntry: e} }
func DeleteTimeEntryCmd(id string) Command { return Command{Kind: KindDeleteTimeEntry, ID: id} }

// Target returns the identifier the command addresses.
func (c Command) Target() string {
	switch c.Kind {
	case KindAddCategory, KindUpdateCategory:
		return c.Category.ID
	case KindAddProject, KindUpdateProject:
		return c.Project.ID
	case KindAddTimeEntry, KindUpdateTimeEntry:
		return c.TimeEntry.ID
	default:
		return c.ID
	}
}

// Apply is the reducer: it dispatches cmd to the matching pure function.
func Apply(s core.Snapshot, cmd Command) (core.Snapshot, error) {
	switch cmd.Kind {
	case KindAddCategory:
		return AddCategory(s, cmd.Category), nil
	case KindUpdateCategory:
		return UpdateCategory(s, cmd.Category)
	case KindDeleteCategory:
		return DeleteCategory(s, cmd.ID)
	case KindAddProject:
		return AddProject(s, cmd.Project)
	case KindUpdateProject:
		return UpdateProject(s, cmd.Project)
	case KindDeleteProject:
		return DeleteProject(s, cmd.ID)
	case KindAddTimeEntry:
		return AddTimeEntry(s, cmd.TimeEntry)
	case KindUpdateTimeEntry:
		return UpdateTimeEntry(s, cmd.TimeEntry)
	case KindDeleteTimeEntry:
		return DeleteTimeEntry(s, cmd.ID)
	default:
		return s, fmt.Errorf("unsupported command kind %q", cmd.Kind)
	}
}
