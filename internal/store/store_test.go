package store

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"timetracker/internal/core"
)

func date(s string) core.Date {
	d, err := core.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// fixture: two categories, three projects, five entries.
func fixture() core.Snapshot {
	return core.Snapshot{
		Categories: []core.Category{
			{ID: "c1", Name: "Reading", Color: "#111"},
			{ID: "c2", Name: "Code", Color: "#222"},
		},
		Projects: []core.Project{
			{ID: "p1", CategoryID: "c1", Name: "Book"},
			{ID: "p2", CategoryID: "c2", Name: "Blog"},
			{ID: "p3", CategoryID: "c1", Name: "Paper"},
		},
		TimeEntries: []core.TimeEntry{
			{ID: "e1", ProjectID: "p1", Date: date("2024-01-01"), Hours: 1},
			{ID: "e2", ProjectID: "p2", Date: date("2024-01-01"), Hours: 2},
			{ID: "e3", ProjectID: "p3", Date: date("2024-01-02"), Hours: 3},
			{ID: "e4", ProjectID: "p2", Date: date("2024-01-03"), Hours: 4},
			{ID: "e5", ProjectID: "p1", Date: date("2024-01-04"), Hours: 5},
		},
	}
}

func ids[T any](in []T, id func(T) string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		out = append(out, id(v))
	}
	return out
}

func entryIDs(s core.Snapshot) string {
	return fmt.Sprint(ids(s.TimeEntries, func(e core.TimeEntry) string { return e.ID }))
}

func projectIDs(s core.Snapshot) string {
	return fmt.Sprint(ids(s.Projects, func(p core.Project) string { return p.ID }))
}

func TestDeleteCategoryCascades(t *testing.T) {
	before := fixture()
	after, err := DeleteCategory(before, "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(after.Categories) != 1 || after.Categories[0].ID != "c2" {
		t.Fatalf("unexpected categories: %+v", after.Categories)
	}
	if got := projectIDs(after); got != "[p2]" {
		t.Fatalf("unexpected projects: %s", got)
	}
	if got := entryIDs(after); got != "[e2 e4]" {
		t.Fatalf("unexpected entries: %s", got)
	}
	assertNoOrphans(t, after)

	// input untouched
	if len(before.Projects) != 3 || len(before.TimeEntries) != 5 {
		t.Fatalf("input snapshot was mutated: %+v", before)
	}
}

func TestDeleteCategoryCascadeProperty(t *testing.T) {
	base := fixture()
	for _, c := range base.Categories {
		t.Run(c.ID, func(t *testing.T) {
			after, err := DeleteCategory(base, c.ID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, p := range after.Projects {
				if p.CategoryID == c.ID {
					t.Fatalf("project %s survived deletion of its category", p.ID)
				}
			}
			assertNoOrphans(t, after)
		})
	}
}

func TestCategoryCascadeUsesPreDeleteSnapshot(t *testing.T) {
	got := CategoryCascade(fixture(), "c1")
	if len(got) != 2 {
		t.Fatalf("expected p1 and p3, got %v", got)
	}
	for _, id := range []string{"p1", "p3"} {
		if _, ok := got[id]; !ok {
			t.Fatalf("missing %s in cascade set %v", id, got)
		}
	}
	if len(CategoryCascade(fixture(), "missing")) != 0 {
		t.Fatalf("unknown category should cascade to nothing")
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	after, err := DeleteProject(fixture(), "p2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := projectIDs(after); got != "[p1 p3]" {
		t.Fatalf("unexpected projects: %s", got)
	}
	if got := entryIDs(after); got != "[e1 e3 e5]" {
		t.Fatalf("unexpected entries: %s", got)
	}
	if len(after.Categories) != 2 {
		t.Fatalf("categories must not be touched: %+v", after.Categories)
	}
}

func TestDeleteTimeEntry(t *testing.T) {
	after, err := DeleteTimeEntry(fixture(), "e3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := entryIDs(after); got != "[e1 e2 e4 e5]" {
		t.Fatalf("unexpected entries: %s", got)
	}
}

func TestMissingIdentifierIsNotFound(t *testing.T) {
	s := fixture()
	tests := []struct {
		name string
		run  func() (core.Snapshot, error)
	}{
		{"update category", func() (core.Snapshot, error) { return UpdateCategory(s, core.Category{ID: "x"}) }},
		{"delete category", func() (core.Snapshot, error) { return DeleteCategory(s, "x") }},
		{"update project", func() (core.Snapshot, error) { return UpdateProject(s, core.Project{ID: "x"}) }},
		{"delete project", func() (core.Snapshot, error) { return DeleteProject(s, "x") }},
		{"update entry", func() (core.Snapshot, error) { return UpdateTimeEntry(s, core.TimeEntry{ID: "x"}) }},
		{"delete entry", func() (core.Snapshot, error) { return DeleteTimeEntry(s, "x") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.run()
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if entryIDs(got) != entryIDs(s) || projectIDs(got) != projectIDs(s) || len(got.Categories) != len(s.Categories) {
				t.Fatalf("snapshot changed on not found")
			}
		})
	}
}

func TestUpdateReplacesInPlace(t *testing.T) {
	before := fixture()
	after, err := UpdateProject(before, core.Project{ID: "p2", CategoryID: "c2", Name: "Blog v2", TargetHours: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := projectIDs(after); got != "[p1 p2 p3]" {
		t.Fatalf("order changed: %s", got)
	}
	if after.Projects[1].Name != "Blog v2" || after.Projects[1].TargetHours != 20 {
		t.Fatalf("project not replaced: %+v", after.Projects[1])
	}
	if before.Projects[1].Name != "Blog" {
		t.Fatalf("input snapshot was mutated")
	}

	after, err = UpdateCategory(before, core.Category{ID: "c1", Name: "Books", Color: "#333"})
	if err != nil || after.Categories[0].Name != "Books" {
		t.Fatalf("category not replaced: %+v (err=%v)", after.Categories, err)
	}

	after, err = UpdateTimeEntry(before, core.TimeEntry{ID: "e4", ProjectID: "p2", Date: date("2024-01-05"), Hours: 9})
	if err != nil || after.TimeEntries[3].Hours != 9 || before.TimeEntries[3].Hours != 4 {
		t.Fatalf("entry not replaced purely: %+v (err=%v)", after.TimeEntries[3], err)
	}
}

func TestUpdateChecksChangedParents(t *testing.T) {
	s := fixture()
	created := time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)
	s.Projects[0].CreatedAt = created
	s.TimeEntries[0].CreatedAt = created

	if _, err := UpdateProject(s, core.Project{ID: "p1", CategoryID: "nope", Name: "Book"}); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if _, err := UpdateTimeEntry(s, core.TimeEntry{ID: "e1", ProjectID: "nope", Date: date("2024-01-01"), Hours: 1}); !errors.Is(err, ErrUnknownProject) {
		t.Fatalf("expected ErrUnknownProject, got %v", err)
	}

	after, err := UpdateProject(s, core.Project{ID: "p1", CategoryID: "c2", Name: "Book"})
	if err != nil || after.Projects[0].CategoryID != "c2" || !after.Projects[0].CreatedAt.Equal(created) {
		t.Fatalf("move to existing category failed: %+v (err=%v)", after.Projects[0], err)
	}
	after, err = UpdateTimeEntry(s, core.TimeEntry{ID: "e1", ProjectID: "p3", Date: date("2024-01-01"), Hours: 2})
	if err != nil || after.TimeEntries[0].ProjectID != "p3" || !after.TimeEntries[0].CreatedAt.Equal(created) {
		t.Fatalf("move to existing project failed: %+v (err=%v)", after.TimeEntries[0], err)
	}

	// a record already pointing at a missing parent can still be edited in place
	s.Projects = append(s.Projects, core.Project{ID: "p9", CategoryID: "gone", Name: "Orphan"})
	if _, err := UpdateProject(s, core.Project{ID: "p9", CategoryID: "gone", Name: "Renamed"}); err != nil {
		t.Fatalf("unchanged parent should not be checked: %v", err)
	}
}

func TestUpdateAfterParentDeleted(t *testing.T) {
	h := NewHolder(fixture())
	if _, _, err := h.Dispatch(DeleteCategoryCmd("c2"), nil); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	_, _, err := h.Dispatch(UpdateProjectCmd(core.Project{ID: "p1", CategoryID: "c2", Name: "Book"}), nil)
	if !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	for _, p := range h.Snapshot().Projects {
		if p.CategoryID == "c2" {
			t.Fatalf("orphaned project left behind: %+v", p)
		}
	}
}

func TestAddChecksParents(t *testing.T) {
	s := fixture()

	if _, err := AddProject(s, core.Project{ID: "p9", CategoryID: "nope", Name: "x"}); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if _, err := AddTimeEntry(s, core.TimeEntry{ID: "e9", ProjectID: "nope"}); !errors.Is(err, ErrUnknownProject) {
		t.Fatalf("expected ErrUnknownProject, got %v", err)
	}

	after, err := AddProject(s, core.Project{ID: "p9", CategoryID: "c2", Name: "New"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := projectIDs(after); got != "[p1 p2 p3 p9]" {
		t.Fatalf("unexpected projects: %s", got)
	}
	after, err = AddTimeEntry(after, core.TimeEntry{ID: "e9", ProjectID: "p9", Date: date("2024-02-01"), Hours: 1})
	if err != nil || len(after.TimeEntries) != 6 {
		t.Fatalf("entry not added: %v", err)
	}
	if len(s.Projects) != 3 || len(s.TimeEntries) != 5 {
		t.Fatalf("input snapshot was mutated")
	}
}

func TestAddDoesNotAliasInput(t *testing.T) {
	base := core.Snapshot{Categories: make([]core.Category, 1, 8)}
	base.Categories[0] = core.Category{ID: "a"}

	left := AddCategory(base, core.Category{ID: "b"})
	right := AddCategory(base, core.Category{ID: "c"})
	if left.Categories[1].ID != "b" || right.Categories[1].ID != "c" {
		t.Fatalf("snapshots share storage: %v %v", left.Categories, right.Categories)
	}
}

func TestApplyDispatches(t *testing.T) {
	s := core.EmptySnapshot()
	cmds := []Command{
		AddCategoryCmd(core.Category{ID: "c1", Name: "Reading", Color: "#000"}),
		AddProjectCmd(core.Project{ID: "p1", CategoryID: "c1", Name: "Book"}),
		AddTimeEntryCmd(core.TimeEntry{ID: "e1", ProjectID: "p1", Date: date("2024-01-01"), Hours: 2}),
		UpdateTimeEntryCmd(core.TimeEntry{ID: "e1", ProjectID: "p1", Date: date("2024-01-01"), Hours: 3}),
		UpdateProjectCmd(core.Project{ID: "p1", CategoryID: "c1", Name: "Book 2"}),
		UpdateCategoryCmd(core.Category{ID: "c1", Name: "Books", Color: "#000"}),
	}
	var err error
	for _, cmd := range cmds {
		if s, err = Apply(s, cmd); err != nil {
			t.Fatalf("%s: %v", cmd.Kind, err)
		}
	}
	if s.TimeEntries[0].Hours != 3 || s.Projects[0].Name != "Book 2" || s.Categories[0].Name != "Books" {
		t.Fatalf("unexpected snapshot: %+v", s)
	}

	if s, err = Apply(s, DeleteTimeEntryCmd("e1")); err != nil || len(s.TimeEntries) != 0 {
		t.Fatalf("delete entry: %v", err)
	}
	if s, err = Apply(s, DeleteProjectCmd("p1")); err != nil || len(s.Projects) != 0 {
		t.Fatalf("delete project: %v", err)
	}
	if s, err = Apply(s, DeleteCategoryCmd("c1")); err != nil || !s.IsEmpty() {
		t.Fatalf("delete category: %v", err)
	}

	if _, err := Apply(s, Command{Kind: "bogus"}); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestCommandTarget(t *testing.T) {
	if got := AddProjectCmd(core.Project{ID: "p1"}).Target(); got != "p1" {
		t.Fatalf("got %q", got)
	}
	if got := DeleteCategoryCmd("c1").Target(); got != "c1" {
		t.Fatalf("got %q", got)
	}
}

func assertNoOrphans(t *testing.T, s core.Snapshot) {
	t.Helper()
	for _, e := range s.TimeEntries {
		if _, ok := s.FindProject(e.ProjectID); !ok {
			t.Fatalf("entry %s references missing project %s", e.ID, e.ProjectID)
		}
	}
}
