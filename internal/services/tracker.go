package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"timetracker/internal/amqp"
	"timetracker/internal/cache"
	"timetracker/internal/core"
	"timetracker/internal/log"
	"timetracker/internal/snapshot"
	"timetracker/internal/store"
	"timetracker/internal/transfer"
)

// Publisher announces persisted snapshots to other processes.
type Publisher interface {
	PublishSnapshotSaved(ctx context.Context, msg *amqp.SnapshotSavedMessage) error
}

// Pinger is implemented by repositories that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Report bundles everything the statistics view shows for one range.
type Report struct {
	Range    core.DateRange             `json:"range"`
	Stats    core.Stats                 `json:"stats"`
	Daily    []core.DailyHours          `json:"daily"`
	Progress []core.ProjectProgressLine `json:"progress"`
}

type Options struct {
	Repository snapshot.Repository
	Publisher  Publisher           // optional
	Reports    cache.Cache[Report] // optional
	Logger     *log.Logger
	Location   *time.Location
	Now        func() time.Time
	NewID      func() string
}

// Tracker owns the session state. Every write goes through the store
// reducer, is persisted, and only then becomes visible to readers.
type Tracker struct {
	repo      snapshot.Repository
	publisher Publisher
	reports   cache.Cache[Report]
	holder    *store.Holder
	group     singleflight.Group
	logger    *log.Logger
	events    *log.StructuredLogger
	loc       *time.Location
	now       func() time.Time
	newID     func() string
	loaded    atomic.Bool
}

func NewTracker(opts Options) *Tracker {
	t := &Tracker{
		repo:      opts.Repository,
		publisher: opts.Publisher,
		reports:   opts.Reports,
		holder:    store.NewHolder(core.EmptySnapshot()),
		logger:    opts.Logger,
		loc:       opts.Location,
		now:       opts.Now,
		newID:     opts.NewID,
	}
	if t.logger == nil {
		t.logger = log.New(log.DefaultConfig())
	}
	t.logger = t.logger.WithComponent(log.ComponentTracker)
	t.events = log.NewStructuredLogger(t.logger)
	if t.loc == nil {
		t.loc = time.Local
	}
	if t.now == nil {
		t.now = time.Now
	}
	if t.newID == nil {
		t.newID = uuid.NewString
	}
	return t
}

// Load reads the stored snapshot into the session. A read failure is logged
// and the session starts empty. When seedDefaults is set and nothing is
// stored, the starter categories and projects are added and saved.
func (t *Tracker) Load(ctx context.Context, seedDefaults bool) error {
	snap, err := t.repo.Load(ctx)
	if err != nil {
		t.events.LogError(ctx, "Failed to load snapshot, starting empty", err, log.ComponentStorage, log.OpLoad, nil)
		snap = core.EmptySnapshot()
	}

	var commit store.CommitFunc
	if seedDefaults && snap.IsEmpty() {
		snap = core.DefaultSnapshot(t.now())
		commit = t.persist(ctx)
		t.logger.InfoContext(ctx, "Seeding default categories and projects")
	}

	if _, _, err := t.holder.Replace(snap, commit); err != nil {
		return err
	}
	t.loaded.Store(true)
	t.events.LogSnapshot(ctx, log.OpLoad, len(snap.Categories), len(snap.Projects), len(snap.TimeEntries))
	return nil
}

// Ready reports whether Load completed and the repository answers.
func (t *Tracker) Ready(ctx context.Context) error {
	if !t.loaded.Load() {
		return errors.New("snapshot not loaded")
	}
	if p, ok := t.repo.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (t *Tracker) Snapshot() core.Snapshot {
	return t.holder.Snapshot()
}

func (t *Tracker) Version() int64 {
	return t.holder.Version()
}

func (t *Tracker) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.ID = t.newID()
	c.CreatedAt = t.now()
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	_, err := t.dispatch(ctx, store.AddCategoryCmd(c))
	return c, err
}

// UpdateCategory replaces the category; its id and creation time are kept.
func (t *Tracker) UpdateCategory(ctx context.Context, id string, c core.Category) (core.Category, error) {
	c.ID = id
	c.CreatedAt = time.Time{}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	next, err := t.dispatch(ctx, store.UpdateCategoryCmd(c))
	if err != nil {
		return core.Category{}, err
	}
	c, _ = next.FindCategory(id)
	return c, nil
}

// DeleteCategory removes the category with its projects and their entries.
func (t *Tracker) DeleteCategory(ctx context.Context, id string) error {
	_, err := t.dispatch(ctx, store.DeleteCategoryCmd(id))
	return err
}

func (t *Tracker) CreateProject(ctx context.Context, p core.Project) (core.Project, error) {
	p.ID = t.newID()
	p.CreatedAt = t.now()
	if err := p.Validate(); err != nil {
		return core.Project{}, err
	}
	_, err := t.dispatch(ctx, store.AddProjectCmd(p))
	return p, err
}

// UpdateProject replaces the project. Moving it to another category
// requires that category to exist.
func (t *Tracker) UpdateProject(ctx context.Context, id string, p core.Project) (core.Project, error) {
	p.ID = id
	p.CreatedAt = time.Time{}
	if err := p.Validate(); err != nil {
		return core.Project{}, err
	}
	next, err := t.dispatch(ctx, store.UpdateProjectCmd(p))
	if err != nil {
		return core.Project{}, err
	}
	p, _ = next.FindProject(id)
	return p, nil
}

// DeleteProject removes the project and its entries.
func (t *Tracker) DeleteProject(ctx context.Context, id string) error {
	_, err := t.dispatch(ctx, store.DeleteProjectCmd(id))
	return err
}

func (t *Tracker) CreateTimeEntry(ctx context.Context, e core.TimeEntry) (core.TimeEntry, error) {
	e.ID = t.newID()
	e.CreatedAt = t.now()
	if err := e.Validate(); err != nil {
		return core.TimeEntry{}, err
	}
	_, err := t.dispatch(ctx, store.AddTimeEntryCmd(e))
	return e, err
}

func (t *Tracker) UpdateTimeEntry(ctx context.Context, id string, e core.TimeEntry) (core.TimeEntry, error) {
	e.ID = id
	e.CreatedAt = time.Time{}
	if err := e.Validate(); err != nil {
		return core.TimeEntry{}, err
	}
	next, err := t.dispatch(ctx, store.UpdateTimeEntryCmd(e))
	if err != nil {
		return core.TimeEntry{}, err
	}
	e, _ = next.FindTimeEntry(id)
	return e, nil
}

func (t *Tracker) DeleteTimeEntry(ctx context.Context, id string) error {
	_, err := t.dispatch(ctx, store.DeleteTimeEntryCmd(id))
	return err
}

// dispatch runs cmd through the holder, so parent checks and the write see
// the same snapshot.
func (t *Tracker) dispatch(ctx context.Context, cmd store.Command) (core.Snapshot, error) {
	next, version, err := t.holder.Dispatch(cmd, t.persist(ctx))
	if err != nil {
		return core.Snapshot{}, err
	}
	t.events.LogCommand(ctx, string(cmd.Kind), cmd.Target(), version)
	t.announce(ctx, version, next)
	return next, nil
}

// Replace swaps the whole snapshot, as a full save from the client does.
func (t *Tracker) Replace(ctx context.Context, s core.Snapshot) (core.Snapshot, error) {
	next, version, err := t.holder.Replace(s, t.persist(ctx))
	if err != nil {
		return t.Snapshot(), err
	}
	t.events.LogSnapshot(ctx, log.OpSave, len(next.Categories), len(next.Projects), len(next.TimeEntries))
	t.announce(ctx, version, next)
	return next, nil
}

// Import parses a backup document and replaces the snapshot with it. An
// invalid document leaves the session untouched.
func (t *Tracker) Import(ctx context.Context, r io.Reader) (core.Snapshot, error) {
	s, err := transfer.Import(r)
	if err != nil {
		return t.Snapshot(), err
	}
	next, err := t.Replace(ctx, s)
	if err != nil {
		return next, err
	}
	t.events.LogSnapshot(ctx, log.OpImport, len(next.Categories), len(next.Projects), len(next.TimeEntries))
	return next, nil
}

// Export writes the backup document and returns the file name to offer.
func (t *Tracker) Export(w io.Writer) (string, error) {
	name := transfer.FileName(t.now().In(t.loc))
	return name, transfer.WriteExport(w, t.Snapshot())
}

func (t *Tracker) persist(ctx context.Context) store.CommitFunc {
	return func(next core.Snapshot) error {
		if err := t.repo.Save(ctx, next); err != nil {
			t.events.LogError(ctx, "Failed to save snapshot", err, log.ComponentStorage, log.OpSave, nil)
			return fmt.Errorf("save snapshot: %w", err)
		}
		return nil
	}
}

// announce publishes the save; a broker failure never fails the write.
func (t *Tracker) announce(ctx context.Context, version int64, s core.Snapshot) {
	if t.publisher == nil {
		return
	}
	if err := t.publisher.PublishSnapshotSaved(ctx, amqp.NewSnapshotSavedMessage(version, s)); err != nil {
		t.events.LogError(ctx, "Failed to publish snapshot saved message", err, log.ComponentAMQP, log.OpPublish,
			log.NewFields().WithVersion(version))
	}
}

// ResolveRange turns request parameters into a date range. Explicit start
// and end win over period; with neither the current week is used.
func (t *Tracker) ResolveRange(period, start, end string) (core.DateRange, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start != "" || end != "" {
		if start == "" || end == "" {
			return core.DateRange{}, fmt.Errorf("%w: both start and end are required", core.ErrInvalidRange)
		}
		s, err := core.ParseDate(start)
		if err != nil {
			return core.DateRange{}, err
		}
		e, err := core.ParseDate(end)
		if err != nil {
			return core.DateRange{}, err
		}
		return core.NewDateRange(s, e)
	}

	p, err := core.ParsePeriod(period)
	if err != nil {
		return core.DateRange{}, err
	}
	return core.PeriodRange(p, t.now().In(t.loc))
}

// Stats computes the report for rng. Results are cached per snapshot
// version; concurrent requests for the same key share one computation.
func (t *Tracker) Stats(ctx context.Context, rng core.DateRange) Report {
	snap, version := t.holder.Current()
	key := fmt.Sprintf("%d|%s|%s", version, rng.Start, rng.End)

	if t.reports != nil {
		if r, ok := t.reports.Get(key); ok {
			return r
		}
	}

	v, _, _ := t.group.Do(key, func() (any, error) {
		started := time.Now()
		r := Report{
			Range:    rng,
			Stats:    core.ComputeStats(snap.TimeEntries, snap.Projects, snap.Categories, rng),
			Daily:    core.DailySeries(snap.TimeEntries, rng),
			Progress: core.ProgressByProject(snap.Projects, snap.TimeEntries),
		}
		if t.reports != nil {
			t.reports.Set(key, r)
		}
		t.logger.WithComponent(log.ComponentStats).DebugContext(ctx, "Report computed",
			log.FieldVersion, version,
			log.FieldRangeStart, rng.Start.String(),
			log.FieldRangeEnd, rng.End.String(),
			log.FieldDuration, time.Since(started).Milliseconds())
		return r, nil
	})
	return v.(Report)
}

// Progress reports the all-time progress of one project.
func (t *Tracker) Progress(projectID string) (core.ProjectProgressLine, error) {
	snap := t.Snapshot()
	p, ok := snap.FindProject(projectID)
	if !ok {
		return core.ProjectProgressLine{}, fmt.Errorf("project %q: %w", projectID, store.ErrNotFound)
	}
	return core.ProjectProgressLine{
		Project:     p,
		Hours:       core.ProjectHours(p.ID, snap.TimeEntries),
		TargetHours: p.TargetHours,
		Progress:    core.ProjectProgress(p, snap.TimeEntries),
	}, nil
}
