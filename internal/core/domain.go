package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of a calendar day.
const DateLayout = "2006-01-02"

type (
	// Date is a calendar day without a time component. The wrapped time is
	// always midnight UTC so that comparisons never depend on a timezone.
	Date struct {
		time.Time
	}

	Category struct {
		ID          string    `json:"id"`
		Name        string    `json:"name"`
		Description string    `json:"description,omitempty"`
		Color       string    `json:"color"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	Project struct {
		ID          string    `json:"id"`
		CategoryID  string    `json:"categoryId"`
		Name        string    `json:"name"`
		Description string    `json:"description,omitempty"`
		TargetHours float64   `json:"targetHours,omitempty"` // 0 means no goal
		Color       string    `json:"color,omitempty"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	TimeEntry struct {
		ID        string    `json:"id"`
		ProjectID string    `json:"projectId"`
		Date      Date      `json:"date"`
		Hours     float64   `json:"hours"`
		Notes     string    `json:"notes,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
	}

	// Snapshot is the full persisted state. Values are treated as immutable:
	// every change produces a new Snapshot.
	Snapshot struct {
		Categories  []Category  `json:"categories"`
		Projects    []Project   `json:"projects"`
		TimeEntries []TimeEntry `json:"timeEntries"`
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidHours    = errors.New("invalid hours")
	ErrInvalidTarget   = errors.New("invalid target hours")
	ErrEmptyName       = errors.New("empty name")
	ErrEmptyColor      = errors.New("empty color")
	ErrMissingCategory = errors.New("missing category id")
	ErrMissingProject  = errors.New("missing project id")
)

// NewDate creates a Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t as seen in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// AddDays returns the date n days later (or earlier when n is negative).
func (d Date) AddDays(n int) Date {
	return DateOf(d.AddDate(0, 0, n))
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(b))
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(c.Color) == "" {
		return ErrEmptyColor
	}
	return nil
}

func (p Project) Validate() error {
	if strings.TrimSpace(p.CategoryID) == "" {
		return ErrMissingCategory
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.TargetHours < 0 {
		return ErrInvalidTarget
	}
	return nil
}

func (e TimeEntry) Validate() error {
	if strings.TrimSpace(e.ProjectID) == "" {
		return ErrMissingProject
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if e.Hours < 0 {
		return ErrInvalidHours
	}
	return nil
}

// EmptySnapshot returns a snapshot with empty, non-nil collections.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Categories:  []Category{},
		Projects:    []Project{},
		TimeEntries: []TimeEntry{},
	}
}

// Normalized replaces nil collections with empty ones so the snapshot
// always serializes as three JSON arrays.
func (s Snapshot) Normalized() Snapshot {
	if s.Categories == nil {
		s.Categories = []Category{}
	}
	if s.Projects == nil {
		s.Projects = []Project{}
	}
	if s.TimeEntries == nil {
		s.TimeEntries = []TimeEntry{}
	}
	return s
}

// IsEmpty reports whether the snapshot holds no entity at all.
func (s Snapshot) IsEmpty() bool {
	return len(s.Categories) == 0 && len(s.Projects) == 0 && len(s.TimeEntries) == 0
}

func (s Snapshot) FindCategory(id string) (Category, bool) {
	for _, c := range s.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

func (s Snapshot) FindProject(id string) (Project, bool) {
	for _, p := range s.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return Project{}, false
}

func (s Snapshot) FindTimeEntry(id string) (TimeEntry, bool) {
	for _, e := range s.TimeEntries {
		if e.ID == id {
			return e, true
		}
	}
	return TimeEntry{}, false
}
