package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"timetracker/internal/core"
)

// maxBodySize bounds command payloads. Whole snapshots use
// transfer.MaxDocumentSize instead.
const maxBodySize = 1 << 20

var errBadRequest = errors.New("invalid request body")

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

func (req categoryRequest) toCategory() core.Category {
	return core.Category{
		Name:        sanitizeInput(req.Name),
		Description: sanitizeInput(req.Description),
		Color:       sanitizeInput(req.Color),
	}
}

type projectRequest struct {
	CategoryID  string  `json:"categoryId"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	TargetHours float64 `json:"targetHours"`
	Color       string  `json:"color"`
}

func (req projectRequest) toProject() core.Project {
	return core.Project{
		CategoryID:  strings.TrimSpace(req.CategoryID),
		Name:        sanitizeInput(req.Name),
		Description: sanitizeInput(req.Description),
		TargetHours: req.TargetHours,
		Color:       sanitizeInput(req.Color),
	}
}

type timeEntryRequest struct {
	ProjectID string  `json:"projectId"`
	Date      string  `json:"date"`
	Hours     float64 `json:"hours"`
	Notes     string  `json:"notes"`
}

func (req timeEntryRequest) toTimeEntry() (core.TimeEntry, error) {
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.TimeEntry{}, err
	}
	return core.TimeEntry{
		ProjectID: strings.TrimSpace(req.ProjectID),
		Date:      date,
		Hours:     req.Hours,
		Notes:     sanitizeInput(req.Notes),
	}, nil
}

// decodeJSON reads a single JSON object of at most limit bytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("%w: trailing data after JSON object", errBadRequest)
	}
	return nil
}

// sanitizeInput trims whitespace and drops control characters other than
// tab, newline and carriage return.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
