package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"timetracker/internal/core"
	ports "timetracker/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Options configures the mirror client.
type Options struct {
	SpreadsheetID string
	EntriesSheet  string
	SummarySheet  string

	// Service account credentials, inline JSON takes precedence over a file.
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	entriesSheet  string
	summarySheet  string
}

var _ ports.SnapshotMirror = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	credentialsJSON, err := readCredentials(opts)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", opts.SpreadsheetID)
	return NewWithService(svc, opts), nil
}

// NewWithService wraps an existing service, e.g. one pointed at a test server.
func NewWithService(svc *gsheet.Service, opts Options) *Client {
	entries := strings.TrimSpace(opts.EntriesSheet)
	if entries == "" {
		entries = "TimeEntries"
	}
	summary := strings.TrimSpace(opts.SummarySheet)
	if summary == "" {
		summary = "ProjectTotals"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		entriesSheet:  entries,
		summarySheet:  summary,
	}
}

func readCredentials(opts Options) ([]byte, error) {
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		return []byte(opts.CredentialsJSON), nil
	case strings.TrimSpace(opts.CredentialsFile) != "":
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials")
	}
}

// Mirror rewrites the entries and project totals sheets. Missing sheets are
// created first.
func (c *Client) Mirror(ctx context.Context, s core.Snapshot) (ports.Result, error) {
	if c.svc == nil {
		return ports.Result{}, errors.New("sheets service not initialized")
	}
	if err := c.ensureSheets(ctx, c.entriesSheet, c.summarySheet); err != nil {
		return ports.Result{}, err
	}

	entryRows := ports.EntryRows(s)
	projectRows := ports.ProjectRows(s)

	clearReq := &gsheet.BatchClearValuesRequest{
		Ranges: []string{sheetRange(c.entriesSheet), sheetRange(c.summarySheet)},
	}
	if _, err := c.svc.Spreadsheets.Values.BatchClear(c.spreadsheetID, clearReq).Context(ctx).Do(); err != nil {
		return ports.Result{}, fmt.Errorf("clear mirrored sheets: %w", err)
	}

	update := &gsheet.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data: []*gsheet.ValueRange{
			{Range: sheetRange(c.entriesSheet) + "!A1", Values: entryRows},
			{Range: sheetRange(c.summarySheet) + "!A1", Values: projectRows},
		},
	}
	if _, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, update).Context(ctx).Do(); err != nil {
		return ports.Result{}, fmt.Errorf("write mirrored sheets: %w", err)
	}

	return ports.Result{EntryRows: len(entryRows) - 1, ProjectRows: len(projectRows) - 1}, nil
}

func (c *Client) ensureSheets(ctx context.Context, titles ...string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	existing := make(map[string]struct{}, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			existing[sh.Properties.Title] = struct{}{}
		}
	}

	var requests []*gsheet.Request
	for _, title := range titles {
		if _, ok := existing[title]; ok {
			continue
		}
		requests = append(requests, &gsheet.Request{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		})
	}
	if len(requests) == 0 {
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: requests}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheets: %w", err)
	}
	slog.InfoContext(ctx, "Created mirror sheets", "count", len(requests))
	return nil
}

// sheetRange addresses every cell of a sheet.
func sheetRange(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
