// Package transfer serializes snapshots into the backup document users
// download, and parses such documents back for import.
package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"timetracker/internal/core"
)

// FilePrefix starts every backup file name.
const FilePrefix = "time-tracker-backup-"

// MaxDocumentSize bounds the size of an import document.
const MaxDocumentSize = 32 << 20

var ErrInvalidFormat = errors.New("invalid data format")

var requiredCollections = []string{"categories", "projects", "timeEntries"}

// FileName returns the backup name for the given day.
func FileName(now time.Time) string {
	return FilePrefix + core.DateOf(now).String() + ".json"
}

// Export encodes the snapshot as an indented JSON document.
func Export(s core.Snapshot) ([]byte, error) {
	b, err := json.MarshalIndent(s.Normalized(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// WriteExport writes the export document to w.
func WriteExport(w io.Writer, s core.Snapshot) error {
	b, err := Export(s)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// Import parses a backup document. The three top-level collections must
// all be present; any problem rejects the whole document.
func Import(r io.Reader) (core.Snapshot, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentSize+1))
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("read document: %w", err)
	}
	if len(data) > MaxDocumentSize {
		return core.Snapshot{}, fmt.Errorf("%w: document exceeds %d bytes", ErrInvalidFormat, MaxDocumentSize)
	}
	return Decode(data)
}

// Decode is Import for an in-memory document.
func Decode(data []byte) (core.Snapshot, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return core.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	for _, key := range requiredCollections {
		raw, ok := top[key]
		if !ok || len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return core.Snapshot{}, fmt.Errorf("%w: missing %q", ErrInvalidFormat, key)
		}
	}

	var s core.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return core.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return s.Normalized(), nil
}
