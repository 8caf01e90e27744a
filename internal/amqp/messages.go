package amqp

import (
	"encoding/json"
	"time"

	"timetracker/internal/core"
)

// SnapshotSavedMessage announces that a new snapshot version was persisted.
// It carries no entity data; consumers load the snapshot from the repository.
type SnapshotSavedMessage struct {
	Version     int64     `json:"version"`
	Categories  int       `json:"categories"`
	Projects    int       `json:"projects"`
	TimeEntries int       `json:"timeEntries"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewSnapshotSavedMessage(version int64, s core.Snapshot) *SnapshotSavedMessage {
	return &SnapshotSavedMessage{
		Version:     version,
		Categories:  len(s.Categories),
		Projects:    len(s.Projects),
		TimeEntries: len(s.TimeEntries),
		Timestamp:   time.Now(),
	}
}

func (m *SnapshotSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SnapshotSavedMessageFromJSON(data []byte) (*SnapshotSavedMessage, error) {
	var msg SnapshotSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
