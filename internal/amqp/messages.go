package amqp

import (
	"encoding/json"
	"time"
)

// ShiftSyncMessage asks the worker to export one ledger entry to the
// spreadsheet. It carries only identifiers, the worker re-reads the entry
// from the store so it always exports the latest state.
type ShiftSyncMessage struct {
	JobID     string    `json:"jobId"`
	EntryID   string    `json:"entryId"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewShiftSyncMessage(jobID, entryID string, version int64) *ShiftSyncMessage {
	return &ShiftSyncMessage{
		JobID:     jobID,
		EntryID:   entryID,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *ShiftSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ShiftSyncMessageFromJSON(data []byte) (*ShiftSyncMessage, error) {
	var msg ShiftSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
