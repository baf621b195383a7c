package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DurationSavedMessage is published after time has been written back to a task.
// ID is unique per event so consumers can drop redeliveries.
type DurationSavedMessage struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"taskId"`
	AddedHours float64   `json:"addedHours"`
	TotalHours float64   `json:"totalHours"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewDurationSavedMessage(taskID string, addedHours, totalHours float64) *DurationSavedMessage {
	return &DurationSavedMessage{
		ID:         uuid.NewString(),
		TaskID:     taskID,
		AddedHours: addedHours,
		TotalHours: totalHours,
		Timestamp:  time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *DurationSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DurationSavedMessageFromJSON creates a message from JSON bytes
func DurationSavedMessageFromJSON(data []byte) (*DurationSavedMessage, error) {
	var msg DurationSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
