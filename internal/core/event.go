package core

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Severity represents the severity level of a detection or alert.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	switch str {
	case "INFO":
		*s = SeverityInfo
	case "LOW":
		*s = SeverityLow
	case "MEDIUM":
		*s = SeverityMedium
	case "HIGH":
		*s = SeverityHigh
	case "CRITICAL":
		*s = SeverityCritical
	default:
		*s = SeverityInfo
	}
	return nil
}

// AuthEvent is one observation parsed from an authentication log line.
// Timestamp is the wall-clock time the line was observed, not a time embedded
// in the log text. Arrival order is authoritative for all temporal logic:
// the trackers never reorder events by embedded timestamps.
type AuthEvent struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	SourceID        string    `json:"source_id"`
	FailedLogin     bool      `json:"failed_login"`
	SuccessfulLogin bool      `json:"successful_login"`
	AdminActivity   bool      `json:"admin_activity,omitempty"`
	Raw             string    `json:"raw,omitempty"`
}

// NewAuthEvent creates an AuthEvent with a generated ID and the given
// observation time.
func NewAuthEvent(sourceID string, failed, success bool, ts time.Time) *AuthEvent {
	return &AuthEvent{
		ID:              uuid.New().String(),
		Timestamp:       ts,
		SourceID:        sourceID,
		FailedLogin:     failed,
		SuccessfulLogin: success,
	}
}

// Actionable reports whether the event carries enough information for the
// trackers: a source and at least one login outcome. Everything else is
// filtered out before it can touch tracker state.
func (e *AuthEvent) Actionable() bool {
	return e.SourceID != "" && (e.FailedLogin || e.SuccessfulLogin)
}

// Marshal serializes the event to JSON.
func (e *AuthEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalAuthEvent deserializes an AuthEvent from JSON.
func UnmarshalAuthEvent(data []byte) (*AuthEvent, error) {
	var event AuthEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
