package events

import (
	"encoding/json"
	"time"
)

// EventData is the interface that all event data types must implement
// This allows for type-safe event data while maintaining flexibility
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// SessionCreatedData contains data for SessionCreated events
type SessionCreatedData struct {
	SessionID string `json:"session_id"`
	SeriesID  string `json:"series_id"`
}

// EventType returns the event type for SessionCreatedData
func (d *SessionCreatedData) EventType() EventType {
	return SessionCreated
}

// SessionClosedData contains data for SessionClosed events
type SessionClosedData struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"` // "closed" or "idle"
}

// EventType returns the event type for SessionClosedData
func (d *SessionClosedData) EventType() EventType {
	return SessionClosed
}

// SeriesChangedData contains data for SeriesChanged events
type SeriesChangedData struct {
	SessionID        string `json:"session_id"`
	SeriesID         string `json:"series_id"`
	PreviousSeriesID string `json:"previous_series_id,omitempty"`
	Generation       uint64 `json:"generation"`
}

// EventType returns the event type for SeriesChangedData
func (d *SeriesChangedData) EventType() EventType {
	return SeriesChanged
}

// DatasetLoadedData contains data for DatasetLoaded events
type DatasetLoadedData struct {
	SessionID  string `json:"session_id"`
	SeriesID   string `json:"series_id"`
	Generation uint64 `json:"generation"`
	Dataset    string `json:"dataset"`
	Status     string `json:"status"` // "loaded" or "empty"
	Rows       int    `json:"rows"`
}

// EventType returns the event type for DatasetLoadedData
func (d *DatasetLoadedData) EventType() EventType {
	return DatasetLoaded
}

// DatasetFailedData contains data for DatasetFailed events
type DatasetFailedData struct {
	SessionID  string `json:"session_id"`
	SeriesID   string `json:"series_id"`
	Generation uint64 `json:"generation"`
	Dataset    string `json:"dataset"`
	Error      string `json:"error"`
}

// EventType returns the event type for DatasetFailedData
func (d *DatasetFailedData) EventType() EventType {
	return DatasetFailed
}

// StaleResultDiscardedData contains data for StaleResultDiscarded events
type StaleResultDiscardedData struct {
	SessionID         string `json:"session_id"`
	Dataset           string `json:"dataset"`
	SeriesID          string `json:"series_id"`
	Generation        uint64 `json:"generation"`
	CurrentSeriesID   string `json:"current_series_id"`
	CurrentGeneration uint64 `json:"current_generation"`
}

// EventType returns the event type for StaleResultDiscardedData
func (d *StaleResultDiscardedData) EventType() EventType {
	return StaleResultDiscarded
}

// SelectionChangedData contains data for SelectionChanged events
type SelectionChangedData struct {
	SessionID string `json:"session_id"`
	Key       string `json:"key,omitempty"` // empty when the selection was seeded
	Selected  bool   `json:"selected"`
	Count     int    `json:"count"`
}

// EventType returns the event type for SelectionChangedData
func (d *SelectionChangedData) EventType() EventType {
	return SelectionChanged
}

// RankingChangedData contains data for RankingChanged events
type RankingChangedData struct {
	SessionID string `json:"session_id"`
	Key       string `json:"key"`
	Direction string `json:"direction"`
}

// EventType returns the event type for RankingChangedData
func (d *RankingChangedData) EventType() EventType {
	return RankingChanged
}

// ModeChangedData contains data for ModeChanged events
type ModeChangedData struct {
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"`
}

// EventType returns the event type for ModeChangedData
func (d *ModeChangedData) EventType() EventType {
	return ModeChanged
}

// CacheCleanedData contains data for CacheCleaned events
type CacheCleanedData struct {
	Deleted int64 `json:"deleted"`
}

// EventType returns the event type for CacheCleanedData
func (d *CacheCleanedData) EventType() EventType {
	return CacheCleaned
}

// SourceStatusChangedData contains data for SourceStatusChanged events
type SourceStatusChangedData struct {
	Reachable bool   `json:"reachable"`
	RunID     string `json:"run_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// EventType returns the event type for SourceStatusChangedData
func (d *SourceStatusChangedData) EventType() EventType {
	return SourceStatusChanged
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}

// EventWithData is the wire form of an event with typed data
type EventWithData struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Module    string    `json:"module"`
	Data      EventData `json:"data"`
}

// NewEventWithData converts a bus event to its wire form.
func NewEventWithData(e *Event) *EventWithData {
	return &EventWithData{
		Type:      e.Type,
		Timestamp: e.Timestamp,
		Module:    e.Module,
		Data:      e.Data,
	}
}

// MarshalJSON customizes JSON serialization for EventWithData
func (e *EventWithData) MarshalJSON() ([]byte, error) {
	type Alias EventWithData
	aux := &struct {
		Data json.RawMessage `json:"data"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	if e.Data != nil {
		dataBytes, err := json.Marshal(e.Data)
		if err != nil {
			return nil, err
		}
		aux.Data = dataBytes
	}

	return json.Marshal(aux)
}

// UnmarshalJSON customizes JSON deserialization for EventWithData
func (e *EventWithData) UnmarshalJSON(data []byte) error {
	type Alias EventWithData
	aux := &struct {
		Data json.RawMessage `json:"data"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	if len(aux.Data) == 0 || string(aux.Data) == "null" {
		return nil
	}

	var eventData EventData
	switch aux.Type {
	case SessionCreated:
		eventData = &SessionCreatedData{}
	case SessionClosed:
		eventData = &SessionClosedData{}
	case SeriesChanged:
		eventData = &SeriesChangedData{}
	case DatasetLoaded:
		eventData = &DatasetLoadedData{}
	case DatasetFailed:
		eventData = &DatasetFailedData{}
	case StaleResultDiscarded:
		eventData = &StaleResultDiscardedData{}
	case SelectionChanged:
		eventData = &SelectionChangedData{}
	case RankingChanged:
		eventData = &RankingChangedData{}
	case ModeChanged:
		eventData = &ModeChangedData{}
	case CacheCleaned:
		eventData = &CacheCleanedData{}
	case SourceStatusChanged:
		eventData = &SourceStatusChangedData{}
	case ErrorOccurred:
		eventData = &ErrorEventData{}
	default:
		eventData = &GenericEventData{Type: aux.Type}
	}

	if err := json.Unmarshal(aux.Data, eventData); err != nil {
		return err
	}
	e.Data = eventData
	return nil
}

// GenericEventData is a fallback for events that don't have a specific type
type GenericEventData struct {
	Type EventType              `json:"-"`
	Data map[string]interface{} `json:"-"`
}

// EventType returns the event type for GenericEventData
func (d *GenericEventData) EventType() EventType {
	return d.Type
}

// MarshalJSON customizes JSON serialization for GenericEventData
func (d *GenericEventData) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Data)
}

// UnmarshalJSON customizes JSON deserialization for GenericEventData
func (d *GenericEventData) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &d.Data)
}
