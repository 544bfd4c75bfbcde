// Package events provides the in-process event bus used to broadcast engine
// state changes to stream subscribers and logs.
package events

import "time"

// EventType identifies an event.
type EventType string

const (
	// Session lifecycle
	SessionCreated EventType = "SESSION_CREATED"
	SessionClosed  EventType = "SESSION_CLOSED"

	// Dataset loading
	SeriesChanged        EventType = "SERIES_CHANGED"
	DatasetLoaded        EventType = "DATASET_LOADED"
	DatasetFailed        EventType = "DATASET_FAILED"
	StaleResultDiscarded EventType = "STALE_RESULT_DISCARDED"

	// User actions
	SelectionChanged EventType = "SELECTION_CHANGED"
	RankingChanged   EventType = "RANKING_CHANGED"
	ModeChanged      EventType = "MODE_CHANGED"

	// Maintenance
	CacheCleaned        EventType = "CACHE_CLEANED"
	SourceStatusChanged EventType = "SOURCE_STATUS_CHANGED"
	ErrorOccurred       EventType = "ERROR_OCCURRED"
)

// AllTypes lists every event type the engine emits.
var AllTypes = []EventType{
	SessionCreated,
	SessionClosed,
	SeriesChanged,
	DatasetLoaded,
	DatasetFailed,
	StaleResultDiscarded,
	SelectionChanged,
	RankingChanged,
	ModeChanged,
	CacheCleaned,
	SourceStatusChanged,
	ErrorOccurred,
}

// Event is one emitted event.
type Event struct {
	Type      EventType `json:"type"`
	Module    string    `json:"module"`
	Timestamp time.Time `json:"timestamp"`
	Data      EventData `json:"data"`
}

// GetTypedData returns the event payload.
func (e *Event) GetTypedData() EventData {
	return e.Data
}
