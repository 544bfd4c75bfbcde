package events

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// Manager handles event emission and logging
type Manager struct {
	bus *Bus
	log zerolog.Logger
}

// NewManager creates a new event manager
func NewManager(bus *Bus, log zerolog.Logger) *Manager {
	return &Manager{
		bus: bus,
		log: log.With().Str("service", "events").Logger(),
	}
}

// Bus returns the underlying bus.
func (m *Manager) Bus() *Bus {
	return m.bus
}

// EmitTyped logs and publishes an event with a typed payload
func (m *Manager) EmitTyped(eventType EventType, module string, data EventData) {
	if m == nil {
		return
	}

	if e := m.log.Debug(); e.Enabled() {
		payload, err := json.Marshal(data)
		if err != nil {
			payload = []byte("null")
		}
		e.Str("event_type", string(eventType)).
			Str("module", module).
			RawJSON("data", payload).
			Msg("Event emitted")
	}

	if m.bus != nil {
		m.bus.Emit(eventType, module, data)
	}
}

// Emit publishes an event with an untyped payload
func (m *Manager) Emit(eventType EventType, module string, data map[string]interface{}) {
	m.EmitTyped(eventType, module, &GenericEventData{Type: eventType, Data: data})
}

// EmitError emits an error event
func (m *Manager) EmitError(module string, err error, context map[string]interface{}) {
	m.EmitTyped(ErrorOccurred, module, &ErrorEventData{
		Error:   err.Error(),
		Context: context,
	})
}
