package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aristath/cycleview/internal/datasets"
	"github.com/aristath/cycleview/internal/events"
	"github.com/rs/zerolog"
)

const probeTimeout = 10 * time.Second

// StatusMonitor periodically probes the dataset source and emits
// SOURCE_STATUS_CHANGED when its reachability or latest run changes.
type StatusMonitor struct {
	eventManager *events.Manager
	source       datasets.Source
	log          zerolog.Logger

	mu        sync.Mutex
	checked   bool
	reachable bool
	runID     string
	stop      chan struct{}
	done      chan struct{}
}

// NewStatusMonitor creates a new status monitor
func NewStatusMonitor(eventManager *events.Manager, source datasets.Source, log zerolog.Logger) *StatusMonitor {
	return &StatusMonitor{
		eventManager: eventManager,
		source:       source,
		log:          log.With().Str("component", "status_monitor").Logger(),
	}
}

// Start begins periodic status monitoring
func (m *StatusMonitor) Start(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stop != nil {
		return
	}
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go m.monitor(interval, m.stop, m.done)
}

// Stop ends monitoring and waits for an in-flight probe.
func (m *StatusMonitor) Stop() {
	m.mu.Lock()
	stop, done := m.stop, m.done
	m.stop, m.done = nil, nil
	m.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (m *StatusMonitor) monitor(interval time.Duration, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Do initial check
	m.Check(context.Background())

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.Check(context.Background())
		}
	}
}

// Check probes the source once. A missing run manifest still counts as
// reachable: directory sources often hold single series without one.
func (m *StatusMonitor) Check(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	data := &events.SourceStatusChangedData{Reachable: true}
	manifest, err := datasets.LoadRunManifest(ctx, m.source)
	switch {
	case err == nil:
		data.RunID = manifest.RunID
	case errors.Is(err, datasets.ErrDatasetNotFound):
	default:
		data.Reachable = false
		data.Error = err.Error()
	}

	m.mu.Lock()
	changed := !m.checked || m.reachable != data.Reachable || m.runID != data.RunID
	m.checked = true
	m.reachable = data.Reachable
	m.runID = data.RunID
	m.mu.Unlock()

	if !changed {
		return
	}

	if data.Reachable {
		m.log.Info().Str("run_id", data.RunID).Msg("Dataset source reachable")
	} else {
		m.log.Warn().Str("error", data.Error).Msg("Dataset source unreachable")
	}
	if m.eventManager != nil {
		m.eventManager.EmitTyped(events.SourceStatusChanged, "status_monitor", data)
	}
}
