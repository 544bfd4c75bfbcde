package session

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aristath/cycleview/internal/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Manager owns the live sessions.
type Manager struct {
	loader  Loader
	emitter EventEmitter
	opts    Options
	log     zerolog.Logger
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager. emitter may be nil.
func NewManager(l Loader, emitter EventEmitter, opts Options, log zerolog.Logger) *Manager {
	return &Manager{
		loader:   l,
		emitter:  emitter,
		opts:     opts.withDefaults(),
		log:      log.With().Str("service", "sessions").Logger(),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create starts a session and begins loading seriesID.
func (m *Manager) Create(seriesID string) (*Session, error) {
	s := newSession(uuid.NewString(), m.loader, m.emitter, m.opts, m.now, m.log)

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	if m.emitter != nil {
		m.emitter.EmitTyped(events.SessionCreated, moduleName, &events.SessionCreatedData{
			SessionID: s.id,
			SeriesID:  seriesID,
		})
	}

	if err := s.SwitchSeries(seriesID); err != nil {
		m.remove(s.id)
		s.Close("invalid_series")
		return nil, err
	}

	m.log.Info().Str("session_id", s.id).Str("series", seriesID).Msg("Session created")
	return s, nil
}

// Get returns a live session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close ends a session.
func (m *Manager) Close(id string) error {
	s := m.remove(id)
	if s == nil {
		return ErrSessionNotFound
	}
	s.Close("closed")
	return nil
}

func (m *Manager) remove(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil
	}
	delete(m.sessions, id)
	return s
}

// List describes all live sessions, oldest first.
func (m *Manager) List() []Info {
	m.mu.RLock()
	infos := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		infos = append(infos, s.Info())
	}
	m.mu.RUnlock()

	slices.SortFunc(infos, func(a, b Info) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return infos
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// EvictIdle closes sessions without subscribers that have been inactive for
// longer than ttl. It returns how many were closed.
func (m *Manager) EvictIdle(ttl time.Duration) int {
	cutoff := m.now().Add(-ttl)

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.idleSince(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.Close("idle")
	}
	return len(idle)
}

// CloseAll ends every session, used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range all {
		s.Close("shutdown")
	}
}

// EvictionJob runs Manager.EvictIdle on a schedule.
type EvictionJob struct {
	manager *Manager
	ttl     time.Duration
	log     zerolog.Logger
}

// NewEvictionJob creates the idle-session eviction job.
func NewEvictionJob(manager *Manager, ttl time.Duration, log zerolog.Logger) *EvictionJob {
	return &EvictionJob{
		manager: manager,
		ttl:     ttl,
		log:     log.With().Str("job", "session_eviction").Logger(),
	}
}

// Run closes idle sessions.
func (j *EvictionJob) Run() error {
	if n := j.manager.EvictIdle(j.ttl); n > 0 {
		j.log.Info().Int("evicted", n).Dur("idle_ttl", j.ttl).Msg("Evicted idle sessions")
	}
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *EvictionJob) Name() string {
	return "session_eviction"
}
