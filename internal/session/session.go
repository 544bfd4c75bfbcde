// Package session owns the aggregation engine for interactive viewers. A
// Session holds one series at a time: it fans out the five dataset retrievals
// through a Loader, folds each tagged result into the current state, tracks
// the cycle selection, ranking and overlay mode, and renders Views.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aristath/cycleview/internal/cycles"
	"github.com/aristath/cycleview/internal/datasets"
	"github.com/aristath/cycleview/internal/events"
	"github.com/aristath/cycleview/internal/loader"
	"github.com/rs/zerolog"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")
	ErrNotSelectable   = errors.New("cycle is not a stable cycle of the current series")
	ErrUnknownSeries   = errors.New("unknown series")
)

const moduleName = "session"

// Loader starts the dataset retrievals for a series. *loader.Loader
// satisfies it.
type Loader interface {
	Load(ctx context.Context, seriesID string, generation uint64) <-chan loader.Result
}

// EventEmitter publishes typed events. *events.Manager satisfies it.
type EventEmitter interface {
	EmitTyped(eventType events.EventType, module string, data events.EventData)
}

// Options tunes what a session derives from the datasets.
type Options struct {
	MaxSpectrumPeriod float64
	Palette           cycles.Palette
}

func (o Options) withDefaults() Options {
	if o.MaxSpectrumPeriod <= 0 {
		o.MaxSpectrumPeriod = cycles.MaxDisplayPeriodDays
	}
	if len(o.Palette) == 0 {
		o.Palette = cycles.DefaultPalette
	}
	return o
}

// Session is one viewer's engine state. All methods are safe for concurrent use.
type Session struct {
	id      string
	loader  Loader
	emitter EventEmitter
	opts    Options
	log     zerolog.Logger
	now     func() time.Time

	// ctx is the parent of every retrieval; it ends when the session closes.
	ctx  context.Context
	stop context.CancelFunc

	mu         sync.Mutex
	closed     bool
	seriesID   string
	generation uint64
	cancel     context.CancelFunc
	ranking    cycles.RankingState
	mode       cycles.Mode
	state      *seriesState
	createdAt  time.Time
	lastActive time.Time

	subs    map[int]chan struct{}
	nextSub int
}

func newSession(id string, l Loader, emitter EventEmitter, opts Options, now func() time.Time, log zerolog.Logger) *Session {
	ctx, stop := context.WithCancel(context.Background())
	created := now()
	return &Session{
		id:         id,
		loader:     l,
		emitter:    emitter,
		opts:       opts.withDefaults(),
		log:        log.With().Str("session_id", id).Logger(),
		now:        now,
		ctx:        ctx,
		stop:       stop,
		ranking:    cycles.DefaultRanking(),
		mode:       cycles.ModeSuperpose,
		state:      newSeriesState(),
		createdAt:  created,
		lastActive: created,
		subs:       make(map[int]chan struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// SwitchSeries makes seriesID the current series. The previous series' state
// is dropped and its in-flight retrievals are cancelled before the new
// retrievals are issued; results that still arrive for an older generation
// are discarded. Ranking and mode carry over.
func (s *Session) SwitchSeries(seriesID string) error {
	if err := datasets.ValidateSeriesID(seriesID); err != nil {
		return fmt.Errorf("%w: %w", ErrUnknownSeries, err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.cancel != nil {
		s.cancel()
	}

	previous := s.seriesID
	s.generation++
	generation := s.generation
	s.seriesID = seriesID
	s.state = newSeriesState()
	s.lastActive = s.now()

	ctx, cancel := context.WithCancel(s.ctx)
	s.cancel = cancel
	results := s.loader.Load(ctx, seriesID, generation)
	s.mu.Unlock()

	s.log.Info().
		Str("series", seriesID).
		Str("previous_series", previous).
		Uint64("generation", generation).
		Msg("Series changed")

	s.emit(events.SeriesChanged, &events.SeriesChangedData{
		SessionID:        s.id,
		SeriesID:         seriesID,
		PreviousSeriesID: previous,
		Generation:       generation,
	})
	s.notify()

	go s.consume(results)
	return nil
}

func (s *Session) consume(results <-chan loader.Result) {
	for res := range results {
		s.apply(res)
	}
}

// apply is the single reducer for retrieval results.
func (s *Session) apply(res loader.Result) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if res.Generation != s.generation || res.SeriesID != s.seriesID {
		current, currentGen := s.seriesID, s.generation
		s.mu.Unlock()

		s.log.Debug().
			Str("dataset", string(res.Kind)).
			Str("series", res.SeriesID).
			Uint64("generation", res.Generation).
			Uint64("current_generation", currentGen).
			Msg("Discarded stale dataset result")
		s.emit(events.StaleResultDiscarded, &events.StaleResultDiscardedData{
			SessionID:         s.id,
			Dataset:           string(res.Kind),
			SeriesID:          res.SeriesID,
			Generation:        res.Generation,
			CurrentSeriesID:   current,
			CurrentGeneration: currentGen,
		})
		return
	}

	ds, seeded := s.state.reduce(res, s.opts)
	count := s.state.selection.Len()
	s.mu.Unlock()

	if ds.Status == StatusFailed {
		s.log.Warn().
			Str("series", res.SeriesID).
			Str("dataset", string(res.Kind)).
			Str("error", ds.Error).
			Msg("Dataset failed to load")
		s.emit(events.DatasetFailed, &events.DatasetFailedData{
			SessionID:  s.id,
			SeriesID:   res.SeriesID,
			Generation: res.Generation,
			Dataset:    string(res.Kind),
			Error:      ds.Error,
		})
	} else {
		s.emit(events.DatasetLoaded, &events.DatasetLoadedData{
			SessionID:  s.id,
			SeriesID:   res.SeriesID,
			Generation: res.Generation,
			Dataset:    string(res.Kind),
			Status:     string(ds.Status),
			Rows:       ds.Rows,
		})
	}
	if seeded {
		s.emit(events.SelectionChanged, &events.SelectionChangedData{
			SessionID: s.id,
			Selected:  true,
			Count:     count,
		})
	}
	s.notify()
}

// Toggle flips the selection of one stable cycle and reports whether it is
// now selected.
func (s *Session) Toggle(key cycles.Key) (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, ErrSessionClosed
	}
	if !s.state.isStable(key) {
		s.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrNotSelectable, key)
	}
	selected := s.state.selection.Toggle(key)
	count := s.state.selection.Len()
	s.lastActive = s.now()
	s.mu.Unlock()

	s.emit(events.SelectionChanged, &events.SelectionChangedData{
		SessionID: s.id,
		Key:       key.String(),
		Selected:  selected,
		Count:     count,
	})
	s.notify()
	return selected, nil
}

// SelectSort applies a click on a table column: the active column flips its
// direction, a new column starts descending.
func (s *Session) SelectSort(key cycles.SortKey) (cycles.RankingState, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return cycles.RankingState{}, ErrSessionClosed
	}
	s.ranking = s.ranking.Select(key)
	ranking := s.ranking
	s.lastActive = s.now()
	s.mu.Unlock()

	s.emit(events.RankingChanged, &events.RankingChangedData{
		SessionID: s.id,
		Key:       string(ranking.Key),
		Direction: string(ranking.Direction),
	})
	s.notify()
	return ranking, nil
}

// SetMode switches between superposed and individual overlays. The
// selection is untouched.
func (s *Session) SetMode(mode cycles.Mode) error {
	if _, err := cycles.ParseMode(string(mode)); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	changed := s.mode != mode
	s.mode = mode
	s.lastActive = s.now()
	s.mu.Unlock()

	if changed {
		s.emit(events.ModeChanged, &events.ModeChangedData{SessionID: s.id, Mode: string(mode)})
		s.notify()
	}
	return nil
}

// WaitLoaded blocks until every dataset of the series that is current at call
// time has reported, or ctx ends.
func (s *Session) WaitLoaded(ctx context.Context) error {
	s.mu.Lock()
	done := s.state.done
	s.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe returns a channel that receives a signal after every state
// change. Signals coalesce; receivers should re-read the View. The channel is
// closed by the returned cancel func or when the session closes.
func (s *Session) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

func (s *Session) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Close cancels outstanding retrievals and ends all subscriptions.
func (s *Session) Close(reason string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stop()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.mu.Unlock()

	s.log.Info().Str("reason", reason).Msg("Session closed")
	s.emit(events.SessionClosed, &events.SessionClosedData{SessionID: s.id, Reason: reason})
}

// Info is a short description of a session for listings.
type Info struct {
	ID          string      `json:"id"`
	SeriesID    string      `json:"series_id"`
	Generation  uint64      `json:"generation"`
	Mode        cycles.Mode `json:"mode"`
	CreatedAt   time.Time   `json:"created_at"`
	LastActive  time.Time   `json:"last_active"`
	Subscribers int         `json:"subscribers"`
}

// Info describes the session.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:          s.id,
		SeriesID:    s.seriesID,
		Generation:  s.generation,
		Mode:        s.mode,
		CreatedAt:   s.createdAt,
		LastActive:  s.lastActive,
		Subscribers: len(s.subs),
	}
}

func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs) == 0 && s.lastActive.Before(cutoff)
}

func (s *Session) emit(eventType events.EventType, data events.EventData) {
	if s.emitter == nil {
		return
	}
	s.emitter.EmitTyped(eventType, moduleName, data)
}
