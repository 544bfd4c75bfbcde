// Package handlers exposes engine sessions over HTTP and WebSocket.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/cycleview/internal/cycles"
	"github.com/aristath/cycleview/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// maxWait caps how long ?wait=true holds a request for the datasets.
const maxWait = 10 * time.Second

var errBadRequest = errors.New("bad request")

// SeriesCatalog supplies the series loaded when a request names none.
type SeriesCatalog interface {
	Default() string
}

// Handler handles session HTTP requests
type Handler struct {
	manager *session.Manager
	catalog SeriesCatalog
	log     zerolog.Logger

	pingInterval   time.Duration
	originPatterns []string
}

// NewHandler creates a new session handler
func NewHandler(manager *session.Manager, catalog SeriesCatalog, log zerolog.Logger) *Handler {
	return &Handler{
		manager:        manager,
		catalog:        catalog,
		log:            log.With().Str("handler", "sessions").Logger(),
		pingInterval:   30 * time.Second,
		originPatterns: []string{"*"},
	}
}

// RegisterRoutes registers session routes under /sessions
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Delete("/", h.HandleClose)
			r.Put("/series", h.HandleSwitchSeries)
			r.Post("/cycles/{key}/toggle", h.HandleToggle)
			r.Post("/sort", h.HandleSort)
			r.Put("/mode", h.HandleSetMode)
			r.Get("/table", h.HandleTable)
			r.Get("/overlays", h.HandleOverlays)
			r.Get("/stream", h.HandleStream)
		})
	})
}

type seriesRequest struct {
	Series string `json:"series"`
}

// HandleCreate handles POST /api/sessions
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req seriesRequest
	if err := decodeOptional(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.Series == "" && h.catalog != nil {
		req.Series = h.catalog.Default()
	}

	s, err := h.manager.Create(req.Series)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.wait(r, s)
	h.writeJSON(w, http.StatusCreated, s.View())
}

// HandleList handles GET /api/sessions
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	infos := h.manager.List()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": infos,
		"count":    len(infos),
	})
}

// HandleGet handles GET /api/sessions/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.wait(r, s)
	h.writeJSON(w, http.StatusOK, s.View())
}

// HandleClose handles DELETE /api/sessions/{id}
func (h *Handler) HandleClose(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Close(chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSwitchSeries handles PUT /api/sessions/{id}/series
func (h *Handler) HandleSwitchSeries(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req seriesRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.Series == "" {
		h.writeError(w, fmt.Errorf("%w: series is required", errBadRequest))
		return
	}

	if err := s.SwitchSeries(req.Series); err != nil {
		h.writeError(w, err)
		return
	}

	h.wait(r, s)
	h.writeJSON(w, http.StatusOK, s.View())
}

// HandleToggle handles POST /api/sessions/{id}/cycles/{key}/toggle
func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	key, err := cycles.ParseKey(chi.URLParam(r, "key"))
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: invalid cycle key %q", errBadRequest, chi.URLParam(r, "key")))
		return
	}

	selected, err := s.Toggle(key)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"key":      key,
		"selected": selected,
	})
}

// HandleSort handles POST /api/sessions/{id}/sort
func (h *Handler) HandleSort(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Key string `json:"key"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	key, err := cycles.ParseSortKey(req.Key)
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	ranking, err := s.SelectSort(key)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ranking)
}

// HandleSetMode handles PUT /api/sessions/{id}/mode
func (h *Handler) HandleSetMode(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Mode string `json:"mode"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	mode, err := cycles.ParseMode(req.Mode)
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	if err := s.SetMode(mode); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"mode": mode})
}

// HandleTable handles GET /api/sessions/{id}/table
func (h *Handler) HandleTable(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, s.Table())
}

// HandleOverlays handles GET /api/sessions/{id}/overlays
func (h *Handler) HandleOverlays(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"overlays": s.Overlays()})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.manager.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return nil, false
	}
	return s, true
}

// wait holds the request until the current series has loaded when the
// client asked for it with ?wait=true. A timeout still returns the partial
// view.
func (h *Handler) wait(r *http.Request, s *session.Session) {
	if ok, _ := strconv.ParseBool(r.URL.Query().Get("wait")); !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), maxWait)
	defer cancel()
	if err := s.WaitLoaded(ctx); err != nil {
		h.log.Debug().Err(err).Str("session_id", s.ID()).Msg("Responding before all datasets loaded")
	}
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return nil
}

func decodeOptional(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrSessionClosed),
		errors.Is(err, session.ErrUnknownSeries):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, session.ErrNotSelectable):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Request failed")
	} else {
		h.log.Debug().Err(err).Int("status", status).Msg("Request rejected")
	}
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
