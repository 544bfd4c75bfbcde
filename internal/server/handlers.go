package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aristath/cycleview/internal/datasets"
)

// version is reported by /health.
const version = "1.0.0"

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": version,
		"service": "cycleview",
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleCatalog returns the series picker entries
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.container.Catalog)
}

// handleLatestRun returns the run-level summary of the latest pipeline run
func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	manifest, err := datasets.LoadRunManifest(r.Context(), s.container.Source)
	if err != nil {
		if errors.Is(err, datasets.ErrDatasetNotFound) {
			s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no run manifest at source"})
			return
		}
		s.log.Error().Err(err).Msg("Failed to load run manifest")
		s.writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, manifest)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
