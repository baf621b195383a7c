package http

import (
	"errors"
	"net/http"

	"calm/internal/core"
	"calm/internal/log"
)

func (s *Server) handleNotionData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=60")
	if r.Method != http.MethodGet {
		handleMethodNotAllowed(w, r)
		return
	}
	if s.deps.Charts == nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: chartConfigMessage(s.deps.ChartSecrets)})
		return
	}

	resp, err := s.deps.Charts.Chart(r.Context(), parseChartRequest(r))
	if err != nil {
		writeError(r.Context(), w, err, log.ComponentChart, log.OpChart)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWeekData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=60")
	if r.Method != http.MethodGet {
		handleMethodNotAllowed(w, r)
		return
	}
	if s.deps.Charts == nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: chartConfigMessage(s.deps.ChartSecrets)})
		return
	}

	resp, err := s.deps.Charts.Week(r.Context())
	if err != nil {
		writeError(r.Context(), w, err, log.ComponentChart, log.OpChart)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSaveTime(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		handleMethodNotAllowed(w, r)
		return
	}
	if s.deps.TimeLog == nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: msgMissingConfig})
		return
	}

	taskID, seconds, err := parseSaveTime(r)
	if errors.Is(err, errMissingTaskSeconds) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgMissingTaskSeconds})
		return
	}
	if err != nil {
		writeError(r.Context(), w, err, log.ComponentTimeLog, log.OpAddTime)
		return
	}

	res, err := s.deps.TimeLog.AddTime(r.Context(), taskID, seconds)
	if errors.Is(err, core.ErrMissingTaskID) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgMissingTaskSeconds})
		return
	}
	if err != nil {
		writeError(r.Context(), w, err, log.ComponentTimeLog, log.OpAddTime)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		if err := s.deps.Ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "not ready", Message: err.Error()})
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
