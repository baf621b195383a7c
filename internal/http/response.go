package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"calm/internal/log"
	"calm/internal/tasks"
)

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Message string `json:"message,omitempty"`
}

const (
	msgMethodNotAllowed   = "Method not allowed"
	msgMissingConfig      = "Missing configuration"
	msgMissingTaskSeconds = "Missing taskId or seconds"
	msgInternal           = "Internal error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: msgMethodNotAllowed})
}

func chartConfigMessage(secrets []string) string {
	return msgMissingConfig + ". Set " + strings.Join(secrets, " and ") + "."
}

// upstreamMessage names a failed upstream call in the words clients expect.
func upstreamMessage(op string) string {
	switch op {
	case tasks.OpGet:
		return "Failed to get page"
	case tasks.OpUpdate:
		return "Failed to update page"
	default:
		return "Notion API error"
	}
}

// writeError maps err to its HTTP answer: upstream failures keep their status
// and raw body, everything else is a 500.
func writeError(ctx context.Context, w http.ResponseWriter, err error, component, op string) {
	sl := log.NewStructuredLogger(log.FromContext(ctx))

	var upstream *tasks.UpstreamError
	if errors.As(err, &upstream) {
		fields := log.NewFields()
		fields[log.FieldDetails] = upstream.Body
		fields[log.FieldStatusCode] = upstream.StatusCode
		sl.LogError(ctx, "Upstream request failed", err, component, op, fields)

		status := upstream.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, errorBody{Error: upstreamMessage(upstream.Op), Details: upstream.Body})
		return
	}

	sl.LogError(ctx, "Request failed", err, component, op, nil)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: msgInternal, Message: err.Error()})
}
