package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"calm/internal/services"
)

const maxBodyBytes = 1 << 16

var errMissingTaskSeconds = errors.New("missing taskId or seconds")

// saveTimeRequest is decoded loosely: taskId may arrive as a string or a
// number and seconds must be a JSON number.
type saveTimeRequest struct {
	TaskID  any `json:"taskId"`
	Seconds any `json:"seconds"`
}

// parseSaveTime reads the write-back body. A body that is not JSON, or is
// JSON null, is a plain error. Any other JSON value lacking a usable taskId
// or seconds, arrays and scalars included, is errMissingTaskSeconds.
func parseSaveTime(r *http.Request) (taskID string, seconds float64, err error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return "", 0, fmt.Errorf("read body: %w", err)
	}

	if bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return "", 0, errors.New("decode body: null")
	}

	var req saveTimeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return "", 0, errMissingTaskSeconds
		}
		return "", 0, fmt.Errorf("decode body: %w", err)
	}

	switch v := req.TaskID.(type) {
	case string:
		taskID = strings.TrimSpace(v)
	case float64:
		if v != 0 {
			taskID = strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	secs, ok := req.Seconds.(float64)
	if taskID == "" || !ok {
		return "", 0, errMissingTaskSeconds
	}
	return taskID, secs, nil
}

// parseChartRequest reads the chart query parameters.
func parseChartRequest(r *http.Request) services.ChartRequest {
	q := r.URL.Query()
	all, _ := strconv.ParseBool(strings.TrimSpace(q.Get("all")))
	return services.ChartRequest{
		Date:   strings.TrimSpace(q.Get("date")),
		Period: strings.ToLower(strings.TrimSpace(q.Get("period"))),
		All:    all,
	}
}
