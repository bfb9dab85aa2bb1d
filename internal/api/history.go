package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/nerrad567/homesim-core/internal/journal"
)

// maxQueryParamLen caps free-form query parameters.
const maxQueryParamLen = 128

// handleHistory reads the device journal, newest first.
//
//	GET /api/v1/history?deviceId=Light_3F2A&limit=20
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeServiceUnavailable(w, "history journal not configured")
		return
	}

	deviceID := r.URL.Query().Get("deviceId")
	if len(deviceID) > maxQueryParamLen {
		writeBadRequest(w, "invalid deviceId")
		return
	}
	if deviceID != "" {
		if _, err := s.registry.Lookup(deviceID); err != nil {
			writeNotFound(w, "device not found: "+deviceID)
			return
		}
	}

	limit, err := parseHistoryLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	records, err := s.history.History(r.Context(), deviceID, limit)
	if err != nil {
		s.logger.Error("history query failed", "device_id", deviceID, "error", err)
		writeInternalError(w, "failed to read history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"count":   len(records),
	})
}

// parseHistoryLimit accepts an empty value (journal default) or a
// positive integer. Values above journal.MaxLimit are clamped by the store.
func parseHistoryLimit(raw string) (int, error) {
	if raw == "" {
		return journal.DefaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("limit must be a positive integer")
	}
	return limit, nil
}
