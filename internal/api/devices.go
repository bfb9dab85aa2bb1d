package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/homesim-core/internal/device"
	"github.com/nerrad567/homesim-core/internal/protocol"
)

// HeaderStateSeq carries the registry sequence number a snapshot was taken at.
const HeaderStateSeq = "X-State-Seq"

// handleListDevices returns the same body a websocket client receives
// on connect.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	entries, seq := s.registry.SnapshotSeq()
	w.Header().Set(HeaderStateSeq, strconv.FormatUint(seq, 10))
	writeJSON(w, http.StatusOK, protocol.InitialState(entries, s.hub.nowFunc()))
}

// handleGetDevice returns one device as a deviceState response, or as
// plain status lines with ?format=legacy.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	kind, ok := device.ParseKind(chi.URLParam(r, "type"))
	if !ok {
		writeNotFound(w, "unknown device type: "+chi.URLParam(r, "type"))
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeBadRequest(w, "device index must be an integer")
		return
	}

	if r.URL.Query().Get("format") == "legacy" {
		lines, err := s.registry.StatusLines(kind, index)
		if err != nil {
			writeDeviceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		//nolint:errcheck // Best-effort write to response
		w.Write([]byte(strings.Join(lines, "\n") + "\n"))
		return
	}

	entry, err := s.registry.Get(kind, index)
	if err != nil {
		writeDeviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, protocol.DeviceState(string(kind)+" state", entry))
}

// handleListRooms groups device IDs by room.
func (s *Server) handleListRooms(w http.ResponseWriter, _ *http.Request) {
	rooms := s.registry.Rooms()
	writeJSON(w, http.StatusOK, map[string]any{
		"rooms": rooms,
		"count": len(rooms),
	})
}

// ActionInfo describes one accepted command for a device type.
type ActionInfo struct {
	Name   string      `json:"name"`
	Params []ParamInfo `json:"parameters"`
}

// ParamInfo describes one command parameter.
type ParamInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// handleListActions returns the command catalogue for one device type.
func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	kind, ok := device.ParseKind(chi.URLParam(r, "type"))
	if !ok {
		writeNotFound(w, "unknown device type: "+chi.URLParam(r, "type"))
		return
	}

	specs := protocol.Actions(kind)
	actions := make([]ActionInfo, 0, len(specs))
	for _, spec := range specs {
		info := ActionInfo{Name: string(spec.Name), Params: make([]ParamInfo, 0, len(spec.Params))}
		for _, p := range spec.Params {
			info.Params = append(info.Params, ParamInfo{Name: p.Name, Type: p.Type.String(), Required: !p.Optional})
		}
		actions = append(actions, info)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deviceType": kind,
		"actions":    actions,
	})
}

func writeDeviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, device.ErrIndexOutOfRange), errors.Is(err, device.ErrNotFound):
		writeNotFound(w, err.Error())
	default:
		writeInternalError(w, "failed to read device")
	}
}
