package protocol

import (
	"encoding/json"
	"time"

	"github.com/nerrad567/homesim-core/internal/device"
)

// Response types.
const (
	TypeCommandResponse = "commandResponse"
	TypeDeviceState     = "deviceState"
	TypeDeviceList      = "deviceList"

	MessageTypeInitialState = "initialState"
)

// Response is every outbound message: direct replies, state events and snapshots.
type Response struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      any    `json:"data"`
	Type      string `json:"type"`
	RequestID string `json:"requestId,omitempty"`

	// Entry is the device a deviceState response describes. It is not
	// sent; the hub uses it to order replies against broadcasts.
	Entry *device.Entry `json:"-"`
}

// Encode marshals the response for the wire.
func (r Response) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// Failure builds a direct error reply with no payload.
func Failure(message string) Response {
	return Response{Success: false, Message: message, Type: TypeCommandResponse}
}

// DeviceState builds a reply carrying one device's status, annotated
// with its identity and resolved deviceIndex.
func DeviceState(message string, entry device.Entry) Response {
	return Response{
		Success: true,
		Message: message,
		Data:    entry.Annotated().With(device.Field{Key: "deviceIndex", Value: entry.Index}),
		Type:    TypeDeviceState,
		Entry:   &entry,
	}
}

// Snapshot is the data payload of an initial-state message.
type Snapshot struct {
	Devices     []device.Status `json:"devices"`
	Timestamp   string          `json:"timestamp"`
	MessageType string          `json:"messageType"`
}

// NewSnapshot annotates every entry and stamps the snapshot with at in UTC.
func NewSnapshot(entries []device.Entry, at time.Time) Snapshot {
	devices := make([]device.Status, 0, len(entries))
	for _, e := range entries {
		devices = append(devices, e.Annotated())
	}
	return Snapshot{
		Devices:     devices,
		Timestamp:   at.UTC().Format(time.RFC3339Nano),
		MessageType: MessageTypeInitialState,
	}
}

// InitialState wraps a snapshot in a deviceList response.
func InitialState(entries []device.Entry, at time.Time) Response {
	return Response{
		Success: true,
		Message: "Initial state",
		Data:    NewSnapshot(entries, at),
		Type:    TypeDeviceList,
	}
}
