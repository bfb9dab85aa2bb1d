package statefeed

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/nerrad567/homesim-core/internal/device"
	"github.com/nerrad567/homesim-core/internal/infrastructure/mqtt"
)

// SinkFunc adapts a function to the Sink interface.
type SinkFunc struct {
	SinkName string
	Fn       func(ctx context.Context, change device.Change) error
}

func (s SinkFunc) Name() string { return s.SinkName }

func (s SinkFunc) HandleChange(ctx context.Context, change device.Change) error {
	return s.Fn(ctx, change)
}

// Publisher is the subset of the MQTT client used for state publishing.
type Publisher interface {
	PublishRetained(topic string, payload []byte) error
	Topics() mqtt.Topics
}

// MQTTSink publishes each change as a retained message on
// {prefix}/state/{type}/{deviceId}.
type MQTTSink struct {
	pub Publisher
}

// NewMQTTSink returns a sink publishing through pub.
func NewMQTTSink(pub Publisher) *MQTTSink {
	return &MQTTSink{pub: pub}
}

func (s *MQTTSink) Name() string { return "mqtt" }

// StateMessage is the retained MQTT payload for one device.
type StateMessage struct {
	Seq       uint64        `json:"seq"`
	Status    device.Status `json:"status"`
	Source    string        `json:"source"`
	Action    string        `json:"action,omitempty"`
	Timestamp string        `json:"timestamp"`
}

func (s *MQTTSink) HandleChange(_ context.Context, change device.Change) error {
	payload, err := json.Marshal(StateMessage{
		Seq:       change.Seq,
		Status:    change.Entry.Annotated(),
		Source:    change.Cause.Source,
		Action:    change.Cause.Action,
		Timestamp: change.At.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
	if err != nil {
		return fmt.Errorf("marshalling state message: %w", err)
	}
	topic := s.pub.Topics().DeviceState(string(change.Entry.Kind), change.Entry.ID)
	return s.pub.PublishRetained(topic, payload)
}

// PointWriter is the subset of the InfluxDB client used for telemetry.
type PointWriter interface {
	WriteDeviceChange(change device.Change)
}

// InfluxSink writes each change as a device_metrics point.
type InfluxSink struct {
	w PointWriter
}

// NewInfluxSink returns a sink writing through w.
func NewInfluxSink(w PointWriter) *InfluxSink {
	return &InfluxSink{w: w}
}

func (s *InfluxSink) Name() string { return "influxdb" }

func (s *InfluxSink) HandleChange(_ context.Context, change device.Change) error {
	s.w.WriteDeviceChange(change)
	return nil
}

// Appender is the subset of the journal store used by JournalSink.
type Appender interface {
	Append(ctx context.Context, change device.Change) error
}

// JournalSink appends each change to the SQLite journal.
type JournalSink struct {
	a Appender
}

// NewJournalSink returns a sink appending through a.
func NewJournalSink(a Appender) *JournalSink {
	return &JournalSink{a: a}
}

func (s *JournalSink) Name() string { return "journal" }

func (s *JournalSink) HandleChange(ctx context.Context, change device.Change) error {
	return s.a.Append(ctx, change)
}
