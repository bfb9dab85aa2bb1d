package influxdb

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/homesim-core/internal/device"
	"github.com/nerrad567/homesim-core/internal/infrastructure/config"
)

func testChange() device.Change {
	return device.Change{
		Seq: 7,
		Entry: device.Entry{
			Ref: device.Ref{Kind: device.KindLight, Index: 0, ID: "Light_AB12", Room: "Living Room"},
			Status: device.Status{
				{Key: "power", Value: true},
				{Key: "intensity", Value: 1.5},
				{Key: "color", Value: "FF0000"},
			},
		},
		Cause: device.Cause{Source: device.SourceCommand, Origin: "conn-1", Action: "setIntensity"},
		At:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func fieldMap(p *write.Point) map[string]interface{} {
	m := make(map[string]interface{})
	for _, f := range p.FieldList() {
		m[f.Key] = f.Value
	}
	return m
}

func tagMap(p *write.Point) map[string]string {
	m := make(map[string]string)
	for _, tag := range p.TagList() {
		m[tag.Key] = tag.Value
	}
	return m
}

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(context.Background(), config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Connect(ctx, config.InfluxDBConfig{
		Enabled: true,
		URL:     "http://127.0.0.1:1",
		Token:   "x",
		Org:     "homesim",
		Bucket:  "devices",
	})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestClientOptions_Defaults(t *testing.T) {
	tests := []struct {
		name          string
		batch, flush  int
		wantBatch     uint
		wantFlushMsec uint
	}{
		{"configured", 50, 2, 50, 2000},
		{"zero", 0, 0, defaultBatchSize, defaultFlushInterval * millisecondsPerSecond},
		{"negative", -5, -1, defaultBatchSize, defaultFlushInterval * millisecondsPerSecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := clientOptions(config.InfluxDBConfig{BatchSize: tt.batch, FlushInterval: tt.flush})
			if got := opts.BatchSize(); got != tt.wantBatch {
				t.Errorf("BatchSize() = %d, want %d", got, tt.wantBatch)
			}
			if got := opts.FlushInterval(); got != tt.wantFlushMsec {
				t.Errorf("FlushInterval() = %d, want %d", got, tt.wantFlushMsec)
			}
		})
	}
}

func TestDevicePoint(t *testing.T) {
	p := DevicePoint(testChange())
	if p == nil {
		t.Fatal("DevicePoint() = nil")
	}
	if p.Name() != MeasurementDeviceMetrics {
		t.Errorf("Name() = %q, want %q", p.Name(), MeasurementDeviceMetrics)
	}

	tags := tagMap(p)
	want := map[string]string{
		"device_id":   "Light_AB12",
		"device_type": "Light",
		"room":        "Living Room",
		"source":      device.SourceCommand,
	}
	for k, v := range want {
		if tags[k] != v {
			t.Errorf("tag %s = %q, want %q", k, tags[k], v)
		}
	}

	fields := fieldMap(p)
	if fields["power"] != int64(1) {
		t.Errorf("power = %v, want 1", fields["power"])
	}
	if fields["intensity"] != 1.5 {
		t.Errorf("intensity = %v, want 1.5", fields["intensity"])
	}
	if _, ok := fields["color"]; ok {
		t.Error("string field color should not be written")
	}
	if !p.Time().Equal(testChange().At) {
		t.Errorf("Time() = %v, want change time", p.Time())
	}
}

func TestDevicePoint_IntegerFields(t *testing.T) {
	change := testChange()
	change.Entry.Status = device.Status{
		{Key: "rpm", Value: 1200},
		{Key: "power", Value: false},
	}

	line := write.PointToLineProtocol(DevicePoint(change), time.Second)
	for _, want := range []string{"rpm=1200i", "power=0i", `room=Living\ Room`} {
		if !strings.Contains(line, want) {
			t.Errorf("line protocol %q missing %q", line, want)
		}
	}
}

func TestDevicePoint_NoNumericFields(t *testing.T) {
	change := testChange()
	change.Entry.Status = device.Status{{Key: "source", Value: "HDMI1"}}
	if p := DevicePoint(change); p != nil {
		t.Errorf("DevicePoint() = %v, want nil", p)
	}
}

func TestDevicePoint_ZeroTimeUsesNow(t *testing.T) {
	change := testChange()
	change.At = time.Time{}
	before := time.Now()
	p := DevicePoint(change)
	if p.Time().Before(before) {
		t.Errorf("Time() = %v, want >= %v", p.Time(), before)
	}
}

func TestClient_NilAndDisconnected(t *testing.T) {
	var nilClient *Client
	if nilClient.IsConnected() {
		t.Error("nil client reports connected")
	}
	if err := nilClient.Close(); err != nil {
		t.Errorf("Close() on nil = %v", err)
	}

	c := &Client{}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() = %v, want ErrNotConnected", err)
	}
	// Must not touch the nil write API.
	c.WriteDeviceChange(testChange())
	c.WritePoint("m", nil, map[string]interface{}{"v": 1})
	c.Flush()
}
