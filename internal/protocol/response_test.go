package protocol

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/homesim-core/internal/device"
)

func TestFailure_Encode(t *testing.T) {
	b, err := Failure("Unknown device: Toaster").Encode()
	if err != nil {
		t.Fatal(err)
	}
	want := `{"success":false,"message":"Unknown device: Toaster","data":null,"type":"commandResponse"}`
	if string(b) != want {
		t.Errorf("Encode() = %s\nwant     %s", b, want)
	}
}

func TestDeviceState_AnnotatesEntry(t *testing.T) {
	fan := device.NewFan("Fan_ABCD", "Hall")
	fan.SetRPM(2000)
	entry := device.Entry{
		Ref:    device.Ref{Kind: device.KindFan, Index: 0, ID: fan.ID(), Room: fan.Room()},
		Status: fan.Status(),
	}

	b, err := DeviceState("Fan RPM set to 2000", entry).Encode()
	if err != nil {
		t.Fatal(err)
	}
	want := `{"success":true,"message":"Fan RPM set to 2000","data":{"power":false,"rpm":2000,"location":"Hall","deviceId":"Fan_ABCD","deviceType":"Fan","deviceIndex":0},"type":"deviceState"}`
	if string(b) != want {
		t.Errorf("Encode() = %s\nwant     %s", b, want)
	}
}

func TestInitialState(t *testing.T) {
	light := device.NewLight("Light_0001", "Hall")
	entries := []device.Entry{{
		Ref:    device.Ref{Kind: device.KindLight, ID: light.ID(), Room: light.Room()},
		Status: light.Status(),
	}}
	at := time.Date(2026, 3, 1, 12, 30, 0, 0, time.FixedZone("X", 3600))

	resp := InitialState(entries, at)
	if resp.Type != TypeDeviceList || !resp.Success {
		t.Fatalf("InitialState() = %+v", resp)
	}

	b, _ := resp.Encode()
	var decoded struct {
		Data struct {
			Devices     []map[string]any `json:"devices"`
			Timestamp   string           `json:"timestamp"`
			MessageType string           `json:"messageType"`
		} `json:"data"`
	}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Data.MessageType != MessageTypeInitialState {
		t.Errorf("messageType = %q", decoded.Data.MessageType)
	}
	if decoded.Data.Timestamp != "2026-03-01T11:30:00Z" {
		t.Errorf("timestamp = %q, want UTC ISO 8601", decoded.Data.Timestamp)
	}
	if len(decoded.Data.Devices) != 1 || decoded.Data.Devices[0]["deviceType"] != "Light" {
		t.Errorf("devices = %+v", decoded.Data.Devices)
	}
	if !strings.Contains(string(b), `"power":true,"intensity":1,"color":"FFFFFF","location":"Hall"`) {
		t.Errorf("device fields out of order: %s", b)
	}
}
