package mqtt

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nerrad567/homesim-core/internal/device"
	"github.com/nerrad567/homesim-core/internal/dispatch"
	"github.com/nerrad567/homesim-core/internal/infrastructure/config"
)

type published struct {
	topic   string
	payload []byte
}

type fakeTransport struct {
	handler    MessageHandler
	topic      string
	qos        byte
	subErr     error
	published  []published
	publishErr error
}

func (f *fakeTransport) Subscribe(topic string, qos byte, h MessageHandler) error {
	if f.subErr != nil {
		return f.subErr
	}
	f.topic, f.qos, f.handler = topic, qos, h
	return nil
}

func (f *fakeTransport) PublishTransient(topic string, payload []byte) error {
	f.published = append(f.published, published{topic, payload})
	return f.publishErr
}

func (f *fakeTransport) Topics() Topics { return Topics{Prefix: "homesim"} }

func newIngress(t *testing.T) (*CommandIngress, *fakeTransport, *device.Registry) {
	t.Helper()
	reg, err := device.NewRegistry(device.BuildInventory(config.Default().Devices)...)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	ft := &fakeTransport{}
	in := NewCommandIngress(ft, dispatch.New(reg), 1)
	if err := in.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return in, ft, reg
}

func decodeReply(t *testing.T, p published) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(p.payload, &m); err != nil {
		t.Fatalf("reply %q is not JSON: %v", p.payload, err)
	}
	return m
}

func TestCommandIngress_Subscribes(t *testing.T) {
	_, ft, _ := newIngress(t)
	if ft.topic != "homesim/command" || ft.qos != 1 {
		t.Errorf("subscribed to %q qos %d", ft.topic, ft.qos)
	}

	failing := &fakeTransport{subErr: ErrNotConnected}
	err := NewCommandIngress(failing, nil, 1).Start()
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Start() error = %v, want ErrNotConnected", err)
	}
}

func TestCommandIngress_DispatchesWithReply(t *testing.T) {
	_, ft, reg := newIngress(t)

	var origin string
	reg.SetNotifier(func(c device.Change) { origin = c.Cause.Origin })

	err := ft.handler(ft.topic, []byte(`{"device":"fan","action":"setRPM","parameters":{"rpm":800},"requestId":"req-7"}`))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}

	if origin != "mqtt:req-7" {
		t.Errorf("origin = %q, want mqtt:req-7", origin)
	}
	if len(ft.published) != 1 {
		t.Fatalf("published %d replies, want 1", len(ft.published))
	}
	if ft.published[0].topic != "homesim/response/req-7" {
		t.Errorf("reply topic = %q", ft.published[0].topic)
	}
	reply := decodeReply(t, ft.published[0])
	if reply["success"] != true || reply["requestId"] != "req-7" || reply["type"] != "deviceState" {
		t.Errorf("reply = %v", reply)
	}

	fan, _ := reg.Get(device.KindFan, 0)
	if rpm, _ := fan.Status.Get("rpm"); rpm != 800 {
		t.Errorf("rpm = %v, want 800", rpm)
	}
}

func TestCommandIngress_FireAndForget(t *testing.T) {
	_, ft, reg := newIngress(t)

	var origin string
	reg.SetNotifier(func(c device.Change) { origin = c.Cause.Origin })

	if err := ft.handler(ft.topic, []byte(`{"device":"tv","action":"toggle"}`)); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if len(ft.published) != 0 {
		t.Errorf("published %d replies for a command without requestId", len(ft.published))
	}
	if origin != "mqtt" {
		t.Errorf("origin = %q, want mqtt", origin)
	}
}

func TestCommandIngress_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantReply bool
		wantMsg   string
	}{
		{"unknown action with id", `{"device":"light","action":"blink","requestId":"r1"}`, true, "unknown action"},
		{"bad parameter with id", `{"device":"fan","action":"setRPM","parameters":{"rpm":"fast"},"requestId":"r2"}`, true, "invalid parameter type"},
		{"device error with id", `{"device":"washingmachine","action":"stop","requestId":"r3"}`, true, "no cycle running"},
		{"not json", `{{`, false, ""},
		{"no id", `{"device":"toaster","action":"toggle"}`, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ft, _ := newIngress(t)
			if err := ft.handler(ft.topic, []byte(tt.payload)); err != nil {
				t.Fatalf("handler error = %v", err)
			}
			if got := len(ft.published) == 1; got != tt.wantReply {
				t.Fatalf("replied = %v, want %v", got, tt.wantReply)
			}
			if !tt.wantReply {
				return
			}
			reply := decodeReply(t, ft.published[0])
			if reply["success"] != false || reply["type"] != "commandResponse" {
				t.Errorf("reply = %v, want failed commandResponse", reply)
			}
			if msg, _ := reply["message"].(string); !strings.Contains(msg, tt.wantMsg) {
				t.Errorf("message = %q, want mention of %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestCommandIngress_InvalidRequestID(t *testing.T) {
	_, ft, _ := newIngress(t)

	err := ft.handler(ft.topic, []byte(`{"device":"tv","action":"toggle","requestId":"a/b"}`))
	if !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("handler error = %v, want ErrInvalidTopic", err)
	}
	if len(ft.published) != 0 {
		t.Errorf("published to a wildcard topic")
	}
}

func TestCommandIngress_PublishError(t *testing.T) {
	_, ft, _ := newIngress(t)
	ft.publishErr = ErrNotConnected

	err := ft.handler(ft.topic, []byte(`{"device":"tv","action":"toggle","requestId":"r"}`))
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("handler error = %v, want ErrNotConnected", err)
	}
}
