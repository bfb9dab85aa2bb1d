package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nerrad567/homesim-core/internal/infrastructure/config"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "homesim-test",
		},
		QoS:         1,
		TopicPrefix: "homesim",
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

func TestTopics(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"device state", Topics{Prefix: "home"}.DeviceState("Fan", "Fan_01AB"), "home/state/Fan/Fan_01AB"},
		{"command", Topics{Prefix: "home"}.Command(), "home/command"},
		{"response", Topics{Prefix: "home"}.Response("req-1"), "home/response/req-1"},
		{"system status", Topics{}.SystemStatus(), "homesim/system/status"},
		{"all states", Topics{}.AllDeviceStates(), "homesim/state/+/+"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "sim"
	cfg.Auth.Password = "pw"

	opts := buildClientOptions(cfg)
	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v", opts.Servers)
	}
	if opts.ClientID != "homesim-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "sim" || opts.Password != "pw" {
		t.Errorf("credentials not applied")
	}
	if !opts.AutoReconnect || !opts.CleanSession {
		t.Errorf("AutoReconnect=%v CleanSession=%v", opts.AutoReconnect, opts.CleanSession)
	}
	if opts.TLSConfig != nil {
		t.Error("TLS configured without broker.tls")
	}
	if opts.Order {
		t.Error("Order = true, handlers that publish would stall message routing")
	}
}

func TestBuildClientOptions_TLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883

	opts := buildClientOptions(cfg)
	if opts.Servers[0].String() != "ssl://127.0.0.1:8883" {
		t.Errorf("Servers = %v", opts.Servers)
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Errorf("TLSConfig = %+v", opts.TLSConfig)
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(testConfig())
	configureLWT(opts, Topics{Prefix: "homesim"}, "homesim-test")

	if !opts.WillEnabled || opts.WillTopic != "homesim/system/status" || !opts.WillRetained {
		t.Fatalf("will = enabled:%v topic:%q retained:%v", opts.WillEnabled, opts.WillTopic, opts.WillRetained)
	}
	var payload map[string]string
	if err := json.Unmarshal(opts.WillPayload, &payload); err != nil {
		t.Fatalf("LWT payload is not JSON: %v", err)
	}
	if payload["status"] != "offline" || payload["reason"] != "unexpected_disconnect" {
		t.Errorf("LWT payload = %v", payload)
	}
}

func TestStatusPayloads(t *testing.T) {
	for name, raw := range map[string]string{
		"online":  buildOnlinePayload("c1"),
		"offline": buildOfflinePayload("c1"),
	} {
		var payload map[string]string
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			t.Fatalf("%s payload %q: %v", name, raw, err)
		}
		if payload["status"] != name || payload["client_id"] != "c1" || payload["timestamp"] == "" {
			t.Errorf("%s payload = %v", name, payload)
		}
	}
}

func TestPublish_Validation(t *testing.T) {
	c := newClient(testConfig())

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", nil, 1, ErrInvalidTopic},
		{"bad qos", "t", nil, 3, ErrInvalidQoS},
		{"too large", "t", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
		{"not connected", "t", []byte("{}"), 1, ErrNotConnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Publish(tt.topic, tt.payload, tt.qos, false); !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribe_Validation(t *testing.T) {
	c := newClient(testConfig())

	if err := c.Subscribe("", 1, func(string, []byte) error { return nil }); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic error = %v", err)
	}
	if err := c.Subscribe("t", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("nil handler error = %v", err)
	}
	if err := c.Subscribe("t", 1, func(string, []byte) error { return nil }); !errors.Is(err, ErrNotConnected) {
		t.Errorf("disconnected error = %v", err)
	}
	if c.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", c.SubscriptionCount())
	}
}

func TestHealthCheck_Disconnected(t *testing.T) {
	c := newClient(testConfig())
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck(cancelled) error = %v", err)
	}
}

func TestClose_NeverConnected(t *testing.T) {
	if err := newClient(testConfig()).Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
