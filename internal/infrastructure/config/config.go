package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the home simulator.
// Values come from defaults, then an optional YAML file, then HOMESIM_* environment variables.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	WebSocket  WebSocketConfig  `yaml:"websocket"`
	Devices    DevicesConfig    `yaml:"devices"`
	Simulation SimulationConfig `yaml:"simulation"`
	Database   DatabaseConfig   `yaml:"database"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	Host     string              `yaml:"host"`
	Port     int                 `yaml:"port"`
	Timeouts ServerTimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig          `yaml:"cors"`
}

// ServerTimeoutConfig contains HTTP timeout settings in seconds.
type ServerTimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains control-channel settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
	SendBuffer     int    `yaml:"send_buffer"`

	// Broadcast pushes committed state changes to every other connection.
	// When false only the requesting connection hears about a change.
	Broadcast bool `yaml:"broadcast"`
}

// DevicesConfig describes the fixed appliance inventory created at startup.
type DevicesConfig struct {
	Lights         []DeviceEntry `yaml:"lights"`
	Fans           []DeviceEntry `yaml:"fans"`
	TV             DeviceEntry   `yaml:"tv"`
	AC             DeviceEntry   `yaml:"ac"`
	Fridge         DeviceEntry   `yaml:"fridge"`
	Induction      DeviceEntry   `yaml:"induction"`
	WashingMachine DeviceEntry   `yaml:"washing_machine"`

	// TVSources is the allow-list for the TV input selector.
	TVSources []string `yaml:"tv_sources"`

	// FridgeAmbient is the reading both compartments report while the fridge is off.
	FridgeAmbient int `yaml:"fridge_ambient"`
}

// DeviceEntry names one appliance. An empty ID is generated at startup.
type DeviceEntry struct {
	ID   string `yaml:"id"`
	Room string `yaml:"room"`
}

// SimulationConfig controls time-driven behaviour.
type SimulationConfig struct {
	// CycleTick is a cron spec for the washing machine countdown.
	CycleTick string `yaml:"cycle_tick"`
}

// DatabaseConfig contains SQLite journal settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	BusyTimeout int    `yaml:"busy_timeout"`

	// RetentionHours bounds the journal. 0 keeps everything.
	RetentionHours int `yaml:"retention_hours"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTReconnectConfig contains reconnection backoff bounds in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern HOMESIM_SECTION_KEY,
// for example HOMESIM_SERVER_PORT or HOMESIM_MQTT_HOST.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return finish(cfg)
}

// LoadOrDefault behaves like Load but falls back to the built-in defaults
// when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		cfg, err := Load(path)
		if err == nil || !errors.Is(err, os.ErrNotExist) {
			return cfg, err
		}
	}
	return finish(defaultConfig())
}

// Default returns the built-in configuration without reading files or the environment.
func Default() *Config {
	return defaultConfig()
}

func finish(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// defaultConfig returns a Config describing the stock simulated home.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: ServerTimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/iot",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
			SendBuffer:     256,
			Broadcast:      true,
		},
		Devices: DevicesConfig{
			Lights: []DeviceEntry{
				{Room: "Living Room"},
				{Room: "Bedroom"},
				{Room: "Kitchen"},
			},
			Fans:           []DeviceEntry{{Room: "Living Room"}},
			TV:             DeviceEntry{Room: "Living Room"},
			AC:             DeviceEntry{Room: "Bedroom"},
			Fridge:         DeviceEntry{Room: "Kitchen"},
			Induction:      DeviceEntry{Room: "Kitchen"},
			WashingMachine: DeviceEntry{Room: "Bathroom"},
			TVSources:      []string{"HDMI1", "HDMI2", "TV", "AV"},
			FridgeAmbient:  20,
		},
		Simulation: SimulationConfig{
			CycleTick: "@every 1m",
		},
		Database: DatabaseConfig{
			Path:           ":memory:",
			BusyTimeout:    5,
			RetentionHours: 24,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "homesim-core",
			},
			QoS:         1,
			TopicPrefix: "homesim",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			URL:           "http://localhost:8086",
			Org:           "homesim",
			Bucket:        "devices",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HOMESIM_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("HOMESIM_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("HOMESIM_WEBSOCKET_BROADCAST"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.WebSocket.Broadcast = b
		}
	}

	if v := os.Getenv("HOMESIM_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("HOMESIM_MQTT_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.MQTT.Enabled = b
		}
	}
	if v := os.Getenv("HOMESIM_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("HOMESIM_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("HOMESIM_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("HOMESIM_INFLUXDB_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.InfluxDB.Enabled = b
		}
	}
	if v := os.Getenv("HOMESIM_INFLUXDB_URL"); v != "" {
		cfg.InfluxDB.URL = v
	}
	if v := os.Getenv("HOMESIM_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	if v := os.Getenv("HOMESIM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	if !strings.HasPrefix(c.WebSocket.Path, "/") {
		errs = append(errs, "websocket.path must start with /")
	}
	if c.WebSocket.SendBuffer < 1 {
		errs = append(errs, "websocket.send_buffer must be positive")
	}

	if len(c.Devices.Lights) == 0 {
		errs = append(errs, "devices.lights must list at least one light")
	}
	if len(c.Devices.Fans) == 0 {
		errs = append(errs, "devices.fans must list at least one fan")
	}
	if len(c.Devices.TVSources) == 0 {
		errs = append(errs, "devices.tv_sources must not be empty")
	}
	errs = append(errs, duplicateIDs(c.Devices)...)

	if c.Simulation.CycleTick == "" {
		errs = append(errs, "simulation.cycle_tick is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if c.Database.RetentionHours < 0 {
		errs = append(errs, "database.retention_hours must not be negative")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.TopicPrefix == "" {
		errs = append(errs, "mqtt.topic_prefix is required when mqtt is enabled")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func duplicateIDs(d DevicesConfig) []string {
	entries := make([]DeviceEntry, 0, len(d.Lights)+len(d.Fans)+5)
	entries = append(entries, d.Lights...)
	entries = append(entries, d.Fans...)
	entries = append(entries, d.TV, d.AC, d.Fridge, d.Induction, d.WashingMachine)

	seen := make(map[string]struct{}, len(entries))
	var errs []string
	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		if _, dup := seen[e.ID]; dup {
			errs = append(errs, fmt.Sprintf("devices: duplicate id %q", e.ID))
			continue
		}
		seen[e.ID] = struct{}{}
	}
	return errs
}

// GetReadTimeout returns the HTTP read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the HTTP write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the HTTP idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Idle) * time.Second
}
