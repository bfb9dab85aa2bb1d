// Homesim Core - simulated smart home
//
// This is the main entry point for the home simulator. It serves a
// websocket control channel for a fixed inventory of simulated
// appliances and mirrors every state change onto the optional MQTT,
// InfluxDB and journal backends.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/nerrad567/homesim-core/internal/api"
	"github.com/nerrad567/homesim-core/internal/device"
	"github.com/nerrad567/homesim-core/internal/dispatch"
	"github.com/nerrad567/homesim-core/internal/infrastructure/config"
	"github.com/nerrad567/homesim-core/internal/infrastructure/database"
	"github.com/nerrad567/homesim-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/homesim-core/internal/infrastructure/logging"
	"github.com/nerrad567/homesim-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/homesim-core/internal/journal"
	"github.com/nerrad567/homesim-core/internal/metrics"
	"github.com/nerrad567/homesim-core/internal/statefeed"
	"github.com/nerrad567/homesim-core/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path. A missing file means stock defaults.
const defaultConfigPath = "configs/homesim.yaml"

// startupCheckTimeout bounds the health checks run before serving.
const startupCheckTimeout = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting homesim",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	envPath := os.Getenv("HOMESIM_ENV_FILE")
	if err := config.LoadDotEnv(envPath); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}

	configPath := getConfigPath()
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Device inventory
	registry, err := device.NewRegistry(device.BuildInventory(cfg.Devices)...)
	if err != nil {
		return fmt.Errorf("building device inventory: %w", err)
	}
	registry.SetLogger(log.With("component", "registry"))
	log.Info("device registry initialised", "devices", registry.Len())

	timer, err := device.NewCycleTimer(registry, cfg.Simulation.CycleTick)
	if err != nil {
		return err
	}
	timer.SetLogger(log.With("component", "cycle-timer"))

	promRegistry := metrics.NewRegistry()

	dispatcher := dispatch.New(registry)
	dispatcher.SetLogger(log.With("component", "dispatch"))
	dispatcher.SetObserver(promRegistry)

	feed := statefeed.New(0)
	feed.SetLogger(log.With("component", "statefeed"))
	feed.OnDrop(promRegistry.FeedDropped)
	feed.OnSinkError(promRegistry.SinkFailed)
	feed.AddSink(promRegistry)

	checks := make(map[string]api.HealthChecker)

	// Journal database
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("journal database ready", "path", db.Path())
	checks["database"] = db

	store := journal.NewStore(db.DB)
	feed.AddSink(statefeed.NewJournalSink(store))

	if cfg.Database.RetentionHours > 0 {
		janitor, janitorErr := journal.NewJanitor(store, time.Duration(cfg.Database.RetentionHours)*time.Hour, journal.DefaultPruneSchedule)
		if janitorErr != nil {
			return fmt.Errorf("scheduling journal retention: %w", janitorErr)
		}
		janitor.SetLogger(log.With("component", "journal"))
		janitor.Start()
		defer janitor.Stop()
	}

	// MQTT (optional)
	var mqttStatus api.ConnectionReporter
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := startMQTT(cfg, dispatcher, feed, log)
		if mqttErr != nil {
			return mqttErr
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		checks["mqtt"] = mqttClient
		mqttStatus = mqttClient
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(ctx, cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		feed.AddSink(guarded(statefeed.NewInfluxSink(influxClient), log))
		checks["influxdb"] = influxClient
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	server, err := api.New(api.Deps{
		Server:     cfg.Server,
		WS:         cfg.WebSocket,
		Logger:     log.With("component", "api"),
		Registry:   registry,
		Dispatcher: dispatcher,
		History:    store,
		Metrics:    promRegistry,
		Checks:     checks,
		DB:         db,
		MQTT:       mqttStatus,
		Feed:       feed,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	feed.AddSink(server.Hub())

	if err := healthCheck(ctx, checks); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	// Every sink is registered; start delivering.
	registry.SetNotifier(feed.Notify)
	feedCtx, stopFeed := context.WithCancel(context.Background())
	feedDone := make(chan struct{})
	go func() {
		defer close(feedDone)
		feed.Run(feedCtx) //nolint:errcheck // returns the cancellation cause
	}()
	defer func() {
		stopFeed()
		<-feedDone
		for _, st := range feed.Stats() {
			if st.Dropped > 0 {
				log.Warn("state sink missed changes", "sink", st.Sink, "dropped", st.Dropped)
			}
		}
		log.Info("state feed drained", "dropped", feed.Dropped())
	}()

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	timer.Start()
	defer timer.Stop()

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order: cycle timer, API server,
	// state feed drain, InfluxDB, MQTT, journal retention, database.
	return nil
}

// guarded wraps an external sink in a circuit breaker that logs transitions.
func guarded(sink statefeed.Sink, log *logging.Logger) *statefeed.BreakerSink {
	return statefeed.NewBreakerSink(sink, statefeed.DefaultBreakerFailures, statefeed.DefaultBreakerTimeout,
		func(name string, from, to gobreaker.State) {
			log.Warn("sink breaker state changed", "sink", name, "from", from.String(), "to", to.String())
		})
}

// startMQTT connects, registers the retained-state sink and subscribes
// to the command topic.
func startMQTT(cfg *config.Config, d *dispatch.Dispatcher, feed *statefeed.Feed, log *logging.Logger) (*mqtt.Client, error) {
	client, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(log.With("component", "mqtt"))
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	feed.AddSink(guarded(statefeed.NewMQTTSink(client), log))

	ingress := mqtt.NewCommandIngress(client, d, byte(cfg.MQTT.QoS)) //nolint:gosec // qos validated to 0..2
	ingress.SetLogger(log.With("component", "mqtt-commands"))
	if err := ingress.Start(); err != nil {
		_ = client.Close()
		return nil, err
	}
	log.Info("MQTT command ingress subscribed", "topic", client.Topics().Command())
	return client, nil
}

// getConfigPath returns the configuration file path.
// Uses HOMESIM_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HOMESIM_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies every wired backend before serving.
func healthCheck(ctx context.Context, checks map[string]api.HealthChecker) error {
	ctx, cancel := context.WithTimeout(ctx, startupCheckTimeout)
	defer cancel()

	for name, c := range checks {
		if err := c.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
