package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"

	"github.com/tejusbharadwaj/foenergy/internal/api"
	"github.com/tejusbharadwaj/foenergy/internal/config"
	server "github.com/tejusbharadwaj/foenergy/internal/grpc"
	"github.com/tejusbharadwaj/foenergy/internal/metrics"
	"github.com/tejusbharadwaj/foenergy/internal/mqtt"
	"github.com/tejusbharadwaj/foenergy/internal/rest"
	"github.com/tejusbharadwaj/foenergy/internal/scheduler"
	"github.com/tejusbharadwaj/foenergy/internal/sensor"
)

// Command foenergy publishes SEV's realtime production figures for the
// Faroe Islands as Home Assistant sensors.
//
// The service:
//   - Polls the SEV realtime map on a fixed interval
//   - Keeps one sensor per configured area (suduroy, main, total)
//   - Announces the sensors through MQTT discovery
//   - Serves entity states over HTTP and health over gRPC
//   - Exports Prometheus metrics
//
// Usage:
//
//	foenergy [flags]
//
// The flags are:
//
//	-config string
//	      path to config file (default "config.yaml")
//	-env string
//	      dotenv file loaded before the config (default ".env")
func main() {
	// Parse command line flags
	flags := parseFlags()

	if err := config.LoadDotEnv(flags.EnvFile); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}

	// Load configuration
	appConfig, err := config.Load(flags.ConfigPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logger
	logger, err := config.NewLogger(appConfig.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	logger.WithFields(logrus.Fields{
		"areas":    appConfig.Areas,
		"provider": appConfig.Provider.URL,
	}).Info("Starting fo_energy_production")

	// Cancelled on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New()
	if err := appMetrics.Register(registry); err != nil {
		logger.Fatalf("Failed to register metrics: %v", err)
	}

	// Host side collaborators
	entities := sensor.NewRegistry()
	health := server.NewHealthChecker()
	sinks := []sensor.Sink{entities, appMetrics}

	var mqttClient paho.Client
	if appConfig.MQTT.Enabled {
		mqttClient, err = connectMQTT(appConfig.MQTT, logger)
		if err != nil {
			logger.Fatalf("Failed to connect to MQTT broker: %v", err)
		}
		sinks = append(sinks, mqtt.NewSink(mqttClient, mqttSinkConfig(appConfig.MQTT), logger))
	}

	// Sensor adapter
	client := api.NewClient(appConfig.Provider.URL, appConfig.Provider.Timeout, logger)
	adapter, err := sensor.Configure(ctx, appConfig.Areas, appMetrics.Instrument(client), logger,
		sensor.WithSinks(sinks...))
	if err != nil {
		logger.Fatalf("Failed to configure sensors: %v", err)
	}

	// HTTP state API
	restServer, err := rest.NewServer(entities, adapter, registry, rest.ServerConfig{
		CacheSize:      appConfig.Server.CacheSize,
		RateLimit:      appConfig.Server.RefreshRateLimit,
		RateLimitBurst: 1,
		RefreshTimeout: appConfig.Provider.Timeout,
	}, logger)
	if err != nil {
		logger.Fatalf("Failed to setup HTTP server: %v", err)
	}
	entities.OnChange(restServer.Purge)
	entities.OnChange(func() { health.Sync(entities) })

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", appConfig.Server.Host, appConfig.Server.HTTPPort),
		Handler:           restServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// gRPC health server
	grpcServer := server.SetupServer(health, appMetrics, server.ServerConfig{
		RateLimit:      appConfig.Server.RateLimit,
		RateLimitBurst: appConfig.Server.RateLimitBurst,
	}, logger)

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", appConfig.Server.Host, appConfig.Server.GRPCPort))
	if err != nil {
		logger.Fatalf("Failed to listen: %v", err)
	}

	// Poll schedule
	poller := scheduler.NewScheduler(ctx, adapter, appConfig.Provider.PollInterval, appConfig.Provider.Timeout, logger)

	// Start background services
	errChan := make(chan error, 3)

	go func() {
		if err := poller.Start(); err != nil {
			errChan <- fmt.Errorf("scheduler error: %w", err)
		}
	}()

	go func() {
		logger.WithFields(logrus.Fields{
			"port": appConfig.Server.GRPCPort,
		}).Info("Starting gRPC server")
		if err := grpcServer.Serve(lis); err != nil {
			errChan <- fmt.Errorf("grpc server error: %w", err)
		}
	}()

	go func() {
		logger.WithFields(logrus.Fields{
			"port": appConfig.Server.HTTPPort,
		}).Info("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// Wait for a signal or any error
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Received signal, initiating shutdown")
	case runErr = <-errChan:
		logger.WithError(runErr).Error("Service error, initiating shutdown")
	}

	handleShutdown(poller, health, adapter, httpServer, grpcServer, mqttClient, logger)

	if runErr != nil {
		os.Exit(1)
	}
}

type Flags struct {
	ConfigPath string
	EnvFile    string
}

func parseFlags() *Flags {
	flags := &Flags{}

	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "Path to the config file")
	flag.StringVar(&flags.EnvFile, "env", ".env", "Dotenv file loaded before the config")

	flag.Parse()

	return flags
}

func connectMQTT(cfg config.MQTTConfig, logger *logrus.Logger) (paho.Client, error) {
	return mqtt.Connect(mqtt.ClientConfig{
		Broker:    cfg.Broker,
		ClientID:  cfg.ClientID,
		Username:  cfg.Username,
		Password:  cfg.Password,
		WillTopic: mqttSinkConfig(cfg).StatusTopic(),
	}, cfg.Timeout, logger)
}

func mqttSinkConfig(cfg config.MQTTConfig) mqtt.Config {
	return mqtt.Config{
		DiscoveryPrefix: cfg.DiscoveryPrefix,
		StatePrefix:     cfg.StatePrefix,
		Timeout:         cfg.Timeout,
	}
}

// Handle graceful shutdown
func handleShutdown(
	poller *scheduler.Scheduler,
	health *server.HealthChecker,
	adapter *sensor.Adapter,
	httpServer *http.Server,
	grpcServer *grpc.Server,
	mqttClient paho.Client,
	logger *logrus.Logger,
) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poller.Stop()
	health.Shutdown()

	// Integration teardown removes the entities from every sink
	adapter.Close(ctx)

	logger.Info("Gracefully stopping servers...")
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("HTTP server shutdown")
	}
	grpcServer.GracefulStop()

	if mqttClient != nil {
		mqttClient.Disconnect(250)
	}
	logger.Info("Servers stopped")
}
