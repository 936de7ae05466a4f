package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/api"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/database"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/logging"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/ml"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/models"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/mqtt"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/pipeline"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/registry"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/services"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/pkg/config"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err := cfg.Validate(); err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logging.Component("main")
	log.Info().Msg("starting intrusion detection service")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === Detection pipeline ===
	reg := registry.New(cfg.ModelDir)
	var loader ml.Loader = ml.FileLoader{}
	if cfg.ModelCache {
		cached := ml.NewCachedLoader(loader)
		warmModels(ctx, reg, cached)
		loader = cached
	}
	detector := pipeline.New(reg, loader)

	// === Initialize ClickHouse database ===
	var (
		store  services.RunStore
		stats  api.StatsReader
		checks []api.Check
	)
	if cfg.ClickHouseEnabled {
		db, err := database.NewClickHouseDB(ctx, database.Options{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDB,
			Username: cfg.ClickHouseUser,
			Password: cfg.ClickHousePass,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize ClickHouse")
		}
		defer db.Close()

		resilient := database.NewResilientStore(db, database.DefaultBreakerSettings())
		store = resilient
		stats = db
		checks = append(checks, api.Check{Name: "clickhouse", Ready: resilient.Ready})
	}

	// Run summary channel (Services → MQTT), nil when MQTT is disabled
	var resultChan chan *models.DetectionSummary
	if cfg.MQTTEnabled {
		resultChan = make(chan *models.DetectionSummary, cfg.MQTTRequestChannelSize)
	}

	svcConfig := services.DefaultDetectionServiceConfig()
	svcConfig.Workers = cfg.MQTTWorkers
	svcConfig.RequestChannelSize = cfg.MQTTRequestChannelSize
	svc := services.NewDetectionService(detector, store, resultChan, svcConfig)

	// === Initialize MQTT ===
	if cfg.MQTTEnabled {
		mqttClient, err := mqtt.NewClient(mqtt.ClientConfig{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize MQTT client")
		}
		defer mqttClient.Close()

		subscriber := mqtt.NewSubscriber(
			mqttClient.GetNativeClient(),
			mqtt.SubscriberConfig{RequestTopic: cfg.MQTTTopicDetectReq},
			svc.RequestChan,
		)
		if err := subscriber.SubscribeAll(); err != nil {
			log.Fatal().Err(err).Msg("failed to subscribe to MQTT topics")
		}
		mqttClient.OnConnect(func() {
			if err := subscriber.SubscribeAll(); err != nil {
				log.Error().Err(err).Msg("failed to resubscribe after reconnect")
			}
		})
		checks = append(checks, api.Check{Name: "mqtt", Ready: mqttClient.IsConnected})

		publisher := mqtt.NewPublisher(
			mqttClient.GetNativeClient(),
			mqtt.PublisherConfig{ResultTopic: cfg.MQTTTopicDetectResult},
			resultChan,
		)
		go publisher.Start(ctx)
		go svc.Start(ctx)
	}

	// === HTTP server ===
	handler := api.NewHandler(svc, stats, cfg.HTTPMaxUploadBytes, checks...)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(handler, api.RouterConfig{DetectRateLimit: cfg.HTTPRateLimit}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	log.Info().
		Str("http_addr", cfg.HTTPAddr).
		Str("model_dir", cfg.ModelDir).
		Bool("mqtt", cfg.MQTTEnabled).
		Bool("clickhouse", cfg.ClickHouseEnabled).
		Strs("devices", reg.Names()).
		Msg("service is running")

	// === Wait for interrupt signal ===
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// === Graceful shutdown ===
	log.Info().Msg("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown")
	}

	cancel() // Cancel context to stop all goroutines

	log.Info().Msg("shutdown complete")
}

// warmModels loads every device's model up front so a missing artifact shows up
// in the startup log rather than on the first request. Failures are not cached.
func warmModels(ctx context.Context, reg *registry.Registry, loader ml.Loader) {
	log := logging.Component("main")
	for _, p := range reg.Devices() {
		if _, err := loader.Load(ctx, p.ModelRef); err != nil {
			log.Warn().Err(err).Str("device", p.Name).Msg("model not available")
			continue
		}
		log.Info().Str("device", p.Name).Str("model", p.ModelRef).Msg("model loaded")
	}
}
