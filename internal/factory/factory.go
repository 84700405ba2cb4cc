package factory

import (
	"sync"
	"time"

	"threat-intel-service/internal/analytics"
	"threat-intel-service/internal/config"
	"threat-intel-service/internal/engine"
	"threat-intel-service/internal/generator"
	"threat-intel-service/internal/ingest"
	"threat-intel-service/internal/service"
	"threat-intel-service/internal/util"
	"threat-intel-service/internal/ws"
)

// Factory manages the lifecycle of all application dependencies
type Factory struct {
	config *config.Config

	store    *engine.EventStore
	registry *engine.CampaignRegistry
	detector *engine.Detector

	tracker  *analytics.Tracker
	requests *analytics.RequestTracker

	svc *service.ThreatService
	hub *ws.Hub

	generator *generator.Generator
	consumer  *ingest.EventConsumer
	publisher *ingest.CampaignPublisher

	closeOnce sync.Once
}

// NewFactory creates and initializes all application dependencies
func NewFactory() (*Factory, error) {
	cfg := config.LoadConfig()

	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)
	logger := util.Get()

	f := &Factory{config: cfg}

	f.store = engine.NewEventStore(cfg.Engine.MaxHistory)
	f.registry = engine.NewCampaignRegistry()
	f.detector = engine.NewDetector(f.store, f.registry, cfg.Engine.ClusterEps, logger)

	f.tracker = analytics.NewTracker()
	f.requests = analytics.NewRequestTracker(
		cfg.Tracking.TrackerShards,
		cfg.Tracking.BotThreshold,
		cfg.Tracking.MaxTrackedIPs,
		time.Duration(cfg.Tracking.BotWindowSeconds)*time.Second,
	)

	f.svc = service.NewThreatService(
		f.store,
		f.registry,
		f.detector,
		f.tracker,
		f.requests,
		cfg.Engine.MinClusterSize,
		cfg.Engine.MinEventsForDetection,
		logger,
	)

	f.hub = ws.NewHub(logger)

	if cfg.Generator.Enabled {
		f.generator = generator.New(f.svc, f.hub, cfg.Generator.MinInterval, cfg.Generator.MaxInterval, logger)
	}

	if cfg.Kafka.Enabled {
		f.consumer = ingest.NewEventConsumer(cfg.Kafka, f.svc, f.hub, logger)
		f.publisher = ingest.NewCampaignPublisher(cfg.Kafka, logger)
		f.svc.SetCampaignSink(f.publisher)
	}

	util.Info("Factory initialized successfully",
		util.String("environment", cfg.Environment),
		util.Int("max_history", cfg.Engine.MaxHistory),
		util.Bool("generator_enabled", cfg.Generator.Enabled),
		util.Bool("kafka_enabled", cfg.Kafka.Enabled),
	)

	return f, nil
}

func (f *Factory) Config() *config.Config {
	return f.config
}

func (f *Factory) Service() *service.ThreatService {
	return f.svc
}

func (f *Factory) Hub() *ws.Hub {
	return f.hub
}

// Generator returns the synthetic producer, or nil when disabled.
func (f *Factory) Generator() *generator.Generator {
	return f.generator
}

// EventConsumer returns the kafka feed, or nil when kafka is disabled.
func (f *Factory) EventConsumer() *ingest.EventConsumer {
	return f.consumer
}

func (f *Factory) Close() error {
	f.closeOnce.Do(func() {
		util.Info("Shutting down factory...")

		if f.consumer != nil {
			if err := f.consumer.Close(); err != nil {
				util.Error("Failed to close kafka consumer", util.ErrorField(err))
			}
		}
		if f.publisher != nil {
			if err := f.publisher.Close(); err != nil {
				util.Error("Failed to close kafka publisher", util.ErrorField(err))
			}
		}

		util.Sync()
		util.Info("Factory shutdown completed")
	})
	return nil
}
