package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"threat-intel-service/internal/analytics"
	"threat-intel-service/internal/engine"
	"threat-intel-service/internal/model"
	"threat-intel-service/internal/util"
)

var (
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrEventNotAssigned = errors.New("event is not assigned to any campaign")
)

// CampaignSink receives newly registered campaigns for downstream
// consumers (e.g. a message broker). Publishing is best-effort.
type CampaignSink interface {
	PublishCampaigns(ctx context.Context, campaigns []model.Campaign) error
}

// ThreatService is the core boundary: it validates and ingests attack
// events, orchestrates detection runs and exposes read accessors for the
// presentation layer.
type ThreatService struct {
	store                 *engine.EventStore
	registry              *engine.CampaignRegistry
	detector              *engine.Detector
	tracker               *analytics.Tracker
	requests              *analytics.RequestTracker
	minClusterSize        int
	minEventsForDetection int
	sink                  CampaignSink
	logger                *zap.Logger
}

// NewThreatService wires the service to the engine and analytics state.
func NewThreatService(
	store *engine.EventStore,
	registry *engine.CampaignRegistry,
	detector *engine.Detector,
	tracker *analytics.Tracker,
	requests *analytics.RequestTracker,
	minClusterSize int,
	minEventsForDetection int,
	logger *zap.Logger,
) *ThreatService {
	if minClusterSize <= 0 {
		minClusterSize = engine.DefaultMinClusterSize
	}
	return &ThreatService{
		store:                 store,
		registry:              registry,
		detector:              detector,
		tracker:               tracker,
		requests:              requests,
		minClusterSize:        minClusterSize,
		minEventsForDetection: minEventsForDetection,
		logger:                logger,
	}
}

// SetCampaignSink attaches an optional downstream publisher for newly
// detected campaigns.
func (s *ThreatService) SetCampaignSink(sink CampaignSink) {
	s.sink = sink
}

// Ingest validates one attack event and appends it to the rolling window.
// Malformed events are rejected and never enter the store.
func (s *ThreatService) Ingest(ev model.AttackEvent) error {
	if err := engine.ValidateEvent(ev); err != nil {
		s.logger.Warn("rejected malformed attack event",
			util.String("event_id", ev.ID),
			util.ErrorField(err),
		)
		return err
	}

	s.store.Append(ev)
	s.tracker.RecordAttack(ev.SourceCountry, ev.AttackType)
	return nil
}

// RunDetection executes one detect→attribute→register cycle and returns the
// newly created campaigns. Newly registered campaigns are forwarded to the
// campaign sink when one is attached; publish failures are logged, not
// propagated.
func (s *ThreatService) RunDetection(ctx context.Context) ([]model.Campaign, error) {
	campaigns, err := s.detector.RunDetection(s.minClusterSize)
	if err != nil {
		return nil, err
	}

	if s.sink != nil && len(campaigns) > 0 {
		if err := s.sink.PublishCampaigns(ctx, campaigns); err != nil {
			s.logger.Error("failed to publish campaigns",
				util.Int("campaign_count", len(campaigns)),
				util.ErrorField(err),
			)
		}
	}
	return campaigns, nil
}

// EventCount returns the number of buffered events.
func (s *ThreatService) EventCount() int {
	return s.store.Len()
}

// MinEventsForDetection is the warm-up threshold before detection runs.
func (s *ThreatService) MinEventsForDetection() int {
	return s.minEventsForDetection
}

// GetCampaign returns one registered campaign by id.
func (s *ThreatService) GetCampaign(campaignID string) (model.Campaign, error) {
	campaign, ok := s.registry.Get(campaignID)
	if !ok {
		return model.Campaign{}, ErrCampaignNotFound
	}
	return campaign, nil
}

// ListCampaigns returns all registered campaigns in creation order.
func (s *ThreatService) ListCampaigns() []model.Campaign {
	return s.registry.List()
}

// CampaignForEvent returns the campaign id the event was last assigned to.
func (s *ThreatService) CampaignForEvent(eventID string) (string, error) {
	id, ok := s.registry.CampaignOf(eventID)
	if !ok {
		return "", ErrEventNotAssigned
	}
	return id, nil
}

// TrackRequest records one request from ip for the traffic analytics and
// bot detector, returning the IP's current bot flag.
func (s *ThreatService) TrackRequest(ip, path string, statusCode int) bool {
	s.tracker.RecordRequest(time.Now().Hour(), statusCode)
	return s.requests.Track(ip, path, statusCode)
}

// IsBot reports the current bot-detection state for ip.
func (s *ThreatService) IsBot(ip string) bool {
	return s.requests.IsBot(ip)
}

// BotReport summarizes flagged source IPs.
func (s *ThreatService) BotReport() model.BotReport {
	return s.requests.Report()
}

// PeakHours reports the hourly traffic distribution.
func (s *ThreatService) PeakHours() model.PeakHoursReport {
	return s.tracker.PeakHours()
}

// StatusCodes reports the response status-code distribution.
func (s *ThreatService) StatusCodes() model.StatusCodeReport {
	return s.tracker.StatusCodes()
}

// GeoDistribution reports source-country and attack-type distributions.
func (s *ThreatService) GeoDistribution() model.GeoDistributionReport {
	return s.tracker.GeoDistribution()
}

// Health assembles the health payload for the given observer count.
func (s *ThreatService) Health(activeConnections int) model.HealthStatus {
	return model.HealthStatus{
		Status:            "healthy",
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
		ActiveConnections: activeConnections,
		TotalAttacks:      s.store.Len(),
		DetectedBots:      s.requests.BotCount(),
		CampaignsDetected: s.registry.Count(),
	}
}
