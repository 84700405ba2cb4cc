package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"threat-intel-service/internal/analytics"
	"threat-intel-service/internal/engine"
	"threat-intel-service/internal/model"
)

func newTestService(t *testing.T) *ThreatService {
	t.Helper()

	store := engine.NewEventStore(100)
	registry := engine.NewCampaignRegistry()
	detector := engine.NewDetector(store, registry, engine.DefaultClusterEps, zap.NewNop())
	tracker := analytics.NewTracker()
	requests := analytics.NewRequestTracker(1, 5, 100, time.Minute)

	return NewThreatService(store, registry, detector, tracker, requests, 3, 5, zap.NewNop())
}

func validEvent(id string, minute int) model.AttackEvent {
	return model.AttackEvent{
		ID:            id,
		AttackType:    "DDoS",
		SourceCountry: "Russia",
		TargetCountry: "United States",
		SourceLat:     61.52,
		SourceLng:     105.31,
		Intensity:     9,
		Timestamp:     time.Date(2024, 1, 15, 10, minute, 0, 0, time.UTC).Format(time.RFC3339),
	}
}

type captureSink struct {
	published [][]model.Campaign
	err       error
}

func (c *captureSink) PublishCampaigns(_ context.Context, campaigns []model.Campaign) error {
	c.published = append(c.published, campaigns)
	return c.err
}

func TestIngestValidEvent(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, svc.Ingest(validEvent("attack_1", 0)))
	assert.Equal(t, 1, svc.EventCount())

	geo := svc.GeoDistribution()
	require.Len(t, geo.Countries, 1)
	assert.Equal(t, "Russia", geo.Countries[0].Country)
}

func TestIngestRejectsMalformedEvent(t *testing.T) {
	svc := newTestService(t)

	ev := validEvent("attack_1", 0)
	ev.Timestamp = "not-a-time"

	err := svc.Ingest(ev)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrMalformedEvent)
	assert.Equal(t, 0, svc.EventCount())
}

func TestRunDetectionAndLookups(t *testing.T) {
	svc := newTestService(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Ingest(validEvent(fmt.Sprintf("attack_%d", i), i*10)))
	}

	campaigns, err := svc.RunDetection(context.Background())
	require.NoError(t, err)
	require.Len(t, campaigns, 1)

	got, err := svc.GetCampaign(campaigns[0].CampaignID)
	require.NoError(t, err)
	assert.Equal(t, campaigns[0].CampaignID, got.CampaignID)

	list := svc.ListCampaigns()
	require.Len(t, list, 1)

	id, err := svc.CampaignForEvent("attack_0")
	require.NoError(t, err)
	assert.Equal(t, campaigns[0].CampaignID, id)
}

func TestGetCampaignNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetCampaign("CAMPAIGN_0042")
	assert.ErrorIs(t, err, ErrCampaignNotFound)

	_, err = svc.CampaignForEvent("attack_unknown")
	assert.ErrorIs(t, err, ErrEventNotAssigned)
}

func TestRunDetectionPublishesToSink(t *testing.T) {
	svc := newTestService(t)
	sink := &captureSink{}
	svc.SetCampaignSink(sink)

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Ingest(validEvent(fmt.Sprintf("attack_%d", i), i*10)))
	}

	campaigns, err := svc.RunDetection(context.Background())
	require.NoError(t, err)
	require.Len(t, campaigns, 1)

	require.Len(t, sink.published, 1)
	assert.Equal(t, campaigns[0].CampaignID, sink.published[0][0].CampaignID)
}

func TestRunDetectionSinkFailureIsNotPropagated(t *testing.T) {
	svc := newTestService(t)
	svc.SetCampaignSink(&captureSink{err: errors.New("broker down")})

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Ingest(validEvent(fmt.Sprintf("attack_%d", i), i*10)))
	}

	campaigns, err := svc.RunDetection(context.Background())
	require.NoError(t, err)
	assert.Len(t, campaigns, 1)
}

func TestTrackRequestFlagsBots(t *testing.T) {
	svc := newTestService(t)

	for i := 0; i < 5; i++ {
		assert.False(t, svc.TrackRequest("10.0.0.1", "/api/campaigns", 200))
	}
	assert.True(t, svc.TrackRequest("10.0.0.1", "/api/campaigns", 200))
	assert.True(t, svc.IsBot("10.0.0.1"))
	assert.Equal(t, 1, svc.BotReport().TotalBots)

	codes := svc.StatusCodes()
	assert.Equal(t, 6, codes.TotalRequests)
}

func TestHealth(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.Ingest(validEvent("attack_1", 0)))

	health := svc.Health(3)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 3, health.ActiveConnections)
	assert.Equal(t, 1, health.TotalAttacks)
	assert.Equal(t, 0, health.DetectedBots)
	assert.Equal(t, 0, health.CampaignsDetected)
	assert.NotEmpty(t, health.Timestamp)
}
