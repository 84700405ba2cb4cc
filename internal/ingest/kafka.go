package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"threat-intel-service/internal/config"
	"threat-intel-service/internal/engine"
	"threat-intel-service/internal/model"
	"threat-intel-service/internal/service"
	"threat-intel-service/internal/util"
	"threat-intel-service/internal/ws"
)

// EventConsumer feeds real attack telemetry from a kafka topic through the
// same ingestion path as the synthetic generator. The engine treats both
// origins uniformly.
type EventConsumer struct {
	reader *kafka.Reader
	svc    *service.ThreatService
	hub    *ws.Hub
	logger *zap.Logger
}

// NewEventConsumer creates a consumer for the configured event topic.
func NewEventConsumer(cfg config.KafkaConfig, svc *service.ThreatService, hub *ws.Hub, logger *zap.Logger) *EventConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.EventTopic,
		GroupID:        cfg.GroupID,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
		MaxWait:        5 * time.Second,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: 1 * time.Second,
	})

	logger.Info("kafka event consumer initialized",
		zap.Strings("brokers", cfg.Brokers),
		util.String("topic", cfg.EventTopic),
		util.String("group_id", cfg.GroupID),
	)

	return &EventConsumer{
		reader: reader,
		svc:    svc,
		hub:    hub,
		logger: logger,
	}
}

// Run consumes events until ctx is canceled. Malformed events are rejected
// and skipped; read errors other than cancellation are returned.
func (c *EventConsumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("failed to read kafka message: %w", err)
		}

		var ev model.AttackEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			c.logger.Warn("dropping undecodable attack event",
				zap.ByteString("key", msg.Key),
				util.ErrorField(err),
			)
			continue
		}

		if ev.SourceIP != "" {
			c.svc.TrackRequest(ev.SourceIP, "/"+strings.ToLower(ev.AttackType), ev.StatusCode)
		}
		if err := c.svc.Ingest(ev); err != nil {
			if errors.Is(err, engine.ErrMalformedEvent) {
				continue
			}
			return err
		}
		c.hub.Broadcast(ws.MessageTypeAttack, ev)
	}
}

// Close shuts the consumer down.
func (c *EventConsumer) Close() error {
	if c.reader != nil {
		if err := c.reader.Close(); err != nil {
			c.logger.Error("failed to close kafka consumer", util.ErrorField(err))
			return err
		}
		c.logger.Info("kafka consumer closed")
	}
	return nil
}

// CampaignPublisher forwards newly registered campaigns to a kafka topic
// for downstream consumers. It implements service.CampaignSink.
type CampaignPublisher struct {
	writer *kafka.Writer
	topic  string
	logger *zap.Logger
}

// NewCampaignPublisher creates a publisher for the configured campaign topic.
func NewCampaignPublisher(cfg config.KafkaConfig, logger *zap.Logger) *CampaignPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		MaxAttempts:  3,
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("failed to write kafka messages",
					zap.Error(err),
					zap.Int("message_count", len(messages)),
				)
			}
		},
	}

	logger.Info("kafka campaign publisher initialized",
		zap.Strings("brokers", cfg.Brokers),
		util.String("topic", cfg.CampaignTopic),
	)

	return &CampaignPublisher{
		writer: writer,
		topic:  cfg.CampaignTopic,
		logger: logger,
	}
}

// PublishCampaigns writes one message per campaign, keyed by campaign id.
func (p *CampaignPublisher) PublishCampaigns(ctx context.Context, campaigns []model.Campaign) error {
	msgs := make([]kafka.Message, 0, len(campaigns))
	for _, campaign := range campaigns {
		value, err := json.Marshal(campaign)
		if err != nil {
			return fmt.Errorf("failed to marshal campaign %s: %w", campaign.CampaignID, err)
		}
		msgs = append(msgs, kafka.Message{
			Topic: p.topic,
			Key:   []byte(campaign.CampaignID),
			Value: value,
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to write campaign messages: %w", err)
	}
	p.logger.Debug("published campaigns", util.Int("count", len(msgs)))
	return nil
}

// Close shuts the publisher down.
func (p *CampaignPublisher) Close() error {
	if p.writer != nil {
		if err := p.writer.Close(); err != nil {
			p.logger.Error("failed to close kafka producer", util.ErrorField(err))
			return err
		}
		p.logger.Info("kafka producer closed")
	}
	return nil
}
