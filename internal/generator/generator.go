package generator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"threat-intel-service/internal/model"
	"threat-intel-service/internal/service"
	"threat-intel-service/internal/util"
	"threat-intel-service/internal/ws"
)

// coordinate is a region's reference point; generated events jitter around it.
type coordinate struct {
	Lat float64
	Lng float64
}

type region struct {
	Name   string
	Coords coordinate
}

// Fixed region table with reference coordinates, matching the feature
// extractor's country enumeration.
var regions = []region{
	{"United States", coordinate{39.8283, -98.5795}},
	{"China", coordinate{35.8617, 104.1954}},
	{"Russia", coordinate{61.5240, 105.3188}},
	{"Germany", coordinate{51.1657, 10.4515}},
	{"United Kingdom", coordinate{55.3781, -3.4360}},
	{"France", coordinate{46.6034, 1.8883}},
	{"Japan", coordinate{36.2048, 138.2529}},
	{"Brazil", coordinate{-14.2350, -51.9253}},
	{"India", coordinate{20.5937, 78.9629}},
	{"South Korea", coordinate{35.9078, 127.7669}},
	{"Canada", coordinate{56.1304, -106.3468}},
	{"Australia", coordinate{-25.2744, 133.7751}},
	{"Netherlands", coordinate{52.1326, 5.2913}},
	{"Poland", coordinate{51.9194, 19.1451}},
	{"Sweden", coordinate{60.1282, 18.6435}},
}

var attackTypes = []string{
	"DDoS", "Botnet", "Ransomware", "Malware",
	"Phishing", "SQL Injection", "XSS", "Brute Force",
}

var statusCodes = []int{200, 301, 404, 500, 403, 503}

// Generator produces synthetic attack telemetry. It is strictly an external
// collaborator of the detection engine: generated events go through the same
// ingestion path as any real feed.
type Generator struct {
	svc         *service.ThreatService
	hub         *ws.Hub
	minInterval time.Duration
	maxInterval time.Duration
	logger      *zap.Logger
}

// New creates a generator emitting on the given interval range.
func New(svc *service.ThreatService, hub *ws.Hub, minInterval, maxInterval time.Duration, logger *zap.Logger) *Generator {
	if minInterval <= 0 {
		minInterval = 2 * time.Second
	}
	if maxInterval < minInterval {
		maxInterval = minInterval + 3*time.Second
	}
	return &Generator{
		svc:         svc,
		hub:         hub,
		minInterval: minInterval,
		maxInterval: maxInterval,
		logger:      logger,
	}
}

// Run emits attacks at random intervals while observers are connected,
// until ctx is canceled.
func (g *Generator) Run(ctx context.Context) {
	g.logger.Info("attack generator running",
		util.Duration("min_interval", g.minInterval),
		util.Duration("max_interval", g.maxInterval),
	)
	for {
		sleep := g.minInterval + rand.N(g.maxInterval-g.minInterval)
		select {
		case <-ctx.Done():
			g.logger.Info("attack generator stopped")
			return
		case <-time.After(sleep):
		}

		if g.hub.ClientCount() == 0 {
			continue
		}
		ev := g.Emit()
		g.hub.Broadcast(ws.MessageTypeAttack, ev)
	}
}

// Emit generates one attack, records its request in the traffic analytics,
// ingests it and returns it.
func (g *Generator) Emit() model.AttackEvent {
	source := regions[rand.IntN(len(regions))]
	target := regions[rand.IntN(len(regions))]
	for target.Name == source.Name {
		target = regions[rand.IntN(len(regions))]
	}

	sourceIP := fmt.Sprintf("%d.%d.%d.%d",
		rand.IntN(255)+1, rand.IntN(255)+1, rand.IntN(255)+1, rand.IntN(255)+1)
	attackType := attackTypes[rand.IntN(len(attackTypes))]
	statusCode := statusCodes[rand.IntN(len(statusCodes))]

	// Track first so the bot flag reflects this request.
	path := "/" + strings.ToLower(attackType)
	isBot := g.svc.TrackRequest(sourceIP, path, statusCode)

	ev := model.AttackEvent{
		ID:            fmt.Sprintf("attack_%s", uuid.NewString()),
		AttackType:    attackType,
		SourceCountry: source.Name,
		TargetCountry: target.Name,
		SourceIP:      sourceIP,
		SourceLat:     jitter(source.Coords.Lat),
		SourceLng:     jitter(source.Coords.Lng),
		TargetLat:     jitter(target.Coords.Lat),
		TargetLng:     jitter(target.Coords.Lng),
		Intensity:     rand.IntN(10) + 1,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		StatusCode:    statusCode,
		IsBot:         isBot,
	}

	if err := g.svc.Ingest(ev); err != nil {
		g.logger.Error("failed to ingest generated attack", util.ErrorField(err))
	}
	return ev
}

// jitter offsets a reference coordinate by up to ±2 degrees.
func jitter(v float64) float64 {
	return v + (rand.Float64()*4 - 2)
}
