package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gonum.org/v1/gonum/stat"

	"threat-intel-service/internal/model"
	"threat-intel-service/internal/util"
)

// DefaultMinClusterSize is the minimum campaign membership when no value is
// configured.
const DefaultMinClusterSize = 3

// Detector runs the full detect→attribute→register cycle over the event
// store. At most one detection run executes at a time: requests for the same
// cluster size are collapsed with singleflight and share the in-flight run's
// result, while runs for different sizes serialize on mu, so two runs can
// never interleave their registry writes.
type Detector struct {
	store     *EventStore
	registry  *CampaignRegistry
	clusterer clusterer
	logger    *zap.Logger
	group     singleflight.Group
	mu        sync.Mutex
}

// NewDetector wires the detector to its store and registry.
func NewDetector(store *EventStore, registry *CampaignRegistry, eps float64, logger *zap.Logger) *Detector {
	return &Detector{
		store:     store,
		registry:  registry,
		clusterer: newClusterer(eps),
		logger:    logger,
	}
}

// RunDetection executes one detection cycle from a consistent snapshot of
// the event window and returns the newly registered campaigns. Fewer
// buffered events than minClusterSize is a defined empty-result outcome,
// not an error.
func (d *Detector) RunDetection(minClusterSize int) ([]model.Campaign, error) {
	if minClusterSize <= 0 {
		minClusterSize = DefaultMinClusterSize
	}

	key := fmt.Sprintf("detect:%d", minClusterSize)
	v, err, shared := d.group.Do(key, func() (interface{}, error) {
		return d.runOnce(minClusterSize)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		d.logger.Debug("detection result shared with concurrent caller")
	}
	return v.([]model.Campaign), nil
}

func (d *Detector) runOnce(minClusterSize int) ([]model.Campaign, error) {
	// Singleflight only collapses runs sharing a key; runs with distinct
	// cluster sizes still need mutual exclusion.
	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	snapshot := d.store.Snapshot()

	clusters, err := d.clusterer.detect(snapshot, minClusterSize)
	if err != nil {
		return nil, fmt.Errorf("clustering failed: %w", err)
	}

	campaigns := make([]model.Campaign, 0, len(clusters))
	for _, memberIdx := range clusters {
		members := make([]model.AttackEvent, len(memberIdx))
		for i, idx := range memberIdx {
			members[i] = snapshot[idx]
		}

		campaign, err := d.buildCampaign(members)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, d.registry.Register(campaign))
	}

	d.logger.Info("detection run completed",
		util.Int("events_analyzed", len(snapshot)),
		util.Int("campaigns_detected", len(campaigns)),
		util.Duration("duration", time.Since(start)),
	)
	return campaigns, nil
}

// buildCampaign derives the frozen campaign summary from its member events.
func (d *Detector) buildCampaign(members []model.AttackEvent) (model.Campaign, error) {
	timestamps := make([]time.Time, len(members))
	for i, ev := range members {
		ts, err := parseTimestamp(ev)
		if err != nil {
			// Malformed events are rejected at ingestion, so this is an
			// internal invariant violation.
			return model.Campaign{}, fmt.Errorf("stored event %s: %w", ev.ID, err)
		}
		timestamps[i] = ts
	}

	sorted := append([]time.Time(nil), timestamps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	startTime := sorted[0]
	endTime := sorted[len(sorted)-1]

	avgInterval := 0.0
	if len(sorted) > 1 {
		diffs := make([]float64, len(sorted)-1)
		for i := 1; i < len(sorted); i++ {
			diffs[i-1] = sorted[i].Sub(sorted[i-1]).Minutes()
		}
		avgInterval = stat.Mean(diffs, nil)
	}

	attackIDs := make([]string, len(members))
	attackTypes := make(map[string]int)
	var signature []string
	countryCounts := make(map[string]int)
	var countryOrder []string
	for i, ev := range members {
		attackIDs[i] = ev.ID
		if _, seen := attackTypes[ev.AttackType]; !seen {
			signature = append(signature, ev.AttackType)
		}
		attackTypes[ev.AttackType]++
		if _, seen := countryCounts[ev.SourceCountry]; !seen {
			countryOrder = append(countryOrder, ev.SourceCountry)
		}
		countryCounts[ev.SourceCountry]++
	}

	// Ties break toward the first-encountered country.
	primaryCountry := ""
	best := 0
	for _, country := range countryOrder {
		if countryCounts[country] > best {
			best = countryCounts[country]
			primaryCountry = country
		}
	}

	attribution := attribute(signature, primaryCountry, avgInterval, len(members))
	d.logger.Debug("campaign attributed",
		util.String("actor", attribution.Actor),
		util.Float64("confidence", attribution.Confidence),
		util.Float64("weighted_score", attribution.WeightedScore),
		util.Int("num_attacks", len(members)),
	)

	return model.Campaign{
		StartTime:            startTime.Format(time.RFC3339),
		EndTime:              endTime.Format(time.RFC3339),
		DurationMinutes:      round2(endTime.Sub(startTime).Minutes()),
		NumAttacks:           len(members),
		AttackIDs:            attackIDs,
		PrimarySourceCountry: primaryCountry,
		AttackTypes:          attackTypes,
		Signature:            signature,
		AvgIntervalMinutes:   round2(avgInterval),
		AttributedActor:      attribution.Actor,
		Confidence:           attribution.Confidence,
		Sophistication:       attribution.Sophistication,
		SeverityScore:        severityScore(members),
	}, nil
}
