package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestTrackerFlagsBots(t *testing.T) {
	tr := NewRequestTracker(1, 5, 10, time.Minute)

	for i := 0; i < 5; i++ {
		assert.False(t, tr.Track("10.0.0.1", "/api/campaigns", 200))
	}
	// The sixth request inside the window crosses the threshold.
	assert.True(t, tr.Track("10.0.0.1", "/api/campaigns", 200))
	assert.True(t, tr.IsBot("10.0.0.1"))
	assert.Equal(t, 1, tr.BotCount())

	tr.Track("10.0.0.2", "/health", 200)
	assert.False(t, tr.IsBot("10.0.0.2"))
}

func TestRequestTrackerSlidingWindow(t *testing.T) {
	tr := NewRequestTracker(1, 5, 10, time.Minute)

	current := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return current }

	for i := 0; i < 5; i++ {
		tr.Track("10.0.0.1", "/", 200)
	}

	// Old requests fall out of the window, so the next one counts from 1.
	current = current.Add(2 * time.Minute)
	assert.False(t, tr.Track("10.0.0.1", "/", 200))
	assert.False(t, tr.IsBot("10.0.0.1"))
}

func TestRequestTrackerFIFOEviction(t *testing.T) {
	tr := NewRequestTracker(1, 2, 2, time.Minute)

	tr.Track("10.0.0.1", "/", 200)
	tr.Track("10.0.0.1", "/", 200)
	assert.True(t, tr.Track("10.0.0.1", "/", 200))

	// Two fresh IPs fill the shard and push the flagged one out.
	tr.Track("10.0.0.2", "/", 200)
	tr.Track("10.0.0.3", "/", 200)

	assert.False(t, tr.IsBot("10.0.0.1"))
	assert.Equal(t, 0, tr.BotCount())
}

func TestRequestTrackerReport(t *testing.T) {
	tr := NewRequestTracker(1, 2, 100, time.Minute)

	for i := 0; i < 3; i++ {
		tr.Track("10.0.0.9", "/api/campaigns", 200)
	}
	tr.Track("10.0.0.1", "/health", 200)

	report := tr.Report()
	assert.Equal(t, 1, report.TotalBots)
	require.Len(t, report.Bots, 1)
	assert.Equal(t, "10.0.0.9", report.Bots[0].IP)
	assert.Equal(t, 3, report.Bots[0].TotalRequests)
	assert.Equal(t, 3, report.Bots[0].PathsVisited)
	// 1 bot of 2 tracked IPs.
	assert.Equal(t, 50.0, report.BotPercentage)
}

func TestRequestTrackerShardedConsistency(t *testing.T) {
	tr := NewRequestTracker(8, 3, 1000, time.Minute)

	for i := 0; i < 50; i++ {
		ip := fmt.Sprintf("192.168.1.%d", i)
		for j := 0; j < 4; j++ {
			tr.Track(ip, "/", 200)
		}
	}

	assert.Equal(t, 50, tr.BotCount())
	assert.Len(t, tr.Report().Bots, 50)
}
