package analytics

import (
	"sort"
	"sync"
	"time"

	"threat-intel-service/internal/bucketing"
	"threat-intel-service/internal/model"
)

const (
	// DefaultBotThreshold flags an IP once it exceeds this many requests
	// inside the sliding window.
	DefaultBotThreshold = 100
	// DefaultBotWindow is the sliding window over which requests count.
	DefaultBotWindow = time.Minute
	// DefaultMaxTrackedIPs bounds the tracked IP set; the oldest tracked IP
	// is evicted first once the bound is reached.
	DefaultMaxTrackedIPs = 10000
)

// RequestTracker watches per-IP request cadence and flags bots. State is
// split across murmur3-assigned shards with independent locks, and each
// shard FIFO-evicts its oldest tracked IP once full, so memory stays bounded
// under long-running ingestion.
type RequestTracker struct {
	sharder   *bucketing.Sharder
	shards    []*trackerShard
	window    time.Duration
	threshold int
	now       func() time.Time
}

type trackerShard struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	paths    map[string]int
	bots     map[string]bool
	order    []string
	maxIPs   int
}

// NewRequestTracker creates a tracker over the given shard count; zero
// values fall back to the package defaults.
func NewRequestTracker(shards, threshold, maxTrackedIPs int, window time.Duration) *RequestTracker {
	sharder := bucketing.NewSharder(shards)
	if threshold <= 0 {
		threshold = DefaultBotThreshold
	}
	if maxTrackedIPs <= 0 {
		maxTrackedIPs = DefaultMaxTrackedIPs
	}
	if window <= 0 {
		window = DefaultBotWindow
	}

	perShard := maxTrackedIPs / sharder.Shards()
	if perShard < 1 {
		perShard = 1
	}

	t := &RequestTracker{
		sharder:   sharder,
		shards:    make([]*trackerShard, sharder.Shards()),
		window:    window,
		threshold: threshold,
		now:       time.Now,
	}
	for i := range t.shards {
		t.shards[i] = &trackerShard{
			requests: make(map[string][]time.Time),
			paths:    make(map[string]int),
			bots:     make(map[string]bool),
			maxIPs:   perShard,
		}
	}
	return t
}

// Track records one request from ip and returns whether the IP is currently
// flagged as a bot.
func (t *RequestTracker) Track(ip, path string, statusCode int) bool {
	now := t.now()
	shard := t.shardFor(ip)

	shard.mu.Lock()
	defer shard.mu.Unlock()

	if _, tracked := shard.requests[ip]; !tracked {
		shard.evictOldestLocked()
		shard.order = append(shard.order, ip)
	}

	recent := pruneBefore(shard.requests[ip], now.Add(-t.window))
	recent = append(recent, now)
	shard.requests[ip] = recent
	shard.paths[ip]++

	if len(recent) > t.threshold {
		shard.bots[ip] = true
	}
	return shard.bots[ip]
}

// Window returns the sliding window the tracker counts requests over.
func (t *RequestTracker) Window() time.Duration {
	return t.window
}

// IsBot reports whether ip has been flagged.
func (t *RequestTracker) IsBot(ip string) bool {
	shard := t.shardFor(ip)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	return shard.bots[ip]
}

// BotCount returns the number of currently flagged IPs.
func (t *RequestTracker) BotCount() int {
	count := 0
	for _, shard := range t.shards {
		shard.mu.Lock()
		count += len(shard.bots)
		shard.mu.Unlock()
	}
	return count
}

// Report summarizes flagged IPs with their recent request volume.
func (t *RequestTracker) Report() model.BotReport {
	var details []model.BotDetail
	tracked := 0

	for _, shard := range t.shards {
		shard.mu.Lock()
		tracked += len(shard.requests)
		for ip := range shard.bots {
			details = append(details, model.BotDetail{
				IP:            ip,
				TotalRequests: len(shard.requests[ip]),
				PathsVisited:  shard.paths[ip],
			})
		}
		shard.mu.Unlock()
	}
	sort.Slice(details, func(i, j int) bool { return details[i].IP < details[j].IP })

	report := model.BotReport{
		TotalBots: len(details),
		Bots:      details,
	}
	if tracked > 0 {
		report.BotPercentage = percentage(len(details), tracked)
	}
	return report
}

func (t *RequestTracker) shardFor(ip string) *trackerShard {
	return t.shards[t.sharder.Bucket(ip)]
}

// evictOldestLocked drops the oldest tracked IP if the shard is full.
func (s *trackerShard) evictOldestLocked() {
	if len(s.order) < s.maxIPs {
		return
	}
	oldest := s.order[0]
	s.order = s.order[1:]
	delete(s.requests, oldest)
	delete(s.paths, oldest)
	delete(s.bots, oldest)
}

func pruneBefore(timestamps []time.Time, cutoff time.Time) []time.Time {
	kept := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}
