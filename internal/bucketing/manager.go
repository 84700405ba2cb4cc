package bucketing

import (
	"hash"
	"sync"

	"github.com/spaolacci/murmur3"
)

// DefaultShards is used when no shard count is configured.
const DefaultShards = 16

// Sharder assigns string keys (source IPs, event ids) to a fixed number of
// buckets with murmur3, so hot per-key state can be split across
// independently locked shards. Assignment is consistent for the process
// lifetime.
type Sharder struct {
	shards     int
	hasherPool sync.Pool
}

// NewSharder creates a sharder over the given bucket count.
func NewSharder(shards int) *Sharder {
	if shards <= 0 {
		shards = DefaultShards
	}
	s := &Sharder{shards: shards}

	// Pool of hash functions to avoid allocation overhead on the hot path.
	s.hasherPool = sync.Pool{
		New: func() interface{} {
			return murmur3.New64()
		},
	}
	return s
}

// Bucket returns the consistent bucket for key (0 to Shards()-1).
func (s *Sharder) Bucket(key string) int {
	return int(s.hash(key) % uint64(s.shards))
}

// Shards returns the configured bucket count.
func (s *Sharder) Shards() int {
	return s.shards
}

func (s *Sharder) hash(key string) uint64 {
	hasher := s.hasherPool.Get().(hash.Hash64)
	defer s.hasherPool.Put(hasher)

	hasher.Reset()
	hasher.Write([]byte(key))
	return hasher.Sum64()
}
