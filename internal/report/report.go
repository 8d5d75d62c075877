// Package report converts tracker results into a serializable Summary for
// cmd/pressuretrace and internal/pressuresvc, encodes it, and provides a
// Cache of Summaries keyed by a content digest. What gets digested and
// whether the cache is consulted is up to the caller; internal/runner and
// internal/pressuresvc do not use the cache.
//
// Encoding uses segmentio/encoding/json rather than the standard library's
// encoding/json. Cache keys use golang.org/x/crypto/blake2b, generalizing the
// teacher's pluggable streaming-hash pattern (internal/runtime/native_crypto.go)
// from its stdlib algorithm set to a fast cryptographic digest used here as
// an in-memory cache key.
package report

import (
	"fmt"
	"sync"

	json "github.com/segmentio/encoding/json"
	"golang.org/x/crypto/blake2b"

	"github.com/tangzhangming/regpressure/internal/mir"
	"github.com/tangzhangming/regpressure/internal/pressure"
)

// Summary is the serializable form of a pressure.Result: plain slices in
// place of the tracker's internal Vector/RegisterID types, stable across
// regpressure versions.
type Summary struct {
	Variant     string  `json:"variant"`
	MaxPressure []uint  `json:"maxPressure"`
	LiveIn      []int32 `json:"liveIn"`
	LiveOut     []int32 `json:"liveOut"`
}

// Summarize converts a tracker result into its serializable Summary.
func Summarize(result *pressure.Result) *Summary {
	variant := "region"
	if result.Variant == pressure.VariantInterval {
		variant = "interval"
	}
	return &Summary{
		Variant:     variant,
		MaxPressure: append([]uint(nil), result.MaxPressure...),
		LiveIn:      regIDs(result.LiveInRegs),
		LiveOut:     regIDs(result.LiveOutRegs),
	}
}

func regIDs(regs []mir.RegisterID) []int32 {
	out := make([]int32, len(regs))
	for i, r := range regs {
		out[i] = int32(r)
	}
	return out
}

// Encode renders s as pretty-printed JSON.
func Encode(s *Summary) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Digest fingerprints an instruction bundle's mirtext-format serialization
// (or any other byte representation a caller chooses) for use as a cache
// key.
func Digest(data []byte) [blake2b.Size256]byte {
	return blake2b.Sum256(data)
}

// Cache memoizes Summaries by content digest. It is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[[blake2b.Size256]byte]*Summary
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[[blake2b.Size256]byte]*Summary)}
}

// Get returns the cached Summary for digest, if any.
func (c *Cache) Get(digest [blake2b.Size256]byte) (*Summary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.entries[digest]
	return s, ok
}

// Put records s under digest, overwriting any previous entry.
func (c *Cache) Put(digest [blake2b.Size256]byte, s *Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[digest] = s
}

// Key is a convenience formatting of a digest for logging.
func Key(digest [blake2b.Size256]byte) string {
	return fmt.Sprintf("%x", digest[:8])
}
