package dtm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"

	"github.com/adalundhe/patina/core/events"
	"github.com/adalundhe/patina/core/taste"
)

// Builder cache sizing. DTMs are small JSON documents; the cost of an entry
// is its serialized byte length.
const (
	cacheNumCounters = 1 << 14
	cacheMaxCost     = 32 << 20
	cacheBufferItems = 64
)

// Builder turns a set of DTRs into a DTM: merge, deterministic conflict
// resolution, LLM synthesis. Builds are cached by the sorted fingerprint set,
// so rebuilding from unchanged DTRs returns a byte-identical model without a
// provider call.
type Builder struct {
	synth  *Synthesizer
	cache  *ristretto.Cache
	bus    *events.Bus
	logger *slog.Logger
}

// NewBuilder creates a Builder. A nil bus disables progress events.
func NewBuilder(synth *Synthesizer, bus *events.Bus, logger *slog.Logger) (*Builder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cacheNumCounters,
		MaxCost:     cacheMaxCost,
		BufferItems: cacheBufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("creating dtm cache: %w", err)
	}
	return &Builder{synth: synth, cache: cache, bus: bus, logger: logger}, nil
}

// Build synthesizes a DTM from one or more DTRs. A cache hit replays the
// earlier build verbatim, same ID and timestamps included.
func (b *Builder) Build(ctx context.Context, dtrs []*taste.DTR) (*taste.DTM, error) {
	if len(dtrs) == 0 {
		return nil, fmt.Errorf("building dtm: no resources")
	}
	for _, d := range dtrs {
		if err := taste.ValidateDTR(d); err != nil {
			return nil, fmt.Errorf("building dtm: resource %q: %w", d.Resource.Name, err)
		}
	}

	fps := FingerprintSet(dtrs)
	key := cacheKey(fps)

	if cached, ok := b.cache.Get(key); ok {
		if m, err := decodeCached(cached); err == nil {
			b.emit(events.SynthesisCacheHit, m.ID)
			b.logger.Debug("dtm cache hit", "id", m.ID, "resources", len(dtrs))
			return m, nil
		}
	}

	b.emit(events.SynthesisStarted, "")
	start := time.Now()

	consensus, conflicts := Merge(dtrs)
	ResolveConflicts(conflicts, consensus, dtrs)

	m := &taste.DTM{
		ID:            "dtm_" + strings.Split(uuid.NewString(), "-")[0],
		SchemaVersion: taste.SchemaVersion,
		Fingerprints:  fps,
		Consensus:     consensus,
		Conflicts:     conflicts,
		CreatedAt:     time.Now().UTC(),
	}

	b.synth.Synthesize(ctx, m, dtrs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := taste.ValidateDTM(m); err != nil {
		return nil, fmt.Errorf("building dtm: %w", err)
	}

	encoded, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding dtm: %w", err)
	}
	b.cache.Set(key, encoded, int64(len(encoded)))
	b.cache.Wait()

	b.emit(events.SynthesisComplete, m.ID)
	b.logger.Info("dtm built",
		"id", m.ID,
		"resources", len(dtrs),
		"axes", len(m.Consensus),
		"conflicts", len(m.Conflicts),
		"duration", time.Since(start),
	)
	return m, nil
}

// Close releases the cache.
func (b *Builder) Close() {
	b.cache.Close()
}

func (b *Builder) emit(t events.Type, resource string) {
	if b.bus != nil {
		b.bus.Emit(t, resource, "")
	}
}

// cacheKey hashes the sorted fingerprint set together with the synthesis
// prompt version: a prompt change invalidates every cached model.
func cacheKey(fps []string) string {
	h := sha256.Sum256([]byte(strings.Join(fps, ",") + "|" + SynthPromptVersion))
	return hex.EncodeToString(h[:])
}

func decodeCached(v any) (*taste.DTM, error) {
	encoded, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected cache entry type %T", v)
	}
	var m taste.DTM
	if err := json.Unmarshal(encoded, &m); err != nil {
		return nil, err
	}
	// The fingerprint slice survives the round trip sorted; keep the
	// invariant explicit for downstream comparisons.
	sort.Strings(m.Fingerprints)
	return &m, nil
}
