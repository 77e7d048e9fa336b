package dtm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xerrors "github.com/adalundhe/patina/core/errors"
	"github.com/adalundhe/patina/core/events"
	"github.com/adalundhe/patina/core/providers"
	"github.com/adalundhe/patina/core/taste"
)

const synthReply = `{
	"personality": "Dense, geometric, confident.",
	"narrative": "A taut, grid-driven system with restrained color.",
	"resolutions": [
		{"axis": "surface.corner_radius", "value": "8", "reason": "matches the dominant radius"}
	]
}`

func newTestBuilder(t *testing.T, mock *providers.MockProvider, bus *events.Bus) *Builder {
	t.Helper()
	synth := NewSynthesizer(mock, nil, nil)
	builder, err := NewBuilder(synth, bus, nil)
	require.NoError(t, err)
	t.Cleanup(builder.Close)
	return builder
}

func TestBuildProducesValidDTM(t *testing.T) {
	mock := providers.NewMockProvider(map[string]string{"THE TASTE SYNTHESIZER": synthReply})
	builder := newTestBuilder(t, mock, nil)

	dtrs := []*taste.DTR{
		fullDTR("checkout", "hash-a", nil),
		fullDTR("settings", "hash-b", nil),
	}
	m, err := builder.Build(context.Background(), dtrs)
	require.NoError(t, err)

	require.NoError(t, taste.ValidateDTM(m))
	assert.Equal(t, "Dense, geometric, confident.", m.Personality)
	assert.Equal(t, taste.SchemaVersion, m.SchemaVersion)
	assert.Equal(t, FingerprintSet(dtrs), m.Fingerprints)
	assert.Equal(t, "mock-model", m.SynthModel)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, 1, mock.CallCount())
}

func TestBuildCacheReturnsIdenticalModel(t *testing.T) {
	mock := providers.NewMockProvider(map[string]string{"THE TASTE SYNTHESIZER": synthReply})
	bus := events.NewBus()
	ch, cancel := bus.Subscribe(64)
	defer cancel()

	builder := newTestBuilder(t, mock, bus)

	a := fullDTR("checkout", "hash-a", nil)
	b := fullDTR("settings", "hash-b", nil)

	first, err := builder.Build(context.Background(), []*taste.DTR{a, b})
	require.NoError(t, err)

	// Same resources in a different order must replay the cached build.
	second, err := builder.Build(context.Background(), []*taste.DTR{b, a})
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, mock.CallCount())

	var cacheHits int
	for len(ch) > 0 {
		if ev := <-ch; ev.Type == events.SynthesisCacheHit {
			cacheHits++
		}
	}
	assert.Equal(t, 1, cacheHits)
}

func TestBuildChangedResourceMissesCache(t *testing.T) {
	mock := providers.NewMockProvider(map[string]string{"THE TASTE SYNTHESIZER": synthReply})
	builder := newTestBuilder(t, mock, nil)

	a := fullDTR("checkout", "hash-a", nil)
	_, err := builder.Build(context.Background(), []*taste.DTR{a})
	require.NoError(t, err)

	changed := fullDTR("checkout", "hash-a", func(d *taste.DTR) {
		d.Section(taste.SectionStructure).Axis("structure.density").Value = "sparse"
	})
	_, err = builder.Build(context.Background(), []*taste.DTR{changed})
	require.NoError(t, err)

	assert.Equal(t, 2, mock.CallCount())
}

func TestBuildRejectsInvalidDTR(t *testing.T) {
	mock := providers.NewMockProvider(map[string]string{"THE TASTE SYNTHESIZER": synthReply})
	builder := newTestBuilder(t, mock, nil)

	bad := fullDTR("checkout", "hash-a", func(d *taste.DTR) {
		delete(d.Sections, taste.SectionImagery)
	})
	_, err := builder.Build(context.Background(), []*taste.DTR{bad})
	assert.Error(t, err)
	assert.Zero(t, mock.CallCount())
}

func TestBuildRejectsEmptyInput(t *testing.T) {
	mock := providers.NewMockProvider(nil)
	builder := newTestBuilder(t, mock, nil)

	_, err := builder.Build(context.Background(), nil)
	assert.Error(t, err)
}

func TestSynthesizeAppliesLLMResolutions(t *testing.T) {
	mock := providers.NewMockProvider(map[string]string{"THE TASTE SYNTHESIZER": synthReply})
	builder := newTestBuilder(t, mock, nil)

	// Numeric conflict with no metrics backing lands on the LLM.
	a := fullDTR("checkout", "hash-a", func(d *taste.DTR) {
		d.Section(taste.SectionSurface).Axis("surface.corner_radius").Number = 8
	})
	b := fullDTR("settings", "hash-b", func(d *taste.DTR) {
		d.Section(taste.SectionSurface).Axis("surface.corner_radius").Number = 16
	})

	m, err := builder.Build(context.Background(), []*taste.DTR{a, b})
	require.NoError(t, err)

	conflict := conflictByAxis(m.Conflicts, "surface.corner_radius")
	require.NotNil(t, conflict)
	assert.Equal(t, ResolvedByLLM, conflict.ResolvedBy)
	assert.Equal(t, "8", conflict.Resolution)
}

func TestSynthesizeDegradesToConsensusFallback(t *testing.T) {
	mock := providers.NewMockProvider(nil)
	mock.Err = xerrors.Newf(xerrors.TierPermanent, "model not found")
	builder := newTestBuilder(t, mock, nil)

	dtrs := []*taste.DTR{fullDTR("checkout", "hash-a", nil)}
	m, err := builder.Build(context.Background(), dtrs)
	require.NoError(t, err)

	require.NoError(t, taste.ValidateDTM(m))
	// Fallback personality comes from the personality consensus axes.
	assert.Equal(t, "serious", m.Personality)
	assert.Equal(t, "Dense and confident.", m.Narrative)
	assert.Empty(t, m.SynthModel)
}

func TestSynthesizeGarbageReplyDegrades(t *testing.T) {
	mock := providers.NewMockProvider(map[string]string{"THE TASTE SYNTHESIZER": "no json here"})
	builder := newTestBuilder(t, mock, nil)

	m, err := builder.Build(context.Background(), []*taste.DTR{fullDTR("checkout", "hash-a", nil)})
	require.NoError(t, err)
	assert.Equal(t, "serious", m.Personality)
}
