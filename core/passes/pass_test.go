package passes

import (
	"context"
	"fmt"
	"testing"

	"github.com/adalundhe/patina/core/providers"
	"github.com/adalundhe/patina/core/taste"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInput() *Input {
	return &Input{
		ResourceName: "checkout",
		ResourceHash: "hash123",
		MetricsJSON:  []byte(`{"spacing":{"quantum":8}}`),
	}
}

func structurePass(t *testing.T) Pass {
	t.Helper()
	for _, p := range Pipeline {
		if p.Section == taste.SectionStructure {
			return p
		}
	}
	t.Fatal("structure pass missing from pipeline")
	return Pass{}
}

func TestRunPassParsesResponse(t *testing.T) {
	mock := providers.NewMockProvider(map[string]string{
		"PASS 1: STRUCTURE": `{
			"summary": "12 column grid, strict alignment",
			"axes": [
				{"name": "structure.grid_columns", "kind": "numeric", "number": 12, "confidence": 0.9},
				{"name": "density", "kind": "categorical", "value": "balanced", "confidence": 0.8}
			]
		}`,
	})
	e, err := NewExtractor(mock, nil, 0, nil)
	require.NoError(t, err)

	section, narrative, model, hit := e.RunPass(context.Background(), structurePass(t), testInput(), nil)
	assert.False(t, hit)
	assert.Empty(t, narrative)
	assert.Equal(t, "mock-model", model)
	assert.False(t, section.Degraded)
	assert.Equal(t, taste.SectionStructure, section.Pass)

	cols := section.Axis("structure.grid_columns")
	require.NotNil(t, cols)
	assert.Equal(t, 12.0, cols.Number)

	// Unprefixed axis names get the section prefix.
	density := section.Axis("structure.density")
	require.NotNil(t, density)
	assert.Equal(t, "balanced", density.Value)
}

func TestRunPassCacheHit(t *testing.T) {
	mock := providers.NewMockProvider(nil)
	mock.Fallback = `{"summary": "s", "axes": []}`
	e, err := NewExtractor(mock, nil, 0, nil)
	require.NoError(t, err)

	pass := structurePass(t)
	_, _, _, hit := e.RunPass(context.Background(), pass, testInput(), nil)
	assert.False(t, hit)

	_, _, model, hit := e.RunPass(context.Background(), pass, testInput(), nil)
	assert.True(t, hit)
	assert.Equal(t, "mock-model", model, "cache hit keeps the producing model")
	assert.Equal(t, 1, mock.CallCount(), "cache hit must not call the provider")

	// Different resource misses.
	other := testInput()
	other.ResourceHash = "otherhash"
	_, _, _, hit = e.RunPass(context.Background(), pass, other, nil)
	assert.False(t, hit)
	assert.Equal(t, 2, mock.CallCount())
}

func TestExtractorCacheSizeBound(t *testing.T) {
	mock := providers.NewMockProvider(nil)
	mock.Fallback = `{"summary": "s", "axes": []}`
	e, err := NewExtractor(mock, nil, 1, nil)
	require.NoError(t, err)

	pass := structurePass(t)
	first := testInput()
	second := testInput()
	second.ResourceHash = "otherhash"

	e.RunPass(context.Background(), pass, first, nil)
	// Size-1 cache: caching the second resource evicts the first.
	e.RunPass(context.Background(), pass, second, nil)
	_, _, _, hit := e.RunPass(context.Background(), pass, first, nil)
	assert.False(t, hit)
	assert.Equal(t, 3, mock.CallCount())
}

func TestRunPassFallbackOnGarbage(t *testing.T) {
	mock := providers.NewMockProvider(nil)
	mock.Fallback = "I could not analyze this design, sorry."
	e, err := NewExtractor(mock, nil, 0, nil)
	require.NoError(t, err)

	section, narrative, model, hit := e.RunPass(context.Background(), structurePass(t), testInput(), nil)
	assert.False(t, hit)
	assert.True(t, section.Degraded)
	assert.Empty(t, model, "degraded pass reports no model")
	assert.Equal(t, fallbackNarrative, narrative)
	assert.NotEmpty(t, section.Axes, "fallback carries neutral axes")
	for _, axis := range section.Axes {
		assert.Zero(t, axis.Confidence, "fallback axes are zero-confidence")
	}
}

func TestRunPassFallbackOnProviderError(t *testing.T) {
	mock := providers.NewMockProvider(nil)
	mock.Err = fmt.Errorf("invalid request: model not found")
	e, err := NewExtractor(mock, nil, 0, nil)
	require.NoError(t, err)

	section, _, _, _ := e.RunPass(context.Background(), structurePass(t), testInput(), nil)
	assert.True(t, section.Degraded)
	// Degraded sections must not poison the cache.
	section, _, _, hit := e.RunPass(context.Background(), structurePass(t), testInput(), nil)
	assert.False(t, hit)
	assert.True(t, section.Degraded)
}

func TestNormalizeAxes(t *testing.T) {
	axes := normalizeAxes("surface", []taste.Axis{
		{Name: "", Kind: taste.AxisNumeric, Number: 1, Confidence: 0.5},
		{Name: "surface.radius", Kind: taste.AxisNumeric, Number: 12, Value: "stray", Confidence: 1.7},
		{Name: "contrast", Value: "high", Confidence: -0.2},
		{Name: "surface.empty_cat", Kind: taste.AxisCategorical, Value: "", Confidence: 0.5},
		{Name: "surface.bare_number", Number: 3, Confidence: 0.4},
	})

	require.Len(t, axes, 3)

	radius := axes[0]
	assert.Equal(t, "surface.radius", radius.Name)
	assert.Empty(t, radius.Value, "numeric axis drops stray value")
	assert.Equal(t, 1.0, radius.Confidence, "confidence clamps to 1")

	contrast := axes[1]
	assert.Equal(t, "surface.contrast", contrast.Name)
	assert.Equal(t, taste.AxisCategorical, contrast.Kind, "kind inferred from value")
	assert.Zero(t, contrast.Confidence, "confidence clamps to 0")

	bare := axes[2]
	assert.Equal(t, taste.AxisNumeric, bare.Kind, "kind inferred from number")
}

func TestBuildRequestIncludesScreenshot(t *testing.T) {
	mock := providers.NewMockProvider(nil)
	e, err := NewExtractor(mock, nil, 0, nil)
	require.NoError(t, err)

	input := testInput()
	input.Screenshot = []byte{0x89, 0x50, 0x4e, 0x47}

	req := e.buildRequest(structurePass(t), input, nil)
	require.Len(t, req.Messages, 1)
	require.Len(t, req.Messages[0].Parts, 2)
	assert.True(t, req.Messages[0].Parts[1].IsImage())
	assert.Equal(t, "image/png", req.Messages[0].Parts[1].ImageMIME)
	assert.True(t, req.JSONOnly)
	assert.Contains(t, req.Messages[0].Parts[0].Text, `"quantum":8`)
}
