package similarity

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   atomic.Int32
}

func (f *fakeEmbedder) EmbedSentence(_ context.Context, text string) ([]float32, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.vectors[text]
	if !ok {
		return nil, errors.New("unknown text")
	}
	return v, nil
}

// unitAt returns a 2-d unit vector whose cosine with (1, 0) is sim.
func unitAt(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

func TestExactScore(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{name: "identical", a: "금리 동결", b: "금리 동결", expected: 1},
		{name: "whitespace differs", a: "금리  동결 ", b: " 금리 동결", expected: 1},
		{name: "full-width digits", a: "１０%", b: "10%", expected: 1},
		{name: "different", a: "금리 동결", b: "금리 인상", expected: 0},
		{name: "both empty", a: "", b: "", expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExactScore(tt.a, tt.b))
		})
	}
}

func TestBands_Credit(t *testing.T) {
	tests := []struct {
		sim      float64
		expected float64
	}{
		{sim: 1.0, expected: 1},
		{sim: 0.85, expected: 1},
		{sim: 0.8499, expected: 0.5},
		{sim: 0.70, expected: 0.5},
		{sim: 0.6999, expected: 0},
		{sim: -0.3, expected: 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, DefaultBands.Credit(tt.sim), "sim=%v", tt.sim)
	}
}

func TestBands_Validate(t *testing.T) {
	assert.NoError(t, DefaultBands.Validate())
	assert.Error(t, Bands{Perfect: 0.6, Partial: 0.7}.Validate())
	assert.Error(t, Bands{Perfect: 1.2, Partial: 0.7}.Validate())
}

func TestSemanticScorer_Score(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"anchor":  {1, 0},
		"close":   unitAt(0.9),
		"related": unitAt(0.75),
		"far":     unitAt(0.2),
	}}
	s := NewSemanticScorer(emb)
	ctx := context.Background()

	tests := []struct {
		b        string
		expected float64
	}{
		{b: "close", expected: 1},
		{b: "related", expected: 0.5},
		{b: "far", expected: 0},
	}
	for _, tt := range tests {
		got, err := s.Score(ctx, "anchor", tt.b)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got, tt.b)
	}
}

func TestSemanticScorer_IdentityShortCircuit(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("must not be called")}
	s := NewSemanticScorer(emb)

	got, err := s.Score(context.Background(), "같은  문장", "같은 문장")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
	assert.Zero(t, emb.calls.Load())
}

func TestSemanticScorer_EmbeddingFailures(t *testing.T) {
	tests := []struct {
		name    string
		vectors map[string][]float32
		err     error
	}{
		{name: "provider error", err: errors.New("connection refused")},
		{name: "empty vector", vectors: map[string][]float32{"a": {}, "b": {1}}},
		{name: "zero norm", vectors: map[string][]float32{"a": {0, 0}, "b": {1, 0}}},
		{name: "nan component", vectors: map[string][]float32{"a": {float32(math.NaN()), 1}, "b": {1, 0}}},
		{name: "dimension mismatch", vectors: map[string][]float32{"a": {1, 0, 0}, "b": {1, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSemanticScorer(&fakeEmbedder{vectors: tt.vectors, err: tt.err})

			_, err := s.Score(context.Background(), "a", "b")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrEmbedding)

			var embErr *EmbeddingError
			assert.ErrorAs(t, err, &embErr)
		})
	}
}

func TestSemanticScorer_CustomBands(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{"a": {1, 0}, "b": unitAt(0.75)}}
	s := NewSemanticScorer(emb, WithBands(Bands{Perfect: 0.7, Partial: 0.5}))

	got, err := s.Score(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2}, []float32{2, 4}), 1e-6)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-3, 0}), 1e-9)
}

func TestCachedEmbedder(t *testing.T) {
	inner := &fakeEmbedder{vectors: map[string][]float32{"a": {1, 0}}}
	c := NewCachedEmbedder(inner)
	ctx := context.Background()

	for range 3 {
		v, err := c.EmbedSentence(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 0}, v)
	}
	assert.Equal(t, int32(1), inner.calls.Load())

	_, err := c.EmbedSentence(ctx, "missing")
	assert.Error(t, err)
	assert.Equal(t, 1, c.Len())
}
