package embedding

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	rows [][]float64
	err  error
}

func (s *stubEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

func vectorLength(vec []float32) float64 {
	var sum float64
	for _, x := range vec {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestEmbedReturnsUnitVector(t *testing.T) {
	v, err := NewVectorizer(NewMockEmbedder(4), 4)
	require.NoError(t, err)

	vec, err := v.Embed(context.Background(), "apple")
	require.NoError(t, err)
	require.Len(t, vec, 4)
	assert.InDelta(t, 1.0, vectorLength(vec), 1e-6)
	// 所有分量相同，归一化后每个都是 1/sqrt(4)
	assert.InDelta(t, 0.5, float64(vec[0]), 1e-6)
}

func TestEmbedMeanPoolsMultipleRows(t *testing.T) {
	stub := &stubEmbedder{rows: [][]float64{{1, 0}, {0, 1}}}
	v, err := NewVectorizer(stub, 2)
	require.NoError(t, err)

	vec, err := v.Embed(context.Background(), "banana")
	require.NoError(t, err)
	require.Len(t, vec, 2)
	// 均值 (0.5, 0.5) 归一化后为 (1/sqrt2, 1/sqrt2)
	assert.InDelta(t, 1/math.Sqrt2, float64(vec[0]), 1e-6)
	assert.InDelta(t, 1/math.Sqrt2, float64(vec[1]), 1e-6)
	assert.InDelta(t, 1.0, vectorLength(vec), 1e-6)
}

func TestEmbedDimMismatch(t *testing.T) {
	stub := &stubEmbedder{rows: [][]float64{{1, 2, 3}}}
	v, err := NewVectorizer(stub, 2)
	require.NoError(t, err)

	_, err = v.Embed(context.Background(), "milk")
	require.Error(t, err)
}

func TestEmbedNoVectorReturned(t *testing.T) {
	stub := &stubEmbedder{rows: [][]float64{}}
	v, err := NewVectorizer(stub, 2)
	require.NoError(t, err)

	_, err = v.Embed(context.Background(), "milk")
	require.Error(t, err)
}

func TestEmbedProviderErrorPropagates(t *testing.T) {
	boom := errors.New("provider down")
	v, err := NewVectorizer(&stubEmbedder{err: boom}, 2)
	require.NoError(t, err)

	_, err = v.Embed(context.Background(), "milk")
	require.ErrorIs(t, err, boom)
}

func TestNewVectorizerValidation(t *testing.T) {
	_, err := NewVectorizer(nil, 4)
	require.Error(t, err)

	_, err = NewVectorizer(NewMockEmbedder(4), 0)
	require.Error(t, err)
}
