package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/cloudwego/eino/components/embedding"
)

// Vectorizer turns one product name into a fixed-length unit vector.
//
// The underlying embedder is constructed once at startup and shared
// read-only by every request; Vectorizer itself is stateless per call and
// never caches repeated names. Whatever the model returns is mean-pooled
// down to a single row and L2-normalized, so downstream similarity search
// always sees vectors of the configured dimensionality with unit length.
type Vectorizer struct {
	embedder embedding.Embedder
	dim      int
}

func NewVectorizer(embedder embedding.Embedder, dim int) (*Vectorizer, error) {
	if embedder == nil {
		return nil, errors.New("embedder is nil")
	}
	if dim <= 0 {
		return nil, fmt.Errorf("invalid vector dim: %d", dim)
	}
	return &Vectorizer{embedder: embedder, dim: dim}, nil
}

// Embed returns the normalized embedding of a single product name.
func (v *Vectorizer) Embed(ctx context.Context, text string) ([]float32, error) {
	rows, err := v.embedder.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("embedding model returned no vector for %q", text)
	}

	pooled := meanPool(rows)
	if len(pooled) != v.dim {
		return nil, fmt.Errorf("embedding dim mismatch for %q, got=%d want=%d", text, len(pooled), v.dim)
	}
	return normalize(pooled), nil
}

// Dim reports the fixed output dimensionality.
func (v *Vectorizer) Dim() int {
	return v.dim
}

// meanPool averages the returned rows element-wise. Providers normally
// return exactly one row per input text; pooling keeps the output flat
// even when a model yields token-level rows.
func meanPool(rows [][]float64) []float64 {
	if len(rows) == 1 {
		return rows[0]
	}
	pooled := make([]float64, len(rows[0]))
	for _, row := range rows {
		for i := 0; i < len(pooled) && i < len(row); i++ {
			pooled[i] += row[i]
		}
	}
	n := float64(len(rows))
	for i := range pooled {
		pooled[i] /= n
	}
	return pooled
}

// normalize scales the vector to unit length and converts to float32.
func normalize(vec []float64) []float32 {
	var sum float64
	for _, x := range vec {
		sum += x * x
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(vec))
	if norm == 0 {
		return out
	}
	for i, x := range vec {
		out[i] = float32(x / norm)
	}
	return out
}
