package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"PricePilot/internal/modules/ai/application/dto/respond"
	"PricePilot/internal/modules/ai/domain/product"
	"PricePilot/internal/modules/ai/domain/repository"
	"PricePilot/internal/modules/ai/infrastructure/pipeline"
	"PricePilot/pkg/zlog"

	"go.uber.org/zap"
)

// IngestService 商品目录同步灌库：逐条向量化商品名并写入向量库。
// 与检索路径不同，灌库失败必须报错，不做降级。
type IngestService interface {
	IngestProducts(ctx context.Context, records []product.ProductRecord) (*respond.IngestRespond, error)
}

type ingestServiceImpl struct {
	vectorizer pipeline.Vectorizer
	store      repository.ProductVectorStore
	collection string
}

func NewIngestService(vectorizer pipeline.Vectorizer, store repository.ProductVectorStore, collection string) IngestService {
	if strings.TrimSpace(collection) == "" {
		collection = pipeline.DefaultCollection
	}
	return &ingestServiceImpl{vectorizer: vectorizer, store: store, collection: collection}
}

func (s *ingestServiceImpl) IngestProducts(ctx context.Context, records []product.ProductRecord) (*respond.IngestRespond, error) {
	start := time.Now()
	if len(records) == 0 {
		return &respond.IngestRespond{Inserted: 0}, nil
	}

	vectors := make([][]float32, len(records))
	for i, rec := range records {
		if strings.TrimSpace(rec.Name) == "" {
			return nil, fmt.Errorf("record %d missing name", i)
		}
		vec, err := s.vectorizer.Embed(ctx, rec.Name)
		if err != nil {
			return nil, fmt.Errorf("embed %q: %w", rec.Name, err)
		}
		vectors[i] = vec
	}

	ids, err := s.store.Upsert(ctx, s.collection, records, vectors)
	if err != nil {
		zlog.Error("product ingest upsert failed",
			zap.Int("count", len(records)),
			zap.Error(err))
		return nil, err
	}

	zlog.Info("product ingest done",
		zap.Int("inserted", len(ids)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()))
	return &respond.IngestRespond{
		Inserted:   len(ids),
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}
