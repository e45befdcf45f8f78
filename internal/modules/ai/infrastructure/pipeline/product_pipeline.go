package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"PricePilot/internal/modules/ai/domain/product"
	"PricePilot/internal/modules/ai/domain/repository"
	"PricePilot/pkg/util"
	"PricePilot/pkg/zlog"

	"go.uber.org/zap"
)

// Extractor 从自由文本查询抽取有序商品名列表
type Extractor interface {
	Extract(ctx context.Context, query string) ([]string, error)
}

// Vectorizer 把单个商品名变成定长向量
type Vectorizer interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Synthesizer 把序列化后的命中记录汇总成比价结论
type Synthesizer interface {
	Synthesize(ctx context.Context, serializedMatches string) (string, error)
}

const (
	DefaultCollection     = "products"
	DefaultDiversityLimit = 5
)

// ProductPromptResult 比价管线的输出结果
type ProductPromptResult struct {
	QueryID  string                 // 本次查询唯一 ID（便于追踪回放）
	Query    string                 // 原始用户查询
	Products []string               // 抽取出的商品名（保持抽取顺序）
	Matches  []product.ProductMatch // 扁平化后的全部命中（按商品抽取顺序拼接）
	Report   string                 // 最终比价结论（模型原文）

	// 各阶段完成时距请求开始的耗时（毫秒，累计值）
	ExtractionMs int64
	EmbeddingMs  int64
	RetrievalMs  int64
	DurationMs   int64
}

// ProductPipeline 比价管线：抽取 → 并发向量化 → 并发多来源召回 → 汇总比价。
//
// 失败策略是刻意的不对称：
//   - 抽取 / 向量化 / 汇总阶段任一调用失败，整个请求失败，不产出部分结果；
//   - 向量库召回失败由 ProductVectorStore 降级为空结果，不会中断请求。
//
// 两个并发阶段都是 join-all 屏障：按下标把结果写回固定长度的切片，
// 不依赖各协程的完成顺序，保证 MatchSet 与商品抽取顺序一致。
type ProductPipeline struct {
	extractor      Extractor
	vectorizer     Vectorizer
	store          repository.ProductVectorStore
	synthesizer    Synthesizer
	collection     string
	diversityLimit int
}

func NewProductPipeline(
	extractor Extractor,
	vectorizer Vectorizer,
	store repository.ProductVectorStore,
	synthesizer Synthesizer,
	collection string,
	diversityLimit int,
) (*ProductPipeline, error) {
	if extractor == nil {
		return nil, errors.New("extractor is nil")
	}
	if vectorizer == nil {
		return nil, errors.New("vectorizer is nil")
	}
	if store == nil {
		return nil, errors.New("vector store is nil")
	}
	if synthesizer == nil {
		return nil, errors.New("synthesizer is nil")
	}
	if strings.TrimSpace(collection) == "" {
		collection = DefaultCollection
	}
	if diversityLimit <= 0 {
		diversityLimit = DefaultDiversityLimit
	}
	return &ProductPipeline{
		extractor:      extractor,
		vectorizer:     vectorizer,
		store:          store,
		synthesizer:    synthesizer,
		collection:     collection,
		diversityLimit: diversityLimit,
	}, nil
}

// ProductPrompt 执行完整比价管线，输入一条查询文本，输出一份比价结论。
func (p *ProductPipeline) ProductPrompt(ctx context.Context, query string) (*ProductPromptResult, error) {
	start := time.Now()
	res := &ProductPromptResult{
		QueryID: "q_" + util.GenerateShortUUID(),
		Query:   query,
	}

	zlog.Info("product prompt processing started",
		zap.String("query_id", res.QueryID),
		zap.String("query", query))

	// Stage 1: 抽取（阻塞，失败即整个请求失败）
	products, err := p.extractor.Extract(ctx, query)
	if err != nil {
		return nil, p.fail(res, "extraction", query, start, err)
	}
	res.Products = products
	res.ExtractionMs = time.Since(start).Milliseconds()
	zlog.Debug("extraction done",
		zap.String("query_id", res.QueryID),
		zap.Strings("products", products),
		zap.Int64("duration_ms", res.ExtractionMs))

	// Stage 2: 向量化 fan-out（join-all，任一失败则请求失败）
	vectors := make([][]float32, len(products))
	embedErrs := make([]error, len(products))
	var wg sync.WaitGroup
	for i, name := range products {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			vectors[i], embedErrs[i] = p.vectorizer.Embed(ctx, name)
		}(i, name)
	}
	wg.Wait()
	for _, err := range embedErrs {
		if err != nil {
			return nil, p.fail(res, "embedding", query, start, err)
		}
	}
	res.EmbeddingMs = time.Since(start).Milliseconds()
	zlog.Debug("embedding done",
		zap.String("query_id", res.QueryID),
		zap.Int("count", len(vectors)),
		zap.Int64("duration_ms", res.EmbeddingMs))

	// Stage 3: 多来源召回 fan-out（索引失败已在 store 层降级为空结果）
	matchSets := make([][]product.ProductMatch, len(vectors))
	wg = sync.WaitGroup{}
	for i, vec := range vectors {
		wg.Add(1)
		go func(i int, vec []float32) {
			defer wg.Done()
			matchSets[i] = p.store.RetrieveDiverse(ctx, p.collection, vec, p.diversityLimit)
		}(i, vec)
	}
	wg.Wait()
	res.RetrievalMs = time.Since(start).Milliseconds()
	zlog.Debug("retrieval done",
		zap.String("query_id", res.QueryID),
		zap.Int("count", len(matchSets)),
		zap.Int64("duration_ms", res.RetrievalMs))

	// Stage 4: 按抽取顺序扁平化，序列化后交给模型汇总
	matches := make([]product.ProductMatch, 0)
	for _, set := range matchSets {
		matches = append(matches, set...)
	}
	res.Matches = matches

	serialized, err := json.Marshal(matches)
	if err != nil {
		return nil, p.fail(res, "serialization", query, start, err)
	}

	report, err := p.synthesizer.Synthesize(ctx, string(serialized))
	if err != nil {
		return nil, p.fail(res, "synthesis", query, start, err)
	}
	res.Report = report
	res.DurationMs = time.Since(start).Milliseconds()

	zlog.Info("product prompt processing completed",
		zap.String("query_id", res.QueryID),
		zap.String("query", query),
		zap.Int("result_count", len(matches)),
		zap.Int64("duration_ms", res.DurationMs))
	return res, nil
}

// fail 记录失败并原样传出上游错误，不做包装或重新归类。
func (p *ProductPipeline) fail(res *ProductPromptResult, stage, query string, start time.Time, err error) error {
	zlog.Error("product prompt processing failed",
		zap.String("query_id", res.QueryID),
		zap.String("stage", stage),
		zap.String("query", query),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		zap.Error(err))
	return err
}
