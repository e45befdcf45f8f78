package vectordb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"PricePilot/internal/modules/ai/domain/product"
	"PricePilot/internal/modules/ai/domain/repository"
	"PricePilot/pkg/util"
	"PricePilot/pkg/zlog"

	mclient "github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"
)

const (
	// groupByField 多来源分组检索的分组字段
	groupByField = "source"

	defaultDiversityLimit = 5
)

// payloadFields 允许按载荷精确检索的字段白名单（防止表达式注入）
var payloadFields = map[string]bool{
	"name":        true,
	"price":       true,
	"source":      true,
	"description": true,
}

var outputFields = []string{"name", "price", "source"}

// MilvusProductStore 商品向量库的 Milvus 适配器，实现 repository.ProductVectorStore。
//
// 检索路径（RetrieveDiverse / RetrieveByPayload）对底层失败降级为空结果，
// 写入路径（Upsert）失败直接报错。
type MilvusProductStore struct {
	cli            mclient.Client
	vectorField    string
	metricType     entity.MetricType
	vectorDim      int
	scoreThreshold float32
	searchParam    entity.SearchParam
}

func NewMilvusProductStore(cli mclient.Client, vectorField string, vectorDim int, metricType entity.MetricType, scoreThreshold float32) (*MilvusProductStore, error) {
	if strings.TrimSpace(vectorField) == "" {
		return nil, errors.New("vectorField is empty")
	}
	if vectorDim <= 0 {
		return nil, fmt.Errorf("invalid vectorDim: %d", vectorDim)
	}
	sp, err := entity.NewIndexAUTOINDEXSearchParam(1)
	if err != nil {
		return nil, err
	}
	return &MilvusProductStore{
		cli:            cli,
		vectorField:    vectorField,
		metricType:     metricType,
		vectorDim:      vectorDim,
		scoreThreshold: scoreThreshold,
		searchParam:    sp,
	}, nil
}

var _ repository.ProductVectorStore = (*MilvusProductStore)(nil)

// SearchGrouped 底层分组相似检索。每个 source 分组取组内得分最高的一条，
// 至多 limit 个分组；低于得分阈值的命中被过滤。失败时返回错误，
// 降级策略由 RetrieveDiverse 负责。
func (s *MilvusProductStore) SearchGrouped(ctx context.Context, collection string, vector []float32, limit int) ([]product.ProductMatch, error) {
	if s.cli == nil {
		return nil, errors.New("milvus client is nil")
	}
	if len(vector) != s.vectorDim {
		return nil, fmt.Errorf("vector dim mismatch, got=%d want=%d", len(vector), s.vectorDim)
	}
	if limit <= 0 {
		limit = defaultDiversityLimit
	}

	res, err := s.cli.Search(
		ctx,
		collection,
		[]string{},
		"",
		outputFields,
		[]entity.Vector{entity.FloatVector(vector)},
		s.vectorField,
		s.metricType,
		limit,
		s.searchParam,
		mclient.WithGroupByField(groupByField),
	)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return []product.ProductMatch{}, nil
	}
	matches, err := projectMatches(res[0])
	if err != nil {
		return nil, err
	}
	return filterByScore(matches, s.scoreThreshold), nil
}

// RetrieveDiverse implements repository.ProductVectorStore.
// 索引不可用降级为空结果：单个商品的召回失败不应让整个请求失败。
func (s *MilvusProductStore) RetrieveDiverse(ctx context.Context, collection string, vector []float32, limit int) []product.ProductMatch {
	matches, err := s.SearchGrouped(ctx, collection, vector, limit)
	if err != nil {
		zlog.Warn("diverse retrieval degraded to empty",
			zap.String("collection", collection),
			zap.Int("limit", limit),
			zap.Error(err))
		return []product.ProductMatch{}
	}
	return matches
}

// QueryByPayload 底层载荷精确匹配查询，不做向量相似度计算。
func (s *MilvusProductStore) QueryByPayload(ctx context.Context, collection string, key, value string, limit int) ([]product.ProductMatch, error) {
	if !payloadFields[key] {
		return nil, fmt.Errorf("unsupported payload field: %s", key)
	}
	if s.cli == nil {
		return nil, errors.New("milvus client is nil")
	}
	if limit <= 0 {
		limit = 10
	}

	expr := fmt.Sprintf(`%s == "%s"`, key, strings.ReplaceAll(value, `"`, `\"`))
	rs, err := s.cli.Query(
		ctx,
		collection,
		[]string{},
		expr,
		outputFields,
		mclient.WithLimit(int64(limit)),
	)
	if err != nil {
		return nil, err
	}

	nameCol := columnByName(rs, "name")
	priceCol := columnByName(rs, "price")
	sourceCol := columnByName(rs, "source")
	if nameCol == nil {
		return []product.ProductMatch{}, nil
	}

	matches := make([]product.ProductMatch, 0, nameCol.Len())
	for i := 0; i < nameCol.Len(); i++ {
		var m product.ProductMatch
		m.Name, _ = nameCol.GetAsString(i)
		if priceCol != nil {
			m.Price, _ = priceCol.GetAsString(i)
		}
		if sourceCol != nil {
			m.Source, _ = sourceCol.GetAsString(i)
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// RetrieveByPayload implements repository.ProductVectorStore.
// 与 RetrieveDiverse 相同的降级策略。
func (s *MilvusProductStore) RetrieveByPayload(ctx context.Context, collection string, key, value string, limit int) []product.ProductMatch {
	matches, err := s.QueryByPayload(ctx, collection, key, value, limit)
	if err != nil {
		zlog.Warn("payload retrieval degraded to empty",
			zap.String("collection", collection),
			zap.String("key", key),
			zap.Error(err))
		return []product.ProductMatch{}
	}
	return matches
}

// Upsert implements repository.ProductVectorStore.
func (s *MilvusProductStore) Upsert(ctx context.Context, collection string, records []product.ProductRecord, vectors [][]float32) ([]string, error) {
	if len(records) != len(vectors) {
		return nil, fmt.Errorf("records/vectors length mismatch: %d != %d", len(records), len(vectors))
	}
	if len(records) == 0 {
		return []string{}, nil
	}

	ids := make([]string, 0, len(records))
	names := make([]string, 0, len(records))
	prices := make([]string, 0, len(records))
	sources := make([]string, 0, len(records))
	descriptions := make([]string, 0, len(records))
	for i, rec := range records {
		if strings.TrimSpace(rec.Name) == "" {
			return nil, fmt.Errorf("record %d missing name", i)
		}
		if len(vectors[i]) != s.vectorDim {
			return nil, fmt.Errorf("vector dim mismatch for %q, got=%d want=%d", rec.Name, len(vectors[i]), s.vectorDim)
		}
		ids = append(ids, util.GenerateShortUUID())
		names = append(names, rec.Name)
		prices = append(prices, rec.Price)
		sources = append(sources, rec.Source)
		descriptions = append(descriptions, rec.Description)
	}

	if s.cli == nil {
		return nil, errors.New("milvus client is nil")
	}

	_, err := s.cli.Upsert(
		ctx,
		collection,
		"",
		entity.NewColumnVarChar("id", ids),
		entity.NewColumnFloatVector(s.vectorField, s.vectorDim, vectors),
		entity.NewColumnVarChar("name", names),
		entity.NewColumnVarChar("price", prices),
		entity.NewColumnVarChar("source", sources),
		entity.NewColumnVarChar("description", descriptions),
	)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// projectMatches 将一次分组检索结果投影为 ProductMatch 列表，
// 只保留 name/price/source，其余载荷字段在此边界丢弃。
func projectMatches(sr mclient.SearchResult) ([]product.ProductMatch, error) {
	if sr.Err != nil {
		return nil, sr.Err
	}
	matches := make([]product.ProductMatch, 0, sr.ResultCount)

	nameCol := columnByName(sr.Fields, "name")
	priceCol := columnByName(sr.Fields, "price")
	sourceCol := columnByName(sr.Fields, "source")

	for i := 0; i < sr.ResultCount; i++ {
		var m product.ProductMatch
		if i < len(sr.Scores) {
			m.Score = sr.Scores[i]
		}
		if nameCol != nil {
			m.Name, _ = nameCol.GetAsString(i)
		}
		if priceCol != nil {
			m.Price, _ = priceCol.GetAsString(i)
		}
		if sourceCol != nil {
			m.Source, _ = sourceCol.GetAsString(i)
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func filterByScore(matches []product.ProductMatch, threshold float32) []product.ProductMatch {
	kept := make([]product.ProductMatch, 0, len(matches))
	for _, m := range matches {
		if m.Score >= threshold {
			kept = append(kept, m)
		}
	}
	return kept
}

func columnByName(cols mclient.ResultSet, name string) entity.Column {
	for _, c := range cols {
		if c != nil && c.Name() == name {
			return c
		}
	}
	return nil
}
