package vectordb

import (
	"context"
	"errors"
	"testing"

	"PricePilot/internal/modules/ai/domain/product"

	mclient "github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *MilvusProductStore {
	t.Helper()
	s, err := NewMilvusProductStore(nil, "vector", 4, entity.COSINE, 0.5)
	require.NoError(t, err)
	return s
}

func TestNewMilvusProductStoreValidation(t *testing.T) {
	_, err := NewMilvusProductStore(nil, "", 4, entity.COSINE, 0.5)
	require.Error(t, err)

	_, err = NewMilvusProductStore(nil, "vector", 0, entity.COSINE, 0.5)
	require.Error(t, err)
}

func TestRetrieveDiverseDegradesToEmpty(t *testing.T) {
	s := newTestStore(t)

	// 客户端不可用时降级为空结果而不是报错
	matches := s.RetrieveDiverse(context.Background(), "products", []float32{1, 0, 0, 0}, 5)
	require.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestRetrieveByPayloadDegradesToEmpty(t *testing.T) {
	s := newTestStore(t)

	matches := s.RetrieveByPayload(context.Background(), "products", "name", "apple", 10)
	require.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestQueryByPayloadRejectsUnknownField(t *testing.T) {
	s := newTestStore(t)

	_, err := s.QueryByPayload(context.Background(), "products", "id; drop", "x", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported payload field")
}

func TestSearchGroupedRejectsDimMismatch(t *testing.T) {
	s := newTestStore(t)

	_, err := s.SearchGrouped(context.Background(), "products", []float32{1, 0}, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dim mismatch")
}

func TestUpsertValidation(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Upsert(context.Background(), "products",
		[]product.ProductRecord{{Name: "apple"}}, nil)
	require.Error(t, err)

	ids, err := s.Upsert(context.Background(), "products", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)

	// 向量维度与建库配置不一致必须拒绝
	_, err = s.Upsert(context.Background(), "products",
		[]product.ProductRecord{{Name: "apple"}},
		[][]float32{{1, 0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dim mismatch")

	// 缺少商品名同样拒绝
	_, err = s.Upsert(context.Background(), "products",
		[]product.ProductRecord{{Name: "  "}},
		[][]float32{{1, 0, 0, 0}})
	require.Error(t, err)
}

type sourceGroup struct {
	source string
	hits   []product.ProductMatch
}

// fakeMilvusClient 模拟 Milvus 的分组检索与标量查询，
// 其余接口方法继承自内嵌的 nil 接口，调用即 panic。
type fakeMilvusClient struct {
	mclient.Client

	groups []sourceGroup          // Search 的数据：按 source 分组的命中
	rows   []product.ProductMatch // Query 的数据

	searchErr error
	queryErr  error

	gotTopK    int
	gotGroupBy string
	gotExpr    string
	gotLimit   int64
}

func (f *fakeMilvusClient) Search(ctx context.Context, collName string, partitions []string, expr string, outputFields []string, vectors []entity.Vector, vectorField string, metricType entity.MetricType, topK int, sp entity.SearchParam, opts ...mclient.SearchQueryOptionFunc) ([]mclient.SearchResult, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	f.gotTopK = topK
	opt := &mclient.SearchQueryOption{}
	for _, o := range opts {
		o(opt)
	}
	f.gotGroupBy = opt.GroupByField

	// 与服务端分组检索一致：每个分组取最高分的一条，至多 topK 个分组
	var names, prices, sources []string
	var scores []float32
	for _, g := range f.groups {
		if len(names) >= topK {
			break
		}
		best := g.hits[0]
		for _, h := range g.hits[1:] {
			if h.Score > best.Score {
				best = h
			}
		}
		names = append(names, best.Name)
		prices = append(prices, best.Price)
		sources = append(sources, g.source)
		scores = append(scores, best.Score)
	}
	return []mclient.SearchResult{{
		ResultCount: len(names),
		Scores:      scores,
		Fields: mclient.ResultSet{
			entity.NewColumnVarChar("name", names),
			entity.NewColumnVarChar("price", prices),
			entity.NewColumnVarChar("source", sources),
		},
	}}, nil
}

func (f *fakeMilvusClient) Query(ctx context.Context, collName string, partitions []string, expr string, outputFields []string, opts ...mclient.SearchQueryOptionFunc) (mclient.ResultSet, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	f.gotExpr = expr
	opt := &mclient.SearchQueryOption{}
	for _, o := range opts {
		o(opt)
	}
	f.gotLimit = opt.Limit

	rows := f.rows
	if opt.Limit > 0 && int64(len(rows)) > opt.Limit {
		rows = rows[:opt.Limit]
	}
	var names, prices, sources []string
	for _, r := range rows {
		names = append(names, r.Name)
		prices = append(prices, r.Price)
		sources = append(sources, r.Source)
	}
	return mclient.ResultSet{
		entity.NewColumnVarChar("name", names),
		entity.NewColumnVarChar("price", prices),
		entity.NewColumnVarChar("source", sources),
	}, nil
}

func newFakeStore(t *testing.T, cli mclient.Client) *MilvusProductStore {
	t.Helper()
	s, err := NewMilvusProductStore(cli, "vector", 4, entity.COSINE, 0.5)
	require.NoError(t, err)
	return s
}

func TestSearchGroupedOnePerSource(t *testing.T) {
	cli := &fakeMilvusClient{groups: []sourceGroup{
		{source: "carrefour", hits: []product.ProductMatch{
			{Name: "apple red", Price: "1.20", Score: 0.8},
			{Name: "apple fuji", Price: "1.50", Score: 0.9},
		}},
		{source: "lulu", hits: []product.ProductMatch{
			{Name: "apple", Price: "0.95", Score: 0.7},
		}},
		{source: "union", hits: []product.ProductMatch{
			{Name: "apple pack", Price: "3.00", Score: 0.6},
		}},
	}}
	s := newFakeStore(t, cli)

	matches, err := s.SearchGrouped(context.Background(), "products", []float32{1, 0, 0, 0}, 5)
	require.NoError(t, err)

	// 来源数少于 limit 时结果就是来源数，每个来源恰好一条
	require.Len(t, matches, 3)
	assert.Equal(t, 5, cli.gotTopK)
	assert.Equal(t, "source", cli.gotGroupBy)

	seen := map[string]bool{}
	for _, m := range matches {
		assert.False(t, seen[m.Source], "duplicate source %s", m.Source)
		seen[m.Source] = true
	}
	// 每个分组取组内最高分的一条
	assert.Equal(t, "apple fuji", matches[0].Name)
	assert.InDelta(t, 0.9, float64(matches[0].Score), 1e-6)
	assert.Equal(t, "lulu", matches[1].Source)
	assert.Equal(t, "union", matches[2].Source)
}

func TestSearchGroupedTruncatesToLimit(t *testing.T) {
	var groups []sourceGroup
	for _, src := range []string{"a", "b", "c", "d", "e"} {
		groups = append(groups, sourceGroup{source: src, hits: []product.ProductMatch{
			{Name: "apple", Price: "1.00", Score: 0.8},
		}})
	}
	s := newFakeStore(t, &fakeMilvusClient{groups: groups})

	matches, err := s.SearchGrouped(context.Background(), "products", []float32{1, 0, 0, 0}, 3)
	require.NoError(t, err)

	require.Len(t, matches, 3)
	seen := map[string]bool{}
	for _, m := range matches {
		assert.False(t, seen[m.Source])
		seen[m.Source] = true
	}
}

func TestSearchGroupedSingleSource(t *testing.T) {
	s := newFakeStore(t, &fakeMilvusClient{groups: []sourceGroup{
		{source: "carrefour", hits: []product.ProductMatch{
			{Name: "banana", Price: "0.50", Score: 0.85},
			{Name: "banana bundle", Price: "2.00", Score: 0.75},
		}},
	}})

	matches, err := s.SearchGrouped(context.Background(), "products", []float32{0, 1, 0, 0}, 5)
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, "banana", matches[0].Name)
	assert.Equal(t, "carrefour", matches[0].Source)
}

func TestSearchGroupedFiltersLowScores(t *testing.T) {
	s := newFakeStore(t, &fakeMilvusClient{groups: []sourceGroup{
		{source: "carrefour", hits: []product.ProductMatch{{Name: "apple", Score: 0.9}}},
		{source: "lulu", hits: []product.ProductMatch{{Name: "apple-ish", Score: 0.4}}},
	}})

	matches, err := s.SearchGrouped(context.Background(), "products", []float32{1, 0, 0, 0}, 5)
	require.NoError(t, err)

	// 低于阈值的来源被过滤，不占用名额
	require.Len(t, matches, 1)
	assert.Equal(t, "carrefour", matches[0].Source)
}

func TestRetrieveDiverseReturnsMatches(t *testing.T) {
	s := newFakeStore(t, &fakeMilvusClient{groups: []sourceGroup{
		{source: "carrefour", hits: []product.ProductMatch{{Name: "apple", Price: "1.00", Score: 0.9}}},
	}})

	matches := s.RetrieveDiverse(context.Background(), "products", []float32{1, 0, 0, 0}, 5)
	require.Len(t, matches, 1)
	assert.Equal(t, "apple", matches[0].Name)
}

func TestSearchGroupedPropagatesClientError(t *testing.T) {
	boom := errors.New("milvus down")
	s := newFakeStore(t, &fakeMilvusClient{searchErr: boom})

	_, err := s.SearchGrouped(context.Background(), "products", []float32{1, 0, 0, 0}, 5)
	require.ErrorIs(t, err, boom)
}

func TestQueryByPayloadReturnsMatches(t *testing.T) {
	cli := &fakeMilvusClient{rows: []product.ProductMatch{
		{Name: "apple", Price: "1.00", Source: "carrefour"},
		{Name: "apple", Price: "0.95", Source: "lulu"},
	}}
	s := newFakeStore(t, cli)

	matches, err := s.QueryByPayload(context.Background(), "products", "name", "apple", 0)
	require.NoError(t, err)

	assert.Equal(t, `name == "apple"`, cli.gotExpr)
	assert.EqualValues(t, 10, cli.gotLimit) // limit<=0 回退到默认值
	require.Len(t, matches, 2)
	assert.Equal(t, "carrefour", matches[0].Source)
	assert.Equal(t, "0.95", matches[1].Price)
}

func TestQueryByPayloadHonorsLimitAndEscapesValue(t *testing.T) {
	cli := &fakeMilvusClient{rows: []product.ProductMatch{
		{Name: `6" sub`, Price: "4.00", Source: "a"},
		{Name: `6" sub`, Price: "4.50", Source: "b"},
	}}
	s := newFakeStore(t, cli)

	matches, err := s.QueryByPayload(context.Background(), "products", "name", `6" sub`, 1)
	require.NoError(t, err)

	// 值中的引号必须转义，避免破坏表达式
	assert.Equal(t, `name == "6\" sub"`, cli.gotExpr)
	require.Len(t, matches, 1)
}

func TestProjectMatchesKeepsScoresAndFields(t *testing.T) {
	sr := mclient.SearchResult{
		ResultCount: 2,
		Scores:      []float32{0.9, 0.4},
		Fields: mclient.ResultSet{
			entity.NewColumnVarChar("name", []string{"apple red", "apple green"}),
			entity.NewColumnVarChar("price", []string{"1.20", "0.90"}),
			entity.NewColumnVarChar("source", []string{"carrefour", "lulu"}),
		},
	}

	matches, err := projectMatches(sr)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "apple red", matches[0].Name)
	assert.Equal(t, "1.20", matches[0].Price)
	assert.Equal(t, "carrefour", matches[0].Source)
	assert.InDelta(t, 0.9, float64(matches[0].Score), 1e-6)
	assert.Equal(t, "lulu", matches[1].Source)
}

func TestFilterByScore(t *testing.T) {
	matches := []product.ProductMatch{
		{Name: "a", Score: 0.9},
		{Name: "b", Score: 0.5},
		{Name: "c", Score: 0.49},
	}

	kept := filterByScore(matches, 0.5)
	require.Len(t, kept, 2)
	assert.Equal(t, "a", kept[0].Name)
	assert.Equal(t, "b", kept[1].Name)
}
