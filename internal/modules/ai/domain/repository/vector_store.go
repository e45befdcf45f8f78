package repository

import (
	"context"

	"PricePilot/internal/modules/ai/domain/product"
)

// ProductVectorStore 是 domain 层定义的“商品向量库能力抽象”。
//
// 设计约束：
//  1. application / infrastructure/pipeline 只依赖本接口，不直接依赖 Milvus SDK。
//  2. RetrieveDiverse / RetrieveByPayload 对底层查询失败做降级处理：
//     返回空切片而不是错误，索引不可用只影响结果完整性，不影响请求可用性。
//     需要区分“索引无响应”和“零命中”的调用方应使用 infrastructure 层的底层查询方法。
//  3. Upsert 是灌库路径，失败必须报错（与检索路径的降级策略相反）。
type ProductVectorStore interface {
	// RetrieveDiverse 按向量做分组相似检索：每个 source 至多返回 1 条
	// 组内得分最高的命中，至多 limit 个不同 source，低于阈值的命中被丢弃。
	RetrieveDiverse(ctx context.Context, collection string, vector []float32, limit int) []product.ProductMatch

	// RetrieveByPayload 按载荷字段精确匹配检索，不做向量相似度计算。
	RetrieveByPayload(ctx context.Context, collection string, key, value string, limit int) []product.ProductMatch

	// Upsert 将商品记录连同向量写入集合，返回写入的主键。
	Upsert(ctx context.Context, collection string, records []product.ProductRecord, vectors [][]float32) ([]string, error)
}
