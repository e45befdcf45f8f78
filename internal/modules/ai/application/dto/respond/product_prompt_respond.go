package respond

// ProductMatchItem 单条返回给调用方的命中记录
type ProductMatchItem struct {
	Name   string `json:"name"`
	Price  string `json:"price"`
	Source string `json:"source"`
}

// ProductPromptRespond 比价查询响应
type ProductPromptRespond struct {
	QueryID    string             `json:"query_id"`    // 本次查询唯一 ID（便于追踪回放）
	Prompt     string             `json:"prompt"`      // 原始查询
	Products   []string           `json:"products"`    // 抽取出的商品名（保持抽取顺序）
	Matches    []ProductMatchItem `json:"matches"`     // 全部命中（按商品抽取顺序拼接）
	Report     string             `json:"report"`      // 比价结论（模型原文）
	DurationMs int64              `json:"duration_ms"` // 总耗时（毫秒）
}

// PayloadLookupRespond 载荷匹配查询响应
type PayloadLookupRespond struct {
	Matches []ProductMatchItem `json:"matches"`
	Count   int                `json:"count"`
}
