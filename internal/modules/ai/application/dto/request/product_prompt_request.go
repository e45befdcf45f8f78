package request

// ProductPromptRequest 比价查询请求
type ProductPromptRequest struct {
	Prompt string `json:"prompt" binding:"required"` // 自由文本购物查询（必填）
}

// PayloadLookupRequest 载荷精确匹配查询请求（不走向量相似度）
type PayloadLookupRequest struct {
	Key   string `json:"key" binding:"required"`   // 载荷字段名（name/price/source/description）
	Value string `json:"value" binding:"required"` // 匹配值
	Limit int    `json:"limit"`                    // 返回条数上限（默认 10）
}
