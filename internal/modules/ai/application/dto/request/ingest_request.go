package request

// ProductRecordItem 单条商品目录记录
type ProductRecordItem struct {
	Name        string `json:"name" binding:"required"`   // 商品名（必填）
	Price       string `json:"price" binding:"required"`  // 价格（十进制字符串，如 "1.20"）
	Source      string `json:"source" binding:"required"` // 来源标签（如 carrefour / lulu / spinneys）
	Description string `json:"description"`               // 描述（可选）
}

// IngestProductsRequest 商品目录灌库请求（同步与异步共用）
type IngestProductsRequest struct {
	Records []ProductRecordItem `json:"records" binding:"required"`
}
