package product

// ProductMatch 一条向量库召回记录，只保留对比价所需的载荷字段。
// 仅在单次请求内存活，不落库。
type ProductMatch struct {
	Name   string  `json:"name"`
	Price  string  `json:"price"`
	Source string  `json:"source"`
	Score  float32 `json:"-"`
}

// ProductRecord 商品目录写入记录（灌库用）
type ProductRecord struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Source      string `json:"source"`
	Description string `json:"description"`
}

// 灌库任务状态（Redis 中跟踪）
const (
	IngestJobStatusPending    = "pending"
	IngestJobStatusProcessing = "processing"
	IngestJobStatusSucceeded  = "succeeded"
	IngestJobStatusFailed     = "failed"
)
