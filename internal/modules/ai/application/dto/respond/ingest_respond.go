package respond

// IngestRespond 同步灌库响应
type IngestRespond struct {
	Inserted   int   `json:"inserted"`    // 实际写入条数
	DurationMs int64 `json:"duration_ms"` // 灌库耗时（毫秒）
}

// AsyncIngestRespond 异步灌库提交响应
type AsyncIngestRespond struct {
	JobID string `json:"job_id"` // 任务 ID，用于查询进度
	Count int    `json:"count"`  // 提交的记录条数
}

// IngestJobRespond 异步灌库任务状态
type IngestJobRespond struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"` // pending / processing / succeeded / failed
	Total     int    `json:"total"`
	Inserted  int    `json:"inserted"`
	LastError string `json:"last_error,omitempty"`
}
