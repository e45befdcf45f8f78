package service

import (
	"context"
	"strconv"
	"time"

	"PricePilot/internal/modules/ai/application/dto/respond"
	"PricePilot/internal/modules/ai/domain/product"
	"PricePilot/pkg/redis"
)

const (
	ingestJobKeyPrefix = "pricepilot:ingest:job:"
	ingestJobTTL       = 24 * time.Hour
)

// IngestJobTracker 在 Redis 中跟踪异步灌库任务的状态与进度。
// Redis 不可用时这些操作失败，但任务本身照常执行（状态只是查不到）。
type IngestJobTracker struct{}

func NewIngestJobTracker() *IngestJobTracker {
	return &IngestJobTracker{}
}

func (t *IngestJobTracker) key(jobID string) string {
	return ingestJobKeyPrefix + jobID
}

func (t *IngestJobTracker) MarkPending(ctx context.Context, jobID string, total int) error {
	key := t.key(jobID)
	if _, err := redis.HSet(ctx, key,
		"status", product.IngestJobStatusPending,
		"total", total,
		"inserted", 0,
	); err != nil {
		return err
	}
	_, err := redis.Expire(ctx, key, ingestJobTTL)
	return err
}

func (t *IngestJobTracker) MarkProcessing(ctx context.Context, jobID string) error {
	_, err := redis.HSet(ctx, t.key(jobID), "status", product.IngestJobStatusProcessing)
	return err
}

// IncrInserted 累加已写入条数，消费端按分块上报进度。
func (t *IngestJobTracker) IncrInserted(ctx context.Context, jobID string, n int) error {
	_, err := redis.HIncrBy(ctx, t.key(jobID), "inserted", int64(n))
	return err
}

func (t *IngestJobTracker) MarkSucceeded(ctx context.Context, jobID string, inserted int) error {
	_, err := redis.HSet(ctx, t.key(jobID),
		"status", product.IngestJobStatusSucceeded,
		"inserted", inserted,
	)
	return err
}

func (t *IngestJobTracker) MarkFailed(ctx context.Context, jobID string, errMsg string) error {
	_, err := redis.HSet(ctx, t.key(jobID),
		"status", product.IngestJobStatusFailed,
		"last_error", errMsg,
	)
	return err
}

// Get 返回任务状态；任务不存在时返回 nil。
func (t *IngestJobTracker) Get(ctx context.Context, jobID string) (*respond.IngestJobRespond, error) {
	fields, err := redis.HGetAll(ctx, t.key(jobID))
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	total, _ := strconv.Atoi(fields["total"])
	inserted, _ := strconv.Atoi(fields["inserted"])
	return &respond.IngestJobRespond{
		JobID:     jobID,
		Status:    fields["status"],
		Total:     total,
		Inserted:  inserted,
		LastError: fields["last_error"],
	}, nil
}
