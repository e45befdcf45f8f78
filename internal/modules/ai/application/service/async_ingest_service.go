package service

import (
	"context"
	"encoding/json"
	"fmt"

	"PricePilot/internal/modules/ai/application/dto/respond"
	"PricePilot/internal/modules/ai/domain/product"
	"PricePilot/internal/modules/ai/infrastructure/mq"
	"PricePilot/pkg/util"
	"PricePilot/pkg/xerr"
	"PricePilot/pkg/zlog"

	"go.uber.org/zap"
)

// DefaultIngestTopic 异步灌库事件默认 topic
const DefaultIngestTopic = "pricepilot.ingest.products"

// IngestBatchEvent 异步灌库任务的 Kafka 消息体
type IngestBatchEvent struct {
	JobID   string                  `json:"job_id"`
	Records []product.ProductRecord `json:"records"`
}

// AsyncIngestService 把灌库请求投递到 Kafka，由后台 worker 消费处理
type AsyncIngestService interface {
	SubmitBatch(ctx context.Context, records []product.ProductRecord) (*respond.AsyncIngestRespond, error)
	GetJob(ctx context.Context, jobID string) (*respond.IngestJobRespond, error)
}

type asyncIngestServiceImpl struct {
	publisher mq.Publisher
	topic     string
	tracker   *IngestJobTracker
}

func NewAsyncIngestService(publisher mq.Publisher, topic string, tracker *IngestJobTracker) AsyncIngestService {
	return &asyncIngestServiceImpl{
		publisher: publisher,
		topic:     topic,
		tracker:   tracker,
	}
}

func (s *asyncIngestServiceImpl) SubmitBatch(ctx context.Context, records []product.ProductRecord) (*respond.AsyncIngestRespond, error) {
	if len(records) == 0 {
		return nil, xerr.New(xerr.BadRequest, "商品列表不能为空")
	}
	if s.publisher == nil {
		return nil, xerr.New(xerr.InternalServerError, "异步灌库未启用")
	}

	jobID := "ij_" + util.GenerateShortUUID()
	event := IngestBatchEvent{JobID: jobID, Records: records}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode ingest event: %w", err)
	}

	if err := s.tracker.MarkPending(ctx, jobID, len(records)); err != nil {
		zlog.Warn("标记灌库任务状态失败", zap.String("job_id", jobID), zap.Error(err))
	}

	result, err := s.publisher.Publish(ctx, mq.Message{
		Topic: s.topic,
		Key:   []byte(jobID),
		Value: payload,
	})
	if err != nil {
		zlog.Error("投递灌库任务失败", zap.String("job_id", jobID), zap.Error(err))
		if terr := s.tracker.MarkFailed(ctx, jobID, err.Error()); terr != nil {
			zlog.Warn("标记灌库任务状态失败", zap.String("job_id", jobID), zap.Error(terr))
		}
		return nil, err
	}

	zlog.Info("灌库任务已投递",
		zap.String("job_id", jobID),
		zap.Int("count", len(records)),
		zap.Int32("partition", result.Partition),
		zap.Int64("offset", result.Offset))

	return &respond.AsyncIngestRespond{
		JobID: jobID,
		Count: len(records),
	}, nil
}

func (s *asyncIngestServiceImpl) GetJob(ctx context.Context, jobID string) (*respond.IngestJobRespond, error) {
	job, err := s.tracker.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, xerr.New(xerr.NotFound, "灌库任务不存在")
	}
	return job, nil
}
