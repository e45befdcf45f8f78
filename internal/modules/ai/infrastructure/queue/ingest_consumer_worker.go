package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"PricePilot/internal/modules/ai/application/service"
	"PricePilot/internal/modules/ai/infrastructure/mq"
	"PricePilot/pkg/zlog"

	"go.uber.org/zap"
)

// ingestChunkSize 每个分块的记录数，分块之间上报一次进度
const ingestChunkSize = 50

// IngestWorker 消费 Kafka 上的灌库任务并写入向量库
type IngestWorker struct {
	ingest  service.IngestService
	tracker *service.IngestJobTracker
}

func NewIngestWorker(ingest service.IngestService, tracker *service.IngestJobTracker) *IngestWorker {
	return &IngestWorker{ingest: ingest, tracker: tracker}
}

// Handle 实现 mq.Handler。解析失败的消息不可重试，记录后丢弃。
func (w *IngestWorker) Handle(ctx context.Context, msg mq.Message) error {
	var event service.IngestBatchEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		zlog.Error("灌库消息解析失败",
			zap.String("topic", msg.Topic),
			zap.Error(err))
		return nil
	}
	if event.JobID == "" {
		zlog.Error("灌库消息缺少 job_id", zap.String("topic", msg.Topic))
		return nil
	}

	if err := w.tracker.MarkProcessing(ctx, event.JobID); err != nil {
		zlog.Warn("标记灌库任务状态失败", zap.String("job_id", event.JobID), zap.Error(err))
	}

	inserted := 0
	for start := 0; start < len(event.Records); start += ingestChunkSize {
		end := start + ingestChunkSize
		if end > len(event.Records) {
			end = len(event.Records)
		}
		result, err := w.ingest.IngestProducts(ctx, event.Records[start:end])
		if err != nil {
			zlog.Error("灌库任务执行失败",
				zap.String("job_id", event.JobID),
				zap.Int("count", len(event.Records)),
				zap.Int("inserted", inserted),
				zap.Error(err))
			if terr := w.tracker.MarkFailed(ctx, event.JobID, err.Error()); terr != nil {
				zlog.Warn("标记灌库任务状态失败", zap.String("job_id", event.JobID), zap.Error(terr))
			}
			return fmt.Errorf("ingest job %s: %w", event.JobID, err)
		}
		inserted += result.Inserted
		if terr := w.tracker.IncrInserted(ctx, event.JobID, result.Inserted); terr != nil {
			zlog.Warn("上报灌库进度失败", zap.String("job_id", event.JobID), zap.Error(terr))
		}
	}

	if terr := w.tracker.MarkSucceeded(ctx, event.JobID, inserted); terr != nil {
		zlog.Warn("标记灌库任务状态失败", zap.String("job_id", event.JobID), zap.Error(terr))
	}
	zlog.Info("灌库任务完成",
		zap.String("job_id", event.JobID),
		zap.Int("inserted", inserted))
	return nil
}
