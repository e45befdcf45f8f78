package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	https_server "PricePilot/api/http"
	"PricePilot/internal/config"
	"PricePilot/internal/initial"
	aiService "PricePilot/internal/modules/ai/application/service"
	"PricePilot/internal/modules/ai/infrastructure/mq/kafka"
	"PricePilot/internal/modules/ai/infrastructure/queue"
	"PricePilot/internal/modules/ai/infrastructure/vectordb"
	"PricePilot/pkg/redis"
	"PricePilot/pkg/zlog"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

func main() {
	// 1. 加载配置
	conf := config.GetConfig()
	host := conf.MainConfig.Host
	port := conf.MainConfig.Port

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. 启动异步灌库 worker（未配置 Kafka 则跳过）
	startIngestWorker(ctx, conf)

	// 3. 启动 HTTP 服务
	go func() {
		addr := fmt.Sprintf("%s:%d", host, port)
		zlog.Info(fmt.Sprintf("服务器正在启动，监听地址: %s", addr))
		// 目前使用 HTTP 启动。如果需要 HTTPS，请配置证书并使用 GE.RunTLS
		if err := https_server.GE.Run(addr); err != nil {
			zlog.Fatal("服务器启动失败: " + err.Error())
			return
		}
	}()

	// 4. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// 等待退出信号
	<-quit

	zlog.Info("正在关闭服务器...")
	cancel()
	if initial.KafkaPublisher != nil {
		_ = initial.KafkaPublisher.Close()
	}
	_ = redis.Close()

	zlog.Info("服务器已关闭")
}

// startIngestWorker 组装并启动 Kafka 灌库消费协程
func startIngestWorker(ctx context.Context, conf *config.Config) {
	brokers := conf.KafkaConfig.Brokers
	if len(brokers) == 0 {
		return
	}

	metric := entity.COSINE
	if m := conf.MilvusConfig.MetricType; m != "" {
		metric = entity.MetricType(m)
	}
	dim := conf.AIConfig.Embedding.Dimensions
	if dim <= 0 {
		dim = conf.MilvusConfig.VectorDim
	}
	if dim <= 0 {
		dim = 384
	}

	store, err := vectordb.NewMilvusProductStore(initial.MilvusClient, "vector", dim, metric, conf.RetrievalConfig.ScoreThreshold)
	if err != nil {
		zlog.Error(fmt.Sprintf("灌库 worker 初始化失败: %v", err))
		return
	}

	ingestSvc := aiService.NewIngestService(initial.Vectorizer, store, conf.MilvusConfig.CollectionName)
	worker := queue.NewIngestWorker(ingestSvc, aiService.NewIngestJobTracker())

	topic := conf.KafkaConfig.IngestTopic
	if topic == "" {
		topic = aiService.DefaultIngestTopic
	}
	groupID := conf.KafkaConfig.ConsumerGroupID
	if groupID == "" {
		groupID = "pricepilot-ingest"
	}

	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topics:   []string{topic},
		ClientID: conf.KafkaConfig.ClientID,
	})
	if err != nil {
		zlog.Error(fmt.Sprintf("Kafka consumer 初始化失败: %v", err))
		return
	}

	go func() {
		defer func() { _ = consumer.Close() }()
		zlog.Info(fmt.Sprintf("灌库 worker 已启动, topic=%s group=%s", topic, groupID))
		if err := consumer.Run(ctx, worker); err != nil && ctx.Err() == nil {
			zlog.Error(fmt.Sprintf("灌库 worker 退出: %v", err))
		}
	}()
}
