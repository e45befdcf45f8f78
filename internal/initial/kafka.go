package initial

import (
	"fmt"

	"PricePilot/internal/config"
	aiService "PricePilot/internal/modules/ai/application/service"
	"PricePilot/internal/modules/ai/infrastructure/mq"
	"PricePilot/internal/modules/ai/infrastructure/mq/kafka"
	"PricePilot/pkg/zlog"
)

// KafkaPublisher 异步灌库事件发布器，未配置 broker 时为 nil
var KafkaPublisher mq.Publisher

func init() {
	conf := config.GetConfig()
	brokers := conf.KafkaConfig.Brokers

	// 未配置 broker 则跳过，异步灌库接口会返回未启用错误
	if len(brokers) == 0 {
		zlog.Info("Kafka 未配置，跳过初始化")
		return
	}

	topic := conf.KafkaConfig.IngestTopic
	if topic == "" {
		topic = aiService.DefaultIngestTopic
	}

	if err := kafka.EnsureTopic(kafka.TopicAdminConfig{
		Brokers:  brokers,
		ClientID: conf.KafkaConfig.ClientID,
	}, topic, conf.KafkaConfig.Partitions, conf.KafkaConfig.Replication); err != nil {
		zlog.Error(fmt.Sprintf("Kafka topic 初始化失败: %v", err))
		return
	}

	publisher, err := kafka.NewPublisher(brokers, conf.KafkaConfig.ClientID)
	if err != nil {
		zlog.Error(fmt.Sprintf("Kafka publisher 初始化失败: %v", err))
		return
	}
	KafkaPublisher = publisher
	zlog.Info("Kafka 连接成功")
}
