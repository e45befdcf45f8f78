package initial

import (
	"context"
	"fmt"

	"PricePilot/internal/config"
	aiembedding "PricePilot/internal/modules/ai/infrastructure/embedding"
	"PricePilot/internal/modules/ai/infrastructure/llm"
	"PricePilot/pkg/zlog"

	"github.com/cloudwego/eino/components/model"
	"go.uber.org/zap"
)

// AI 相关全局句柄，启动时阻塞初始化，失败直接退出
var (
	ChatModel  model.BaseChatModel
	Vectorizer *aiembedding.Vectorizer
)

func init() {
	conf := config.GetConfig()
	ctx := context.Background()

	chatModel, chatMeta, err := llm.NewChatModelFromConfig(ctx, conf)
	if err != nil {
		zlog.Fatal(fmt.Sprintf("chat model init failed: %v", err))
		return
	}
	ChatModel = chatModel
	zlog.Info("chat model ready",
		zap.String("provider", chatMeta.Provider),
		zap.String("model", chatMeta.Model))

	embedder, embedMeta, err := aiembedding.NewEmbedderFromConfig(ctx, conf)
	if err != nil {
		zlog.Fatal(fmt.Sprintf("embedder init failed: %v", err))
		return
	}

	dim := conf.AIConfig.Embedding.Dimensions
	if dim <= 0 {
		dim = conf.MilvusConfig.VectorDim
	}
	vectorizer, err := aiembedding.NewVectorizer(embedder, dim)
	if err != nil {
		zlog.Fatal(fmt.Sprintf("vectorizer init failed: %v", err))
		return
	}
	Vectorizer = vectorizer
	zlog.Info("embedder ready",
		zap.String("provider", embedMeta.Provider),
		zap.String("model", embedMeta.Model),
		zap.Int("dimensions", dim))
}
