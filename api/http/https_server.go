package http

import (
	"fmt"

	"PricePilot/internal/config"
	"PricePilot/internal/initial"
	jwtMiddleware "PricePilot/internal/middleware/jwt"
	aiService "PricePilot/internal/modules/ai/application/service"
	"PricePilot/internal/modules/ai/infrastructure/llm"
	"PricePilot/internal/modules/ai/infrastructure/pipeline"
	"PricePilot/internal/modules/ai/infrastructure/vectordb"
	aiHandler "PricePilot/internal/modules/ai/interface/http"
	chatService "PricePilot/internal/modules/chat/application/service"
	chatPersistence "PricePilot/internal/modules/chat/infrastructure/persistence"
	chatHandler "PricePilot/internal/modules/chat/interface/http"
	"PricePilot/internal/modules/user/application/service"
	"PricePilot/internal/modules/user/infrastructure/persistence"
	userHandler "PricePilot/internal/modules/user/interface/http"
	"PricePilot/pkg/ssl"
	"PricePilot/pkg/zlog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

var GE *gin.Engine

func init() {
	conf := config.GetConfig()

	GE = gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	GE.Use(cors.New(corsConfig))
	GE.Use(ssl.TlsHandler(conf.MainConfig.Host, conf.MainConfig.Port))

	userRepo := persistence.NewUserInfoRepository(initial.GormDB)
	messageRepo := chatPersistence.NewMessageRepository(initial.GormDB)

	userSvc := service.NewUserInfoService(userRepo)
	historySvc := chatService.NewHistoryService(messageRepo)

	store, err := vectordb.NewMilvusProductStore(
		initial.MilvusClient,
		"vector",
		vectorDim(conf),
		metricType(conf),
		scoreThreshold(conf),
	)
	if err != nil {
		zlog.Fatal(fmt.Sprintf("vector store init failed: %v", err))
	}

	maxTokens := conf.AIConfig.ChatModel.MaxTokens
	extractor, err := llm.NewProductExtractor(initial.ChatModel, maxTokens)
	if err != nil {
		zlog.Fatal(fmt.Sprintf("extractor init failed: %v", err))
	}
	synthesizer, err := llm.NewComparisonSynthesizer(initial.ChatModel, maxTokens)
	if err != nil {
		zlog.Fatal(fmt.Sprintf("synthesizer init failed: %v", err))
	}

	collection := conf.MilvusConfig.CollectionName
	pipe, err := pipeline.NewProductPipeline(
		extractor,
		initial.Vectorizer,
		store,
		synthesizer,
		collection,
		conf.RetrievalConfig.DiversityLimit,
	)
	if err != nil {
		zlog.Fatal(fmt.Sprintf("pipeline init failed: %v", err))
	}

	productSvc := aiService.NewProductService(pipe, store, collection, messageRepo)
	ingestSvc := aiService.NewIngestService(initial.Vectorizer, store, collection)

	tracker := aiService.NewIngestJobTracker()
	topic := conf.KafkaConfig.IngestTopic
	if topic == "" {
		topic = aiService.DefaultIngestTopic
	}
	asyncIngestSvc := aiService.NewAsyncIngestService(initial.KafkaPublisher, topic, tracker)

	userH := userHandler.NewUserInfoHandler(userSvc)
	historyH := chatHandler.NewHistoryHandler(historySvc)
	productH := aiHandler.NewProductHandler(productSvc, ingestSvc, asyncIngestSvc)

	GE.POST("/login", userH.Login)
	GE.POST("/register", userH.Register)
	GE.GET("/auth/validate-token", userH.ValidateToken)

	authed := GE.Group("/")
	authed.Use(jwtMiddleware.Auth())
	authed.GET("/auth/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"uuid":  c.GetString("uuid"),
			"email": c.GetString("email"),
		})
	})
	authed.POST("/ai/products", productH.ProductPrompt)
	authed.POST("/ai/lookup", productH.PayloadLookup)
	authed.POST("/ai/ingest", productH.IngestProducts)
	authed.POST("/ai/ingest/async", productH.IngestProductsAsync)
	authed.GET("/ai/ingest/jobs/:id", productH.GetIngestJob)
	authed.POST("/message/getMessageList", historyH.GetMessageList)
}

func vectorDim(conf *config.Config) int {
	if d := conf.AIConfig.Embedding.Dimensions; d > 0 {
		return d
	}
	if d := conf.MilvusConfig.VectorDim; d > 0 {
		return d
	}
	return 384
}

func metricType(conf *config.Config) entity.MetricType {
	if m := conf.MilvusConfig.MetricType; m != "" {
		return entity.MetricType(m)
	}
	return entity.COSINE
}

func scoreThreshold(conf *config.Config) float32 {
	if t := conf.RetrievalConfig.ScoreThreshold; t > 0 {
		return t
	}
	return 0.5
}
