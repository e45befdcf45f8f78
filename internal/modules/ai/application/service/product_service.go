package service

import (
	"context"
	"strings"
	"time"

	"PricePilot/internal/modules/ai/application/dto/request"
	"PricePilot/internal/modules/ai/application/dto/respond"
	"PricePilot/internal/modules/ai/domain/repository"
	"PricePilot/internal/modules/ai/infrastructure/pipeline"
	chatEntity "PricePilot/internal/modules/chat/domain/entity"
	chatRepository "PricePilot/internal/modules/chat/domain/repository"
	"PricePilot/pkg/util"
	"PricePilot/pkg/xerr"
	"PricePilot/pkg/zlog"

	"go.uber.org/zap"
)

// ProductService 比价查询服务接口
type ProductService interface {
	// ProductPrompt 执行完整比价管线并把问答写入历史记录
	ProductPrompt(ctx context.Context, prompt string, userUuid string) (*respond.ProductPromptRespond, error)
	// PayloadLookup 按载荷字段精确检索（不走向量相似度，也不走比价管线）
	PayloadLookup(ctx context.Context, req request.PayloadLookupRequest) (*respond.PayloadLookupRespond, error)
}

type productServiceImpl struct {
	pipeline    *pipeline.ProductPipeline
	store       repository.ProductVectorStore
	collection  string
	messageRepo chatRepository.MessageRepository // 可为 nil，历史记录是尽力而为
}

func NewProductService(p *pipeline.ProductPipeline, store repository.ProductVectorStore, collection string, messageRepo chatRepository.MessageRepository) ProductService {
	if strings.TrimSpace(collection) == "" {
		collection = pipeline.DefaultCollection
	}
	return &productServiceImpl{pipeline: p, store: store, collection: collection, messageRepo: messageRepo}
}

func (s *productServiceImpl) ProductPrompt(ctx context.Context, prompt string, userUuid string) (*respond.ProductPromptRespond, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, xerr.ErrParam
	}

	result, err := s.pipeline.ProductPrompt(ctx, prompt)
	if err != nil {
		// 管线错误原样传出，调用方能看到最初的失败原因
		return nil, err
	}

	matches := make([]respond.ProductMatchItem, 0, len(result.Matches))
	for _, m := range result.Matches {
		matches = append(matches, respond.ProductMatchItem{
			Name:   m.Name,
			Price:  m.Price,
			Source: m.Source,
		})
	}

	s.saveHistory(userUuid, prompt, result.Report)

	return &respond.ProductPromptRespond{
		QueryID:    result.QueryID,
		Prompt:     prompt,
		Products:   result.Products,
		Matches:    matches,
		Report:     result.Report,
		DurationMs: result.DurationMs,
	}, nil
}

// saveHistory 把问答各写入一条历史记录，失败只记日志不阻断请求。
func (s *productServiceImpl) saveHistory(userUuid, prompt, report string) {
	if s.messageRepo == nil || strings.TrimSpace(userUuid) == "" {
		return
	}
	now := time.Now()
	userMsg := &chatEntity.Message{
		Uuid:      util.GenerateShortUUID(),
		UserUuid:  userUuid,
		Role:      "user",
		Content:   prompt,
		CreatedAt: now,
	}
	if err := s.messageRepo.Create(userMsg); err != nil {
		zlog.Error("failed to save user message", zap.Error(err))
	}
	assistantMsg := &chatEntity.Message{
		Uuid:      util.GenerateShortUUID(),
		UserUuid:  userUuid,
		Role:      "assistant",
		Content:   report,
		CreatedAt: now,
	}
	if err := s.messageRepo.Create(assistantMsg); err != nil {
		zlog.Error("failed to save assistant message", zap.Error(err))
	}
}

func (s *productServiceImpl) PayloadLookup(ctx context.Context, req request.PayloadLookupRequest) (*respond.PayloadLookupRespond, error) {
	if strings.TrimSpace(req.Key) == "" || strings.TrimSpace(req.Value) == "" {
		return nil, xerr.ErrParam
	}

	found := s.store.RetrieveByPayload(ctx, s.collection, req.Key, req.Value, req.Limit)
	matches := make([]respond.ProductMatchItem, 0, len(found))
	for _, m := range found {
		matches = append(matches, respond.ProductMatchItem{
			Name:   m.Name,
			Price:  m.Price,
			Source: m.Source,
		})
	}
	return &respond.PayloadLookupRespond{Matches: matches, Count: len(matches)}, nil
}
