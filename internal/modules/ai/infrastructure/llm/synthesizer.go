package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PricePilot/pkg/zlog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

const synthesizerUserTemplate = `
        Given are json array of products each mentioned with different name, price and source ,
         i want you to group all the product by its source add the price by each source analyse and compare and tell me which source is cheapest :
         %s
         briefly explain and just give the Conclusion.
`

// ComparisonSynthesizer 把扁平的 (name, price, source) 记录列表
// 交给模型做分来源汇总比价，返回一段自然语言结论。
// 输出不做结构化解析，补全原文即返回值；调用失败没有兜底文案。
type ComparisonSynthesizer struct {
	chatModel model.BaseChatModel
	maxTokens int
}

func NewComparisonSynthesizer(chatModel model.BaseChatModel, maxTokens int) (*ComparisonSynthesizer, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is nil")
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxCompletionTokens
	}
	return &ComparisonSynthesizer{chatModel: chatModel, maxTokens: maxTokens}, nil
}

func (s *ComparisonSynthesizer) Synthesize(ctx context.Context, serializedMatches string) (string, error) {
	start := time.Now()

	msgs := []*schema.Message{
		{Role: schema.System, Content: extractorSystemPrompt},
		{Role: schema.User, Content: fmt.Sprintf(synthesizerUserTemplate, serializedMatches)},
	}

	resp, err := s.chatModel.Generate(ctx, msgs, model.WithMaxTokens(s.maxTokens))
	if err != nil {
		zlog.Error("comparison synthesis failed",
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.Error(err))
		return "", err
	}

	zlog.Debug("comparison synthesized",
		zap.Int("report_len", len(resp.Content)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()))
	return resp.Content, nil
}
