package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"PricePilot/pkg/zlog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

// ErrMalformedExtraction 表示模型输出无法解析为字符串数组。
// 该错误对整个请求是致命的：没有商品名就无法继续管线。
var ErrMalformedExtraction = errors.New("malformed product extraction")

const DefaultMaxCompletionTokens = 4096

const extractorSystemPrompt = "You are an AI assistant."

const extractorUserTemplate = `
Extract only product names from the query
Example:
Input: "I want to buy apple and banana"
Output:["apple","banana"]
Now process this query: "%s"
and response only with product array
`

// ProductExtractor 从自由文本查询中抽取商品名列表（单次补全，不重试）。
type ProductExtractor struct {
	chatModel model.BaseChatModel
	maxTokens int
}

func NewProductExtractor(chatModel model.BaseChatModel, maxTokens int) (*ProductExtractor, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is nil")
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxCompletionTokens
	}
	return &ProductExtractor{chatModel: chatModel, maxTokens: maxTokens}, nil
}

// Extract 返回按出现顺序排列的商品名。空数组是合法输出（查询没提到商品）。
func (e *ProductExtractor) Extract(ctx context.Context, query string) ([]string, error) {
	start := time.Now()

	msgs := []*schema.Message{
		{Role: schema.System, Content: extractorSystemPrompt},
		{Role: schema.User, Content: fmt.Sprintf(extractorUserTemplate, query)},
	}

	resp, err := e.chatModel.Generate(ctx, msgs, model.WithMaxTokens(e.maxTokens))
	if err != nil {
		zlog.Error("product extraction failed",
			zap.String("query", query),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.Error(err))
		return nil, err
	}

	names, err := parseProductArray(resp.Content)
	if err != nil {
		zlog.Error("product extraction failed",
			zap.String("query", query),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.Error(err))
		return nil, err
	}

	zlog.Debug("products extracted",
		zap.String("query", query),
		zap.Strings("products", names),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()))
	return names, nil
}

// parseProductArray 显式地把补全内容校验为字符串数组，
// 解析失败不抛裸的 JSON 错误，而是归类为 ErrMalformedExtraction。
func parseProductArray(content string) ([]string, error) {
	cleaned := stripCodeFence(content)

	var names []string
	if err := json.Unmarshal([]byte(cleaned), &names); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExtraction, err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// stripCodeFence 去掉模型偶尔包在 JSON 外面的 markdown 代码块标记。
func stripCodeFence(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
