package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubChatModel 固定返回预设补全内容，并记录收到的消息
type stubChatModel struct {
	content string
	err     error
	gotMsgs []*schema.Message
}

func (s *stubChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	s.gotMsgs = in
	if s.err != nil {
		return nil, s.err
	}
	return &schema.Message{Role: schema.Assistant, Content: s.content}, nil
}

func (s *stubChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

func TestExtractPreservesOrder(t *testing.T) {
	stub := &stubChatModel{content: `["apple","banana","milk"]`}
	e, err := NewProductExtractor(stub, 0)
	require.NoError(t, err)

	names, err := e.Extract(context.Background(), "I want to buy apple, banana and milk")
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "banana", "milk"}, names)

	require.Len(t, stub.gotMsgs, 2)
	assert.Equal(t, schema.System, stub.gotMsgs[0].Role)
	assert.True(t, strings.Contains(stub.gotMsgs[1].Content, "I want to buy apple, banana and milk"))
}

func TestExtractStripsCodeFence(t *testing.T) {
	stub := &stubChatModel{content: "```json\n[\"milk\"]\n```"}
	e, err := NewProductExtractor(stub, 0)
	require.NoError(t, err)

	names, err := e.Extract(context.Background(), "milk please")
	require.NoError(t, err)
	assert.Equal(t, []string{"milk"}, names)
}

func TestExtractEmptyArrayIsValid(t *testing.T) {
	for _, content := range []string{"[]", "null"} {
		stub := &stubChatModel{content: content}
		e, err := NewProductExtractor(stub, 0)
		require.NoError(t, err)

		names, err := e.Extract(context.Background(), "hello there")
		require.NoError(t, err)
		assert.NotNil(t, names)
		assert.Empty(t, names)
	}
}

func TestExtractMalformedOutput(t *testing.T) {
	stub := &stubChatModel{content: "Sure! Here are the products: apple and banana."}
	e, err := NewProductExtractor(stub, 0)
	require.NoError(t, err)

	_, err = e.Extract(context.Background(), "apple and banana")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedExtraction))
}

func TestExtractIsIdempotentPerContent(t *testing.T) {
	stub := &stubChatModel{content: `["apple","banana"]`}
	e, err := NewProductExtractor(stub, 0)
	require.NoError(t, err)

	first, err := e.Extract(context.Background(), "apple and banana")
	require.NoError(t, err)
	second, err := e.Extract(context.Background(), "apple and banana")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExtractModelErrorPropagates(t *testing.T) {
	boom := errors.New("upstream unavailable")
	stub := &stubChatModel{err: boom}
	e, err := NewProductExtractor(stub, 0)
	require.NoError(t, err)

	_, err = e.Extract(context.Background(), "apple")
	require.ErrorIs(t, err, boom)
}

func TestNewProductExtractorNilModel(t *testing.T) {
	_, err := NewProductExtractor(nil, 100)
	require.Error(t, err)
}

func TestStripCodeFence(t *testing.T) {
	cases := map[string]string{
		`["a"]`:                   `["a"]`,
		"```json\n[\"a\"]\n```":   `["a"]`,
		"```\n[\"a\",\"b\"]\n```": `["a","b"]`,
		"  [\"a\"]  ":             `["a"]`,
	}
	for in, want := range cases {
		assert.Equal(t, want, stripCodeFence(in))
	}
}
