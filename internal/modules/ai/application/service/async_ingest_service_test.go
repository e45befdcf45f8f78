package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"PricePilot/internal/modules/ai/domain/product"
	"PricePilot/internal/modules/ai/infrastructure/mq"
	"PricePilot/pkg/xerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	msgs []mq.Message
	err  error
}

func (f *fakePublisher) Publish(ctx context.Context, msg mq.Message) (mq.PublishResult, error) {
	if f.err != nil {
		return mq.PublishResult{}, f.err
	}
	f.msgs = append(f.msgs, msg)
	return mq.PublishResult{Partition: 0, Offset: int64(len(f.msgs))}, nil
}

func (f *fakePublisher) Close() error { return nil }

func TestSubmitBatchPublishesEvent(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewAsyncIngestService(pub, "test.topic", NewIngestJobTracker())

	records := []product.ProductRecord{
		{Name: "apple", Price: "1.00", Source: "carrefour"},
		{Name: "banana", Price: "0.50", Source: "lulu"},
	}
	resp, err := svc.SubmitBatch(context.Background(), records)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.JobID, "ij_"))
	assert.Equal(t, 2, resp.Count)

	require.Len(t, pub.msgs, 1)
	msg := pub.msgs[0]
	assert.Equal(t, "test.topic", msg.Topic)
	assert.Equal(t, resp.JobID, string(msg.Key))

	var event IngestBatchEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, resp.JobID, event.JobID)
	require.Len(t, event.Records, 2)
	assert.Equal(t, "banana", event.Records[1].Name)
}

func TestSubmitBatchEmptyRecords(t *testing.T) {
	svc := NewAsyncIngestService(&fakePublisher{}, "test.topic", NewIngestJobTracker())

	_, err := svc.SubmitBatch(context.Background(), nil)
	require.Error(t, err)

	var codeErr *xerr.CodeError
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, xerr.BadRequest, codeErr.Code)
}

func TestSubmitBatchWithoutPublisher(t *testing.T) {
	svc := NewAsyncIngestService(nil, "test.topic", NewIngestJobTracker())

	_, err := svc.SubmitBatch(context.Background(), []product.ProductRecord{{Name: "apple"}})
	require.Error(t, err)
}

func TestSubmitBatchPublishFailure(t *testing.T) {
	boom := errors.New("broker unreachable")
	svc := NewAsyncIngestService(&fakePublisher{err: boom}, "test.topic", NewIngestJobTracker())

	_, err := svc.SubmitBatch(context.Background(), []product.ProductRecord{{Name: "apple"}})
	require.ErrorIs(t, err, boom)
}
