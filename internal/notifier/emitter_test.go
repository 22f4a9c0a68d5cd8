package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/flashdealz-backend/pkg/db/models"
	"github.com/angelmondragon/flashdealz-backend/pkg/enums"
	"github.com/angelmondragon/flashdealz-backend/pkg/logger"
)

type stubResult struct {
	err error
}

func (r *stubResult) Get(context.Context) (string, error) {
	return "msg-1", r.err
}

type stubPublisher struct {
	mu       sync.Mutex
	messages []*gcppubsub.Message
	err      error
	done     chan struct{}
}

func (p *stubPublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	p.mu.Lock()
	p.messages = append(p.messages, msg)
	p.mu.Unlock()
	if p.done != nil {
		close(p.done)
	}
	return &stubResult{err: p.err}
}

func newTestEmitter(pub publisher) *Emitter {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return &Emitter{pub: pub, logg: logg, now: time.Now}
}

func TestEmitItemPublishedPayload(t *testing.T) {
	t.Parallel()

	pub := &stubPublisher{done: make(chan struct{})}
	emitter := newTestEmitter(pub)
	item := &models.FlashSaleItem{
		ID:         uuid.New(),
		Name:       "limited drop",
		FlashPrice: decimal.NewFromInt(30),
	}

	emitter.EmitItemPublished(context.Background(), item)

	select {
	case <-pub.done:
	case <-time.After(time.Second):
		t.Fatal("expected a publish call")
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.messages, 1)
	msg := pub.messages[0]
	require.Equal(t, string(enums.EventItemPublished), msg.Attributes["event_type"])
	require.Equal(t, item.ID.String(), msg.Attributes["item_id"])

	var event ItemEvent
	require.NoError(t, json.Unmarshal(msg.Data, &event))
	require.Equal(t, enums.EventItemPublished, event.EventType)
	require.Equal(t, item.ID, event.ItemID)
	require.Equal(t, "limited drop", event.Name)
	require.True(t, event.FlashPrice.Equal(decimal.NewFromInt(30)))
}

func TestEmitSwallowsPublishFailure(t *testing.T) {
	t.Parallel()

	pub := &stubPublisher{err: errors.New("broker down")}
	emitter := newTestEmitter(pub)

	// Fire-and-forget: a broker failure must never reach the caller.
	emitter.EmitSaleEnded(context.Background(), &models.FlashSaleItem{ID: uuid.New()})
}

func TestNoopEmitterDropsEvents(t *testing.T) {
	t.Parallel()

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	emitter, err := NewNoop(logg)
	require.NoError(t, err)

	emitter.EmitItemPublished(context.Background(), &models.FlashSaleItem{ID: uuid.New()})
	emitter.EmitSaleEnded(context.Background(), &models.FlashSaleItem{ID: uuid.New()})
}
