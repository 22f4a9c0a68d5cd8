// Package notifier broadcasts flash-sale lifecycle events one-way over
// Pub/Sub. Delivery is fire-and-forget: callers never block on the broker
// and never see publish failures.
package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/flashdealz-backend/pkg/db/models"
	"github.com/angelmondragon/flashdealz-backend/pkg/enums"
	"github.com/angelmondragon/flashdealz-backend/pkg/logger"
)

const publishTimeout = 10 * time.Second

// ItemEvent is the wire payload for both lifecycle events.
type ItemEvent struct {
	EventType  enums.FlashSaleEventType `json:"eventType"`
	ItemID     uuid.UUID                `json:"itemId"`
	Name       string                   `json:"name"`
	FlashPrice decimal.Decimal          `json:"flashPrice"`
	OccurredAt time.Time                `json:"occurredAt"`
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

type gcpPublisher struct {
	pub *gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.pub == nil {
		return nil
	}
	return p.pub.Publish(ctx, msg)
}

// Emitter publishes lifecycle events to the flash-sale topic.
type Emitter struct {
	pub  publisher
	logg *logger.Logger
	now  func() time.Time
}

// New builds an emitter over the given Pub/Sub publisher handle.
func New(pub *gcppubsub.Publisher, logg *logger.Logger) (*Emitter, error) {
	if pub == nil {
		return nil, errors.New("publisher required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &Emitter{pub: &gcpPublisher{pub: pub}, logg: logg, now: time.Now}, nil
}

// NewNoop builds an emitter that drops every event, for deployments
// without a broker configured.
func NewNoop(logg *logger.Logger) (*Emitter, error) {
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &Emitter{logg: logg, now: time.Now}, nil
}

// EmitItemPublished announces a newly created sale item.
func (e *Emitter) EmitItemPublished(ctx context.Context, item *models.FlashSaleItem) {
	e.emit(ctx, enums.EventItemPublished, item)
}

// EmitSaleEnded announces that a sale stopped, by exhaustion or by force.
func (e *Emitter) EmitSaleEnded(ctx context.Context, item *models.FlashSaleItem) {
	e.emit(ctx, enums.EventSaleEnded, item)
}

func (e *Emitter) emit(ctx context.Context, eventType enums.FlashSaleEventType, item *models.FlashSaleItem) {
	if item == nil {
		return
	}
	if e.pub == nil {
		e.logg.Debug(ctx, "event emitter disabled, dropping event")
		return
	}

	event := ItemEvent{
		EventType:  eventType,
		ItemID:     item.ID,
		Name:       item.Name,
		FlashPrice: item.FlashPrice,
		OccurredAt: e.now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		e.logg.Warn(e.logg.WithField(ctx, "error", err.Error()), "failed to encode lifecycle event")
		return
	}

	msg := &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_type": string(eventType),
			"item_id":    item.ID.String(),
		},
	}

	// Detach from the request context so an aborted request does not
	// abort the broadcast, then wait for the broker off the hot path.
	logCtx := e.logg.WithFields(context.WithoutCancel(ctx), map[string]any{
		"event_type": eventType,
		"item_id":    item.ID.String(),
	})
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	result := e.pub.Publish(publishCtx, msg)
	if result == nil {
		cancel()
		e.logg.Warn(logCtx, "publisher unavailable, dropping event")
		return
	}
	go func() {
		defer cancel()
		if _, err := result.Get(publishCtx); err != nil {
			e.logg.Warn(e.logg.WithField(logCtx, "error", err.Error()), "lifecycle event publish failed")
			return
		}
		e.logg.Debug(logCtx, "lifecycle event published")
	}()
}
