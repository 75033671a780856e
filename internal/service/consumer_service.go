package service

import (
	"context"
	"encoding/json"
	"time"

	"kidsgpt-be/internal/dto"
	"kidsgpt-be/internal/pkg/logger"
	"kidsgpt-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// EventPublisher is the outbound bus. *nats.Publisher implements it.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService reads scored replies and raises a misuse event when a
// score reaches the alert threshold.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	families  IFamilyService
	events    EventPublisher
	threshold int
	logger    logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	families IFamilyService,
	eventPublisher EventPublisher,
	threshold int,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		families:  families,
		events:    eventPublisher,
		threshold: threshold,
		logger:    log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks. A gochannel nack redelivers immediately, so a
// failed alert is logged and dropped instead.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var payload dto.ScoredReplyMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ALERT", "Failed to unmarshal scored reply", map[string]interface{}{"error": err.Error()})
		return
	}
	if payload.Score < cs.threshold {
		return
	}

	child, err := cs.families.Profile(ctx, payload.ChildId)
	if err != nil {
		cs.logger.Warn("ALERT", "Scored reply from unknown profile", map[string]interface{}{
			"child_id": payload.ChildId.String(),
			"error":    err.Error(),
		})
		return
	}
	if child.IsParent() {
		return
	}

	parents, err := cs.families.FamilyParents(ctx, payload.ChildId)
	if err != nil {
		cs.logger.Error("ALERT", "Failed to resolve parents", map[string]interface{}{
			"child_id": payload.ChildId.String(),
			"error":    err.Error(),
		})
		return
	}
	if len(parents) == 0 {
		cs.logger.Debug("ALERT", "Child has no parents to alert", map[string]interface{}{"child_id": payload.ChildId.String()})
		return
	}
	if cs.events == nil {
		cs.logger.Warn("ALERT", "Event bus unavailable, alert dropped", map[string]interface{}{"message_id": payload.MessageId.String()})
		return
	}

	parentIds := make([]string, len(parents))
	for i, p := range parents {
		parentIds[i] = p.Id.String()
	}

	evt := events.BaseEvent{
		Type: events.HomeworkMisuseFlagged,
		Data: map[string]interface{}{
			"child_id":        payload.ChildId.String(),
			"child_name":      child.DisplayName(),
			"conversation_id": payload.ConversationId.String(),
			"message_id":      payload.MessageId.String(),
			"question":        payload.Question,
			"score":           payload.Score,
			"parent_ids":      parentIds,
			"flagged_at":      payload.ScoredAt.Format(time.RFC3339),
		},
		OccurredAt: payload.ScoredAt,
	}
	if err := cs.events.Publish(ctx, evt); err != nil {
		cs.logger.Error("ALERT", "Failed to publish misuse event", map[string]interface{}{
			"message_id": payload.MessageId.String(),
			"error":      err.Error(),
		})
		return
	}

	cs.logger.Info("ALERT", "Homework misuse flagged", map[string]interface{}{
		"child_id": payload.ChildId.String(),
		"score":    payload.Score,
		"parents":  len(parents),
	})
}
