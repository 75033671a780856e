package service

import (
	"context"
	"encoding/json"

	"kidsgpt-be/internal/dto"
	"kidsgpt-be/internal/pkg/logger"
	"kidsgpt-be/pkg/chat/session"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IPublisherService interface {
	Publish(ctx context.Context, payload []byte) error
}

type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

func (ps *publisherService) Publish(ctx context.Context, payload []byte) error {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return ps.pubSub.Publish(ps.topicName, msg)
}

// scoreReporter puts every scored reply on the scored-reply topic. It
// satisfies session.ScoreReporter.
type scoreReporter struct {
	publisher IPublisherService
	logger    logger.ILogger
}

func NewScoreReporter(publisher IPublisherService, log logger.ILogger) session.ScoreReporter {
	return &scoreReporter{publisher: publisher, logger: log}
}

func (r *scoreReporter) ReportScore(ctx context.Context, reply session.ScoredReply) {
	payload, err := json.Marshal(dto.ScoredReplyMessage{
		ChildId:        reply.UserId,
		ConversationId: reply.ConversationId,
		MessageId:      reply.MessageId,
		Question:       reply.Question,
		Score:          reply.Score,
		ScoredAt:       reply.ScoredAt,
	})
	if err != nil {
		r.logger.Error("ALERT", "Failed to encode scored reply", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := r.publisher.Publish(ctx, payload); err != nil {
		r.logger.Warn("ALERT", "Failed to publish scored reply", map[string]interface{}{
			"message_id": reply.MessageId.String(),
			"error":      err.Error(),
		})
	}
}
