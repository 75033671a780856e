package service

import (
	"context"
	"encoding/json"
	"fmt"

	"kidsgpt-be/internal/dto"
	"kidsgpt-be/internal/pkg/logger"
	"kidsgpt-be/internal/pkg/mailer"
	"kidsgpt-be/pkg/events"
	pktNats "kidsgpt-be/pkg/nats"

	"github.com/google/uuid"
)

const alertsDurable = "parent-alerts"

// NotificationDelivery pushes real-time frames. Implemented by the WebSocket Hub.
type NotificationDelivery interface {
	Send(userID uuid.UUID, kind string, data interface{})
}

// NotificationService delivers misuse events to the child's parents.
type NotificationService struct {
	subscriber *pktNats.Subscriber
	families   IFamilyService
	delivery   NotificationDelivery
	mailer     mailer.IEmailService
	reviewURL  string
	logger     logger.ILogger
}

func NewNotificationService(
	sub *pktNats.Subscriber,
	families IFamilyService,
	delivery NotificationDelivery,
	mail mailer.IEmailService,
	reviewURL string,
	log logger.ILogger,
) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		families:   families,
		delivery:   delivery,
		mailer:     mail,
		reviewURL:  reviewURL,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start(ctx context.Context) error {
	subject := events.Subject(events.HomeworkMisuseFlagged)
	if err := s.subscriber.Subscribe(ctx, subject, alertsDurable, s.handleEvent); err != nil {
		return err
	}
	s.logger.Info("NotificationService", "Listening for misuse alerts", map[string]interface{}{"subject": subject})
	return nil
}

type misuseEvent struct {
	dto.MisuseAlertResponse
	ParentIds []uuid.UUID `json:"parent_ids"`
}

func decodeMisuseEvent(payload map[string]interface{}) (*misuseEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var evt misuseEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		return nil, fmt.Errorf("decode misuse event: %w", err)
	}
	return &evt, nil
}

// handleEvent never returns an error: a redelivery would repeat the pushes
// already made to other parents.
func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	if event.EventType() != events.HomeworkMisuseFlagged {
		return nil
	}

	evt, err := decodeMisuseEvent(event.Payload())
	if err != nil {
		s.logger.Warn("NotificationService", "Malformed misuse event", map[string]interface{}{"error": err.Error()})
		return nil
	}

	for _, parentId := range evt.ParentIds {
		if s.delivery != nil {
			s.delivery.Send(parentId, "misuse_alert", evt.MisuseAlertResponse)
		}
		s.email(ctx, parentId, evt)
	}

	s.logger.Info("NotificationService", "Misuse alert delivered", map[string]interface{}{
		"child_id": evt.ChildId.String(),
		"parents":  len(evt.ParentIds),
	})
	return nil
}

func (s *NotificationService) email(ctx context.Context, parentId uuid.UUID, evt *misuseEvent) {
	if s.mailer == nil {
		return
	}
	parent, err := s.families.Profile(ctx, parentId)
	if err != nil {
		s.logger.Warn("NotificationService", "Parent profile lookup failed", map[string]interface{}{
			"parent_id": parentId.String(),
			"error":     err.Error(),
		})
		return
	}
	if parent.Email == nil || *parent.Email == "" {
		return
	}
	// Failures are logged by the mailer.
	_ = s.mailer.SendMisuseAlert(*parent.Email, mailer.MisuseAlert{
		ParentName: parent.DisplayName(),
		ChildName:  evt.ChildName,
		Question:   evt.Question,
		Score:      evt.Score,
		ReviewURL:  s.reviewURL,
	})
}
