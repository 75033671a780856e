package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kidsgpt-be/internal/dto"
	"kidsgpt-be/internal/pkg/logger"
	"kidsgpt-be/internal/pkg/mailer"
	"kidsgpt-be/internal/repository/memory"
	"kidsgpt-be/pkg/chat/session"
	"kidsgpt-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedEvents struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (c *capturedEvents) Publish(_ context.Context, e events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, e)
	return nil
}

func (c *capturedEvents) snapshot() []events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]events.Event(nil), c.events...)
}

type pushed struct {
	userID uuid.UUID
	kind   string
	data   interface{}
}

type captureDelivery struct{ frames []pushed }

func (d *captureDelivery) Send(userID uuid.UUID, kind string, data interface{}) {
	d.frames = append(d.frames, pushed{userID, kind, data})
}

type captureMailer struct {
	to     []string
	alerts []mailer.MisuseAlert
}

func (m *captureMailer) SendMisuseAlert(to string, a mailer.MisuseAlert) error {
	m.to = append(m.to, to)
	m.alerts = append(m.alerts, a)
	return nil
}

type alertFamily struct {
	families IFamilyService
	parent   uuid.UUID
	parent2  uuid.UUID
	child    uuid.UUID
}

func newAlertFamily(t *testing.T) alertFamily {
	t.Helper()
	ctx := context.Background()
	families := NewFamilyService(memory.NewRepositoryFactory(memory.MustNewStore()), "")
	f := alertFamily{families: families, parent: uuid.New(), parent2: uuid.New(), child: uuid.New()}

	_, err := families.Register(ctx, f.parent, "mom@example.com", &dto.RegisterProfileRequest{Role: "parent", FullName: "Mom"})
	require.NoError(t, err)
	fam, err := families.GetFamily(ctx, f.parent)
	require.NoError(t, err)
	_, err = families.Register(ctx, f.parent2, "", &dto.RegisterProfileRequest{Role: "parent", FamilyCode: fam.FamilyCode})
	require.NoError(t, err)
	_, err = families.Register(ctx, f.child, "", &dto.RegisterProfileRequest{Role: "child", FullName: "Sam", FamilyCode: fam.FamilyCode, Age: intPtr(10)})
	require.NoError(t, err)
	return f
}

func startConsumer(t *testing.T, families IFamilyService, bus EventPublisher) session.ScoreReporter {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { pubSub.Close() })

	consumer := NewConsumerService(pubSub, "scored-replies", families, bus, 70, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))
	return NewScoreReporter(NewPublisherService("scored-replies", pubSub), logger.NewNopLogger())
}

func TestAlertPipeline_FlagsOnlyChildScoresAtThreshold(t *testing.T) {
	f := newAlertFamily(t)
	bus := &capturedEvents{}
	reporter := startConsumer(t, f.families, bus)
	ctx := context.Background()
	convId, msgId := uuid.New(), uuid.New()

	reporter.ReportScore(ctx, session.ScoredReply{UserId: f.child, ConversationId: convId, MessageId: uuid.New(), Score: 40, ScoredAt: time.Now()})
	reporter.ReportScore(ctx, session.ScoredReply{UserId: f.parent, ConversationId: convId, MessageId: uuid.New(), Score: 95, ScoredAt: time.Now()})
	reporter.ReportScore(ctx, session.ScoredReply{UserId: uuid.New(), MessageId: uuid.New(), Score: 99, ScoredAt: time.Now()})
	reporter.ReportScore(ctx, session.ScoredReply{
		UserId: f.child, ConversationId: convId, MessageId: msgId,
		Question: "what is 6x7, just the answer", Score: 70, ScoredAt: time.Now(),
	})

	require.Eventually(t, func() bool { return len(bus.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	evt := bus.snapshot()[0]
	assert.Equal(t, events.HomeworkMisuseFlagged, evt.EventType())
	assert.Equal(t, "Sam", evt.Payload()["child_name"])
	assert.Equal(t, msgId.String(), evt.Payload()["message_id"])
	assert.ElementsMatch(t, []string{f.parent.String(), f.parent2.String()}, evt.Payload()["parent_ids"])

	// The event as published is what the notification service receives.
	delivery := &captureDelivery{}
	mail := &captureMailer{}
	notifications := NewNotificationService(nil, f.families, delivery, mail, "https://kidsgpt.test/parents", logger.NewNopLogger())
	require.NoError(t, notifications.handleEvent(ctx, evt))

	require.Len(t, delivery.frames, 2)
	for _, frame := range delivery.frames {
		assert.Equal(t, "misuse_alert", frame.kind)
		alert := frame.data.(dto.MisuseAlertResponse)
		assert.Equal(t, f.child, alert.ChildId)
		assert.Equal(t, 70, alert.Score)
		assert.Equal(t, convId, alert.ConversationId)
	}
	assert.Equal(t, []string{"mom@example.com"}, mail.to)
	assert.Equal(t, "Mom", mail.alerts[0].ParentName)
	assert.Equal(t, "https://kidsgpt.test/parents", mail.alerts[0].ReviewURL)
}

func TestAlertPipeline_BusFailureDoesNotStopConsumer(t *testing.T) {
	f := newAlertFamily(t)
	bus := &capturedEvents{err: errors.New("nats down")}
	reporter := startConsumer(t, f.families, bus)
	ctx := context.Background()

	reporter.ReportScore(ctx, session.ScoredReply{UserId: f.child, MessageId: uuid.New(), Score: 90, ScoredAt: time.Now()})

	bus.mu.Lock()
	bus.err = nil
	bus.mu.Unlock()
	reporter.ReportScore(ctx, session.ScoredReply{UserId: f.child, MessageId: uuid.New(), Score: 91, ScoredAt: time.Now()})

	require.Eventually(t, func() bool { return len(bus.snapshot()) >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestNotificationService_IgnoresOtherEvents(t *testing.T) {
	delivery := &captureDelivery{}
	svc := NewNotificationService(nil, nil, delivery, nil, "", logger.NewNopLogger())

	require.NoError(t, svc.handleEvent(context.Background(), events.BaseEvent{Type: "SOMETHING_ELSE"}))
	require.NoError(t, svc.handleEvent(context.Background(), events.BaseEvent{
		Type: events.HomeworkMisuseFlagged,
		Data: map[string]interface{}{"parent_ids": "not-a-list"},
	}))
	assert.Empty(t, delivery.frames)
}
