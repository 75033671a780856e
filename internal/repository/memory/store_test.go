package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"kidsgpt-be/internal/entity"
	"kidsgpt-be/internal/repository/memory"
	"kidsgpt-be/internal/repository/specification"
	"kidsgpt-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConversation(t *testing.T, uow unitofwork.UnitOfWork) *entity.Conversation {
	t.Helper()
	conv := &entity.Conversation{
		Id:     uuid.New(),
		UserId: uuid.New(),
		Title:  "New Chat",
		Type:   entity.ConversationTypeRegular,
	}
	require.NoError(t, uow.ConversationRepository().Create(context.Background(), conv))
	return conv
}

func TestStore_MessagesComeBackOldestFirst(t *testing.T) {
	store := memory.MustNewStore()
	ctx := context.Background()
	uow := memory.NewRepositoryFactory(store).NewUnitOfWork(ctx)
	conv := newConversation(t, uow)

	base := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	jakarta := time.FixedZone("WIB", 7*60*60)
	inserts := []struct {
		content string
		at      time.Time
	}{
		{"third", base.Add(2 * time.Second)},
		{"first", base.In(jakarta)},
		{"fourth", base.Add(2*time.Second + time.Microsecond)},
		{"second", base.Add(time.Second)},
	}
	for _, in := range inserts {
		require.NoError(t, uow.MessageRepository().Create(ctx, &entity.Message{
			ConversationId: conv.Id,
			Role:           entity.MessageRoleUser,
			Content:        in.content,
			Timestamp:      in.at,
		}))
	}

	msgs, err := uow.MessageRepository().FindAll(ctx, specification.ByConversationID{ConversationID: conv.Id})
	require.NoError(t, err)
	got := make([]string, len(msgs))
	for i, m := range msgs {
		got[i] = m.Content
	}
	assert.Equal(t, []string{"first", "second", "third", "fourth"}, got)
	assert.True(t, msgs[0].Timestamp.Equal(base))
}

func TestStore_RejectsMessageForUnknownConversation(t *testing.T) {
	store := memory.MustNewStore()
	ctx := context.Background()
	uow := memory.NewRepositoryFactory(store).NewUnitOfWork(ctx)

	err := uow.MessageRepository().Create(ctx, &entity.Message{
		ConversationId: uuid.New(),
		Role:           entity.MessageRoleUser,
		Content:        "hello?",
		Timestamp:      time.Now(),
	})
	assert.Error(t, err)
}

func TestStore_DeletingConversationCascadesToMessages(t *testing.T) {
	store := memory.MustNewStore()
	ctx := context.Background()
	uow := memory.NewRepositoryFactory(store).NewUnitOfWork(ctx)
	conv := newConversation(t, uow)
	require.NoError(t, uow.MessageRepository().Create(ctx, &entity.Message{
		ConversationId: conv.Id, Role: entity.MessageRoleUser, Content: "hi", Timestamp: time.Now(),
	}))

	require.NoError(t, uow.ConversationRepository().Delete(ctx, conv.Id))

	msgs, err := uow.MessageRepository().FindAll(ctx, specification.ByConversationID{ConversationID: conv.Id})
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestStore_RollbackRestoresRows(t *testing.T) {
	store := memory.MustNewStore()
	ctx := context.Background()
	factory := memory.NewRepositoryFactory(store)
	kept := newConversation(t, factory.NewUnitOfWork(ctx))

	uow := factory.NewUnitOfWork(ctx)
	require.NoError(t, uow.Begin(ctx))
	added := newConversation(t, uow)
	require.NoError(t, uow.ConversationRepository().Delete(ctx, kept.Id))
	require.NoError(t, uow.Rollback())

	reader := factory.NewUnitOfWork(ctx)
	found, err := reader.ConversationRepository().FindOne(ctx, specification.ByID{ID: kept.Id})
	require.NoError(t, err)
	assert.NotNil(t, found)
	found, err = reader.ConversationRepository().FindOne(ctx, specification.ByID{ID: added.Id})
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestStore_FailOnIsOneShot(t *testing.T) {
	store := memory.MustNewStore()
	ctx := context.Background()
	uow := memory.NewRepositoryFactory(store).NewUnitOfWork(ctx)
	boom := errors.New("disk full")

	store.FailOn("conversations.create", boom)
	err := uow.ConversationRepository().Create(ctx, &entity.Conversation{
		Id: uuid.New(), UserId: uuid.New(), Title: "New Chat", Type: entity.ConversationTypeRegular,
	})
	assert.ErrorIs(t, err, boom)

	newConversation(t, uow)
	count, err := uow.ConversationRepository().Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
