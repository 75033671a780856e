package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"kidsgpt-be/internal/dto"
	"kidsgpt-be/internal/entity"
	"kidsgpt-be/internal/model"
	"kidsgpt-be/internal/pkg/apperr"
	"kidsgpt-be/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConversationFixture() (*memory.Store, IConversationService) {
	store := memory.MustNewStore()
	return store, NewConversationService(memory.NewRepositoryFactory(store))
}

func TestCreateConversation_Defaults(t *testing.T) {
	_, svc := newConversationFixture()
	ctx := context.Background()
	owner := uuid.New()

	tests := []struct {
		name      string
		convType  entity.ConversationType
		wantTitle string
		wantType  entity.ConversationType
	}{
		{"empty type is regular", "", "New Chat", entity.ConversationTypeRegular},
		{"regular", entity.ConversationTypeRegular, "New Chat", entity.ConversationTypeRegular},
		{"quiz", entity.ConversationTypePersonalityQuiz, "Personality Quiz", entity.ConversationTypePersonalityQuiz},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv, err := svc.CreateConversation(ctx, owner, nil, tt.convType)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, conv.Title)
			assert.Equal(t, tt.wantType, conv.Type)
			assert.Equal(t, owner, conv.UserId)
			assert.Empty(t, conv.Messages)
		})
	}

	_, err := svc.CreateConversation(ctx, owner, nil, "debate")
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
	_, err = svc.CreateConversation(ctx, uuid.Nil, nil, entity.ConversationTypeRegular)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestCreateConversation_RejectsForeignFolder(t *testing.T) {
	_, svc := newConversationFixture()
	ctx := context.Background()

	folder, err := svc.CreateFolder(ctx, uuid.New(), "Theirs")
	require.NoError(t, err)

	_, err = svc.CreateConversation(ctx, uuid.New(), &folder.Id, entity.ConversationTypeRegular)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSaveMessage_OrderAndOwnership(t *testing.T) {
	_, svc := newConversationFixture()
	ctx := context.Background()
	owner := uuid.New()

	conv, err := svc.CreateConversation(ctx, owner, nil, entity.ConversationTypeRegular)
	require.NoError(t, err)

	base := time.Now().Add(-time.Minute)
	for i := 0; i < 4; i++ {
		require.NoError(t, svc.SaveMessage(ctx, owner, conv.Id, &entity.Message{
			Id:        uuid.New(),
			Role:      entity.MessageRoleUser,
			Content:   strings.Repeat("x", i+1),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}))
	}

	err = svc.SaveMessage(ctx, uuid.New(), conv.Id, &entity.Message{Role: entity.MessageRoleUser, Content: "intruder"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	err = svc.SaveMessage(ctx, owner, conv.Id, &entity.Message{Role: "system", Content: "nope"})
	assert.ErrorIs(t, err, apperr.ErrBadRequest)

	convs, err := svc.LoadConversations(ctx, owner)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	msgs := convs[0].Messages
	require.Len(t, msgs, 4)
	for i, m := range msgs {
		assert.Len(t, m.Content, i+1)
		if i > 0 {
			assert.False(t, m.Timestamp.Before(msgs[i-1].Timestamp))
		}
	}
	assert.False(t, convs[0].UpdatedAt.Before(conv.UpdatedAt))
}

func TestUpdateMessageScore(t *testing.T) {
	_, svc := newConversationFixture()
	ctx := context.Background()
	owner := uuid.New()

	conv, err := svc.CreateConversation(ctx, owner, nil, entity.ConversationTypeRegular)
	require.NoError(t, err)
	msg := &entity.Message{Id: uuid.New(), Role: entity.MessageRoleAssistant, Content: "Let's work it out."}
	require.NoError(t, svc.SaveMessage(ctx, owner, conv.Id, msg))

	require.NoError(t, svc.UpdateMessageScore(ctx, owner, msg.Id, 140))
	assert.ErrorIs(t, svc.UpdateMessageScore(ctx, uuid.New(), msg.Id, 10), apperr.ErrNotFound)
	assert.ErrorIs(t, svc.UpdateMessageScore(ctx, owner, uuid.New(), 10), apperr.ErrNotFound)

	convs, err := svc.LoadConversations(ctx, owner)
	require.NoError(t, err)
	require.NotNil(t, convs[0].Messages[0].HomeworkMisuseScore)
	assert.Equal(t, entity.MaxMisuseScore, *convs[0].Messages[0].HomeworkMisuseScore)
}

func TestDeleteConversation_CascadesInOneTransaction(t *testing.T) {
	store, svc := newConversationFixture()
	ctx := context.Background()
	owner := uuid.New()

	conv, err := svc.CreateConversation(ctx, owner, nil, entity.ConversationTypeRegular)
	require.NoError(t, err)
	require.NoError(t, svc.SaveMessage(ctx, owner, conv.Id, &entity.Message{Role: entity.MessageRoleUser, Content: "hi"}))

	store.FailOn("conversations.delete", errors.New("lock timeout"))
	require.Error(t, svc.DeleteConversation(ctx, owner, conv.Id))

	convs, err := svc.LoadConversations(ctx, owner)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Len(t, convs[0].Messages, 1)

	assert.ErrorIs(t, svc.DeleteConversation(ctx, uuid.New(), conv.Id), apperr.ErrNotFound)

	require.NoError(t, svc.DeleteConversation(ctx, owner, conv.Id))
	convs, err = svc.LoadConversations(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, convs)
}

func TestSaveMessage_RacingDeleteLeavesNoOrphans(t *testing.T) {
	store, svc := newConversationFixture()
	ctx := context.Background()
	owner := uuid.New()

	for i := 0; i < 20; i++ {
		conv, err := svc.CreateConversation(ctx, owner, nil, entity.ConversationTypeRegular)
		require.NoError(t, err)

		var wg sync.WaitGroup
		var saveErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			saveErr = svc.SaveMessage(ctx, owner, conv.Id, &entity.Message{Role: entity.MessageRoleUser, Content: "hi"})
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.DeleteConversation(ctx, owner, conv.Id))
		}()
		wg.Wait()

		if saveErr != nil {
			assert.ErrorIs(t, saveErr, apperr.ErrNotFound)
		}
		var orphans int64
		require.NoError(t, store.DB().Model(&model.Message{}).Where("conversation_id = ?", conv.Id).Count(&orphans).Error)
		assert.Zero(t, orphans)
	}
}

func TestDeleteFolder_UnlinksThenDeletes(t *testing.T) {
	store, svc := newConversationFixture()
	ctx := context.Background()
	owner := uuid.New()

	folder, err := svc.CreateFolder(ctx, owner, "Science")
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := svc.CreateConversation(ctx, owner, &folder.Id, entity.ConversationTypeRegular)
		require.NoError(t, err)
	}

	store.FailOn("conversation_folders.delete", errors.New("boom"))
	require.Error(t, svc.DeleteFolder(ctx, owner, folder.Id))
	convs, err := svc.LoadConversations(ctx, owner)
	require.NoError(t, err)
	for _, c := range convs {
		require.NotNil(t, c.FolderId, "unlink must roll back with the failed delete")
	}

	require.NoError(t, svc.DeleteFolder(ctx, owner, folder.Id))
	convs, err = svc.LoadConversations(ctx, owner)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	for _, c := range convs {
		assert.Nil(t, c.FolderId)
	}
	folders, err := svc.LoadFolders(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, folders)
}

func TestFolders_CreateRenameValidation(t *testing.T) {
	_, svc := newConversationFixture()
	ctx := context.Background()
	owner := uuid.New()

	folder, err := svc.CreateFolder(ctx, owner, "  Homework  ")
	require.NoError(t, err)
	assert.Equal(t, "Homework", folder.Name)

	renamed, err := svc.RenameFolder(ctx, owner, folder.Id, "School")
	require.NoError(t, err)
	assert.Equal(t, folder.Id, renamed.Id)
	assert.Equal(t, "School", renamed.Name)
	assert.True(t, folder.CreatedAt.Equal(renamed.CreatedAt))

	_, err = svc.CreateFolder(ctx, owner, "   ")
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
	_, err = svc.CreateFolder(ctx, owner, strings.Repeat("a", 101))
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
	_, err = svc.RenameFolder(ctx, uuid.New(), folder.Id, "Mine now")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMoveConversation(t *testing.T) {
	_, svc := newConversationFixture()
	ctx := context.Background()
	owner := uuid.New()

	folder, err := svc.CreateFolder(ctx, owner, "Art")
	require.NoError(t, err)
	conv, err := svc.CreateConversation(ctx, owner, nil, entity.ConversationTypeRegular)
	require.NoError(t, err)

	require.NoError(t, svc.MoveConversation(ctx, owner, conv.Id, &folder.Id))
	convs, err := svc.LoadConversations(ctx, owner)
	require.NoError(t, err)
	require.NotNil(t, convs[0].FolderId)
	assert.Equal(t, folder.Id, *convs[0].FolderId)

	require.NoError(t, svc.MoveConversation(ctx, owner, conv.Id, nil))
	convs, err = svc.LoadConversations(ctx, owner)
	require.NoError(t, err)
	assert.Nil(t, convs[0].FolderId)

	missing := uuid.New()
	assert.ErrorIs(t, svc.MoveConversation(ctx, owner, conv.Id, &missing), apperr.ErrNotFound)
}

func TestLoadChildrenConversations(t *testing.T) {
	store := memory.MustNewStore()
	factory := memory.NewRepositoryFactory(store)
	families := NewFamilyService(factory, "")
	svc := NewConversationService(factory)
	ctx := context.Background()

	parentId := uuid.New()
	_, err := families.Register(ctx, parentId, "", &dto.RegisterProfileRequest{Role: "parent"})
	require.NoError(t, err)
	family, err := families.GetFamily(ctx, parentId)
	require.NoError(t, err)

	child1, child2 := uuid.New(), uuid.New()
	for _, id := range []uuid.UUID{child1, child2} {
		_, err := families.Register(ctx, id, "", &dto.RegisterProfileRequest{Role: "child", FamilyCode: family.FamilyCode, Age: intPtr(9)})
		require.NoError(t, err)
	}

	a, err := svc.CreateConversation(ctx, child1, nil, entity.ConversationTypeRegular)
	require.NoError(t, err)
	b, err := svc.CreateConversation(ctx, child2, nil, entity.ConversationTypeRegular)
	require.NoError(t, err)
	_, err = svc.CreateConversation(ctx, parentId, nil, entity.ConversationTypeRegular)
	require.NoError(t, err)

	res, err := svc.LoadChildrenConversations(ctx, parentId)
	require.NoError(t, err)
	require.Len(t, res.Children, 2)
	require.Len(t, res.Conversations, 2)
	owners := map[uuid.UUID]uuid.UUID{}
	for _, c := range res.Conversations {
		owners[c.Id] = c.UserId
	}
	assert.Equal(t, child1, owners[a.Id])
	assert.Equal(t, child2, owners[b.Id])

	asChild, err := svc.LoadChildrenConversations(ctx, child1)
	require.NoError(t, err)
	assert.Empty(t, asChild.Conversations)
	assert.Empty(t, asChild.Children)

	unknown, err := svc.LoadChildrenConversations(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, unknown.Conversations)
}
