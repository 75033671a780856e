package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kidsgpt-be/internal/entity"
	"kidsgpt-be/internal/pkg/apperr"
	"kidsgpt-be/internal/repository/specification"
	"kidsgpt-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

const maxFolderNameLength = 100

// ChildConversations is what a parent may read: the children of their family
// and every conversation those children own.
type ChildConversations struct {
	Conversations []*entity.Conversation
	Children      []*entity.Profile
}

type IConversationService interface {
	LoadConversations(ctx context.Context, ownerId uuid.UUID) ([]*entity.Conversation, error)
	LoadChildrenConversations(ctx context.Context, parentId uuid.UUID) (*ChildConversations, error)
	CreateConversation(ctx context.Context, ownerId uuid.UUID, folderId *uuid.UUID, convType entity.ConversationType) (*entity.Conversation, error)
	SaveMessage(ctx context.Context, ownerId, conversationId uuid.UUID, message *entity.Message) error
	UpdateMessageScore(ctx context.Context, ownerId, messageId uuid.UUID, score int) error
	UpdateTitle(ctx context.Context, ownerId, conversationId uuid.UUID, title string) error
	MoveConversation(ctx context.Context, ownerId, conversationId uuid.UUID, folderId *uuid.UUID) error
	DeleteConversation(ctx context.Context, ownerId, conversationId uuid.UUID) error

	LoadFolders(ctx context.Context, ownerId uuid.UUID) ([]*entity.Folder, error)
	CreateFolder(ctx context.Context, ownerId uuid.UUID, name string) (*entity.Folder, error)
	RenameFolder(ctx context.Context, ownerId, folderId uuid.UUID, name string) (*entity.Folder, error)
	DeleteFolder(ctx context.Context, ownerId, folderId uuid.UUID) error
}

type conversationService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewConversationService(uowFactory unitofwork.RepositoryFactory) IConversationService {
	return &conversationService{
		uowFactory: uowFactory,
	}
}

func (s *conversationService) LoadConversations(ctx context.Context, ownerId uuid.UUID) ([]*entity.Conversation, error) {
	if ownerId == uuid.Nil {
		return []*entity.Conversation{}, nil
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return s.loadWithMessages(ctx, uow, specification.UserOwnedBy{UserID: ownerId})
}

// LoadChildrenConversations re-reads the caller's role from the store. A
// caller that is not a parent with a family gets an empty result.
func (s *conversationService) LoadChildrenConversations(ctx context.Context, parentId uuid.UUID) (*ChildConversations, error) {
	empty := &ChildConversations{Conversations: []*entity.Conversation{}, Children: []*entity.Profile{}}
	if parentId == uuid.Nil {
		return empty, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	caller, err := uow.ProfileRepository().FindOne(ctx, specification.ByID{ID: parentId})
	if err != nil {
		return nil, err
	}
	if !caller.IsParent() || caller.FamilyId == nil {
		return empty, nil
	}

	children, err := uow.ProfileRepository().FindAll(ctx,
		specification.ByFamilyID{FamilyID: *caller.FamilyId},
		specification.ByRole{Role: string(entity.ProfileRoleChild)},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return empty, nil
	}

	childIds := make([]uuid.UUID, len(children))
	for i, c := range children {
		childIds[i] = c.Id
	}

	conversations, err := s.loadWithMessages(ctx, uow, specification.ByUserIDs{UserIDs: childIds})
	if err != nil {
		return nil, err
	}

	return &ChildConversations{Conversations: conversations, Children: children}, nil
}

func (s *conversationService) loadWithMessages(ctx context.Context, uow unitofwork.UnitOfWork, owner specification.Specification) ([]*entity.Conversation, error) {
	conversations, err := uow.ConversationRepository().FindAll(ctx, owner, specification.OrderBy{Field: "updated_at", Desc: true})
	if err != nil {
		return nil, err
	}
	if len(conversations) == 0 {
		return []*entity.Conversation{}, nil
	}

	ids := make([]uuid.UUID, len(conversations))
	byId := make(map[uuid.UUID]*entity.Conversation, len(conversations))
	for i, c := range conversations {
		ids[i] = c.Id
		byId[c.Id] = c
	}

	messages, err := uow.MessageRepository().FindAll(ctx, specification.ByConversationIDs{ConversationIDs: ids})
	if err != nil {
		return nil, err
	}
	for _, m := range messages {
		if c, ok := byId[m.ConversationId]; ok {
			c.Messages = append(c.Messages, m)
		}
	}
	return conversations, nil
}

func (s *conversationService) CreateConversation(ctx context.Context, ownerId uuid.UUID, folderId *uuid.UUID, convType entity.ConversationType) (*entity.Conversation, error) {
	if ownerId == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}
	if convType == "" {
		convType = entity.ConversationTypeRegular
	}
	if !convType.Valid() {
		return nil, apperr.BadRequest("unknown conversation type %q", convType)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	if folderId != nil {
		if err := s.requireFolder(ctx, uow, ownerId, *folderId); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	conversation := &entity.Conversation{
		Id:        uuid.New(),
		Title:     convType.DefaultTitle(),
		Messages:  []*entity.Message{},
		CreatedAt: now,
		UpdatedAt: now,
		UserId:    ownerId,
		FolderId:  folderId,
		Type:      convType,
	}
	if err := uow.ConversationRepository().Create(ctx, conversation); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	conversation.Sync = entity.SyncCommitted
	return conversation, nil
}

func (s *conversationService) SaveMessage(ctx context.Context, ownerId, conversationId uuid.UUID, message *entity.Message) error {
	if message.Role != entity.MessageRoleUser && message.Role != entity.MessageRoleAssistant {
		return apperr.BadRequest("unknown message role %q", message.Role)
	}
	if message.HomeworkMisuseScore != nil {
		score := entity.ClampMisuseScore(*message.HomeworkMisuseScore)
		message.HomeworkMisuseScore = &score
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	// inside the transaction: a concurrent delete must not orphan the row
	if _, err := s.requireConversation(ctx, uow, ownerId, conversationId); err != nil {
		return err
	}

	message.ConversationId = conversationId
	if message.Id == uuid.Nil {
		message.Id = uuid.New()
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now()
	}
	if err := uow.MessageRepository().Create(ctx, message); err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	if err := uow.ConversationRepository().Touch(ctx, conversationId); err != nil {
		return err
	}
	return uow.Commit()
}

func (s *conversationService) UpdateMessageScore(ctx context.Context, ownerId, messageId uuid.UUID, score int) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	message, err := uow.MessageRepository().FindOne(ctx, specification.ByID{ID: messageId})
	if err != nil {
		return err
	}
	if message == nil {
		return apperr.NotFound("message")
	}
	if _, err := s.requireConversation(ctx, uow, ownerId, message.ConversationId); err != nil {
		return err
	}
	return uow.MessageRepository().UpdateScore(ctx, messageId, entity.ClampMisuseScore(score))
}

func (s *conversationService) UpdateTitle(ctx context.Context, ownerId, conversationId uuid.UUID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return apperr.BadRequest("title is required")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	conversation, err := s.requireConversation(ctx, uow, ownerId, conversationId)
	if err != nil {
		return err
	}
	conversation.Title = title
	return uow.ConversationRepository().Update(ctx, conversation)
}

func (s *conversationService) MoveConversation(ctx context.Context, ownerId, conversationId uuid.UUID, folderId *uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	conversation, err := s.requireConversation(ctx, uow, ownerId, conversationId)
	if err != nil {
		return err
	}
	if folderId != nil {
		if err := s.requireFolder(ctx, uow, ownerId, *folderId); err != nil {
			return err
		}
	}
	conversation.FolderId = folderId
	return uow.ConversationRepository().Update(ctx, conversation)
}

// DeleteConversation removes the messages and the conversation in one transaction.
func (s *conversationService) DeleteConversation(ctx context.Context, ownerId, conversationId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := s.requireConversation(ctx, uow, ownerId, conversationId); err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.MessageRepository().DeleteByConversationId(ctx, conversationId); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if err := uow.ConversationRepository().Delete(ctx, conversationId); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return uow.Commit()
}

func (s *conversationService) LoadFolders(ctx context.Context, ownerId uuid.UUID) ([]*entity.Folder, error) {
	if ownerId == uuid.Nil {
		return []*entity.Folder{}, nil
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	folders, err := uow.FolderRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: ownerId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}
	if folders == nil {
		folders = []*entity.Folder{}
	}
	return folders, nil
}

func (s *conversationService) CreateFolder(ctx context.Context, ownerId uuid.UUID, name string) (*entity.Folder, error) {
	if ownerId == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}
	name, err := cleanFolderName(name)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	folder := &entity.Folder{
		Id:        uuid.New(),
		Name:      name,
		UserId:    ownerId,
		CreatedAt: time.Now(),
	}
	if err := uow.FolderRepository().Create(ctx, folder); err != nil {
		return nil, fmt.Errorf("create folder: %w", err)
	}
	folder.Sync = entity.SyncCommitted
	return folder, nil
}

func (s *conversationService) RenameFolder(ctx context.Context, ownerId, folderId uuid.UUID, name string) (*entity.Folder, error) {
	name, err := cleanFolderName(name)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	folder, err := uow.FolderRepository().FindOne(ctx,
		specification.ByID{ID: folderId},
		specification.UserOwnedBy{UserID: ownerId},
	)
	if err != nil {
		return nil, err
	}
	if folder == nil {
		return nil, apperr.NotFound("folder")
	}

	folder.Name = name
	if err := uow.FolderRepository().Update(ctx, folder); err != nil {
		return nil, err
	}
	return folder, nil
}

// DeleteFolder unlinks member conversations and removes the folder in one
// transaction. Conversations are kept.
func (s *conversationService) DeleteFolder(ctx context.Context, ownerId, folderId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := s.requireFolder(ctx, uow, ownerId, folderId); err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ConversationRepository().UnlinkFolder(ctx, folderId); err != nil {
		return fmt.Errorf("unlink folder members: %w", err)
	}
	if err := uow.FolderRepository().Delete(ctx, folderId); err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	return uow.Commit()
}

// requireConversation loads a conversation only if ownerId owns it.
func (s *conversationService) requireConversation(ctx context.Context, uow unitofwork.UnitOfWork, ownerId, conversationId uuid.UUID) (*entity.Conversation, error) {
	conversation, err := uow.ConversationRepository().FindOne(ctx,
		specification.ByID{ID: conversationId},
		specification.UserOwnedBy{UserID: ownerId},
	)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, apperr.NotFound("conversation")
	}
	return conversation, nil
}

func (s *conversationService) requireFolder(ctx context.Context, uow unitofwork.UnitOfWork, ownerId, folderId uuid.UUID) error {
	folder, err := uow.FolderRepository().FindOne(ctx,
		specification.ByID{ID: folderId},
		specification.UserOwnedBy{UserID: ownerId},
	)
	if err != nil {
		return err
	}
	if folder == nil {
		return apperr.NotFound("folder")
	}
	return nil
}

func cleanFolderName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.BadRequest("folder name is required")
	}
	if len([]rune(name)) > maxFolderNameLength {
		return "", apperr.BadRequest("folder name is longer than %d characters", maxFolderNameLength)
	}
	return name, nil
}
