package projection

import (
	"context"

	"kidsgpt-be/internal/entity"
	"kidsgpt-be/pkg/chat/session"

	"github.com/google/uuid"
)

// ReadOnlyActions is bound to the parent monitoring view. Every mutation is a
// no-op that reports success and returns no record.
type ReadOnlyActions struct{}

var _ session.Actions = ReadOnlyActions{}

func (ReadOnlyActions) CreateNewConversation(context.Context, *uuid.UUID, entity.ConversationType) (*entity.Conversation, error) {
	return nil, nil
}

func (ReadOnlyActions) AddMessageToConversation(context.Context, uuid.UUID, *entity.Message) (*entity.Message, error) {
	return nil, nil
}

func (ReadOnlyActions) SelectConversation(*uuid.UUID) error { return nil }

func (ReadOnlyActions) DeleteConversation(context.Context, uuid.UUID) error { return nil }

func (ReadOnlyActions) MoveConversation(context.Context, uuid.UUID, *uuid.UUID) error { return nil }

func (ReadOnlyActions) CreateFolder(context.Context, string) (*entity.Folder, error) {
	return nil, nil
}

func (ReadOnlyActions) RenameFolder(context.Context, uuid.UUID, string) error { return nil }

func (ReadOnlyActions) DeleteFolder(context.Context, uuid.UUID) error { return nil }
