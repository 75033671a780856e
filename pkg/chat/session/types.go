package session

import (
	"context"
	"errors"
	"time"

	"kidsgpt-be/internal/entity"
	"kidsgpt-be/pkg/chat/completion"

	"github.com/google/uuid"
)

type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateLoading         State = "loading"
	StateReady           State = "ready"
)

var (
	ErrNoIdentity          = errors.New("session: no signed-in user")
	ErrUnknownConversation = errors.New("session: unknown conversation")
	ErrUnknownFolder       = errors.New("session: unknown folder")
	ErrSessionClosed       = errors.New("session: closed while the request was in flight")
)

type Identity struct {
	UserId uuid.UUID
	Role   entity.ProfileRole
	Age    *int
}

type NoticeKind string

const (
	NoticeError         NoticeKind = "error"
	NoticeConfiguration NoticeKind = "configuration"
	NoticeInfo          NoticeKind = "info"
)

// Notice is a dismissible, user-visible message.
type Notice struct {
	Id        uuid.UUID
	Kind      NoticeKind
	Message   string
	CreatedAt time.Time
}

// Store is the persistence the manager reconciles against.
type Store interface {
	LoadConversations(ctx context.Context, ownerId uuid.UUID) ([]*entity.Conversation, error)
	LoadFolders(ctx context.Context, ownerId uuid.UUID) ([]*entity.Folder, error)
	CreateConversation(ctx context.Context, ownerId uuid.UUID, folderId *uuid.UUID, convType entity.ConversationType) (*entity.Conversation, error)
	SaveMessage(ctx context.Context, ownerId, conversationId uuid.UUID, message *entity.Message) error
	UpdateMessageScore(ctx context.Context, ownerId, messageId uuid.UUID, score int) error
	UpdateTitle(ctx context.Context, ownerId, conversationId uuid.UUID, title string) error
	MoveConversation(ctx context.Context, ownerId, conversationId uuid.UUID, folderId *uuid.UUID) error
	DeleteConversation(ctx context.Context, ownerId, conversationId uuid.UUID) error
	CreateFolder(ctx context.Context, ownerId uuid.UUID, name string) (*entity.Folder, error)
	RenameFolder(ctx context.Context, ownerId, folderId uuid.UUID, name string) (*entity.Folder, error)
	DeleteFolder(ctx context.Context, ownerId, folderId uuid.UUID) error
}

type Completer interface {
	Reply(ctx context.Context, req completion.Request) completion.Result
	Score(ctx context.Context, question, answer, apiKey string) (int, error)
}

type KeyResolver interface {
	ResolveAPIKey(ctx context.Context, userId uuid.UUID, personalKey string) (string, error)
}

type Notifier interface {
	Notify(userId uuid.UUID, notice Notice)
}

// ScoredReply describes an assistant reply that received a misuse score.
type ScoredReply struct {
	UserId         uuid.UUID
	ConversationId uuid.UUID
	MessageId      uuid.UUID
	Question       string
	Score          int
	ScoredAt       time.Time
}

type ScoreReporter interface {
	ReportScore(ctx context.Context, reply ScoredReply)
}

// Actions are the mutations a view may trigger. The parent monitoring view
// binds a no-op implementation.
type Actions interface {
	CreateNewConversation(ctx context.Context, folderId *uuid.UUID, convType entity.ConversationType) (*entity.Conversation, error)
	AddMessageToConversation(ctx context.Context, conversationId uuid.UUID, message *entity.Message) (*entity.Message, error)
	SelectConversation(conversationId *uuid.UUID) error
	DeleteConversation(ctx context.Context, conversationId uuid.UUID) error
	MoveConversation(ctx context.Context, conversationId uuid.UUID, folderId *uuid.UUID) error
	CreateFolder(ctx context.Context, name string) (*entity.Folder, error)
	RenameFolder(ctx context.Context, folderId uuid.UUID, name string) error
	DeleteFolder(ctx context.Context, folderId uuid.UUID) error
}

type SendInput struct {
	ConversationId uuid.UUID
	Content        string
	Attachments    []entity.FileAttachment
	PersonalKey    string
}

type SendResult struct {
	UserMessage *entity.Message
	Reply       *entity.Message
	Notice      *Notice
	// Discarded is set when the reply arrived after its conversation was
	// deleted or the session ended.
	Discarded bool
}

type Snapshot struct {
	State                 State
	Identity              *Identity
	Conversations         []*entity.Conversation
	Folders               []*entity.Folder
	CurrentConversationId *uuid.UUID
	Notices               []Notice
}
