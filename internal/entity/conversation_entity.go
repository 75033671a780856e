package entity

import (
	"time"

	"github.com/google/uuid"
)

type ConversationType string

const (
	ConversationTypeRegular         ConversationType = "regular"
	ConversationTypePersonalityQuiz ConversationType = "personality-quiz"
)

func (t ConversationType) Valid() bool {
	return t == ConversationTypeRegular || t == ConversationTypePersonalityQuiz
}

// DefaultTitle is the title a conversation carries until its first user message.
func (t ConversationType) DefaultTitle() string {
	if t == ConversationTypePersonalityQuiz {
		return "Personality Quiz"
	}
	return "New Chat"
}

// SyncStatus tracks an optimistic local mutation against the record store.
type SyncStatus string

const (
	SyncPending   SyncStatus = "pending"
	SyncCommitted SyncStatus = "committed"
	SyncFailed    SyncStatus = "failed"
)

type Conversation struct {
	Id        uuid.UUID
	Title     string
	Messages  []*Message
	CreatedAt time.Time
	UpdatedAt time.Time
	UserId    uuid.UUID
	FolderId  *uuid.UUID
	Type      ConversationType
	Sync      SyncStatus
}

// Clone returns a deep copy, messages included.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	if c.FolderId != nil {
		f := *c.FolderId
		out.FolderId = &f
	}
	out.Messages = make([]*Message, len(c.Messages))
	for i, m := range c.Messages {
		out.Messages[i] = m.Clone()
	}
	return &out
}

// LastMessageAt is the newest message timestamp, nil for an empty conversation.
func (c *Conversation) LastMessageAt() *time.Time {
	var last *time.Time
	for _, m := range c.Messages {
		if last == nil || m.Timestamp.After(*last) {
			t := m.Timestamp
			last = &t
		}
	}
	return last
}

type Folder struct {
	Id        uuid.UUID
	Name      string
	UserId    uuid.UUID
	CreatedAt time.Time
	Sync      SyncStatus
}

func (f *Folder) Clone() *Folder {
	if f == nil {
		return nil
	}
	out := *f
	return &out
}
