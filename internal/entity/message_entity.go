package entity

import (
	"time"

	"github.com/google/uuid"
)

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

const (
	MinMisuseScore = 0
	MaxMisuseScore = 100
)

type FileAttachment struct {
	Name     string `json:"name"`
	Url      string `json:"url"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

type GeneratedImage struct {
	Url           string `json:"url"`
	Prompt        string `json:"prompt"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
	Size          string `json:"size,omitempty"`
	Quality       string `json:"quality,omitempty"`
	Style         string `json:"style,omitempty"`
}

type Message struct {
	Id                  uuid.UUID
	ConversationId      uuid.UUID
	Role                MessageRole
	Content             string
	Timestamp           time.Time
	Attachments         []FileAttachment
	GeneratedImage      *GeneratedImage
	HomeworkMisuseScore *int
	Sync                SyncStatus
}

func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	out := *m
	if m.Attachments != nil {
		out.Attachments = append([]FileAttachment(nil), m.Attachments...)
	}
	if m.GeneratedImage != nil {
		img := *m.GeneratedImage
		out.GeneratedImage = &img
	}
	if m.HomeworkMisuseScore != nil {
		s := *m.HomeworkMisuseScore
		out.HomeworkMisuseScore = &s
	}
	return &out
}

// ClampMisuseScore forces a score into [0,100].
func ClampMisuseScore(score int) int {
	if score < MinMisuseScore {
		return MinMisuseScore
	}
	if score > MaxMisuseScore {
		return MaxMisuseScore
	}
	return score
}
