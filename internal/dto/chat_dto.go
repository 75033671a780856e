package dto

import (
	"time"

	"github.com/google/uuid"
)

type FileAttachmentDTO struct {
	Name     string `json:"name" validate:"required,max=255"`
	Url      string `json:"url" validate:"required,url"`
	MimeType string `json:"mime_type" validate:"omitempty,max=100"`
	Size     int64  `json:"size" validate:"min=0"`
}

type GeneratedImageDTO struct {
	Url           string `json:"url"`
	Prompt        string `json:"prompt"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
	Size          string `json:"size"`
	Quality       string `json:"quality"`
	Style         string `json:"style"`
}

type MessageResponse struct {
	Id                  uuid.UUID           `json:"id"`
	Role                string              `json:"role"`
	Content             string              `json:"content"`
	Timestamp           time.Time           `json:"timestamp"`
	Attachments         []FileAttachmentDTO `json:"attachments,omitempty"`
	GeneratedImage      *GeneratedImageDTO  `json:"generated_image,omitempty"`
	HomeworkMisuseScore *int                `json:"homework_misuse_score,omitempty"`
	SyncStatus          string              `json:"sync_status,omitempty"`
}

type ConversationResponse struct {
	Id         uuid.UUID         `json:"id"`
	Title      string            `json:"title"`
	Type       string            `json:"type"`
	UserId     uuid.UUID         `json:"user_id"`
	FolderId   *uuid.UUID        `json:"folder_id,omitempty"`
	Messages   []MessageResponse `json:"messages"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	SyncStatus string            `json:"sync_status,omitempty"`
}

type FolderResponse struct {
	Id         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	SyncStatus string    `json:"sync_status,omitempty"`
}

type NoticeResponse struct {
	Id        uuid.UUID `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionStateResponse struct {
	State                 string                 `json:"state"`
	Conversations         []ConversationResponse `json:"conversations"`
	Folders               []FolderResponse       `json:"folders"`
	CurrentConversationId *uuid.UUID             `json:"current_conversation_id,omitempty"`
	Notices               []NoticeResponse       `json:"notices"`
}

type CreateConversationRequest struct {
	FolderId *uuid.UUID `json:"folder_id"`
	Type     string     `json:"type" validate:"omitempty,oneof=regular personality-quiz"`
}

type SelectConversationRequest struct {
	ConversationId *uuid.UUID `json:"conversation_id"`
}

type MoveConversationRequest struct {
	FolderId *uuid.UUID `json:"folder_id"`
}

type SendMessageRequest struct {
	Content     string              `json:"content" validate:"required,max=8000"`
	Attachments []FileAttachmentDTO `json:"attachments" validate:"max=5,dive"`
}

type SendMessageResponse struct {
	UserMessage MessageResponse  `json:"user_message"`
	Reply       *MessageResponse `json:"reply,omitempty"`
	Notice      *NoticeResponse  `json:"notice,omitempty"`
	Discarded   bool             `json:"discarded"`
}

type FolderRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type GenerateImageRequest struct {
	Prompt  string `json:"prompt" validate:"required,max=1000"`
	Size    string `json:"size" validate:"omitempty,oneof=1024x1024 1792x1024 1024x1792"`
	Quality string `json:"quality" validate:"omitempty,oneof=standard hd"`
	Style   string `json:"style" validate:"omitempty,oneof=vivid natural"`
}

type PersonalityProfileResponse struct {
	Summary        string     `json:"summary"`
	Traits         []string   `json:"traits"`
	Interests      []string   `json:"interests"`
	LearningStyle  string     `json:"learning_style"`
	UpdatedAt      time.Time  `json:"updated_at"`
	ConversationId *uuid.UUID `json:"conversation_id,omitempty"`
}

type ChildSummaryResponse struct {
	Profile           ProfileResponse `json:"profile"`
	ConversationCount int             `json:"conversation_count"`
	LastInteraction   *time.Time      `json:"last_interaction"`
}

type TaggedConversationResponse struct {
	Conversation ConversationResponse `json:"conversation"`
	ChildId      uuid.UUID            `json:"child_id"`
	ChildName    string               `json:"child_name"`
}

type ParentOverviewResponse struct {
	Children      []ChildSummaryResponse       `json:"children"`
	Conversations []TaggedConversationResponse `json:"conversations"`
}
