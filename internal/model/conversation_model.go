package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Conversation struct {
	Id        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserId    uuid.UUID  `gorm:"type:uuid;not null;index"`
	Title     string     `gorm:"type:text;not null"`
	FolderId  *uuid.UUID `gorm:"type:uuid;index"`
	Type      string     `gorm:"type:varchar(32);not null;default:'regular'"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`

	Messages []Message `gorm:"foreignKey:ConversationId;constraint:OnDelete:CASCADE"`
}

func (Conversation) TableName() string {
	return "conversations"
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	assignId(&c.Id)
	return nil
}

type Message struct {
	Id                  uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ConversationId      uuid.UUID      `gorm:"type:uuid;not null;index"`
	Role                string         `gorm:"type:varchar(16);not null"`
	Content             string         `gorm:"type:text;not null"`
	Attachments         datatypes.JSON `gorm:"type:jsonb"`
	GeneratedImage      datatypes.JSON `gorm:"type:jsonb"`
	HomeworkMisuseScore *int           `gorm:"check:homework_misuse_score BETWEEN 0 AND 100"`
	CreatedAt           time.Time      `gorm:"not null;index"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	assignId(&m.Id)
	return nil
}

type ConversationFolder struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (ConversationFolder) TableName() string {
	return "conversation_folders"
}

func (f *ConversationFolder) BeforeCreate(tx *gorm.DB) error {
	assignId(&f.Id)
	return nil
}
