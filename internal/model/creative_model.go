package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PersonalityProfile struct {
	Id             uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	UserId         uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex"`
	ConversationId *uuid.UUID                  `gorm:"type:uuid"`
	Summary        string                      `gorm:"type:text"`
	Traits         datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Interests      datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	LearningStyle  string                      `gorm:"type:varchar(255)"`
	CreatedAt      time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt      time.Time                   `gorm:"autoUpdateTime"`
}

func (PersonalityProfile) TableName() string {
	return "personality_profiles"
}

func (p *PersonalityProfile) BeforeCreate(tx *gorm.DB) error {
	assignId(&p.Id)
	return nil
}

type Comic struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserId    uuid.UUID      `gorm:"type:uuid;not null;index"`
	Title     string         `gorm:"type:varchar(255);not null"`
	Story     string         `gorm:"type:text"`
	Style     string         `gorm:"type:varchar(64)"`
	Panels    datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
}

func (Comic) TableName() string {
	return "comics"
}

func (c *Comic) BeforeCreate(tx *gorm.DB) error {
	assignId(&c.Id)
	return nil
}

type Character struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId      uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"type:varchar(255);not null"`
	Description string    `gorm:"type:text"`
	ImageUrl    *string   `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (Character) TableName() string {
	return "character_library"
}

func (c *Character) BeforeCreate(tx *gorm.DB) error {
	assignId(&c.Id)
	return nil
}
