package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Profile struct {
	Id                    uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Email                 *string    `gorm:"type:varchar(255);index"`
	FullName              *string    `gorm:"type:varchar(255)"`
	Role                  string     `gorm:"type:varchar(16);not null"`
	FamilyId              *uuid.UUID `gorm:"type:uuid;index"`
	Age                   *int
	ProfileImageType      string    `gorm:"type:varchar(16);not null;default:'default'"`
	CustomProfileImageUrl *string   `gorm:"type:text"`
	ParentPinHash         *string   `gorm:"type:text"`
	CreatedAt             time.Time `gorm:"autoCreateTime"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime"`
}

func (Profile) TableName() string {
	return "profiles"
}

type Family struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"type:varchar(255);not null"`
	FamilyCode   string    `gorm:"type:varchar(6);not null;uniqueIndex"`
	OpenAIAPIKey *string   `gorm:"column:openai_api_key;type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (Family) TableName() string {
	return "families"
}

func (f *Family) BeforeCreate(tx *gorm.DB) error {
	assignId(&f.Id)
	return nil
}

type FamilyMember struct {
	Id       uuid.UUID `gorm:"type:uuid;primaryKey"`
	FamilyId uuid.UUID `gorm:"type:uuid;not null;index"`
	UserId   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Role     string    `gorm:"type:varchar(16);not null"`
	JoinedAt time.Time `gorm:"autoCreateTime"`
}

func (FamilyMember) TableName() string {
	return "family_members"
}

func (m *FamilyMember) BeforeCreate(tx *gorm.DB) error {
	assignId(&m.Id)
	return nil
}
