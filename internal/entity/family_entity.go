package entity

import (
	"time"

	"github.com/google/uuid"
)

type ProfileRole string

const (
	ProfileRoleParent ProfileRole = "parent"
	ProfileRoleChild  ProfileRole = "child"
)

type ProfileImageType string

const (
	ProfileImageDefault ProfileImageType = "default"
	ProfileImageAvatar  ProfileImageType = "avatar"
	ProfileImageCustom  ProfileImageType = "custom"
)

type Profile struct {
	Id                    uuid.UUID
	Email                 *string
	FullName              *string
	Role                  ProfileRole
	FamilyId              *uuid.UUID
	Age                   *int
	ProfileImageType      ProfileImageType
	CustomProfileImageUrl *string
	ParentPinHash         *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (p *Profile) IsParent() bool {
	return p != nil && p.Role == ProfileRoleParent
}

func (p *Profile) DisplayName() string {
	if p.FullName != nil && *p.FullName != "" {
		return *p.FullName
	}
	if p.Email != nil {
		return *p.Email
	}
	return p.Id.String()
}

type Family struct {
	Id           uuid.UUID
	Name         string
	FamilyCode   string
	OpenAIAPIKey *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type FamilyMember struct {
	Id       uuid.UUID
	FamilyId uuid.UUID
	UserId   uuid.UUID
	Role     ProfileRole
	JoinedAt time.Time
}
