package dto

import (
	"time"

	"github.com/google/uuid"
)

type RegisterProfileRequest struct {
	Role       string `json:"role" validate:"required,oneof=parent child"`
	FullName   string `json:"full_name" validate:"omitempty,max=100"`
	FamilyName string `json:"family_name" validate:"omitempty,max=100"`
	// FamilyCode and Age are required for children.
	FamilyCode string `json:"family_code" validate:"omitempty,len=6,alphanum"`
	Age        *int   `json:"age" validate:"omitempty,min=3,max=18"`
}

type UpdateProfileRequest struct {
	FullName              string `json:"full_name" validate:"omitempty,max=100"`
	ProfileImageType      string `json:"profile_image_type" validate:"omitempty,oneof=default avatar custom"`
	CustomProfileImageUrl string `json:"custom_profile_image_url" validate:"omitempty,url"`
}

type ProfileResponse struct {
	Id                    uuid.UUID  `json:"id"`
	Email                 *string    `json:"email,omitempty"`
	FullName              *string    `json:"full_name,omitempty"`
	Role                  string     `json:"role"`
	FamilyId              *uuid.UUID `json:"family_id,omitempty"`
	Age                   *int       `json:"age,omitempty"`
	ProfileImageType      string     `json:"profile_image_type"`
	CustomProfileImageUrl *string    `json:"custom_profile_image_url,omitempty"`
	HasParentPin          bool       `json:"has_parent_pin"`
	CreatedAt             time.Time  `json:"created_at"`
}

type UpdateChildAgeRequest struct {
	Age int `json:"age" validate:"required,min=3,max=18"`
}

type ParentPinRequest struct {
	Pin string `json:"pin" validate:"required,numeric,min=4,max=8"`
}

type VerifyParentPinResponse struct {
	Valid bool `json:"valid"`
}

type FamilyMemberResponse struct {
	UserId   uuid.UUID `json:"user_id"`
	Role     string    `json:"role"`
	FullName string    `json:"full_name"`
	Age      *int      `json:"age,omitempty"`
	JoinedAt time.Time `json:"joined_at"`
}

// FamilyResponse never carries the key itself.
type FamilyResponse struct {
	Id         uuid.UUID              `json:"id"`
	Name       string                 `json:"name"`
	FamilyCode string                 `json:"family_code"`
	HasAPIKey  bool                   `json:"has_api_key"`
	Members    []FamilyMemberResponse `json:"members"`
}

// SetFamilyAPIKeyRequest clears the key when APIKey is empty.
type SetFamilyAPIKeyRequest struct {
	APIKey string `json:"api_key" validate:"omitempty,min=20,max=200"`
}
