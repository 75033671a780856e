package entity

import (
	"time"

	"github.com/google/uuid"
)

type PersonalityProfile struct {
	Id             uuid.UUID
	UserId         uuid.UUID
	ConversationId *uuid.UUID
	Summary        string
	Traits         []string
	Interests      []string
	LearningStyle  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type ComicPanel struct {
	Index    int    `json:"index"`
	Scene    string `json:"scene"`
	Caption  string `json:"caption"`
	Prompt   string `json:"prompt"`
	ImageUrl string `json:"image_url"`
}

type Comic struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     string
	Story     string
	Style     string
	Panels    []ComicPanel
	CreatedAt time.Time
}

// Character is a reusable figure from a user's character library.
type Character struct {
	Id          uuid.UUID
	UserId      uuid.UUID
	Name        string
	Description string
	ImageUrl    *string
	CreatedAt   time.Time
}
