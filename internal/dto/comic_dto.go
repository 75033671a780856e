package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateComicRequest struct {
	Title        string      `json:"title" validate:"required,max=200"`
	Story        string      `json:"story" validate:"required,max=4000"`
	Style        string      `json:"style" validate:"omitempty,oneof=cartoon manga watercolor pixel storybook"`
	PanelCount   int         `json:"panel_count" validate:"omitempty,min=1,max=6"`
	CharacterIds []uuid.UUID `json:"character_ids" validate:"max=4"`
}

type ComicPanelResponse struct {
	Index    int    `json:"index"`
	Scene    string `json:"scene"`
	Caption  string `json:"caption"`
	ImageUrl string `json:"image_url"`
}

type ComicResponse struct {
	Id        uuid.UUID            `json:"id"`
	Title     string               `json:"title"`
	Story     string               `json:"story"`
	Style     string               `json:"style"`
	Panels    []ComicPanelResponse `json:"panels"`
	CreatedAt time.Time            `json:"created_at"`
}

type CreateCharacterRequest struct {
	Name        string `json:"name" validate:"required,max=60"`
	Description string `json:"description" validate:"required,max=500"`
	ImageUrl    string `json:"image_url" validate:"omitempty,url"`
}

type CharacterResponse struct {
	Id          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageUrl    *string   `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
