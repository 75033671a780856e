package mapper

import (
	"encoding/json"

	"kidsgpt-be/internal/entity"
	"kidsgpt-be/internal/model"

	"gorm.io/datatypes"
)

type CreativeMapper struct{}

func NewCreativeMapper() *CreativeMapper {
	return &CreativeMapper{}
}

func (m *CreativeMapper) PersonalityToEntity(p *model.PersonalityProfile) *entity.PersonalityProfile {
	if p == nil {
		return nil
	}
	return &entity.PersonalityProfile{
		Id:             p.Id,
		UserId:         p.UserId,
		ConversationId: p.ConversationId,
		Summary:        p.Summary,
		Traits:         []string(p.Traits),
		Interests:      []string(p.Interests),
		LearningStyle:  p.LearningStyle,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func (m *CreativeMapper) PersonalityToModel(p *entity.PersonalityProfile) *model.PersonalityProfile {
	if p == nil {
		return nil
	}
	return &model.PersonalityProfile{
		Id:             p.Id,
		UserId:         p.UserId,
		ConversationId: p.ConversationId,
		Summary:        p.Summary,
		Traits:         datatypes.JSONSlice[string](p.Traits),
		Interests:      datatypes.JSONSlice[string](p.Interests),
		LearningStyle:  p.LearningStyle,
		CreatedAt:      p.CreatedAt.UTC(),
		UpdatedAt:      p.UpdatedAt.UTC(),
	}
}

func (m *CreativeMapper) ComicToEntity(c *model.Comic) *entity.Comic {
	if c == nil {
		return nil
	}
	var panels []entity.ComicPanel
	if len(c.Panels) > 0 {
		_ = json.Unmarshal(c.Panels, &panels)
	}
	return &entity.Comic{
		Id:        c.Id,
		UserId:    c.UserId,
		Title:     c.Title,
		Story:     c.Story,
		Style:     c.Style,
		Panels:    panels,
		CreatedAt: c.CreatedAt,
	}
}

func (m *CreativeMapper) ComicToModel(c *entity.Comic) *model.Comic {
	if c == nil {
		return nil
	}
	panels, _ := json.Marshal(c.Panels)
	return &model.Comic{
		Id:        c.Id,
		UserId:    c.UserId,
		Title:     c.Title,
		Story:     c.Story,
		Style:     c.Style,
		Panels:    datatypes.JSON(panels),
		CreatedAt: c.CreatedAt.UTC(),
	}
}

func (m *CreativeMapper) ComicsToEntities(models []*model.Comic) []*entity.Comic {
	out := make([]*entity.Comic, len(models))
	for i, c := range models {
		out[i] = m.ComicToEntity(c)
	}
	return out
}

func (m *CreativeMapper) CharacterToEntity(c *model.Character) *entity.Character {
	if c == nil {
		return nil
	}
	return &entity.Character{
		Id:          c.Id,
		UserId:      c.UserId,
		Name:        c.Name,
		Description: c.Description,
		ImageUrl:    c.ImageUrl,
		CreatedAt:   c.CreatedAt,
	}
}

func (m *CreativeMapper) CharacterToModel(c *entity.Character) *model.Character {
	if c == nil {
		return nil
	}
	return &model.Character{
		Id:          c.Id,
		UserId:      c.UserId,
		Name:        c.Name,
		Description: c.Description,
		ImageUrl:    c.ImageUrl,
		CreatedAt:   c.CreatedAt.UTC(),
	}
}

func (m *CreativeMapper) CharactersToEntities(models []*model.Character) []*entity.Character {
	out := make([]*entity.Character, len(models))
	for i, c := range models {
		out[i] = m.CharacterToEntity(c)
	}
	return out
}
