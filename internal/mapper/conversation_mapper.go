package mapper

import (
	"encoding/json"

	"kidsgpt-be/internal/entity"
	"kidsgpt-be/internal/model"

	"gorm.io/datatypes"
)

type ConversationMapper struct{}

func NewConversationMapper() *ConversationMapper {
	return &ConversationMapper{}
}

// Conversation Mappers

func (m *ConversationMapper) ConversationToEntity(c *model.Conversation) *entity.Conversation {
	if c == nil {
		return nil
	}
	return &entity.Conversation{
		Id:        c.Id,
		Title:     c.Title,
		Messages:  []*entity.Message{},
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		UserId:    c.UserId,
		FolderId:  c.FolderId,
		Type:      entity.ConversationType(c.Type),
		Sync:      entity.SyncCommitted,
	}
}

func (m *ConversationMapper) ConversationToModel(c *entity.Conversation) *model.Conversation {
	if c == nil {
		return nil
	}
	return &model.Conversation{
		Id:        c.Id,
		UserId:    c.UserId,
		Title:     c.Title,
		FolderId:  c.FolderId,
		Type:      string(c.Type),
		CreatedAt: c.CreatedAt.UTC(),
		UpdatedAt: c.UpdatedAt.UTC(),
	}
}

func (m *ConversationMapper) ConversationsToEntities(models []*model.Conversation) []*entity.Conversation {
	out := make([]*entity.Conversation, len(models))
	for i, c := range models {
		out[i] = m.ConversationToEntity(c)
	}
	return out
}

// Message Mappers

func (m *ConversationMapper) MessageToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}

	var attachments []entity.FileAttachment
	if len(msg.Attachments) > 0 {
		_ = json.Unmarshal(msg.Attachments, &attachments)
	}

	var image *entity.GeneratedImage
	if len(msg.GeneratedImage) > 0 && string(msg.GeneratedImage) != "null" {
		var img entity.GeneratedImage
		if err := json.Unmarshal(msg.GeneratedImage, &img); err == nil {
			image = &img
		}
	}

	return &entity.Message{
		Id:                  msg.Id,
		ConversationId:      msg.ConversationId,
		Role:                entity.MessageRole(msg.Role),
		Content:             msg.Content,
		Timestamp:           msg.CreatedAt,
		Attachments:         attachments,
		GeneratedImage:      image,
		HomeworkMisuseScore: msg.HomeworkMisuseScore,
		Sync:                entity.SyncCommitted,
	}
}

func (m *ConversationMapper) MessageToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}

	var attachments datatypes.JSON
	if len(msg.Attachments) > 0 {
		if raw, err := json.Marshal(msg.Attachments); err == nil {
			attachments = datatypes.JSON(raw)
		}
	}

	var image datatypes.JSON
	if msg.GeneratedImage != nil {
		if raw, err := json.Marshal(msg.GeneratedImage); err == nil {
			image = datatypes.JSON(raw)
		}
	}

	return &model.Message{
		Id:                  msg.Id,
		ConversationId:      msg.ConversationId,
		Role:                string(msg.Role),
		Content:             msg.Content,
		Attachments:         attachments,
		GeneratedImage:      image,
		HomeworkMisuseScore: msg.HomeworkMisuseScore,
		CreatedAt:           msg.Timestamp.UTC(),
	}
}

func (m *ConversationMapper) MessagesToEntities(models []*model.Message) []*entity.Message {
	out := make([]*entity.Message, len(models))
	for i, msg := range models {
		out[i] = m.MessageToEntity(msg)
	}
	return out
}

// Folder Mappers

func (m *ConversationMapper) FolderToEntity(f *model.ConversationFolder) *entity.Folder {
	if f == nil {
		return nil
	}
	return &entity.Folder{
		Id:        f.Id,
		Name:      f.Name,
		UserId:    f.UserId,
		CreatedAt: f.CreatedAt,
		Sync:      entity.SyncCommitted,
	}
}

func (m *ConversationMapper) FolderToModel(f *entity.Folder) *model.ConversationFolder {
	if f == nil {
		return nil
	}
	return &model.ConversationFolder{
		Id:        f.Id,
		UserId:    f.UserId,
		Name:      f.Name,
		CreatedAt: f.CreatedAt.UTC(),
	}
}

func (m *ConversationMapper) FoldersToEntities(models []*model.ConversationFolder) []*entity.Folder {
	out := make([]*entity.Folder, len(models))
	for i, f := range models {
		out[i] = m.FolderToEntity(f)
	}
	return out
}
