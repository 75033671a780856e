package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByConversationID struct {
	ConversationID uuid.UUID
}

func (s ByConversationID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("conversation_id = ?", s.ConversationID)
}

type ByConversationIDs struct {
	ConversationIDs []uuid.UUID
}

func (s ByConversationIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("conversation_id IN ?", s.ConversationIDs)
}

// ByFolderID matches conversations filed under a folder.
type ByFolderID struct {
	FolderID uuid.UUID
}

func (s ByFolderID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("folder_id = ?", s.FolderID)
}
