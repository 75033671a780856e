package unitofwork

import (
	"context"

	"kidsgpt-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ConversationRepository() contract.ConversationRepository
	MessageRepository() contract.MessageRepository
	FolderRepository() contract.FolderRepository

	ProfileRepository() contract.ProfileRepository
	FamilyRepository() contract.FamilyRepository
	FamilyMemberRepository() contract.FamilyMemberRepository

	PersonalityProfileRepository() contract.PersonalityProfileRepository
	ComicRepository() contract.ComicRepository
	CharacterRepository() contract.CharacterRepository
}
