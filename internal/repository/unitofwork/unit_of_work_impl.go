package unitofwork

import (
	"context"
	"fmt"

	"kidsgpt-be/internal/repository/contract"
	"kidsgpt-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	u.tx = u.db.WithContext(ctx).Begin()
	return u.tx.Error
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

// Repository Accessors

func (u *UnitOfWorkImpl) ConversationRepository() contract.ConversationRepository {
	return implementation.NewConversationRepository(u.getDB())
}

func (u *UnitOfWorkImpl) MessageRepository() contract.MessageRepository {
	return implementation.NewMessageRepository(u.getDB())
}

func (u *UnitOfWorkImpl) FolderRepository() contract.FolderRepository {
	return implementation.NewFolderRepository(u.getDB())
}

func (u *UnitOfWorkImpl) ProfileRepository() contract.ProfileRepository {
	return implementation.NewProfileRepository(u.getDB())
}

func (u *UnitOfWorkImpl) FamilyRepository() contract.FamilyRepository {
	return implementation.NewFamilyRepository(u.getDB())
}

func (u *UnitOfWorkImpl) FamilyMemberRepository() contract.FamilyMemberRepository {
	return implementation.NewFamilyMemberRepository(u.getDB())
}

func (u *UnitOfWorkImpl) PersonalityProfileRepository() contract.PersonalityProfileRepository {
	return implementation.NewPersonalityProfileRepository(u.getDB())
}

func (u *UnitOfWorkImpl) ComicRepository() contract.ComicRepository {
	return implementation.NewComicRepository(u.getDB())
}

func (u *UnitOfWorkImpl) CharacterRepository() contract.CharacterRepository {
	return implementation.NewCharacterRepository(u.getDB())
}
