package implementation

import (
	"context"
	"errors"

	"kidsgpt-be/internal/entity"
	"kidsgpt-be/internal/mapper"
	"kidsgpt-be/internal/model"
	"kidsgpt-be/internal/repository/contract"
	"kidsgpt-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PersonalityProfileRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CreativeMapper
}

func NewPersonalityProfileRepository(db *gorm.DB) contract.PersonalityProfileRepository {
	return &PersonalityProfileRepositoryImpl{
		db:     db,
		mapper: mapper.NewCreativeMapper(),
	}
}

func (r *PersonalityProfileRepositoryImpl) Upsert(ctx context.Context, profile *entity.PersonalityProfile) error {
	m := r.mapper.PersonalityToModel(profile)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"conversation_id", "summary", "traits", "interests", "learning_style", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	*profile = *r.mapper.PersonalityToEntity(m)
	return nil
}

func (r *PersonalityProfileRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PersonalityProfile, error) {
	var m model.PersonalityProfile
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.PersonalityToEntity(&m), nil
}

type ComicRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CreativeMapper
}

func NewComicRepository(db *gorm.DB) contract.ComicRepository {
	return &ComicRepositoryImpl{
		db:     db,
		mapper: mapper.NewCreativeMapper(),
	}
}

func (r *ComicRepositoryImpl) Create(ctx context.Context, comic *entity.Comic) error {
	m := r.mapper.ComicToModel(comic)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*comic = *r.mapper.ComicToEntity(m)
	return nil
}

func (r *ComicRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Comic{}, "id = ?", id).Error
}

func (r *ComicRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Comic, error) {
	var m model.Comic
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ComicToEntity(&m), nil
}

func (r *ComicRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Comic, error) {
	var models []*model.Comic
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ComicsToEntities(models), nil
}

type CharacterRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CreativeMapper
}

func NewCharacterRepository(db *gorm.DB) contract.CharacterRepository {
	return &CharacterRepositoryImpl{
		db:     db,
		mapper: mapper.NewCreativeMapper(),
	}
}

func (r *CharacterRepositoryImpl) Create(ctx context.Context, character *entity.Character) error {
	m := r.mapper.CharacterToModel(character)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*character = *r.mapper.CharacterToEntity(m)
	return nil
}

func (r *CharacterRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Character{}, "id = ?", id).Error
}

func (r *CharacterRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Character, error) {
	var models []*model.Character
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.CharactersToEntities(models), nil
}
