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
)

type ProfileRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.FamilyMapper
}

func NewProfileRepository(db *gorm.DB) contract.ProfileRepository {
	return &ProfileRepositoryImpl{
		db:     db,
		mapper: mapper.NewFamilyMapper(),
	}
}

func (r *ProfileRepositoryImpl) Create(ctx context.Context, profile *entity.Profile) error {
	m := r.mapper.ProfileToModel(profile)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*profile = *r.mapper.ProfileToEntity(m)
	return nil
}

// Update writes the self-service fields. Role and age are left alone.
func (r *ProfileRepositoryImpl) Update(ctx context.Context, profile *entity.Profile) error {
	m := r.mapper.ProfileToModel(profile)
	return r.db.WithContext(ctx).
		Model(&model.Profile{}).
		Where("id = ?", profile.Id).
		Updates(map[string]interface{}{
			"full_name":                m.FullName,
			"email":                    m.Email,
			"family_id":                m.FamilyId,
			"profile_image_type":       m.ProfileImageType,
			"custom_profile_image_url": m.CustomProfileImageUrl,
			"parent_pin_hash":          m.ParentPinHash,
		}).Error
}

func (r *ProfileRepositoryImpl) UpdateAge(ctx context.Context, id uuid.UUID, age int) error {
	return r.db.WithContext(ctx).Model(&model.Profile{}).Where("id = ?", id).Update("age", age).Error
}

func (r *ProfileRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Profile, error) {
	var m model.Profile
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ProfileToEntity(&m), nil
}

func (r *ProfileRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Profile, error) {
	var models []*model.Profile
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ProfilesToEntities(models), nil
}

type FamilyRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.FamilyMapper
}

func NewFamilyRepository(db *gorm.DB) contract.FamilyRepository {
	return &FamilyRepositoryImpl{
		db:     db,
		mapper: mapper.NewFamilyMapper(),
	}
}

func (r *FamilyRepositoryImpl) Create(ctx context.Context, family *entity.Family) error {
	m := r.mapper.FamilyToModel(family)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*family = *r.mapper.FamilyToEntity(m)
	return nil
}

func (r *FamilyRepositoryImpl) UpdateAPIKey(ctx context.Context, id uuid.UUID, apiKey *string) error {
	return r.db.WithContext(ctx).Model(&model.Family{}).Where("id = ?", id).Update("openai_api_key", apiKey).Error
}

func (r *FamilyRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Family, error) {
	var m model.Family
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.FamilyToEntity(&m), nil
}

type FamilyMemberRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.FamilyMapper
}

func NewFamilyMemberRepository(db *gorm.DB) contract.FamilyMemberRepository {
	return &FamilyMemberRepositoryImpl{
		db:     db,
		mapper: mapper.NewFamilyMapper(),
	}
}

func (r *FamilyMemberRepositoryImpl) Create(ctx context.Context, member *entity.FamilyMember) error {
	m := r.mapper.MemberToModel(member)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*member = *r.mapper.MemberToEntity(m)
	return nil
}

func (r *FamilyMemberRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FamilyMember, error) {
	var models []*model.FamilyMember
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.MembersToEntities(models), nil
}
