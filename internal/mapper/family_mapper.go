package mapper

import (
	"kidsgpt-be/internal/entity"
	"kidsgpt-be/internal/model"
)

type FamilyMapper struct{}

func NewFamilyMapper() *FamilyMapper {
	return &FamilyMapper{}
}

func (m *FamilyMapper) ProfileToEntity(p *model.Profile) *entity.Profile {
	if p == nil {
		return nil
	}
	return &entity.Profile{
		Id:                    p.Id,
		Email:                 p.Email,
		FullName:              p.FullName,
		Role:                  entity.ProfileRole(p.Role),
		FamilyId:              p.FamilyId,
		Age:                   p.Age,
		ProfileImageType:      entity.ProfileImageType(p.ProfileImageType),
		CustomProfileImageUrl: p.CustomProfileImageUrl,
		ParentPinHash:         p.ParentPinHash,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
}

func (m *FamilyMapper) ProfileToModel(p *entity.Profile) *model.Profile {
	if p == nil {
		return nil
	}
	imageType := string(p.ProfileImageType)
	if imageType == "" {
		imageType = string(entity.ProfileImageDefault)
	}
	return &model.Profile{
		Id:                    p.Id,
		Email:                 p.Email,
		FullName:              p.FullName,
		Role:                  string(p.Role),
		FamilyId:              p.FamilyId,
		Age:                   p.Age,
		ProfileImageType:      imageType,
		CustomProfileImageUrl: p.CustomProfileImageUrl,
		ParentPinHash:         p.ParentPinHash,
		CreatedAt:             p.CreatedAt.UTC(),
		UpdatedAt:             p.UpdatedAt.UTC(),
	}
}

func (m *FamilyMapper) ProfilesToEntities(models []*model.Profile) []*entity.Profile {
	out := make([]*entity.Profile, len(models))
	for i, p := range models {
		out[i] = m.ProfileToEntity(p)
	}
	return out
}

func (m *FamilyMapper) FamilyToEntity(f *model.Family) *entity.Family {
	if f == nil {
		return nil
	}
	return &entity.Family{
		Id:           f.Id,
		Name:         f.Name,
		FamilyCode:   f.FamilyCode,
		OpenAIAPIKey: f.OpenAIAPIKey,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

func (m *FamilyMapper) FamilyToModel(f *entity.Family) *model.Family {
	if f == nil {
		return nil
	}
	return &model.Family{
		Id:           f.Id,
		Name:         f.Name,
		FamilyCode:   f.FamilyCode,
		OpenAIAPIKey: f.OpenAIAPIKey,
		CreatedAt:    f.CreatedAt.UTC(),
		UpdatedAt:    f.UpdatedAt.UTC(),
	}
}

func (m *FamilyMapper) MemberToEntity(fm *model.FamilyMember) *entity.FamilyMember {
	if fm == nil {
		return nil
	}
	return &entity.FamilyMember{
		Id:       fm.Id,
		FamilyId: fm.FamilyId,
		UserId:   fm.UserId,
		Role:     entity.ProfileRole(fm.Role),
		JoinedAt: fm.JoinedAt,
	}
}

func (m *FamilyMapper) MemberToModel(fm *entity.FamilyMember) *model.FamilyMember {
	if fm == nil {
		return nil
	}
	return &model.FamilyMember{
		Id:       fm.Id,
		FamilyId: fm.FamilyId,
		UserId:   fm.UserId,
		Role:     string(fm.Role),
		JoinedAt: fm.JoinedAt.UTC(),
	}
}

func (m *FamilyMapper) MembersToEntities(models []*model.FamilyMember) []*entity.FamilyMember {
	out := make([]*entity.FamilyMember, len(models))
	for i, fm := range models {
		out[i] = m.MemberToEntity(fm)
	}
	return out
}
