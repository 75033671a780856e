package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"kidsgpt-be/internal/dto"
	"kidsgpt-be/internal/entity"
	"kidsgpt-be/internal/pkg/apperr"
	"kidsgpt-be/internal/repository/specification"
	"kidsgpt-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	familyCodeLength   = 6
	familyCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	minChildAge        = 3
	maxChildAge        = 18
)

type IFamilyService interface {
	Register(ctx context.Context, userId uuid.UUID, email string, req *dto.RegisterProfileRequest) (*dto.ProfileResponse, error)
	GetProfile(ctx context.Context, userId uuid.UUID) (*dto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, userId uuid.UUID, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error)
	GetFamily(ctx context.Context, userId uuid.UUID) (*dto.FamilyResponse, error)
	UpdateChildAge(ctx context.Context, parentId, childId uuid.UUID, age int) error
	SetFamilyAPIKey(ctx context.Context, parentId uuid.UUID, apiKey string) error
	ResolveAPIKey(ctx context.Context, userId uuid.UUID, personalKey string) (string, error)
	SetParentPIN(ctx context.Context, parentId uuid.UUID, pin string) error
	VerifyParentPIN(ctx context.Context, parentId uuid.UUID, pin string) (bool, error)
	FamilyParents(ctx context.Context, childId uuid.UUID) ([]*entity.Profile, error)
	Profile(ctx context.Context, userId uuid.UUID) (*entity.Profile, error)
}

type familyService struct {
	uowFactory    unitofwork.RepositoryFactory
	defaultAPIKey string
}

func NewFamilyService(uowFactory unitofwork.RepositoryFactory, defaultAPIKey string) IFamilyService {
	return &familyService{
		uowFactory:    uowFactory,
		defaultAPIKey: defaultAPIKey,
	}
}

func generateFamilyCode() (string, error) {
	var sb strings.Builder
	size := big.NewInt(int64(len(familyCodeAlphabet)))
	for i := 0; i < familyCodeLength; i++ {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		sb.WriteByte(familyCodeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// Register creates the caller's profile. A parent gets a new family; a child
// joins the family whose code they present.
func (s *familyService) Register(ctx context.Context, userId uuid.UUID, email string, req *dto.RegisterProfileRequest) (*dto.ProfileResponse, error) {
	if userId == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}
	role := entity.ProfileRole(req.Role)

	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.ProfileRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("profile already registered")
	}

	now := time.Now()
	profile := &entity.Profile{
		Id:               userId,
		Role:             role,
		ProfileImageType: entity.ProfileImageDefault,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if email != "" {
		profile.Email = &email
	}
	if name := strings.TrimSpace(req.FullName); name != "" {
		profile.FullName = &name
	}

	var family *entity.Family
	createFamily := false
	switch role {
	case entity.ProfileRoleParent:
		// A parent with a code joins as a co-parent.
		if strings.TrimSpace(req.FamilyCode) != "" {
			family, err = s.familyByCode(ctx, uow, req.FamilyCode)
		} else {
			family, err = s.newFamily(ctx, uow, familyName(req.FamilyName, profile))
			createFamily = true
		}
		if err != nil {
			return nil, err
		}
	case entity.ProfileRoleChild:
		if req.Age == nil {
			return nil, apperr.BadRequest("age is required for a child profile")
		}
		if *req.Age < minChildAge || *req.Age > maxChildAge {
			return nil, apperr.BadRequest("age must be between %d and %d", minChildAge, maxChildAge)
		}
		if strings.TrimSpace(req.FamilyCode) == "" {
			return nil, apperr.BadRequest("family code is required for a child profile")
		}
		family, err = s.familyByCode(ctx, uow, req.FamilyCode)
		if err != nil {
			return nil, err
		}
		age := *req.Age
		profile.Age = &age
	default:
		return nil, apperr.BadRequest("unknown role %q", req.Role)
	}
	profile.FamilyId = &family.Id

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if createFamily {
		if err := uow.FamilyRepository().Create(ctx, family); err != nil {
			return nil, fmt.Errorf("create family: %w", err)
		}
	}
	if err := uow.ProfileRepository().Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	if err := uow.FamilyMemberRepository().Create(ctx, &entity.FamilyMember{
		Id:       uuid.New(),
		FamilyId: family.Id,
		UserId:   profile.Id,
		Role:     role,
		JoinedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("add family member: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return ToProfileResponse(profile), nil
}

func (s *familyService) familyByCode(ctx context.Context, uow unitofwork.UnitOfWork, code string) (*entity.Family, error) {
	family, err := uow.FamilyRepository().FindOne(ctx, specification.ByFamilyCode{Code: strings.ToUpper(strings.TrimSpace(code))})
	if err != nil {
		return nil, err
	}
	if family == nil {
		return nil, apperr.BadRequest("invalid family code")
	}
	return family, nil
}

func familyName(requested string, owner *entity.Profile) string {
	if name := strings.TrimSpace(requested); name != "" {
		return name
	}
	if owner.FullName != nil {
		return fmt.Sprintf("%s's Family", *owner.FullName)
	}
	return "My Family"
}

// newFamily picks a code not already taken. The unique index still guards
// against a concurrent registration drawing the same code.
func (s *familyService) newFamily(ctx context.Context, uow unitofwork.UnitOfWork, name string) (*entity.Family, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code, err := generateFamilyCode()
		if err != nil {
			return nil, err
		}
		taken, err := uow.FamilyRepository().FindOne(ctx, specification.ByFamilyCode{Code: code})
		if err != nil {
			return nil, err
		}
		if taken == nil {
			now := time.Now()
			return &entity.Family{
				Id:         uuid.New(),
				Name:       name,
				FamilyCode: code,
				CreatedAt:  now,
				UpdatedAt:  now,
			}, nil
		}
	}
	return nil, errors.New("could not allocate a family code")
}

func (s *familyService) Profile(ctx context.Context, userId uuid.UUID) (*entity.Profile, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return s.requireProfile(ctx, uow, userId)
}

func (s *familyService) GetProfile(ctx context.Context, userId uuid.UUID) (*dto.ProfileResponse, error) {
	profile, err := s.Profile(ctx, userId)
	if err != nil {
		return nil, err
	}
	return ToProfileResponse(profile), nil
}

func (s *familyService) UpdateProfile(ctx context.Context, userId uuid.UUID, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	profile, err := s.requireProfile(ctx, uow, userId)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.FullName); name != "" {
		profile.FullName = &name
	}
	if req.ProfileImageType != "" {
		profile.ProfileImageType = entity.ProfileImageType(req.ProfileImageType)
	}
	if profile.ProfileImageType == entity.ProfileImageCustom {
		if req.CustomProfileImageUrl == "" && profile.CustomProfileImageUrl == nil {
			return nil, apperr.BadRequest("custom profile image requires an image url")
		}
		if req.CustomProfileImageUrl != "" {
			url := req.CustomProfileImageUrl
			profile.CustomProfileImageUrl = &url
		}
	} else {
		profile.CustomProfileImageUrl = nil
	}

	if err := uow.ProfileRepository().Update(ctx, profile); err != nil {
		return nil, err
	}
	return ToProfileResponse(profile), nil
}

func (s *familyService) GetFamily(ctx context.Context, userId uuid.UUID) (*dto.FamilyResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	profile, err := s.requireProfile(ctx, uow, userId)
	if err != nil {
		return nil, err
	}
	if profile.FamilyId == nil {
		return nil, apperr.NotFound("family")
	}

	family, err := uow.FamilyRepository().FindOne(ctx, specification.ByID{ID: *profile.FamilyId})
	if err != nil {
		return nil, err
	}
	if family == nil {
		return nil, apperr.NotFound("family")
	}

	members, err := uow.FamilyMemberRepository().FindAll(ctx,
		specification.ByFamilyID{FamilyID: family.Id},
		specification.OrderBy{Field: "joined_at"},
	)
	if err != nil {
		return nil, err
	}
	profiles, err := uow.ProfileRepository().FindAll(ctx, specification.ByFamilyID{FamilyID: family.Id})
	if err != nil {
		return nil, err
	}
	byId := make(map[uuid.UUID]*entity.Profile, len(profiles))
	for _, p := range profiles {
		byId[p.Id] = p
	}

	res := &dto.FamilyResponse{
		Id:         family.Id,
		Name:       family.Name,
		FamilyCode: family.FamilyCode,
		HasAPIKey:  family.OpenAIAPIKey != nil && *family.OpenAIAPIKey != "",
		Members:    make([]dto.FamilyMemberResponse, 0, len(members)),
	}
	for _, m := range members {
		member := dto.FamilyMemberResponse{UserId: m.UserId, Role: string(m.Role), JoinedAt: m.JoinedAt}
		if p, ok := byId[m.UserId]; ok {
			member.FullName = p.DisplayName()
			member.Age = p.Age
		}
		res.Members = append(res.Members, member)
	}
	return res, nil
}

// UpdateChildAge is the only path that changes a profile's age. The caller
// must be a parent in the child's family.
func (s *familyService) UpdateChildAge(ctx context.Context, parentId, childId uuid.UUID, age int) error {
	if age < minChildAge || age > maxChildAge {
		return apperr.BadRequest("age must be between %d and %d", minChildAge, maxChildAge)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	parent, err := s.requireParent(ctx, uow, parentId)
	if err != nil {
		return err
	}
	child, err := s.requireProfile(ctx, uow, childId)
	if err != nil {
		return err
	}
	if child.Role != entity.ProfileRoleChild {
		return apperr.BadRequest("only a child's age can be changed")
	}
	if !sameFamily(parent, child) {
		return apperr.Forbidden("child is not in your family")
	}
	return uow.ProfileRepository().UpdateAge(ctx, childId, age)
}

// SetFamilyAPIKey replaces the shared key; concurrent writers race and the
// last one wins. An empty key clears it.
func (s *familyService) SetFamilyAPIKey(ctx context.Context, parentId uuid.UUID, apiKey string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	parent, err := s.requireParent(ctx, uow, parentId)
	if err != nil {
		return err
	}
	if parent.FamilyId == nil {
		return apperr.NotFound("family")
	}

	var key *string
	if trimmed := strings.TrimSpace(apiKey); trimmed != "" {
		key = &trimmed
	}
	return uow.FamilyRepository().UpdateAPIKey(ctx, *parent.FamilyId, key)
}

// ResolveAPIKey picks the family key, then the caller's personal key, then
// the server default.
func (s *familyService) ResolveAPIKey(ctx context.Context, userId uuid.UUID, personalKey string) (string, error) {
	personalKey = strings.TrimSpace(personalKey)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	profile, err := uow.ProfileRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return "", err
	}
	if profile != nil && profile.FamilyId != nil {
		family, err := uow.FamilyRepository().FindOne(ctx, specification.ByID{ID: *profile.FamilyId})
		if err != nil {
			return "", err
		}
		if family != nil && family.OpenAIAPIKey != nil && *family.OpenAIAPIKey != "" {
			return *family.OpenAIAPIKey, nil
		}
	}
	if personalKey != "" {
		return personalKey, nil
	}
	return s.defaultAPIKey, nil
}

func (s *familyService) SetParentPIN(ctx context.Context, parentId uuid.UUID, pin string) error {
	if err := validatePIN(pin); err != nil {
		return err
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	parent, err := s.requireParent(ctx, uow, parentId)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	hashStr := string(hash)
	parent.ParentPinHash = &hashStr
	return uow.ProfileRepository().Update(ctx, parent)
}

// VerifyParentPIN reports whether pin matches. A parent without a PIN passes.
func (s *familyService) VerifyParentPIN(ctx context.Context, parentId uuid.UUID, pin string) (bool, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	parent, err := s.requireParent(ctx, uow, parentId)
	if err != nil {
		return false, err
	}
	if parent.ParentPinHash == nil {
		return true, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*parent.ParentPinHash), []byte(pin)); err != nil {
		return false, nil
	}
	return true, nil
}

// FamilyParents lists the parents in the given child's family.
func (s *familyService) FamilyParents(ctx context.Context, childId uuid.UUID) ([]*entity.Profile, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	child, err := s.requireProfile(ctx, uow, childId)
	if err != nil {
		return nil, err
	}
	if child.FamilyId == nil {
		return []*entity.Profile{}, nil
	}
	return uow.ProfileRepository().FindAll(ctx,
		specification.ByFamilyID{FamilyID: *child.FamilyId},
		specification.ByRole{Role: string(entity.ProfileRoleParent)},
	)
}

func (s *familyService) requireProfile(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) (*entity.Profile, error) {
	profile, err := uow.ProfileRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, apperr.NotFound("profile")
	}
	return profile, nil
}

func (s *familyService) requireParent(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) (*entity.Profile, error) {
	profile, err := s.requireProfile(ctx, uow, userId)
	if err != nil {
		return nil, err
	}
	if !profile.IsParent() {
		return nil, apperr.Forbidden("parents only")
	}
	return profile, nil
}

func sameFamily(a, b *entity.Profile) bool {
	return a.FamilyId != nil && b.FamilyId != nil && *a.FamilyId == *b.FamilyId
}

func validatePIN(pin string) error {
	if len(pin) < 4 || len(pin) > 8 {
		return apperr.BadRequest("PIN must be 4 to 8 digits")
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return apperr.BadRequest("PIN must contain digits only")
		}
	}
	return nil
}

func ToProfileResponse(p *entity.Profile) *dto.ProfileResponse {
	return &dto.ProfileResponse{
		Id:                    p.Id,
		Email:                 p.Email,
		FullName:              p.FullName,
		Role:                  string(p.Role),
		FamilyId:              p.FamilyId,
		Age:                   p.Age,
		ProfileImageType:      string(p.ProfileImageType),
		CustomProfileImageUrl: p.CustomProfileImageUrl,
		HasParentPin:          p.ParentPinHash != nil,
		CreatedAt:             p.CreatedAt,
	}
}

