package contract

import (
	"context"

	"kidsgpt-be/internal/entity"
	"kidsgpt-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ProfileRepository interface {
	Create(ctx context.Context, profile *entity.Profile) error
	Update(ctx context.Context, profile *entity.Profile) error
	// UpdateAge is the only write path for a profile's age.
	UpdateAge(ctx context.Context, id uuid.UUID, age int) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Profile, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Profile, error)
}

type FamilyRepository interface {
	Create(ctx context.Context, family *entity.Family) error
	UpdateAPIKey(ctx context.Context, id uuid.UUID, apiKey *string) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Family, error)
}

type FamilyMemberRepository interface {
	Create(ctx context.Context, member *entity.FamilyMember) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FamilyMember, error)
}
