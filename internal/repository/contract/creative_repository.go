package contract

import (
	"context"

	"kidsgpt-be/internal/entity"
	"kidsgpt-be/internal/repository/specification"

	"github.com/google/uuid"
)

type PersonalityProfileRepository interface {
	// Upsert keeps a single profile per user.
	Upsert(ctx context.Context, profile *entity.PersonalityProfile) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PersonalityProfile, error)
}

type ComicRepository interface {
	Create(ctx context.Context, comic *entity.Comic) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Comic, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Comic, error)
}

type CharacterRepository interface {
	Create(ctx context.Context, character *entity.Character) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Character, error)
}
