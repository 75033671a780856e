package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByFamilyID struct {
	FamilyID uuid.UUID
}

func (s ByFamilyID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("family_id = ?", s.FamilyID)
}

type ByFamilyCode struct {
	Code string
}

func (s ByFamilyCode) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("family_code = ?", s.Code)
}

type ByRole struct {
	Role string
}

func (s ByRole) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("role = ?", s.Role)
}
