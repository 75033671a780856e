package scope

import "gorm.io/gorm"

// Chronological orders message rows oldest first.
func Chronological(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}
