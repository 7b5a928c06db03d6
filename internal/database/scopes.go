package database

import (
	"gorm.io/gorm"
)

// OwnedBy restricts a task query to rows owned by the given user. Every
// task read and mutation must go through this scope; no query may reach
// another owner's rows.
func OwnedBy(ownerID uint64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tasks.owner_id = ?", ownerID)
	}
}

// Paginate applies offset/limit pagination to a GORM query.
func Paginate(page, pageSize int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		offset := (page - 1) * pageSize
		return db.Offset(offset).Limit(pageSize)
	}
}
