package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Specification narrows or shapes a content query. Repositories apply them in order.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

// ByID filters by primary key.
type ByID struct {
	ID uuid.UUID
}

func (s ByID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id = ?", s.ID)
}

// Pagination clips a listing to one page.
type Pagination struct {
	Limit  int
	Offset int
}

func (s Pagination) Apply(db *gorm.DB) *gorm.DB {
	return db.Limit(s.Limit).Offset(s.Offset)
}

// Scoped adapts a plain gorm scope function.
type Scoped func(db *gorm.DB) *gorm.DB

func (s Scoped) Apply(db *gorm.DB) *gorm.DB {
	return s(db)
}
