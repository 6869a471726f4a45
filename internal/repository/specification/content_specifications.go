package specification

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ByEntity filters contents by their owning entity kind ("pages", "posts", ...)
type ByEntity struct {
	Entity string
}

func (s ByEntity) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("entity = ?", s.Entity)
}

// ForUpdate locks the selected rows until the surrounding transaction ends.
type ForUpdate struct{}

func (s ForUpdate) Apply(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
