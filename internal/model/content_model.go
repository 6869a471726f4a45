package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Content struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Entity        string         `gorm:"type:varchar(64);not null;index"`
	Title         string         `gorm:"type:varchar(255);not null"`
	Markdown      string         `gorm:"type:text"`
	State         datatypes.JSON `gorm:"type:jsonb"`
	Version       int            `gorm:"not null;default:0"`
	LastSessionId *uuid.UUID     `gorm:"type:uuid"`
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

func (Content) TableName() string {
	return "contents"
}
