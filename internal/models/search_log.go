package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SearchLogEntry is an append-only record of a report request.
type SearchLogEntry struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"`
	Year      int            `gorm:"not null" json:"year"`
	Make      string         `gorm:"size:100;not null" json:"make"`
	Model     string         `gorm:"size:100;not null" json:"model"`
	Mileage   int            `gorm:"not null" json:"mileage"`
	Results   datatypes.JSON `gorm:"type:jsonb" json:"results,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (SearchLogEntry) TableName() string { return "search_logs" }

func (e *SearchLogEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
