package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	WebhookReceived  = "received"
	WebhookProcessed = "processed"
	WebhookIgnored   = "ignored"
	WebhookFailed    = "failed"
	WebhookDuplicate = "duplicate"
)

// WebhookLogEntry is one reconciliation attempt for a billing event.
type WebhookLogEntry struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EventID          string    `gorm:"size:255;not null;index" json:"event_id"`
	EventType        string    `gorm:"size:100;not null;index" json:"event_type"`
	ProcessingStatus string    `gorm:"size:20;not null;index" json:"processing_status"`
	ErrorMessage     string    `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (WebhookLogEntry) TableName() string { return "webhook_logs" }

func (e *WebhookLogEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
