package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment is a paid invoice, unique per external invoice so redelivered
// events do not double count.
type Payment struct {
	ID                      uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                  uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ExternalInvoiceRef      string     `gorm:"size:255;not null;uniqueIndex" json:"external_invoice_ref"`
	ExternalSubscriptionRef string     `gorm:"size:255;index" json:"external_subscription_ref"`
	AmountPaid              int64      `gorm:"not null" json:"amount_paid"`
	Currency                string     `gorm:"size:10" json:"currency"`
	PeriodStart             *time.Time `json:"period_start"`
	PeriodEnd               *time.Time `json:"period_end"`
	CreatedAt               time.Time  `json:"created_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
