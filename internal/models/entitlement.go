package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PlanBasic        = "basic"
	PlanPremium      = "premium"
	PlanProfessional = "professional"
)

const (
	StatusActive    = "active"
	StatusPastDue   = "past_due"
	StatusUnpaid    = "unpaid"
	StatusCanceled  = "canceled"
	StatusCanceling = "canceling"
	StatusPaused    = "paused"
	StatusPending   = "pending"
)

// EntitlementRecord is a user's subscription state. CurrentFor carries the
// user id on the authoritative row and is NULL on superseded rows, so the
// unique index on it allows exactly one current row per user.
type EntitlementRecord struct {
	ID                      uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                  uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Plan                    string     `gorm:"size:20;not null;default:'basic'" json:"plan"`
	Status                  string     `gorm:"size:20;not null;default:'active';index" json:"status"`
	ExternalSessionRef      *string    `gorm:"size:255;index" json:"-"`
	ExternalCustomerRef     *string    `gorm:"size:255;index" json:"-"`
	ExternalSubscriptionRef *string    `gorm:"size:255;index" json:"-"`
	AccessToken             string     `gorm:"size:128;not null;uniqueIndex" json:"-"`
	PeriodStart             time.Time  `json:"period_start"`
	PeriodEnd               *time.Time `json:"period_end"`
	CurrentFor              *uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"-"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

func (r *EntitlementRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// IsPremiumPlan reports whether the plan unlocks premium report data.
func IsPremiumPlan(plan string) bool {
	return plan == PlanPremium || plan == PlanProfessional
}

// IsEntitled applies the single entitlement rule: a premium-tier plan that is
// active and not past its period end. Canceled and unpaid rows never qualify.
func (r *EntitlementRecord) IsEntitled(now time.Time) bool {
	if r == nil {
		return false
	}
	if !IsPremiumPlan(r.Plan) || r.Status != StatusActive {
		return false
	}
	return r.PeriodEnd == nil || r.PeriodEnd.After(now)
}
