package dto

import "time"

type EntitlementCheckRequest struct {
	PremiumToken string `json:"premiumToken"`
}

type EntitlementResponse struct {
	IsEntitled  bool       `json:"isEntitled"`
	Plan        *string    `json:"plan"`
	Status      string     `json:"status,omitempty"`
	PeriodEnd   *time.Time `json:"periodEnd,omitempty"`
	AccessToken string     `json:"accessToken,omitempty"`
}

type GrantRequest struct {
	Email     string     `json:"email"`
	Plan      string     `json:"plan"`
	PeriodEnd *time.Time `json:"period_end,omitempty"`
}

type WebhookLogResponse struct {
	ID               string    `json:"id"`
	EventID          string    `json:"event_id"`
	EventType        string    `json:"event_type"`
	ProcessingStatus string    `json:"processing_status"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
