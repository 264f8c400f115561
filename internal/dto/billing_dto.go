package dto

import "strings"

// StripeCheckoutSession is the subset of a checkout.session object the
// reconciler reads.
type StripeCheckoutSession struct {
	ID                string            `json:"id"`
	Mode              string            `json:"mode"`
	Customer          string            `json:"customer"`
	Subscription      string            `json:"subscription"`
	ClientReferenceID string            `json:"client_reference_id"`
	CustomerEmail     string            `json:"customer_email"`
	PaymentStatus     string            `json:"payment_status"`
	Metadata          map[string]string `json:"metadata"`
}

type StripePrice struct {
	ID        string            `json:"id"`
	LookupKey string            `json:"lookup_key"`
	Nickname  string            `json:"nickname"`
	Metadata  map[string]string `json:"metadata"`
	Recurring *struct {
		Interval      string `json:"interval"`
		IntervalCount int64  `json:"interval_count"`
	} `json:"recurring"`
}

type StripeSubscriptionItem struct {
	ID                 string      `json:"id"`
	CurrentPeriodStart int64       `json:"current_period_start"`
	CurrentPeriodEnd   int64       `json:"current_period_end"`
	Price              StripePrice `json:"price"`
}

// StripeSubscription is the subset of a subscription object the reconciler
// reads. Newer API versions moved the period bounds onto the items, so both
// places are decoded.
type StripeSubscription struct {
	ID                 string `json:"id"`
	Customer           string `json:"customer"`
	Status             string `json:"status"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
	CancelAt           int64  `json:"cancel_at"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	Items              struct {
		Data []StripeSubscriptionItem `json:"data"`
	} `json:"items"`
	Metadata map[string]string `json:"metadata"`
}

func (s *StripeSubscription) FirstItem() *StripeSubscriptionItem {
	if len(s.Items.Data) == 0 {
		return nil
	}
	return &s.Items.Data[0]
}

// PlanName picks the most descriptive plan label available on the first
// price, falling back to subscription metadata.
func (s *StripeSubscription) PlanName() string {
	if item := s.FirstItem(); item != nil {
		for _, candidate := range []string{item.Price.LookupKey, item.Price.Metadata["plan"], item.Price.Nickname} {
			if c := strings.TrimSpace(candidate); c != "" {
				return c
			}
		}
	}
	if s.Metadata != nil {
		return strings.TrimSpace(s.Metadata["plan"])
	}
	return ""
}

type StripeInvoiceLine struct {
	Period struct {
		Start int64 `json:"start"`
		End   int64 `json:"end"`
	} `json:"period"`
}

type StripeInvoice struct {
	ID           string `json:"id"`
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
	Status       string `json:"status"`
	AmountPaid   int64  `json:"amount_paid"`
	Currency     string `json:"currency"`
	AttemptCount int64  `json:"attempt_count"`
	Lines        struct {
		Data []StripeInvoiceLine `json:"data"`
	} `json:"lines"`
	Parent *struct {
		SubscriptionDetails *struct {
			Subscription string `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

// SubscriptionRef returns the subscription id from either the legacy
// top-level field or the parent details of newer API versions.
func (i *StripeInvoice) SubscriptionRef() string {
	if i.Subscription != "" {
		return i.Subscription
	}
	if i.Parent != nil && i.Parent.SubscriptionDetails != nil {
		return i.Parent.SubscriptionDetails.Subscription
	}
	return ""
}

type StripeCustomer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type CheckoutRequest struct {
	Plan string `json:"plan"`
}

type RedirectResponse struct {
	URL string `json:"url"`
}

type WebhookAck struct {
	Received bool   `json:"received"`
	Status   string `json:"status,omitempty"`
}
