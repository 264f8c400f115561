package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	stripesession "github.com/stripe/stripe-go/v82/checkout/session"
	"gorm.io/gorm"
)

// CheckoutService starts Stripe-hosted purchase and self-service flows. The
// resulting entitlement change arrives later through the webhook.
type CheckoutService struct {
	db  *gorm.DB
	cfg *config.Config

	createCheckoutSession func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	createPortalSession   func(params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error)
}

func NewCheckoutService(db *gorm.DB, cfg *config.Config) *CheckoutService {
	return &CheckoutService{
		db:                    db,
		cfg:                   cfg,
		createCheckoutSession: stripesession.New,
		createPortalSession:   portalsession.New,
	}
}

// CreateCheckout returns the hosted checkout URL for a plan key such as
// "premium-monthly". The user id travels as client_reference_id so the
// completed session can be matched back to the account.
func (s *CheckoutService) CreateCheckout(ctx context.Context, userID uuid.UUID, planKey string) (string, error) {
	if strings.TrimSpace(s.cfg.StripeSecretKey) == "" {
		return "", ErrBillingDisabled
	}
	planKey = strings.ToLower(strings.TrimSpace(planKey))
	priceID := s.cfg.PriceID(planKey)
	if priceID == "" {
		return "", ErrUnknownPlan
	}

	user, err := s.user(ctx, userID)
	if err != nil {
		return "", err
	}

	stripe.Key = strings.TrimSpace(s.cfg.StripeSecretKey)
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:        stripe.String(s.cfg.FrontendURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(s.cfg.FrontendURL + "/pricing?canceled=1"),
		ClientReferenceID: stripe.String(user.ID.String()),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"plan":    planKey,
			"user_id": user.ID.String(),
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"plan": planKey},
		},
	}
	if user.ExternalCustomerRef != nil && *user.ExternalCustomerRef != "" {
		params.Customer = stripe.String(*user.ExternalCustomerRef)
	} else {
		params.CustomerEmail = stripe.String(user.Email)
	}

	session, err := s.createCheckoutSession(params)
	if err != nil {
		return "", fmt.Errorf("%w: create checkout session: %v", ErrExternalService, err)
	}
	if session == nil || strings.TrimSpace(session.URL) == "" {
		return "", fmt.Errorf("%w: stripe returned empty checkout URL", ErrExternalService)
	}
	return session.URL, nil
}

// CreatePortal returns a billing portal URL for a user with a linked
// Stripe customer.
func (s *CheckoutService) CreatePortal(ctx context.Context, userID uuid.UUID) (string, error) {
	if strings.TrimSpace(s.cfg.StripeSecretKey) == "" {
		return "", ErrBillingDisabled
	}

	user, err := s.user(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.ExternalCustomerRef == nil || *user.ExternalCustomerRef == "" {
		return "", ErrNoBillingCustomer
	}

	stripe.Key = strings.TrimSpace(s.cfg.StripeSecretKey)
	session, err := s.createPortalSession(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(*user.ExternalCustomerRef),
		ReturnURL: stripe.String(s.cfg.FrontendURL + "/account"),
	})
	if err != nil {
		return "", fmt.Errorf("%w: create portal session: %v", ErrExternalService, err)
	}
	return session.URL, nil
}

func (s *CheckoutService) user(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, database.Classify(err)
	}
	return &user, nil
}
