package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxPaymentAttempts is how many failed charges Stripe may report before the
// entitlement drops from past_due to unpaid.
const maxPaymentAttempts = 3

// ReconcileResult summarises one webhook delivery.
type ReconcileResult struct {
	EventID   string
	EventType string
	Status    string
}

// transition is what a single event handler did to the ledger.
type transition struct {
	kind    string
	noop    bool
	ignored bool
	reason  string
	record  *models.EntitlementRecord
}

func ignoredBecause(reason string) transition {
	return transition{ignored: true, reason: reason}
}

type BillingService struct {
	db        *gorm.DB
	cfg       *config.Config
	publisher events.Publisher
	now       func() time.Time
}

func NewBillingService(db *gorm.DB, cfg *config.Config, publisher events.Publisher) *BillingService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &BillingService{db: db, cfg: cfg, publisher: publisher, now: time.Now}
}

// Reconcile verifies a raw delivery and applies it. Signature failures are
// terminal and never reach the payload decoder.
func (s *BillingService) Reconcile(ctx context.Context, payload []byte, sigHeader string) (ReconcileResult, error) {
	event, err := s.VerifyEvent(payload, sigHeader)
	if err != nil {
		return ReconcileResult{EventType: "unknown"}, err
	}

	status, err := s.HandleEvent(ctx, event)
	return ReconcileResult{EventID: event.ID, EventType: string(event.Type), Status: status}, err
}

// VerifyEvent checks the Stripe-Signature header against the raw body and
// only then decodes the event envelope.
func (s *BillingService) VerifyEvent(payload []byte, sigHeader string) (*stripe.Event, error) {
	secret := strings.TrimSpace(s.cfg.StripeWebhookSecret)
	if secret == "" {
		return nil, ErrBillingDisabled
	}
	if strings.TrimSpace(sigHeader) == "" {
		return nil, fmt.Errorf("%w: missing signature header", ErrSignature)
	}

	var err error
	if s.cfg.StripeWebhookTolerance > 0 {
		err = webhook.ValidatePayloadWithTolerance(payload, sigHeader, secret, s.cfg.StripeWebhookTolerance)
	} else {
		err = webhook.ValidatePayloadIgnoringTolerance(payload, sigHeader, secret)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignature, err)
	}

	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, invalid("payload", "malformed event envelope")
	}
	if event.ID == "" || event.Type == "" {
		return nil, invalid("payload", "event id and type are required")
	}
	return &event, nil
}

// HandleEvent applies a verified event inside one transaction and appends a
// row to the webhook audit log whatever the outcome.
func (s *BillingService) HandleEvent(ctx context.Context, event *stripe.Event) (string, error) {
	eventType := string(event.Type)
	logger := slog.With("event_id", event.ID, "event_type", eventType)

	seen, err := s.alreadyProcessed(ctx, event.ID)
	if err != nil {
		s.recordAttempt(ctx, event.ID, eventType, models.WebhookFailed, err.Error())
		return models.WebhookFailed, err
	}
	if seen {
		logger.Info("billing event already processed")
		s.recordAttempt(ctx, event.ID, eventType, models.WebhookDuplicate, "")
		return models.WebhookDuplicate, nil
	}

	var outcome transition
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		outcome, err = s.apply(tx, event)
		return err
	})
	if err != nil {
		err = database.Classify(err)
		logger.Error("billing event processing failed", "error", err)
		s.recordAttempt(ctx, event.ID, eventType, models.WebhookFailed, err.Error())
		return models.WebhookFailed, err
	}

	if outcome.ignored {
		logger.Info("billing event ignored", "reason", outcome.reason)
		s.recordAttempt(ctx, event.ID, eventType, models.WebhookIgnored, outcome.reason)
		return models.WebhookIgnored, nil
	}

	s.recordAttempt(ctx, event.ID, eventType, models.WebhookProcessed, "")
	if !outcome.noop && outcome.kind != "" && outcome.record != nil {
		publishEntitlement(ctx, s.publisher, outcome.kind, outcome.record, eventType, event.ID)
	}
	return models.WebhookProcessed, nil
}

func (s *BillingService) apply(tx *gorm.DB, event *stripe.Event) (transition, error) {
	switch event.Type {
	case "checkout.session.completed":
		var session dto.StripeCheckoutSession
		if err := decodeObject(event, &session); err != nil {
			return transition{}, err
		}
		return s.applyCheckout(tx, session)

	case "customer.subscription.created", "customer.subscription.updated":
		var sub dto.StripeSubscription
		if err := decodeObject(event, &sub); err != nil {
			return transition{}, err
		}
		return s.applySubscription(tx, sub)

	case "customer.subscription.deleted":
		var sub dto.StripeSubscription
		if err := decodeObject(event, &sub); err != nil {
			return transition{}, err
		}
		return s.applySubscriptionDeleted(tx, sub)

	case "invoice.payment_succeeded", "invoice.paid":
		var inv dto.StripeInvoice
		if err := decodeObject(event, &inv); err != nil {
			return transition{}, err
		}
		return s.applyInvoicePaid(tx, inv)

	case "invoice.payment_failed":
		var inv dto.StripeInvoice
		if err := decodeObject(event, &inv); err != nil {
			return transition{}, err
		}
		return s.applyInvoiceFailed(tx, inv)

	case "customer.created":
		var cust dto.StripeCustomer
		if err := decodeObject(event, &cust); err != nil {
			return transition{}, err
		}
		return s.applyCustomerCreated(tx, cust)

	default:
		return ignoredBecause("unhandled event type"), nil
	}
}

func (s *BillingService) applyCheckout(tx *gorm.DB, session dto.StripeCheckoutSession) (transition, error) {
	userID, err := s.checkoutUser(tx, session)
	if err != nil {
		return transition{}, err
	}

	current, err := currentEntitlement(tx, userID)
	if err != nil && !errors.Is(err, ErrEntitlementNotFound) {
		return transition{}, err
	}
	if current != nil && session.ID != "" && current.ExternalSessionRef != nil && *current.ExternalSessionRef == session.ID {
		return transition{noop: true, record: current}, nil
	}

	planName := metadataValue(session.Metadata, "plan", "plan_name")
	plan := PlanTier(planName)
	now := s.now()
	expiry := PlanExpiry(planName, plan, now)

	rec, err := upsertCurrentEntitlement(tx, userID, func(r *models.EntitlementRecord) error {
		r.Plan = plan
		r.Status = models.StatusActive
		r.PeriodStart = now
		r.PeriodEnd = expiry
		r.ExternalSessionRef = optional(session.ID)
		if session.Customer != "" {
			r.ExternalCustomerRef = optional(session.Customer)
		}
		if session.Subscription != "" {
			r.ExternalSubscriptionRef = optional(session.Subscription)
		}
		return rotateAccessToken(r)
	})
	if err != nil {
		return transition{}, err
	}

	if session.Customer != "" {
		if err := linkCustomer(tx, userID, session.Customer); err != nil {
			return transition{}, err
		}
	}

	return transition{kind: events.EntitlementGranted, record: rec}, nil
}

// checkoutUser finds the user a checkout belongs to. Without one the event
// cannot be applied, so the error makes Stripe redeliver.
func (s *BillingService) checkoutUser(tx *gorm.DB, session dto.StripeCheckoutSession) (uuid.UUID, error) {
	ref := strings.TrimSpace(session.ClientReferenceID)
	if ref == "" {
		ref = metadataValue(session.Metadata, "user_id", "userId")
	}

	if ref != "" {
		id, err := uuid.Parse(ref)
		if err != nil {
			return uuid.Nil, fmt.Errorf("%w: malformed reference %q", ErrUnresolvableUser, ref)
		}
		var count int64
		if err := tx.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return uuid.Nil, err
		}
		if count == 0 {
			return uuid.Nil, fmt.Errorf("%w: %s", ErrUnresolvableUser, id)
		}
		return id, nil
	}

	if session.Customer != "" {
		id, found, err := resolveSubscriber(tx, session.Customer, "")
		if err != nil {
			return uuid.Nil, err
		}
		if found {
			return id, nil
		}
	}
	return uuid.Nil, fmt.Errorf("%w: checkout session %s carries no user reference", ErrUnresolvableUser, session.ID)
}

func (s *BillingService) applySubscription(tx *gorm.DB, sub dto.StripeSubscription) (transition, error) {
	userID, found, err := resolveSubscriber(tx, sub.Customer, sub.ID)
	if err != nil {
		return transition{}, err
	}
	if !found {
		return ignoredBecause("no user for customer " + sub.Customer), nil
	}

	now := s.now()
	status := MapSubscriptionStatus(sub)

	current, err := currentEntitlement(tx, userID)
	if err != nil && !errors.Is(err, ErrEntitlementNotFound) {
		return transition{}, err
	}
	if status == models.StatusCanceled && !referencesSubscription(current, sub.ID) {
		return ignoredBecause("subscription is not the current entitlement"), nil
	}
	deleted, err := subscriptionDeleted(tx, userID, sub.ID)
	if err != nil {
		return transition{}, err
	}
	if deleted {
		return ignoredBecause("subscription already deleted"), nil
	}

	planName := sub.PlanName()
	periodEnd := SubscriptionPeriodEnd(sub, now)
	periodStart := subscriptionPeriodStart(sub)

	rec, err := upsertCurrentEntitlement(tx, userID, func(r *models.EntitlementRecord) error {
		switch {
		case planName != "":
			r.Plan = PlanTier(planName)
		case r.Plan == models.PlanBasic:
			r.Plan = models.PlanPremium
		}
		r.Status = status
		r.PeriodEnd = periodEnd
		if periodStart != nil {
			r.PeriodStart = *periodStart
		} else if r.PeriodStart.IsZero() {
			r.PeriodStart = now
		}
		if sub.Customer != "" {
			r.ExternalCustomerRef = optional(sub.Customer)
		}
		r.ExternalSubscriptionRef = optional(sub.ID)
		return nil
	})
	if err != nil {
		return transition{}, err
	}

	if sub.Customer != "" {
		if err := linkCustomer(tx, userID, sub.Customer); err != nil {
			return transition{}, err
		}
	}

	kind := events.EntitlementChanged
	if !rec.IsEntitled(now) {
		kind = events.EntitlementRevoked
	}
	return transition{kind: kind, record: rec}, nil
}

// applySubscriptionDeleted cancels the row that carried the subscription and
// puts a default basic row in its place. Redelivery finds the basic row
// already current and changes nothing.
func (s *BillingService) applySubscriptionDeleted(tx *gorm.DB, sub dto.StripeSubscription) (transition, error) {
	userID, found, err := resolveSubscriber(tx, sub.Customer, sub.ID)
	if err != nil {
		return transition{}, err
	}
	if !found {
		return ignoredBecause("no user for customer " + sub.Customer), nil
	}

	now := s.now()
	current, err := currentEntitlement(tx, userID)
	if err != nil && !errors.Is(err, ErrEntitlementNotFound) {
		return transition{}, err
	}

	canceled := current != nil && cancelable(current, sub.ID)
	if canceled {
		err := tx.Model(current).Updates(map[string]any{
			"status":      models.StatusCanceled,
			"period_end":  now,
			"current_for": nil,
			"updated_at":  now,
		}).Error
		if err != nil {
			return transition{}, err
		}
	}

	rec, err := ensureDefaultEntitlement(tx, userID, now)
	if err != nil {
		return transition{}, err
	}
	// Nothing was canceled and the existing row was kept.
	if !canceled && current != nil {
		return transition{noop: true, record: rec}, nil
	}
	return transition{kind: events.EntitlementRevoked, record: rec}, nil
}

func (s *BillingService) applyInvoicePaid(tx *gorm.DB, inv dto.StripeInvoice) (transition, error) {
	if inv.AmountPaid == 0 {
		return ignoredBecause("zero amount invoice"), nil
	}
	if inv.Status != "" && inv.Status != "paid" {
		return ignoredBecause("invoice status " + inv.Status), nil
	}

	subRef := inv.SubscriptionRef()
	userID, found, err := resolveSubscriber(tx, inv.Customer, subRef)
	if err != nil {
		return transition{}, err
	}
	if !found {
		return ignoredBecause("no user for customer " + inv.Customer), nil
	}

	var start, end *time.Time
	if len(inv.Lines.Data) > 0 {
		start = unixTime(inv.Lines.Data[0].Period.Start)
		end = unixTime(inv.Lines.Data[0].Period.End)
	}

	payment := models.Payment{
		UserID:                  userID,
		ExternalInvoiceRef:      inv.ID,
		ExternalSubscriptionRef: subRef,
		AmountPaid:              inv.AmountPaid,
		Currency:                inv.Currency,
		PeriodStart:             start,
		PeriodEnd:               end,
	}
	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_invoice_ref"}},
		DoNothing: true,
	}).Create(&payment).Error
	if err != nil {
		return transition{}, err
	}

	current, err := currentEntitlement(tx, userID)
	if errors.Is(err, ErrEntitlementNotFound) {
		return transition{noop: true}, nil
	}
	if err != nil {
		return transition{}, err
	}
	// A basic row stays non-expiring; the plan itself comes from checkout or
	// the subscription events.
	if current.Plan == models.PlanBasic || current.Status == models.StatusCanceled || !sameSubscription(current, subRef) {
		return transition{noop: true, record: current}, nil
	}

	current.Status = models.StatusActive
	if start != nil {
		current.PeriodStart = *start
	}
	if end != nil {
		current.PeriodEnd = end
	}
	if current.ExternalSubscriptionRef == nil && subRef != "" {
		current.ExternalSubscriptionRef = optional(subRef)
	}
	if err := tx.Save(current).Error; err != nil {
		return transition{}, err
	}
	return transition{kind: events.EntitlementChanged, record: current}, nil
}

func (s *BillingService) applyInvoiceFailed(tx *gorm.DB, inv dto.StripeInvoice) (transition, error) {
	subRef := inv.SubscriptionRef()
	userID, found, err := resolveSubscriber(tx, inv.Customer, subRef)
	if err != nil {
		return transition{}, err
	}
	if !found {
		return ignoredBecause("no user for customer " + inv.Customer), nil
	}

	current, err := currentEntitlement(tx, userID)
	if errors.Is(err, ErrEntitlementNotFound) {
		return ignoredBecause("no entitlement row"), nil
	}
	if err != nil {
		return transition{}, err
	}
	if current.Plan == models.PlanBasic || !sameSubscription(current, subRef) {
		return ignoredBecause("invoice is not for the current subscription"), nil
	}

	status := models.StatusPastDue
	if inv.AttemptCount > maxPaymentAttempts {
		status = models.StatusUnpaid
	}
	if current.Status == status {
		return transition{noop: true, record: current}, nil
	}

	current.Status = status
	if err := tx.Save(current).Error; err != nil {
		return transition{}, err
	}
	return transition{kind: events.EntitlementRevoked, record: current}, nil
}

func (s *BillingService) applyCustomerCreated(tx *gorm.DB, cust dto.StripeCustomer) (transition, error) {
	email := normalizeEmail(cust.Email)
	if email == "" || cust.ID == "" {
		return ignoredBecause("customer has no email"), nil
	}

	var user models.User
	if err := tx.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ignoredBecause("no user with customer email"), nil
		}
		return transition{}, err
	}

	if err := linkCustomer(tx, user.ID, cust.ID); err != nil {
		return transition{}, err
	}
	err := tx.Model(&models.EntitlementRecord{}).
		Where("current_for = ? AND external_customer_ref IS NULL", user.ID).
		Update("external_customer_ref", cust.ID).Error
	if err != nil {
		return transition{}, err
	}
	return transition{noop: true}, nil
}

// History returns the most recent audit rows, newest first.
func (s *BillingService) History(ctx context.Context, limit int) ([]models.WebhookLogEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows []models.WebhookLogEntry
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, database.Classify(err)
	}
	return rows, nil
}

func (s *BillingService) alreadyProcessed(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.WebhookLogEntry{}).
		Where("event_id = ? AND processing_status = ?", eventID, models.WebhookProcessed).
		Count(&count).Error
	if err != nil {
		return false, database.Classify(err)
	}
	return count > 0, nil
}

// recordAttempt writes outside the event transaction so failures are
// audited even when the ledger change rolled back.
func (s *BillingService) recordAttempt(ctx context.Context, eventID, eventType, status, message string) {
	entry := models.WebhookLogEntry{
		EventID:          eventID,
		EventType:        eventType,
		ProcessingStatus: status,
		ErrorMessage:     message,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		slog.Error("failed to write webhook log", "event_id", eventID, "error", err)
	}
}

// resolveSubscriber maps Stripe references to a user: linked customer on the
// user, then customer on the ledger, then subscription on the ledger.
func resolveSubscriber(tx *gorm.DB, customerRef, subscriptionRef string) (uuid.UUID, bool, error) {
	if customerRef != "" {
		var user models.User
		err := tx.Where("external_customer_ref = ?", customerRef).First(&user).Error
		if err == nil {
			return user.ID, true, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, false, err
		}

		var rec models.EntitlementRecord
		err = tx.Where("external_customer_ref = ?", customerRef).Order("updated_at DESC").First(&rec).Error
		if err == nil {
			return rec.UserID, true, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, false, err
		}
	}

	if subscriptionRef != "" {
		var rec models.EntitlementRecord
		err := tx.Where("external_subscription_ref = ?", subscriptionRef).Order("updated_at DESC").First(&rec).Error
		if err == nil {
			return rec.UserID, true, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, false, err
		}
	}
	return uuid.Nil, false, nil
}

func linkCustomer(tx *gorm.DB, userID uuid.UUID, customerRef string) error {
	return tx.Model(&models.User{}).Where("id = ?", userID).Update("external_customer_ref", customerRef).Error
}

// subscriptionDeleted reports whether the subscription already ended in a
// canceled, superseded row. Stripe never revives a deleted subscription.
func subscriptionDeleted(tx *gorm.DB, userID uuid.UUID, subRef string) (bool, error) {
	if subRef == "" {
		return false, nil
	}
	var n int64
	err := tx.Model(&models.EntitlementRecord{}).
		Where("user_id = ? AND current_for IS NULL AND external_subscription_ref = ? AND status = ?",
			userID, subRef, models.StatusCanceled).
		Count(&n).Error
	return n > 0, err
}

func referencesSubscription(rec *models.EntitlementRecord, subRef string) bool {
	return rec != nil && rec.ExternalSubscriptionRef != nil && *rec.ExternalSubscriptionRef == subRef
}

// sameSubscription treats a row with no subscription reference as matching,
// since one-off checkouts do not carry one.
func sameSubscription(rec *models.EntitlementRecord, subRef string) bool {
	if rec.ExternalSubscriptionRef == nil || subRef == "" {
		return true
	}
	return *rec.ExternalSubscriptionRef == subRef
}

func cancelable(rec *models.EntitlementRecord, subRef string) bool {
	if referencesSubscription(rec, subRef) {
		return true
	}
	return rec.ExternalSubscriptionRef == nil && rec.Plan != models.PlanBasic
}

// PlanTier maps a free-form plan name such as "premium-monthly" onto a ledger
// plan. Unrecognised paid plans are treated as premium.
func PlanTier(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.Contains(n, "professional"), n == "pro",
		strings.HasPrefix(n, "pro-"), strings.HasPrefix(n, "pro_"):
		return models.PlanProfessional
	case strings.Contains(n, "premium"):
		return models.PlanPremium
	case strings.Contains(n, "basic"), strings.Contains(n, "free"):
		return models.PlanBasic
	default:
		return models.PlanPremium
	}
}

// PlanExpiry derives the period end from the billing cadence in the plan
// name. Basic plans never expire.
func PlanExpiry(name, plan string, from time.Time) *time.Time {
	if plan == models.PlanBasic {
		return nil
	}

	n := strings.ToLower(name)
	var end time.Time
	switch {
	case strings.Contains(n, "monthly"):
		end = from.AddDate(0, 1, 0)
	case strings.Contains(n, "yearly"), strings.Contains(n, "annual"):
		end = from.AddDate(1, 0, 0)
	case strings.Contains(n, "weekly"):
		end = from.AddDate(0, 0, 7)
	case strings.Contains(n, "quarterly"):
		end = from.AddDate(0, 3, 0)
	default:
		end = from.AddDate(1, 0, 0)
	}
	return &end
}

// MapSubscriptionStatus translates Stripe's status vocabulary. An active
// subscription with a scheduled cancellation is reported as canceling.
func MapSubscriptionStatus(sub dto.StripeSubscription) string {
	switch sub.Status {
	case "active":
		if sub.CancelAtPeriodEnd || sub.CancelAt > 0 {
			return models.StatusCanceling
		}
		return models.StatusActive
	case "trialing":
		return models.StatusActive
	case "past_due":
		return models.StatusPastDue
	case "unpaid":
		return models.StatusUnpaid
	case "canceled", "incomplete_expired":
		return models.StatusCanceled
	case "incomplete":
		return models.StatusPending
	case "paused":
		return models.StatusPaused
	default:
		return models.StatusPending
	}
}

// SubscriptionPeriodEnd prefers the explicit period end, then the scheduled
// cancellation, then an offset computed from the price interval.
func SubscriptionPeriodEnd(sub dto.StripeSubscription, now time.Time) *time.Time {
	if t := unixTime(sub.CurrentPeriodEnd); t != nil {
		return t
	}
	item := sub.FirstItem()
	if item != nil {
		if t := unixTime(item.CurrentPeriodEnd); t != nil {
			return t
		}
	}
	if t := unixTime(sub.CancelAt); t != nil {
		return t
	}

	interval, count := "month", int64(1)
	if item != nil && item.Price.Recurring != nil {
		if item.Price.Recurring.Interval != "" {
			interval = item.Price.Recurring.Interval
		}
		if item.Price.Recurring.IntervalCount > 0 {
			count = item.Price.Recurring.IntervalCount
		}
	}

	n := int(count)
	var end time.Time
	switch interval {
	case "day":
		end = now.AddDate(0, 0, n)
	case "week":
		end = now.AddDate(0, 0, 7*n)
	case "year":
		end = now.AddDate(n, 0, 0)
	default:
		end = now.AddDate(0, n, 0)
	}
	return &end
}

func subscriptionPeriodStart(sub dto.StripeSubscription) *time.Time {
	if t := unixTime(sub.CurrentPeriodStart); t != nil {
		return t
	}
	if item := sub.FirstItem(); item != nil {
		return unixTime(item.CurrentPeriodStart)
	}
	return nil
}

func decodeObject(event *stripe.Event, v any) error {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return invalid("data.object", "event carries no object")
	}
	if err := json.Unmarshal(event.Data.Raw, v); err != nil {
		return invalid("data.object", fmt.Sprintf("decode %s: %v", event.Type, err))
	}
	return nil
}

func metadataValue(md map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(md[k]); v != "" {
			return v
		}
	}
	return ""
}

func unixTime(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
