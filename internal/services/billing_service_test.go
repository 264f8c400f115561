package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkoutObject(sessionID string, userID uuid.UUID, plan string) map[string]any {
	return map[string]any{
		"id":                  sessionID,
		"object":              "checkout.session",
		"mode":                "subscription",
		"customer":            "cus_" + userID.String()[:8],
		"subscription":        "sub_" + userID.String()[:8],
		"client_reference_id": userID.String(),
		"payment_status":      "paid",
		"metadata":            map[string]string{"plan": plan},
	}
}

func TestVerifyEvent_AcceptsValidSignature(t *testing.T) {
	f := newFixture(t)
	payload := eventPayload(t, "evt_valid", "customer.created", map[string]any{"id": "cus_1"})

	event, err := f.billing.VerifyEvent(payload, signPayload(payload, testWebhookSecret, time.Now()))

	require.NoError(t, err)
	assert.Equal(t, "evt_valid", event.ID)
	assert.Equal(t, "customer.created", string(event.Type))
}

func TestVerifyEvent_RejectsSingleByteMutations(t *testing.T) {
	f := newFixture(t)
	payload := eventPayload(t, "evt_mutate", "customer.created", map[string]any{"id": "cus_1", "email": "m@x.com"})
	ts := time.Now()
	header := signPayload(payload, testWebhookSecret, ts)

	for i := range payload {
		mutated := append([]byte(nil), payload...)
		mutated[i] ^= 0x01
		_, err := f.billing.VerifyEvent(mutated, header)
		require.ErrorIs(t, err, ErrSignature, "body byte %d", i)
	}

	secret := []byte(testWebhookSecret)
	for i := range secret {
		wrong := append([]byte(nil), secret...)
		wrong[i] ^= 0x01
		_, err := f.billing.VerifyEvent(payload, signPayload(payload, string(wrong), ts))
		require.ErrorIs(t, err, ErrSignature, "secret byte %d", i)
	}
}

func TestVerifyEvent_AnyCandidateMayMatch(t *testing.T) {
	f := newFixture(t)
	payload := eventPayload(t, "evt_multi", "customer.created", map[string]any{"id": "cus_1"})
	ts := time.Now().Unix()

	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	good := hex.EncodeToString(mac.Sum(nil))
	bogus := hex.EncodeToString(make([]byte, sha256.Size))

	_, err := f.billing.VerifyEvent(payload, fmt.Sprintf("t=%d,v1=%s,v1=%s", ts, bogus, good))
	assert.NoError(t, err)

	_, err = f.billing.VerifyEvent(payload, fmt.Sprintf("t=%d,v1=%s", ts, bogus))
	assert.ErrorIs(t, err, ErrSignature)
}

func TestVerifyEvent_MissingHeaderOrSecret(t *testing.T) {
	f := newFixture(t)
	payload := eventPayload(t, "evt_x", "customer.created", map[string]any{"id": "cus_1"})

	_, err := f.billing.VerifyEvent(payload, "")
	assert.ErrorIs(t, err, ErrSignature)

	f.cfg.StripeWebhookSecret = ""
	_, err = f.billing.VerifyEvent(payload, signPayload(payload, testWebhookSecret, time.Now()))
	assert.ErrorIs(t, err, ErrBillingDisabled)
}

func TestReconcile_StaleSignatureNeverMutates(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "stale@x.com")
	before := f.snapshot(t)

	payload := eventPayload(t, "evt_stale", "checkout.session.completed", checkoutObject("cs_stale", user.User.ID, "premium-monthly"))
	header := signPayload(payload, testWebhookSecret, time.Now().Add(-time.Hour))

	_, err := f.billing.Reconcile(context.Background(), payload, header)
	require.ErrorIs(t, err, ErrSignature)

	mismatched := signPayload(payload, "whsec_other", time.Now())
	_, err = f.billing.Reconcile(context.Background(), payload, mismatched)
	require.ErrorIs(t, err, ErrSignature)

	assert.Equal(t, before, f.snapshot(t))

	var logs int64
	require.NoError(t, f.db.Model(&models.WebhookLogEntry{}).Count(&logs).Error)
	assert.Zero(t, logs)
}

func TestReconcile_CheckoutGrantsPremium(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "a@x.com")
	before := f.current(t, user.User.ID)

	res, err := f.deliver(t, "evt_checkout", "checkout.session.completed", checkoutObject("cs_1", user.User.ID, "premium-monthly"))
	require.NoError(t, err)
	assert.Equal(t, models.WebhookProcessed, res.Status)

	rec := f.current(t, user.User.ID)
	assert.Equal(t, models.PlanPremium, rec.Plan)
	assert.Equal(t, models.StatusActive, rec.Status)
	require.NotNil(t, rec.PeriodEnd)
	assert.WithinDuration(t, time.Now().AddDate(0, 1, 0), *rec.PeriodEnd, time.Minute)
	assert.NotEqual(t, before.AccessToken, rec.AccessToken)
	assert.Equal(t, before.ID, rec.ID, "checkout updates the current row in place")
	require.NotNil(t, rec.ExternalSessionRef)
	assert.Equal(t, "cs_1", *rec.ExternalSessionRef)
	assert.True(t, rec.IsEntitled(time.Now()))

	var u models.User
	require.NoError(t, f.db.First(&u, "id = ?", user.User.ID).Error)
	require.NotNil(t, u.ExternalCustomerRef)
	assert.Equal(t, "cus_"+user.User.ID.String()[:8], *u.ExternalCustomerRef)

	assert.Equal(t, []string{events.EntitlementGranted}, f.publisher.types())
}

func TestReconcile_CheckoutReplayIsIdempotent(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "replay@x.com")
	object := checkoutObject("cs_replay", user.User.ID, "premium-yearly")

	_, err := f.deliver(t, "evt_replay", "checkout.session.completed", object)
	require.NoError(t, err)
	first := f.current(t, user.User.ID)

	res, err := f.deliver(t, "evt_replay", "checkout.session.completed", object)
	require.NoError(t, err)
	assert.Equal(t, models.WebhookDuplicate, res.Status)

	// Same session under a new event id.
	res, err = f.deliver(t, "evt_replay_2", "checkout.session.completed", object)
	require.NoError(t, err)
	assert.Equal(t, models.WebhookProcessed, res.Status)

	second := f.current(t, user.User.ID)
	assert.Equal(t, first.AccessToken, second.AccessToken)
	assert.Equal(t, first.Plan, second.Plan)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.PeriodEnd.Unix(), second.PeriodEnd.Unix())
	assert.EqualValues(t, 1, f.rowCount(t, user.User.ID))
	assert.Len(t, f.publisher.types(), 1)
}

func TestReconcile_CheckoutWithoutUserFails(t *testing.T) {
	f := newFixture(t)
	object := map[string]any{"id": "cs_orphan", "metadata": map[string]string{"plan": "premium-monthly"}}

	res, err := f.deliver(t, "evt_orphan", "checkout.session.completed", object)
	require.ErrorIs(t, err, ErrUnresolvableUser)
	assert.Equal(t, models.WebhookFailed, res.Status)

	object["client_reference_id"] = uuid.NewString()
	_, err = f.deliver(t, "evt_orphan_2", "checkout.session.completed", object)
	require.ErrorIs(t, err, ErrUnresolvableUser)

	var failed int64
	require.NoError(t, f.db.Model(&models.WebhookLogEntry{}).Where("processing_status = ?", models.WebhookFailed).Count(&failed).Error)
	assert.EqualValues(t, 2, failed)
}

func TestReconcile_CheckoutUsesMetadataFallbacks(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "meta@x.com")
	object := map[string]any{
		"id":       "cs_meta",
		"metadata": map[string]string{"user_id": user.User.ID.String(), "plan_name": "professional-weekly"},
	}

	_, err := f.deliver(t, "evt_meta", "checkout.session.completed", object)
	require.NoError(t, err)

	rec := f.current(t, user.User.ID)
	assert.Equal(t, models.PlanProfessional, rec.Plan)
	require.NotNil(t, rec.PeriodEnd)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 7), *rec.PeriodEnd, time.Minute)
}

func TestReconcile_InvoicePaymentFailed(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "c@x.com")
	_, err := f.deliver(t, "evt_c_checkout", "checkout.session.completed", checkoutObject("cs_c", user.User.ID, "premium-monthly"))
	require.NoError(t, err)
	rec := f.current(t, user.User.ID)

	invoice := func(attempts int) map[string]any {
		return map[string]any{
			"id":            fmt.Sprintf("in_%d", attempts),
			"customer":      *rec.ExternalCustomerRef,
			"subscription":  *rec.ExternalSubscriptionRef,
			"status":        "open",
			"attempt_count": attempts,
		}
	}

	_, err = f.deliver(t, "evt_fail_2", "invoice.payment_failed", invoice(2))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPastDue, f.current(t, user.User.ID).Status)

	_, err = f.deliver(t, "evt_fail_4", "invoice.payment_failed", invoice(4))
	require.NoError(t, err)
	after := f.current(t, user.User.ID)
	assert.Equal(t, models.StatusUnpaid, after.Status)
	assert.False(t, after.IsEntitled(time.Now()))
}

func TestReconcile_SubscriptionDeletedLeavesOneBasicRow(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "del@x.com")
	_, err := f.deliver(t, "evt_del_checkout", "checkout.session.completed", checkoutObject("cs_del", user.User.ID, "premium-monthly"))
	require.NoError(t, err)
	paid := f.current(t, user.User.ID)

	sub := map[string]any{
		"id":       *paid.ExternalSubscriptionRef,
		"customer": *paid.ExternalCustomerRef,
		"status":   "canceled",
	}

	assertOneBasic := func() {
		t.Helper()
		var active []models.EntitlementRecord
		require.NoError(t, f.db.Where("user_id = ? AND status = ?", user.User.ID, models.StatusActive).Find(&active).Error)
		require.Len(t, active, 1)
		assert.Equal(t, models.PlanBasic, active[0].Plan)
		assert.Nil(t, active[0].PeriodEnd)
	}

	_, err = f.deliver(t, "evt_deleted", "customer.subscription.deleted", sub)
	require.NoError(t, err)
	assertOneBasic()

	var canceled models.EntitlementRecord
	require.NoError(t, f.db.First(&canceled, "id = ?", paid.ID).Error)
	assert.Equal(t, models.StatusCanceled, canceled.Status)
	assert.Nil(t, canceled.CurrentFor)
	require.NotNil(t, canceled.PeriodEnd)
	assert.WithinDuration(t, time.Now(), *canceled.PeriodEnd, time.Minute)

	// Redelivery under a fresh event id must not add rows.
	_, err = f.deliver(t, "evt_deleted_again", "customer.subscription.deleted", sub)
	require.NoError(t, err)
	assertOneBasic()
	assert.EqualValues(t, 2, f.rowCount(t, user.User.ID))

	// A late update for the dead subscription is ignored.
	res, err := f.deliver(t, "evt_late_update", "customer.subscription.updated", sub)
	require.NoError(t, err)
	assert.Equal(t, models.WebhookIgnored, res.Status)
	assertOneBasic()
}

func TestReconcile_LateActiveUpdateAfterDeleteIsIgnored(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "late@x.com")
	_, err := f.deliver(t, "evt_late_checkout", "checkout.session.completed", checkoutObject("cs_late", user.User.ID, "premium-monthly"))
	require.NoError(t, err)
	paid := f.current(t, user.User.ID)

	_, err = f.deliver(t, "evt_late_deleted", "customer.subscription.deleted", map[string]any{
		"id":       *paid.ExternalSubscriptionRef,
		"customer": *paid.ExternalCustomerRef,
		"status":   "canceled",
	})
	require.NoError(t, err)
	basic := f.current(t, user.User.ID)

	for _, eventType := range []string{"customer.subscription.updated", "customer.subscription.created"} {
		res, err := f.deliver(t, "evt_late_"+eventType, eventType, map[string]any{
			"id":       *paid.ExternalSubscriptionRef,
			"customer": *paid.ExternalCustomerRef,
			"status":   "active",
			"items": map[string]any{"data": []map[string]any{{
				"current_period_end": time.Now().Add(30 * 24 * time.Hour).Unix(),
			}}},
		})
		require.NoError(t, err)
		assert.Equal(t, models.WebhookIgnored, res.Status, eventType)
	}

	rec := f.current(t, user.User.ID)
	assert.Equal(t, basic.ID, rec.ID)
	assert.Equal(t, models.PlanBasic, rec.Plan)
	assert.Nil(t, rec.ExternalSubscriptionRef)
	assert.False(t, rec.IsEntitled(time.Now()))
}

func TestReconcile_InvoicePaidDoesNotReviveCanceledRow(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "revive@x.com")
	_, err := f.deliver(t, "evt_revive_checkout", "checkout.session.completed", checkoutObject("cs_revive", user.User.ID, "premium-monthly"))
	require.NoError(t, err)
	paid := f.current(t, user.User.ID)

	_, err = f.deliver(t, "evt_revive_cancel", "customer.subscription.updated", map[string]any{
		"id":       *paid.ExternalSubscriptionRef,
		"customer": *paid.ExternalCustomerRef,
		"status":   "canceled",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusCanceled, f.current(t, user.User.ID).Status)

	_, err = f.deliver(t, "evt_revive_invoice", "invoice.paid", map[string]any{
		"id":           "in_revive",
		"customer":     *paid.ExternalCustomerRef,
		"subscription": *paid.ExternalSubscriptionRef,
		"status":       "paid",
		"amount_paid":  999,
		"currency":     "usd",
	})
	require.NoError(t, err)

	rec := f.current(t, user.User.ID)
	assert.Equal(t, models.StatusCanceled, rec.Status)
	assert.False(t, rec.IsEntitled(time.Now()))
}

func TestReconcile_DeleteOfOldSubscriptionPublishesNothing(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "oldsub@x.com")
	_, err := f.deliver(t, "evt_oldsub_checkout", "checkout.session.completed", checkoutObject("cs_oldsub", user.User.ID, "premium-monthly"))
	require.NoError(t, err)
	paid := f.current(t, user.User.ID)

	res, err := f.deliver(t, "evt_oldsub_deleted", "customer.subscription.deleted", map[string]any{
		"id":       "sub_OLD",
		"customer": *paid.ExternalCustomerRef,
		"status":   "canceled",
	})
	require.NoError(t, err)
	assert.Equal(t, models.WebhookProcessed, res.Status)

	rec := f.current(t, user.User.ID)
	assert.Equal(t, models.PlanPremium, rec.Plan)
	assert.True(t, rec.IsEntitled(time.Now()))
	assert.Equal(t, []string{events.EntitlementGranted}, f.publisher.types())

	// The real deletion revokes once; its redelivery does not.
	sub := map[string]any{
		"id":       *paid.ExternalSubscriptionRef,
		"customer": *paid.ExternalCustomerRef,
		"status":   "canceled",
	}
	_, err = f.deliver(t, "evt_oldsub_real", "customer.subscription.deleted", sub)
	require.NoError(t, err)
	_, err = f.deliver(t, "evt_oldsub_real_again", "customer.subscription.deleted", sub)
	require.NoError(t, err)
	assert.Equal(t, []string{events.EntitlementGranted, events.EntitlementRevoked}, f.publisher.types())
}

func TestReconcile_PublishedEventCarriesStripeEventID(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "evtid@x.com")

	_, err := f.deliver(t, "evt_carried", "checkout.session.completed", checkoutObject("cs_carried", user.User.ID, "premium-monthly"))
	require.NoError(t, err)

	f.publisher.mu.Lock()
	defer f.publisher.mu.Unlock()
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, "evt_carried", f.publisher.events[0].EventID)
	assert.Equal(t, "checkout.session.completed", f.publisher.events[0].Source)
}

func TestReconcile_SubscriptionUpdated(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "sub@x.com")
	_, err := f.deliver(t, "evt_sub_checkout", "checkout.session.completed", checkoutObject("cs_sub", user.User.ID, "premium-monthly"))
	require.NoError(t, err)
	paid := f.current(t, user.User.ID)
	periodEnd := time.Now().Add(40 * 24 * time.Hour).Unix()

	_, err = f.deliver(t, "evt_sub_cancel", "customer.subscription.updated", map[string]any{
		"id":                   *paid.ExternalSubscriptionRef,
		"customer":             *paid.ExternalCustomerRef,
		"status":               "active",
		"cancel_at_period_end": true,
		"items": map[string]any{"data": []map[string]any{{
			"current_period_end": periodEnd,
			"price":              map[string]any{"id": "price_1", "lookup_key": "professional-monthly"},
		}}},
	})
	require.NoError(t, err)

	rec := f.current(t, user.User.ID)
	assert.Equal(t, models.StatusCanceling, rec.Status)
	assert.Equal(t, models.PlanProfessional, rec.Plan)
	require.NotNil(t, rec.PeriodEnd)
	assert.Equal(t, periodEnd, rec.PeriodEnd.Unix())
	assert.Equal(t, paid.AccessToken, rec.AccessToken)
	assert.EqualValues(t, 1, f.rowCount(t, user.User.ID))
}

func TestReconcile_SubscriptionForUnknownCustomerIsIgnored(t *testing.T) {
	f := newFixture(t)

	res, err := f.deliver(t, "evt_unknown", "customer.subscription.created", map[string]any{
		"id": "sub_nobody", "customer": "cus_nobody", "status": "active",
	})

	require.NoError(t, err)
	assert.Equal(t, models.WebhookIgnored, res.Status)
}

func TestReconcile_InvoicePaymentSucceeded(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "inv@x.com")
	_, err := f.deliver(t, "evt_inv_checkout", "checkout.session.completed", checkoutObject("cs_inv", user.User.ID, "premium-monthly"))
	require.NoError(t, err)
	paid := f.current(t, user.User.ID)

	start := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	end := start.AddDate(0, 1, 0)
	invoice := map[string]any{
		"id":           "in_paid",
		"customer":     *paid.ExternalCustomerRef,
		"subscription": *paid.ExternalSubscriptionRef,
		"status":       "paid",
		"amount_paid":  999,
		"currency":     "usd",
		"lines": map[string]any{"data": []map[string]any{{
			"period": map[string]any{"start": start.Unix(), "end": end.Unix()},
		}}},
	}

	_, err = f.deliver(t, "evt_inv_1", "invoice.payment_succeeded", invoice)
	require.NoError(t, err)
	_, err = f.deliver(t, "evt_inv_2", "invoice.payment_succeeded", invoice)
	require.NoError(t, err)

	var payments int64
	require.NoError(t, f.db.Model(&models.Payment{}).Where("user_id = ?", user.User.ID).Count(&payments).Error)
	assert.EqualValues(t, 1, payments)

	rec := f.current(t, user.User.ID)
	require.NotNil(t, rec.PeriodEnd)
	assert.Equal(t, end.Unix(), rec.PeriodEnd.Unix())

	invoice["id"] = "in_zero"
	invoice["amount_paid"] = 0
	res, err := f.deliver(t, "evt_inv_zero", "invoice.payment_succeeded", invoice)
	require.NoError(t, err)
	assert.Equal(t, models.WebhookIgnored, res.Status)
}

func TestReconcile_CustomerCreatedLinksByEmail(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "link@x.com")

	_, err := f.deliver(t, "evt_cust", "customer.created", map[string]any{"id": "cus_link", "email": "LINK@x.com"})
	require.NoError(t, err)

	var u models.User
	require.NoError(t, f.db.First(&u, "id = ?", user.User.ID).Error)
	require.NotNil(t, u.ExternalCustomerRef)
	assert.Equal(t, "cus_link", *u.ExternalCustomerRef)

	res, err := f.deliver(t, "evt_cust_noemail", "customer.created", map[string]any{"id": "cus_anon"})
	require.NoError(t, err)
	assert.Equal(t, models.WebhookIgnored, res.Status)

	res, err = f.deliver(t, "evt_cust_stranger", "customer.created", map[string]any{"id": "cus_x", "email": "nobody@x.com"})
	require.NoError(t, err)
	assert.Equal(t, models.WebhookIgnored, res.Status)
}

func TestReconcile_UnhandledTypeIsIgnored(t *testing.T) {
	f := newFixture(t)

	res, err := f.deliver(t, "evt_other", "charge.refunded", map[string]any{"id": "ch_1"})

	require.NoError(t, err)
	assert.Equal(t, models.WebhookIgnored, res.Status)
}

func TestPlanTierAndExpiry(t *testing.T) {
	now := time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		plan     string
		expected *time.Time
	}{
		{"premium-monthly", models.PlanPremium, ptrTime(now.AddDate(0, 1, 0))},
		{"premium-yearly", models.PlanPremium, ptrTime(now.AddDate(1, 0, 0))},
		{"professional-annual", models.PlanProfessional, ptrTime(now.AddDate(1, 0, 0))},
		{"pro_quarterly", models.PlanProfessional, ptrTime(now.AddDate(0, 3, 0))},
		{"premium-weekly", models.PlanPremium, ptrTime(now.AddDate(0, 0, 7))},
		{"gold", models.PlanPremium, ptrTime(now.AddDate(1, 0, 0))},
		{"basic", models.PlanBasic, nil},
		{"free-monthly", models.PlanBasic, nil},
		{"pro", models.PlanProfessional, ptrTime(now.AddDate(1, 0, 0))},
		{"pro-monthly", models.PlanProfessional, ptrTime(now.AddDate(0, 1, 0))},
		{"promo-premium-monthly", models.PlanPremium, ptrTime(now.AddDate(0, 1, 0))},
		{"promo", models.PlanPremium, ptrTime(now.AddDate(1, 0, 0))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := PlanTier(tt.name)
			assert.Equal(t, tt.plan, plan)
			assert.Equal(t, tt.expected, PlanExpiry(tt.name, plan, now))
		})
	}
}

func TestMapSubscriptionStatus(t *testing.T) {
	tests := []struct {
		sub      dto.StripeSubscription
		expected string
	}{
		{dto.StripeSubscription{Status: "active"}, models.StatusActive},
		{dto.StripeSubscription{Status: "active", CancelAtPeriodEnd: true}, models.StatusCanceling},
		{dto.StripeSubscription{Status: "active", CancelAt: 1900000000}, models.StatusCanceling},
		{dto.StripeSubscription{Status: "trialing"}, models.StatusActive},
		{dto.StripeSubscription{Status: "past_due"}, models.StatusPastDue},
		{dto.StripeSubscription{Status: "unpaid"}, models.StatusUnpaid},
		{dto.StripeSubscription{Status: "canceled"}, models.StatusCanceled},
		{dto.StripeSubscription{Status: "incomplete"}, models.StatusPending},
		{dto.StripeSubscription{Status: "incomplete_expired"}, models.StatusCanceled},
		{dto.StripeSubscription{Status: "paused"}, models.StatusPaused},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, MapSubscriptionStatus(tt.sub), tt.sub.Status)
	}
}

func TestSubscriptionPeriodEnd(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	explicit := dto.StripeSubscription{CurrentPeriodEnd: now.Add(time.Hour).Unix(), CancelAt: now.Add(2 * time.Hour).Unix()}
	assert.Equal(t, now.Add(time.Hour).Unix(), SubscriptionPeriodEnd(explicit, now).Unix())

	scheduled := dto.StripeSubscription{CancelAt: now.Add(2 * time.Hour).Unix()}
	assert.Equal(t, now.Add(2*time.Hour).Unix(), SubscriptionPeriodEnd(scheduled, now).Unix())

	var interval dto.StripeSubscription
	interval.Items.Data = []dto.StripeSubscriptionItem{{}}
	interval.Items.Data[0].Price.Recurring = &struct {
		Interval      string `json:"interval"`
		IntervalCount int64  `json:"interval_count"`
	}{Interval: "week", IntervalCount: 2}
	assert.Equal(t, now.AddDate(0, 0, 14), *SubscriptionPeriodEnd(interval, now))

	assert.Equal(t, now.AddDate(0, 1, 0), *SubscriptionPeriodEnd(dto.StripeSubscription{}, now))
}

func ptrTime(t time.Time) *time.Time { return &t }
