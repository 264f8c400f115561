package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
	"gorm.io/gorm"
)

const testWebhookSecret = "whsec_test_secret"

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:              "test-jwt-secret",
		JWTAccessExpiry:        24 * time.Hour,
		JWTRefreshExpiry:       168 * time.Hour,
		StripeWebhookSecret:    testWebhookSecret,
		StripeWebhookTolerance: 5 * time.Minute,
		StripePriceIDs: map[string]string{
			"premium-monthly": "price_premium_monthly",
		},
		FrontendURL:      "http://localhost:3000",
		AITimeout:        time.Second,
		ReportRateLimit:  10,
		ReportRateWindow: time.Minute,
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.EntitlementEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.EntitlementEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	db           *gorm.DB
	cfg          *config.Config
	auth         *AuthService
	entitlements *EntitlementService
	billing      *BillingService
	publisher    *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := testConfig()
	pub := &recordingPublisher{}
	auth := NewAuthService(db, cfg)
	return &fixture{
		db:           db,
		cfg:          cfg,
		auth:         auth,
		entitlements: NewEntitlementService(db, auth, pub),
		billing:      NewBillingService(db, cfg, pub),
		publisher:    pub,
	}
}

func (f *fixture) register(t *testing.T, email string) *dto.AuthResponse {
	t.Helper()
	resp, err := f.auth.Register(context.Background(), &dto.RegisterRequest{Email: email, Password: "pw123456"})
	require.NoError(t, err)
	return resp
}

func (f *fixture) current(t *testing.T, userID uuid.UUID) *models.EntitlementRecord {
	t.Helper()
	rec, err := f.entitlements.Current(context.Background(), userID)
	require.NoError(t, err)
	return rec
}

func (f *fixture) rowCount(t *testing.T, userID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.EntitlementRecord{}).Where("user_id = ?", userID).Count(&n).Error)
	return n
}

func (f *fixture) snapshot(t *testing.T) []models.EntitlementRecord {
	t.Helper()
	var rows []models.EntitlementRecord
	require.NoError(t, f.db.Order("id").Find(&rows).Error)
	return rows
}

func (f *fixture) deliver(t *testing.T, eventID, eventType string, object any) (ReconcileResult, error) {
	t.Helper()
	payload := eventPayload(t, eventID, eventType, object)
	header := signPayload(payload, testWebhookSecret, time.Now())
	return f.billing.Reconcile(context.Background(), payload, header)
}

func eventPayload(t *testing.T, eventID, eventType string, object any) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"id":          eventID,
		"object":      "event",
		"type":        eventType,
		"api_version": "2025-03-31.basil",
		"created":     time.Now().Unix(),
		"data":        map[string]any{"object": object},
	})
	require.NoError(t, err)
	return body
}

func signPayload(payload []byte, secret string, ts time.Time) string {
	signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: ts,
		Scheme:    "v1",
	})
	return signed.Header
}
