package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionVerifier resolves a session token to its subject.
type SessionVerifier interface {
	VerifySession(token string) (*SessionClaims, error)
}

// Principal is whatever the caller presented. The first non-empty field in
// AccessToken, SessionToken, UserID order wins.
type Principal struct {
	AccessToken  string
	SessionToken string
	UserID       uuid.UUID
}

func (p Principal) empty() bool {
	return p.AccessToken == "" && p.SessionToken == "" && p.UserID == uuid.Nil
}

// Decision is the answer to "may this principal see premium data".
type Decision struct {
	IsEntitled bool
	Plan       *string
	Record     *models.EntitlementRecord
	UserID     *uuid.UUID
}

type EntitlementService struct {
	db        *gorm.DB
	sessions  SessionVerifier
	publisher events.Publisher
	now       func() time.Time
}

func NewEntitlementService(db *gorm.DB, sessions SessionVerifier, publisher events.Publisher) *EntitlementService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &EntitlementService{db: db, sessions: sessions, publisher: publisher, now: time.Now}
}

// Check resolves the principal to its current ledger row and applies the
// entitlement rule. Bad or expired session tokens yield an anonymous
// decision; only storage failures are returned as errors.
func (s *EntitlementService) Check(ctx context.Context, p Principal) (Decision, error) {
	if p.empty() {
		return Decision{}, nil
	}

	var (
		rec    *models.EntitlementRecord
		userID uuid.UUID
		err    error
	)

	switch {
	case p.AccessToken != "":
		rec, err = s.FindByAccessToken(ctx, p.AccessToken)
		if rec != nil {
			userID = rec.UserID
		}
	case p.SessionToken != "":
		if s.sessions == nil {
			return Decision{}, nil
		}
		claims, verr := s.sessions.VerifySession(p.SessionToken)
		if verr != nil {
			return Decision{}, nil
		}
		userID = claims.UserID
		rec, err = s.Current(ctx, userID)
	default:
		userID = p.UserID
		rec, err = s.Current(ctx, userID)
	}

	if err != nil && !errors.Is(err, ErrEntitlementNotFound) {
		return Decision{}, err
	}

	d := Decision{}
	if userID != uuid.Nil {
		d.UserID = &userID
	}
	if rec != nil {
		plan := rec.Plan
		d.Plan = &plan
		d.Record = rec
		d.IsEntitled = rec.IsEntitled(s.now())
	}
	return d, nil
}

// Current returns the user's authoritative row.
func (s *EntitlementService) Current(ctx context.Context, userID uuid.UUID) (*models.EntitlementRecord, error) {
	return currentEntitlement(s.db.WithContext(ctx), userID)
}

func (s *EntitlementService) FindByAccessToken(ctx context.Context, token string) (*models.EntitlementRecord, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrEntitlementNotFound
	}

	var rec models.EntitlementRecord
	if err := s.db.WithContext(ctx).Where("access_token = ?", token).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntitlementNotFound
		}
		return nil, database.Classify(err)
	}
	return &rec, nil
}

// EnsureDefault gives the user a basic, active, non-expiring row unless a
// current row already exists.
func (s *EntitlementService) EnsureDefault(ctx context.Context, userID uuid.UUID) (*models.EntitlementRecord, error) {
	var rec *models.EntitlementRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rec, err = ensureDefaultEntitlement(tx, userID, s.now())
		return err
	})
	if err != nil {
		return nil, database.Classify(err)
	}
	return rec, nil
}

// Grant sets a plan on the user's current row outside the billing flow, for
// support and tooling. A nil periodEnd means non-expiring.
func (s *EntitlementService) Grant(ctx context.Context, email, plan string, periodEnd *time.Time) (*models.EntitlementRecord, error) {
	plan = strings.ToLower(strings.TrimSpace(plan))
	switch plan {
	case models.PlanBasic, models.PlanPremium, models.PlanProfessional:
	default:
		return nil, ErrUnknownPlan
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, database.Classify(err)
	}

	now := s.now()
	var rec *models.EntitlementRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rec, err = upsertCurrentEntitlement(tx, user.ID, func(r *models.EntitlementRecord) error {
			r.Plan = plan
			r.Status = models.StatusActive
			r.PeriodStart = now
			r.PeriodEnd = periodEnd
			return rotateAccessToken(r)
		})
		return err
	})
	if err != nil {
		return nil, database.Classify(err)
	}

	publishEntitlement(ctx, s.publisher, events.EntitlementGranted, rec, "manual", "")
	return rec, nil
}

func currentEntitlement(db *gorm.DB, userID uuid.UUID) (*models.EntitlementRecord, error) {
	var rec models.EntitlementRecord
	if err := db.Where("current_for = ?", userID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntitlementNotFound
		}
		return nil, database.Classify(err)
	}
	return &rec, nil
}

func ensureDefaultEntitlement(tx *gorm.DB, userID uuid.UUID, now time.Time) (*models.EntitlementRecord, error) {
	token, err := newAccessToken()
	if err != nil {
		return nil, err
	}
	owner := userID
	rec := models.EntitlementRecord{
		UserID:      userID,
		Plan:        models.PlanBasic,
		Status:      models.StatusActive,
		AccessToken: token,
		PeriodStart: now,
		CurrentFor:  &owner,
	}
	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "current_for"}},
		DoNothing: true,
	}).Create(&rec).Error
	if err != nil {
		return nil, err
	}
	return currentEntitlement(tx, userID)
}

// upsertCurrentEntitlement applies mutate to the user's current row, creating
// one first when none exists. A concurrent insert that wins the unique
// current_for slot turns this call into an update of the winner's row.
func upsertCurrentEntitlement(tx *gorm.DB, userID uuid.UUID, mutate func(*models.EntitlementRecord) error) (*models.EntitlementRecord, error) {
	rec, err := currentEntitlement(tx, userID)
	switch {
	case err == nil:
		if err := mutate(rec); err != nil {
			return nil, err
		}
		if err := tx.Save(rec).Error; err != nil {
			return nil, err
		}
		return rec, nil
	case !errors.Is(err, ErrEntitlementNotFound):
		return nil, err
	}

	owner := userID
	fresh := &models.EntitlementRecord{
		UserID:     userID,
		Plan:       models.PlanBasic,
		Status:     models.StatusActive,
		CurrentFor: &owner,
	}
	if err := mutate(fresh); err != nil {
		return nil, err
	}
	if fresh.AccessToken == "" {
		if err := rotateAccessToken(fresh); err != nil {
			return nil, err
		}
	}

	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "current_for"}},
		DoNothing: true,
	}).Create(fresh)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected > 0 {
		return fresh, nil
	}

	rec, err = currentEntitlement(tx, userID)
	if err != nil {
		return nil, err
	}
	if err := mutate(rec); err != nil {
		return nil, err
	}
	if err := tx.Save(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

func rotateAccessToken(r *models.EntitlementRecord) error {
	token, err := newAccessToken()
	if err != nil {
		return err
	}
	r.AccessToken = token
	return nil
}

func newAccessToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func publishEntitlement(ctx context.Context, p events.Publisher, kind string, rec *models.EntitlementRecord, source, eventID string) {
	if p == nil || rec == nil {
		return
	}
	err := p.Publish(ctx, events.EntitlementEvent{
		Type:       kind,
		UserID:     rec.UserID.String(),
		Plan:       rec.Plan,
		Status:     rec.Status,
		PeriodEnd:  rec.PeriodEnd,
		Source:     source,
		EventID:    eventID,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		slog.Warn("entitlement event not published", "type", kind, "user_id", rec.UserID, "error", err)
	}
}
