package services

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DataSourceAI          = "ai"
	DataSourcePlaceholder = "placeholder"
)

// UpsellMessage replaces the narrative analysis for callers without a
// premium entitlement.
const UpsellMessage = "Upgrade to Premium to unlock the full AI reliability analysis, all six category scores and the common issues reported for this vehicle."

const (
	minModelYear   = 1900
	maxMileage     = 2_000_000
	maxNameLength  = 100
	freeSearchRows = 10
	paidSearchRows = 1000
)

var placeholderIssues = []dto.CommonIssue{
	{Description: "Worn brake pads and rotors", CostToFix: "$250 - $600", Occurrence: "Common", Mileage: "30,000 - 60,000"},
	{Description: "Battery or alternator failure", CostToFix: "$150 - $700", Occurrence: "Moderate", Mileage: "50,000 - 90,000"},
	{Description: "Suspension bushing wear", CostToFix: "$300 - $900", Occurrence: "Moderate", Mileage: "70,000 - 110,000"},
	{Description: "Oxygen sensor failure", CostToFix: "$200 - $450", Occurrence: "Common", Mileage: "60,000 - 100,000"},
	{Description: "Transmission fluid leak", CostToFix: "$150 - $1,200", Occurrence: "Occasional", Mileage: "80,000 - 130,000"},
	{Description: "Water pump failure", CostToFix: "$400 - $800", Occurrence: "Occasional", Mileage: "90,000 - 120,000"},
	{Description: "Fuel injector clogging", CostToFix: "$350 - $900", Occurrence: "Occasional", Mileage: "75,000 - 120,000"},
	{Description: "Infotainment or wiring faults", CostToFix: "$100 - $1,000", Occurrence: "Moderate", Mileage: "Any"},
}

type ReportService struct {
	db           *gorm.DB
	generator    ReportGenerator
	entitlements *EntitlementService
	now          func() time.Time
}

func NewReportService(db *gorm.DB, generator ReportGenerator, entitlements *EntitlementService) *ReportService {
	return &ReportService{db: db, generator: generator, entitlements: entitlements, now: time.Now}
}

// Generate validates the vehicle, resolves the caller's entitlement,
// obtains the full report (or placeholder data when the provider fails) and
// returns it tiered for the caller.
func (s *ReportService) Generate(ctx context.Context, req *dto.ReportRequest, principal Principal) (*dto.ReportResponse, error) {
	v, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	decision, err := s.entitlements.Check(ctx, principal)
	if err != nil {
		return nil, err
	}

	full := s.fullReport(ctx, v)
	resp := TierReport(full, decision)

	if decision.UserID != nil {
		s.logSearch(ctx, decision, v, resp)
	}
	return resp, nil
}

func (s *ReportService) fullReport(ctx context.Context, v Vehicle) *dto.ReportResponse {
	start := s.now()
	if s.generator != nil {
		report, err := s.generator.GenerateReport(ctx, v)
		if err == nil {
			report.DataSource = DataSourceAI
			metrics.ReportsTotal.WithLabelValues(DataSourceAI).Inc()
			metrics.ReportDuration.WithLabelValues(DataSourceAI).Observe(time.Since(start).Seconds())
			return report
		}
		slog.Warn("AI report failed, using placeholder", "vehicle", v.String(), "error", err)
	}

	metrics.ReportsTotal.WithLabelValues(DataSourcePlaceholder).Inc()
	metrics.ReportDuration.WithLabelValues(DataSourcePlaceholder).Observe(time.Since(start).Seconds())
	return PlaceholderReport(v)
}

func (s *ReportService) validate(req *dto.ReportRequest) (Vehicle, error) {
	v := Vehicle{
		Year:    req.Year,
		Make:    strings.TrimSpace(req.Make),
		Model:   strings.TrimSpace(req.Model),
		Mileage: req.Mileage,
	}

	maxYear := s.now().Year() + 1
	switch {
	case v.Year < minModelYear || v.Year > maxYear:
		return v, invalid("year", fmt.Sprintf("must be between %d and %d", minModelYear, maxYear))
	case v.Make == "":
		return v, invalid("make", "make is required")
	case v.Model == "":
		return v, invalid("model", "model is required")
	case len(v.Make) > maxNameLength || len(v.Model) > maxNameLength:
		return v, invalid("model", fmt.Sprintf("make and model must be at most %d characters", maxNameLength))
	case v.Mileage < 0 || v.Mileage > maxMileage:
		return v, invalid("mileage", fmt.Sprintf("must be between 0 and %d", maxMileage))
	}
	return v, nil
}

func (s *ReportService) logSearch(ctx context.Context, decision Decision, v Vehicle, resp *dto.ReportResponse) {
	results, err := json.Marshal(resp)
	if err != nil {
		slog.Error("failed to encode search results", "error", err)
		return
	}

	entry := models.SearchLogEntry{
		UserID:  decision.UserID,
		Year:    v.Year,
		Make:    v.Make,
		Model:   v.Model,
		Mileage: v.Mileage,
		Results: datatypes.JSON(results),
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		slog.Error("failed to write search log", "user_id", decision.UserID.String(), "error", database.Classify(err))
	}
}

// TierReport keeps the full envelope for every caller and strips the
// premium-only fields unless the decision is entitled.
func TierReport(full *dto.ReportResponse, decision Decision) *dto.ReportResponse {
	out := *full
	out.IsPremium = decision.IsEntitled
	out.IsBasic = decision.Plan != nil && *decision.Plan == models.PlanBasic
	if out.CommonIssues == nil {
		out.CommonIssues = []dto.CommonIssue{}
	}
	if decision.IsEntitled {
		return &out
	}

	out.Categories = dto.Categories{
		Engine:       full.Categories.Engine,
		Transmission: full.Categories.Transmission,
	}
	out.CommonIssues = []dto.CommonIssue{}
	out.AIAnalysis = UpsellMessage
	return &out
}

// PlaceholderReport derives stable, plausible figures from the vehicle so the
// same request always yields the same fallback.
func PlaceholderReport(v Vehicle) *dto.ReportResponse {
	seed := fmt.Sprintf("%d:%s:%s", v.Year, strings.ToLower(v.Make), strings.ToLower(v.Model))
	hash := sha256.Sum256([]byte(seed))

	wear := clamp(v.Mileage/10000, 0, 25)
	score := func(i int) *int {
		n := clamp(60+int(hash[i])%36-wear, 20, 98)
		return &n
	}

	categories := dto.Categories{
		Engine:           score(0),
		Transmission:     score(1),
		ElectricalSystem: score(2),
		Brakes:           score(3),
		Suspension:       score(4),
		FuelSystem:       score(5),
	}

	total := 0
	for _, c := range []*int{categories.Engine, categories.Transmission, categories.ElectricalSystem,
		categories.Brakes, categories.Suspension, categories.FuelSystem} {
		total += *c
	}

	issues := make([]dto.CommonIssue, 0, 3)
	for i := 0; i < 3; i++ {
		issue := placeholderIssues[(int(hash[6])+i*int(hash[7]|1))%len(placeholderIssues)]
		if !containsIssue(issues, issue) {
			issues = append(issues, issue)
		}
	}

	return &dto.ReportResponse{
		OverallScore: total / 6,
		Categories:   categories,
		CommonIssues: issues,
		AIAnalysis: fmt.Sprintf("Estimated reliability for the %d %s %s at %d miles. "+
			"Detailed analysis is temporarily unavailable; these figures are general estimates for vehicles of this age and mileage.",
			v.Year, v.Make, v.Model, v.Mileage),
		DataSource: DataSourcePlaceholder,
	}
}

func containsIssue(issues []dto.CommonIssue, issue dto.CommonIssue) bool {
	for _, existing := range issues {
		if existing.Description == issue.Description {
			return true
		}
	}
	return false
}
