package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	clientmodel "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	report *dto.ReportResponse
	err    error
	calls  int
}

func (g *stubGenerator) GenerateReport(ctx context.Context, v Vehicle) (*dto.ReportResponse, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	copied := *g.report
	return &copied, nil
}

func intPtr(n int) *int { return &n }

func fullStubReport() *dto.ReportResponse {
	return &dto.ReportResponse{
		OverallScore: 82,
		Categories: dto.Categories{
			Engine:           intPtr(85),
			Transmission:     intPtr(80),
			ElectricalSystem: intPtr(78),
			Brakes:           intPtr(88),
			Suspension:       intPtr(81),
			FuelSystem:       intPtr(84),
		},
		CommonIssues: []dto.CommonIssue{{Description: "Water pump", CostToFix: "$500", Occurrence: "Rare", Mileage: "90,000"}},
		AIAnalysis:   "A dependable midsize sedan.",
	}
}

var camry = &dto.ReportRequest{Year: 2020, Make: "Toyota", Model: "Camry", Mileage: 45000}

func TestReport_AnonymousIsTruncated(t *testing.T) {
	f := newFixture(t)
	svc := NewReportService(f.db, &stubGenerator{report: fullStubReport()}, f.entitlements)

	resp, err := svc.Generate(context.Background(), camry, Principal{})
	require.NoError(t, err)

	assert.Equal(t, 85, *resp.Categories.Engine)
	assert.Equal(t, 80, *resp.Categories.Transmission)
	assert.Nil(t, resp.Categories.ElectricalSystem)
	assert.Nil(t, resp.Categories.Brakes)
	assert.Nil(t, resp.Categories.Suspension)
	assert.Nil(t, resp.Categories.FuelSystem)
	assert.NotNil(t, resp.CommonIssues)
	assert.Empty(t, resp.CommonIssues)
	assert.Equal(t, UpsellMessage, resp.AIAnalysis)
	assert.False(t, resp.IsPremium)
	assert.False(t, resp.IsBasic)
	assert.Equal(t, DataSourceAI, resp.DataSource)

	var logs int64
	require.NoError(t, f.db.Model(&models.SearchLogEntry{}).Count(&logs).Error)
	assert.Zero(t, logs, "anonymous requests are not logged")
}

func TestReport_PremiumGetsEverythingAndIsLogged(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "report@x.com")
	_, err := f.entitlements.Grant(context.Background(), "report@x.com", models.PlanPremium, nil)
	require.NoError(t, err)
	svc := NewReportService(f.db, &stubGenerator{report: fullStubReport()}, f.entitlements)

	resp, err := svc.Generate(context.Background(), camry, Principal{SessionToken: user.AccessToken})
	require.NoError(t, err)

	assert.True(t, resp.IsPremium)
	assert.Equal(t, 78, *resp.Categories.ElectricalSystem)
	assert.Len(t, resp.CommonIssues, 1)
	assert.Equal(t, "A dependable midsize sedan.", resp.AIAnalysis)

	var entry models.SearchLogEntry
	require.NoError(t, f.db.Where("user_id = ?", user.User.ID).First(&entry).Error)
	assert.Equal(t, "Camry", entry.Model)
	assert.NotEmpty(t, entry.Results)
}

func TestReport_BasicUserIsTruncatedButLogged(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "basic@x.com")
	svc := NewReportService(f.db, &stubGenerator{report: fullStubReport()}, f.entitlements)

	resp, err := svc.Generate(context.Background(), camry, Principal{SessionToken: user.AccessToken})
	require.NoError(t, err)

	assert.False(t, resp.IsPremium)
	assert.True(t, resp.IsBasic)
	assert.Nil(t, resp.Categories.FuelSystem)

	var logs int64
	require.NoError(t, f.db.Model(&models.SearchLogEntry{}).Where("user_id = ?", user.User.ID).Count(&logs).Error)
	assert.EqualValues(t, 1, logs)
}

func TestReport_ProviderFailureFallsBackToPlaceholder(t *testing.T) {
	f := newFixture(t)
	gen := &stubGenerator{err: errors.New("provider down")}
	svc := NewReportService(f.db, gen, f.entitlements)

	first, err := svc.Generate(context.Background(), camry, Principal{})
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), camry, Principal{})
	require.NoError(t, err)

	assert.Equal(t, DataSourcePlaceholder, first.DataSource)
	assert.Equal(t, first, second)
	assert.NotNil(t, first.Categories.Engine)
	assert.Equal(t, UpsellMessage, first.AIAnalysis)
}

func reportDurationSamples(t *testing.T, source string) uint64 {
	t.Helper()
	var m clientmodel.Metric
	require.NoError(t, metrics.ReportDuration.WithLabelValues(source).(prometheus.Metric).Write(&m))
	return m.GetHistogram().GetSampleCount()
}

func TestReport_DurationObservedForEverySource(t *testing.T) {
	f := newFixture(t)
	aiBefore := reportDurationSamples(t, DataSourceAI)
	placeholderBefore := reportDurationSamples(t, DataSourcePlaceholder)

	_, err := NewReportService(f.db, &stubGenerator{report: fullStubReport()}, f.entitlements).
		Generate(context.Background(), camry, Principal{})
	require.NoError(t, err)
	_, err = NewReportService(f.db, &stubGenerator{err: errors.New("timeout")}, f.entitlements).
		Generate(context.Background(), camry, Principal{})
	require.NoError(t, err)

	assert.Equal(t, aiBefore+1, reportDurationSamples(t, DataSourceAI))
	assert.Equal(t, placeholderBefore+1, reportDurationSamples(t, DataSourcePlaceholder))
}

func TestReport_Validation(t *testing.T) {
	f := newFixture(t)
	gen := &stubGenerator{report: fullStubReport()}
	svc := NewReportService(f.db, gen, f.entitlements)
	nextYear := time.Now().Year() + 1

	for name, req := range map[string]*dto.ReportRequest{
		"old year":         {Year: 1899, Make: "Ford", Model: "T", Mileage: 0},
		"future year":      {Year: nextYear + 1, Make: "Ford", Model: "F-150", Mileage: 0},
		"missing make":     {Year: 2020, Make: " ", Model: "Camry", Mileage: 0},
		"missing model":    {Year: 2020, Make: "Toyota", Mileage: 0},
		"negative mileage": {Year: 2020, Make: "Toyota", Model: "Camry", Mileage: -1},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Generate(context.Background(), req, Principal{})
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	_, err := svc.Generate(context.Background(), &dto.ReportRequest{Year: nextYear, Make: "Tesla", Model: "Model Y"}, Principal{})
	assert.NoError(t, err)
	assert.Equal(t, 1, gen.calls, "invalid requests never reach the provider")
}

func TestPlaceholderReport_IsDeterministic(t *testing.T) {
	v := Vehicle{Year: 2015, Make: "Honda", Model: "Civic", Mileage: 120000}

	a := PlaceholderReport(v)
	b := PlaceholderReport(Vehicle{Year: 2015, Make: "HONDA", Model: "civic", Mileage: 120000})

	assert.Equal(t, a.Categories, b.Categories)
	assert.Equal(t, a.OverallScore, b.OverallScore)
	assert.NotEmpty(t, a.CommonIssues)
	for _, s := range []*int{a.Categories.Engine, a.Categories.FuelSystem} {
		assert.GreaterOrEqual(t, *s, 20)
		assert.LessOrEqual(t, *s, 98)
	}
}

func TestChatCompletionClient_RetriesThenSucceeds(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"` +
			"```json\\n{\\\"overallScore\\\": 140, \\\"categories\\\": {\\\"engine\\\": 90}, \\\"aiAnalysis\\\": \\\"ok\\\"}\\n```" +
			`"}}]}`))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.OpenAIAPIKey = "sk-test"
	cfg.OpenAIAPIURL = server.URL
	cfg.AIMaxRetries = 2
	client := NewChatCompletionClient(cfg)
	var waits []time.Duration
	client.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	report, err := client.GenerateReport(context.Background(), Vehicle{Year: 2020, Make: "Toyota", Model: "Camry"})
	require.NoError(t, err)

	assert.EqualValues(t, 2, hits.Load())
	assert.Len(t, waits, 1)
	assert.Equal(t, 100, report.OverallScore)
	assert.Equal(t, 90, *report.Categories.Engine)
	assert.Equal(t, "ok", report.AIAnalysis)
	assert.NotNil(t, report.CommonIssues)
}

func TestChatCompletionClient_GivesUp(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.OpenAIAPIKey = "sk-test"
	cfg.OpenAIAPIURL = server.URL
	cfg.AIMaxRetries = 2
	client := NewChatCompletionClient(cfg)
	client.sleep = func(context.Context, time.Duration) error { return nil }

	_, err := client.GenerateReport(context.Background(), Vehicle{Year: 2020, Make: "Toyota", Model: "Camry"})

	assert.ErrorIs(t, err, ErrExternalService)
	assert.EqualValues(t, 3, hits.Load())
}

func TestChatCompletionClient_DoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.OpenAIAPIKey = "sk-bad"
	cfg.OpenAIAPIURL = server.URL
	cfg.AIMaxRetries = 3
	client := NewChatCompletionClient(cfg)

	_, err := client.GenerateReport(context.Background(), Vehicle{Year: 2020, Make: "Toyota", Model: "Camry"})

	assert.ErrorIs(t, err, ErrExternalService)
	assert.EqualValues(t, 1, hits.Load())
}

func TestBackoffIsJitteredAndGrows(t *testing.T) {
	base := 100 * time.Millisecond
	for attempt := 1; attempt <= 3; attempt++ {
		floor := base << (attempt - 1)
		d := backoff(base, attempt)
		assert.GreaterOrEqual(t, d, floor)
		assert.Less(t, d, floor+base)
	}
}
