package dto

import "time"

// ReportRequest describes the vehicle. PremiumToken is the opaque access
// token; UserToken is a session token sent in the body instead of the
// Authorization header.
type ReportRequest struct {
	Year         int    `json:"year"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Mileage      int    `json:"mileage"`
	PremiumToken string `json:"premiumToken,omitempty"`
	UserToken    string `json:"userToken,omitempty"`
}

// Categories keeps its full envelope for every tier; free responses carry
// nulls for the premium-only scores.
type Categories struct {
	Engine           *int `json:"engine"`
	Transmission     *int `json:"transmission"`
	ElectricalSystem *int `json:"electricalSystem"`
	Brakes           *int `json:"brakes"`
	Suspension       *int `json:"suspension"`
	FuelSystem       *int `json:"fuelSystem"`
}

type CommonIssue struct {
	Description string `json:"description"`
	CostToFix   string `json:"costToFix"`
	Occurrence  string `json:"occurrence"`
	Mileage     string `json:"mileage"`
}

type ReportResponse struct {
	OverallScore int           `json:"overallScore"`
	Categories   Categories    `json:"categories"`
	CommonIssues []CommonIssue `json:"commonIssues"`
	AIAnalysis   string        `json:"aiAnalysis"`
	IsPremium    bool          `json:"isPremium"`
	IsBasic      bool          `json:"isBasic"`
	DataSource   string        `json:"dataSource"`
}

type PDFRequest struct {
	Year            int             `json:"year"`
	Make            string          `json:"make"`
	Model           string          `json:"model"`
	Mileage         int             `json:"mileage"`
	ReliabilityData *ReportResponse `json:"reliability_data"`
}

type SearchLogResponse struct {
	ID        string          `json:"id"`
	Year      int             `json:"year"`
	Make      string          `json:"make"`
	Model     string          `json:"model"`
	Mileage   int             `json:"mileage"`
	Results   *ReportResponse `json:"results,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type SearchHistoryResponse struct {
	Searches []SearchLogResponse `json:"searches"`
	Limit    int                 `json:"limit"`
	Premium  bool                `json:"premium"`
}
