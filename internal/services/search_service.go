package services

import (
	"context"
	"encoding/json"

	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SearchService struct {
	db           *gorm.DB
	entitlements *EntitlementService
}

func NewSearchService(db *gorm.DB, entitlements *EntitlementService) *SearchService {
	return &SearchService{db: db, entitlements: entitlements}
}

// History lists the user's searches newest first. Entitled users see up to
// paidSearchRows entries, everyone else freeSearchRows.
func (s *SearchService) History(ctx context.Context, userID uuid.UUID) (*dto.SearchHistoryResponse, error) {
	decision, err := s.entitlements.Check(ctx, Principal{UserID: userID})
	if err != nil {
		return nil, err
	}

	limit := freeSearchRows
	if decision.IsEntitled {
		limit = paidSearchRows
	}

	var rows []models.SearchLogEntry
	err = s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, database.Classify(err)
	}

	out := make([]dto.SearchLogResponse, 0, len(rows))
	for _, row := range rows {
		item := dto.SearchLogResponse{
			ID:        row.ID.String(),
			Year:      row.Year,
			Make:      row.Make,
			Model:     row.Model,
			Mileage:   row.Mileage,
			CreatedAt: row.CreatedAt,
		}
		if len(row.Results) > 0 {
			var report dto.ReportResponse
			if json.Unmarshal(row.Results, &report) == nil {
				item.Results = &report
			}
		}
		out = append(out, item)
	}

	return &dto.SearchHistoryResponse{Searches: out, Limit: limit, Premium: decision.IsEntitled}, nil
}
