package quotation

import (
	"context"
	"fmt"
	"time"

	"github.com/cotiza/backend/internal/domain/quotation"
	"github.com/cotiza/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Period names accepted by PeriodSummary with their length in days
var periodDays = map[string]int{
	"week":    7,
	"month":   30,
	"quarter": 90,
	"year":    365,
}

// DefaultPeriod is used when no period is given
const DefaultPeriod = "month"

// PeriodSummary returns the actor's overall stats and the stats of every quotation
// created during the last period
func (s *Service) PeriodSummary(ctx context.Context, actorID uuid.UUID, period string) (*PeriodSummaryResponse, error) {
	if period == "" {
		period = DefaultPeriod
	}
	days, ok := periodDays[period]
	if !ok {
		return nil, shared.NewValidationError("period",
			fmt.Sprintf("period must be one of week, month, quarter, year; got %q", period))
	}

	general, err := s.repo.Stats(ctx, quotation.StatsScope{OwnerID: &actorID})
	if err != nil {
		return nil, err
	}

	since := s.now().AddDate(0, 0, -days)
	windowed, err := s.repo.Stats(ctx, quotation.StatsScope{CreatedSince: &since})
	if err != nil {
		return nil, err
	}

	return &PeriodSummaryResponse{
		Period:       period,
		Since:        since.Truncate(time.Second),
		GeneralStats: general,
		PeriodStats: PeriodStats{
			Count:    windowed.Count,
			Value:    windowed.Total,
			Average:  windowed.Average,
			ByStatus: windowed.ByStatus,
		},
	}, nil
}
