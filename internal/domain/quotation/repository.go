package quotation

import (
	"context"
	"time"

	"github.com/cotiza/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListFilter narrows a quotation listing. Zero values mean "not filtered".
type ListFilter struct {
	shared.Filter
	Number      string
	ClientName  string
	Status      Status
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	TotalMin    *decimal.Decimal
	TotalMax    *decimal.Decimal
}

// Applied returns the filters that were set, keyed by query parameter name
func (f ListFilter) Applied() map[string]any {
	applied := make(map[string]any)
	if f.Number != "" {
		applied["quotation_number"] = f.Number
	}
	if f.ClientName != "" {
		applied["client_name"] = f.ClientName
	}
	if f.Status != "" {
		applied["status"] = f.Status
	}
	if f.CreatedFrom != nil {
		applied["date_from"] = f.CreatedFrom.Format(time.RFC3339)
	}
	if f.CreatedTo != nil {
		applied["date_to"] = f.CreatedTo.Format(time.RFC3339)
	}
	if f.TotalMin != nil {
		applied["min_total"] = f.TotalMin.StringFixed(2)
	}
	if f.TotalMax != nil {
		applied["max_total"] = f.TotalMax.StringFixed(2)
	}
	return applied
}

// StatsScope restricts the quotations counted by Stats
type StatsScope struct {
	OwnerID      *uuid.UUID
	CreatedSince *time.Time
}

// StatusStats is the count and value of quotations in one status
type StatusStats struct {
	Count int64           `json:"count"`
	Value decimal.Decimal `json:"total_value"`
}

// Stats aggregates quotation counts and values
type Stats struct {
	ByStatus map[Status]StatusStats `json:"by_status"`
	Count    int64                  `json:"total_quotations"`
	Total    decimal.Decimal        `json:"total_value"`
	Average  decimal.Decimal        `json:"avg_value"`
}

// NewStats builds Stats from per-status rows, filling in missing statuses
func NewStats(byStatus map[Status]StatusStats) Stats {
	stats := Stats{
		ByStatus: make(map[Status]StatusStats, len(AllStatuses())),
		Total:    decimal.Zero,
		Average:  decimal.Zero,
	}
	for _, s := range AllStatuses() {
		row, ok := byStatus[s]
		if !ok {
			row = StatusStats{Value: decimal.Zero}
		}
		row.Value = row.Value.Round(2)
		stats.ByStatus[s] = row
		stats.Count += row.Count
		stats.Total = stats.Total.Add(row.Value)
	}
	stats.Total = stats.Total.Round(2)
	if stats.Count > 0 {
		stats.Average = stats.Total.Div(decimal.NewFromInt(stats.Count)).Round(2)
	}
	return stats
}

// Repository persists quotation aggregates
type Repository interface {
	// Create allocates the next number for the creation year and inserts the aggregate
	// with its items in one transaction. Returns ErrNumberConflict on a lost race.
	Create(ctx context.Context, q *Quotation) error
	FindByID(ctx context.Context, id uuid.UUID) (*Quotation, error)
	FindByNumber(ctx context.Context, number string) (*Quotation, error)
	// Save writes header changes, and the items when they were replaced.
	// Returns shared.ErrConcurrencyConflict when the stored version moved on.
	Save(ctx context.Context, q *Quotation) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter) (*shared.Paginated[Quotation], error)
	CountAll(ctx context.Context) (int64, error)
	NextNumber(ctx context.Context, year int) (string, error)
	Stats(ctx context.Context, scope StatsScope) (Stats, error)
}
