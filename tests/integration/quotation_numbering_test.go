//go:build integration

package integration

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	quotationapp "github.com/cotiza/backend/internal/application/quotation"
	"github.com/cotiza/backend/internal/domain/identity"
	"github.com/cotiza/backend/internal/domain/quotation"
	"github.com/cotiza/backend/internal/infrastructure/config"
	"github.com/cotiza/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createTestUser(t *testing.T, tdb *TestDB, email string) quotationapp.Actor {
	t.Helper()

	user, err := identity.NewUser(email, "Laura Gómez", 34, "s3cret-pass", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormUserRepository(tdb.DB).Create(context.Background(), user))
	return quotationapp.Actor{ID: user.ID, Name: user.Name}
}

func quotationRequest(client string) quotationapp.CreateQuotationRequest {
	return quotationapp.CreateQuotationRequest{
		ClientName:  client,
		ClientEmail: "compras@example.co",
		ValidUntil:  time.Now().UTC().AddDate(0, 0, 30).Format("2006-01-02"),
		Items: []quotationapp.ItemRequest{{
			ProductName:        "Taladro percutor",
			Quantity:           decimal.NewFromInt(2),
			UnitPrice:          decimal.NewFromInt(289900),
			DiscountPercentage: decimal.NewFromInt(10),
		}},
	}
}

func TestQuotationNumbering_ConcurrentCreates(t *testing.T) {
	tdb := NewSharedTestDB(t)
	actor := createTestUser(t, tdb, "numeracion@example.co")
	svc := quotationapp.NewService(
		persistence.NewGormQuotationRepository(tdb.DB),
		config.QuotationConfig{MaxNumberRetries: 5},
		nil,
	)

	const workers = 15
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []string
		errs    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q, err := svc.Create(context.Background(), actor, quotationRequest("Ferretería El Tornillo"))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers = append(numbers, q.QuotationNumber)
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	require.Len(t, numbers, workers)

	year := time.Now().UTC().Year()
	sort.Strings(numbers)
	for i, number := range numbers {
		assert.Equal(t, quotation.FormatNumber(year, i+1), number, "numbers are gapless and unique")
	}
}

func TestQuotationNumbering_PreviewDoesNotAllocate(t *testing.T) {
	tdb := NewSharedTestDB(t)
	actor := createTestUser(t, tdb, "preview@example.co")
	svc := quotationapp.NewService(
		persistence.NewGormQuotationRepository(tdb.DB),
		config.QuotationConfig{MaxNumberRetries: 5},
		nil,
	)
	ctx := context.Background()
	year := time.Now().UTC().Year()

	preview, err := svc.NextNumberPreview(ctx)
	require.NoError(t, err)
	assert.Equal(t, quotation.FormatNumber(year, 1), preview.NextNumber)

	preview, err = svc.NextNumberPreview(ctx)
	require.NoError(t, err)
	assert.Equal(t, quotation.FormatNumber(year, 1), preview.NextNumber)

	created, err := svc.Create(ctx, actor, quotationRequest("Ferretería El Tornillo"))
	require.NoError(t, err)
	assert.Equal(t, preview.NextNumber, created.QuotationNumber)
	assert.Equal(t, "521820", created.Total.StringFixed(0))

	preview, err = svc.NextNumberPreview(ctx)
	require.NoError(t, err)
	assert.Equal(t, quotation.FormatNumber(year, 2), preview.NextNumber)
}

func TestQuotationRepository_UniqueNumberIndex(t *testing.T) {
	tdb := NewSharedTestDB(t)
	actor := createTestUser(t, tdb, "unico@example.co")
	svc := quotationapp.NewService(
		persistence.NewGormQuotationRepository(tdb.DB),
		config.QuotationConfig{MaxNumberRetries: 5},
		nil,
	)

	created, err := svc.Create(context.Background(), actor, quotationRequest("Ferretería El Tornillo"))
	require.NoError(t, err)

	// A second row with the same number is rejected by the database itself
	err = tdb.DB.Exec(`
		INSERT INTO quotations (id, quotation_number, client_name, client_email, valid_until, created_by)
		VALUES (gen_random_uuid(), ?, 'Otro', 'otro@example.co', CURRENT_DATE, ?)
	`, created.QuotationNumber, actor.ID).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}
