package quotation

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cotiza/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

func validInput() NewQuotationInput {
	return NewQuotationInput{
		Client: ClientSnapshot{
			Name:  "Ferretería Central",
			Email: "compras@central.example",
			Phone: "3001234567",
		},
		ValidUntil: fixedNow.AddDate(0, 0, 30),
		Items: []ItemInput{
			{
				ProductName:        "Taladro",
				Quantity:           decimal.NewFromInt(2),
				UnitPrice:          decimal.NewFromInt(100),
				DiscountPercentage: decimal.NewFromInt(10),
			},
		},
	}
}

func newTestQuotation(t *testing.T, owner uuid.UUID) *Quotation {
	t.Helper()
	q, err := NewQuotation(owner, validInput(), fixedNow, ZeroTax{})
	require.NoError(t, err)
	return q
}

func TestNewQuotation(t *testing.T) {
	owner := uuid.New()

	t.Run("computes totals for 2 x 100 at 10 percent", func(t *testing.T) {
		q := newTestQuotation(t, owner)

		assert.Equal(t, StatusDraft, q.Status)
		assert.Equal(t, owner, q.CreatedBy)
		assert.Empty(t, q.Number)
		require.Len(t, q.Items, 1)

		item := q.Items[0]
		assert.Equal(t, 1, item.Position)
		assert.Equal(t, q.ID, item.QuotationID)
		assert.True(t, item.Subtotal.Equal(decimal.NewFromInt(200)))
		assert.True(t, item.DiscountAmount.Equal(decimal.NewFromInt(20)))
		assert.True(t, item.Total.Equal(decimal.NewFromInt(180)))

		assert.True(t, q.Subtotal.Equal(decimal.NewFromInt(200)))
		assert.True(t, q.DiscountTotal.Equal(decimal.NewFromInt(20)))
		assert.True(t, q.TaxTotal.IsZero())
		assert.True(t, q.Total.Equal(decimal.NewFromInt(180)))
		assert.True(t, q.ItemsReplaced())
	})

	t.Run("normalizes client email", func(t *testing.T) {
		in := validInput()
		in.Client.Email = "  Compras@Central.EXAMPLE "
		q, err := NewQuotation(owner, in, fixedNow, ZeroTax{})
		require.NoError(t, err)
		assert.Equal(t, "compras@central.example", q.Client.Email)
	})

	t.Run("rejects missing items", func(t *testing.T) {
		in := validInput()
		in.Items = nil
		_, err := NewQuotation(owner, in, fixedNow, ZeroTax{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.NewDomainError(shared.CodeValidation, "")))
	})

	t.Run("rejects validity of today", func(t *testing.T) {
		in := validInput()
		in.ValidUntil = fixedNow.Add(2 * time.Hour)
		_, err := NewQuotation(owner, in, fixedNow, ZeroTax{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "valid until")
	})

	t.Run("reports the failing item with a one based index", func(t *testing.T) {
		in := validInput()
		in.Items = append(in.Items, ItemInput{
			ProductName: "Broca",
			Quantity:    decimal.Zero,
			UnitPrice:   decimal.NewFromInt(5),
		})
		_, err := NewQuotation(owner, in, fixedNow, ZeroTax{})
		require.Error(t, err)
		assert.Equal(t, "item 2: quantity must be greater than 0", err.Error())
	})

	t.Run("rejects discount above 100", func(t *testing.T) {
		in := validInput()
		in.Items[0].DiscountPercentage = decimal.NewFromInt(101)
		_, err := NewQuotation(owner, in, fixedNow, ZeroTax{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "discount percentage")
	})

	t.Run("rejects amounts finer than their stored scale", func(t *testing.T) {
		tests := []struct {
			name  string
			patch func(*ItemInput)
			field string
		}{
			{"unit price", func(in *ItemInput) { in.UnitPrice = decimal.RequireFromString("10.005") }, "items[1].unit_price"},
			{"quantity", func(in *ItemInput) { in.Quantity = decimal.RequireFromString("1.00005") }, "items[1].quantity"},
			{"discount", func(in *ItemInput) { in.DiscountPercentage = decimal.RequireFromString("12.345") }, "items[1].discount_percentage"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				in := validInput()
				tt.patch(&in.Items[0])
				_, err := NewQuotation(owner, in, fixedNow, ZeroTax{})
				var de *shared.DomainError
				require.ErrorAs(t, err, &de)
				assert.Equal(t, shared.CodeValidation, de.Code)
				assert.Contains(t, de.Details, tt.field)
			})
		}
	})

	t.Run("accepts trailing zeros beyond the scale", func(t *testing.T) {
		in := validInput()
		in.Items[0].UnitPrice = decimal.RequireFromString("10.500")
		in.Items[0].Quantity = decimal.RequireFromString("2.50000")
		q, err := NewQuotation(owner, in, fixedNow, ZeroTax{})
		require.NoError(t, err)
		assert.True(t, q.Items[0].UnitPrice.Equal(decimal.RequireFromString("10.5")))
		assert.True(t, q.Items[0].Quantity.Equal(decimal.RequireFromString("2.5")))
	})

	t.Run("rejects short client name", func(t *testing.T) {
		in := validInput()
		in.Client.Name = "A"
		_, err := NewQuotation(owner, in, fixedNow, ZeroTax{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "client name")
	})

	t.Run("rejects invalid client email", func(t *testing.T) {
		in := validInput()
		in.Client.Email = "not-an-email"
		_, err := NewQuotation(owner, in, fixedNow, ZeroTax{})
		require.Error(t, err)
	})
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		allowed  bool
	}{
		{StatusDraft, StatusSent, true},
		{StatusDraft, StatusApproved, false},
		{StatusDraft, StatusRejected, false},
		{StatusSent, StatusApproved, true},
		{StatusSent, StatusRejected, true},
		{StatusSent, StatusDraft, true},
		{StatusRejected, StatusDraft, true},
		{StatusRejected, StatusSent, false},
		{StatusApproved, StatusDraft, false},
		{StatusApproved, StatusSent, false},
		{StatusApproved, StatusRejected, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestChangeStatus(t *testing.T) {
	t.Run("appends audit line and keeps prior notes", func(t *testing.T) {
		q := newTestQuotation(t, uuid.New())
		q.InternalNotes = "llamar el lunes"

		require.NoError(t, q.ChangeStatus(StatusSent, "Ana", "enviada por correo", fixedNow))

		assert.Equal(t, StatusSent, q.Status)
		assert.Equal(t,
			"llamar el lunes\n2025-03-14T10:30:00Z: Estado cambiado a sent por Ana. enviada por correo",
			q.InternalNotes)
	})

	t.Run("trims audit line without note", func(t *testing.T) {
		q := newTestQuotation(t, uuid.New())
		require.NoError(t, q.ChangeStatus(StatusSent, "Ana", "", fixedNow))
		assert.Equal(t, "2025-03-14T10:30:00Z: Estado cambiado a sent por Ana.", q.InternalNotes)
	})

	t.Run("rejects invalid transition with conflict code", func(t *testing.T) {
		q := newTestQuotation(t, uuid.New())
		err := q.ChangeStatus(StatusApproved, "Ana", "", fixedNow)
		require.Error(t, err)

		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, CodeInvalidTransition, de.Code)
		assert.Equal(t, StatusDraft, q.Status)
		assert.Empty(t, q.InternalNotes)
	})

	t.Run("approved is terminal", func(t *testing.T) {
		q := newTestQuotation(t, uuid.New())
		require.NoError(t, q.ChangeStatus(StatusSent, "Ana", "", fixedNow))
		require.NoError(t, q.ChangeStatus(StatusApproved, "Ana", "", fixedNow))

		for _, target := range AllStatuses() {
			assert.Error(t, q.ChangeStatus(target, "Ana", "", fixedNow))
		}
	})
}

func TestApplyDetails(t *testing.T) {
	t.Run("patches only provided fields", func(t *testing.T) {
		q := newTestQuotation(t, uuid.New())
		phone := "3109998888"
		notes := "  entrega en bodega "

		require.NoError(t, q.ApplyDetails(DetailsPatch{ClientPhone: &phone, Notes: &notes}, fixedNow))

		assert.Equal(t, "3109998888", q.Client.Phone)
		assert.Equal(t, "Ferretería Central", q.Client.Name)
		assert.Equal(t, "entrega en bodega", q.Notes)
		assert.True(t, q.Total.Equal(decimal.NewFromInt(180)))
	})

	t.Run("rejects edits on approved quotation", func(t *testing.T) {
		q := newTestQuotation(t, uuid.New())
		q.Status = StatusApproved
		name := "Otro Cliente"

		err := q.ApplyDetails(DetailsPatch{ClientName: &name}, fixedNow)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, CodeNotEditable, de.Code)
	})

	t.Run("rejects past validity", func(t *testing.T) {
		q := newTestQuotation(t, uuid.New())
		past := fixedNow.AddDate(0, 0, -1)
		assert.Error(t, q.ApplyDetails(DetailsPatch{ValidUntil: &past}, fixedNow))
	})

	t.Run("long audit trail does not block later edits", func(t *testing.T) {
		in := validInput()
		in.InternalNotes = strings.Repeat("n", maxNotesLength-10)
		q, err := NewQuotation(uuid.New(), in, fixedNow, ZeroTax{})
		require.NoError(t, err)
		require.NoError(t, q.ChangeStatus(StatusSent, "Laura", "", fixedNow))
		require.Greater(t, len([]rune(q.InternalNotes)), maxNotesLength)

		name := "Ferretería Central SAS"
		require.NoError(t, q.ApplyDetails(DetailsPatch{ClientName: &name}, fixedNow))
		assert.Equal(t, name, q.Client.Name)
		assert.Contains(t, q.InternalNotes, "Estado cambiado a sent")
	})

	t.Run("checks the length of supplied notes", func(t *testing.T) {
		q := newTestQuotation(t, uuid.New())
		long := strings.Repeat("x", maxNotesLength+1)

		err := q.ApplyDetails(DetailsPatch{InternalNotes: &long}, fixedNow)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Contains(t, de.Details, "internal_notes")
		assert.Empty(t, q.InternalNotes)
	})

	t.Run("empty patch changes nothing", func(t *testing.T) {
		q := newTestQuotation(t, uuid.New())
		before := q.UpdatedAt
		require.NoError(t, q.ApplyDetails(DetailsPatch{}, fixedNow.Add(time.Hour)))
		assert.Equal(t, before, q.UpdatedAt)

		q.Status = StatusRejected
		assert.Error(t, q.ApplyDetails(DetailsPatch{}, fixedNow))
	})
}

func TestReplaceItems(t *testing.T) {
	t.Run("replaces wholesale and recomputes totals", func(t *testing.T) {
		q := newTestQuotation(t, uuid.New())
		q.MarkPersisted()

		err := q.ReplaceItems([]ItemInput{
			{ProductName: "Martillo", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("10.50")},
			{ProductName: "Clavos", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(4), DiscountPercentage: decimal.NewFromInt(50)},
		}, fixedNow, ZeroTax{})
		require.NoError(t, err)

		require.Len(t, q.Items, 2)
		assert.Equal(t, 2, q.Items[1].Position)
		assert.True(t, q.ItemsReplaced())
		assert.Equal(t, "35.50", q.Subtotal.StringFixed(2))
		assert.Equal(t, "2.00", q.DiscountTotal.StringFixed(2))
		assert.Equal(t, "33.50", q.Total.StringFixed(2))
	})

	t.Run("empty slice is forbidden", func(t *testing.T) {
		q := newTestQuotation(t, uuid.New())
		err := q.ReplaceItems([]ItemInput{}, fixedNow, ZeroTax{})
		assert.ErrorIs(t, err, ErrEmptyItems)
		assert.Len(t, q.Items, 1)
	})
}

func TestCanDelete(t *testing.T) {
	for _, s := range AllStatuses() {
		t.Run(string(s), func(t *testing.T) {
			q := newTestQuotation(t, uuid.New())
			q.Status = s
			err := q.CanDelete()
			if s == StatusDraft {
				assert.NoError(t, err)
				return
			}
			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, CodeNotDeletable, de.Code)
		})
	}
}

func TestCheckOwner(t *testing.T) {
	owner := uuid.New()
	q := newTestQuotation(t, owner)

	assert.NoError(t, q.CheckOwner(owner))
	assert.ErrorIs(t, q.CheckOwner(uuid.New()), ErrNotOwner)
}

func TestDuplicate(t *testing.T) {
	source := newTestQuotation(t, uuid.New())
	require.NoError(t, source.AssignNumber("COT-2025-004"))
	source.Notes = "precios sujetos a cambio"
	require.NoError(t, source.ChangeStatus(StatusSent, "Ana", "", fixedNow))

	actor := uuid.New()
	dup, err := source.Duplicate(actor, fixedNow.Add(time.Hour), ZeroTax{})
	require.NoError(t, err)

	assert.NotEqual(t, source.ID, dup.ID)
	assert.Empty(t, dup.Number)
	assert.Equal(t, StatusDraft, dup.Status)
	assert.Equal(t, actor, dup.CreatedBy)
	assert.Equal(t, source.Client, dup.Client)
	assert.Equal(t, source.ValidUntil, dup.ValidUntil)
	assert.Equal(t, "Duplicado de COT-2025-004\nprecios sujetos a cambio", dup.Notes)
	assert.Empty(t, dup.InternalNotes)
	assert.True(t, dup.Total.Equal(source.Total))

	require.Len(t, dup.Items, len(source.Items))
	assert.NotEqual(t, source.Items[0].ID, dup.Items[0].ID)
	assert.Equal(t, dup.ID, dup.Items[0].QuotationID)
}

func TestDuplicateKeepsLapsedValidity(t *testing.T) {
	source := newTestQuotation(t, uuid.New())
	require.NoError(t, source.AssignNumber("COT-2025-001"))

	later := source.ValidUntil.AddDate(0, 1, 0)
	dup, err := source.Duplicate(uuid.New(), later, ZeroTax{})
	require.NoError(t, err)
	assert.Equal(t, source.ValidUntil, dup.ValidUntil)
}

func TestAssignNumber(t *testing.T) {
	q := newTestQuotation(t, uuid.New())
	require.NoError(t, q.AssignNumber("COT-2025-001"))
	require.NoError(t, q.AssignNumber("COT-2025-001"))
	assert.Error(t, q.AssignNumber("COT-2025-002"))
}
