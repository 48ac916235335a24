package quotation

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/cotiza/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of a quotation
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// AllStatuses lists every status in lifecycle order
func AllStatuses() []Status {
	return []Status{StatusDraft, StatusSent, StatusApproved, StatusRejected}
}

// IsValid checks if the status is a known value
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can move to the target status.
// Approved is terminal.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusDraft:
		return target == StatusSent
	case StatusSent:
		return target == StatusApproved || target == StatusRejected || target == StatusDraft
	case StatusRejected:
		return target == StatusDraft
	}
	return false
}

// IsEditable reports whether client data, validity, notes and items may change
func (s Status) IsEditable() bool {
	return s == StatusDraft || s == StatusSent
}

// Field limits
const (
	maxClientNameLength  = 200
	minClientNameLength  = 2
	maxClientEmailLength = 150
	maxClientPhoneLength = 20
	maxClientDocLength   = 50
	maxNotesLength       = 1000
	moneyPlaces          = 2
	quantityPlaces       = 4
	maxProductNameLength = 200
	maxProductCodeLength = 50
)

// ClientSnapshot is a copy of the client data taken when the quotation is written
type ClientSnapshot struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	Document string
}

func (c ClientSnapshot) normalized() ClientSnapshot {
	return ClientSnapshot{
		Name:     strings.TrimSpace(c.Name),
		Email:    strings.ToLower(strings.TrimSpace(c.Email)),
		Phone:    strings.TrimSpace(c.Phone),
		Address:  strings.TrimSpace(c.Address),
		Document: strings.TrimSpace(c.Document),
	}
}

func (c ClientSnapshot) validate() error {
	nameLen := len([]rune(c.Name))
	if nameLen < minClientNameLength || nameLen > maxClientNameLength {
		return shared.NewValidationError("client_name",
			fmt.Sprintf("client name must be between %d and %d characters", minClientNameLength, maxClientNameLength))
	}
	if c.Email == "" || len(c.Email) > maxClientEmailLength {
		return shared.NewValidationError("client_email", "client email is required and cannot exceed 150 characters")
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return shared.NewValidationError("client_email", "client email is not a valid address")
	}
	if len(c.Phone) > maxClientPhoneLength {
		return shared.NewValidationError("client_phone", "client phone cannot exceed 20 characters")
	}
	if len(c.Document) > maxClientDocLength {
		return shared.NewValidationError("client_document", "client document cannot exceed 50 characters")
	}
	return nil
}

// ItemInput carries the caller supplied values of a line
type ItemInput struct {
	ProductID          *uuid.UUID
	ProductName        string
	ProductDescription string
	ProductCode        string
	Quantity           decimal.Decimal
	UnitPrice          decimal.Decimal
	DiscountPercentage decimal.Decimal
}

// Item is a quotation line. Product data is copied, not referenced.
type Item struct {
	ID                 uuid.UUID
	QuotationID        uuid.UUID
	ProductID          *uuid.UUID
	ProductName        string
	ProductDescription string
	ProductCode        string
	Quantity           decimal.Decimal
	UnitPrice          decimal.Decimal
	DiscountPercentage decimal.Decimal
	Subtotal           decimal.Decimal
	DiscountAmount     decimal.Decimal
	Total              decimal.Decimal
	Position           int
}

// newItem validates input and derives the line amounts. position is 1-based.
func newItem(quotationID uuid.UUID, position int, in ItemInput) (Item, error) {
	field := fmt.Sprintf("items[%d]", position)

	name := strings.TrimSpace(in.ProductName)
	if name == "" || len([]rune(name)) > maxProductNameLength {
		return Item{}, shared.NewValidationError(field+".product_name",
			fmt.Sprintf("item %d: product name must be between 1 and %d characters", position, maxProductNameLength))
	}
	if len(in.ProductCode) > maxProductCodeLength {
		return Item{}, shared.NewValidationError(field+".product_code",
			fmt.Sprintf("item %d: product code cannot exceed %d characters", position, maxProductCodeLength))
	}
	if !in.Quantity.IsPositive() {
		return Item{}, shared.NewValidationError(field+".quantity",
			fmt.Sprintf("item %d: quantity must be greater than 0", position))
	}
	if !in.UnitPrice.IsPositive() {
		return Item{}, shared.NewValidationError(field+".unit_price",
			fmt.Sprintf("item %d: unit price must be greater than 0", position))
	}
	if in.DiscountPercentage.IsNegative() || in.DiscountPercentage.GreaterThan(hundred) {
		return Item{}, shared.NewValidationError(field+".discount_percentage",
			fmt.Sprintf("item %d: discount percentage must be between 0 and 100", position))
	}
	// amounts must fit the scale of their stored columns
	for _, c := range []struct {
		name   string
		label  string
		value  decimal.Decimal
		places int32
	}{
		{"quantity", "quantity", in.Quantity, quantityPlaces},
		{"unit_price", "unit price", in.UnitPrice, moneyPlaces},
		{"discount_percentage", "discount percentage", in.DiscountPercentage, moneyPlaces},
	} {
		if !c.value.Equal(c.value.Round(c.places)) {
			return Item{}, shared.NewValidationError(field+"."+c.name,
				fmt.Sprintf("item %d: %s cannot have more than %d decimal places", position, c.label, c.places))
		}
	}

	amounts := ItemTotals(in.Quantity, in.UnitPrice, in.DiscountPercentage)

	return Item{
		ID:                 uuid.New(),
		QuotationID:        quotationID,
		ProductID:          in.ProductID,
		ProductName:        name,
		ProductDescription: strings.TrimSpace(in.ProductDescription),
		ProductCode:        strings.TrimSpace(in.ProductCode),
		Quantity:           in.Quantity,
		UnitPrice:          in.UnitPrice,
		DiscountPercentage: in.DiscountPercentage,
		Subtotal:           amounts.Subtotal,
		DiscountAmount:     amounts.DiscountAmount,
		Total:              amounts.Total,
		Position:           position,
	}, nil
}

// Input returns the caller supplied values of the line, used when copying
func (i Item) Input() ItemInput {
	return ItemInput{
		ProductID:          i.ProductID,
		ProductName:        i.ProductName,
		ProductDescription: i.ProductDescription,
		ProductCode:        i.ProductCode,
		Quantity:           i.Quantity,
		UnitPrice:          i.UnitPrice,
		DiscountPercentage: i.DiscountPercentage,
	}
}

// Quotation is the aggregate root for a price quotation
type Quotation struct {
	shared.OwnedAggregateRoot
	Number        string
	Client        ClientSnapshot
	Status        Status
	ValidUntil    time.Time
	Subtotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	TaxTotal      decimal.Decimal
	Total         decimal.Decimal
	Notes         string
	InternalNotes string
	Items         []Item

	itemsReplaced bool
}

// NewQuotationInput groups the values required to open a quotation
type NewQuotationInput struct {
	Client        ClientSnapshot
	ValidUntil    time.Time
	Notes         string
	InternalNotes string
	Items         []ItemInput
}

// NewQuotation creates a draft quotation owned by ownerID.
// The number is assigned later, inside the persistence transaction.
func NewQuotation(ownerID uuid.UUID, in NewQuotationInput, now time.Time, tax TaxCalculator) (*Quotation, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewValidationError("created_by", "owner is required")
	}

	client := in.Client.normalized()
	if err := client.validate(); err != nil {
		return nil, err
	}
	if !isAfterDay(in.ValidUntil, now) {
		return nil, shared.NewValidationError("valid_until", "valid until date must be in the future")
	}
	if err := validateNotes(in.Notes, in.InternalNotes); err != nil {
		return nil, err
	}
	if len(in.Items) == 0 {
		return nil, shared.NewValidationError("items", "a quotation requires at least one item")
	}

	q := &Quotation{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID, now),
		Client:             client,
		Status:             StatusDraft,
		ValidUntil:         truncateDay(in.ValidUntil),
		Notes:              strings.TrimSpace(in.Notes),
		InternalNotes:      strings.TrimSpace(in.InternalNotes),
	}

	if err := q.setItems(in.Items, tax); err != nil {
		return nil, err
	}
	return q, nil
}

// AssignNumber sets the allocated number. It can only be done once.
func (q *Quotation) AssignNumber(number string) error {
	if q.Number != "" && q.Number != number {
		return shared.NewDomainError("NUMBER_IMMUTABLE", "Quotation number cannot be changed")
	}
	q.Number = number
	return nil
}

// CheckOwner fails with ErrNotOwner when userID did not create the quotation
func (q *Quotation) CheckOwner(userID uuid.UUID) error {
	if !q.IsOwnedBy(userID) {
		return ErrNotOwner
	}
	return nil
}

func (q *Quotation) ensureEditable() error {
	if !q.Status.IsEditable() {
		return shared.NewConflictError(CodeNotEditable,
			fmt.Sprintf("Quotation in status %s cannot be modified", q.Status))
	}
	return nil
}

// DetailsPatch lists the scalar fields an update may change. Nil means untouched.
type DetailsPatch struct {
	ClientName     *string
	ClientEmail    *string
	ClientPhone    *string
	ClientAddress  *string
	ClientDocument *string
	ValidUntil     *time.Time
	Notes          *string
	InternalNotes  *string
}

// IsEmpty reports whether the patch changes nothing
func (p DetailsPatch) IsEmpty() bool {
	return p.ClientName == nil && p.ClientEmail == nil && p.ClientPhone == nil &&
		p.ClientAddress == nil && p.ClientDocument == nil && p.ValidUntil == nil &&
		p.Notes == nil && p.InternalNotes == nil
}

// ApplyDetails patches client data, validity and notes. Totals are untouched.
// Only the notes the caller sends are length checked: status changes append
// audit lines to the stored internal notes without a limit.
func (q *Quotation) ApplyDetails(p DetailsPatch, now time.Time) error {
	if err := q.ensureEditable(); err != nil {
		return err
	}
	if p.IsEmpty() {
		return nil
	}

	client := q.Client
	if p.ClientName != nil {
		client.Name = *p.ClientName
	}
	if p.ClientEmail != nil {
		client.Email = *p.ClientEmail
	}
	if p.ClientPhone != nil {
		client.Phone = *p.ClientPhone
	}
	if p.ClientAddress != nil {
		client.Address = *p.ClientAddress
	}
	if p.ClientDocument != nil {
		client.Document = *p.ClientDocument
	}
	client = client.normalized()
	if err := client.validate(); err != nil {
		return err
	}

	validUntil := q.ValidUntil
	if p.ValidUntil != nil {
		if !isAfterDay(*p.ValidUntil, now) {
			return shared.NewValidationError("valid_until", "valid until date must be in the future")
		}
		validUntil = truncateDay(*p.ValidUntil)
	}

	trimmed := func(v *string) string {
		if v == nil {
			return ""
		}
		return strings.TrimSpace(*v)
	}
	if err := validateNotes(trimmed(p.Notes), trimmed(p.InternalNotes)); err != nil {
		return err
	}
	notes, internal := q.Notes, q.InternalNotes
	if p.Notes != nil {
		notes = trimmed(p.Notes)
	}
	if p.InternalNotes != nil {
		internal = trimmed(p.InternalNotes)
	}

	q.Client = client
	q.ValidUntil = validUntil
	q.Notes = notes
	q.InternalNotes = internal
	q.Touch(now)
	return nil
}

// ReplaceItems discards every line and writes the new set, recomputing totals
func (q *Quotation) ReplaceItems(inputs []ItemInput, now time.Time, tax TaxCalculator) error {
	if err := q.ensureEditable(); err != nil {
		return err
	}
	if len(inputs) == 0 {
		return ErrEmptyItems
	}
	if err := q.setItems(inputs, tax); err != nil {
		return err
	}
	q.Touch(now)
	return nil
}

func (q *Quotation) setItems(inputs []ItemInput, tax TaxCalculator) error {
	items := make([]Item, 0, len(inputs))
	for i, in := range inputs {
		item, err := newItem(q.ID, i+1, in)
		if err != nil {
			return err
		}
		items = append(items, item)
	}
	q.Items = items
	q.itemsReplaced = true
	q.recalculateTotals(tax)
	return nil
}

// ItemsReplaced reports whether the item set changed since the aggregate was loaded
func (q *Quotation) ItemsReplaced() bool {
	return q.itemsReplaced
}

// MarkPersisted clears change tracking after a successful save
func (q *Quotation) MarkPersisted() {
	q.itemsReplaced = false
}

func (q *Quotation) recalculateTotals(tax TaxCalculator) {
	amounts := DocumentTotals(q.Items, tax)
	q.Subtotal = amounts.Subtotal
	q.DiscountTotal = amounts.DiscountTotal
	q.TaxTotal = amounts.TaxTotal
	q.Total = amounts.Total
}

// ChangeStatus moves the quotation along the state machine and appends an audit line
func (q *Quotation) ChangeStatus(target Status, actorName, note string, now time.Time) error {
	if !target.IsValid() {
		return shared.NewValidationError("status", fmt.Sprintf("unknown status %q", target))
	}
	if !q.Status.CanTransitionTo(target) {
		return shared.NewConflictError(CodeInvalidTransition,
			fmt.Sprintf("Cannot change status from '%s' to '%s'", q.Status, target))
	}

	line := strings.TrimSpace(fmt.Sprintf("%s: Estado cambiado a %s por %s. %s",
		now.Format(time.RFC3339), target, actorName, strings.TrimSpace(note)))
	q.InternalNotes = strings.TrimSpace(q.InternalNotes + "\n" + line)
	q.Status = target
	q.Touch(now)
	return nil
}

// CanDelete fails unless the quotation is still a draft
func (q *Quotation) CanDelete() error {
	if q.Status != StatusDraft {
		return shared.NewConflictError(CodeNotDeletable,
			fmt.Sprintf("Only draft quotations can be deleted, current status is %s", q.Status))
	}
	return nil
}

// Duplicate copies client data, validity and items into a new draft owned by ownerID.
// The copy keeps the source validity even if it already lapsed.
func (q *Quotation) Duplicate(ownerID uuid.UUID, now time.Time, tax TaxCalculator) (*Quotation, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewValidationError("created_by", "owner is required")
	}
	if len(q.Items) == 0 {
		return nil, shared.NewValidationError("items", "a quotation requires at least one item")
	}

	inputs := make([]ItemInput, len(q.Items))
	for i, item := range q.Items {
		inputs[i] = item.Input()
	}

	dup := &Quotation{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID, now),
		Client:             q.Client,
		Status:             StatusDraft,
		ValidUntil:         q.ValidUntil,
		Notes:              strings.TrimSpace(fmt.Sprintf("Duplicado de %s\n%s", q.Number, q.Notes)),
	}

	if err := dup.setItems(inputs, tax); err != nil {
		return nil, err
	}
	return dup, nil
}

func validateNotes(notes, internal string) error {
	if len([]rune(notes)) > maxNotesLength {
		return shared.NewValidationError("notes", "notes cannot exceed 1000 characters")
	}
	if len([]rune(internal)) > maxNotesLength {
		return shared.NewValidationError("internal_notes", "internal notes cannot exceed 1000 characters")
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// isAfterDay compares calendar dates, ignoring time of day
func isAfterDay(candidate, now time.Time) bool {
	return truncateDay(candidate).After(truncateDay(now))
}
