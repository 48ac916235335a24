package quotation

import "github.com/cotiza/backend/internal/domain/shared"

// Quotation error codes
const (
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeNotEditable       = "QUOTATION_NOT_EDITABLE"
	CodeNotDeletable      = "QUOTATION_NOT_DELETABLE"
	CodeEmptyItems        = "EMPTY_ITEMS_FORBIDDEN"
	CodeNumberConflict    = "NUMBER_CONFLICT"
)

var (
	// ErrNumberConflict is returned by the repository when the allocated number was taken concurrently
	ErrNumberConflict = shared.NewConflictError(CodeNumberConflict, "Quotation number already allocated")
	// ErrNotOwner is returned when the actor did not create the quotation
	ErrNotOwner = shared.NewForbiddenError(shared.CodeForbidden, "Only the quotation owner can modify it")
	// ErrEmptyItems is returned when an update would leave the quotation without items
	ErrEmptyItems = shared.NewForbiddenError(CodeEmptyItems, "A quotation must keep at least one item")
)
