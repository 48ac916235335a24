package shared

import (
	"time"

	"github.com/google/uuid"
)

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
}

// BaseAggregateRoot provides common fields for aggregate roots
type BaseAggregateRoot struct {
	BaseEntity
	Version int
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// NewBaseAggregateRoot creates an aggregate at version 1
func NewBaseAggregateRoot(now time.Time) BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(now),
		Version:    1,
	}
}

// OwnedAggregateRoot is an aggregate that belongs to the user who created it
type OwnedAggregateRoot struct {
	BaseAggregateRoot
	CreatedBy uuid.UUID
}

// NewOwnedAggregateRoot creates an aggregate root owned by createdBy
func NewOwnedAggregateRoot(createdBy uuid.UUID, now time.Time) OwnedAggregateRoot {
	return OwnedAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(now),
		CreatedBy:         createdBy,
	}
}

// IsOwnedBy reports whether userID created the aggregate
func (a *OwnedAggregateRoot) IsOwnedBy(userID uuid.UUID) bool {
	return a.CreatedBy == userID
}
