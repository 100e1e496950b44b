package inventory

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows inventory listings.
type Filter struct {
	Category string
	LowOnly  bool
	Search   string
}

// Repository is the persistence boundary for inventory items.
type Repository interface {
	Create(ctx context.Context, i *Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	GetByName(ctx context.Context, name string) (*Item, error)
	Update(ctx context.Context, i *Item) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Item, int, error)
	// AddStock increments quantity and returns the updated item.
	AddStock(ctx context.Context, id uuid.UUID, amount int) (*Item, error)
	// SubtractStock decrements quantity, failing with
	// apperr.ErrInsufficientStock when the item holds less than amount.
	SubtractStock(ctx context.Context, id uuid.UUID, amount int) (*Item, error)
}
