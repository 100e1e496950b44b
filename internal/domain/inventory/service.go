package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/notify"
)

const (
	OpAdd      = "add"
	OpSubtract = "subtract"
)

type Service struct {
	items      Repository
	notifier   *notify.Notifier
	alertEmail string
}

// NewService wires the stock ledger. alertEmail receives low stock
// notifications when SMTP is configured; empty disables them.
func NewService(items Repository, notifier *notify.Notifier, alertEmail string) *Service {
	return &Service{items: items, notifier: notifier, alertEmail: alertEmail}
}

// CreateInput is the add-item payload.
type CreateInput struct {
	Name         string   `json:"name" validate:"required"`
	Category     string   `json:"category" validate:"required"`
	Description  *string  `json:"description,omitempty"`
	Quantity     int      `json:"quantity" validate:"gte=0"`
	Unit         string   `json:"unit" validate:"required"`
	UnitPrice    float64  `json:"unit_price" validate:"gte=0"`
	Cost         float64  `json:"cost" validate:"gte=0"`
	ReorderLevel *int     `json:"reorder_level,omitempty"`
	Supplier     *string  `json:"supplier,omitempty"`
	BatchNumber  *string  `json:"batch_number,omitempty"`
	Location     *string  `json:"location,omitempty"`
}

func (s *Service) Create(ctx context.Context, in *CreateInput) (*Item, error) {
	if !validCategories[in.Category] {
		return nil, apperr.Validationf("invalid category: %s", in.Category)
	}
	if in.Quantity < 0 {
		return nil, apperr.Validationf("quantity cannot be negative")
	}

	reorder := defaultReorderLevel
	if in.ReorderLevel != nil {
		if *in.ReorderLevel < 0 {
			return nil, apperr.Validationf("reorder level cannot be negative")
		}
		reorder = *in.ReorderLevel
	}

	i := &Item{
		Name:         in.Name,
		Category:     in.Category,
		Description:  in.Description,
		Quantity:     in.Quantity,
		Unit:         in.Unit,
		UnitPrice:    in.UnitPrice,
		Cost:         in.Cost,
		ReorderLevel: reorder,
		Supplier:     in.Supplier,
		BatchNumber:  in.BatchNumber,
		Location:     in.Location,
		IsActive:     true,
	}
	if err := s.items.Create(ctx, i); err != nil {
		return nil, err
	}
	return i, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	return s.items.GetByID(ctx, id)
}

// UpdateInput is the edit payload; quantity is deliberately absent,
// stock moves only through AdjustStock.
type UpdateInput struct {
	Name         string   `json:"name" validate:"required"`
	Category     string   `json:"category" validate:"required"`
	Description  *string  `json:"description,omitempty"`
	Unit         string   `json:"unit" validate:"required"`
	UnitPrice    float64  `json:"unit_price" validate:"gte=0"`
	Cost         float64  `json:"cost" validate:"gte=0"`
	ReorderLevel *int     `json:"reorder_level,omitempty"`
	Supplier     *string  `json:"supplier,omitempty"`
	BatchNumber  *string  `json:"batch_number,omitempty"`
	Location     *string  `json:"location,omitempty"`
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in *UpdateInput) (*Item, error) {
	if !validCategories[in.Category] {
		return nil, apperr.Validationf("invalid category: %s", in.Category)
	}
	i, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	i.Name = in.Name
	i.Category = in.Category
	i.Description = in.Description
	i.Unit = in.Unit
	i.UnitPrice = in.UnitPrice
	i.Cost = in.Cost
	if in.ReorderLevel != nil {
		if *in.ReorderLevel < 0 {
			return nil, apperr.Validationf("reorder level cannot be negative")
		}
		i.ReorderLevel = *in.ReorderLevel
	}
	i.Supplier = in.Supplier
	i.BatchNumber = in.BatchNumber
	i.Location = in.Location
	if err := s.items.Update(ctx, i); err != nil {
		return nil, err
	}
	return i, nil
}

// AdjustStock moves stock by amount in the given direction. Subtracts
// that would leave the item negative fail and change nothing.
func (s *Service) AdjustStock(ctx context.Context, id uuid.UUID, op string, amount int) (*Item, error) {
	if amount <= 0 {
		return nil, apperr.Validationf("adjustment amount must be positive")
	}

	var item *Item
	var err error
	switch op {
	case OpAdd:
		item, err = s.items.AddStock(ctx, id, amount)
	case OpSubtract:
		item, err = s.items.SubtractStock(ctx, id, amount)
	default:
		return nil, apperr.Validationf("operation must be add or subtract")
	}
	if err != nil {
		return nil, err
	}

	if op == OpSubtract && item.LowStock() && s.alertEmail != "" {
		s.notifier.LowStock(s.alertEmail, item.Name, item.Quantity, item.ReorderLevel)
	}
	return item, nil
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Item, int, error) {
	return s.items.List(ctx, f, limit, offset)
}

// LowStockAlerts returns every active item at or below its reorder
// level.
func (s *Service) LowStockAlerts(ctx context.Context, limit, offset int) ([]*Item, int, error) {
	return s.items.List(ctx, Filter{LowOnly: true}, limit, offset)
}

// Delete soft deletes an item so past bills and dispenses keep their
// reference.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.items.SetActive(ctx, id, false)
}
