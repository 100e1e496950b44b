package inventory

import (
	"time"

	"github.com/google/uuid"
)

const defaultReorderLevel = 10

var validCategories = map[string]bool{
	"medicine": true, "equipment": true, "supplies": true, "lab": true,
}

// Item maps to the inventory_items table.
type Item struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Category     string     `db:"category" json:"category"`
	Description  *string    `db:"description" json:"description,omitempty"`
	Quantity     int        `db:"quantity" json:"quantity"`
	Unit         string     `db:"unit" json:"unit"`
	UnitPrice    float64    `db:"unit_price" json:"unit_price"`
	Cost         float64    `db:"cost" json:"cost"`
	ReorderLevel int        `db:"reorder_level" json:"reorder_level"`
	Supplier     *string    `db:"supplier" json:"supplier,omitempty"`
	BatchNumber  *string    `db:"batch_number" json:"batch_number,omitempty"`
	ExpiryDate   *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	Location     *string    `db:"location" json:"location,omitempty"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// LowStock reports whether the item is at or below its reorder level.
func (i *Item) LowStock() bool {
	return i.Quantity <= i.ReorderLevel
}
