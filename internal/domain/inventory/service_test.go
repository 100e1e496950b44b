package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/notify"
)

type mockRepo struct {
	items map[uuid.UUID]*Item
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Item)}
}

func (m *mockRepo) Create(_ context.Context, i *Item) error {
	i.ID = uuid.New()
	i.CreatedAt = time.Now()
	i.UpdatedAt = i.CreatedAt
	cp := *i
	m.items[i.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Item, error) {
	i, ok := m.items[id]
	if !ok || !i.IsActive {
		return nil, apperr.NotFoundf("inventory item %s not found", id)
	}
	cp := *i
	return &cp, nil
}

func (m *mockRepo) GetByName(_ context.Context, name string) (*Item, error) {
	for _, i := range m.items {
		if i.IsActive && i.Name == name {
			cp := *i
			return &cp, nil
		}
	}
	return nil, apperr.NotFoundf("inventory item %q not found", name)
}

func (m *mockRepo) Update(_ context.Context, i *Item) error {
	if _, ok := m.items[i.ID]; !ok {
		return apperr.NotFoundf("inventory item %s not found", i.ID)
	}
	cp := *i
	m.items[i.ID] = &cp
	return nil
}

func (m *mockRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	i, ok := m.items[id]
	if !ok {
		return apperr.NotFoundf("inventory item %s not found", id)
	}
	i.IsActive = active
	return nil
}

func (m *mockRepo) List(_ context.Context, f Filter, limit, offset int) ([]*Item, int, error) {
	var out []*Item
	for _, i := range m.items {
		if !i.IsActive {
			continue
		}
		if f.Category != "" && i.Category != f.Category {
			continue
		}
		if f.LowOnly && !i.LowStock() {
			continue
		}
		cp := *i
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *mockRepo) AddStock(_ context.Context, id uuid.UUID, amount int) (*Item, error) {
	i, ok := m.items[id]
	if !ok || !i.IsActive {
		return nil, apperr.NotFoundf("inventory item %s not found", id)
	}
	i.Quantity += amount
	cp := *i
	return &cp, nil
}

func (m *mockRepo) SubtractStock(_ context.Context, id uuid.UUID, amount int) (*Item, error) {
	i, ok := m.items[id]
	if !ok || !i.IsActive {
		return nil, apperr.NotFoundf("inventory item %s not found", id)
	}
	if i.Quantity < amount {
		return nil, apperr.Stockf("item %q has %d, need %d", i.Name, i.Quantity, amount)
	}
	i.Quantity -= amount
	cp := *i
	return &cp, nil
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	svc := NewService(repo, notify.NewNotifier(nil, zerolog.Nop()), "")
	return svc, repo
}

func seedItem(t *testing.T, svc *Service, name string, qty, reorder int) *Item {
	t.Helper()
	item, err := svc.Create(context.Background(), &CreateInput{
		Name:         name,
		Category:     "medicine",
		Quantity:     qty,
		Unit:         "tablet",
		UnitPrice:    2.5,
		Cost:         1.0,
		ReorderLevel: &reorder,
	})
	if err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}
	return item
}

func TestCreate_Defaults(t *testing.T) {
	svc, _ := newTestService()

	item, err := svc.Create(context.Background(), &CreateInput{
		Name:      "Paracetamol 500mg",
		Category:  "medicine",
		Quantity:  100,
		Unit:      "tablet",
		UnitPrice: 1.5,
		Cost:      0.8,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if item.ReorderLevel != defaultReorderLevel {
		t.Errorf("reorder level = %d, want %d", item.ReorderLevel, defaultReorderLevel)
	}
	if !item.IsActive {
		t.Error("new item should be active")
	}
}

func TestCreate_InvalidCategory(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), &CreateInput{
		Name:     "Gauze",
		Category: "misc",
		Unit:     "roll",
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestAdjustStock_Add(t *testing.T) {
	svc, _ := newTestService()
	item := seedItem(t, svc, "Ibuprofen", 20, 5)

	got, err := svc.AdjustStock(context.Background(), item.ID, OpAdd, 30)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got.Quantity != 50 {
		t.Errorf("quantity = %d, want 50", got.Quantity)
	}
}

func TestAdjustStock_Subtract(t *testing.T) {
	svc, _ := newTestService()
	item := seedItem(t, svc, "Ibuprofen", 20, 5)

	got, err := svc.AdjustStock(context.Background(), item.ID, OpSubtract, 8)
	if err != nil {
		t.Fatalf("subtract: %v", err)
	}
	if got.Quantity != 12 {
		t.Errorf("quantity = %d, want 12", got.Quantity)
	}
}

func TestAdjustStock_InsufficientLeavesStockUnchanged(t *testing.T) {
	svc, repo := newTestService()
	item := seedItem(t, svc, "Amoxicillin", 3, 5)

	_, err := svc.AdjustStock(context.Background(), item.ID, OpSubtract, 10)
	if !errors.Is(err, apperr.ErrInsufficientStock) {
		t.Fatalf("err = %v, want insufficient stock", err)
	}
	if repo.items[item.ID].Quantity != 3 {
		t.Errorf("quantity = %d, want 3 after failed subtract", repo.items[item.ID].Quantity)
	}
}

func TestAdjustStock_ExactDrain(t *testing.T) {
	svc, _ := newTestService()
	item := seedItem(t, svc, "Saline", 10, 2)

	got, err := svc.AdjustStock(context.Background(), item.ID, OpSubtract, 10)
	if err != nil {
		t.Fatalf("subtract: %v", err)
	}
	if got.Quantity != 0 {
		t.Errorf("quantity = %d, want 0", got.Quantity)
	}
}

func TestAdjustStock_BadInput(t *testing.T) {
	svc, _ := newTestService()
	item := seedItem(t, svc, "Syringe", 10, 2)

	if _, err := svc.AdjustStock(context.Background(), item.ID, "multiply", 5); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("bad operation err = %v, want validation error", err)
	}
	if _, err := svc.AdjustStock(context.Background(), item.ID, OpAdd, 0); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("zero amount err = %v, want validation error", err)
	}
	if _, err := svc.AdjustStock(context.Background(), item.ID, OpSubtract, -4); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("negative amount err = %v, want validation error", err)
	}
}

func TestLowStock_Boundary(t *testing.T) {
	item := &Item{Quantity: 10, ReorderLevel: 10}
	if !item.LowStock() {
		t.Error("quantity equal to reorder level should count as low")
	}
	item.Quantity = 11
	if item.LowStock() {
		t.Error("quantity above reorder level should not count as low")
	}
}

func TestLowStockAlerts(t *testing.T) {
	svc, _ := newTestService()
	seedItem(t, svc, "Plenty", 100, 10)
	low := seedItem(t, svc, "Scarce", 4, 10)

	items, total, err := svc.LowStockAlerts(context.Background(), 20, 0)
	if err != nil {
		t.Fatalf("alerts: %v", err)
	}
	if total != 1 {
		t.Fatalf("total = %d, want 1", total)
	}
	if items[0].ID != low.ID {
		t.Errorf("alert item = %s, want %s", items[0].Name, low.Name)
	}
}

func TestDelete_SoftHidesItem(t *testing.T) {
	svc, _ := newTestService()
	item := seedItem(t, svc, "Bandage", 50, 10)

	if err := svc.Delete(context.Background(), item.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), item.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("get after delete err = %v, want not found", err)
	}
	_, total, err := svc.List(context.Background(), Filter{}, 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 0 {
		t.Errorf("list total = %d, want 0", total)
	}
}

func TestUpdate_KeepsQuantity(t *testing.T) {
	svc, _ := newTestService()
	item := seedItem(t, svc, "Gloves", 200, 20)

	got, err := svc.Update(context.Background(), item.ID, &UpdateInput{
		Name:      "Nitrile Gloves",
		Category:  "supplies",
		Unit:      "pair",
		UnitPrice: 0.5,
		Cost:      0.2,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Quantity != 200 {
		t.Errorf("quantity = %d, want 200 (updates must not touch stock)", got.Quantity)
	}
	if got.Name != "Nitrile Gloves" {
		t.Errorf("name = %q", got.Name)
	}
}
