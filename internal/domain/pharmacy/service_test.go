package pharmacy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/domain/inventory"
	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
)

type mockRepo struct {
	prescriptions map[uuid.UUID]*Prescription
}

func newMockRepo() *mockRepo {
	return &mockRepo{prescriptions: make(map[uuid.UUID]*Prescription)}
}

func (m *mockRepo) Create(_ context.Context, p *Prescription) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.prescriptions[p.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Prescription, error) {
	p, ok := m.prescriptions[id]
	if !ok {
		return nil, apperr.NotFoundf("prescription not found")
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, p *Prescription) error {
	if _, ok := m.prescriptions[p.ID]; !ok {
		return apperr.NotFoundf("prescription not found")
	}
	cp := *p
	m.prescriptions[p.ID] = &cp
	return nil
}

func (m *mockRepo) List(_ context.Context, f Filter, limit, offset int) ([]*Prescription, int, error) {
	var out []*Prescription
	for _, p := range m.prescriptions {
		if f.PatientID != nil && p.PatientID != *f.PatientID {
			continue
		}
		if f.DoctorID != nil && p.DoctorID != *f.DoctorID {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.Dispensed != nil && p.IsDispensed != *f.Dispensed {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, len(out), nil
}

type mockStock struct {
	items map[uuid.UUID]*inventory.Item
}

func (m *mockStock) GetByName(_ context.Context, name string) (*inventory.Item, error) {
	for _, i := range m.items {
		if i.Name == name {
			cp := *i
			return &cp, nil
		}
	}
	return nil, apperr.NotFoundf("inventory item %q not found", name)
}

func (m *mockStock) SubtractStock(_ context.Context, id uuid.UUID, amount int) (*inventory.Item, error) {
	i, ok := m.items[id]
	if !ok {
		return nil, apperr.NotFoundf("inventory item not found")
	}
	if i.Quantity < amount {
		return nil, apperr.Stockf("item %q has %d, need %d", i.Name, i.Quantity, amount)
	}
	i.Quantity -= amount
	cp := *i
	return &cp, nil
}

type mockUsers struct {
	users map[uuid.UUID]*identity.User
}

func (m *mockUsers) GetUser(_ context.Context, id uuid.UUID) (*identity.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFoundf("user %s not found", id)
	}
	return u, nil
}

type mockBiller struct {
	bills []*billing.Bill
}

func (m *mockBiller) CreateInternal(_ context.Context, patientID uuid.UUID, items []billing.BillItem, notes string, createdBy uuid.UUID) (*billing.Bill, error) {
	b := &billing.Bill{
		ID:         uuid.New(),
		PatientID:  patientID,
		BillNumber: "BILL-TEST",
		Items:      items,
		Notes:      &notes,
		CreatedBy:  createdBy,
	}
	b.Recompute()
	m.bills = append(m.bills, b)
	return b, nil
}

type mockCare struct {
	pairs map[[2]uuid.UUID]bool
}

func (m *mockCare) HasAppointmentBetween(_ context.Context, doctorID, patientID uuid.UUID) (bool, error) {
	return m.pairs[[2]uuid.UUID{doctorID, patientID}], nil
}

type fixture struct {
	svc        *Service
	repo       *mockRepo
	stock      *mockStock
	biller     *mockBiller
	care       *mockCare
	patient    uuid.UUID
	doctor     uuid.UUID
	pharmacist uuid.UUID
	paraID     uuid.UUID
	amoxID     uuid.UUID
}

// snapshotTx mimics transaction semantics against the in-memory
// mocks: any error from fn restores every store to its prior state.
func snapshotTx(f *fixture) TxRunner {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		stockBefore := make(map[uuid.UUID]inventory.Item, len(f.stock.items))
		for id, i := range f.stock.items {
			stockBefore[id] = *i
		}
		prescBefore := make(map[uuid.UUID]Prescription, len(f.repo.prescriptions))
		for id, p := range f.repo.prescriptions {
			prescBefore[id] = *p
		}
		billsBefore := len(f.biller.bills)

		if err := fn(ctx); err != nil {
			f.stock.items = make(map[uuid.UUID]*inventory.Item, len(stockBefore))
			for id, i := range stockBefore {
				cp := i
				f.stock.items[id] = &cp
			}
			f.repo.prescriptions = make(map[uuid.UUID]*Prescription, len(prescBefore))
			for id, p := range prescBefore {
				cp := p
				f.repo.prescriptions[id] = &cp
			}
			f.biller.bills = f.biller.bills[:billsBefore]
			return err
		}
		return nil
	}
}

func newFixture() *fixture {
	f := &fixture{
		repo:       newMockRepo(),
		stock:      &mockStock{items: make(map[uuid.UUID]*inventory.Item)},
		biller:     &mockBiller{},
		care:       &mockCare{pairs: make(map[[2]uuid.UUID]bool)},
		patient:    uuid.New(),
		doctor:     uuid.New(),
		pharmacist: uuid.New(),
	}
	users := &mockUsers{users: map[uuid.UUID]*identity.User{
		f.patient: {ID: f.patient, FirstName: "Pat", LastName: "Smith", Role: auth.RolePatient, IsActive: true},
		f.doctor:  {ID: f.doctor, FirstName: "Doc", LastName: "Jones", Role: auth.RoleDoctor, IsActive: true},
	}}
	f.care.pairs[[2]uuid.UUID{f.doctor, f.patient}] = true

	f.paraID = uuid.New()
	f.stock.items[f.paraID] = &inventory.Item{
		ID: f.paraID, Name: "Paracetamol", Category: "medicine",
		Quantity: 50, Unit: "tablet", UnitPrice: 2, ReorderLevel: 10, IsActive: true,
	}
	f.amoxID = uuid.New()
	f.stock.items[f.amoxID] = &inventory.Item{
		ID: f.amoxID, Name: "Amoxicillin", Category: "medicine",
		Quantity: 3, Unit: "capsule", UnitPrice: 5, ReorderLevel: 10, IsActive: true,
	}

	f.svc = NewService(f.repo, users, f.stock, f.biller, f.care, nil)
	f.svc.tx = snapshotTx(f)
	return f
}

func asUser(id uuid.UUID, role string) context.Context {
	ctx := context.WithValue(context.Background(), auth.UserIDKey, id)
	return context.WithValue(ctx, auth.RoleKey, role)
}

func (f *fixture) prescribe(t *testing.T, meds []MedicationInput) *Prescription {
	t.Helper()
	p, err := f.svc.Create(asUser(f.doctor, auth.RoleDoctor), &CreateInput{
		PatientID:   f.patient,
		Medications: meds,
	})
	if err != nil {
		t.Fatalf("prescribe: %v", err)
	}
	return p
}

func TestCreate_RequiresRelationship(t *testing.T) {
	f := newFixture()
	f.care.pairs = map[[2]uuid.UUID]bool{}

	_, err := f.svc.Create(asUser(f.doctor, auth.RoleDoctor), &CreateInput{
		PatientID:   f.patient,
		Medications: []MedicationInput{{Name: "Paracetamol", Dosage: "500mg", Quantity: 10}},
	})
	if !errors.Is(err, apperr.ErrAuthorization) {
		t.Fatalf("err = %v, want authorization error", err)
	}
}

func TestCreate_PatientMustBePatient(t *testing.T) {
	f := newFixture()
	f.care.pairs[[2]uuid.UUID{f.doctor, f.doctor}] = true

	_, err := f.svc.Create(asUser(f.doctor, auth.RoleDoctor), &CreateInput{
		PatientID:   f.doctor,
		Medications: []MedicationInput{{Name: "Paracetamol", Dosage: "500mg", Quantity: 10}},
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestCreate_Active(t *testing.T) {
	f := newFixture()

	p := f.prescribe(t, []MedicationInput{{Name: "Paracetamol", Dosage: "500mg", Quantity: 10, UnitPrice: 2}})
	if p.Status != StatusActive {
		t.Errorf("status = %s, want active", p.Status)
	}
	if p.IsDispensed {
		t.Error("new prescription must not be dispensed")
	}
	if p.DoctorID != f.doctor {
		t.Errorf("doctor = %s, want caller", p.DoctorID)
	}
}

func TestDispense_DeductsAndBills(t *testing.T) {
	f := newFixture()
	p := f.prescribe(t, []MedicationInput{
		{Name: "Paracetamol", Dosage: "500mg", Quantity: 20, UnitPrice: 2},
	})

	res, err := f.svc.Dispense(asUser(f.pharmacist, auth.RolePharmacist), p.ID)
	if err != nil {
		t.Fatalf("dispense: %v", err)
	}
	if !res.Prescription.IsDispensed {
		t.Error("prescription should be dispensed")
	}
	if res.Prescription.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", res.Prescription.Status)
	}
	if res.Prescription.DispensedBy == nil || *res.Prescription.DispensedBy != f.pharmacist {
		t.Error("dispensed_by should record the pharmacist")
	}
	if f.stock.items[f.paraID].Quantity != 30 {
		t.Errorf("stock = %d, want 30", f.stock.items[f.paraID].Quantity)
	}
	if res.Bill == nil || res.Bill.TotalAmount != 40 {
		t.Errorf("bill total = %+v, want 40", res.Bill)
	}
	if len(f.biller.bills) != 1 {
		t.Errorf("bills created = %d, want 1", len(f.biller.bills))
	}
}

func TestDispense_InsufficientStockRollsBack(t *testing.T) {
	f := newFixture()
	p := f.prescribe(t, []MedicationInput{
		{Name: "Paracetamol", Dosage: "500mg", Quantity: 20, UnitPrice: 2},
		{Name: "Amoxicillin", Dosage: "250mg", Quantity: 10, UnitPrice: 5},
	})

	_, err := f.svc.Dispense(asUser(f.pharmacist, auth.RolePharmacist), p.ID)
	if !errors.Is(err, apperr.ErrInsufficientStock) {
		t.Fatalf("err = %v, want insufficient stock", err)
	}

	if got := f.stock.items[f.paraID].Quantity; got != 50 {
		t.Errorf("paracetamol stock = %d, want 50 after rollback", got)
	}
	if got := f.stock.items[f.amoxID].Quantity; got != 3 {
		t.Errorf("amoxicillin stock = %d, want 3 after rollback", got)
	}
	stored, _ := f.repo.GetByID(context.Background(), p.ID)
	if stored.IsDispensed {
		t.Error("prescription must stay undispensed after rollback")
	}
	if len(f.biller.bills) != 0 {
		t.Errorf("bills created = %d, want 0", len(f.biller.bills))
	}
}

func TestDispense_AlreadyDispensed(t *testing.T) {
	f := newFixture()
	p := f.prescribe(t, []MedicationInput{{Name: "Paracetamol", Dosage: "500mg", Quantity: 5, UnitPrice: 2}})

	if _, err := f.svc.Dispense(asUser(f.pharmacist, auth.RolePharmacist), p.ID); err != nil {
		t.Fatalf("first dispense: %v", err)
	}
	_, err := f.svc.Dispense(asUser(f.pharmacist, auth.RolePharmacist), p.ID)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	if got := f.stock.items[f.paraID].Quantity; got != 45 {
		t.Errorf("stock = %d, want 45 (second dispense must not deduct)", got)
	}
}

func TestDispense_CancelledPrescription(t *testing.T) {
	f := newFixture()
	p := f.prescribe(t, []MedicationInput{{Name: "Paracetamol", Dosage: "500mg", Quantity: 5}})
	if _, err := f.svc.Cancel(asUser(f.doctor, auth.RoleDoctor), p.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	_, err := f.svc.Dispense(asUser(f.pharmacist, auth.RolePharmacist), p.ID)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestDispense_Expired(t *testing.T) {
	f := newFixture()
	p := f.prescribe(t, []MedicationInput{{Name: "Paracetamol", Dosage: "500mg", Quantity: 5}})
	past := time.Now().Add(-24 * time.Hour)
	stored := f.repo.prescriptions[p.ID]
	stored.ValidUntil = &past

	_, err := f.svc.Dispense(asUser(f.pharmacist, auth.RolePharmacist), p.ID)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestDispense_FallsBackToInventoryPrice(t *testing.T) {
	f := newFixture()
	p := f.prescribe(t, []MedicationInput{{Name: "Paracetamol", Dosage: "500mg", Quantity: 4, UnitPrice: 0}})

	res, err := f.svc.Dispense(asUser(f.pharmacist, auth.RolePharmacist), p.ID)
	if err != nil {
		t.Fatalf("dispense: %v", err)
	}
	if res.Bill.TotalAmount != 8 {
		t.Errorf("bill total = %.2f, want 8 (4 at inventory price 2)", res.Bill.TotalAmount)
	}
}

func TestCancel_Authorization(t *testing.T) {
	f := newFixture()
	p := f.prescribe(t, []MedicationInput{{Name: "Paracetamol", Dosage: "500mg", Quantity: 5}})

	otherDoctor := uuid.New()
	if _, err := f.svc.Cancel(asUser(otherDoctor, auth.RoleDoctor), p.ID); !errors.Is(err, apperr.ErrAuthorization) {
		t.Errorf("foreign doctor cancel err = %v, want authorization error", err)
	}
	if _, err := f.svc.Cancel(asUser(uuid.New(), auth.RoleAdmin), p.ID); err != nil {
		t.Errorf("admin cancel: %v", err)
	}
}

func TestGet_AccessMatrix(t *testing.T) {
	f := newFixture()
	p := f.prescribe(t, []MedicationInput{{Name: "Paracetamol", Dosage: "500mg", Quantity: 5}})

	if _, err := f.svc.Get(asUser(f.patient, auth.RolePatient), p.ID); err != nil {
		t.Errorf("own patient get: %v", err)
	}
	if _, err := f.svc.Get(asUser(uuid.New(), auth.RolePatient), p.ID); !errors.Is(err, apperr.ErrAuthorization) {
		t.Errorf("foreign patient get err = %v, want authorization error", err)
	}
	if _, err := f.svc.Get(asUser(f.doctor, auth.RoleDoctor), p.ID); err != nil {
		t.Errorf("prescribing doctor get: %v", err)
	}
	if _, err := f.svc.Get(asUser(f.pharmacist, auth.RolePharmacist), p.ID); err != nil {
		t.Errorf("pharmacist get: %v", err)
	}
}

func TestPending_ExcludesDispensedAndCancelled(t *testing.T) {
	f := newFixture()
	open := f.prescribe(t, []MedicationInput{{Name: "Paracetamol", Dosage: "500mg", Quantity: 2}})
	done := f.prescribe(t, []MedicationInput{{Name: "Paracetamol", Dosage: "500mg", Quantity: 2}})
	dropped := f.prescribe(t, []MedicationInput{{Name: "Paracetamol", Dosage: "500mg", Quantity: 2}})

	if _, err := f.svc.Dispense(asUser(f.pharmacist, auth.RolePharmacist), done.ID); err != nil {
		t.Fatalf("dispense: %v", err)
	}
	if _, err := f.svc.Cancel(asUser(f.doctor, auth.RoleDoctor), dropped.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	items, total, err := f.svc.Pending(asUser(f.pharmacist, auth.RolePharmacist), 20, 0)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if total != 1 {
		t.Fatalf("total = %d, want 1", total)
	}
	if items[0].ID != open.ID {
		t.Errorf("pending item = %s, want the open prescription", items[0].ID)
	}
}

func TestListOwn(t *testing.T) {
	f := newFixture()
	f.prescribe(t, []MedicationInput{{Name: "Paracetamol", Dosage: "500mg", Quantity: 2}})
	f.prescribe(t, []MedicationInput{{Name: "Amoxicillin", Dosage: "250mg", Quantity: 1}})

	_, total, err := f.svc.ListOwn(asUser(f.patient, auth.RolePatient), "", 20, 0)
	if err != nil {
		t.Fatalf("patient list: %v", err)
	}
	if total != 2 {
		t.Errorf("patient total = %d, want 2", total)
	}
	_, total, err = f.svc.ListOwn(asUser(f.doctor, auth.RoleDoctor), "", 20, 0)
	if err != nil {
		t.Fatalf("doctor list: %v", err)
	}
	if total != 2 {
		t.Errorf("doctor total = %d, want 2", total)
	}
	if _, _, err := f.svc.ListOwn(asUser(f.pharmacist, auth.RolePharmacist), "", 20, 0); !errors.Is(err, apperr.ErrAuthorization) {
		t.Errorf("pharmacist list err = %v, want authorization error", err)
	}
}
