package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// NextBillNumber allocates BILL-YYYYMM-<n> from a dedicated sequence,
// so concurrent creates can never collide.
func (r *repoPG) NextBillNumber(ctx context.Context) (string, error) {
	var seq int64
	if err := r.conn(ctx).QueryRow(ctx, `SELECT nextval('bill_number_seq')`).Scan(&seq); err != nil {
		return "", fmt.Errorf("allocate bill number: %w", err)
	}
	return fmt.Sprintf("BILL-%s-%d", time.Now().Format("200601"), seq), nil
}

const billCols = `id, patient_id, appointment_id, bill_number, bill_date, due_date,
	items, subtotal, tax, discount, total_amount, paid_amount, balance, status,
	payment_method, notes, created_by, created_at, updated_at`

func scanBill(row pgx.Row) (*Bill, error) {
	var b Bill
	var items []byte
	err := row.Scan(&b.ID, &b.PatientID, &b.AppointmentID, &b.BillNumber, &b.BillDate, &b.DueDate,
		&items, &b.Subtotal, &b.Tax, &b.Discount, &b.TotalAmount, &b.PaidAmount, &b.Balance, &b.Status,
		&b.PaymentMethod, &b.Notes, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("bill not found")
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &b.Items); err != nil {
		return nil, fmt.Errorf("decode bill items: %w", err)
	}
	return &b, nil
}

func (r *repoPG) Create(ctx context.Context, b *Bill) error {
	b.ID = uuid.New()
	items, err := json.Marshal(b.Items)
	if err != nil {
		return fmt.Errorf("encode bill items: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO bills (id, patient_id, appointment_id, bill_number, bill_date, due_date,
			items, subtotal, tax, discount, total_amount, paid_amount, balance, status,
			payment_method, notes, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		b.ID, b.PatientID, b.AppointmentID, b.BillNumber, b.BillDate, b.DueDate,
		items, b.Subtotal, b.Tax, b.Discount, b.TotalAmount, b.PaidAmount, b.Balance, b.Status,
		b.PaymentMethod, b.Notes, b.CreatedBy)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return scanBill(r.conn(ctx).QueryRow(ctx, `SELECT `+billCols+` FROM bills WHERE id = $1`, id))
}

func (r *repoPG) UpdatePayment(ctx context.Context, b *Bill) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE bills SET paid_amount=$2, balance=$3, status=$4, payment_method=$5, updated_at=NOW()
		WHERE id = $1`,
		b.ID, b.PaidAmount, b.Balance, b.Status, b.PaymentMethod)
	return err
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Bill, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if f.PatientID != nil {
		args = append(args, *f.PatientID)
		where += fmt.Sprintf(" AND patient_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM bills `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		fmt.Sprintf(`SELECT %s FROM bills %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
			billCols, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, nil
}
