package reporting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

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

func (r *repoPG) countByGroup(ctx context.Context, query string, args ...interface{}) (map[string]int, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		out[key] = n
	}
	return out, rows.Err()
}

func (r *repoPG) CountUsersByRole(ctx context.Context) (map[string]int, error) {
	return r.countByGroup(ctx,
		`SELECT role, COUNT(*) FROM users WHERE is_active GROUP BY role`)
}

func (r *repoPG) CountRegistrationsOn(ctx context.Context, day time.Time) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE role = 'patient' AND created_at::date = $1::date`,
		day).Scan(&n)
	return n, err
}

func (r *repoPG) CountAppointmentsByStatus(ctx context.Context) (map[string]int, error) {
	return r.countByGroup(ctx,
		`SELECT status, COUNT(*) FROM appointments GROUP BY status`)
}

func (r *repoPG) CountAppointmentsOn(ctx context.Context, day time.Time, doctorID *uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM appointments WHERE date::date = $1::date
		AND status IN ('pending','confirmed')`
	args := []interface{}{day}
	if doctorID != nil {
		args = append(args, *doctorID)
		query += ` AND doctor_id = $2`
	}
	var n int
	err := r.conn(ctx).QueryRow(ctx, query, args...).Scan(&n)
	return n, err
}

func (r *repoPG) CountPendingAppointments(ctx context.Context, doctorID *uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM appointments WHERE status = 'pending'`
	args := []interface{}{}
	if doctorID != nil {
		args = append(args, *doctorID)
		query += ` AND doctor_id = $1`
	}
	var n int
	err := r.conn(ctx).QueryRow(ctx, query, args...).Scan(&n)
	return n, err
}

func (r *repoPG) CountUpcomingAppointments(ctx context.Context, patientID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE patient_id = $1
			AND date >= CURRENT_DATE AND status IN ('pending','confirmed')`,
		patientID).Scan(&n)
	return n, err
}

func (r *repoPG) CountDistinctPatients(ctx context.Context, doctorID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(DISTINCT patient_id) FROM appointments WHERE doctor_id = $1`,
		doctorID).Scan(&n)
	return n, err
}

func (r *repoPG) BillingTotals(ctx context.Context, from, to *time.Time) (*FinancialTotals, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if from != nil {
		args = append(args, *from)
		where += " AND bill_date >= $1"
	}
	if to != nil {
		args = append(args, *to)
		if len(args) == 1 {
			where += " AND bill_date <= $1"
		} else {
			where += " AND bill_date <= $2"
		}
	}

	t := &FinancialTotals{}
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COALESCE(SUM(total_amount),0), COALESCE(SUM(paid_amount),0),
			COALESCE(SUM(balance),0), COUNT(*)
		FROM bills `+where, args...).
		Scan(&t.TotalBilled, &t.TotalCollected, &t.TotalOutstanding, &t.BillCount)
	if err != nil {
		return nil, err
	}

	t.BillsByStatus, err = r.countByGroup(ctx,
		`SELECT status, COUNT(*) FROM bills `+where+` GROUP BY status`, args...)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *repoPG) PatientOutstanding(ctx context.Context, patientID uuid.UUID) (float64, error) {
	var total float64
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COALESCE(SUM(balance),0) FROM bills WHERE patient_id = $1`,
		patientID).Scan(&total)
	return total, err
}

func (r *repoPG) CountActivePrescriptions(ctx context.Context, patientID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM prescriptions WHERE patient_id = $1
			AND status = 'active' AND NOT is_dispensed`,
		patientID).Scan(&n)
	return n, err
}

func (r *repoPG) CountPendingPrescriptions(ctx context.Context) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM prescriptions WHERE status = 'active' AND NOT is_dispensed`).Scan(&n)
	return n, err
}

func (r *repoPG) CountDispensedOn(ctx context.Context, day time.Time) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM prescriptions WHERE dispensed_at::date = $1::date`,
		day).Scan(&n)
	return n, err
}

func (r *repoPG) CountLowStock(ctx context.Context) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM inventory_items WHERE is_active AND quantity <= reorder_level`).Scan(&n)
	return n, err
}
