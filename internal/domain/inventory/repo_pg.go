package inventory

import (
	"context"
	"errors"
	"fmt"

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

const itemCols = `id, name, category, description, quantity, unit, unit_price, cost,
	reorder_level, supplier, batch_number, expiry_date, location, is_active,
	created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var i Item
	err := row.Scan(&i.ID, &i.Name, &i.Category, &i.Description, &i.Quantity, &i.Unit, &i.UnitPrice, &i.Cost,
		&i.ReorderLevel, &i.Supplier, &i.BatchNumber, &i.ExpiryDate, &i.Location, &i.IsActive,
		&i.CreatedAt, &i.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("inventory item not found")
	}
	return &i, err
}

func (r *repoPG) Create(ctx context.Context, i *Item) error {
	i.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO inventory_items (id, name, category, description, quantity, unit, unit_price, cost,
			reorder_level, supplier, batch_number, expiry_date, location, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		i.ID, i.Name, i.Category, i.Description, i.Quantity, i.Unit, i.UnitPrice, i.Cost,
		i.ReorderLevel, i.Supplier, i.BatchNumber, i.ExpiryDate, i.Location, i.IsActive)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	return scanItem(r.conn(ctx).QueryRow(ctx, `SELECT `+itemCols+` FROM inventory_items WHERE id = $1`, id))
}

func (r *repoPG) GetByName(ctx context.Context, name string) (*Item, error) {
	return scanItem(r.conn(ctx).QueryRow(ctx,
		`SELECT `+itemCols+` FROM inventory_items WHERE LOWER(name) = LOWER($1) AND is_active`, name))
}

func (r *repoPG) Update(ctx context.Context, i *Item) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE inventory_items SET name=$2, category=$3, description=$4, unit=$5,
			unit_price=$6, cost=$7, reorder_level=$8, supplier=$9, batch_number=$10,
			expiry_date=$11, location=$12, updated_at=NOW()
		WHERE id = $1`,
		i.ID, i.Name, i.Category, i.Description, i.Unit,
		i.UnitPrice, i.Cost, i.ReorderLevel, i.Supplier, i.BatchNumber,
		i.ExpiryDate, i.Location)
	return err
}

func (r *repoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE inventory_items SET is_active=$2, updated_at=NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("inventory item not found")
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Item, int, error) {
	where := "WHERE is_active"
	args := []interface{}{}
	if f.Category != "" {
		args = append(args, f.Category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	if f.LowOnly {
		where += " AND quantity <= reorder_level"
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM inventory_items `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		fmt.Sprintf(`SELECT %s FROM inventory_items %s ORDER BY name LIMIT $%d OFFSET $%d`,
			itemCols, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, i)
	}
	return items, total, nil
}

func (r *repoPG) AddStock(ctx context.Context, id uuid.UUID, amount int) (*Item, error) {
	return scanItem(r.conn(ctx).QueryRow(ctx, `
		UPDATE inventory_items SET quantity = quantity + $2, updated_at = NOW()
		WHERE id = $1 AND is_active
		RETURNING `+itemCols, id, amount))
}

// SubtractStock uses a quantity guard in the WHERE clause so two
// concurrent subtracts can never drive the column negative. A missed
// update is disambiguated with a follow-up read.
func (r *repoPG) SubtractStock(ctx context.Context, id uuid.UUID, amount int) (*Item, error) {
	item, err := scanItem(r.conn(ctx).QueryRow(ctx, `
		UPDATE inventory_items SET quantity = quantity - $2, updated_at = NOW()
		WHERE id = $1 AND is_active AND quantity >= $2
		RETURNING `+itemCols, id, amount))
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	existing, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, apperr.Stockf("item %q has %d, need %d", existing.Name, existing.Quantity, amount)
}
