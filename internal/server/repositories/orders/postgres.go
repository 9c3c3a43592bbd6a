// Package orders provides the PostgreSQL-backed order repository.
package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/printpeak/internal/common"
	"github.com/dmitrijs2005/printpeak/internal/dbx"
	"github.com/dmitrijs2005/printpeak/internal/server/models"
	"github.com/shopspring/decimal"
)

const orderSelect = `
	SELECT o.id, o.user_id, o.product_id, o.size, o.design, o.method, o.address,
	       o.quantity, o.status, o.payment_session_id, o.created_at,
	       p.id, p.name, p.price, p.description, p.image, p.created_at,
	       u.id, u.name, u.email
	FROM orders o
	LEFT JOIN products p ON p.id = o.product_id
	JOIN users u ON u.id = o.user_id
`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

// scanOrder reads one orderSelect row. withOwner controls whether the
// owner fields are exposed on the result.
func scanOrder(row scanner, withOwner bool) (*models.Order, error) {
	var (
		o          models.Order
		productRef sql.NullString
		pID        sql.NullString
		pName      sql.NullString
		pPrice     decimal.NullDecimal
		pDesc      sql.NullString
		pImage     sql.NullString
		pCreated   sql.NullTime
		owner      models.OrderOwner
		status     string
	)

	err := row.Scan(&o.ID, &o.UserID, &productRef, &o.Size, &o.Design, &o.Method, &o.Address,
		&o.Quantity, &status, &o.PaymentSessionID, &o.CreatedAt,
		&pID, &pName, &pPrice, &pDesc, &pImage, &pCreated,
		&owner.ID, &owner.Name, &owner.Email)
	if err != nil {
		return nil, err
	}

	o.Status = models.OrderStatus(status)
	if productRef.Valid {
		o.ProductID = &productRef.String
	}
	if pID.Valid {
		o.Product = &models.Product{
			ID:          pID.String,
			Name:        pName.String,
			Price:       pPrice.Decimal,
			Description: pDesc.String,
			Image:       pImage.String,
			CreatedAt:   pCreated.Time,
		}
	}
	if withOwner {
		o.User = &owner
	}
	return &o, nil
}

func (r *PostgresRepository) Create(ctx context.Context, o *models.Order) (*models.Order, error) {
	query := `
		INSERT INTO orders (user_id, product_id, size, design, method, address, quantity, status, payment_session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		o.UserID, o.ProductID, o.Size, o.Design, o.Method, o.Address, o.Quantity, string(o.Status), o.PaymentSessionID,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return o, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, arg any) (*models.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, orderSelect+where, arg), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.IsInvalidText(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return o, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	return r.getOne(ctx, `WHERE o.id = $1`, id)
}

func (r *PostgresRepository) GetByPaymentSession(ctx context.Context, sessionID string) (*models.Order, error) {
	return r.getOne(ctx, `WHERE o.payment_session_id = $1`, sessionID)
}

func (r *PostgresRepository) list(ctx context.Context, withOwner bool, tail string, args ...any) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, orderSelect+tail, args...)
	if err != nil {
		if dbx.IsInvalidText(err) {
			return []*models.Order{}, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []*models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows, withOwner)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]*models.Order, error) {
	return r.list(ctx, false, `WHERE o.user_id = $1 ORDER BY o.created_at DESC`, userID)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.Order, error) {
	return r.list(ctx, true, `ORDER BY o.created_at DESC`)
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		if dbx.IsInvalidText(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		if dbx.IsInvalidText(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders`)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
