// Package carts provides the PostgreSQL-backed cart repository.
package carts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/printpeak/internal/common"
	"github.com/dmitrijs2005/printpeak/internal/dbx"
	"github.com/dmitrijs2005/printpeak/internal/server/models"
)

const entrySelect = `
	SELECT c.id, c.user_id, c.product_id, c.created_at,
	       p.id, p.name, p.price, p.description, p.image, p.created_at
	FROM cart_entries c
	JOIN products p ON p.id = c.product_id
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

func scanEntry(row scanner) (*models.CartEntry, error) {
	e := &models.CartEntry{Product: &models.Product{}}
	p := e.Product
	err := row.Scan(&e.ID, &e.UserID, &e.ProductID, &e.CreatedAt,
		&p.ID, &p.Name, &p.Price, &p.Description, &p.Image, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *PostgresRepository) Add(ctx context.Context, userID, productID string) (*models.CartEntry, bool, error) {
	query := `
		INSERT INTO cart_entries (user_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, product_id) DO NOTHING
		RETURNING id
	`
	var id string
	created := true
	if err := r.db.QueryRowContext(ctx, query, userID, productID).Scan(&id); err != nil {
		if dbx.IsInvalidText(err) {
			return nil, false, common.ErrorNotFound
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, false, fmt.Errorf("db error: %w", err)
		}
		created = false
	}

	e, err := r.Get(ctx, userID, productID)
	if err != nil {
		return nil, false, err
	}
	return e, created, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, productID string) (*models.CartEntry, error) {
	e, err := scanEntry(r.db.QueryRowContext(ctx, entrySelect+`WHERE c.user_id = $1 AND c.product_id = $2`, userID, productID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.IsInvalidText(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*models.CartEntry, error) {
	rows, err := r.db.QueryContext(ctx, entrySelect+`WHERE c.user_id = $1 ORDER BY c.created_at DESC`, userID)
	if err != nil {
		if dbx.IsInvalidText(err) {
			return []*models.CartEntry{}, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []*models.CartEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Count(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cart_entries WHERE user_id = $1`, userID).Scan(&n); err != nil {
		if dbx.IsInvalidText(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Remove(ctx context.Context, userID, productID string) error {
	query := `DELETE FROM cart_entries WHERE user_id = $1 AND product_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, productID); err != nil && !dbx.IsInvalidText(err) {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Clear(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_entries WHERE user_id = $1`, userID); err != nil && !dbx.IsInvalidText(err) {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
