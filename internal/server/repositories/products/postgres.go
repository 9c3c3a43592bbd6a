// Package products provides the PostgreSQL-backed catalog repository.
package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/printpeak/internal/common"
	"github.com/dmitrijs2005/printpeak/internal/dbx"
	"github.com/dmitrijs2005/printpeak/internal/server/models"
)

const productColumns = `id, name, price, description, image, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*models.Product, error) {
	p := &models.Product{}
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Description, &p.Image, &p.CreatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	query := `
		INSERT INTO products (name, price, description, image)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowContext(ctx, query, p.Name, p.Price, p.Description, p.Image).Scan(&p.ID, &p.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.IsInvalidText(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []*models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *models.Product) (*models.Product, error) {
	query := `
		UPDATE products
		SET name = $2, price = $3, description = $4, image = $5
		WHERE id = $1
		RETURNING ` + productColumns

	out, err := scanProduct(r.db.QueryRowContext(ctx, query, p.ID, p.Name, p.Price, p.Description, p.Image))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.IsInvalidText(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil && !dbx.IsInvalidText(err) {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products`)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
