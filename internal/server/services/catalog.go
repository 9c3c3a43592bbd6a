package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/printpeak/internal/server/images"
	"github.com/dmitrijs2005/printpeak/internal/server/models"
	"github.com/dmitrijs2005/printpeak/internal/server/repositories/repomanager"
	"github.com/tealeg/xlsx"
)

// CatalogService manages products.
type CatalogService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	images      images.Store
}

func NewCatalogService(db *sql.DB, m repomanager.RepositoryManager, store images.Store) *CatalogService {
	return &CatalogService{db: db, repomanager: m, images: store}
}

// List returns the catalog newest first.
func (s *CatalogService) List(ctx context.Context) ([]*models.Product, error) {
	return s.repomanager.Products(s.db).List(ctx)
}

func (s *CatalogService) Get(ctx context.Context, id string) (*models.Product, error) {
	return s.repomanager.Products(s.db).GetByID(ctx, id)
}

func (s *CatalogService) Create(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	name, err := required("name", in.Name)
	if err != nil {
		return nil, err
	}
	if !in.Price.IsPositive() {
		return nil, validationErr("price must be positive")
	}
	if in.Image == nil {
		return nil, validationErr("image is required")
	}

	url, err := s.images.Upload(ctx, images.FolderProducts, in.Image)
	if err != nil {
		return nil, err
	}

	return s.repomanager.Products(s.db).Create(ctx, &models.Product{
		Name:        name,
		Price:       in.Price.Round(2),
		Description: strings.TrimSpace(in.Description),
		Image:       url,
	})
}

// Update applies the non-nil fields of upd. An explicit zero or negative
// price is rejected rather than ignored.
func (s *CatalogService) Update(ctx context.Context, id string, upd models.ProductUpdate) (*models.Product, error) {
	repo := s.repomanager.Products(s.db)

	p, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		if p.Name, err = required("name", *upd.Name); err != nil {
			return nil, err
		}
	}
	if upd.Price != nil {
		if !upd.Price.IsPositive() {
			return nil, validationErr("price must be positive")
		}
		p.Price = upd.Price.Round(2)
	}
	if upd.Description != nil {
		p.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.Image != nil {
		url, err := s.images.Upload(ctx, images.FolderProducts, upd.Image)
		if err != nil {
			return nil, err
		}
		p.Image = url
	}

	return repo.Update(ctx, p)
}

// Delete is idempotent. Cart entries for the product go with it; orders
// keep their rows with the product reference cleared.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	return s.repomanager.Products(s.db).Delete(ctx, id)
}

func (s *CatalogService) DeleteAll(ctx context.Context) (int64, error) {
	return s.repomanager.Products(s.db).DeleteAll(ctx)
}

var exportHeaders = []string{"ID", "Name", "Price", "Description", "Image", "CreatedAt"}

// ExportXLSX writes the catalog to w as a single-sheet workbook.
func (s *CatalogService) ExportXLSX(ctx context.Context, w io.Writer) error {
	products, err := s.List(ctx)
	if err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range exportHeaders {
		header.AddCell().SetValue(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.ID)
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetFloat(p.Price.InexactFloat64())
		row.AddCell().SetValue(p.Description)
		row.AddCell().SetValue(p.Image)
		row.AddCell().SetValue(p.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
