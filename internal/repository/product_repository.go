package repository

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"ryven-shop/internal/domain"
	"ryven-shop/internal/gateway"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const productsTable = "products"

var (
	ErrProductNotFound = errors.New("product not found")
)

// ImageStore names the bucket product images go to
type ImageStore struct {
	Bucket       string
	CacheControl string
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	List(ctx context.Context) ([]*domain.Product, error)
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id int64) error
	UploadImage(ctx context.Context, filename string, data []byte) (string, error)
}

type productRepository struct {
	tables gateway.Tables
	files  gateway.Files
	images ImageStore
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(tables gateway.Tables, files gateway.Files, images ImageStore) ProductRepository {
	return &productRepository{tables: tables, files: files, images: images}
}

// List returns the catalog ordered by id ascending
func (r *productRepository) List(ctx context.Context) ([]*domain.Product, error) {
	rows, err := r.tables.Select(ctx, productsTable, nil, &gateway.Order{Column: "id", Ascending: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]*domain.Product, 0, len(rows))
	for _, row := range rows {
		product, err := productFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("failed to read product: %w", err)
		}
		products = append(products, product)
	}

	return products, nil
}

// FindByID retrieves a product by ID
func (r *productRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	rows, err := r.tables.Select(ctx, productsTable, []gateway.Filter{gateway.Eq("id", id)}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrProductNotFound
	}

	product, err := productFromRow(rows[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read product: %w", err)
	}
	return product, nil
}

// Create inserts a new product; the store assigns its id
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	if err := r.tables.Insert(ctx, productsTable, productRecord(product)); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update overwrites the product with the same id
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	n, err := r.tables.Update(ctx, productsTable, productRecord(product),
		[]gateway.Filter{gateway.Eq("id", product.ID)},
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Delete removes the product with the given id; a missing product is not an error
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.tables.Delete(ctx, productsTable, []gateway.Filter{gateway.Eq("id", id)}); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// UploadImage stores data under a fresh random name and returns its public URL
func (r *productRepository) UploadImage(ctx context.Context, filename string, data []byte) (string, error) {
	detected := mimetype.Detect(data)

	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = detected.Extension()
	}
	name := uuid.NewString() + ext

	err := r.files.Upload(ctx, r.images.Bucket, name, data, gateway.UploadOptions{
		CacheControl: r.images.CacheControl,
		ContentType:  detected.String(),
		Upsert:       true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return r.files.PublicURL(r.images.Bucket, name), nil
}

func productRecord(p *domain.Product) gateway.Record {
	icon := p.IconName
	if icon == "" {
		icon = string(domain.DefaultIcon)
	}
	return gateway.Record{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"category":    p.Category,
		"icon_name":   icon,
		"image_url":   nullable(p.ImageURL),
	}
}

func productFromRow(row gateway.Row) (*domain.Product, error) {
	price, err := domain.CoercePrice(row["price"])
	if err != nil {
		return nil, err
	}

	icon := text(row, "icon_name")
	if icon == "" {
		icon = string(domain.DefaultIcon)
	}

	return &domain.Product{
		ID:          integer(row, "id"),
		Name:        text(row, "name"),
		Description: text(row, "description"),
		Price:       price,
		Category:    text(row, "category"),
		IconName:    icon,
		ImageURL:    text(row, "image_url"),
	}, nil
}
