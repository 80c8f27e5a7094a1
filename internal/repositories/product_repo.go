package repositories

import (
	"context"
	"errors"

	"eshop/internal/models"
)

// ErrNotFound is wrapped by every repository error caused by a missing record.
var ErrNotFound = errors.New("record not found")

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// GetAll returns every product, most recently created first.
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	// Update applies the given column values to the product and returns the stored record.
	Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Product, error)
	Delete(ctx context.Context, id string) error
}
