package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"eshop/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
type MockProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
	now      func() time.Time
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]models.Product),
		now:      time.Now,
	}
}

// GetAll returns all products, newest first.
func (r *MockProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		productList = append(productList, p)
	}
	sort.SliceStable(productList, func(i, j int) bool {
		if productList[i].CreatedAt.Equal(productList[j].CreatedAt) {
			return productList[i].ID < productList[j].ID
		}
		return productList[i].CreatedAt.After(productList[j].CreatedAt)
	})
	return productList, nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s not found: %w", id, ErrNotFound)
	}
	return &product, nil
}

// Create adds a new product.
func (r *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if _, exists := r.products[product.ID]; exists {
		return fmt.Errorf("failed to create product: duplicate ID %s", product.ID)
	}
	now := r.now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	r.products[product.ID] = *product
	return nil
}

// Update modifies the given columns of an existing product.
func (r *MockProductRepository) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s not found for update: %w", id, ErrNotFound)
	}
	if len(fields) == 0 {
		return &product, nil
	}
	if err := applyProductFields(&product, fields); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	product.UpdatedAt = r.now()
	r.products[id] = product
	return &product, nil
}

// Delete removes a product by its ID.
func (r *MockProductRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.products[id]
	if !ok {
		return fmt.Errorf("product with ID %s not found for deletion: %w", id, ErrNotFound)
	}
	delete(r.products, id)
	return nil
}

// applyProductFields turns a column map back into a patch and applies it.
func applyProductFields(product *models.Product, fields map[string]interface{}) error {
	var patch models.ProductPatch
	for column, value := range fields {
		switch v := value.(type) {
		case string:
			switch column {
			case "title":
				patch.Title = &v
			case "description":
				patch.Description = &v
			case "image_url":
				patch.ImageURL = &v
			default:
				return fmt.Errorf("invalid value for product column %q: %v", column, value)
			}
		case decimal.Decimal:
			if column != "price" {
				return fmt.Errorf("invalid value for product column %q: %v", column, value)
			}
			patch.Price = &v
		default:
			return fmt.Errorf("invalid value for product column %q: %v", column, value)
		}
	}
	patch.Apply(product)
	return nil
}
