package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"eshop/internal/models"
	"eshop/internal/repositories"
	"eshop/internal/services"
	"eshop/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	args := m.Called(product)
	if args.Error(0) == nil && product.ID == "" {
		product.ID = "generated-id"
	}
	return args.Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Product, error) {
	args := m.Called(id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockPublisher is a mock implementation of services.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishJSON(payload interface{}) error {
	args := m.Called(payload)
	return args.Error(0)
}

func eventOfType(eventType, productID string) interface{} {
	return mock.MatchedBy(func(e services.CatalogEvent) bool {
		return e.Type == eventType && e.ProductID == productID && !e.OccurredAt.IsZero()
	})
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCatalogService_List(t *testing.T) {
	repo := new(MockProductRepository)
	service := services.NewCatalogService(repo, nil, logger.Discard())

	expected := []models.Product{{ID: "2", Title: "Newer"}, {ID: "1", Title: "Older"}}
	repo.On("GetAll").Return(expected, nil).Once()

	products, err := service.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, expected, products)

	repo.On("GetAll").Return(nil, errors.New("connection refused")).Once()
	_, err = service.List(context.Background())
	assert.EqualError(t, err, "connection refused")
	repo.AssertExpectations(t)
}

func TestCatalogService_Create(t *testing.T) {
	repo := new(MockProductRepository)
	publisher := new(MockPublisher)
	service := services.NewCatalogService(repo, publisher, logger.Discard())

	repo.On("Create", mock.MatchedBy(func(p *models.Product) bool {
		return p.Title == "Laptop" && p.Price.Equal(decimal.RequireFromString("1200"))
	})).Return(nil).Once()
	publisher.On("PublishJSON", eventOfType(services.EventProductCreated, "generated-id")).Return(nil).Once()

	product, err := service.Create(context.Background(), models.ProductInput{Title: "Laptop", Price: price("1200")})
	require.NoError(t, err)
	assert.Equal(t, "generated-id", product.ID)
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestCatalogService_CreateValidation(t *testing.T) {
	repo := new(MockProductRepository)
	service := services.NewCatalogService(repo, nil, logger.Discard())

	_, err := service.Create(context.Background(), models.ProductInput{Price: price("5")})
	assert.ErrorIs(t, err, services.ErrInvalidProduct)
	assert.Contains(t, err.Error(), "Title")

	_, err = service.Create(context.Background(), models.ProductInput{Title: "Mouse"})
	assert.ErrorIs(t, err, services.ErrInvalidProduct)
	assert.Contains(t, err.Error(), "Price")

	_, err = service.Create(context.Background(), models.ProductInput{Title: "Mouse", Price: price("-1")})
	assert.ErrorIs(t, err, services.ErrInvalidProduct)

	repo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestCatalogService_CreatePublishFailureDoesNotFailWrite(t *testing.T) {
	repo := new(MockProductRepository)
	publisher := new(MockPublisher)
	service := services.NewCatalogService(repo, publisher, logger.Discard())

	repo.On("Create", mock.AnythingOfType("*models.Product")).Return(nil).Once()
	publisher.On("PublishJSON", mock.Anything).Return(errors.New("channel closed")).Once()

	_, err := service.Create(context.Background(), models.ProductInput{Title: "Mouse", Price: price("25")})
	assert.NoError(t, err)
}

func TestCatalogService_Update(t *testing.T) {
	repo := new(MockProductRepository)
	publisher := new(MockPublisher)
	service := services.NewCatalogService(repo, publisher, logger.Discard())

	title := "Laptop Pro"
	repo.On("Update", "1", map[string]interface{}{"title": title}).
		Return(&models.Product{ID: "1", Title: title}, nil).Once()
	publisher.On("PublishJSON", eventOfType(services.EventProductUpdated, "1")).Return(nil).Once()

	product, err := service.Update(context.Background(), "1", models.ProductPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, product.Title)

	missing := fmt.Errorf("product with ID 99 not found for update: %w", repositories.ErrNotFound)
	repo.On("Update", "99", map[string]interface{}{"title": title}).Return(nil, missing).Once()
	_, err = service.Update(context.Background(), "99", models.ProductPatch{Title: &title})
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.Contains(t, err.Error(), "not found for update")

	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestCatalogService_UpdateEmptyPatchPublishesNothing(t *testing.T) {
	repo := new(MockProductRepository)
	publisher := new(MockPublisher)
	service := services.NewCatalogService(repo, publisher, logger.Discard())

	repo.On("Update", "1", map[string]interface{}{}).Return(&models.Product{ID: "1"}, nil).Once()

	_, err := service.Update(context.Background(), "1", models.ProductPatch{})
	require.NoError(t, err)
	publisher.AssertNotCalled(t, "PublishJSON", mock.Anything)
}

func TestCatalogService_Delete(t *testing.T) {
	repo := new(MockProductRepository)
	publisher := new(MockPublisher)
	service := services.NewCatalogService(repo, publisher, logger.Discard())

	repo.On("Delete", "1").Return(nil).Once()
	publisher.On("PublishJSON", eventOfType(services.EventProductDeleted, "1")).Return(nil).Once()
	assert.NoError(t, service.Delete(context.Background(), "1"))

	repo.On("Delete", "99").Return(fmt.Errorf("product with ID 99 not found for deletion: %w", repositories.ErrNotFound)).Once()
	err := service.Delete(context.Background(), "99")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found for deletion")

	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}
