package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eshop/internal/models"
	"eshop/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// ErrInvalidProduct is wrapped by every product validation failure.
var ErrInvalidProduct = errors.New("invalid product")

// CatalogService is the gateway for all product catalog operations.
type CatalogService struct {
	repo      repositories.ProductRepository
	publisher EventPublisher
	validate  *validator.Validate
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewCatalogService creates a new CatalogService. publisher may be nil, in which
// case no catalog events are emitted.
func NewCatalogService(repo repositories.ProductRepository, publisher EventPublisher, log logrus.FieldLogger) *CatalogService {
	return &CatalogService{
		repo:      repo,
		publisher: publisher,
		validate:  validator.New(),
		log:       log,
		now:       time.Now,
	}
}

// List returns every product, most recently created first.
func (s *CatalogService) List(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// Get returns a single product.
func (s *CatalogService) Get(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates input and stores it as a new product.
func (s *CatalogService) Create(ctx context.Context, input models.ProductInput) (*models.Product, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, s.invalid(err)
	}
	if input.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}

	product := &models.Product{
		Title:       input.Title,
		Description: input.Description,
		Price:       *input.Price,
		ImageURL:    input.ImageURL,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.publish(EventProductCreated, product.ID, product)
	return product, nil
}

// Update applies a partial update. An empty patch returns the stored product unchanged.
func (s *CatalogService) Update(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	if err := s.validate.Struct(patch); err != nil {
		return nil, s.invalid(err)
	}
	if patch.Price != nil && patch.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}

	fields := patch.Fields()
	product, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	if len(fields) > 0 {
		s.publish(EventProductUpdated, product.ID, product)
	}
	return product, nil
}

// Delete removes a product.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(EventProductDeleted, id, nil)
	return nil
}

func (s *CatalogService) invalid(err error) error {
	if messages := ValidationMessages(err); messages != nil {
		return fmt.Errorf("%w: %s", ErrInvalidProduct, joinMessages(messages))
	}
	return fmt.Errorf("%w: %v", ErrInvalidProduct, err)
}

// publish emits a catalog event. Failures are logged and never fail the write.
func (s *CatalogService) publish(eventType, productID string, product *models.Product) {
	if s.publisher == nil {
		return
	}
	event := CatalogEvent{
		Type:       eventType,
		ProductID:  productID,
		Product:    product,
		OccurredAt: s.now().UTC(),
	}
	entry := s.log.WithFields(logrus.Fields{"event": eventType, "product_id": productID})
	if err := s.publisher.PublishJSON(event); err != nil {
		entry.WithError(err).Warn("failed to publish catalog event")
		return
	}
	entry.Debug("published catalog event")
}
