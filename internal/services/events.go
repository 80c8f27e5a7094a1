package services

import (
	"time"

	"eshop/internal/models"
)

// Catalog event types published after successful writes.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// CatalogEvent describes a change to the product catalog.
type CatalogEvent struct {
	Type       string          `json:"type"`
	ProductID  string          `json:"product_id"`
	Product    *models.Product `json:"product,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// EventPublisher delivers catalog events to downstream consumers.
type EventPublisher interface {
	PublishJSON(payload interface{}) error
}
