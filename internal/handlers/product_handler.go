package handlers

import (
	"errors"
	"fmt"

	"eshop/internal/models"
	"eshop/internal/repositories"
	"eshop/internal/services"
	"eshop/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	service *services.CatalogService
	log     logrus.FieldLogger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.CatalogService, log logrus.FieldLogger) *ProductHandler {
	return &ProductHandler{
		service: service,
		log:     log,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Get("/:id", h.HandleGetProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleListProducts returns every product, newest first.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	products, err := h.service.List(c.UserContext())
	if err != nil {
		return h.fail(c, "Failed to fetch products", err)
	}
	return c.JSON(products)
}

// HandleGetProduct returns a single product.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	product, err := h.service.Get(c.UserContext(), productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Product with ID %s not found", productID),
			})
		}
		return h.fail(c, "Failed to fetch product", err)
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var input models.ProductInput
	if err := c.BodyParser(&input); err != nil {
		return h.badRequest(c, err)
	}

	product, err := h.service.Create(c.UserContext(), input)
	if err != nil {
		return h.fail(c, "Failed to create product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct applies a partial update. A missing product is reported
// like any other gateway failure.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	var patch models.ProductPatch
	if err := c.BodyParser(&patch); err != nil {
		return h.badRequest(c, err)
	}

	product, err := h.service.Update(c.UserContext(), productID, patch)
	if err != nil {
		return h.fail(c, "Failed to update product", err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	if err := h.service.Delete(c.UserContext(), productID); err != nil {
		return h.fail(c, "Failed to delete product", err)
	}
	return c.JSON(fiber.Map{
		"message": "Product deleted successfully",
	})
}

func (h *ProductHandler) badRequest(c *fiber.Ctx, err error) error {
	h.log.WithError(err).WithField("path", c.Path()).Info("invalid product request body")
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}

// fail reports a gateway failure as a 500 carrying the gateway's message verbatim.
func (h *ProductHandler) fail(c *fiber.Ctx, message string, err error) error {
	logger.LogError(h.log, message, err, logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
	})
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}
