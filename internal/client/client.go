// Package client talks to the eshop HTTP API using the Fiber client agent.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"eshop/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds every request when the caller supplies no deadline.
const DefaultTimeout = 10 * time.Second

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client is an eshop API client.
type Client struct {
	baseURL string
	timeout time.Duration
	log     logrus.FieldLogger
}

// New creates a client for the API rooted at baseURL, e.g. http://localhost:8080/api.
func New(baseURL string, timeout time.Duration, log logrus.FieldLogger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		log:     log,
	}
}

// ListProducts fetches the whole catalog, newest first.
func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.do(ctx, fiber.MethodGet, "/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct fetches a single product.
func (c *Client) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := c.do(ctx, fiber.MethodGet, "/products/"+id, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct adds a product to the catalog.
func (c *Client) CreateProduct(ctx context.Context, input models.ProductInput) (*models.Product, error) {
	var product models.Product
	if err := c.do(ctx, fiber.MethodPost, "/products", input, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct sends the set fields of patch.
func (c *Client) UpdateProduct(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	var product models.Product
	if err := c.do(ctx, fiber.MethodPut, "/products/"+id, patch, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct removes a product.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, fiber.MethodDelete, "/products/"+id, nil, nil)
}

// Login checks credentials and returns the account on success.
func (c *Client) Login(ctx context.Context, identifier, password string) (*models.UserView, error) {
	var resp struct {
		Success bool            `json:"success"`
		User    models.UserView `json:"user"`
	}
	req := models.LoginRequest{Identifier: identifier, Password: password}
	if err := c.do(ctx, fiber.MethodPost, "/auth", req, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) error {
	return c.do(ctx, fiber.MethodPost, "/auth/register", req, nil)
}

func (c *Client) agent(method, url string) *fiber.Agent {
	switch method {
	case fiber.MethodPost:
		return fiber.Post(url)
	case fiber.MethodPut:
		return fiber.Put(url)
	case fiber.MethodDelete:
		return fiber.Delete(url)
	default:
		return fiber.Get(url)
	}
}

// do performs one request. A non-2xx response becomes an *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	url := c.baseURL + path
	a := c.agent(method, url).Timeout(timeout)
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if body != nil {
		a.JSON(body)
	}

	entry := c.log.WithFields(logrus.Fields{"method": method, "url": url})
	status, respBody, errs := a.Bytes()
	if len(errs) > 0 {
		err := errors.Join(errs...)
		entry.WithError(err).Debug("request failed")
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	entry.WithField("status", status).Debug("request completed")

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return &APIError{Status: status, Message: errorMessage(status, respBody)}
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, url, err)
	}
	return nil
}

// errorMessage extracts the most specific message from an error body.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Message string            `json:"message"`
		Error   string            `json:"error"`
		Errors  map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		if text := strings.TrimSpace(string(body)); text != "" {
			return text
		}
		return http.StatusText(status)
	}

	var parts []string
	switch {
	case payload.Message != "" && payload.Error != "":
		parts = append(parts, payload.Message+": "+payload.Error)
	case payload.Error != "":
		parts = append(parts, payload.Error)
	case payload.Message != "":
		parts = append(parts, payload.Message)
	}
	if len(payload.Errors) > 0 {
		fields := make([]string, 0, len(payload.Errors))
		for field := range payload.Errors {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			parts = append(parts, payload.Errors[field])
		}
	}
	if len(parts) == 0 {
		return http.StatusText(status)
	}
	return strings.Join(parts, "; ")
}
