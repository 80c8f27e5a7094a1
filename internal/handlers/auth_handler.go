package handlers

import (
	"errors"

	"eshop/internal/models"
	"eshop/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
	log         logrus.FieldLogger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
		log:         log,
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/", h.HandleLogin)
	authRoutes.Post("/register", h.HandleRegister)
}

// HandleRegister handles new account registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		h.log.WithError(err).Info("error parsing register request body")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Validation failed",
			"errors": services.ValidationMessages(err),
		})
	}

	if _, err := h.authService.Register(c.UserContext(), req); err != nil {
		switch {
		case errors.Is(err, services.ErrUsernameTaken):
			return registerConflict(c, "Username already exists")
		case errors.Is(err, services.ErrEmailTaken):
			return registerConflict(c, "Email already exists")
		case errors.Is(err, services.ErrMobileTaken):
			return registerConflict(c, "Mobile number already exists")
		case errors.Is(err, services.ErrAccountCreate):
			h.log.WithError(err).Error("error creating account")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to create user",
			})
		default:
			h.log.WithError(err).Error("error registering account")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Registration failed",
			})
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "User created successfully",
	})
}

// registerConflict reports an already used username, email or mobile. The
// message names the field so clients can highlight it.
func registerConflict(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": message,
	})
}

// HandleLogin checks an identifier (email, mobile or username) and password.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		h.log.WithError(err).Info("error parsing login request body")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Validation failed",
			"errors": services.ValidationMessages(err),
		})
	}

	user, err := h.authService.Authenticate(c.UserContext(), req.Identifier, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAccountNotFound):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
		case errors.Is(err, services.ErrInvalidPassword):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid password"})
		default:
			h.log.WithError(err).Error("error during login")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}
