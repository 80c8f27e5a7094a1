package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"eshop/internal/models"

	"github.com/google/uuid"
)

// MockUserRepository is an in-memory implementation of UserRepository.
type MockUserRepository struct {
	users map[string]models.User
	mu    sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]models.User),
	}
}

// Create adds a new user, enforcing the same uniqueness rules as the database indexes.
func (r *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email || u.Mobile == user.Mobile {
			return fmt.Errorf("failed to create user: unique constraint violated")
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

// GetByUsername returns a user by username.
func (r *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.find("username", username, func(u models.User) bool { return u.Username == username })
}

// GetByEmail returns a user by email.
func (r *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find("email", email, func(u models.User) bool { return u.Email == email })
}

// GetByMobile returns a user by mobile number.
func (r *MockUserRepository) GetByMobile(ctx context.Context, mobile string) (*models.User, error) {
	return r.find("mobile", mobile, func(u models.User) bool { return u.Mobile == mobile })
}

// GetByID returns a user by ID.
func (r *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.find("id", id, func(u models.User) bool { return u.ID == id })
}

// UpdatePassword replaces the stored password hash of a user.
func (r *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user with ID %s not found: %w", id, ErrNotFound)
	}
	user.Password = passwordHash
	user.UpdatedAt = time.Now()
	r.users[id] = user
	return nil
}

func (r *MockUserRepository) find(column, value string, match func(models.User) bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, fmt.Errorf("user with %s %s not found: %w", column, value, ErrNotFound)
}
