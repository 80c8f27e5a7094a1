package models

import "time"

// User represents an admin console account.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username  string    `json:"username" gorm:"uniqueIndex;type:varchar(100);not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Mobile    string    `json:"mobile" gorm:"uniqueIndex;type:varchar(32);not null"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null"` // encoded hash, never plaintext
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserView is the account projection returned after a successful login.
type UserView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// View strips the account down to its public projection.
func (u *User) View() UserView {
	return UserView{ID: u.ID, Username: u.Username, Email: u.Email}
}

// RegisterRequest represents the request body for account registration.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Mobile   string `json:"mobile" validate:"required,numeric,min=6,max=20"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// LoginRequest represents the request body for a credential check.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}
