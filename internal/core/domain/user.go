package domain

import (
	"strings"
	"time"
)

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// ValidRole reports whether role belongs to the closed set of portal roles.
func ValidRole(role string) bool {
	return role == RoleStudent || role == RoleTeacher
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// User models a registered portal member.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Department   string    `json:"department"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is the verified caller carried on each authenticated request.
type Identity struct {
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"-"`
	ExpiresAt time.Time `json:"-"`
}
