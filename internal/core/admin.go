package core

import (
	"context"
	"errors"
	"fmt"

	"dairy-backend-go/internal/db"
	"dairy-backend-go/internal/models"
)

const (
	adminName  = "Admin"
	adminPhone = "1234567890"
)

// EnsureAdmin creates an admin with the given credentials unless a user with that email
// already exists. It reports whether a user was written.
func EnsureAdmin(ctx context.Context, users db.UserRepository, email, password string) (bool, error) {
	email = db.NormalizeEmail(email)
	if email == "" || password == "" {
		return false, errors.New("admin email and password are required")
	}

	_, err := users.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return false, fmt.Errorf("failed to look up admin '%s': %w", email, err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}
	now := utcNow()
	if _, err := users.Create(ctx, &models.User{
		Name:      adminName,
		Email:     email,
		Phone:     adminPhone,
		Role:      models.RoleAdmin,
		Password:  hash,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return false, fmt.Errorf("failed to create admin: %w", err)
	}
	return true, nil
}
