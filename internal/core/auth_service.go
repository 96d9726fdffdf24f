package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"dairy-backend-go/internal/db"
	"dairy-backend-go/internal/models"
)

const invalidCredentials = "Invalid credentials"

type authService struct {
	users   db.UserRepository
	issuer  TokenIssuer
	revoker TokenRevoker
	logger  *zap.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(users db.UserRepository, issuer TokenIssuer, revoker TokenRevoker, logger *zap.Logger) AuthService {
	return &authService{users: users, issuer: issuer, revoker: revoker, logger: logger}
}

// Login matches the email (or username) case-insensitively and checks the bcrypt hash. Unknown
// users and wrong passwords are indistinguishable to the caller.
func (s *authService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	identifier := strings.TrimSpace(req.Identifier())
	if identifier == "" || req.Password == "" {
		return nil, newError(ErrValidation, "Email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, identifier)
	if errors.Is(err, db.ErrNotFound) {
		return nil, newError(ErrUnauthenticated, invalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user for login: %w", err)
	}
	if user.Password == "" || !CheckPassword(user.Password, req.Password) {
		s.logger.Info("Rejected login", zap.String("userId", user.ID))
		return nil, newError(ErrUnauthenticated, invalidCredentials)
	}

	token, expiresAt, err := s.issuer.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token for '%s': %w", user.ID, err)
	}
	return &models.LoginResponse{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *authService) Logout(ctx context.Context, caller models.Identity) error {
	if caller.TokenID == "" {
		// Firebase ID tokens are revoked through Firebase itself.
		return nil
	}
	if err := s.revoker.Revoke(ctx, caller.TokenID, caller.ExpiresAt); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

type userService struct {
	users db.UserRepository
}

// NewUserService creates a UserService.
func NewUserService(users db.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) GetProfile(ctx context.Context, caller models.Identity) (*models.User, error) {
	u, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, notFoundOr(err, "User", caller.UserID)
	}
	return u, nil
}
