package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"dairy-backend-go/internal/db"
	"dairy-backend-go/internal/events"
	"dairy-backend-go/internal/models"
)

// HashPassword returns the bcrypt hash stored in User.Password.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches the stored bcrypt hash.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func utcNow() time.Time { return time.Now().UTC() }

// publish sends an event and only logs failures; the write it describes has already succeeded.
func publish(ctx context.Context, p events.Publisher, logger *zap.Logger, event events.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish event",
			zap.String("type", string(event.Type)),
			zap.String("resourceId", event.ResourceID),
			zap.Error(err))
	}
}

// userSummary loads a referenced user for a populated view. A dangling reference yields nil.
func userSummary(ctx context.Context, users db.UserRepository, userID string, project func(*models.User) *models.UserSummary) (*models.UserSummary, error) {
	if userID == "" {
		return nil, nil
	}
	u, err := users.GetByID(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load referenced user '%s': %w", userID, err)
	}
	return project(u), nil
}

func validateProducts(products []models.Product) []string {
	var problems []string
	for i, p := range products {
		if strings.TrimSpace(p.Name) == "" {
			problems = append(problems, fmt.Sprintf("products[%d].name is required", i))
		}
		if strings.TrimSpace(p.Unit) == "" {
			problems = append(problems, fmt.Sprintf("products[%d].unit is required", i))
		}
		if p.Price < 0 || p.Quantity < 0 {
			problems = append(problems, fmt.Sprintf("products[%d] price and quantity must not be negative", i))
		}
	}
	return problems
}

func validationError(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return newError(ErrValidation, "%s", strings.Join(problems, "; "))
}
