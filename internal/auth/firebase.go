package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"

	"dairy-backend-go/internal/db"
	"dairy-backend-go/internal/models"
)

// idTokenVerifier is the part of *firebaseauth.Client used here.
type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// FirebaseVerifier accepts Firebase ID tokens. The token's email claim is matched to a stored
// user, whose id and role become the caller identity.
type FirebaseVerifier struct {
	client idTokenVerifier
	users  db.UserRepository
}

// NewFirebaseVerifier creates a FirebaseVerifier.
func NewFirebaseVerifier(client *firebaseauth.Client, users db.UserRepository) *FirebaseVerifier {
	return &FirebaseVerifier{client: client, users: users}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (models.Identity, error) {
	idToken, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	email, _ := idToken.Claims["email"].(string)
	if email == "" {
		return models.Identity{}, fmt.Errorf("%w: firebase token has no email claim", ErrInvalidToken)
	}

	user, err := v.users.GetByEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		return models.Identity{}, fmt.Errorf("%w: no user registered for %s", ErrInvalidToken, email)
	}
	if err != nil {
		return models.Identity{}, fmt.Errorf("failed to resolve firebase user: %w", err)
	}
	role, err := models.ParseRole(string(user.Role))
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: user %s: %v", ErrInvalidToken, user.ID, err)
	}
	return models.Identity{
		UserID:    user.ID,
		Role:      role,
		ExpiresAt: time.Unix(idToken.Expires, 0).UTC(),
	}, nil
}

// ChainVerifier tries each verifier in order and returns the first identity that verifies.
type ChainVerifier []Verifier

func (c ChainVerifier) Verify(ctx context.Context, token string) (models.Identity, error) {
	err := ErrInvalidToken
	for _, v := range c {
		identity, verr := v.Verify(ctx, token)
		if verr == nil {
			return identity, nil
		}
		if !errors.Is(verr, ErrInvalidToken) {
			// Store or cache failures are not a verdict on the token.
			return models.Identity{}, verr
		}
		err = verr
	}
	return models.Identity{}, err
}
