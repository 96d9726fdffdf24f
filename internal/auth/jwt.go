package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"dairy-backend-go/internal/models"
)

var (
	// ErrInvalidToken covers malformed, badly signed, expired and revoked tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Verifier turns a bearer token into the caller's identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (models.Identity, error)
}

// Claims is the JWT payload. userId and role are the fields clients read.
type Claims struct {
	UserID string      `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTConfig configures a JWTManager.
type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// JWTManager issues and verifies HS256 tokens. When a Revoker is set, revoked token ids
// are rejected during verification.
type JWTManager struct {
	secret  []byte
	issuer  string
	ttl     time.Duration
	revoker *Revoker
	now     func() time.Time
}

// NewJWTManager creates a JWTManager. revoker may be nil.
func NewJWTManager(cfg JWTConfig, revoker *Revoker) (*JWTManager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("jwt ttl must be positive")
	}
	return &JWTManager{
		secret:  []byte(cfg.Secret),
		issuer:  cfg.Issuer,
		ttl:     cfg.TTL,
		revoker: revoker,
		now:     time.Now,
	}, nil
}

// Issue signs a token for user and returns it with its expiry.
func (m *JWTManager) Issue(user *models.User) (string, time.Time, error) {
	issuedAt := m.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(m.ttl)
	claims := Claims{
		UserID: user.ID,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, issuer, expiry, role and revocation.
func (m *JWTManager) Verify(ctx context.Context, token string) (models.Identity, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return models.Identity{}, fmt.Errorf("%w: missing userId", ErrInvalidToken)
	}
	role, err := models.ParseRole(claims.Role)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if m.revoker != nil && claims.ID != "" {
		revoked, err := m.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return models.Identity{}, err
		}
		if revoked {
			return models.Identity{}, fmt.Errorf("%w: token has been revoked", ErrInvalidToken)
		}
	}

	identity := models.Identity{UserID: claims.UserID, Role: role, TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}
