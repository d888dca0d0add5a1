package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/garyjia/clinic-invoice/internal/application/port"
	"github.com/garyjia/clinic-invoice/internal/domain/entity"
)

// ErrInvalidToken is returned for any token that does not yield a session
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims are the access token claims issued by Supabase Auth
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Config configures token verification
type Config struct {
	Secret string
	// Issuer and Audience are checked when non-empty
	Issuer   string
	Audience string
}

// Verifier implements port.SessionVerifier for HS256 access tokens
type Verifier struct {
	secret  []byte
	options []jwt.ParserOption
	cfg     Config
}

// NewVerifier creates a new token verifier
func NewVerifier(cfg Config) (*Verifier, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		options = append(options, jwt.WithAudience(cfg.Audience))
	}

	return &Verifier{secret: []byte(cfg.Secret), options: options, cfg: cfg}, nil
}

// Verify parses token and returns the session of its subject
func (v *Verifier) Verify(ctx context.Context, token string) (*entity.Session, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, v.options...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	owner, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}

	return &entity.Session{OwnerID: owner.String(), Email: claims.Email}, nil
}

// Issue signs an access token for ownerID, for local development without Supabase
func (v *Verifier) Issue(ownerID, email string, ttl time.Duration) (string, error) {
	if _, err := uuid.Parse(ownerID); err != nil {
		return "", fmt.Errorf("invalid owner id: %w", err)
	}

	now := time.Now()
	claims := &Claims{
		Email: email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ownerID,
			Issuer:    v.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if v.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{v.cfg.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify interface compliance
var _ port.SessionVerifier = (*Verifier)(nil)
