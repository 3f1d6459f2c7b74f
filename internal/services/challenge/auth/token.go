// Package auth issues and verifies bearer tokens and resolves them to the
// requester identity the challenge service trusts.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/challenge.space/internal/platform/errors"
	"github.com/louisbranch/challenge.space/internal/services/challenge/domain"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 365 * 24 * time.Hour

// tokenEnv holds raw env values before validation.
type tokenEnv struct {
	Secret string        `env:"CHALLENGE_SPACE_JWT_SECRET"`
	TTL    time.Duration `env:"CHALLENGE_SPACE_TOKEN_TTL" envDefault:"8760h"`
}

// Config defines how tokens are signed.
type Config struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

// LoadConfigFromEnv reads token configuration.
func LoadConfigFromEnv(now func() time.Time) (Config, error) {
	var raw tokenEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse token env: %w", err)
	}
	secret := strings.TrimSpace(raw.Secret)
	if secret == "" {
		return Config{}, fmt.Errorf("CHALLENGE_SPACE_JWT_SECRET is required")
	}
	return Config{Secret: []byte(secret), TTL: raw.TTL, Now: now}, nil
}

// Claims are the verified contents of a token.
type Claims struct {
	MemberID  string
	Email     string
	ExpiresAt time.Time
}

type tokenUser struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

type tokenClaims struct {
	jwt.RegisteredClaims
	User tokenUser `json:"user"`
}

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer validates cfg and returns an issuer.
func NewIssuer(cfg Config) (*Issuer, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTokenTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Issuer{secret: cfg.Secret, ttl: cfg.TTL, now: cfg.Now}, nil
}

// Issue signs a token for user.
func (i *Issuer) Issue(user domain.User) (string, error) {
	if strings.TrimSpace(user.MemberID) == "" {
		return "", errors.New("member id is required")
	}
	now := i.now().UTC()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.MemberID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		User: tokenUser{ID: user.MemberID, Email: user.Email},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token.
func (i *Issuer) Verify(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, apperrors.New(apperrors.CodeUnauthenticated, "token is required")
	}
	var parsed tokenClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}
	if strings.TrimSpace(parsed.User.ID) == "" {
		return Claims{}, apperrors.New(apperrors.CodeUnauthenticated, "invalid token: missing user")
	}
	return Claims{
		MemberID:  parsed.User.ID,
		Email:     parsed.User.Email,
		ExpiresAt: parsed.ExpiresAt.Time.UTC(),
	}, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperrors.Wrap(apperrors.CodeUnauthenticated, "token is expired", err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return apperrors.Wrap(apperrors.CodeUnauthenticated, "token signature is invalid", err)
	default:
		return apperrors.Wrap(apperrors.CodeUnauthenticated, "invalid token", err)
	}
}
