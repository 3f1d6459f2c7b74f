package auth

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/challenge.space/internal/platform/errors"
	"github.com/louisbranch/challenge.space/internal/services/challenge/domain"
)

const bearerPrefix = "Bearer "

// UserLookup finds registered users.
type UserLookup interface {
	GetUser(ctx context.Context, memberID string) (domain.User, error)
}

// Policy lists who may call an operation.
type Policy struct {
	Roles []domain.Role
	// Anonymous admits callers without a token and skips the role check
	// for callers with one.
	Anonymous bool
}

// Resolver turns an Authorization header into a requester.
type Resolver struct {
	issuer *Issuer
	users  UserLookup
}

// NewResolver builds a resolver.
func NewResolver(issuer *Issuer, users UserLookup) *Resolver {
	return &Resolver{issuer: issuer, users: users}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	token, ok := strings.CutPrefix(strings.TrimSpace(header), bearerPrefix)
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// Authenticate resolves header under policy. It returns a nil requester
// for an admitted anonymous caller.
func (r *Resolver) Authenticate(ctx context.Context, header string, policy Policy) (*domain.Requester, error) {
	token := BearerToken(header)
	if token == "" {
		if policy.Anonymous {
			return nil, nil
		}
		return nil, apperrors.New(apperrors.CodeUnauthenticated, "authentication is required")
	}
	claims, err := r.issuer.Verify(token)
	if err != nil {
		return nil, err
	}
	user, err := r.users.GetUser(ctx, claims.MemberID)
	if apperrors.HasCode(err, apperrors.CodeNotFound) {
		return nil, apperrors.New(apperrors.CodeUnauthenticated, "invalid token: cannot find the user")
	}
	if err != nil {
		return nil, fmt.Errorf("resolve token user: %w", err)
	}
	if !policy.Anonymous && !hasRole(policy.Roles, user.Role) {
		return nil, apperrors.WithMetadata(apperrors.CodeForbidden,
			fmt.Sprintf("permission denied for role %s", user.Role),
			map[string]string{"Role": string(user.Role)})
	}
	return user.Requester(), nil
}

func hasRole(roles []domain.Role, role domain.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
