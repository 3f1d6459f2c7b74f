package app

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/louisbranch/challenge.space/internal/ledger"
	apperrors "github.com/louisbranch/challenge.space/internal/platform/errors"
	"github.com/louisbranch/challenge.space/internal/services/challenge/domain"
)

// UserInput is the payload of CreateUser.
type UserInput struct {
	MemberID string
	Email    string
	Role     domain.Role
}

// CreateUser creates a ledger account on the node of the user's role and
// registers the user with the system account.
func (s *Service) CreateUser(ctx context.Context, in UserInput) (domain.User, error) {
	if err := required("memberId", in.MemberID); err != nil {
		return domain.User{}, err
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return domain.User{}, apperrors.Newf(apperrors.CodeValidation, "invalid email %q", in.Email)
	}
	if !in.Role.Valid() {
		return domain.User{}, apperrors.Newf(apperrors.CodeValidation, "unknown role %q", in.Role)
	}

	client, err := s.system(ctx)
	if err != nil {
		return domain.User{}, err
	}
	byEmail, err := ledger.QueryEntity[domain.User](ctx, client, ledger.PublicUser, "getUserByEmail", in.Email)
	if err != nil {
		return domain.User{}, fmt.Errorf("read user by email: %w", err)
	}
	if byEmail != nil {
		return domain.User{}, apperrors.Newf(apperrors.CodeConflict, "user with email %s already exists", in.Email)
	}
	byID, err := ledger.QueryEntity[domain.User](ctx, client, ledger.PublicUser, "getUserById", in.MemberID)
	if err != nil {
		return domain.User{}, fmt.Errorf("read user by id: %w", err)
	}
	if byID != nil {
		return domain.User{}, apperrors.Newf(apperrors.CodeConflict, "user with id %s already exists", in.MemberID)
	}

	address, err := s.ledger.NewAccount(ctx, string(in.Role))
	if err != nil {
		return domain.User{}, fmt.Errorf("create ledger account: %w", err)
	}
	user := domain.User{MemberID: in.MemberID, Email: in.Email, Role: in.Role, Address: address}
	if _, err := client.InvokeEntity(ctx, ledger.PublicUser, "createUser", user, ledger.InvokeOptions{}); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// GetUser reads a user by member id.
func (s *Service) GetUser(ctx context.Context, memberID string) (domain.User, error) {
	user, err := s.lookupUser(ctx, memberID)
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, notFound("user", memberID)
	}
	return *user, nil
}

// ListUsers lists every registered user.
func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	client, err := s.system(ctx)
	if err != nil {
		return nil, err
	}
	users, err := ledger.QueryEntityList[domain.User](ctx, client, ledger.PublicUser, "getUser")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Login issues a bearer token for memberID.
func (s *Service) Login(ctx context.Context, memberID string) (string, error) {
	if s.tokens == nil {
		return "", fmt.Errorf("token issuer is not configured")
	}
	user, err := s.GetUser(ctx, memberID)
	if err != nil {
		return "", err
	}
	return s.tokens.Issue(user)
}

func (s *Service) lookupUser(ctx context.Context, memberID string) (*domain.User, error) {
	client, err := s.system(ctx)
	if err != nil {
		return nil, err
	}
	user, err := ledger.QueryEntity[domain.User](ctx, client, ledger.PublicUser, "getUserById", memberID)
	if err != nil {
		return nil, fmt.Errorf("read user %s: %w", memberID, err)
	}
	return user, nil
}
