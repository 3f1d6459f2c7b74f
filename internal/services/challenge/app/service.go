// Package app implements the challenge service operations over the ledger:
// assembling challenge aggregates, enforcing role and phase rules, and
// driving phase transitions.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/challenge.space/internal/ledger"
	apperrors "github.com/louisbranch/challenge.space/internal/platform/errors"
	"github.com/louisbranch/challenge.space/internal/platform/id"
	"github.com/louisbranch/challenge.space/internal/services/challenge/domain"
	"github.com/louisbranch/challenge.space/internal/services/challenge/storage"
)

// Ledger hands out ledger clients bound to a node and account.
type Ledger interface {
	// Client signs as address on the node serving role.
	Client(ctx context.Context, role, address string) (*ledger.Client, error)
	// System signs as the system account.
	System(ctx context.Context) (*ledger.Client, error)
	// PrivateFor lists the recipients of private writes made by role.
	PrivateFor(role string) []string
	// NewAccount creates a ledger account on the node serving role.
	NewAccount(ctx context.Context, role string) (string, error)
}

// TokenIssuer signs bearer tokens for logged in users.
type TokenIssuer interface {
	Issue(user domain.User) (string, error)
}

// Service implements challenge, project and user operations.
type Service struct {
	ledger Ledger
	blobs  storage.BlobStore
	tokens TokenIssuer
	locks  *LockTable
	clock  func() time.Time
	newID  func() (string, error)
	logf   func(string, ...any)
}

// Option configures a Service.
type Option func(*Service)

// WithBlobStore sets the submission file store.
func WithBlobStore(blobs storage.BlobStore) Option {
	return func(s *Service) { s.blobs = blobs }
}

// WithTokenIssuer sets the issuer used by Login.
func WithTokenIssuer(tokens TokenIssuer) Option {
	return func(s *Service) { s.tokens = tokens }
}

// WithLockTable shares a transition lock table with other services.
func WithLockTable(locks *LockTable) Option {
	return func(s *Service) {
		if locks != nil {
			s.locks = locks
		}
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator overrides submission id generation.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithLogger sets the log function.
func WithLogger(logf func(string, ...any)) Option {
	return func(s *Service) {
		if logf != nil {
			s.logf = logf
		}
	}
}

// NewService builds a service over l.
func NewService(l Ledger, opts ...Option) *Service {
	s := &Service{
		ledger: l,
		locks:  NewLockTable(),
		clock:  time.Now,
		newID:  id.NewID,
		logf:   func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Locks returns the transition lock table.
func (s *Service) Locks() *LockTable { return s.locks }

func (s *Service) now() time.Time { return s.clock().UTC() }

func (s *Service) system(ctx context.Context) (*ledger.Client, error) {
	client, err := s.ledger.System(ctx)
	if err != nil {
		return nil, fmt.Errorf("system ledger client: %w", err)
	}
	return client, nil
}

// clientFor returns the client of requester, or the system client when
// requester is nil.
func (s *Service) clientFor(ctx context.Context, requester *domain.Requester) (*ledger.Client, error) {
	if requester == nil {
		return s.system(ctx)
	}
	client, err := s.ledger.Client(ctx, string(requester.Role), requester.Address)
	if err != nil {
		return nil, fmt.Errorf("ledger client for %s: %w", requester.MemberID, err)
	}
	return client, nil
}

func requireRequester(requester *domain.Requester) error {
	if requester == nil || requester.MemberID == "" {
		return apperrors.New(apperrors.CodeUnauthenticated, "authentication is required")
	}
	return nil
}

func requireRole(requester *domain.Requester, roles ...domain.Role) error {
	if err := requireRequester(requester); err != nil {
		return err
	}
	for _, role := range roles {
		if requester.Role == role {
			return nil
		}
	}
	return apperrors.WithMetadata(apperrors.CodeForbidden,
		fmt.Sprintf("role %s cannot perform this operation", requester.Role),
		map[string]string{"Role": string(requester.Role)})
}

// required checks name/value pairs in order and reports the first empty
// value.
func required(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return apperrors.Newf(apperrors.CodeValidation, "%s is required", pairs[i])
		}
	}
	return nil
}
