package app

import (
	"context"

	"github.com/louisbranch/challenge.space/internal/ledger"
	apperrors "github.com/louisbranch/challenge.space/internal/platform/errors"
	"github.com/louisbranch/challenge.space/internal/services/challenge/domain"
)

// RegisterMember registers the requesting member during the Register phase.
func (s *Service) RegisterMember(ctx context.Context, requester *domain.Requester, challengeID string) error {
	return s.setMembership(ctx, requester, challengeID, "registerChallenge")
}

// UnregisterMember withdraws the requesting member during the Register phase.
func (s *Service) UnregisterMember(ctx context.Context, requester *domain.Requester, challengeID string) error {
	return s.setMembership(ctx, requester, challengeID, "unregisterChallenge")
}

func (s *Service) setMembership(ctx context.Context, requester *domain.Requester, challengeID, method string) error {
	if err := requireRole(requester, domain.RoleMember); err != nil {
		return err
	}
	agg, err := s.Assemble(ctx, challengeID)
	if err != nil {
		return err
	}
	if agg.CurrentPhase != domain.PhaseRegister {
		return phaseForbidden(agg.CurrentPhase, "registration is only open in the Register phase")
	}
	client, err := s.clientFor(ctx, requester)
	if err != nil {
		return err
	}
	_, err = client.Invoke(ctx, ledger.PublicChallengeMember, method, []any{challengeID}, ledger.InvokeOptions{})
	return err
}

// RegisterReviewer assigns reviewerID, who must be a user with the
// reviewer role.
func (s *Service) RegisterReviewer(ctx context.Context, requester *domain.Requester, challengeID, reviewerID string) error {
	if err := requireRole(requester, domain.RoleCopilot, domain.RoleManager); err != nil {
		return err
	}
	if err := s.expectRole(ctx, reviewerID, domain.RoleReviewer); err != nil {
		return err
	}
	client, err := s.clientFor(ctx, requester)
	if err != nil {
		return err
	}
	_, err = client.Invoke(ctx, ledger.PublicChallengeReview, "registerReviewer", []any{challengeID, reviewerID}, ledger.InvokeOptions{})
	return err
}

// UnregisterReviewer removes reviewerID from the challenge.
func (s *Service) UnregisterReviewer(ctx context.Context, requester *domain.Requester, challengeID, reviewerID string) error {
	if err := requireRole(requester, domain.RoleCopilot, domain.RoleManager); err != nil {
		return err
	}
	if err := required("reviewerId", reviewerID); err != nil {
		return err
	}
	client, err := s.clientFor(ctx, requester)
	if err != nil {
		return err
	}
	_, err = client.Invoke(ctx, ledger.PublicChallengeReview, "unregisterReviewer", []any{challengeID, reviewerID}, ledger.InvokeOptions{})
	return err
}

func phaseForbidden(current domain.PhaseName, message string) error {
	return apperrors.WithMetadata(apperrors.CodeForbidden, message,
		map[string]string{"Phase": string(current)})
}

func forbidden(message string) error {
	return apperrors.New(apperrors.CodeForbidden, message)
}
