package app

import (
	"context"
	"fmt"

	"github.com/louisbranch/challenge.space/internal/ledger"
	apperrors "github.com/louisbranch/challenge.space/internal/platform/errors"
	"github.com/louisbranch/challenge.space/internal/services/challenge/domain"
)

// ChallengeInput is the payload of CreateChallenge.
type ChallengeInput struct {
	ChallengeID string
	ProjectID   string
	Name        string
	Description string
	Phases      []domain.Phase
	Prizes      domain.Prizes
}

// ChallengeUpdate is the payload of UpdateChallenge. Nil fields are
// unchanged; a non-nil Phases replaces the whole schedule.
type ChallengeUpdate struct {
	Name        *string
	Description *string
	Prizes      *domain.Prizes
	Phases      []domain.Phase
}

// CreateChallenge writes the schedule and then the challenge in the
// Pending phase. The project must be visible to the requester.
func (s *Service) CreateChallenge(ctx context.Context, requester *domain.Requester, in ChallengeInput) (*domain.Aggregate, error) {
	if err := requireRole(requester, domain.RoleCopilot, domain.RoleManager); err != nil {
		return nil, err
	}
	if err := required("challengeId", in.ChallengeID, "projectId", in.ProjectID, "name", in.Name); err != nil {
		return nil, err
	}
	if _, err := s.GetProject(ctx, requester, in.ProjectID); err != nil {
		return nil, err
	}
	if err := domain.ValidatePhases(in.Phases); err != nil {
		return nil, err
	}

	client, err := s.clientFor(ctx, requester)
	if err != nil {
		return nil, err
	}
	existing, err := ledger.QueryEntity[domain.Challenge](ctx, client, ledger.PublicChallenge, "getChallengeById", in.ChallengeID)
	if err != nil {
		return nil, fmt.Errorf("read challenge %s: %w", in.ChallengeID, err)
	}
	if existing != nil {
		return nil, apperrors.Newf(apperrors.CodeConflict, "challenge %s already exists", in.ChallengeID)
	}

	challenge := domain.Challenge{
		ChallengeID:  in.ChallengeID,
		ProjectID:    in.ProjectID,
		Name:         in.Name,
		Description:  in.Description,
		CurrentPhase: domain.PhasePending,
		Prizes:       in.Prizes,
		CreatedBy:    requester.MemberID,
	}
	if err := writePhases(ctx, client, in.ChallengeID, in.Phases); err != nil {
		return nil, err
	}
	if _, err := client.InvokeEntity(ctx, ledger.PublicChallenge, "createChallenge", challenge, ledger.InvokeOptions{}); err != nil {
		return nil, err
	}
	return &domain.Aggregate{Challenge: challenge, Phases: append([]domain.Phase(nil), in.Phases...)}, nil
}

// UpdateChallenge merges update into the stored challenge. The write
// carries the current phase back to the ledger, so every update holds the
// challenge's transition token and fails with a busy error while a
// transition is in flight.
func (s *Service) UpdateChallenge(ctx context.Context, requester *domain.Requester, challengeID string, update ChallengeUpdate) (domain.Challenge, error) {
	if err := requireRole(requester, domain.RoleCopilot, domain.RoleManager); err != nil {
		return domain.Challenge{}, err
	}
	if update.Phases != nil {
		if err := domain.ValidatePhases(update.Phases); err != nil {
			return domain.Challenge{}, err
		}
	}
	release, ok := s.locks.TryAcquire(challengeID)
	if !ok {
		return domain.Challenge{}, busy(challengeID)
	}
	defer release()
	return s.updateChallenge(ctx, requester, challengeID, update, "")
}

// updateChallenge writes the merged challenge and, when given, the new
// schedule. A nil requester writes as the system account. The caller holds
// the transition token.
func (s *Service) updateChallenge(ctx context.Context, requester *domain.Requester, challengeID string, update ChallengeUpdate, phase domain.PhaseName) (domain.Challenge, error) {
	client, err := s.clientFor(ctx, requester)
	if err != nil {
		return domain.Challenge{}, err
	}
	current, err := ledger.QueryEntity[domain.Challenge](ctx, client, ledger.PublicChallenge, "getChallengeById", challengeID)
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("read challenge %s: %w", challengeID, err)
	}
	if current == nil {
		return domain.Challenge{}, notFound("challenge", challengeID)
	}

	updated := *current
	if update.Name != nil {
		updated.Name = *update.Name
	}
	if update.Description != nil {
		updated.Description = *update.Description
	}
	if update.Prizes != nil {
		updated.Prizes = *update.Prizes
	}
	if phase != "" {
		updated.CurrentPhase = phase
	}
	if requester != nil {
		updated.UpdatedBy = requester.MemberID
	}

	if _, err := client.InvokeEntity(ctx, ledger.PublicChallenge, "updateChallenge", updated, ledger.InvokeOptions{}); err != nil {
		return domain.Challenge{}, err
	}
	if update.Phases != nil {
		if err := writePhases(ctx, client, challengeID, update.Phases); err != nil {
			return domain.Challenge{}, err
		}
	}
	return updated, nil
}

func writePhases(ctx context.Context, client *ledger.Client, challengeID string, phases []domain.Phase) error {
	for i, phase := range phases {
		opts := ledger.InvokeOptions{ExtraArgs: []any{challengeID, int64(i)}}
		if _, err := client.InvokeEntity(ctx, ledger.PublicChallenge, "addChallengePhase", phase, opts); err != nil {
			return err
		}
	}
	return nil
}

// ListChallenges lists every challenge record without its sub-records.
func (s *Service) ListChallenges(ctx context.Context) ([]domain.Challenge, error) {
	client, err := s.system(ctx)
	if err != nil {
		return nil, err
	}
	challenges, err := ledger.QueryEntityList[domain.Challenge](ctx, client, ledger.PublicChallenge, "getChallenge")
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	return challenges, nil
}

// GetChallenge assembles a challenge and narrows it to what requester may
// see. A nil requester is anonymous.
func (s *Service) GetChallenge(ctx context.Context, requester *domain.Requester, challengeID string) (*domain.Aggregate, error) {
	agg, err := s.Assemble(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	var opts domain.RedactOptions
	if requester.Is(domain.RoleCopilot) {
		opts.OwnsProject = s.ownsProject(ctx, requester, agg.ProjectID)
	}
	return domain.Redact(agg, requester, opts), nil
}

// ownsProject reports whether a copilot is assigned to projectID. Lookup
// failures count as not owning it.
func (s *Service) ownsProject(ctx context.Context, requester *domain.Requester, projectID string) bool {
	project, err := s.GetProject(ctx, requester, projectID)
	if err != nil {
		if !apperrors.HasCode(err, apperrors.CodeNotFound) {
			s.logf("project lookup for copilot %s on %s: %v", requester.MemberID, projectID, err)
		}
		return false
	}
	return project.CopilotID == requester.MemberID
}

// OngoingChallengeIDs lists the challenges that have not completed.
func (s *Service) OngoingChallengeIDs(ctx context.Context) ([]string, error) {
	client, err := s.system(ctx)
	if err != nil {
		return nil, err
	}
	refs, err := ledger.QueryEntityList[domain.ChallengeRef](ctx, client, ledger.PublicChallenge, "getOnGoingChallenge")
	if err != nil {
		return nil, fmt.Errorf("list on-going challenges: %w", err)
	}
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.ID)
	}
	return ids, nil
}

// ListOngoingChallenges assembles every challenge that has not completed.
func (s *Service) ListOngoingChallenges(ctx context.Context) ([]*domain.Aggregate, error) {
	ids, err := s.OngoingChallengeIDs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Aggregate, 0, len(ids))
	for _, id := range ids {
		agg, err := s.Assemble(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, agg)
	}
	return out, nil
}

func busy(challengeID string) error {
	return apperrors.WithMetadata(apperrors.CodeBusy,
		fmt.Sprintf("challenge %s is being transitioned", challengeID),
		map[string]string{"ChallengeID": challengeID})
}
