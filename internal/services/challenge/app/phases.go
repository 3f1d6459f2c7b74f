package app

import (
	"context"
	"fmt"

	apperrors "github.com/louisbranch/challenge.space/internal/platform/errors"
	"github.com/louisbranch/challenge.space/internal/services/challenge/domain"
)

// Outcome is the result of one phase evaluation.
type Outcome string

const (
	// OutcomeIdle means the current phase is not complete yet.
	OutcomeIdle Outcome = "idle"
	// OutcomeAdvanced means the challenge moved to the next phase.
	OutcomeAdvanced Outcome = "advanced"
	// OutcomeBusy means another transition holds the challenge.
	OutcomeBusy Outcome = "busy"
	// OutcomeTerminal means the challenge is already completed.
	OutcomeTerminal Outcome = "terminal"
)

// Step reports one evaluation of a challenge.
type Step struct {
	ChallengeID string
	Outcome     Outcome
	From        domain.PhaseName
	To          domain.PhaseName
}

// EvaluatePhaseStep checks the completion condition of the challenge's
// current phase and advances it by one phase when due. A challenge whose
// transition token is held is skipped with OutcomeBusy.
func (s *Service) EvaluatePhaseStep(ctx context.Context, challengeID string) (Step, error) {
	step := Step{ChallengeID: challengeID}
	release, ok := s.locks.TryAcquire(challengeID)
	if !ok {
		step.Outcome = OutcomeBusy
		return step, nil
	}
	defer release()

	agg, err := s.Assemble(ctx, challengeID)
	if err != nil {
		return step, err
	}
	step.From = agg.CurrentPhase
	if agg.CurrentPhase.Terminal() {
		step.Outcome = OutcomeTerminal
		return step, nil
	}
	next, due := domain.NextTransition(agg, s.now())
	if !due {
		step.Outcome = OutcomeIdle
		return step, nil
	}
	if _, err := s.transition(ctx, agg, next); err != nil {
		return step, err
	}
	step.Outcome = OutcomeAdvanced
	step.To = next
	return step, nil
}

// TransitionPhase moves a challenge to target now regardless of the
// completion condition, shifting the remaining schedule. Target must be the
// phase right after the current one. It fails with a busy error while
// another transition holds the challenge.
func (s *Service) TransitionPhase(ctx context.Context, challengeID string, target domain.PhaseName) (domain.Challenge, error) {
	release, ok := s.locks.TryAcquire(challengeID)
	if !ok {
		return domain.Challenge{}, busy(challengeID)
	}
	defer release()

	agg, err := s.Assemble(ctx, challengeID)
	if err != nil {
		return domain.Challenge{}, err
	}
	if next, ok := agg.CurrentPhase.Next(); !ok || next != target {
		return domain.Challenge{}, apperrors.WithMetadata(apperrors.CodeValidation,
			fmt.Sprintf("cannot move challenge %s from %s to %s", challengeID, agg.CurrentPhase, target),
			map[string]string{"Phase": string(agg.CurrentPhase)})
	}
	return s.transition(ctx, agg, target)
}

// transition writes the shifted schedule and the new phase as the system
// account. The caller holds the challenge's token.
func (s *Service) transition(ctx context.Context, agg *domain.Aggregate, target domain.PhaseName) (domain.Challenge, error) {
	phases, err := domain.ShiftSchedule(agg.Phases, target, s.now())
	if err != nil {
		return domain.Challenge{}, err
	}
	updated, err := s.updateChallenge(ctx, nil, agg.ChallengeID, ChallengeUpdate{Phases: phases}, target)
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("transition %s to %s: %w", agg.ChallengeID, target, err)
	}
	s.logf("challenge %s moved from %s to %s", agg.ChallengeID, agg.CurrentPhase, target)
	return updated, nil
}
