package domain

import (
	"time"

	"github.com/louisbranch/challenge.space/internal/ledger"
)

// PhaseName names a lifecycle state of a challenge.
type PhaseName string

const (
	PhasePending        PhaseName = "Pending"
	PhaseRegister       PhaseName = "Register"
	PhaseSubmission     PhaseName = "Submission"
	PhaseReview         PhaseName = "Review"
	PhaseAppeal         PhaseName = "Appeal"
	PhaseAppealResponse PhaseName = "AppealResponse"
	PhaseCompleted      PhaseName = "Completed"
)

// ScheduledPhases are the phases that carry a time window, in order.
func ScheduledPhases() []PhaseName {
	return []PhaseName{PhaseRegister, PhaseSubmission, PhaseReview, PhaseAppeal, PhaseAppealResponse}
}

// lifecycle is every state in transition order.
var lifecycle = []PhaseName{
	PhasePending, PhaseRegister, PhaseSubmission, PhaseReview,
	PhaseAppeal, PhaseAppealResponse, PhaseCompleted,
}

// Next returns the single state that follows p. It is false for Completed
// and unknown names.
func (p PhaseName) Next() (PhaseName, bool) {
	for i, name := range lifecycle[:len(lifecycle)-1] {
		if name == p {
			return lifecycle[i+1], true
		}
	}
	return "", false
}

// Terminal reports whether no transition leaves p.
func (p PhaseName) Terminal() bool { return p == PhaseCompleted }

// ReviewsVisible reports whether members may read reviews of their own
// submissions while the challenge is in p.
func (p PhaseName) ReviewsVisible() bool {
	return p == PhaseAppeal || p == PhaseAppealResponse || p == PhaseCompleted
}

var phaseDescriptor = ledger.NewDescriptor("ChallengePhase", "name", []ledger.Field{
	ledger.String("name"),
	ledger.Number("startDate"),
	ledger.Number("endDate"),
})

// Phase is one scheduled window. Dates are stored as unix milliseconds; the
// zero time is absent.
type Phase struct {
	Name  PhaseName
	Start time.Time
	End   time.Time
}

func (Phase) Descriptor() *ledger.Descriptor { return phaseDescriptor }

func (p Phase) ToRow() ledger.Row {
	row := ledger.Row{}
	putString(row, "name", string(p.Name))
	putTime(row, "startDate", p.Start)
	putTime(row, "endDate", p.End)
	return row
}

func (p *Phase) FromRow(row ledger.Row) {
	p.Name = PhaseName(rowString(row, "name"))
	p.Start = rowTime(row, "startDate")
	p.End = rowTime(row, "endDate")
}

// Duration is the planned length of the window, zero when either date is
// absent.
func (p Phase) Duration() time.Duration {
	if p.Start.IsZero() || p.End.IsZero() {
		return 0
	}
	return p.End.Sub(p.Start)
}

// ValidatePhases checks that phases are exactly the scheduled phases in
// order, that each starts when the previous one ends, and that no window
// ends before it starts.
func ValidatePhases(phases []Phase) error {
	names := ScheduledPhases()
	if len(phases) != len(names) {
		return ErrPhaseCount
	}
	for i, phase := range phases {
		if phase.Name != names[i] {
			return ErrPhaseOrder
		}
		if i > 0 && !phases[i-1].End.Equal(phase.Start) {
			return validationf(ErrPhaseGap, phase.Name)
		}
		if phase.End.Before(phase.Start) {
			return validationf(ErrPhaseWindow, phase.Name)
		}
	}
	return nil
}

// FindPhase returns the window named name.
func FindPhase(phases []Phase, name PhaseName) (Phase, bool) {
	for _, p := range phases {
		if p.Name == name {
			return p, true
		}
	}
	return Phase{}, false
}
