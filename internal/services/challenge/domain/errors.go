package domain

import apperrors "github.com/louisbranch/challenge.space/internal/platform/errors"

var (
	// ErrPhaseCount indicates a phase list without exactly the scheduled phases.
	ErrPhaseCount = apperrors.New(apperrors.CodeValidation, "phases must be exactly Register, Submission, Review, Appeal, AppealResponse")
	// ErrPhaseOrder indicates scheduled phases out of order.
	ErrPhaseOrder = apperrors.New(apperrors.CodeValidation, "phases must be in order Register, Submission, Review, Appeal, AppealResponse")
	// ErrPhaseGap indicates adjacent phases that do not touch.
	ErrPhaseGap = apperrors.New(apperrors.CodeValidation, "each phase must start when the previous phase ends")
	// ErrPhaseWindow indicates a phase that ends before it starts.
	ErrPhaseWindow = apperrors.New(apperrors.CodeValidation, "phase start date must not be after its end date")
	// ErrUnknownPhase indicates a transition target outside the lifecycle.
	ErrUnknownPhase = apperrors.New(apperrors.CodeValidation, "unknown phase")
)

// validationf builds a validation error carrying the offending phase.
func validationf(base *apperrors.Error, phase PhaseName) error {
	return apperrors.WithMetadata(base.Code, base.Message+": "+string(phase), map[string]string{"Phase": string(phase)})
}
