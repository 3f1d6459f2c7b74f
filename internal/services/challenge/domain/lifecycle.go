package domain

import "time"

// NextTransition evaluates the completion condition of the current phase.
// It returns the phase to move to and whether the move is due at now.
//
// Time-driven phases are due once now reaches the start of the following
// window. Review is due when every submission has a review from each
// assigned reviewer. AppealResponse is due when every appealed item has a
// response and a final score.
func NextTransition(agg *Aggregate, now time.Time) (PhaseName, bool) {
	if agg == nil {
		return "", false
	}
	next, ok := agg.CurrentPhase.Next()
	if !ok {
		return "", false
	}
	switch agg.CurrentPhase {
	case PhasePending, PhaseRegister, PhaseSubmission, PhaseAppeal:
		return next, startReached(agg.Phases, next, now)
	case PhaseReview:
		return next, reviewsComplete(agg)
	case PhaseAppealResponse:
		return next, appealsAnswered(agg)
	default:
		return "", false
	}
}

func startReached(phases []Phase, name PhaseName, now time.Time) bool {
	p, ok := FindPhase(phases, name)
	if !ok {
		return false
	}
	return !now.Before(p.Start)
}

func reviewsComplete(agg *Aggregate) bool {
	want := len(agg.Reviewers)
	for _, s := range agg.Submissions {
		if len(s.Reviews) < want {
			return false
		}
	}
	return true
}

func appealsAnswered(agg *Aggregate) bool {
	for _, s := range agg.Submissions {
		for _, r := range s.Reviews {
			for _, item := range r.Items {
				if item.Appeal != nil && !item.Appeal.Answered() {
					return false
				}
			}
		}
	}
	return true
}

// ShiftSchedule moves the lifecycle to target at now. The window before
// target ends at now, and target and every later window keep their planned
// duration while starting where the previous one ends. A window without an
// end date keeps none. The input slice is not modified.
func ShiftSchedule(phases []Phase, target PhaseName, now time.Time) ([]Phase, error) {
	working := make([]Phase, 0, len(phases)+1)
	working = append(working, phases...)
	working = append(working, Phase{Name: PhaseCompleted})

	index := -1
	for i, p := range working {
		if p.Name == target {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, validationf(ErrUnknownPhase, target)
	}

	if index > 0 {
		working[index-1].End = now
	}
	for i := index; i < len(working); i++ {
		duration := working[i].Duration()
		if i > 0 {
			working[i].Start = working[i-1].End
		} else {
			working[i].Start = now
		}
		if !working[i].End.IsZero() {
			working[i].End = working[i].Start.Add(duration)
		}
	}
	return working[:len(working)-1], nil
}
