package domain

import (
	"testing"
	"time"

	apperrors "github.com/louisbranch/challenge.space/internal/platform/errors"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func at(units int) time.Time { return epoch.Add(time.Duration(units) * time.Hour) }

func schedule() []Phase {
	return []Phase{
		{Name: PhaseRegister, Start: at(0), End: at(10)},
		{Name: PhaseSubmission, Start: at(10), End: at(20)},
		{Name: PhaseReview, Start: at(20), End: at(30)},
		{Name: PhaseAppeal, Start: at(30), End: at(40)},
		{Name: PhaseAppealResponse, Start: at(40), End: at(50)},
	}
}

func TestValidatePhases(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]Phase) []Phase
		ok     bool
	}{
		{name: "contiguous", mutate: func(p []Phase) []Phase { return p }, ok: true},
		{name: "swapped", mutate: func(p []Phase) []Phase { p[1], p[2] = p[2], p[1]; return p }},
		{name: "reversed", mutate: func(p []Phase) []Phase {
			for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
				p[i], p[j] = p[j], p[i]
			}
			return p
		}},
		{name: "gap", mutate: func(p []Phase) []Phase { p[1].Start = at(11); return p }},
		{name: "overlap", mutate: func(p []Phase) []Phase { p[1].Start = at(9); return p }},
		{name: "ends before start", mutate: func(p []Phase) []Phase { p[4].End = at(39); return p }},
		{name: "missing phase", mutate: func(p []Phase) []Phase { return p[:4] }},
		{name: "extra phase", mutate: func(p []Phase) []Phase { return append(p, Phase{Name: PhaseCompleted, Start: at(50)}) }},
		{name: "empty", mutate: func([]Phase) []Phase { return nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePhases(tt.mutate(schedule()))
			if tt.ok {
				if err != nil {
					t.Fatalf("ValidatePhases() = %v, want nil", err)
				}
				return
			}
			if !apperrors.HasCode(err, apperrors.CodeValidation) {
				t.Fatalf("ValidatePhases() = %v, want validation error", err)
			}
		})
	}
}

func TestShiftScheduleKeepsDurations(t *testing.T) {
	phases := schedule()
	got, err := ShiftSchedule(phases, PhaseReview, at(25))
	if err != nil {
		t.Fatalf("ShiftSchedule: %v", err)
	}
	want := []Phase{
		{Name: PhaseRegister, Start: at(0), End: at(10)},
		{Name: PhaseSubmission, Start: at(10), End: at(25)},
		{Name: PhaseReview, Start: at(25), End: at(35)},
		{Name: PhaseAppeal, Start: at(35), End: at(45)},
		{Name: PhaseAppealResponse, Start: at(45), End: at(55)},
	}
	assertPhases(t, got, want)
	if !phases[1].End.Equal(at(20)) {
		t.Fatalf("input modified: submission end = %v", phases[1].End)
	}
	if err := ValidatePhases(got); err != nil {
		t.Fatalf("shifted schedule invalid: %v", err)
	}
}

func TestShiftScheduleFirstPhaseStartsNow(t *testing.T) {
	got, err := ShiftSchedule(schedule(), PhaseRegister, at(3))
	if err != nil {
		t.Fatalf("ShiftSchedule: %v", err)
	}
	if !got[0].Start.Equal(at(3)) || !got[0].End.Equal(at(13)) {
		t.Fatalf("register = [%v, %v], want [%v, %v]", got[0].Start, got[0].End, at(3), at(13))
	}
	if !got[4].End.Equal(at(53)) {
		t.Fatalf("appeal response end = %v, want %v", got[4].End, at(53))
	}
}

func TestShiftScheduleToCompleted(t *testing.T) {
	got, err := ShiftSchedule(schedule(), PhaseCompleted, at(47))
	if err != nil {
		t.Fatalf("ShiftSchedule: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	if !got[4].End.Equal(at(47)) || !got[4].Start.Equal(at(40)) {
		t.Fatalf("appeal response = [%v, %v]", got[4].Start, got[4].End)
	}
}

func TestShiftScheduleUnknownTarget(t *testing.T) {
	_, err := ShiftSchedule(schedule(), PhaseName("Voting"), at(1))
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestShiftScheduleWithoutEndDate(t *testing.T) {
	phases := schedule()
	phases[3].End = time.Time{}
	got, err := ShiftSchedule(phases, PhaseAppeal, at(33))
	if err != nil {
		t.Fatalf("ShiftSchedule: %v", err)
	}
	if !got[3].Start.Equal(at(33)) || !got[3].End.IsZero() {
		t.Fatalf("appeal = [%v, %v], want start %v and no end", got[3].Start, got[3].End, at(33))
	}
	if !got[4].Start.IsZero() {
		t.Fatalf("appeal response start = %v, want zero", got[4].Start)
	}
}

func assertPhases(t *testing.T, got, want []Phase) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Name != want[i].Name || !got[i].Start.Equal(want[i].Start) || !got[i].End.Equal(want[i].End) {
			t.Fatalf("phase %d = %s [%v, %v], want %s [%v, %v]", i,
				got[i].Name, got[i].Start, got[i].End, want[i].Name, want[i].Start, want[i].End)
		}
	}
}

func reviewsFor(memberID string, reviewers ...string) []Review {
	out := make([]Review, 0, len(reviewers))
	for _, r := range reviewers {
		out = append(out, Review{ReviewerID: r, MemberID: memberID, Items: []ReviewItem{{Question: 1, Score: 8}}})
	}
	return out
}

func TestNextTransitionTimeDriven(t *testing.T) {
	tests := []struct {
		current PhaseName
		next    PhaseName
		due     time.Time
	}{
		{current: PhasePending, next: PhaseRegister, due: at(0)},
		{current: PhaseRegister, next: PhaseSubmission, due: at(10)},
		{current: PhaseSubmission, next: PhaseReview, due: at(20)},
		{current: PhaseAppeal, next: PhaseAppealResponse, due: at(40)},
	}
	for _, tt := range tests {
		t.Run(string(tt.current), func(t *testing.T) {
			agg := &Aggregate{Challenge: Challenge{CurrentPhase: tt.current}, Phases: schedule()}
			if next, ready := NextTransition(agg, tt.due.Add(-time.Minute)); ready {
				t.Fatalf("ready before start, next = %s", next)
			}
			next, ready := NextTransition(agg, tt.due)
			if !ready || next != tt.next {
				t.Fatalf("NextTransition = %s, %v, want %s, true", next, ready, tt.next)
			}
		})
	}
}

func TestNextTransitionReview(t *testing.T) {
	agg := &Aggregate{
		Challenge: Challenge{CurrentPhase: PhaseReview},
		Phases:    schedule(),
		Reviewers: []Reviewer{{ID: "r-1", Status: 1}, {ID: "r-2", Status: 1}},
		Submissions: []Submission{
			{SubmissionID: "s-1", MemberID: "m-1", Reviews: reviewsFor("m-1", "r-1", "r-2")},
			{SubmissionID: "s-2", MemberID: "m-2", Reviews: reviewsFor("m-2", "r-1", "r-2")},
			{SubmissionID: "s-3", MemberID: "m-3", Reviews: reviewsFor("m-3", "r-1")},
		},
	}
	if _, ready := NextTransition(agg, at(100)); ready {
		t.Fatal("expected review phase to wait for the missing review")
	}
	agg.Submissions[2].Reviews = reviewsFor("m-3", "r-1", "r-2")
	next, ready := NextTransition(agg, at(21))
	if !ready || next != PhaseAppeal {
		t.Fatalf("NextTransition = %s, %v, want Appeal, true", next, ready)
	}
}

func TestNextTransitionReviewWithoutReviewers(t *testing.T) {
	agg := &Aggregate{
		Challenge:   Challenge{CurrentPhase: PhaseReview},
		Submissions: []Submission{{SubmissionID: "s-1", MemberID: "m-1"}},
	}
	if _, ready := NextTransition(agg, at(0)); !ready {
		t.Fatal("expected zero reviewers to be trivially satisfied")
	}
}

func TestNextTransitionAppealResponse(t *testing.T) {
	appealed := &ItemAppeal{Text: "please reconsider"}
	agg := &Aggregate{
		Challenge: Challenge{CurrentPhase: PhaseAppealResponse},
		Submissions: []Submission{{
			SubmissionID: "s-1", MemberID: "m-1",
			Reviews: []Review{{ReviewerID: "r-1", MemberID: "m-1", Items: []ReviewItem{
				{Question: 1, Score: 5, Appeal: appealed},
				{Question: 2, Score: 7},
			}}},
		}},
	}
	if _, ready := NextTransition(agg, at(0)); ready {
		t.Fatal("expected unanswered appeal to block")
	}

	appealed.Response = "raised"
	if _, ready := NextTransition(agg, at(0)); ready {
		t.Fatal("expected missing final score to block")
	}

	appealed.FinalScore = Int64(6)
	next, ready := NextTransition(agg, at(0))
	if !ready || next != PhaseCompleted {
		t.Fatalf("NextTransition = %s, %v, want Completed, true", next, ready)
	}
}

func TestNextTransitionTerminal(t *testing.T) {
	agg := &Aggregate{Challenge: Challenge{CurrentPhase: PhaseCompleted}, Phases: schedule()}
	if next, ready := NextTransition(agg, at(1000)); ready || next != "" {
		t.Fatalf("NextTransition = %q, %v, want no transition", next, ready)
	}
}

func TestPhaseNext(t *testing.T) {
	p := PhasePending
	var visited []PhaseName
	for {
		next, ok := p.Next()
		if !ok {
			break
		}
		visited = append(visited, next)
		p = next
	}
	if len(visited) != 6 || p != PhaseCompleted || !p.Terminal() {
		t.Fatalf("visited = %v, final = %s", visited, p)
	}
}
