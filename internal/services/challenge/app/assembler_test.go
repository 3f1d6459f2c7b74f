package app

import (
	"context"
	"testing"

	"github.com/louisbranch/challenge.space/internal/ledger"
	apperrors "github.com/louisbranch/challenge.space/internal/platform/errors"
	"github.com/louisbranch/challenge.space/internal/services/challenge/domain"
)

func TestAssembleStitchesRecords(t *testing.T) {
	f := newFixture(t, at(35))
	s := newState(domain.PhaseAppeal)
	s.members = registered("mem-1", "mem-2")
	s.reviewers = []domain.Reviewer{{ID: "rev-1", Status: domain.StatusRegistered}}
	s.submissions = []domain.Submission{submission("s-1", "mem-1"), submission("s-2", "mem-2"), submission("s-3", "mem-1")}
	s.reviews = []domain.Review{{
		ReviewerID: "rev-1",
		MemberID:   "mem-1",
		Items: []domain.ReviewItem{
			{Question: 1, Score: 7, Comments: "bold"},
			{Question: 2, Score: 4},
		},
	}}
	s.appeals = []domain.Appeal{{ReviewerID: "rev-1", MemberID: "mem-1", Appeal: domain.AppealText{Question: 2, Text: "look again"}}}
	s.responses = []domain.AppealResponse{
		{ReviewerID: "rev-1", MemberID: "mem-1", Response: domain.ResponseText{Question: 2, Text: "fair", FinalScore: domain.Int64(6)}},
		{ReviewerID: "rev-1", MemberID: "mem-2", Response: domain.ResponseText{Question: 1, Text: "orphan", FinalScore: domain.Int64(3)}},
	}
	s.scorecard = scorecard()
	f.seed(s)

	agg, err := f.svc.Assemble(context.Background(), challengeID)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if agg.Name != "Logo contest" || agg.CurrentPhase != domain.PhaseAppeal {
		t.Fatalf("challenge = %+v", agg.Challenge)
	}
	if len(agg.Phases) != 5 || !agg.Phases[2].Start.Equal(at(20)) {
		t.Fatalf("phases = %+v", agg.Phases)
	}
	if len(agg.Members) != 2 || len(agg.Reviewers) != 1 || len(agg.Submissions) != 3 {
		t.Fatalf("members = %d, reviewers = %d, submissions = %d", len(agg.Members), len(agg.Reviewers), len(agg.Submissions))
	}
	if agg.Scorecard == nil || len(agg.Scorecard.Questions) != 2 || agg.Scorecard.Questions[1].Weight != 0.5 {
		t.Fatalf("scorecard = %+v", agg.Scorecard)
	}

	for _, i := range []int{0, 2} {
		sub := agg.Submissions[i]
		if len(sub.Reviews) != 1 {
			t.Fatalf("submission %s reviews = %d, want 1", sub.SubmissionID, len(sub.Reviews))
		}
		item, ok := sub.Reviews[0].Item(2)
		if !ok || item.Appeal == nil {
			t.Fatalf("submission %s item 2 = %+v", sub.SubmissionID, item)
		}
		if item.Appeal.Text != "look again" || item.Appeal.Response != "fair" || *item.Appeal.FinalScore != 6 {
			t.Fatalf("submission %s appeal = %+v", sub.SubmissionID, item.Appeal)
		}
		if first, _ := sub.Reviews[0].Item(1); first.Appeal != nil {
			t.Fatalf("submission %s item 1 has appeal %+v", sub.SubmissionID, first.Appeal)
		}
	}
	agg.Submissions[0].Reviews[0].Items[0].Score = 99
	if agg.Submissions[2].Reviews[0].Items[0].Score != 7 {
		t.Fatal("review items are shared between submissions")
	}
	if len(agg.Submissions[1].Reviews) != 0 {
		t.Fatalf("mem-2 reviews = %+v, want none", agg.Submissions[1].Reviews)
	}
	if !f.logged("dropping appeal response") {
		t.Fatal("expected orphan response to be logged")
	}
}

func TestAssembleReadsAsSystem(t *testing.T) {
	f := newFixture(t, at(1))
	f.seed(newState(domain.PhaseRegister))
	if _, err := f.svc.Assemble(context.Background(), challengeID); err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if clients := f.network.Clients(); len(clients) != 0 {
		t.Fatalf("requester clients = %v, want none", clients)
	}
}

func TestAssembleMissingChallenge(t *testing.T) {
	f := newFixture(t, at(1))
	f.seedMissingChallenge("nope")
	_, err := f.svc.Assemble(context.Background(), "nope")
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestAssembleEmptyListEntryIsConsistencyError(t *testing.T) {
	f := newFixture(t, at(1))
	f.seed(newState(domain.PhaseRegister))
	f.transport.SetResult(ledger.PublicChallengeMember, "getMembersCount", []any{challengeID}, int64(1))
	f.transport.SetResult(ledger.PublicChallengeMember, "getMember", []any{challengeID, int64(0)}, "", int64(0))

	_, err := f.svc.Assemble(context.Background(), challengeID)
	assertCode(t, err, apperrors.CodeConsistency)
}
