package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/louisbranch/challenge.space/internal/ledger"
	apperrors "github.com/louisbranch/challenge.space/internal/platform/errors"
	"github.com/louisbranch/challenge.space/internal/services/challenge/domain"
	"github.com/louisbranch/challenge.space/internal/testkit/ledgerfakes"
)

const challengeID = "c-1"

var epoch = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func at(hours int) time.Time { return epoch.Add(time.Duration(hours) * time.Hour) }

func schedule() []domain.Phase {
	return []domain.Phase{
		{Name: domain.PhaseRegister, Start: at(0), End: at(10)},
		{Name: domain.PhaseSubmission, Start: at(10), End: at(20)},
		{Name: domain.PhaseReview, Start: at(20), End: at(30)},
		{Name: domain.PhaseAppeal, Start: at(30), End: at(40)},
		{Name: domain.PhaseAppealResponse, Start: at(40), End: at(50)},
	}
}

var (
	manager  = &domain.Requester{MemberID: "mgr-1", Role: domain.RoleManager, Address: "0xmanager"}
	customer = &domain.Requester{MemberID: "cli-1", Role: domain.RoleClient, Address: "0xclient"}
	copilot  = &domain.Requester{MemberID: "cop-1", Role: domain.RoleCopilot, Address: "0xcopilot"}
	reviewer = &domain.Requester{MemberID: "rev-1", Role: domain.RoleReviewer, Address: "0xreviewer"}
	member   = &domain.Requester{MemberID: "mem-1", Role: domain.RoleMember, Address: "0xmember"}
)

// challengeState is every ledger record of one challenge.
type challengeState struct {
	challenge   domain.Challenge
	phases      []domain.Phase
	members     []domain.Member
	reviewers   []domain.Reviewer
	submissions []domain.Submission
	reviews     []domain.Review
	appeals     []domain.Appeal
	responses   []domain.AppealResponse
	scorecard   *domain.Scorecard
}

func newState(phase domain.PhaseName) *challengeState {
	return &challengeState{
		challenge: domain.Challenge{
			ChallengeID:  challengeID,
			ProjectID:    "p-1",
			Name:         "Logo contest",
			CurrentPhase: phase,
			CreatedBy:    manager.MemberID,
		},
		phases: schedule(),
	}
}

type memBlobs struct {
	mu   sync.Mutex
	data map[string][]byte
	puts int
}

func newMemBlobs() *memBlobs { return &memBlobs{data: make(map[string][]byte)} }

func (m *memBlobs) Put(_ context.Context, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	hash := fmt.Sprintf("hash-%d", len(data))
	m.data[hash] = append([]byte(nil), data...)
	return hash, nil
}

func (m *memBlobs) Get(_ context.Context, hash string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[hash]
	if !ok {
		return nil, apperrors.New(apperrors.CodeNotFound, "missing blob")
	}
	return data, nil
}

type fixture struct {
	transport *ledgerfakes.Transport
	network   *ledgerfakes.Network
	blobs     *memBlobs
	svc       *Service
	now       time.Time

	mu   sync.Mutex
	logs []string
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	transport := ledgerfakes.New()
	f := &fixture{
		transport: transport,
		network:   ledgerfakes.NewNetwork(transport),
		blobs:     newMemBlobs(),
		now:       now,
	}
	f.svc = NewService(f.network,
		WithBlobStore(f.blobs),
		WithClock(func() time.Time { return f.now }),
		WithIDGenerator(func() (string, error) { return "sub-9", nil }),
		WithLogger(func(format string, args ...any) {
			f.mu.Lock()
			f.logs = append(f.logs, fmt.Sprintf(format, args...))
			f.mu.Unlock()
		}),
	)
	return f
}

func (f *fixture) logged(substr string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, line := range f.logs {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func entities[T ledger.Entity](items []T) []ledger.Entity {
	out := make([]ledger.Entity, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	return out
}

func (f *fixture) seed(s *challengeState) {
	tr := f.transport
	id := []any{s.challenge.ChallengeID}
	tr.SeedEntity(ledger.PublicChallenge, "getChallengeById", id, s.challenge)
	tr.SeedList(ledger.PublicChallenge, "getPhase", id, entities(s.phases)...)
	tr.SeedList(ledger.PublicChallengeMember, "getMember", id, entities(s.members)...)
	tr.SeedList(ledger.PublicChallengeReview, "getReviewer", id, entities(s.reviewers)...)
	tr.SeedList(ledger.PublicChallengeSubmission, "getSubmission", id, entities(s.submissions)...)
	tr.SeedList(ledger.PublicChallengeReview, "getReview", id, entities(s.reviews)...)
	for _, r := range s.reviews {
		tr.SeedList(ledger.PublicChallengeReview, "getReviewItem", []any{s.challenge.ChallengeID, r.ReviewerID, r.MemberID}, entities(r.Items)...)
	}
	tr.SeedList(ledger.PublicChallengeAppeal, "getAppeal", id, entities(s.appeals)...)
	tr.SeedList(ledger.PublicChallengeAppeal, "getAppealResponse", id, entities(s.responses)...)
	if s.scorecard == nil {
		tr.SeedMissing(ledger.PublicChallengeReview, "getScorecard", id, domain.Scorecard{}.Descriptor())
		return
	}
	tr.SeedEntity(ledger.PublicChallengeReview, "getScorecard", id, *s.scorecard)
	tr.SeedList(ledger.PublicChallengeReview, "getScorecardQuestion", id, entities(s.scorecard.Questions)...)
}

func (f *fixture) seedMissingChallenge(id string) {
	f.transport.SeedMissing(ledger.PublicChallenge, "getChallengeById", []any{id}, domain.Challenge{}.Descriptor())
}

func (f *fixture) seedUser(u domain.User) {
	f.transport.SeedEntity(ledger.PublicUser, "getUserById", []any{u.MemberID}, u)
}

func (f *fixture) seedMissingUser(memberID string) {
	f.transport.SeedMissing(ledger.PublicUser, "getUserById", []any{memberID}, domain.User{}.Descriptor())
}

func (f *fixture) seedProject(contract ledger.Contract, p domain.Project) {
	f.transport.SeedEntity(contract, "getProjectById", []any{p.ProjectID}, p)
}

func (f *fixture) seedMissingProject(contract ledger.Contract, projectID string) {
	f.transport.SeedMissing(contract, "getProjectById", []any{projectID}, domain.Project{}.Descriptor())
}

func scorecard() *domain.Scorecard {
	return &domain.Scorecard{
		Name: "Design",
		Questions: []domain.ScorecardQuestion{
			{Text: "Originality", Weight: 0.5, Order: 1},
			{Text: "Polish", Weight: 0.5, Order: 2},
		},
	}
}

func registered(ids ...string) []domain.Member {
	out := make([]domain.Member, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Member{ID: id, Status: domain.StatusRegistered})
	}
	return out
}

func submission(id, memberID string) domain.Submission {
	return domain.Submission{
		SubmissionID:     id,
		ChallengeID:      challengeID,
		MemberID:         memberID,
		OriginalFileName: "logo.png",
		FileName:         domain.StoredFileName(id, "logo.png"),
		ContentHash:      "hash-" + id,
		Timestamp:        at(12),
	}
}

func assertCode(t *testing.T, err error, code apperrors.Code) {
	t.Helper()
	if !apperrors.HasCode(err, code) {
		t.Fatalf("err = %v, want %s", err, code)
	}
}
