package app

import (
	"context"
	"fmt"

	"github.com/louisbranch/challenge.space/internal/ledger"
	apperrors "github.com/louisbranch/challenge.space/internal/platform/errors"
	"github.com/louisbranch/challenge.space/internal/services/challenge/domain"
)

// itemKey addresses one review item: the member reviewed, the reviewer and
// the scorecard question answered.
type itemKey struct {
	memberID   string
	reviewerID string
	question   int64
}

// Assembler reads every record of a challenge and stitches them into one
// aggregate.
type Assembler struct {
	client *ledger.Client
	logf   func(string, ...any)
}

// NewAssembler reads through client.
func NewAssembler(client *ledger.Client, logf func(string, ...any)) *Assembler {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Assembler{client: client, logf: logf}
}

// Assemble builds the aggregate of challengeID. A missing challenge is a
// not found error.
//
// Reviews attach to every submission of their member, appeals attach to
// the review item they reference, and responses attach to an item's
// existing appeal. A response without an appeal is dropped and logged.
func (a *Assembler) Assemble(ctx context.Context, challengeID string) (*domain.Aggregate, error) {
	c := a.client
	challenge, err := ledger.QueryEntity[domain.Challenge](ctx, c, ledger.PublicChallenge, "getChallengeById", challengeID)
	if err != nil {
		return nil, fmt.Errorf("read challenge %s: %w", challengeID, err)
	}
	if challenge == nil {
		return nil, notFound("challenge", challengeID)
	}
	agg := &domain.Aggregate{Challenge: *challenge}

	if agg.Phases, err = ledger.QueryEntityList[domain.Phase](ctx, c, ledger.PublicChallenge, "getPhase", challengeID); err != nil {
		return nil, fmt.Errorf("read phases: %w", err)
	}
	if agg.Members, err = ledger.QueryEntityList[domain.Member](ctx, c, ledger.PublicChallengeMember, "getMember", challengeID); err != nil {
		return nil, fmt.Errorf("read members: %w", err)
	}
	if agg.Reviewers, err = ledger.QueryEntityList[domain.Reviewer](ctx, c, ledger.PublicChallengeReview, "getReviewer", challengeID); err != nil {
		return nil, fmt.Errorf("read reviewers: %w", err)
	}
	if agg.Submissions, err = ledger.QueryEntityList[domain.Submission](ctx, c, ledger.PublicChallengeSubmission, "getSubmission", challengeID); err != nil {
		return nil, fmt.Errorf("read submissions: %w", err)
	}

	if err := a.attachReviews(ctx, agg); err != nil {
		return nil, err
	}
	items := indexItems(agg)
	if err := a.attachAppeals(ctx, agg, items); err != nil {
		return nil, err
	}

	scorecard, err := ledger.QueryEntity[domain.Scorecard](ctx, c, ledger.PublicChallengeReview, "getScorecard", challengeID)
	if err != nil {
		return nil, fmt.Errorf("read scorecard: %w", err)
	}
	if scorecard != nil {
		if scorecard.Questions, err = ledger.QueryEntityList[domain.ScorecardQuestion](ctx, c, ledger.PublicChallengeReview, "getScorecardQuestion", challengeID); err != nil {
			return nil, fmt.Errorf("read scorecard questions: %w", err)
		}
		agg.Scorecard = scorecard
	}
	return agg, nil
}

func (a *Assembler) attachReviews(ctx context.Context, agg *domain.Aggregate) error {
	challengeID := agg.ChallengeID
	reviews, err := ledger.QueryEntityList[domain.Review](ctx, a.client, ledger.PublicChallengeReview, "getReview", challengeID)
	if err != nil {
		return fmt.Errorf("read reviews: %w", err)
	}

	byMember := make(map[string][]int, len(agg.Submissions))
	for i, s := range agg.Submissions {
		byMember[s.MemberID] = append(byMember[s.MemberID], i)
	}
	for _, review := range reviews {
		review.Items, err = ledger.QueryEntityList[domain.ReviewItem](ctx, a.client, ledger.PublicChallengeReview,
			"getReviewItem", challengeID, review.ReviewerID, review.MemberID)
		if err != nil {
			return fmt.Errorf("read review items of %s by %s: %w", review.MemberID, review.ReviewerID, err)
		}
		for n, i := range byMember[review.MemberID] {
			attached := review
			if n > 0 {
				attached.Items = append([]domain.ReviewItem(nil), review.Items...)
			}
			agg.Submissions[i].Reviews = append(agg.Submissions[i].Reviews, attached)
		}
	}
	return nil
}

// indexItems maps every attached review item by its foreign keys. The
// pointers stay valid because no slice grows after reviews are attached.
func indexItems(agg *domain.Aggregate) map[itemKey][]*domain.ReviewItem {
	index := make(map[itemKey][]*domain.ReviewItem)
	for i := range agg.Submissions {
		s := &agg.Submissions[i]
		for j := range s.Reviews {
			r := &s.Reviews[j]
			for k := range r.Items {
				item := &r.Items[k]
				key := itemKey{memberID: s.MemberID, reviewerID: r.ReviewerID, question: item.Question}
				index[key] = append(index[key], item)
			}
		}
	}
	return index
}

func (a *Assembler) attachAppeals(ctx context.Context, agg *domain.Aggregate, items map[itemKey][]*domain.ReviewItem) error {
	challengeID := agg.ChallengeID
	appeals, err := ledger.QueryEntityList[domain.Appeal](ctx, a.client, ledger.PublicChallengeAppeal, "getAppeal", challengeID)
	if err != nil {
		return fmt.Errorf("read appeals: %w", err)
	}
	for _, appeal := range appeals {
		key := itemKey{memberID: appeal.MemberID, reviewerID: appeal.ReviewerID, question: appeal.Appeal.Question}
		for _, item := range items[key] {
			item.Appeal = &domain.ItemAppeal{Text: appeal.Appeal.Text}
		}
	}

	responses, err := ledger.QueryEntityList[domain.AppealResponse](ctx, a.client, ledger.PublicChallengeAppeal, "getAppealResponse", challengeID)
	if err != nil {
		return fmt.Errorf("read appeal responses: %w", err)
	}
	for _, response := range responses {
		key := itemKey{memberID: response.MemberID, reviewerID: response.ReviewerID, question: response.Response.Question}
		attached := false
		for _, item := range items[key] {
			if item.Appeal == nil {
				continue
			}
			item.Appeal.Response = response.Response.Text
			item.Appeal.FinalScore = response.Response.FinalScore
			attached = true
		}
		if !attached {
			a.logf("challenge %s: dropping appeal response by %s on question %d of %s: no matching appeal",
				challengeID, response.ReviewerID, response.Response.Question, response.MemberID)
		}
	}
	return nil
}

// Assemble reads the aggregate of challengeID with the system client.
func (s *Service) Assemble(ctx context.Context, challengeID string) (*domain.Aggregate, error) {
	client, err := s.system(ctx)
	if err != nil {
		return nil, err
	}
	return NewAssembler(client, s.logf).Assemble(ctx, challengeID)
}

func notFound(kind, id string) error {
	return apperrors.WithMetadata(apperrors.CodeNotFound,
		fmt.Sprintf("cannot find %s with id: %s", kind, id),
		map[string]string{"Kind": kind, "ID": id})
}
