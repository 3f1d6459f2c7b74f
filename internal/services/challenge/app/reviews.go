package app

import (
	"context"

	"github.com/louisbranch/challenge.space/internal/ledger"
	apperrors "github.com/louisbranch/challenge.space/internal/platform/errors"
	"github.com/louisbranch/challenge.space/internal/services/challenge/domain"
)

// CreateScorecard writes the scorecard and its questions.
func (s *Service) CreateScorecard(ctx context.Context, requester *domain.Requester, challengeID string, scorecard domain.Scorecard) (domain.Scorecard, error) {
	if err := requireRole(requester, domain.RoleManager, domain.RoleCopilot); err != nil {
		return domain.Scorecard{}, err
	}
	if err := required("challengeId", challengeID); err != nil {
		return domain.Scorecard{}, err
	}
	if err := scorecard.Validate(); err != nil {
		return domain.Scorecard{}, err
	}
	client, err := s.clientFor(ctx, requester)
	if err != nil {
		return domain.Scorecard{}, err
	}
	opts := ledger.InvokeOptions{ExtraArgs: []any{challengeID}}
	if _, err := client.InvokeEntity(ctx, ledger.PublicChallengeReview, "createScorecard", scorecard, opts); err != nil {
		return domain.Scorecard{}, err
	}
	for _, q := range scorecard.Questions {
		if _, err := client.InvokeEntity(ctx, ledger.PublicChallengeReview, "addScorecardQuestion", q, opts); err != nil {
			return domain.Scorecard{}, err
		}
	}
	return scorecard, nil
}

// CreateReview records the requesting reviewer's scores for one member.
// The challenge must be in Review, have a scorecard, and the answers must
// cover every scorecard question exactly once.
func (s *Service) CreateReview(ctx context.Context, requester *domain.Requester, challengeID string, review domain.Review) (domain.Review, error) {
	if err := requireRole(requester, domain.RoleReviewer); err != nil {
		return domain.Review{}, err
	}
	if review.ReviewerID != requester.MemberID {
		return domain.Review{}, forbidden("the reviewerId is not the requesting reviewer")
	}
	if err := required("memberId", review.MemberID); err != nil {
		return domain.Review{}, err
	}

	agg, err := s.Assemble(ctx, challengeID)
	if err != nil {
		return domain.Review{}, err
	}
	if agg.CurrentPhase != domain.PhaseReview {
		return domain.Review{}, phaseForbidden(agg.CurrentPhase, "reviews are only accepted in the Review phase")
	}
	if agg.Scorecard == nil {
		return domain.Review{}, forbidden("the challenge has no scorecard to review against")
	}
	if err := checkAnswers(agg.Scorecard, review.Items); err != nil {
		return domain.Review{}, err
	}
	if !agg.IsReviewer(requester.MemberID) {
		return domain.Review{}, forbidden("you are not a reviewer of this challenge")
	}

	client, err := s.clientFor(ctx, requester)
	if err != nil {
		return domain.Review{}, err
	}
	if _, err := client.InvokeEntity(ctx, ledger.PublicChallengeReview, "createReview", review,
		ledger.InvokeOptions{ExtraArgs: []any{challengeID}}); err != nil {
		return domain.Review{}, err
	}
	itemOpts := ledger.InvokeOptions{ExtraArgs: []any{challengeID, review.ReviewerID, review.MemberID}}
	for _, item := range review.Items {
		if _, err := client.InvokeEntity(ctx, ledger.PublicChallengeReview, "addReviewItem", item, itemOpts); err != nil {
			return domain.Review{}, err
		}
	}
	return review, nil
}

func checkAnswers(scorecard *domain.Scorecard, items []domain.ReviewItem) error {
	answered := make(map[int64]bool, len(scorecard.Questions))
	for _, q := range scorecard.Questions {
		answered[q.Order] = false
	}
	for _, item := range items {
		done, ok := answered[item.Question]
		if !ok {
			return apperrors.Newf(apperrors.CodeValidation, "cannot find question %d in scorecard", item.Question)
		}
		if done {
			return apperrors.Newf(apperrors.CodeValidation, "question %d is answered twice", item.Question)
		}
		answered[item.Question] = true
	}
	for _, q := range scorecard.Questions {
		if !answered[q.Order] {
			return apperrors.Newf(apperrors.CodeValidation, "question with order %d is not answered", q.Order)
		}
	}
	return nil
}

// CreateAppeal records the requesting member's appeal against one review
// item of their own submission during the Appeal phase.
func (s *Service) CreateAppeal(ctx context.Context, requester *domain.Requester, challengeID string, appeal domain.Appeal) (domain.Appeal, error) {
	if err := requireRole(requester, domain.RoleMember); err != nil {
		return domain.Appeal{}, err
	}
	if appeal.MemberID == "" {
		appeal.MemberID = requester.MemberID
	}
	if appeal.MemberID != requester.MemberID {
		return domain.Appeal{}, forbidden("cannot appeal on behalf of another member")
	}
	if err := required("reviewerId", appeal.ReviewerID, "text", appeal.Appeal.Text); err != nil {
		return domain.Appeal{}, err
	}

	agg, err := s.Assemble(ctx, challengeID)
	if err != nil {
		return domain.Appeal{}, err
	}
	if agg.CurrentPhase != domain.PhaseAppeal {
		return domain.Appeal{}, phaseForbidden(agg.CurrentPhase, "appeals are only accepted in the Appeal phase")
	}
	if !agg.IsRegisteredMember(requester.MemberID) {
		return domain.Appeal{}, forbidden("you are not a registered member of this challenge")
	}
	if _, ok := agg.SubmissionOf(requester.MemberID); !ok {
		return domain.Appeal{}, forbidden("you did not submit to this challenge")
	}
	if _, ok := agg.ReviewItem(requester.MemberID, appeal.ReviewerID, appeal.Appeal.Question); !ok {
		return domain.Appeal{}, forbidden("cannot find that review item to appeal")
	}

	client, err := s.clientFor(ctx, requester)
	if err != nil {
		return domain.Appeal{}, err
	}
	if _, err := client.InvokeEntity(ctx, ledger.PublicChallengeAppeal, "createAppeal", appeal,
		ledger.InvokeOptions{ExtraArgs: []any{challengeID}}); err != nil {
		return domain.Appeal{}, err
	}
	return appeal, nil
}

// CreateAppealResponse records the requesting reviewer's answer to an
// appeal during the AppealResponse phase. The final score must be positive
// because zero reads back from the ledger as absent.
func (s *Service) CreateAppealResponse(ctx context.Context, requester *domain.Requester, challengeID string, response domain.AppealResponse) (domain.AppealResponse, error) {
	if err := requireRole(requester, domain.RoleReviewer); err != nil {
		return domain.AppealResponse{}, err
	}
	if response.ReviewerID == "" {
		response.ReviewerID = requester.MemberID
	}
	if response.ReviewerID != requester.MemberID {
		return domain.AppealResponse{}, forbidden("cannot respond on behalf of another reviewer")
	}
	if err := required("memberId", response.MemberID, "text", response.Response.Text); err != nil {
		return domain.AppealResponse{}, err
	}
	if response.Response.FinalScore == nil || *response.Response.FinalScore <= 0 {
		return domain.AppealResponse{}, apperrors.New(apperrors.CodeValidation, "final score must be positive")
	}

	agg, err := s.Assemble(ctx, challengeID)
	if err != nil {
		return domain.AppealResponse{}, err
	}
	if agg.CurrentPhase != domain.PhaseAppealResponse {
		return domain.AppealResponse{}, phaseForbidden(agg.CurrentPhase, "appeal responses are only accepted in the AppealResponse phase")
	}
	if !agg.IsReviewer(requester.MemberID) {
		return domain.AppealResponse{}, forbidden("you are not a reviewer of this challenge")
	}
	if _, ok := agg.SubmissionOf(response.MemberID); !ok {
		return domain.AppealResponse{}, forbidden("there is no submission from that member")
	}
	item, ok := agg.ReviewItem(response.MemberID, response.ReviewerID, response.Response.Question)
	if !ok || item.Appeal == nil {
		return domain.AppealResponse{}, forbidden("cannot find that appeal to respond to")
	}

	client, err := s.clientFor(ctx, requester)
	if err != nil {
		return domain.AppealResponse{}, err
	}
	if _, err := client.InvokeEntity(ctx, ledger.PublicChallengeAppeal, "createAppealResponse", response,
		ledger.InvokeOptions{ExtraArgs: []any{challengeID}}); err != nil {
		return domain.AppealResponse{}, err
	}
	return response, nil
}
