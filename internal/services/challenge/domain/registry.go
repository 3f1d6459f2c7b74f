package domain

import (
	"fmt"

	"github.com/louisbranch/challenge.space/internal/ledger"
)

// Kind names an entity kind stored on the ledger.
type Kind string

const (
	KindUser                       Kind = "User"
	KindProject                    Kind = "Project"
	KindChallenge                  Kind = "Challenge"
	KindChallengePhase             Kind = "ChallengePhase"
	KindChallengeMember            Kind = "ChallengeMember"
	KindChallengeReviewer          Kind = "ChallengeReviewer"
	KindChallengeSubmission        Kind = "ChallengeSubmission"
	KindChallengeScorecard         Kind = "ChallengeScorecard"
	KindChallengeScorecardQuestion Kind = "ChallengeScorecardQuestion"
	KindChallengeReview            Kind = "ChallengeReview"
	KindChallengeReviewItem        Kind = "ChallengeReviewItem"
	KindChallengeAppeal            Kind = "ChallengeAppeal"
	KindChallengeAppealResponse    Kind = "ChallengeAppealResponse"
	KindChallengeRef               Kind = "ChallengeRef"
)

var registry = map[Kind]*ledger.Descriptor{
	KindUser:                       userDescriptor,
	KindProject:                    projectDescriptor,
	KindChallenge:                  challengeDescriptor,
	KindChallengePhase:             phaseDescriptor,
	KindChallengeMember:            memberDescriptor,
	KindChallengeReviewer:          reviewerDescriptor,
	KindChallengeSubmission:        submissionDescriptor,
	KindChallengeScorecard:         scorecardDescriptor,
	KindChallengeScorecardQuestion: questionDescriptor,
	KindChallengeReview:            reviewDescriptor,
	KindChallengeReviewItem:        reviewItemDescriptor,
	KindChallengeAppeal:            appealDescriptor,
	KindChallengeAppealResponse:    appealResponseDescriptor,
	KindChallengeRef:               challengeRefDescriptor,
}

// Describe returns the descriptor of kind. An unknown kind is a programming
// error and panics.
func Describe(kind Kind) *ledger.Descriptor {
	d, ok := registry[kind]
	if !ok {
		panic(fmt.Sprintf("domain: unknown entity kind %q", kind))
	}
	return d
}

// Kinds lists every registered kind. Only tests walk the whole registry.
func Kinds() []Kind {
	return []Kind{
		KindUser, KindProject, KindChallenge, KindChallengePhase,
		KindChallengeMember, KindChallengeReviewer, KindChallengeSubmission,
		KindChallengeScorecard, KindChallengeScorecardQuestion,
		KindChallengeReview, KindChallengeReviewItem,
		KindChallengeAppeal, KindChallengeAppealResponse, KindChallengeRef,
	}
}
