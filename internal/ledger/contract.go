package ledger

// Contract names a deployed ledger contract.
type Contract string

const (
	PublicProject             Contract = "PublicProject"
	PrivateProject            Contract = "PrivateProject"
	PublicChallenge           Contract = "PublicChallenge"
	PublicUser                Contract = "PublicUser"
	PublicChallengeReview     Contract = "PublicChallengeReview"
	PublicChallengeSubmission Contract = "PublicChallengeSubmission"
	PublicChallengeAppeal     Contract = "PublicChallengeAppeal"
	PublicChallengeMember     Contract = "PublicChallengeMember"
)

// Contracts lists every contract the service talks to.
func Contracts() []Contract {
	return []Contract{
		PublicProject,
		PrivateProject,
		PublicChallenge,
		PublicUser,
		PublicChallengeReview,
		PublicChallengeSubmission,
		PublicChallengeAppeal,
		PublicChallengeMember,
	}
}

// Private reports whether the contract stores private fields. Only private
// contracts receive them on write and return them on read.
func (c Contract) Private() bool {
	return c == PrivateProject
}
