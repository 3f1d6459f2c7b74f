package domain

import (
	"time"

	"github.com/louisbranch/challenge.space/internal/ledger"
)

var submissionDescriptor = ledger.NewDescriptor("ChallengeSubmission", "submissionId", []ledger.Field{
	ledger.String("submissionId"),
	ledger.String("challengeId"),
	ledger.String("memberId"),
	ledger.String("originalFileName"),
	ledger.String("fileName"),
	ledger.String("ipfsHash"),
	ledger.Number("timestamp"),
},
	ledger.Group{Name: "Part1", Fields: []string{"submissionId", "challengeId", "memberId", "originalFileName"}},
	ledger.Group{Name: "Part2", Fields: []string{"fileName", "ipfsHash", "timestamp"}},
)

// Submission is a member's uploaded file. Reviews are attached during
// assembly and are not part of the stored record.
type Submission struct {
	SubmissionID     string
	ChallengeID      string
	MemberID         string
	OriginalFileName string
	FileName         string
	ContentHash      string
	Timestamp        time.Time

	Reviews []Review
}

func (Submission) Descriptor() *ledger.Descriptor { return submissionDescriptor }

func (s Submission) ToRow() ledger.Row {
	row := ledger.Row{}
	putString(row, "submissionId", s.SubmissionID)
	putString(row, "challengeId", s.ChallengeID)
	putString(row, "memberId", s.MemberID)
	putString(row, "originalFileName", s.OriginalFileName)
	putString(row, "fileName", s.FileName)
	putString(row, "ipfsHash", s.ContentHash)
	putTime(row, "timestamp", s.Timestamp)
	return row
}

func (s *Submission) FromRow(row ledger.Row) {
	s.SubmissionID = rowString(row, "submissionId")
	s.ChallengeID = rowString(row, "challengeId")
	s.MemberID = rowString(row, "memberId")
	s.OriginalFileName = rowString(row, "originalFileName")
	s.FileName = rowString(row, "fileName")
	s.ContentHash = rowString(row, "ipfsHash")
	s.Timestamp = rowTime(row, "timestamp")
}

// StoredFileName is the blob name recorded for an upload.
func StoredFileName(submissionID, originalFileName string) string {
	return "submission_" + submissionID + "_" + originalFileName
}
