package domain

import "github.com/louisbranch/challenge.space/internal/ledger"

var reviewDescriptor = ledger.NewDescriptor("ChallengeReview", "reviewerId", []ledger.Field{
	ledger.String("reviewerId"),
	ledger.String("memberId"),
})

var reviewItemDescriptor = ledger.NewDescriptor("ChallengeReviewItem", "question", []ledger.Field{
	ledger.Number("question"),
	ledger.Number("score"),
	ledger.String("comments"),
})

var appealDescriptor = ledger.NewDescriptor("ChallengeAppeal", "reviewerId", []ledger.Field{
	ledger.String("reviewerId"),
	ledger.String("memberId"),
	ledger.Number("question"),
	ledger.String("text"),
})

var appealResponseDescriptor = ledger.NewDescriptor("ChallengeAppealResponse", "reviewerId", []ledger.Field{
	ledger.String("reviewerId"),
	ledger.String("memberId"),
	ledger.Number("question"),
	ledger.String("text"),
	ledger.Number("finalScore"),
})

// Review is one reviewer's scoring of one member's submission.
type Review struct {
	ReviewerID string
	MemberID   string
	Items      []ReviewItem
}

func (Review) Descriptor() *ledger.Descriptor { return reviewDescriptor }

func (r Review) ToRow() ledger.Row {
	row := ledger.Row{}
	putString(row, "reviewerId", r.ReviewerID)
	putString(row, "memberId", r.MemberID)
	return row
}

func (r *Review) FromRow(row ledger.Row) {
	r.ReviewerID = rowString(row, "reviewerId")
	r.MemberID = rowString(row, "memberId")
}

// Item returns the answer to question.
func (r Review) Item(question int64) (ReviewItem, bool) {
	for _, item := range r.Items {
		if item.Question == question {
			return item, true
		}
	}
	return ReviewItem{}, false
}

// ReviewItem answers one scorecard question. Appeal is merged in from the
// appeal records during assembly.
type ReviewItem struct {
	Question int64
	Score    int64
	Comments string

	Appeal *ItemAppeal
}

func (ReviewItem) Descriptor() *ledger.Descriptor { return reviewItemDescriptor }

func (i ReviewItem) ToRow() ledger.Row {
	row := ledger.Row{}
	putNumber(row, "question", i.Question)
	putNumber(row, "score", i.Score)
	putString(row, "comments", i.Comments)
	return row
}

func (i *ReviewItem) FromRow(row ledger.Row) {
	i.Question = rowNumber(row, "question")
	i.Score = rowNumber(row, "score")
	i.Comments = rowString(row, "comments")
}

// ItemAppeal is an appeal attached to a review item, with the reviewer's
// response once one exists.
type ItemAppeal struct {
	Text       string
	Response   string
	FinalScore *int64
}

// Answered reports whether the reviewer responded with a final score.
func (a ItemAppeal) Answered() bool {
	return a.Response != "" && a.FinalScore != nil
}

// AppealText is the body of an appeal against one question.
type AppealText struct {
	Question int64
	Text     string
}

// Appeal is a member's appeal against one review item.
type Appeal struct {
	ReviewerID string
	MemberID   string
	Appeal     AppealText
}

func (Appeal) Descriptor() *ledger.Descriptor { return appealDescriptor }

func (a Appeal) ToRow() ledger.Row {
	row := ledger.Row{}
	putString(row, "reviewerId", a.ReviewerID)
	putString(row, "memberId", a.MemberID)
	putNumber(row, "question", a.Appeal.Question)
	putString(row, "text", a.Appeal.Text)
	return row
}

func (a *Appeal) FromRow(row ledger.Row) {
	a.ReviewerID = rowString(row, "reviewerId")
	a.MemberID = rowString(row, "memberId")
	a.Appeal = AppealText{
		Question: rowNumber(row, "question"),
		Text:     rowString(row, "text"),
	}
}

// ResponseText is the body of a reviewer's answer to an appeal.
type ResponseText struct {
	Question   int64
	Text       string
	FinalScore *int64
}

// AppealResponse is a reviewer's answer to one appeal.
type AppealResponse struct {
	ReviewerID string
	MemberID   string
	Response   ResponseText
}

func (AppealResponse) Descriptor() *ledger.Descriptor { return appealResponseDescriptor }

func (a AppealResponse) ToRow() ledger.Row {
	row := ledger.Row{}
	putString(row, "reviewerId", a.ReviewerID)
	putString(row, "memberId", a.MemberID)
	putNumber(row, "question", a.Response.Question)
	putString(row, "text", a.Response.Text)
	putOptional(row, "finalScore", a.Response.FinalScore)
	return row
}

func (a *AppealResponse) FromRow(row ledger.Row) {
	a.ReviewerID = rowString(row, "reviewerId")
	a.MemberID = rowString(row, "memberId")
	a.Response = ResponseText{
		Question:   rowNumber(row, "question"),
		Text:       rowString(row, "text"),
		FinalScore: rowOptional(row, "finalScore"),
	}
}
