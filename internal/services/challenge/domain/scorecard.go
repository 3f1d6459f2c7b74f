package domain

import (
	"math"

	"github.com/louisbranch/challenge.space/internal/ledger"
	apperrors "github.com/louisbranch/challenge.space/internal/platform/errors"
)

var scorecardDescriptor = ledger.NewDescriptor("ChallengeScorecard", "name", []ledger.Field{
	ledger.String("name"),
})

var questionDescriptor = ledger.NewDescriptor("ChallengeScorecardQuestion", "text", []ledger.Field{
	ledger.String("text"),
	ledger.Number("weight"),
	ledger.Number("order"),
})

// Scorecard is the review form of a challenge.
type Scorecard struct {
	Name      string
	Questions []ScorecardQuestion
}

func (Scorecard) Descriptor() *ledger.Descriptor { return scorecardDescriptor }

func (s Scorecard) ToRow() ledger.Row {
	row := ledger.Row{}
	putString(row, "name", s.Name)
	return row
}

func (s *Scorecard) FromRow(row ledger.Row) { s.Name = rowString(row, "name") }

// ScorecardQuestion is one question. Weight is a fraction in [0, 1] stored
// as rounded hundredths; Order is the key review items answer by.
type ScorecardQuestion struct {
	Text   string
	Weight float64
	Order  int64
}

func (ScorecardQuestion) Descriptor() *ledger.Descriptor { return questionDescriptor }

func (q ScorecardQuestion) ToRow() ledger.Row {
	row := ledger.Row{}
	putString(row, "text", q.Text)
	putNumber(row, "weight", int64(math.Floor(q.Weight*100+0.5)))
	putNumber(row, "order", q.Order)
	return row
}

func (q *ScorecardQuestion) FromRow(row ledger.Row) {
	q.Text = rowString(row, "text")
	q.Weight = float64(rowNumber(row, "weight")) / 100
	q.Order = rowNumber(row, "order")
}

// Validate checks the scorecard before it is written. Orders must be
// positive and distinct since zero is the ledger's absent value.
func (s Scorecard) Validate() error {
	if s.Name == "" {
		return apperrors.New(apperrors.CodeValidation, "scorecard name is required")
	}
	seen := make(map[int64]bool, len(s.Questions))
	for _, q := range s.Questions {
		if q.Text == "" {
			return apperrors.New(apperrors.CodeValidation, "scorecard question text is required")
		}
		if q.Weight < 0 || q.Weight > 1 || math.IsNaN(q.Weight) {
			return apperrors.Newf(apperrors.CodeValidation, "question %d weight %v is outside [0, 1]", q.Order, q.Weight)
		}
		if q.Order < 1 {
			return apperrors.Newf(apperrors.CodeValidation, "question %q order must be positive", q.Text)
		}
		if seen[q.Order] {
			return apperrors.Newf(apperrors.CodeValidation, "duplicate question order %d", q.Order)
		}
		seen[q.Order] = true
	}
	return nil
}
