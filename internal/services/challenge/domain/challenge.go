package domain

import "github.com/louisbranch/challenge.space/internal/ledger"

var challengeDescriptor = ledger.NewDescriptor("Challenge", "challengeId", []ledger.Field{
	ledger.String("challengeId"),
	ledger.String("projectId"),
	ledger.String("name"),
	ledger.String("description"),
	ledger.String("currentPhase"),
	ledger.NumberList("winnerPrizes"),
	ledger.Number("reviewerPrize"),
	ledger.Number("copilotPrize"),
	ledger.String("createdBy"),
	ledger.String("updatedBy"),
},
	ledger.Group{Name: "Part1", Fields: []string{"challengeId", "projectId", "name", "description", "currentPhase"}},
	ledger.Group{Name: "Part2", Fields: []string{"winnerPrizes", "reviewerPrize", "copilotPrize", "createdBy", "updatedBy"}},
)

// Prizes are stored as three ledger columns.
type Prizes struct {
	Winners  []int64
	Reviewer *int64
	Copilot  *int64
}

func (p Prizes) clone() Prizes {
	return Prizes{
		Winners:  append([]int64(nil), p.Winners...),
		Reviewer: cloneOptional(p.Reviewer),
		Copilot:  cloneOptional(p.Copilot),
	}
}

// Challenge is the root record of a challenge.
type Challenge struct {
	ChallengeID  string
	ProjectID    string
	Name         string
	Description  string
	CurrentPhase PhaseName
	Prizes       Prizes
	CreatedBy    string
	UpdatedBy    string
}

func (Challenge) Descriptor() *ledger.Descriptor { return challengeDescriptor }

func (c Challenge) ToRow() ledger.Row {
	row := ledger.Row{}
	putString(row, "challengeId", c.ChallengeID)
	putString(row, "projectId", c.ProjectID)
	putString(row, "name", c.Name)
	putString(row, "description", c.Description)
	putString(row, "currentPhase", string(c.CurrentPhase))
	putNumbers(row, "winnerPrizes", c.Prizes.Winners)
	putOptional(row, "reviewerPrize", c.Prizes.Reviewer)
	putOptional(row, "copilotPrize", c.Prizes.Copilot)
	putString(row, "createdBy", c.CreatedBy)
	putString(row, "updatedBy", c.UpdatedBy)
	return row
}

func (c *Challenge) FromRow(row ledger.Row) {
	c.ChallengeID = rowString(row, "challengeId")
	c.ProjectID = rowString(row, "projectId")
	c.Name = rowString(row, "name")
	c.Description = rowString(row, "description")
	c.CurrentPhase = PhaseName(rowString(row, "currentPhase"))
	c.Prizes = Prizes{
		Winners:  rowNumbers(row, "winnerPrizes"),
		Reviewer: rowOptional(row, "reviewerPrize"),
		Copilot:  rowOptional(row, "copilotPrize"),
	}
	c.CreatedBy = rowString(row, "createdBy")
	c.UpdatedBy = rowString(row, "updatedBy")
}

var challengeRefDescriptor = ledger.NewDescriptor("ChallengeRef", "id", []ledger.Field{
	ledger.String("id"),
})

// ChallengeRef is one entry of the on-going challenge index.
type ChallengeRef struct {
	ID string
}

func (ChallengeRef) Descriptor() *ledger.Descriptor { return challengeRefDescriptor }

func (r ChallengeRef) ToRow() ledger.Row {
	row := ledger.Row{}
	putString(row, "id", r.ID)
	return row
}

func (r *ChallengeRef) FromRow(row ledger.Row) { r.ID = rowString(row, "id") }
