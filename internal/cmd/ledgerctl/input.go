package ledgerctl

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	challengeapp "github.com/louisbranch/challenge.space/internal/services/challenge/app"
	"github.com/louisbranch/challenge.space/internal/services/challenge/domain"
)

// readInput decodes the YAML document at path into target. A path of "-"
// reads stdin.
func readInput(path string, stdin io.Reader, target any) error {
	if path == "" {
		return fmt.Errorf("input file is required (-f)")
	}
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// writeOutput prints v as a YAML document.
func writeOutput(out io.Writer, v any) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return enc.Close()
}

type phaseInput struct {
	Name  string    `yaml:"name"`
	Start time.Time `yaml:"start"`
	End   time.Time `yaml:"end"`
}

func toPhases(in []phaseInput) []domain.Phase {
	if in == nil {
		return nil
	}
	out := make([]domain.Phase, 0, len(in))
	for _, p := range in {
		out = append(out, domain.Phase{Name: domain.PhaseName(p.Name), Start: p.Start.UTC(), End: p.End.UTC()})
	}
	return out
}

type prizesInput struct {
	Winners  []int64 `yaml:"winners"`
	Reviewer *int64  `yaml:"reviewer"`
	Copilot  *int64  `yaml:"copilot"`
}

func (p prizesInput) domain() domain.Prizes {
	return domain.Prizes{Winners: p.Winners, Reviewer: p.Reviewer, Copilot: p.Copilot}
}

type challengeInput struct {
	ID          string       `yaml:"id"`
	Project     string       `yaml:"project"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Phases      []phaseInput `yaml:"phases"`
	Prizes      prizesInput  `yaml:"prizes"`
}

func (c challengeInput) app() challengeapp.ChallengeInput {
	return challengeapp.ChallengeInput{
		ChallengeID: c.ID,
		ProjectID:   c.Project,
		Name:        c.Name,
		Description: c.Description,
		Phases:      toPhases(c.Phases),
		Prizes:      c.Prizes.domain(),
	}
}

type challengeUpdateInput struct {
	Name        *string      `yaml:"name"`
	Description *string      `yaml:"description"`
	Prizes      *prizesInput `yaml:"prizes"`
	Phases      []phaseInput `yaml:"phases"`
}

func (c challengeUpdateInput) app() challengeapp.ChallengeUpdate {
	update := challengeapp.ChallengeUpdate{
		Name:        c.Name,
		Description: c.Description,
		Phases:      toPhases(c.Phases),
	}
	if c.Prizes != nil {
		prizes := c.Prizes.domain()
		update.Prizes = &prizes
	}
	return update
}

type projectInput struct {
	ID          string `yaml:"id"`
	Client      string `yaml:"client"`
	Copilot     string `yaml:"copilot"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Budget      int64  `yaml:"budget"`
}

func (p projectInput) app() challengeapp.ProjectInput {
	return challengeapp.ProjectInput{
		ProjectID:   p.ID,
		ClientID:    p.Client,
		CopilotID:   p.Copilot,
		Name:        p.Name,
		Description: p.Description,
		Budget:      p.Budget,
	}
}

type projectUpdateInput struct {
	Copilot     *string `yaml:"copilot"`
	Name        *string `yaml:"name"`
	Description *string `yaml:"description"`
	Budget      *int64  `yaml:"budget"`
	Status      *string `yaml:"status"`
}

func (p projectUpdateInput) app() challengeapp.ProjectUpdate {
	update := challengeapp.ProjectUpdate{
		CopilotID:   p.Copilot,
		Name:        p.Name,
		Description: p.Description,
		Budget:      p.Budget,
	}
	if p.Status != nil {
		status := domain.ProjectStatus(*p.Status)
		update.Status = &status
	}
	return update
}

type scorecardInput struct {
	Name      string `yaml:"name"`
	Questions []struct {
		Text   string  `yaml:"text"`
		Weight float64 `yaml:"weight"`
		Order  int64   `yaml:"order"`
	} `yaml:"questions"`
}

func (s scorecardInput) domain() domain.Scorecard {
	out := domain.Scorecard{Name: s.Name}
	for _, q := range s.Questions {
		out.Questions = append(out.Questions, domain.ScorecardQuestion{Text: q.Text, Weight: q.Weight, Order: q.Order})
	}
	return out
}

type reviewInput struct {
	Member string `yaml:"member"`
	Items  []struct {
		Question int64  `yaml:"question"`
		Score    int64  `yaml:"score"`
		Comments string `yaml:"comments"`
	} `yaml:"items"`
}

func (r reviewInput) domain(reviewerID string) domain.Review {
	out := domain.Review{ReviewerID: reviewerID, MemberID: r.Member}
	for _, item := range r.Items {
		out.Items = append(out.Items, domain.ReviewItem{Question: item.Question, Score: item.Score, Comments: item.Comments})
	}
	return out
}

type appealInput struct {
	Reviewer string `yaml:"reviewer"`
	Question int64  `yaml:"question"`
	Text     string `yaml:"text"`
}

func (a appealInput) domain(memberID string) domain.Appeal {
	return domain.Appeal{
		ReviewerID: a.Reviewer,
		MemberID:   memberID,
		Appeal:     domain.AppealText{Question: a.Question, Text: a.Text},
	}
}

type responseInput struct {
	Member     string `yaml:"member"`
	Question   int64  `yaml:"question"`
	Text       string `yaml:"text"`
	FinalScore *int64 `yaml:"finalScore"`
}

func (r responseInput) domain(reviewerID string) domain.AppealResponse {
	return domain.AppealResponse{
		ReviewerID: reviewerID,
		MemberID:   r.Member,
		Response:   domain.ResponseText{Question: r.Question, Text: r.Text, FinalScore: r.FinalScore},
	}
}
