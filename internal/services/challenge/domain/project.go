package domain

import "github.com/louisbranch/challenge.space/internal/ledger"

// ProjectStatus is the publication state of a project.
type ProjectStatus string

const (
	// ProjectDraft projects live only on the private contract.
	ProjectDraft ProjectStatus = "draft"
	// ProjectActive projects are mirrored to the public contract.
	ProjectActive ProjectStatus = "active"
)

// Valid reports whether s is a known status.
func (s ProjectStatus) Valid() bool {
	return s == ProjectDraft || s == ProjectActive
}

var projectDescriptor = ledger.NewDescriptor("Project", "projectId", []ledger.Field{
	ledger.String("projectId"),
	ledger.String("clientId"),
	ledger.String("copilotId"),
	ledger.String("name"),
	ledger.String("description"),
	ledger.Number("budget").AsPrivate(),
	ledger.String("status"),
	ledger.String("createdBy"),
	ledger.String("updatedBy"),
},
	ledger.Group{Name: "Part1", Fields: []string{"projectId", "clientId", "copilotId", "name", "description"}},
	ledger.Group{Name: "Part2", Fields: []string{"budget", "status", "createdBy", "updatedBy"}},
)

// Project groups challenges for one client. Budget is only stored on the
// private contract.
type Project struct {
	ProjectID   string
	ClientID    string
	CopilotID   string
	Name        string
	Description string
	Budget      *int64
	Status      ProjectStatus
	CreatedBy   string
	UpdatedBy   string
}

func (Project) Descriptor() *ledger.Descriptor { return projectDescriptor }

func (p Project) ToRow() ledger.Row {
	row := ledger.Row{}
	putString(row, "projectId", p.ProjectID)
	putString(row, "clientId", p.ClientID)
	putString(row, "copilotId", p.CopilotID)
	putString(row, "name", p.Name)
	putString(row, "description", p.Description)
	putOptional(row, "budget", p.Budget)
	putString(row, "status", string(p.Status))
	putString(row, "createdBy", p.CreatedBy)
	putString(row, "updatedBy", p.UpdatedBy)
	return row
}

func (p *Project) FromRow(row ledger.Row) {
	p.ProjectID = rowString(row, "projectId")
	p.ClientID = rowString(row, "clientId")
	p.CopilotID = rowString(row, "copilotId")
	p.Name = rowString(row, "name")
	p.Description = rowString(row, "description")
	p.Budget = rowOptional(row, "budget")
	p.Status = ProjectStatus(rowString(row, "status"))
	p.CreatedBy = rowString(row, "createdBy")
	p.UpdatedBy = rowString(row, "updatedBy")
}
