package app

import (
	"context"
	"fmt"

	"github.com/louisbranch/challenge.space/internal/ledger"
	apperrors "github.com/louisbranch/challenge.space/internal/platform/errors"
	"github.com/louisbranch/challenge.space/internal/services/challenge/domain"
)

// ProjectInput is the payload of CreateProject.
type ProjectInput struct {
	ProjectID   string
	ClientID    string
	CopilotID   string
	Name        string
	Description string
	Budget      int64
}

// ProjectUpdate is the payload of UpdateProject. Nil fields are unchanged.
type ProjectUpdate struct {
	CopilotID   *string
	Name        *string
	Description *string
	Budget      *int64
	Status      *domain.ProjectStatus
}

// CreateProject writes a draft project to the private contract, visible
// only to the requester's peers.
func (s *Service) CreateProject(ctx context.Context, requester *domain.Requester, in ProjectInput) (domain.Project, error) {
	if err := requireRole(requester, domain.RoleManager, domain.RoleClient); err != nil {
		return domain.Project{}, err
	}
	if err := required("projectId", in.ProjectID, "clientId", in.ClientID, "name", in.Name); err != nil {
		return domain.Project{}, err
	}
	if in.Budget < 0 {
		return domain.Project{}, apperrors.New(apperrors.CodeValidation, "budget must not be negative")
	}
	if in.CopilotID != "" {
		if err := s.expectRole(ctx, in.CopilotID, domain.RoleCopilot); err != nil {
			return domain.Project{}, err
		}
	}
	if err := s.expectRole(ctx, in.ClientID, domain.RoleClient); err != nil {
		return domain.Project{}, err
	}
	privateFor, err := s.privateFor(requester)
	if err != nil {
		return domain.Project{}, err
	}

	client, err := s.clientFor(ctx, requester)
	if err != nil {
		return domain.Project{}, err
	}
	existing, err := ledger.QueryEntity[domain.Project](ctx, client, ledger.PrivateProject, "getProjectById", in.ProjectID)
	if err != nil {
		return domain.Project{}, fmt.Errorf("read project %s: %w", in.ProjectID, err)
	}
	if existing != nil {
		return domain.Project{}, apperrors.Newf(apperrors.CodeConflict, "project %s already exists", in.ProjectID)
	}

	project := domain.Project{
		ProjectID:   in.ProjectID,
		ClientID:    in.ClientID,
		CopilotID:   in.CopilotID,
		Name:        in.Name,
		Description: in.Description,
		Budget:      domain.Int64(in.Budget),
		Status:      domain.ProjectDraft,
		CreatedBy:   requester.MemberID,
	}
	if _, err := client.InvokeEntity(ctx, ledger.PrivateProject, "createProject", project, ledger.InvokeOptions{PrivateFor: privateFor}); err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

// UpdateProject merges update into the private record. A project leaving
// draft is copied to the public contract; a published project is kept in
// sync there. Published projects cannot return to draft.
func (s *Service) UpdateProject(ctx context.Context, requester *domain.Requester, projectID string, update ProjectUpdate) (domain.Project, error) {
	if err := requireRole(requester, domain.RoleManager); err != nil {
		return domain.Project{}, err
	}
	if update.CopilotID != nil && *update.CopilotID != "" {
		if err := s.expectRole(ctx, *update.CopilotID, domain.RoleCopilot); err != nil {
			return domain.Project{}, err
		}
	}
	if update.Status != nil && !update.Status.Valid() {
		return domain.Project{}, apperrors.Newf(apperrors.CodeValidation, "unknown project status %q", *update.Status)
	}
	if update.Budget != nil && *update.Budget < 0 {
		return domain.Project{}, apperrors.New(apperrors.CodeValidation, "budget must not be negative")
	}
	privateFor, err := s.privateFor(requester)
	if err != nil {
		return domain.Project{}, err
	}

	client, err := s.clientFor(ctx, requester)
	if err != nil {
		return domain.Project{}, err
	}
	current, err := ledger.QueryEntity[domain.Project](ctx, client, ledger.PrivateProject, "getProjectById", projectID)
	if err != nil {
		return domain.Project{}, fmt.Errorf("read project %s: %w", projectID, err)
	}
	if current == nil {
		return domain.Project{}, notFound("project", projectID)
	}
	wasDraft := current.Status == domain.ProjectDraft
	if !wasDraft && update.Status != nil && *update.Status == domain.ProjectDraft {
		return domain.Project{}, apperrors.New(apperrors.CodeValidation, "cannot roll the project back to draft")
	}

	updated := *current
	if update.CopilotID != nil {
		updated.CopilotID = *update.CopilotID
	}
	if update.Name != nil {
		updated.Name = *update.Name
	}
	if update.Description != nil {
		updated.Description = *update.Description
	}
	if update.Budget != nil {
		updated.Budget = domain.Int64(*update.Budget)
	}
	if update.Status != nil {
		updated.Status = *update.Status
	}
	updated.UpdatedBy = requester.MemberID

	if _, err := client.InvokeEntity(ctx, ledger.PrivateProject, "updateProject", updated, ledger.InvokeOptions{PrivateFor: privateFor}); err != nil {
		return domain.Project{}, err
	}
	switch {
	case wasDraft && updated.Status != domain.ProjectDraft:
		_, err = client.InvokeEntity(ctx, ledger.PublicProject, "createProject", updated, ledger.InvokeOptions{})
	case !wasDraft:
		_, err = client.InvokeEntity(ctx, ledger.PublicProject, "updateProject", updated, ledger.InvokeOptions{})
	}
	if err != nil {
		return domain.Project{}, err
	}
	return updated, nil
}

// GetProject reads a project. Copilots read the public contract and only
// see projects they are assigned to; clients only see their own projects.
func (s *Service) GetProject(ctx context.Context, requester *domain.Requester, projectID string) (domain.Project, error) {
	if err := requireRole(requester, domain.RoleManager, domain.RoleClient, domain.RoleCopilot); err != nil {
		return domain.Project{}, err
	}
	client, err := s.clientFor(ctx, requester)
	if err != nil {
		return domain.Project{}, err
	}
	project, err := ledger.QueryEntity[domain.Project](ctx, client, projectContract(requester), "getProjectById", projectID)
	if err != nil {
		return domain.Project{}, fmt.Errorf("read project %s: %w", projectID, err)
	}
	if project == nil || !canSeeProject(requester, *project) {
		return domain.Project{}, notFound("project", projectID)
	}
	return *project, nil
}

// ListProjects lists the projects the requester may see.
func (s *Service) ListProjects(ctx context.Context, requester *domain.Requester) ([]domain.Project, error) {
	if err := requireRole(requester, domain.RoleManager, domain.RoleClient, domain.RoleCopilot); err != nil {
		return nil, err
	}
	client, err := s.clientFor(ctx, requester)
	if err != nil {
		return nil, err
	}
	projects, err := ledger.QueryEntityList[domain.Project](ctx, client, projectContract(requester), "getProject")
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	visible := projects[:0]
	for _, p := range projects {
		if canSeeProject(requester, p) {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

func projectContract(requester *domain.Requester) ledger.Contract {
	if requester.Is(domain.RoleCopilot) {
		return ledger.PublicProject
	}
	return ledger.PrivateProject
}

func canSeeProject(requester *domain.Requester, p domain.Project) bool {
	switch requester.Role {
	case domain.RoleCopilot:
		return p.CopilotID == requester.MemberID
	case domain.RoleClient:
		return p.ClientID == requester.MemberID
	default:
		return true
	}
}

func (s *Service) privateFor(requester *domain.Requester) ([]string, error) {
	peers := s.ledger.PrivateFor(string(requester.Role))
	if len(peers) == 0 {
		return nil, apperrors.WithMetadata(apperrors.CodeForbidden,
			"private contracts are for manager and client only",
			map[string]string{"Role": string(requester.Role)})
	}
	return peers, nil
}

// expectRole checks that memberID exists and has role.
func (s *Service) expectRole(ctx context.Context, memberID string, role domain.Role) error {
	user, err := s.lookupUser(ctx, memberID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.Newf(apperrors.CodeValidation, "cannot find %s with id: %s", role, memberID)
	}
	if user.Role != role {
		return apperrors.Newf(apperrors.CodeValidation, "user with id: %s is not a %s", memberID, role)
	}
	return nil
}
