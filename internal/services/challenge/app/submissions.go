package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/louisbranch/challenge.space/internal/ledger"
	"github.com/louisbranch/challenge.space/internal/services/challenge/domain"
)

// Upload is a submission file staged on local disk. The service owns Path
// and removes it before returning.
type Upload struct {
	ChallengeID      string
	MemberID         string
	OriginalFileName string
	Path             string
}

// Download is the content of a stored submission.
type Download struct {
	FileName string
	Content  []byte
}

// UploadSubmission stores the member's file and records it on the ledger.
// Members upload for themselves only, while the challenge is in Register
// or Submission and they hold an active registration.
func (s *Service) UploadSubmission(ctx context.Context, requester *domain.Requester, upload Upload) (domain.Submission, error) {
	if upload.Path != "" {
		defer func() {
			if err := os.Remove(upload.Path); err != nil && !os.IsNotExist(err) {
				s.logf("remove staged upload %s: %v", upload.Path, err)
			}
		}()
	}
	if err := requireRole(requester, domain.RoleMember); err != nil {
		return domain.Submission{}, err
	}
	if upload.MemberID != requester.MemberID {
		return domain.Submission{}, forbidden("cannot upload a submission for another member")
	}
	if err := required("challengeId", upload.ChallengeID, "path", upload.Path); err != nil {
		return domain.Submission{}, err
	}
	if s.blobs == nil {
		return domain.Submission{}, fmt.Errorf("blob store is not configured")
	}
	original := upload.OriginalFileName
	if original == "" {
		original = filepath.Base(upload.Path)
	}

	agg, err := s.Assemble(ctx, upload.ChallengeID)
	if err != nil {
		return domain.Submission{}, err
	}
	if agg.CurrentPhase != domain.PhaseSubmission && agg.CurrentPhase != domain.PhaseRegister {
		return domain.Submission{}, phaseForbidden(agg.CurrentPhase, "submissions are only accepted in the Register and Submission phases")
	}
	if !agg.IsRegisteredMember(requester.MemberID) {
		return domain.Submission{}, forbidden("you have not registered for this challenge")
	}

	data, err := os.ReadFile(upload.Path)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("read staged upload: %w", err)
	}
	hash, err := s.blobs.Put(ctx, data)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("store submission file: %w", err)
	}
	submissionID, err := s.newID()
	if err != nil {
		return domain.Submission{}, fmt.Errorf("generate submission id: %w", err)
	}
	submission := domain.Submission{
		SubmissionID:     submissionID,
		ChallengeID:      upload.ChallengeID,
		MemberID:         requester.MemberID,
		OriginalFileName: original,
		FileName:         domain.StoredFileName(submissionID, original),
		ContentHash:      hash,
		Timestamp:        s.now(),
	}

	client, err := s.clientFor(ctx, requester)
	if err != nil {
		return domain.Submission{}, err
	}
	if _, err := client.InvokeEntity(ctx, ledger.PublicChallengeSubmission, "uploadSubmission", submission, ledger.InvokeOptions{}); err != nil {
		return domain.Submission{}, err
	}
	return submission, nil
}

// DownloadSubmission returns a stored submission file. Members must be
// registered on the challenge and copilots must own its project.
func (s *Service) DownloadSubmission(ctx context.Context, requester *domain.Requester, challengeID, submissionID string) (Download, error) {
	if err := requireRole(requester, domain.RoleMember, domain.RoleManager, domain.RoleCopilot); err != nil {
		return Download{}, err
	}
	if s.blobs == nil {
		return Download{}, fmt.Errorf("blob store is not configured")
	}
	agg, err := s.Assemble(ctx, challengeID)
	if err != nil {
		return Download{}, err
	}
	switch requester.Role {
	case domain.RoleMember:
		if !agg.IsRegisteredMember(requester.MemberID) {
			return Download{}, forbidden("you have not registered for this challenge")
		}
	case domain.RoleCopilot:
		if !s.ownsProject(ctx, requester, agg.ProjectID) {
			return Download{}, forbidden("you are not the copilot assigned to this challenge")
		}
	}

	client, err := s.clientFor(ctx, requester)
	if err != nil {
		return Download{}, err
	}
	submission, err := ledger.QueryEntity[domain.Submission](ctx, client, ledger.PublicChallengeSubmission,
		"getSubmissionById", challengeID, submissionID)
	if err != nil {
		return Download{}, fmt.Errorf("read submission %s: %w", submissionID, err)
	}
	if submission == nil {
		return Download{}, notFound("submission", submissionID)
	}
	content, err := s.blobs.Get(ctx, submission.ContentHash)
	if err != nil {
		return Download{}, fmt.Errorf("fetch submission %s: %w", submissionID, err)
	}
	return Download{FileName: submission.FileName, Content: content}, nil
}
