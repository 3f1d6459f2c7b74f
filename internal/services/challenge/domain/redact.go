package domain

// RedactOptions carries facts the filter cannot derive from the aggregate.
type RedactOptions struct {
	// OwnsProject reports whether a copilot requester is the project's
	// assigned copilot.
	OwnsProject bool
}

// Redact returns a copy of agg narrowed to what requester may see. Only
// submissions and their reviews are ever removed.
//
// Anonymous callers and clients see no submissions. A copilot sees them only
// on projects they own, managers see everything, members see their own
// submission (without reviews before the Appeal phase), and reviewers see
// the reviews they authored on challenges they are assigned to.
func Redact(agg *Aggregate, requester *Requester, opts RedactOptions) *Aggregate {
	out := agg.Clone()
	if out == nil {
		return nil
	}
	if requester == nil {
		out.Submissions = nil
		return out
	}

	switch requester.Role {
	case RoleManager:
	case RoleCopilot:
		if !opts.OwnsProject {
			out.Submissions = nil
		}
	case RoleMember:
		own := make([]Submission, 0, 1)
		for _, s := range out.Submissions {
			if s.MemberID != requester.MemberID {
				continue
			}
			if !out.CurrentPhase.ReviewsVisible() {
				s.Reviews = nil
			}
			own = append(own, s)
		}
		out.Submissions = own
	case RoleReviewer:
		if !out.IsReviewer(requester.MemberID) {
			out.Submissions = nil
			break
		}
		for i := range out.Submissions {
			authored := make([]Review, 0, 1)
			for _, r := range out.Submissions[i].Reviews {
				if r.ReviewerID == requester.MemberID {
					authored = append(authored, r)
				}
			}
			out.Submissions[i].Reviews = authored
		}
	default:
		out.Submissions = nil
	}
	return out
}
