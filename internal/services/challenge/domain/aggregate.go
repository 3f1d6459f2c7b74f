package domain

// Aggregate is the assembled view of one challenge. It owns every nested
// record by value; Submissions is nil when redaction hides them.
type Aggregate struct {
	Challenge
	Phases      []Phase
	Members     []Member
	Reviewers   []Reviewer
	Submissions []Submission
	Scorecard   *Scorecard
}

// Clone returns a deep copy that shares no slices or pointers with a.
func (a *Aggregate) Clone() *Aggregate {
	if a == nil {
		return nil
	}
	out := &Aggregate{
		Challenge: a.Challenge,
		Phases:    append([]Phase(nil), a.Phases...),
		Members:   append([]Member(nil), a.Members...),
		Reviewers: append([]Reviewer(nil), a.Reviewers...),
	}
	out.Challenge.Prizes = a.Prizes.clone()
	if a.Submissions != nil {
		out.Submissions = make([]Submission, len(a.Submissions))
		for i, s := range a.Submissions {
			out.Submissions[i] = s.clone()
		}
	}
	if a.Scorecard != nil {
		sc := *a.Scorecard
		sc.Questions = append([]ScorecardQuestion(nil), a.Scorecard.Questions...)
		out.Scorecard = &sc
	}
	return out
}

func (s Submission) clone() Submission {
	if s.Reviews != nil {
		reviews := make([]Review, len(s.Reviews))
		for i, r := range s.Reviews {
			reviews[i] = r.clone()
		}
		s.Reviews = reviews
	}
	return s
}

func (r Review) clone() Review {
	if r.Items != nil {
		items := make([]ReviewItem, len(r.Items))
		for i, item := range r.Items {
			if item.Appeal != nil {
				appeal := *item.Appeal
				appeal.FinalScore = cloneOptional(item.Appeal.FinalScore)
				item.Appeal = &appeal
			}
			items[i] = item
		}
		r.Items = items
	}
	return r
}

// Member returns the registration of memberID.
func (a *Aggregate) Member(memberID string) (Member, bool) {
	for _, m := range a.Members {
		if m.ID == memberID {
			return m, true
		}
	}
	return Member{}, false
}

// IsRegisteredMember reports whether memberID holds an active registration.
func (a *Aggregate) IsRegisteredMember(memberID string) bool {
	m, ok := a.Member(memberID)
	return ok && m.Registered()
}

// IsReviewer reports whether memberID is assigned as a reviewer.
func (a *Aggregate) IsReviewer(memberID string) bool {
	for _, r := range a.Reviewers {
		if r.ID == memberID {
			return true
		}
	}
	return false
}

// SubmissionOf returns the last submission of memberID.
func (a *Aggregate) SubmissionOf(memberID string) (Submission, bool) {
	var (
		found Submission
		ok    bool
	)
	for _, s := range a.Submissions {
		if s.MemberID == memberID {
			found, ok = s, true
		}
	}
	return found, ok
}

// ReviewItem finds the answer a reviewer gave to question on memberID's
// submissions.
func (a *Aggregate) ReviewItem(memberID, reviewerID string, question int64) (ReviewItem, bool) {
	for _, s := range a.Submissions {
		if s.MemberID != memberID {
			continue
		}
		for _, r := range s.Reviews {
			if r.ReviewerID != reviewerID {
				continue
			}
			if item, ok := r.Item(question); ok {
				return item, true
			}
		}
	}
	return ReviewItem{}, false
}
