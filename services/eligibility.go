package services

import (
	"peer-review-system/models"
	"peer-review-system/utils"

	"gorm.io/gorm"
)

// EligibilityInput describes one candidate-pool query.
type EligibilityInput struct {
	SubmissionID string
	AuthorID     string   // external user ID, never eligible for own submission
	Exclude      []string // additional external user IDs to skip
	TaskType     string   // submission task type, matched when the policy demands it
}

// EligibleReviewers returns every reviewer passing all six eligibility
// rules, each annotated with its current active-assignment count. An empty
// result is not an error; the caller decides whether that is fatal.
func (s *ReviewerPoolService) EligibleReviewers(in EligibilityInput) ([]ReviewerCandidate, error) {
	now := s.now()

	excluded := make(map[string]bool, len(in.Exclude)+1)
	excluded[in.AuthorID] = true
	for _, id := range in.Exclude {
		excluded[id] = true
	}

	users, err := utils.WithRetry(func() ([]models.ReviewerUser, error) {
		var users []models.ReviewerUser
		err := s.DB.
			Where("role IN ?", []string{models.RoleReviewer, models.RoleModerator, models.RoleAdmin}).
			Find(&users).Error
		return users, err
	}, utils.IsTransient, s.Backoff)
	if err != nil {
		return nil, err
	}

	activeCounts, err := s.activeAssignmentCounts()
	if err != nil {
		return nil, err
	}

	var candidates []ReviewerCandidate
	for _, u := range users {
		if excluded[u.ExternalUserID] {
			continue
		}
		if !u.CanReview() {
			continue
		}
		if u.OptedOutAt(now) {
			continue
		}
		if u.PausedAt(now) {
			continue
		}
		active := activeCounts[u.ExternalUserID]
		if active >= s.Policy.MaxActiveAssignments {
			continue
		}
		if u.TotalXP < s.Policy.MinReviewerXP && !u.IsOperator() {
			continue
		}
		if s.Policy.RequireTaskTypeMatch && !u.AcceptsTaskType(in.TaskType) {
			continue
		}
		candidates = append(candidates, ReviewerCandidate{
			ID:                    u.ExternalUserID,
			Role:                  u.Role,
			TotalXP:               u.TotalXP,
			MissedReviews:         u.MissedReviews,
			ActiveAssignmentCount: active,
		})
	}
	return candidates, nil
}

// activeAssignmentCounts returns reviewer → count of PENDING/IN_PROGRESS
// assignments, from one grouped query.
func (s *ReviewerPoolService) activeAssignmentCounts() (map[string]int, error) {
	type row struct {
		ReviewerID string
		N          int
	}
	rows, err := utils.WithRetry(func() ([]row, error) {
		var rows []row
		err := s.DB.Model(&models.ReviewAssignment{}).
			Select("reviewer_id, COUNT(*) AS n").
			Where("status IN ?", []models.AssignmentStatus{models.AssignmentPending, models.AssignmentInProgress}).
			Group("reviewer_id").
			Scan(&rows).Error
		return rows, err
	}, utils.IsTransient, s.Backoff)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.ReviewerID] = r.N
	}
	return counts, nil
}

// assignedReviewerIDs returns the external IDs of every reviewer that holds
// any assignment row for the submission, terminal or not. Used as the
// exclusion set during reassignment so a replacement can never be someone
// already attached to the submission.
func (s *ReviewerPoolService) assignedReviewerIDs(db *gorm.DB, submissionID string) ([]string, error) {
	var ids []string
	err := db.Model(&models.ReviewAssignment{}).
		Where("submission_id = ?", submissionID).
		Distinct().
		Pluck("reviewer_id", &ids).Error
	return ids, err
}
