package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"peer-review-system/models"
	"peer-review-system/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssignmentOptions tunes one AssignReviewers call. Zero values fall back to
// the service policy.
type AssignmentOptions struct {
	MinimumReviewers       int      `json:"minimum_reviewers"`
	AllowPartialAssignment bool     `json:"allow_partial_assignment"`
	ExcludeReviewers       []string `json:"exclude_reviewers"`
}

// AssignmentResult is the structured outcome of an assignment attempt.
// Business failures land in Errors with Success=false; degraded side
// effects (submission update, notifications) land in Warnings with
// Success=true.
type AssignmentResult struct {
	Success           bool     `json:"success"`
	AssignedReviewers []string `json:"assigned_reviewers"`
	Errors            []string `json:"errors,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`
}

// ReviewerPoolService selects eligible, workload-balanced reviewers for a
// submission and persists their assignments.
type ReviewerPoolService struct {
	DB            *gorm.DB
	Policy        ReviewPolicy
	Backoff       utils.BackoffPolicy
	Audit         *AuditService
	Notifications *NotificationService

	now func() time.Time
}

func NewReviewerPoolService(db *gorm.DB, policy ReviewPolicy, audit *AuditService, notifications *NotificationService) *ReviewerPoolService {
	return &ReviewerPoolService{
		DB:            db,
		Policy:        policy,
		Backoff:       utils.DefaultBackoff,
		Audit:         audit,
		Notifications: notifications,
		now:           time.Now,
	}
}

// AssignReviewers picks reviewers for the submission and writes one PENDING
// assignment row per pick. The assignment rows are the primary operation:
// failure there is fatal. The subsequent submission status/deadline update
// is best-effort and degrades to a warning, since the assignments are
// already durable.
func (s *ReviewerPoolService) AssignReviewers(submissionID, authorID string, opts AssignmentOptions) AssignmentResult {
	result := AssignmentResult{AssignedReviewers: []string{}}

	required := opts.MinimumReviewers
	if required <= 0 {
		required = s.Policy.MinimumReviewers
	}
	allowPartial := opts.AllowPartialAssignment || s.Policy.AllowPartialAssignment

	submission, err := utils.WithRetry(func() (*models.Submission, error) {
		var sub models.Submission
		if err := s.DB.First(&sub, "id = ?", submissionID).Error; err != nil {
			return nil, err
		}
		return &sub, nil
	}, utils.IsTransient, s.Backoff)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result.Errors = append(result.Errors, fmt.Sprintf("submission %s not found", submissionID))
		} else {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to load submission %s: %v", submissionID, err))
		}
		return result
	}
	if authorID == "" {
		authorID = submission.UserID
	}

	// Reviewers already holding a live assignment on this submission can't
	// be picked twice: at most one non-terminal row per (submission,
	// reviewer) pair.
	existing, err := s.assignedReviewerIDs(s.DB, submissionID)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to load existing assignments: %v", err))
		return result
	}

	candidates, err := s.EligibleReviewers(EligibilityInput{
		SubmissionID: submissionID,
		AuthorID:     authorID,
		Exclude:      append(existing, opts.ExcludeReviewers...),
		TaskType:     submission.TaskType,
	})
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("eligibility query failed: %v", err))
		return result
	}

	selected, warnings, err := SelectReviewers(candidates, required, allowPartial)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	result.Warnings = append(result.Warnings, warnings...)

	deadline := ComputeReviewDeadline(s.now(), s.Policy.ReviewWindow)

	for _, candidate := range selected {
		assignment := &models.ReviewAssignment{
			ID:           uuid.NewString(),
			SubmissionID: submissionID,
			ReviewerID:   candidate.ID,
			Status:       models.AssignmentPending,
			Deadline:     deadline,
			AssignedAt:   s.now(),
		}
		err := utils.RetryVoid(func() error {
			return s.DB.Create(assignment).Error
		}, utils.IsTransient, s.Backoff)
		if err != nil {
			// A lost core write corrupts the assignment invariant: fatal.
			result.Errors = append(result.Errors,
				fmt.Sprintf("failed to persist assignment for reviewer %s: %v", candidate.ID, err))
			return result
		}
		result.AssignedReviewers = append(result.AssignedReviewers, candidate.ID)

		if notifyErr := s.Notifications.NotifyAssignment(candidate.ID, submissionID, assignment.ID,
			deadline.Format(time.RFC1123)); notifyErr != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("failed to notify reviewer %s: %v", candidate.ID, notifyErr))
		}
	}

	if err := s.updateSubmissionAfterAssignment(submissionID, deadline); err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("assignments saved, but submission update failed: %v", err))
	}

	s.Audit.LogSystemAction("assign_reviewers", "submission", submissionID, map[string]any{
		"assigned": result.AssignedReviewers,
		"deadline": deadline,
	})

	log.Printf("[ASSIGN] submission=%s reviewers=%v deadline=%s warnings=%d",
		submissionID, result.AssignedReviewers, deadline.Format(time.RFC3339), len(result.Warnings))

	result.Success = true
	return result
}

// updateSubmissionAfterAssignment recomputes the live (non-REASSIGNED)
// assignment count and moves the submission into peer review.
func (s *ReviewerPoolService) updateSubmissionAfterAssignment(submissionID string, deadline time.Time) error {
	return utils.RetryVoid(func() error {
		var count int64
		if err := s.DB.Model(&models.ReviewAssignment{}).
			Where("submission_id = ? AND status <> ?", submissionID, models.AssignmentReassigned).
			Count(&count).Error; err != nil {
			return err
		}
		return s.DB.Model(&models.Submission{}).
			Where("id = ?", submissionID).
			Updates(map[string]any{
				"status":          models.SubmissionUnderPeerReview,
				"review_deadline": deadline,
				"review_count":    count,
			}).Error
	}, utils.IsTransient, s.Backoff)
}

// ComputeReviewDeadline adds the review window and pushes deadlines that
// land on a weekend to the following Monday, preserving the time of day.
// Reviewers are never handed a deadline that expires over a weekend.
func ComputeReviewDeadline(from time.Time, window time.Duration) time.Time {
	deadline := from.Add(window)
	switch deadline.Weekday() {
	case time.Saturday:
		deadline = deadline.AddDate(0, 0, 2)
	case time.Sunday:
		deadline = deadline.AddDate(0, 0, 1)
	}
	return deadline
}
