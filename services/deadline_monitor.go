package services

import (
	"fmt"
	"log"
	"math"
	"time"

	"peer-review-system/models"
	"peer-review-system/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeadlineMonitorResult aggregates one sweep over all non-terminal
// assignments.
type DeadlineMonitorResult struct {
	Processed     int      `json:"processed"`
	Reminders     int      `json:"reminders"`
	Reassignments int      `json:"reassignments"`
	Penalties     int      `json:"penalties"`
	Errors        []string `json:"errors,omitempty"`
}

// DeadlineStatus is one row of the ops view: where each live assignment
// stands relative to its deadline.
type DeadlineStatus struct {
	AssignmentID       string                  `json:"assignment_id"`
	SubmissionID       string                  `json:"submission_id"`
	ReviewerID         string                  `json:"reviewer_id"`
	Status             models.AssignmentStatus `json:"status"`
	Deadline           time.Time               `json:"deadline"`
	HoursUntilDeadline float64                 `json:"hours_until_deadline"`
	Classification     string                  `json:"classification"` // on_track | reminder_due | overdue | awaiting_reassignment
}

// DeadlineMonitorService is the sweep driver. It holds no state between
// runs: every invocation re-derives its working set from storage, and every
// mutating step is either conditional or guarded by a ledger existence
// check, so overlapping or restarted sweeps cannot corrupt anything.
type DeadlineMonitorService struct {
	DB            *gorm.DB
	Policy        ReviewPolicy
	Backoff       utils.BackoffPolicy
	Ledger        *LedgerService
	Audit         *AuditService
	Notifications *NotificationService
	Pool          *ReviewerPoolService

	now func() time.Time
}

func NewDeadlineMonitorService(db *gorm.DB, policy ReviewPolicy, ledger *LedgerService, audit *AuditService, notifications *NotificationService, pool *ReviewerPoolService) *DeadlineMonitorService {
	return &DeadlineMonitorService{
		DB:            db,
		Policy:        policy,
		Backoff:       utils.DefaultBackoff,
		Ledger:        ledger,
		Audit:         audit,
		Notifications: notifications,
		Pool:          pool,
		now:           time.Now,
	}
}

// ProcessDeadlines runs one sweep. Per-assignment failures are collected in
// the result; one bad assignment never aborts the rest. The returned error
// is non-nil only when the working set itself could not be loaded.
func (s *DeadlineMonitorService) ProcessDeadlines() (DeadlineMonitorResult, error) {
	result := DeadlineMonitorResult{}

	assignments, err := utils.WithRetry(func() ([]models.ReviewAssignment, error) {
		var assignments []models.ReviewAssignment
		err := s.DB.
			Where("status IN ?", models.NonTerminalStatuses).
			Order("deadline ASC").
			Find(&assignments).Error
		return assignments, err
	}, utils.IsTransient, s.Backoff)
	if err != nil {
		return result, fmt.Errorf("failed to load assignments: %w", err)
	}

	for i := range assignments {
		a := &assignments[i]
		result.Processed++
		if err := s.processAssignment(a, &result); err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("assignment %s: %v", a.ID, err))
		}
	}

	log.Printf("[SWEEP] processed=%d reminders=%d reassignments=%d penalties=%d errors=%d",
		result.Processed, result.Reminders, result.Reassignments, result.Penalties, len(result.Errors))
	return result, nil
}

// processAssignment dispatches exhaustively on the status enum. The MISSED
// and overdue paths are mutually exclusive by this case split; there is no
// run in which both fire for the same row.
func (s *DeadlineMonitorService) processAssignment(a *models.ReviewAssignment, result *DeadlineMonitorResult) error {
	hoursUntil := a.Deadline.Sub(s.now()).Hours()

	switch a.Status {
	case models.AssignmentMissed:
		// Reassignment only after the grace window has fully elapsed.
		if hoursUntil <= -s.Policy.ReassignmentDelayHours {
			reassigned, err := s.attemptReassignment(a)
			if err != nil {
				return err
			}
			if reassigned {
				result.Reassignments++
			}
		}
		return nil

	case models.AssignmentPending, models.AssignmentInProgress:
		if hoursUntil <= 0 {
			// Reassignment is deliberately deferred to a later sweep so the
			// grace window is honored uniformly.
			penalized, err := s.handleOverdue(a)
			if err != nil {
				return err
			}
			if penalized {
				result.Penalties++
			}
			return nil
		}
		sent, err := s.maybeRemind(a, hoursUntil)
		if err != nil {
			return err
		}
		result.Reminders += sent
		return nil

	case models.AssignmentCompleted, models.AssignmentReassigned:
		// Terminal rows never load into the working set; seeing one means
		// the query and the enum disagree.
		return fmt.Errorf("terminal status %q in sweep working set", a.Status)
	}
	return fmt.Errorf("unknown assignment status %q", a.Status)
}

// handleOverdue applies the idempotent penalty path and flips the row to
// MISSED. Ordering matters: user mutations and ledger writes happen before
// the final status flip, so a crash mid-way leaves the row eligible for a
// clean resume — the next sweep finds the ledger entry and skips straight
// to the flip. Returns whether a new penalty was applied.
func (s *DeadlineMonitorService) handleOverdue(a *models.ReviewAssignment) (bool, error) {
	alreadyPenalized, err := s.Ledger.HasPenaltyFor(a.ReviewerID, a.SubmissionID)
	if err != nil {
		return false, fmt.Errorf("penalty existence check failed: %w", err)
	}

	if !alreadyPenalized {
		escalation, err := s.applyMissPenalty(a.ReviewerID, a.SubmissionID)
		if err != nil {
			return false, err
		}
		details := map[string]any{"reviewer_id": a.ReviewerID, "xp_delta": MissPenaltyXP}
		if escalation != nil {
			details["escalation"] = escalation.Describe()
		}
		s.Audit.LogSystemAction("review_missed", "review_assignment", a.ID, details)
	}

	if err := s.markMissed(a); err != nil {
		return !alreadyPenalized, err
	}
	return !alreadyPenalized, nil
}

// markMissed flips the row to MISSED. The conditional WHERE keeps it
// idempotent: a row already MISSED (or completed in a race with the
// reviewer) matches nothing and nothing changes.
func (s *DeadlineMonitorService) markMissed(a *models.ReviewAssignment) error {
	return utils.RetryVoid(func() error {
		res := s.DB.Model(&models.ReviewAssignment{}).
			Where("id = ? AND status IN ?", a.ID,
				[]models.AssignmentStatus{models.AssignmentPending, models.AssignmentInProgress}).
			Update("status", models.AssignmentMissed)
		if res.Error != nil {
			return res.Error
		}
		a.Status = models.AssignmentMissed
		return nil
	}, utils.IsTransient, s.Backoff)
}

// maybeRemind emits at most one reminder when the time-to-deadline sits
// within the tolerance window of a checkpoint. The stored notification row
// is the dedupe record, so re-running the sweep never re-sends.
func (s *DeadlineMonitorService) maybeRemind(a *models.ReviewAssignment, hoursUntil float64) (int, error) {
	tolerance := s.Policy.ReminderTolerance.Hours()
	for _, checkpoint := range s.Policy.ReminderCheckpoints {
		if math.Abs(hoursUntil-checkpoint) > tolerance {
			continue
		}
		interval := int(checkpoint)
		sent, err := s.Notifications.ReminderAlreadySent(a.ID, interval)
		if err != nil {
			return 0, fmt.Errorf("reminder dedupe check failed: %w", err)
		}
		if sent {
			return 0, nil
		}
		if err := s.Notifications.SendReminder(a.ReviewerID, a.SubmissionID, a.ID, interval); err != nil {
			return 0, fmt.Errorf("failed to record reminder: %w", err)
		}
		return 1, nil
	}
	return 0, nil
}

// attemptReassignment finds one replacement reviewer for a long-missed
// assignment. On success the old row flips to REASSIGNED (terminal) and a
// brand-new PENDING row carries the obligation; the old row is never reused,
// which is what prevents an endless reassignment loop. On failure the row
// stays MISSED for the next sweep to retry.
func (s *DeadlineMonitorService) attemptReassignment(a *models.ReviewAssignment) (bool, error) {
	var submission models.Submission
	if err := s.DB.First(&submission, "id = ?", a.SubmissionID).Error; err != nil {
		return false, fmt.Errorf("failed to load submission %s: %w", a.SubmissionID, err)
	}

	// Exclude everyone already attached to the submission, failing reviewer
	// included.
	attached, err := s.Pool.assignedReviewerIDs(s.DB, a.SubmissionID)
	if err != nil {
		return false, fmt.Errorf("failed to load attached reviewers: %w", err)
	}

	candidates, err := s.Pool.EligibleReviewers(EligibilityInput{
		SubmissionID: a.SubmissionID,
		AuthorID:     submission.UserID,
		Exclude:      append(attached, a.ReviewerID),
		TaskType:     submission.TaskType,
	})
	if err != nil {
		return false, fmt.Errorf("eligibility query failed: %w", err)
	}

	selected, _, err := SelectReviewers(candidates, 1, false)
	if err != nil {
		// No replacement available right now; leave MISSED and retry on the
		// next sweep.
		log.Printf("[SWEEP] no replacement for assignment %s yet: %v", a.ID, err)
		return false, nil
	}
	replacement := selected[0]

	newDeadline := ComputeReviewDeadline(s.now(), s.Policy.ReviewWindow)
	newAssignment := &models.ReviewAssignment{
		ID:           uuid.NewString(),
		SubmissionID: a.SubmissionID,
		ReviewerID:   replacement.ID,
		Status:       models.AssignmentPending,
		Deadline:     newDeadline,
		AssignedAt:   s.now(),
	}

	err = utils.RetryVoid(func() error {
		return s.DB.Transaction(func(tx *gorm.DB) error {
			// Conditional flip: if a parallel sweep already reassigned this
			// row, create nothing.
			res := tx.Model(&models.ReviewAssignment{}).
				Where("id = ? AND status = ?", a.ID, models.AssignmentMissed).
				Update("status", models.AssignmentReassigned)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return nil
			}
			return tx.Create(newAssignment).Error
		})
	}, utils.IsTransient, s.Backoff)
	if err != nil {
		return false, fmt.Errorf("reassignment write failed: %w", err)
	}
	a.Status = models.AssignmentReassigned

	s.Notifications.NotifyReassignment(replacement.ID, a.ReviewerID, a.SubmissionID, newAssignment.ID)
	s.Audit.LogSystemAction("review_reassigned", "review_assignment", a.ID, map[string]any{
		"from_reviewer":  a.ReviewerID,
		"to_reviewer":    replacement.ID,
		"new_assignment": newAssignment.ID,
		"new_deadline":   newDeadline,
	})

	log.Printf("[SWEEP] reassigned %s: %s → %s (new assignment %s)",
		a.ID, a.ReviewerID, replacement.ID, newAssignment.ID)
	return true, nil
}

// GetDeadlineStatuses returns the ops view over all non-terminal
// assignments: hours remaining and the sweep classification each would get.
func (s *DeadlineMonitorService) GetDeadlineStatuses() ([]DeadlineStatus, error) {
	assignments, err := utils.WithRetry(func() ([]models.ReviewAssignment, error) {
		var assignments []models.ReviewAssignment
		err := s.DB.
			Where("status IN ?", models.NonTerminalStatuses).
			Order("deadline ASC").
			Find(&assignments).Error
		return assignments, err
	}, utils.IsTransient, s.Backoff)
	if err != nil {
		return nil, err
	}

	statuses := make([]DeadlineStatus, 0, len(assignments))
	for _, a := range assignments {
		hoursUntil := a.Deadline.Sub(s.now()).Hours()
		statuses = append(statuses, DeadlineStatus{
			AssignmentID:       a.ID,
			SubmissionID:       a.SubmissionID,
			ReviewerID:         a.ReviewerID,
			Status:             a.Status,
			Deadline:           a.Deadline,
			HoursUntilDeadline: hoursUntil,
			Classification:     s.classify(a.Status, hoursUntil),
		})
	}
	return statuses, nil
}

func (s *DeadlineMonitorService) classify(status models.AssignmentStatus, hoursUntil float64) string {
	if status == models.AssignmentMissed {
		return "awaiting_reassignment"
	}
	if hoursUntil <= 0 {
		return "overdue"
	}
	tolerance := s.Policy.ReminderTolerance.Hours()
	for _, checkpoint := range s.Policy.ReminderCheckpoints {
		if math.Abs(hoursUntil-checkpoint) <= tolerance {
			return "reminder_due"
		}
	}
	return "on_track"
}

// ExtendDeadline pushes a non-terminal assignment's deadline out by
// additionalHours. Returns false when the assignment does not exist or is
// already terminal.
func (s *DeadlineMonitorService) ExtendDeadline(assignmentID string, additionalHours int, reason string) (bool, error) {
	if additionalHours <= 0 {
		return false, fmt.Errorf("additional hours must be positive, got %d", additionalHours)
	}

	var assignment models.ReviewAssignment
	if err := s.DB.First(&assignment, "id = ?", assignmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, err
	}
	if assignment.Status.IsTerminal() {
		return false, nil
	}

	newDeadline := assignment.Deadline.Add(time.Duration(additionalHours) * time.Hour)
	err := utils.RetryVoid(func() error {
		return s.DB.Model(&models.ReviewAssignment{}).
			Where("id = ?", assignmentID).
			Update("deadline", newDeadline).Error
	}, utils.IsTransient, s.Backoff)
	if err != nil {
		return false, err
	}

	s.Audit.LogSystemAction("deadline_extended", "review_assignment", assignmentID, map[string]any{
		"additional_hours": additionalHours,
		"new_deadline":     newDeadline,
		"reason":           reason,
	})
	return true, nil
}
