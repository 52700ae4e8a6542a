package services

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ReviewPolicy bundles the tunables of the assignment and deadline engine.
// Values mirror the env-overridable defaults pattern used for XP weights
// elsewhere in the platform.
type ReviewPolicy struct {
	MinimumReviewers       int
	MaxActiveAssignments   int
	MinReviewerXP          int64 // waived for operators
	AllowPartialAssignment bool
	RequireTaskTypeMatch   bool

	ReviewWindow           time.Duration // deadline = assignedAt + window, weekend-adjusted
	ReassignmentDelayHours float64       // grace after a miss before a replacement is sought

	ReminderCheckpoints []float64     // hours before deadline
	ReminderTolerance   time.Duration // match window around each checkpoint
	SweepInterval       time.Duration
}

var DefaultReviewPolicy = ReviewPolicy{
	MinimumReviewers:       3,
	MaxActiveAssignments:   5,
	MinReviewerXP:          50,
	AllowPartialAssignment: false,
	RequireTaskTypeMatch:   false,
	ReviewWindow:           48 * time.Hour,
	ReassignmentDelayHours: 24,
	ReminderCheckpoints:    []float64{24, 6, 1},
	ReminderTolerance:      30 * time.Minute,
	SweepInterval:          15 * time.Minute,
}

// LoadReviewPolicy returns the defaults with env overrides applied.
func LoadReviewPolicy() ReviewPolicy {
	p := DefaultReviewPolicy
	if v, err := strconv.Atoi(os.Getenv("REVIEW_MINIMUM_REVIEWERS")); err == nil && v > 0 {
		p.MinimumReviewers = v
	}
	if v, err := strconv.Atoi(os.Getenv("REVIEW_MAX_ACTIVE_ASSIGNMENTS")); err == nil && v > 0 {
		p.MaxActiveAssignments = v
	}
	if v, err := strconv.ParseInt(os.Getenv("REVIEW_MIN_XP"), 10, 64); err == nil && v >= 0 {
		p.MinReviewerXP = v
	}
	if os.Getenv("REVIEW_ALLOW_PARTIAL_ASSIGNMENT") == "true" {
		p.AllowPartialAssignment = true
	}
	if os.Getenv("REVIEW_REQUIRE_TASK_TYPE_MATCH") == "true" {
		p.RequireTaskTypeMatch = true
	}
	if v, err := strconv.Atoi(os.Getenv("REVIEW_WINDOW_HOURS")); err == nil && v > 0 {
		p.ReviewWindow = time.Duration(v) * time.Hour
	}
	if v, err := strconv.ParseFloat(os.Getenv("REVIEW_REASSIGNMENT_DELAY_HOURS"), 64); err == nil && v > 0 {
		p.ReassignmentDelayHours = v
	}
	if v, err := strconv.Atoi(os.Getenv("REVIEW_SWEEP_INTERVAL_MINUTES")); err == nil && v > 0 {
		p.SweepInterval = time.Duration(v) * time.Minute
	}
	if v, err := strconv.Atoi(os.Getenv("REVIEW_REMINDER_TOLERANCE_MINUTES")); err == nil && v > 0 {
		p.ReminderTolerance = time.Duration(v) * time.Minute
	}
	return p
}

// Validate rejects configurations that would silently drop reminders: a
// sweep that runs less often than twice the tolerance window can jump clean
// over a reminder checkpoint.
func (p ReviewPolicy) Validate() error {
	if p.MinimumReviewers < 1 {
		return fmt.Errorf("minimum reviewers must be at least 1, got %d", p.MinimumReviewers)
	}
	if p.MaxActiveAssignments < 1 {
		return fmt.Errorf("max active assignments must be at least 1, got %d", p.MaxActiveAssignments)
	}
	if p.ReviewWindow <= 0 {
		return fmt.Errorf("review window must be positive, got %v", p.ReviewWindow)
	}
	if p.SweepInterval >= 2*p.ReminderTolerance {
		return fmt.Errorf("sweep interval %v must be shorter than twice the reminder tolerance %v, or reminders can be skipped",
			p.SweepInterval, p.ReminderTolerance)
	}
	return nil
}
