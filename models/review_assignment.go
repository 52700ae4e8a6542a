package models

import "time"

// AssignmentStatus is the closed set of states a review assignment moves
// through: PENDING → IN_PROGRESS → COMPLETED, PENDING/IN_PROGRESS → MISSED,
// MISSED → REASSIGNED. COMPLETED and REASSIGNED are terminal.
type AssignmentStatus string

const (
	AssignmentPending    AssignmentStatus = "PENDING"
	AssignmentInProgress AssignmentStatus = "IN_PROGRESS"
	AssignmentCompleted  AssignmentStatus = "COMPLETED"
	AssignmentMissed     AssignmentStatus = "MISSED"
	AssignmentReassigned AssignmentStatus = "REASSIGNED"
)

// NonTerminalStatuses is the sweep's working-set filter.
var NonTerminalStatuses = []AssignmentStatus{
	AssignmentPending,
	AssignmentInProgress,
	AssignmentMissed,
}

func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentPending, AssignmentInProgress, AssignmentCompleted,
		AssignmentMissed, AssignmentReassigned:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed. MISSED is
// semi-terminal: it still admits the single REASSIGNED transition.
func (s AssignmentStatus) IsTerminal() bool {
	return s == AssignmentCompleted || s == AssignmentReassigned
}

func (s AssignmentStatus) CanTransitionTo(next AssignmentStatus) bool {
	switch s {
	case AssignmentPending:
		return next == AssignmentInProgress || next == AssignmentCompleted || next == AssignmentMissed
	case AssignmentInProgress:
		return next == AssignmentCompleted || next == AssignmentMissed
	case AssignmentMissed:
		return next == AssignmentReassigned
	}
	return false
}

// ReviewAssignment is one reviewer's obligation to review one submission.
// Created by the reviewer pool, mutated only by the deadline sweep (status
// transitions) or by the reviewer submitting their review. Never deleted.
// A REASSIGNED row's replacement is always a brand-new row, never a mutation
// in place — that is what keeps the sweep from re-processing the same row
// forever.
type ReviewAssignment struct {
	ID           string           `gorm:"primaryKey;type:uuid" json:"id"`
	SubmissionID string           `gorm:"index;not null" json:"submission_id"`
	ReviewerID   string           `gorm:"index;not null" json:"reviewer_id"`
	Status       AssignmentStatus `gorm:"index;not null;default:PENDING" json:"status"`
	Deadline     time.Time        `gorm:"not null" json:"deadline"`
	AssignedAt   time.Time        `gorm:"not null" json:"assigned_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`

	Timestamps
}
