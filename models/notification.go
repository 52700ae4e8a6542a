package models

import "time"

type NotificationType string

const (
	NotificationReviewAssigned   NotificationType = "review_assigned"
	NotificationReviewReminder   NotificationType = "review_reminder"
	NotificationReviewReassigned NotificationType = "review_reassigned"
	NotificationReviewPenalty    NotificationType = "review_penalty"
)

// Notification is one stored in-app notification. Reminder rows carry the
// (AssignmentID, ReminderIntervalHours) pair as typed columns; that pair is
// the dedupe key that keeps repeated sweeps from re-sending the same
// reminder.
type Notification struct {
	ID     string           `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string           `gorm:"index;not null" json:"user_id"`
	Type   NotificationType `gorm:"index;not null" json:"type"`
	Title  string           `json:"title"`
	Body   string           `json:"body,omitempty"`

	AssignmentID          *string `gorm:"index" json:"assignment_id,omitempty"`
	SubmissionID          *string `gorm:"index" json:"submission_id,omitempty"`
	ReminderIntervalHours *int    `json:"reminder_interval_hours,omitempty"`

	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
}
