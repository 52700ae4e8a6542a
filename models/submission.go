package models

import "time"

type SubmissionStatus string

const (
	SubmissionSubmitted       SubmissionStatus = "SUBMITTED"
	SubmissionUnderPeerReview SubmissionStatus = "UNDER_PEER_REVIEW"
	SubmissionReviewed        SubmissionStatus = "REVIEWED"
	SubmissionFinalized       SubmissionStatus = "FINALIZED"
)

// Submission is the reviewer-relevant projection of a content submission.
// The author (UserID) is always excluded from its own reviewer pool.
type Submission struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID   string `gorm:"index;not null" json:"user_id"` // author, external user ID
	Title    string `gorm:"not null" json:"title"`
	Slug     string `gorm:"uniqueIndex;not null" json:"slug"`
	TaskType string `json:"task_type,omitempty"`

	// ContentURL points at the stored attachment (R2), when one was uploaded.
	ContentURL *string `json:"content_url,omitempty"`

	Status         SubmissionStatus `gorm:"index;not null;default:SUBMITTED" json:"status"`
	ReviewDeadline *time.Time       `json:"review_deadline,omitempty"`
	ReviewCount    int              `json:"review_count" gorm:"default:0"`

	Timestamps
}
