package models

import (
	"time"

	"gorm.io/gorm"
)

// Reviewer-capable roles. Contributors can submit but never review.
const (
	RoleContributor = "contributor"
	RoleReviewer    = "reviewer"
	RoleModerator   = "moderator"
	RoleAdmin       = "admin"
)

// ReviewPreferences is the reviewer's opt-out block, parsed once at the
// storage boundary instead of re-reading a raw JSON blob on every
// eligibility check.
type ReviewPreferences struct {
	OptedOut      bool       `json:"opted_out"`
	OptedOutUntil *time.Time `json:"opted_out_until,omitempty"`
	// TaskTypes limits which submission task types the reviewer accepts.
	// Empty means any.
	TaskTypes []string `json:"task_types,omitempty"`
}

// ReviewerUser is a local snapshot of user data needed for reviewer
// assignment. Identity fields are populated by the profile sync worker;
// the XP and sanction fields are owned by this service.
type ReviewerUser struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // profile service UUID
	Username       string `gorm:"index;not null" json:"username"`
	Email          string `json:"email,omitempty"`
	Role           string `gorm:"index;not null;default:contributor" json:"role"`

	TotalXP       int64 `json:"total_xp" gorm:"default:0"`
	CurrentWeekXP int64 `json:"current_week_xp" gorm:"default:0"`

	// MissedReviews is a lifetime counter. It only ever increases.
	MissedReviews           int        `json:"missed_reviews" gorm:"default:0"`
	ReviewPausedUntil       *time.Time `json:"review_paused_until,omitempty"`
	ReviewPausedPermanently bool       `json:"review_paused_permanently" gorm:"default:false"`

	Preferences ReviewPreferences `gorm:"serializer:json" json:"preferences"`

	Timestamps
}

// IsOperator reports whether the user holds an administrative role; the
// minimum-XP eligibility floor is waived for operators.
func (u *ReviewerUser) IsOperator() bool {
	return u.Role == RoleAdmin || u.Role == RoleModerator
}

// CanReview reports whether the role is reviewer-capable at all.
func (u *ReviewerUser) CanReview() bool {
	return u.Role == RoleReviewer || u.Role == RoleModerator || u.Role == RoleAdmin
}

// OptedOutAt reports whether the reviewer has opted out as of now. An
// opt-out with an expired opt-out-until timestamp no longer counts.
func (u *ReviewerUser) OptedOutAt(now time.Time) bool {
	if !u.Preferences.OptedOut {
		return false
	}
	if u.Preferences.OptedOutUntil != nil && u.Preferences.OptedOutUntil.Before(now) {
		return false
	}
	return true
}

// PausedAt reports whether reviewing is suspended as of now, either
// permanently or until a future timestamp.
func (u *ReviewerUser) PausedAt(now time.Time) bool {
	if u.ReviewPausedPermanently {
		return true
	}
	return u.ReviewPausedUntil != nil && u.ReviewPausedUntil.After(now)
}

// AcceptsTaskType reports whether the reviewer accepts the given submission
// task type. An empty preference list accepts everything.
func (u *ReviewerUser) AcceptsTaskType(taskType string) bool {
	if taskType == "" || len(u.Preferences.TaskTypes) == 0 {
		return true
	}
	for _, t := range u.Preferences.TaskTypes {
		if t == taskType {
			return true
		}
	}
	return false
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
