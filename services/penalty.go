package services

import (
	"fmt"

	"peer-review-system/models"
)

// MissPenaltyXP is the flat deduction applied on every missed review,
// independent of any threshold.
const MissPenaltyXP int64 = -10

// Escalation is one rung of the sanction ladder.
type Escalation struct {
	Threshold int   // lifetime missedReviews count that triggers it
	PauseDays int   // temporary suspension length, 0 when Permanent
	Permanent bool  // permanent ban from reviewing
	XPDelta   int64 // negative
}

// The ladder fires exactly once per threshold crossing. missedReviews moves
// in +1 steps and never resets, so an equality check is a crossing check.
var escalationLadder = []Escalation{
	{Threshold: 4, PauseDays: 14, XPDelta: -100},
	{Threshold: 7, PauseDays: 28, XPDelta: -200},
	{Threshold: 10, Permanent: true, XPDelta: -500},
}

// EscalationForMissCount returns the ladder rung triggered by the reviewer's
// new lifetime missed count, or nil when the count sits between thresholds.
func EscalationForMissCount(newMissedCount int) *Escalation {
	for i := range escalationLadder {
		if escalationLadder[i].Threshold == newMissedCount {
			return &escalationLadder[i]
		}
	}
	return nil
}

func (e Escalation) Describe() string {
	if e.Permanent {
		return fmt.Sprintf("permanently banned from reviewing after %d missed reviews", e.Threshold)
	}
	return fmt.Sprintf("review privileges paused %d days after %d missed reviews", e.PauseDays, e.Threshold)
}

// applyMissPenalty runs the non-idempotent half of overdue handling:
// increment the lifetime missed counter, deduct the flat per-miss XP, apply
// any ladder rung the new count lands on, clamp XP at zero, and write the
// matching ledger rows. The −10 PENALTY ledger entry is the idempotency key
// a re-run checks before calling this again.
//
// Returns the escalation applied (nil if none) so the caller can audit it.
func (s *DeadlineMonitorService) applyMissPenalty(reviewerID, submissionID string) (*Escalation, error) {
	now := s.now()

	var user models.ReviewerUser
	if err := s.DB.Where("external_user_id = ?", reviewerID).First(&user).Error; err != nil {
		return nil, fmt.Errorf("reviewer %s not found: %w", reviewerID, err)
	}

	newMissed := user.MissedReviews + 1
	updates := map[string]any{
		"missed_reviews": newMissed,
	}

	totalXP := user.TotalXP + MissPenaltyXP
	weekXP := user.CurrentWeekXP + MissPenaltyXP

	// Record the per-miss entry first: its existence is what makes a
	// crashed run resumable.
	if _, err := s.Ledger.RecordTransaction(reviewerID, MissPenaltyXP, models.XpTransactionPenalty,
		"missed review deadline", &submissionID); err != nil {
		return nil, fmt.Errorf("failed to record miss penalty: %w", err)
	}

	escalation := EscalationForMissCount(newMissed)
	if escalation != nil {
		totalXP += escalation.XPDelta
		weekXP += escalation.XPDelta
		if escalation.Permanent {
			updates["review_paused_permanently"] = true
		} else {
			pausedUntil := now.AddDate(0, 0, escalation.PauseDays)
			updates["review_paused_until"] = pausedUntil
		}
		escalationSource := submissionID
		if _, err := s.Ledger.RecordTransaction(reviewerID, escalation.XPDelta, models.XpTransactionPenalty,
			escalation.Describe(), &escalationSource); err != nil {
			return nil, fmt.Errorf("failed to record escalation penalty: %w", err)
		}
	}

	// XP never goes negative, for the weekly counter either.
	if totalXP < 0 {
		totalXP = 0
	}
	if weekXP < 0 {
		weekXP = 0
	}
	updates["total_xp"] = totalXP
	updates["current_week_xp"] = weekXP

	if err := s.DB.Model(&models.ReviewerUser{}).
		Where("external_user_id = ?", reviewerID).
		Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update reviewer %s: %w", reviewerID, err)
	}

	body := fmt.Sprintf("You missed a review deadline (%d XP). Lifetime missed reviews: %d.", MissPenaltyXP, newMissed)
	if escalation != nil {
		body += " " + escalation.Describe() + "."
	}
	s.Notifications.NotifyPenalty(reviewerID, submissionID, body)

	return escalation, nil
}
