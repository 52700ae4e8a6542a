package services

import (
	"fmt"
	"testing"
	"time"

	"peer-review-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscalationForMissCount(t *testing.T) {
	tests := []struct {
		missed    int
		pauseDays int
		permanent bool
		xpDelta   int64
	}{
		{missed: 1},
		{missed: 2},
		{missed: 3},
		{missed: 4, pauseDays: 14, xpDelta: -100},
		{missed: 5},
		{missed: 6},
		{missed: 7, pauseDays: 28, xpDelta: -200},
		{missed: 8},
		{missed: 9},
		{missed: 10, permanent: true, xpDelta: -500},
		{missed: 11},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("missed_%d", tt.missed), func(t *testing.T) {
			e := EscalationForMissCount(tt.missed)
			if tt.xpDelta == 0 {
				assert.Nil(t, e)
				return
			}
			require.NotNil(t, e)
			assert.Equal(t, tt.pauseDays, e.PauseDays)
			assert.Equal(t, tt.permanent, e.Permanent)
			assert.Equal(t, tt.xpDelta, e.XPDelta)
		})
	}
}

func TestFourthMissPausesReviewerTwoWeeks(t *testing.T) {
	e := newTestEngine(t, DefaultReviewPolicy)
	author := seedReviewer(t, e.db, "author")
	reviewer := seedReviewer(t, e.db, "reviewer", withXP(500), withMissed(3))
	sub := seedSubmission(t, e.db, author)
	seedAssignment(t, e.db, sub.ID, reviewer, models.AssignmentPending, e.clock.Add(-2*time.Hour))

	_, err := e.monitor.ProcessDeadlines()
	require.NoError(t, err)

	user := loadReviewer(t, e.db, reviewer)
	assert.Equal(t, 4, user.MissedReviews)
	assert.EqualValues(t, 390, user.TotalXP) // 500 − 10 − 100
	require.NotNil(t, user.ReviewPausedUntil)
	assert.Equal(t, e.clock.AddDate(0, 0, 14).UTC(), user.ReviewPausedUntil.UTC())
	assert.False(t, user.ReviewPausedPermanently)

	// One flat penalty entry plus one escalation entry, both against the
	// same submission.
	assert.EqualValues(t, 2, countPenalties(t, e.db, reviewer, sub.ID))
}

func TestMissBetweenThresholdsOnlyFlatPenalty(t *testing.T) {
	e := newTestEngine(t, DefaultReviewPolicy)
	author := seedReviewer(t, e.db, "author")
	reviewer := seedReviewer(t, e.db, "reviewer", withXP(500), withMissed(4))
	sub := seedSubmission(t, e.db, author)
	seedAssignment(t, e.db, sub.ID, reviewer, models.AssignmentPending, e.clock.Add(-2*time.Hour))

	_, err := e.monitor.ProcessDeadlines()
	require.NoError(t, err)

	user := loadReviewer(t, e.db, reviewer)
	assert.Equal(t, 5, user.MissedReviews)
	assert.EqualValues(t, 490, user.TotalXP)
	assert.Nil(t, user.ReviewPausedUntil)
	assert.EqualValues(t, 1, countPenalties(t, e.db, reviewer, sub.ID))
}

func TestTenthMissBansReviewerPermanently(t *testing.T) {
	e := newTestEngine(t, DefaultReviewPolicy)
	author := seedReviewer(t, e.db, "author")
	reviewer := seedReviewer(t, e.db, "reviewer", withXP(2000), withMissed(9))
	sub := seedSubmission(t, e.db, author)
	seedAssignment(t, e.db, sub.ID, reviewer, models.AssignmentPending, e.clock.Add(-2*time.Hour))

	_, err := e.monitor.ProcessDeadlines()
	require.NoError(t, err)

	user := loadReviewer(t, e.db, reviewer)
	assert.Equal(t, 10, user.MissedReviews)
	assert.True(t, user.ReviewPausedPermanently)
	assert.EqualValues(t, 1490, user.TotalXP) // 2000 − 10 − 500

	// A banned reviewer is out of the pool for good.
	candidates, err := e.pool.EligibleReviewers(EligibilityInput{AuthorID: author})
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestPenaltyClampsXPAtZero(t *testing.T) {
	e := newTestEngine(t, DefaultReviewPolicy)
	author := seedReviewer(t, e.db, "author")
	reviewer := seedReviewer(t, e.db, "reviewer", withXP(5))
	sub := seedSubmission(t, e.db, author)
	seedAssignment(t, e.db, sub.ID, reviewer, models.AssignmentPending, e.clock.Add(-2*time.Hour))

	_, err := e.monitor.ProcessDeadlines()
	require.NoError(t, err)

	user := loadReviewer(t, e.db, reviewer)
	assert.Zero(t, user.TotalXP)
	assert.Zero(t, user.CurrentWeekXP)

	// The ledger still records the full deduction even when the balance
	// clamps.
	var tx models.XpTransaction
	require.NoError(t, e.db.
		Where("user_id = ? AND type = ?", reviewer, models.XpTransactionPenalty).
		First(&tx).Error)
	assert.EqualValues(t, MissPenaltyXP, tx.Amount)
}

func TestMissedCountNeverDecreases(t *testing.T) {
	e := newTestEngine(t, DefaultReviewPolicy)
	author := seedReviewer(t, e.db, "author")
	reviewer := seedReviewer(t, e.db, "reviewer")

	// Three separate submissions missed one after another.
	for i := 0; i < 3; i++ {
		sub := seedSubmission(t, e.db, author)
		seedAssignment(t, e.db, sub.ID, reviewer, models.AssignmentPending, e.clock.Add(-2*time.Hour))
		_, err := e.monitor.ProcessDeadlines()
		require.NoError(t, err)
		assert.Equal(t, i+1, loadReviewer(t, e.db, reviewer).MissedReviews)
	}
}

func TestEscalationDescribe(t *testing.T) {
	assert.Equal(t,
		"review privileges paused 14 days after 4 missed reviews",
		Escalation{Threshold: 4, PauseDays: 14, XPDelta: -100}.Describe())
	assert.Equal(t,
		"permanently banned from reviewing after 10 missed reviews",
		Escalation{Threshold: 10, Permanent: true, XPDelta: -500}.Describe())
}
