package services

import (
	"testing"
	"time"

	"peer-review-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateIDs(candidates []ReviewerCandidate) []string {
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestEligibleReviewersFiltersAuthorAndExcluded(t *testing.T) {
	e := newTestEngine(t, DefaultReviewPolicy)

	author := seedReviewer(t, e.db, "author")
	seedReviewer(t, e.db, "excluded")
	seedReviewer(t, e.db, "ok")
	sub := seedSubmission(t, e.db, author)

	candidates, err := e.pool.EligibleReviewers(EligibilityInput{
		SubmissionID: sub.ID,
		AuthorID:     author,
		Exclude:      []string{"excluded"},
	})
	require.NoError(t, err)

	ids := candidateIDs(candidates)
	assert.NotContains(t, ids, author)
	assert.NotContains(t, ids, "excluded")
	assert.Contains(t, ids, "ok")
}

func TestEligibleReviewersSkipsNonReviewerRoles(t *testing.T) {
	e := newTestEngine(t, DefaultReviewPolicy)

	seedReviewer(t, e.db, "contributor", withRole(models.RoleContributor))
	seedReviewer(t, e.db, "reviewer")
	seedReviewer(t, e.db, "moderator", withRole(models.RoleModerator))

	candidates, err := e.pool.EligibleReviewers(EligibilityInput{AuthorID: "someone-else"})
	require.NoError(t, err)

	ids := candidateIDs(candidates)
	assert.NotContains(t, ids, "contributor")
	assert.Contains(t, ids, "reviewer")
	assert.Contains(t, ids, "moderator")
}

func TestEligibleReviewersOptOut(t *testing.T) {
	e := newTestEngine(t, DefaultReviewPolicy)
	past := e.clock.Add(-time.Hour)
	future := e.clock.Add(time.Hour)

	seedReviewer(t, e.db, "opted-out", withPreferences(models.ReviewPreferences{OptedOut: true}))
	seedReviewer(t, e.db, "opted-out-active", withPreferences(models.ReviewPreferences{
		OptedOut: true, OptedOutUntil: &future,
	}))
	seedReviewer(t, e.db, "opt-out-expired", withPreferences(models.ReviewPreferences{
		OptedOut: true, OptedOutUntil: &past,
	}))

	candidates, err := e.pool.EligibleReviewers(EligibilityInput{AuthorID: "someone-else"})
	require.NoError(t, err)

	ids := candidateIDs(candidates)
	assert.NotContains(t, ids, "opted-out")
	assert.NotContains(t, ids, "opted-out-active")
	assert.Contains(t, ids, "opt-out-expired")
}

func TestEligibleReviewersPauseRules(t *testing.T) {
	e := newTestEngine(t, DefaultReviewPolicy)

	seedReviewer(t, e.db, "paused", withPausedUntil(e.clock.Add(24*time.Hour)))
	seedReviewer(t, e.db, "pause-expired", withPausedUntil(e.clock.Add(-24*time.Hour)))
	seedReviewer(t, e.db, "banned", withPermanentPause())

	candidates, err := e.pool.EligibleReviewers(EligibilityInput{AuthorID: "someone-else"})
	require.NoError(t, err)

	ids := candidateIDs(candidates)
	assert.NotContains(t, ids, "paused")
	assert.NotContains(t, ids, "banned")
	assert.Contains(t, ids, "pause-expired")
}

func TestEligibleReviewersWorkloadCap(t *testing.T) {
	e := newTestEngine(t, DefaultReviewPolicy)

	busy := seedReviewer(t, e.db, "busy")
	free := seedReviewer(t, e.db, "free")
	author := seedReviewer(t, e.db, "author")

	// Five active assignments puts "busy" exactly at the default cap.
	for i := 0; i < 5; i++ {
		other := seedSubmission(t, e.db, author)
		seedAssignment(t, e.db, other.ID, busy, models.AssignmentPending, e.clock.Add(48*time.Hour))
	}

	candidates, err := e.pool.EligibleReviewers(EligibilityInput{AuthorID: author})
	require.NoError(t, err)

	ids := candidateIDs(candidates)
	assert.NotContains(t, ids, busy)
	assert.Contains(t, ids, free)

	// Workload cap invariant: every returned candidate sits below the cap.
	for _, c := range candidates {
		assert.Less(t, c.ActiveAssignmentCount, DefaultReviewPolicy.MaxActiveAssignments)
	}
}

func TestEligibleReviewersExperienceFloor(t *testing.T) {
	e := newTestEngine(t, DefaultReviewPolicy)

	seedReviewer(t, e.db, "rookie", withXP(10))
	seedReviewer(t, e.db, "veteran", withXP(50))
	seedReviewer(t, e.db, "rookie-admin", withXP(0), withRole(models.RoleAdmin))

	candidates, err := e.pool.EligibleReviewers(EligibilityInput{AuthorID: "someone-else"})
	require.NoError(t, err)

	ids := candidateIDs(candidates)
	assert.NotContains(t, ids, "rookie")
	assert.Contains(t, ids, "veteran")
	// The floor is waived for operators.
	assert.Contains(t, ids, "rookie-admin")
}

func TestEligibleReviewersTaskTypeMatch(t *testing.T) {
	policy := DefaultReviewPolicy
	policy.RequireTaskTypeMatch = true
	e := newTestEngine(t, policy)

	seedReviewer(t, e.db, "any-type")
	seedReviewer(t, e.db, "matching", withPreferences(models.ReviewPreferences{TaskTypes: []string{"article"}}))
	seedReviewer(t, e.db, "other-type", withPreferences(models.ReviewPreferences{TaskTypes: []string{"video"}}))

	candidates, err := e.pool.EligibleReviewers(EligibilityInput{
		AuthorID: "someone-else",
		TaskType: "article",
	})
	require.NoError(t, err)

	ids := candidateIDs(candidates)
	assert.Contains(t, ids, "any-type")
	assert.Contains(t, ids, "matching")
	assert.NotContains(t, ids, "other-type")
}

func TestEligibleReviewersEmptyPoolIsNotAnError(t *testing.T) {
	e := newTestEngine(t, DefaultReviewPolicy)

	candidates, err := e.pool.EligibleReviewers(EligibilityInput{AuthorID: "anyone"})
	require.NoError(t, err)
	assert.Empty(t, candidates)
}
