package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectReviewersOrdering(t *testing.T) {
	candidates := []ReviewerCandidate{
		{ID: "d", ActiveAssignmentCount: 2, TotalXP: 900},
		{ID: "a", ActiveAssignmentCount: 0, TotalXP: 100},
		{ID: "c", ActiveAssignmentCount: 1, TotalXP: 500},
		{ID: "b", ActiveAssignmentCount: 0, TotalXP: 300},
	}

	selected, warnings, err := SelectReviewers(candidates, 3, false)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	// Least-loaded first; higher XP wins inside a workload tier.
	require.Len(t, selected, 3)
	assert.Equal(t, "b", selected[0].ID)
	assert.Equal(t, "a", selected[1].ID)
	assert.Equal(t, "c", selected[2].ID)
}

func TestSelectReviewersDeterministicTieBreak(t *testing.T) {
	// Identical workload and XP: candidate ID decides, so repeated runs
	// produce identical selections.
	candidates := []ReviewerCandidate{
		{ID: "charlie", ActiveAssignmentCount: 1, TotalXP: 100},
		{ID: "alice", ActiveAssignmentCount: 1, TotalXP: 100},
		{ID: "bob", ActiveAssignmentCount: 1, TotalXP: 100},
	}

	first, _, err := SelectReviewers(candidates, 2, false)
	require.NoError(t, err)
	second, _, err := SelectReviewers(candidates, 2, false)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "alice", first[0].ID)
	assert.Equal(t, "bob", first[1].ID)
}

func TestSelectReviewersInsufficientFails(t *testing.T) {
	candidates := []ReviewerCandidate{
		{ID: "a", TotalXP: 100},
		{ID: "b", TotalXP: 100},
	}

	_, _, err := SelectReviewers(candidates, 3, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient reviewers")
	assert.Contains(t, err.Error(), "short 1")
}

func TestSelectReviewersPartialWarns(t *testing.T) {
	candidates := []ReviewerCandidate{
		{ID: "a", TotalXP: 100},
		{ID: "b", TotalXP: 100},
	}

	selected, warnings, err := SelectReviewers(candidates, 3, true)
	require.NoError(t, err)
	assert.Len(t, selected, 2)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "partial assignment")
}

func TestSelectReviewersDoesNotMutateInput(t *testing.T) {
	candidates := []ReviewerCandidate{
		{ID: "b", ActiveAssignmentCount: 5},
		{ID: "a", ActiveAssignmentCount: 0},
	}

	_, _, err := SelectReviewers(candidates, 1, false)
	require.NoError(t, err)
	assert.Equal(t, "b", candidates[0].ID)
}
