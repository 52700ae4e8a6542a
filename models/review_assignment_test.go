package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssignmentStatusValid(t *testing.T) {
	for _, s := range []AssignmentStatus{
		AssignmentPending, AssignmentInProgress, AssignmentCompleted,
		AssignmentMissed, AssignmentReassigned,
	} {
		assert.True(t, s.Valid(), "%s", s)
	}
	assert.False(t, AssignmentStatus("").Valid())
	assert.False(t, AssignmentStatus("CANCELLED").Valid())
	assert.False(t, AssignmentStatus("pending").Valid())
}

func TestAssignmentStatusIsTerminal(t *testing.T) {
	assert.False(t, AssignmentPending.IsTerminal())
	assert.False(t, AssignmentInProgress.IsTerminal())
	assert.False(t, AssignmentMissed.IsTerminal())
	assert.True(t, AssignmentCompleted.IsTerminal())
	assert.True(t, AssignmentReassigned.IsTerminal())
}

func TestAssignmentStatusTransitions(t *testing.T) {
	all := []AssignmentStatus{
		AssignmentPending, AssignmentInProgress, AssignmentCompleted,
		AssignmentMissed, AssignmentReassigned,
	}
	allowed := map[AssignmentStatus][]AssignmentStatus{
		AssignmentPending:    {AssignmentInProgress, AssignmentCompleted, AssignmentMissed},
		AssignmentInProgress: {AssignmentCompleted, AssignmentMissed},
		AssignmentMissed:     {AssignmentReassigned},
		AssignmentCompleted:  {},
		AssignmentReassigned: {},
	}

	for from, nexts := range allowed {
		ok := make(map[AssignmentStatus]bool, len(nexts))
		for _, n := range nexts {
			ok[n] = true
		}
		for _, to := range all {
			assert.Equal(t, ok[to], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestNonTerminalStatusesMatchIsTerminal(t *testing.T) {
	nonTerminal := make(map[AssignmentStatus]bool, len(NonTerminalStatuses))
	for _, s := range NonTerminalStatuses {
		nonTerminal[s] = true
	}
	for _, s := range []AssignmentStatus{
		AssignmentPending, AssignmentInProgress, AssignmentCompleted,
		AssignmentMissed, AssignmentReassigned,
	} {
		assert.Equal(t, !s.IsTerminal(), nonTerminal[s], "%s", s)
	}
}
