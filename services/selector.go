package services

import (
	"fmt"
	"sort"
)

// ReviewerCandidate is one eligible reviewer with the fields the selector
// orders on.
type ReviewerCandidate struct {
	ID                    string `json:"id"`
	Role                  string `json:"role"`
	TotalXP               int64  `json:"total_xp"`
	MissedReviews         int    `json:"missed_reviews"`
	ActiveAssignmentCount int    `json:"active_assignment_count"`
}

// SelectReviewers orders candidates by ascending active workload, then
// descending XP, then ascending ID (fixed tie break so selection is
// reproducible), and takes the first required. When fewer candidates exist
// than required it either fails (partial disallowed) or returns what is
// available plus a warning string.
func SelectReviewers(candidates []ReviewerCandidate, required int, allowPartial bool) ([]ReviewerCandidate, []string, error) {
	sorted := make([]ReviewerCandidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ActiveAssignmentCount != sorted[j].ActiveAssignmentCount {
			return sorted[i].ActiveAssignmentCount < sorted[j].ActiveAssignmentCount
		}
		if sorted[i].TotalXP != sorted[j].TotalXP {
			return sorted[i].TotalXP > sorted[j].TotalXP
		}
		return sorted[i].ID < sorted[j].ID
	})

	if len(sorted) >= required {
		return sorted[:required], nil, nil
	}

	shortfall := required - len(sorted)
	if !allowPartial {
		return nil, nil, fmt.Errorf("insufficient reviewers: need %d, only %d eligible (short %d)",
			required, len(sorted), shortfall)
	}

	warning := fmt.Sprintf("partial assignment: %d of %d reviewers assigned (short %d)",
		len(sorted), required, shortfall)
	return sorted, []string{warning}, nil
}
