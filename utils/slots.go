package utils

import (
	"sort"

	"codewhisperer/models"
)

const (
	MaxPassedSlots = 5
	MaxFailedSlots = 5
)

// SlotPlan says whether a new row is created or which stored row is overwritten
type SlotPlan struct {
	Create    bool
	Overwrite *models.Submission
}

// PlanSlot picks the storage slot for a new result of a (team, question) pair.
//
// Passing result: a new row while fewer than MaxPassedSlots passing rows exist, otherwise the
// second-oldest passing row is overwritten so the earliest one stays as a permanent record.
//
// Failing result: a new row while fewer than MaxFailedSlots failing rows exist, otherwise the
// weakest rows (lowest passed count) are considered and the second oldest of them is
// overwritten, or the only one.
func PlanSlot(history []models.Submission, allPassed bool) SlotPlan {
	var passing, failing []models.Submission
	for _, s := range history {
		if s.AllPassed {
			passing = append(passing, s)
		} else {
			failing = append(failing, s)
		}
	}

	if allPassed {
		if len(passing) < MaxPassedSlots {
			return SlotPlan{Create: true}
		}
		sort.SliceStable(passing, func(i, j int) bool { return olderThan(passing[i], passing[j]) })
		victim := passing[1]
		return SlotPlan{Overwrite: &victim}
	}

	if len(failing) < MaxFailedSlots {
		return SlotPlan{Create: true}
	}
	sort.SliceStable(failing, func(i, j int) bool {
		if failing[i].PassedTestCases != failing[j].PassedTestCases {
			return failing[i].PassedTestCases > failing[j].PassedTestCases
		}
		return olderThan(failing[i], failing[j])
	})

	weakest := failing[len(failing)-1].PassedTestCases
	var tied []models.Submission
	for _, s := range failing {
		if s.PassedTestCases == weakest {
			tied = append(tied, s)
		}
	}
	victim := tied[0]
	if len(tied) > 1 {
		victim = tied[1]
	}
	return SlotPlan{Overwrite: &victim}
}

func olderThan(a, b models.Submission) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
