package utils

import (
	"math/rand"
	"testing"
	"time"

	"codewhisperer/models"
)

var base = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func sub(id uint, passed, total int, minute int) models.Submission {
	return models.Submission{
		ID:              id,
		PassedTestCases: passed,
		TotalTestCases:  total,
		AllPassed:       passed == total,
		CreatedAt:       base.Add(time.Duration(minute) * time.Minute),
	}
}

func TestPlanSlot_CreatesBelowCapacity(t *testing.T) {
	history := []models.Submission{sub(1, 10, 10, 0), sub(2, 3, 10, 1)}
	if plan := PlanSlot(history, true); !plan.Create {
		t.Fatalf("expected a new passing row, got %+v", plan)
	}
	if plan := PlanSlot(history, false); !plan.Create {
		t.Fatalf("expected a new failing row, got %+v", plan)
	}
}

func TestPlanSlot_PassingOverwritesSecondOldest(t *testing.T) {
	history := []models.Submission{
		sub(5, 10, 10, 50), sub(1, 10, 10, 10), sub(3, 10, 10, 30), sub(2, 10, 10, 20), sub(4, 10, 10, 40),
		sub(6, 2, 10, 5),
	}
	plan := PlanSlot(history, true)
	if plan.Create || plan.Overwrite == nil {
		t.Fatalf("expected an overwrite, got %+v", plan)
	}
	if plan.Overwrite.ID != 2 {
		t.Fatalf("expected second-oldest passing row 2, got %d", plan.Overwrite.ID)
	}
}

func TestPlanSlot_FailingOverwritesWeakest(t *testing.T) {
	history := []models.Submission{
		sub(1, 7, 10, 0),
		sub(2, 2, 10, 1),
		sub(3, 5, 10, 2),
		sub(4, 2, 10, 3),
		sub(5, 2, 10, 4),
		sub(6, 10, 10, 5),
	}
	plan := PlanSlot(history, false)
	if plan.Overwrite == nil || plan.Overwrite.ID != 4 {
		t.Fatalf("expected second of the weakest rows (4), got %+v", plan.Overwrite)
	}
}

func TestPlanSlot_FailingSingleWeakest(t *testing.T) {
	history := []models.Submission{
		sub(1, 7, 10, 0), sub(2, 6, 10, 1), sub(3, 5, 10, 2), sub(4, 1, 10, 3), sub(5, 6, 10, 4),
	}
	plan := PlanSlot(history, false)
	if plan.Overwrite == nil || plan.Overwrite.ID != 4 {
		t.Fatalf("expected the only weakest row (4), got %+v", plan.Overwrite)
	}
}

// Simulates many submissions and checks the retention bound and that the best row survives.
func TestPlanSlot_RetentionInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var history []models.Submission
	var nextID uint

	bestPassed := -1
	var bestID uint

	for minute := 0; minute < 400; minute++ {
		passed := rng.Intn(11)
		allPassed := passed == 10
		plan := PlanSlot(history, allPassed)

		if plan.Create {
			nextID++
			history = append(history, sub(nextID, passed, 10, minute))
			if passed > bestPassed {
				bestPassed, bestID = passed, nextID
			}
		} else {
			if plan.Overwrite.ID == bestID {
				t.Fatalf("minute %d: best row %d (passed %d) was evicted", minute, bestID, bestPassed)
			}
			for i := range history {
				if history[i].ID == plan.Overwrite.ID {
					history[i] = sub(plan.Overwrite.ID, passed, 10, minute)
				}
			}
			if passed > bestPassed {
				bestPassed, bestID = passed, plan.Overwrite.ID
			}
		}

		var p, f int
		for _, s := range history {
			if s.AllPassed {
				p++
			} else {
				f++
			}
		}
		if p > MaxPassedSlots || f > MaxFailedSlots {
			t.Fatalf("minute %d: retention exceeded, %d passing and %d failing rows", minute, p, f)
		}
	}
}
