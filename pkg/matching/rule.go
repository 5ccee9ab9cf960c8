package matching

import (
	"fmt"
	"math"

	"github.com/upms-lab/upms-backend/dao/model"
)

// PartStats is the input of the allocation rule for one
// (project, part, round) group.
type PartStats struct {
	Part model.Part
	// MaxQuota is the part's TO for the project.
	MaxQuota int
	// PriorConfirmed counts applications confirmed in other rounds,
	// i.e. headcount already consumed before this round started.
	PriorConfirmed int
	// Applied counts applications submitted to this round.
	Applied int
	// Confirmed counts applications already confirmed in this round.
	Confirmed int
}

// MinSelection is the evaluated fairness floor for a group.
type MinSelection struct {
	// RoundQuota is the headcount still available to this round.
	RoundQuota int
	// MinSelect is the minimum number of applicants that must end up
	// confirmed before any may be rejected.
	MinSelect int
	// ToConfirm is how many additional confirmations are still owed.
	ToConfirm int
	// QuotaAnomaly is set when prior rounds consumed more headcount
	// than the quota allows; callers should log it.
	QuotaAnomaly bool
	Reason       string
}

// EvaluateMinSelection computes the fairness floor. Pure computation;
// both the manual rejection gate and the auto-decision job use it.
func EvaluateMinSelection(stats PartStats) MinSelection {
	roundQuota := stats.MaxQuota - stats.PriorConfirmed
	anomaly := stats.PriorConfirmed > stats.MaxQuota
	if roundQuota < 0 {
		roundQuota = 0
	}

	sel := MinSelection{RoundQuota: roundQuota, QuotaAnomaly: anomaly}

	if stats.Part == model.PartDesign {
		switch {
		case stats.MaxQuota == 1:
			// A single design seat is never force-filled; it stays open
			// for a curated manual decision.
			sel.MinSelect = 0
			sel.Reason = "design part with a single opening requires no forced selection"
		case stats.Applied <= 1:
			sel.MinSelect = 0
			sel.Reason = "at most one design applicant this round, nothing is owed"
		default:
			sel.MinSelect = 1
			sel.Reason = "design part with multiple applicants requires at least one confirmation"
		}
	} else {
		half := int(math.Ceil(float64(roundQuota) * 0.5))
		quarter := int(math.Ceil(float64(roundQuota) * 0.25))
		switch {
		case stats.Applied >= roundQuota:
			sel.MinSelect = half
			sel.Reason = fmt.Sprintf(
				"applicants (%d) meet or exceed the round quota (%d), at least half the quota (%d) must be confirmed",
				stats.Applied, roundQuota, half)
		case stats.Applied > half:
			sel.MinSelect = quarter
			sel.Reason = fmt.Sprintf(
				"applicants (%d) exceed half the round quota (%d), at least a quarter of the quota (%d) must be confirmed",
				stats.Applied, roundQuota, quarter)
		default:
			sel.MinSelect = 0
			sel.Reason = fmt.Sprintf(
				"applicants (%d) are at most half the round quota (%d), nothing is owed", stats.Applied, roundQuota)
		}
	}

	sel.ToConfirm = sel.MinSelect - stats.Confirmed
	if sel.ToConfirm < 0 {
		sel.ToConfirm = 0
	}
	return sel
}
