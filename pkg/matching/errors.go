package matching

import (
	"errors"
	"fmt"
)

var (
	ErrChapterNotFound     = errors.New("chapter not found")
	ErrChallengerNotFound  = errors.New("challenger not found")
	ErrProjectNotFound     = errors.New("project not found")
	ErrQuotaNotFound       = errors.New("no quota entry for the project and part")
	ErrFormNotFound        = errors.New("application form not found")
	ErrRoundNotFound       = errors.New("matching round not found")
	ErrApplicationNotFound = errors.New("application not found")

	ErrAlreadyApplied = errors.New("challenger already applied in this round")
	ErrSameStatus     = errors.New("application already has the requested status")
	ErrRoundNotEnded  = errors.New("matching round has not ended yet")
	ErrDeadlinePassed = errors.New("decision deadline has passed")
	ErrNotPermitted   = errors.New("actor may not decide this application")
	ErrAlreadyMember  = errors.New("applicant is already a member of the project")
	ErrQuotaExceeded  = errors.New("project quota for the part is exhausted")

	// ErrMembershipMissing signals a confirmed application without a
	// membership row. That is an inconsistency, not a recoverable state.
	ErrMembershipMissing = errors.New("confirmed application has no membership record")

	ErrInvalidSchedule = errors.New("round schedule must satisfy startAt < endAt < decisionDeadlineAt")
	ErrPeriodOverlap   = errors.New("round period overlaps another round of the chapter")
)

// MinSelectionError rejects a manual rejection while confirmations are
// still owed in the same (project, part, round) group.
type MinSelectionError struct {
	Need   int
	Reason string
}

func (e *MinSelectionError) Error() string {
	return fmt.Sprintf("confirm %d more applicant(s) before rejecting: %s", e.Need, e.Reason)
}
