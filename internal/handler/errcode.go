package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/upms-lab/upms-backend/internal/resputil"
	"github.com/upms-lab/upms-backend/pkg/matching"
)

var matchingErrCodes = map[error]resputil.ErrorCode{
	matching.ErrChapterNotFound:     resputil.ChapterNotFound,
	matching.ErrChallengerNotFound:  resputil.ChallengerNotFound,
	matching.ErrProjectNotFound:     resputil.ProjectNotFound,
	matching.ErrQuotaNotFound:       resputil.QuotaNotFound,
	matching.ErrFormNotFound:        resputil.FormNotFound,
	matching.ErrRoundNotFound:       resputil.RoundNotFound,
	matching.ErrApplicationNotFound: resputil.ApplicationNotFound,
	matching.ErrAlreadyApplied:      resputil.AlreadyApplied,
	matching.ErrSameStatus:          resputil.SameStatus,
	matching.ErrRoundNotEnded:       resputil.RoundNotEnded,
	matching.ErrDeadlinePassed:      resputil.DeadlinePassed,
	matching.ErrNotPermitted:        resputil.NotAllowed,
	matching.ErrAlreadyMember:       resputil.AlreadyMember,
	matching.ErrQuotaExceeded:       resputil.QuotaExceeded,
	matching.ErrInvalidSchedule:     resputil.InvalidSchedule,
	matching.ErrPeriodOverlap:       resputil.PeriodOverlap,
	matching.ErrMembershipMissing:   resputil.MembershipMissing,
}

// matchingError maps service errors onto the response envelope.
func matchingError(c *gin.Context, err error) {
	var minSel *matching.MinSelectionError
	if errors.As(err, &minSel) {
		resputil.Error(c, minSel.Error(), resputil.NeedMinSelection)
		return
	}
	for sentinel, code := range matchingErrCodes {
		if errors.Is(err, sentinel) {
			resputil.Error(c, err.Error(), code)
			return
		}
	}
	resputil.Error(c, err.Error(), resputil.NotSpecified)
}
