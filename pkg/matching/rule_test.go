package matching

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/upms-lab/upms-backend/dao/model"
)

func TestEvaluateMinSelection(t *testing.T) {
	Convey("general parts", t, func() {
		Convey("applicants at or above the round quota owe half the quota", func() {
			sel := EvaluateMinSelection(PartStats{
				Part: model.PartWeb, MaxQuota: 4, Applied: 5,
			})
			So(sel.RoundQuota, ShouldEqual, 4)
			So(sel.MinSelect, ShouldEqual, 2)
			So(sel.ToConfirm, ShouldEqual, 2)
		})

		Convey("applicants above half the quota owe a quarter, rounded up", func() {
			sel := EvaluateMinSelection(PartStats{
				Part: model.PartWeb, MaxQuota: 5, Applied: 4,
			})
			So(sel.MinSelect, ShouldEqual, 2)
		})

		Convey("applicants at or below half the quota owe nothing", func() {
			sel := EvaluateMinSelection(PartStats{
				Part: model.PartAndroid, MaxQuota: 4, Applied: 2,
			})
			So(sel.MinSelect, ShouldEqual, 0)
			So(sel.ToConfirm, ShouldEqual, 0)
		})

		Convey("prior confirmations shrink the round quota", func() {
			sel := EvaluateMinSelection(PartStats{
				Part: model.PartWeb, MaxQuota: 4, PriorConfirmed: 2, Applied: 2,
			})
			So(sel.RoundQuota, ShouldEqual, 2)
			So(sel.MinSelect, ShouldEqual, 1)
		})

		Convey("prior confirmations beyond the quota clamp to zero and flag the anomaly", func() {
			sel := EvaluateMinSelection(PartStats{
				Part: model.PartWeb, MaxQuota: 2, PriorConfirmed: 3, Applied: 4,
			})
			So(sel.RoundQuota, ShouldEqual, 0)
			So(sel.MinSelect, ShouldEqual, 0)
			So(sel.QuotaAnomaly, ShouldBeTrue)
		})

		Convey("confirmations already made reduce what is owed", func() {
			sel := EvaluateMinSelection(PartStats{
				Part: model.PartWeb, MaxQuota: 4, Applied: 5, Confirmed: 1,
			})
			So(sel.MinSelect, ShouldEqual, 2)
			So(sel.ToConfirm, ShouldEqual, 1)
		})

		Convey("overshooting confirmations never owe negative", func() {
			sel := EvaluateMinSelection(PartStats{
				Part: model.PartWeb, MaxQuota: 4, Applied: 5, Confirmed: 3,
			})
			So(sel.ToConfirm, ShouldEqual, 0)
		})
	})

	Convey("design part", t, func() {
		Convey("a single seat is never force-filled", func() {
			sel := EvaluateMinSelection(PartStats{
				Part: model.PartDesign, MaxQuota: 1, Applied: 5,
			})
			So(sel.MinSelect, ShouldEqual, 0)
		})

		Convey("at most one applicant owes nothing", func() {
			sel := EvaluateMinSelection(PartStats{
				Part: model.PartDesign, MaxQuota: 3, Applied: 1,
			})
			So(sel.MinSelect, ShouldEqual, 0)
		})

		Convey("multiple applicants owe exactly one confirmation", func() {
			sel := EvaluateMinSelection(PartStats{
				Part: model.PartDesign, MaxQuota: 3, Applied: 4,
			})
			So(sel.MinSelect, ShouldEqual, 1)
		})
	})
}
