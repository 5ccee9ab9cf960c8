package matching

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upms-lab/upms-backend/dao/model"
)

func TestSubmitRejectsDuplicates(t *testing.T) {
	f := newFixture(t, model.PartWeb, 4)
	app := f.apply(t, "alice", model.PartWeb)
	assert.Equal(t, model.ApplicationPending, app.Status)

	_, err := f.svc.Submit(t.Context(), f.form.ID, app.ChallengerID, f.round.ID)
	assert.ErrorIs(t, err, ErrAlreadyApplied)
}

func TestSubmitUnknownReferences(t *testing.T) {
	f := newFixture(t, model.PartWeb, 4)

	_, err := f.svc.Submit(t.Context(), 404, f.owner.ID, f.round.ID)
	assert.ErrorIs(t, err, ErrFormNotFound)

	_, err = f.svc.Submit(t.Context(), f.form.ID, 404, f.round.ID)
	assert.ErrorIs(t, err, ErrChallengerNotFound)

	_, err = f.svc.Submit(t.Context(), f.form.ID, f.owner.ID, 404)
	assert.ErrorIs(t, err, ErrRoundNotFound)
}

func TestDecideSameStatusFails(t *testing.T) {
	f := newFixture(t, model.PartWeb, 4)
	app := f.apply(t, "alice", model.PartWeb)

	_, err := f.svc.Decide(t.Context(), app.ID, model.ApplicationPending, f.adminActor())
	assert.ErrorIs(t, err, ErrSameStatus)
}

func TestDecideTimingGates(t *testing.T) {
	f := newFixture(t, model.PartWeb, 4)
	app := f.apply(t, "alice", model.PartWeb)

	t.Run("before round end only admins decide", func(t *testing.T) {
		f.svc.now = func() time.Time { return f.round.EndAt.Add(-time.Minute) }
		_, err := f.svc.Decide(t.Context(), app.ID, model.ApplicationConfirmed, f.ownerActor())
		assert.ErrorIs(t, err, ErrRoundNotEnded)
	})

	t.Run("after the deadline only admins decide", func(t *testing.T) {
		f.svc.now = func() time.Time { return f.round.DecisionDeadlineAt.Add(time.Minute) }
		_, err := f.svc.Decide(t.Context(), app.ID, model.ApplicationConfirmed, f.ownerActor())
		assert.ErrorIs(t, err, ErrDeadlinePassed)
	})

	t.Run("inside the window the product owner decides", func(t *testing.T) {
		f.svc.now = time.Now
		decided, err := f.svc.Decide(t.Context(), app.ID, model.ApplicationConfirmed, f.ownerActor())
		require.NoError(t, err)
		assert.Equal(t, model.ApplicationConfirmed, decided.Status)
	})

	t.Run("an admin bypasses the deadline", func(t *testing.T) {
		f.svc.now = func() time.Time { return f.round.DecisionDeadlineAt.Add(time.Minute) }
		decided, err := f.svc.Decide(t.Context(), app.ID, model.ApplicationRejected, f.adminActor())
		require.NoError(t, err)
		assert.Equal(t, model.ApplicationRejected, decided.Status)
	})
}

func TestDecidePermissions(t *testing.T) {
	f := newFixture(t, model.PartWeb, 4)
	app := f.apply(t, "alice", model.PartWeb)

	stranger := Actor{ChallengerID: app.ChallengerID}
	_, err := f.svc.Decide(t.Context(), app.ID, model.ApplicationConfirmed, stranger)
	assert.ErrorIs(t, err, ErrNotPermitted)

	decided, err := f.svc.Decide(t.Context(), app.ID, model.ApplicationConfirmed, f.ownerActor())
	require.NoError(t, err)
	require.Equal(t, model.ApplicationConfirmed, decided.Status)

	// Once decided, even the product owner may not change it.
	_, err = f.svc.Decide(t.Context(), app.ID, model.ApplicationRejected, f.ownerActor())
	assert.ErrorIs(t, err, ErrNotPermitted)
}

func TestDecideFairnessGate(t *testing.T) {
	f := newFixture(t, model.PartWeb, 4)
	apps := []*model.Application{
		f.apply(t, "a", model.PartWeb),
		f.apply(t, "b", model.PartWeb),
		f.apply(t, "c", model.PartWeb),
		f.apply(t, "d", model.PartWeb),
	}

	// 4 applicants against a quota of 4: two confirmations are owed
	// before any non-admin rejection.
	var minSelErr *MinSelectionError
	_, err := f.svc.Decide(t.Context(), apps[0].ID, model.ApplicationRejected, f.ownerActor())
	require.ErrorAs(t, err, &minSelErr)
	assert.Equal(t, 2, minSelErr.Need)

	// An admin may reject regardless.
	_, err = f.svc.Decide(t.Context(), apps[3].ID, model.ApplicationRejected, f.adminActor())
	require.NoError(t, err)

	_, err = f.svc.Decide(t.Context(), apps[0].ID, model.ApplicationConfirmed, f.ownerActor())
	require.NoError(t, err)

	// One confirmation down, one still owed.
	_, err = f.svc.Decide(t.Context(), apps[1].ID, model.ApplicationRejected, f.ownerActor())
	require.ErrorAs(t, err, &minSelErr)
	assert.Equal(t, 1, minSelErr.Need)

	_, err = f.svc.Decide(t.Context(), apps[1].ID, model.ApplicationConfirmed, f.ownerActor())
	require.NoError(t, err)

	// The floor is met, rejection is now allowed.
	_, err = f.svc.Decide(t.Context(), apps[2].ID, model.ApplicationRejected, f.ownerActor())
	assert.NoError(t, err)
}

func TestConfirmRespectsQuota(t *testing.T) {
	f := newFixture(t, model.PartWeb, 1)
	first := f.apply(t, "alice", model.PartWeb)
	second := f.apply(t, "bob", model.PartWeb)

	_, err := f.svc.Decide(t.Context(), first.ID, model.ApplicationConfirmed, f.adminActor())
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.countMembers(t))

	_, err = f.svc.Decide(t.Context(), second.ID, model.ApplicationConfirmed, f.adminActor())
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.EqualValues(t, 1, f.countMembers(t))
}

func TestConfirmRejectsExistingMember(t *testing.T) {
	f := newFixture(t, model.PartWeb, 4)
	app := f.apply(t, "alice", model.PartWeb)

	require.NoError(t, f.db.Create(&model.ProjectMember{
		ProjectID: f.project.ID, ChallengerID: app.ChallengerID, Part: model.PartWeb,
	}).Error)

	_, err := f.svc.Decide(t.Context(), app.ID, model.ApplicationConfirmed, f.adminActor())
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestAdminRevertRemovesMembership(t *testing.T) {
	f := newFixture(t, model.PartWeb, 4)
	app := f.apply(t, "alice", model.PartWeb)

	_, err := f.svc.Decide(t.Context(), app.ID, model.ApplicationConfirmed, f.adminActor())
	require.NoError(t, err)
	require.EqualValues(t, 1, f.countMembers(t))

	decided, err := f.svc.Decide(t.Context(), app.ID, model.ApplicationPending, f.adminActor())
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationPending, decided.Status)
	assert.EqualValues(t, 0, f.countMembers(t))
}

func TestRevertWithoutMembershipIsFatal(t *testing.T) {
	f := newFixture(t, model.PartWeb, 4)
	app := f.apply(t, "alice", model.PartWeb)

	_, err := f.svc.Decide(t.Context(), app.ID, model.ApplicationConfirmed, f.adminActor())
	require.NoError(t, err)

	// Simulate the inconsistency: membership row vanished.
	require.NoError(t, f.db.Unscoped().
		Where("project_id = ? AND challenger_id = ?", f.project.ID, app.ChallengerID).
		Delete(&model.ProjectMember{}).Error)

	_, err = f.svc.Decide(t.Context(), app.ID, model.ApplicationRejected, f.adminActor())
	assert.ErrorIs(t, err, ErrMembershipMissing)

	// The status must not have moved.
	assert.Equal(t, model.ApplicationConfirmed, f.reloadApp(t, app.ID).Status)
}

func TestConcurrentConfirmTakesOneSeat(t *testing.T) {
	f := newFixture(t, model.PartWeb, 1)
	first := f.apply(t, "alice", model.PartWeb)
	second := f.apply(t, "bob", model.PartWeb)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, app := range []*model.Application{first, second} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.Decide(t.Context(), app.ID, model.ApplicationConfirmed, f.adminActor())
		}()
	}
	wg.Wait()

	var succeeded, overQuota int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, ErrQuotaExceeded):
			overQuota++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, overQuota)
	assert.EqualValues(t, 1, f.countMembers(t))
}

func TestMinSelectionInfo(t *testing.T) {
	f := newFixture(t, model.PartWeb, 4)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		f.apply(t, name, model.PartWeb)
	}

	sel, err := f.svc.MinSelectionInfo(t.Context(), f.project.ID, model.PartWeb, f.round.ID, f.ownerActor())
	require.NoError(t, err)
	assert.Equal(t, 4, sel.RoundQuota)
	assert.Equal(t, 2, sel.MinSelect)
	assert.Equal(t, 2, sel.ToConfirm)

	_, err = f.svc.MinSelectionInfo(t.Context(), f.project.ID, model.PartIOS, f.round.ID, f.adminActor())
	assert.ErrorIs(t, err, ErrQuotaNotFound)
}

func TestMinSelectionInfoPermissions(t *testing.T) {
	f := newFixture(t, model.PartWeb, 4)
	app := f.apply(t, "alice", model.PartWeb)

	// A challenger who is neither admin nor product owner gets nothing.
	stranger := Actor{ChallengerID: app.ChallengerID}
	_, err := f.svc.MinSelectionInfo(t.Context(), f.project.ID, model.PartWeb, f.round.ID, stranger)
	assert.ErrorIs(t, err, ErrNotPermitted)

	_, err = f.svc.MinSelectionInfo(t.Context(), f.project.ID, model.PartWeb, f.round.ID, f.ownerActor())
	assert.NoError(t, err)

	_, err = f.svc.MinSelectionInfo(t.Context(), f.project.ID, model.PartWeb, f.round.ID, f.adminActor())
	assert.NoError(t, err)
}

func TestReconfirmAfterRevert(t *testing.T) {
	f := newFixture(t, model.PartWeb, 4)
	app := f.apply(t, "alice", model.PartWeb)

	_, err := f.svc.Decide(t.Context(), app.ID, model.ApplicationConfirmed, f.adminActor())
	require.NoError(t, err)

	_, err = f.svc.Decide(t.Context(), app.ID, model.ApplicationPending, f.adminActor())
	require.NoError(t, err)
	require.EqualValues(t, 0, f.countMembers(t))

	// The reverted membership must not linger and block the next
	// confirmation on the (project, challenger) unique index.
	decided, err := f.svc.Decide(t.Context(), app.ID, model.ApplicationConfirmed, f.ownerActor())
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationConfirmed, decided.Status)
	assert.EqualValues(t, 1, f.countMembers(t))
}
