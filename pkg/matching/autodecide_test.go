package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upms-lab/upms-backend/dao/model"
)

// expireRound moves the round's whole schedule into the past so the
// auto-decision job picks it up.
func expireRound(t *testing.T, f *fixture) {
	t.Helper()
	now := time.Now()
	require.NoError(t, f.db.Model(&model.MatchingRound{}).
		Where("id = ?", f.round.ID).
		Updates(map[string]any{
			"start_at":             now.Add(-3 * time.Hour),
			"end_at":               now.Add(-2 * time.Hour),
			"decision_deadline_at": now.Add(-1 * time.Hour),
		}).Error)
}

func countByStatus(t *testing.T, f *fixture, status model.ApplicationStatus) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.Application{}).
		Where("round_id = ? AND status = ?", f.round.ID, status).
		Count(&n).Error)
	return n
}

func roundFlag(t *testing.T, f *fixture) bool {
	t.Helper()
	var round model.MatchingRound
	require.NoError(t, f.db.First(&round, f.round.ID).Error)
	return round.AutoDecisionExecuted
}

func TestAutoDecideConfirmsFairnessFloor(t *testing.T) {
	f := newFixture(t, model.PartWeb, 4)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		f.apply(t, name, model.PartWeb)
	}
	expireRound(t, f)

	decider := NewAutoDecider(f.db)
	require.NoError(t, decider.ProcessExpiredRounds(t.Context(), time.Now()))

	// 5 applicants, quota 4: half the quota gets confirmed, the rest
	// rejected, nothing stays pending.
	assert.EqualValues(t, 2, countByStatus(t, f, model.ApplicationConfirmed))
	assert.EqualValues(t, 3, countByStatus(t, f, model.ApplicationRejected))
	assert.EqualValues(t, 0, countByStatus(t, f, model.ApplicationPending))
	assert.EqualValues(t, 2, f.countMembers(t))
	assert.True(t, roundFlag(t, f))
}

func TestAutoDecideIsIdempotent(t *testing.T) {
	f := newFixture(t, model.PartWeb, 4)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		f.apply(t, name, model.PartWeb)
	}
	expireRound(t, f)

	decider := NewAutoDecider(f.db)
	require.NoError(t, decider.ProcessExpiredRounds(t.Context(), time.Now()))
	confirmed := countByStatus(t, f, model.ApplicationConfirmed)

	require.NoError(t, decider.ProcessExpiredRounds(t.Context(), time.Now()))
	assert.Equal(t, confirmed, countByStatus(t, f, model.ApplicationConfirmed))
	assert.EqualValues(t, confirmed, f.countMembers(t))
}

func TestAutoDecideSkipsFutureDeadlines(t *testing.T) {
	f := newFixture(t, model.PartWeb, 4)
	f.apply(t, "a", model.PartWeb)

	decider := NewAutoDecider(f.db)
	require.NoError(t, decider.ProcessExpiredRounds(t.Context(), time.Now()))

	assert.EqualValues(t, 1, countByStatus(t, f, model.ApplicationPending))
	assert.False(t, roundFlag(t, f))
}

func TestAutoDecideSingleDesignSeatRejectsAll(t *testing.T) {
	f := newFixture(t, model.PartDesign, 1)
	for _, name := range []string{"a", "b", "c"} {
		f.apply(t, name, model.PartDesign)
	}
	expireRound(t, f)

	decider := NewAutoDecider(f.db)
	require.NoError(t, decider.ProcessExpiredRounds(t.Context(), time.Now()))

	// The single design seat is never force-filled.
	assert.EqualValues(t, 0, countByStatus(t, f, model.ApplicationConfirmed))
	assert.EqualValues(t, 3, countByStatus(t, f, model.ApplicationRejected))
	assert.EqualValues(t, 0, f.countMembers(t))
	assert.True(t, roundFlag(t, f))
}

func TestAutoDecideRejectsGroupWithoutQuota(t *testing.T) {
	f := newFixture(t, model.PartWeb, 4)
	app := f.apply(t, "a", model.PartWeb)

	// Reroute the application to a part the project never opened.
	require.NoError(t, f.db.Model(&model.Application{}).
		Where("id = ?", app.ID).
		Update("part", model.PartIOS).Error)
	expireRound(t, f)

	decider := NewAutoDecider(f.db)
	require.NoError(t, decider.ProcessExpiredRounds(t.Context(), time.Now()))

	assert.Equal(t, model.ApplicationRejected, f.reloadApp(t, app.ID).Status)
	assert.True(t, roundFlag(t, f))
}

func TestAutoDecideDemotesExistingMemberWhenFull(t *testing.T) {
	f := newFixture(t, model.PartWeb, 1)
	app := f.apply(t, "alice", model.PartWeb)

	// The applicant already occupies the only seat through a membership
	// created outside any round. The quota gate must still hold.
	require.NoError(t, f.db.Create(&model.ProjectMember{
		ProjectID: f.project.ID, ChallengerID: app.ChallengerID, Part: model.PartWeb,
	}).Error)
	expireRound(t, f)

	decider := NewAutoDecider(f.db)
	require.NoError(t, decider.ProcessExpiredRounds(t.Context(), time.Now()))

	assert.Equal(t, model.ApplicationRejected, f.reloadApp(t, app.ID).Status)
	assert.EqualValues(t, 1, f.countMembers(t))
	assert.True(t, roundFlag(t, f))
}

func TestAutoDecideCountsPriorConfirmations(t *testing.T) {
	f := newFixture(t, model.PartWeb, 4)

	// An earlier round already consumed half the quota.
	now := time.Now()
	earlier := model.MatchingRound{
		Name:               "round-0",
		ChapterID:          f.chapter.ID,
		StartAt:            now.Add(-50 * time.Hour),
		EndAt:              now.Add(-49 * time.Hour),
		DecisionDeadlineAt: now.Add(-48 * time.Hour),
	}
	require.NoError(t, f.db.Create(&earlier).Error)
	require.NoError(t, f.db.Model(&model.MatchingRound{}).
		Where("id = ?", earlier.ID).
		Update("auto_decision_executed", true).Error)
	for _, name := range []string{"veteran-1", "veteran-2"} {
		veteran := model.Challenger{
			Name: name, Part: model.PartWeb, Role: model.RoleChallenger, ChapterID: f.chapter.ID,
		}
		require.NoError(t, f.db.Create(&veteran).Error)
		require.NoError(t, f.db.Create(&model.Application{
			FormID: f.form.ID, ProjectID: f.project.ID, Part: model.PartWeb,
			RoundID: earlier.ID, ChallengerID: veteran.ID, Status: model.ApplicationConfirmed,
		}).Error)
		require.NoError(t, f.db.Create(&model.ProjectMember{
			ProjectID: f.project.ID, ChallengerID: veteran.ID, Part: model.PartWeb,
		}).Error)
	}

	for _, name := range []string{"a", "b", "c"} {
		f.apply(t, name, model.PartWeb)
	}
	expireRound(t, f)

	decider := NewAutoDecider(f.db)
	require.NoError(t, decider.ProcessExpiredRounds(t.Context(), time.Now()))

	// Round quota shrank to 2; 3 applicants meet it, so half of it (1)
	// is confirmed.
	assert.EqualValues(t, 1, countByStatus(t, f, model.ApplicationConfirmed))
	assert.EqualValues(t, 2, countByStatus(t, f, model.ApplicationRejected))
	assert.True(t, roundFlag(t, f))
}
