package matching

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/upms-lab/upms-backend/dao/model"
)

// newTestDB opens an isolated in-memory database per test. A single
// connection keeps sqlite happy under the concurrency tests.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Chapter{},
		&model.Challenger{},
		&model.Project{},
		&model.ProjectQuota{},
		&model.ProjectMember{},
		&model.ApplicationForm{},
		&model.MatchingRound{},
		&model.Application{},
	))
	return db
}

// fixture is a chapter with one project, one open form and a round whose
// decision window is currently open.
type fixture struct {
	db      *gorm.DB
	svc     *DecisionService
	chapter model.Chapter
	owner   model.Challenger
	project model.Project
	form    model.ApplicationForm
	round   model.MatchingRound
}

func newFixture(t *testing.T, part model.Part, headcount int) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{db: db, svc: NewDecisionService(db, nil)}

	f.chapter = model.Chapter{Name: "seoul"}
	require.NoError(t, db.Create(&f.chapter).Error)

	f.owner = model.Challenger{
		Name: "owner", Part: model.PartPlan, Role: model.RoleChallenger, ChapterID: f.chapter.ID,
	}
	require.NoError(t, db.Create(&f.owner).Error)

	f.project = model.Project{
		Name: "commerce", ChapterID: f.chapter.ID, ProductOwnerID: f.owner.ID,
	}
	require.NoError(t, db.Create(&f.project).Error)

	require.NoError(t, db.Create(&model.ProjectQuota{
		ProjectID: f.project.ID, Part: part, Headcount: headcount,
	}).Error)

	f.form = model.ApplicationForm{ProjectID: f.project.ID, Title: "join us"}
	require.NoError(t, db.Create(&f.form).Error)

	now := time.Now()
	f.round = model.MatchingRound{
		Name:               "round-1",
		ChapterID:          f.chapter.ID,
		StartAt:            now.Add(-2 * time.Hour),
		EndAt:              now.Add(-1 * time.Hour),
		DecisionDeadlineAt: now.Add(1 * time.Hour),
	}
	require.NoError(t, db.Create(&f.round).Error)
	return f
}

// apply registers a challenger with the given part and submits an
// application through the service path.
func (f *fixture) apply(t *testing.T, name string, part model.Part) *model.Application {
	t.Helper()
	challenger := model.Challenger{
		Name: name, Part: part, Role: model.RoleChallenger, ChapterID: f.chapter.ID,
	}
	require.NoError(t, f.db.Create(&challenger).Error)

	app, err := f.svc.Submit(t.Context(), f.form.ID, challenger.ID, f.round.ID)
	require.NoError(t, err)
	return app
}

func (f *fixture) ownerActor() Actor {
	return Actor{ChallengerID: f.owner.ID}
}

func (f *fixture) adminActor() Actor {
	return Actor{ChallengerID: 9999, Admin: true}
}

func (f *fixture) countMembers(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.ProjectMember{}).
		Where("project_id = ?", f.project.ID).Count(&n).Error)
	return n
}

func (f *fixture) reloadApp(t *testing.T, id uint) model.Application {
	t.Helper()
	var app model.Application
	require.NoError(t, f.db.First(&app, id).Error)
	return app
}
