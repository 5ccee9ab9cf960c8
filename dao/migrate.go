package dao

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/upms-lab/upms-backend/dao/model"
)

// Migrate brings the schema up to date. The unique indexes created here
// back the engine's invariants: one application per (challenger, round),
// one membership per (project, challenger), one quota row per (project, part).
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "20260115-initial-schema",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&model.Chapter{},
					&model.Challenger{},
					&model.Project{},
					&model.ProjectQuota{},
					&model.ProjectMember{},
					&model.ApplicationForm{},
					&model.MatchingRound{},
					&model.Application{},
					&model.CronJobConfig{},
					&model.CronJobRecord{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(
					&model.CronJobRecord{},
					&model.CronJobConfig{},
					&model.Application{},
					&model.MatchingRound{},
					&model.ApplicationForm{},
					&model.ProjectMember{},
					&model.ProjectQuota{},
					&model.Project{},
					&model.Challenger{},
					&model.Chapter{},
				)
			},
		},
	})

	if err := m.Migrate(); err != nil {
		klog.Errorf("migration failed: %v", err)
		return err
	}
	klog.Info("migration did run successfully")
	return nil
}
