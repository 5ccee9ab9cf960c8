package matching

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/upms-lab/upms-backend/dao/model"
)

func loadQuota(ctx context.Context, db *gorm.DB, projectID uint, part model.Part) (*model.ProjectQuota, error) {
	var quota model.ProjectQuota
	err := db.WithContext(ctx).
		Where("project_id = ? AND part = ?", projectID, part).
		First(&quota).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuotaNotFound
		}
		return nil, err
	}
	return &quota, nil
}

// loadPartStats gathers the allocation rule inputs for one
// (project, part, round) group.
func loadPartStats(
	ctx context.Context, db *gorm.DB, projectID uint, part model.Part, roundID uint) (PartStats, error) {
	stats := PartStats{Part: part}

	quota, err := loadQuota(ctx, db, projectID, part)
	if err != nil {
		return stats, err
	}
	stats.MaxQuota = quota.Headcount

	var prior, applied, confirmed int64
	if err := db.WithContext(ctx).Model(&model.Application{}).
		Where("project_id = ? AND part = ? AND round_id <> ? AND status = ?",
			projectID, part, roundID, model.ApplicationConfirmed).
		Count(&prior).Error; err != nil {
		return stats, err
	}
	if err := db.WithContext(ctx).Model(&model.Application{}).
		Where("project_id = ? AND part = ? AND round_id = ?", projectID, part, roundID).
		Count(&applied).Error; err != nil {
		return stats, err
	}
	if err := db.WithContext(ctx).Model(&model.Application{}).
		Where("project_id = ? AND part = ? AND round_id = ? AND status = ?",
			projectID, part, roundID, model.ApplicationConfirmed).
		Count(&confirmed).Error; err != nil {
		return stats, err
	}

	stats.PriorConfirmed = int(prior)
	stats.Applied = int(applied)
	stats.Confirmed = int(confirmed)
	return stats, nil
}
