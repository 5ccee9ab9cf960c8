package cronjob

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/datatypes"
	"k8s.io/klog/v2"

	"github.com/upms-lab/upms-backend/dao/model"
)

const (
	AUTO_DECISION_JOB = "auto-decision-job"
)

// JobFunc is the body of a scheduled job. The returned message lands in
// the tick record.
type JobFunc func(ctx context.Context) (string, error)

// newCronJobFunc resolves the job body for a config row based on its type.
func (cm *CronJobManager) newCronJobFunc(
	jobName string, jobType model.CronJobType, _ datatypes.JSON) (cron.FuncJob, error) {
	switch jobType {
	case model.CronJobTypeAutoDecision:
		return cm.wrapJobFunc(jobName, func(ctx context.Context) (string, error) {
			if err := cm.decider.ProcessExpiredRounds(ctx, time.Now()); err != nil {
				return "", err
			}
			return "expired rounds processed", nil
		}), nil
	default:
		return nil, fmt.Errorf("unsupported cron job type: %s", jobType)
	}
}

// wrapJobFunc adds the shared error handling and per-tick record keeping.
func (cm *CronJobManager) wrapJobFunc(jobName string, jobFunc JobFunc) func() {
	return func() {
		ctx := context.Background()
		message, err := jobFunc(ctx)
		status := model.CronJobRecordStatusSuccess
		if err != nil {
			status = model.CronJobRecordStatusFailed
			message = err.Error()
			klog.Errorf("cron job %s failed: %v", jobName, err)
		}

		rec := &model.CronJobRecord{
			Name:        jobName,
			ExecuteTime: time.Now(),
			Status:      status,
			Message:     message,
		}
		if err := cm.db.Create(rec).Error; err != nil {
			klog.Errorf("cron job %s: failed to create record: %v", jobName, err)
		}
	}
}
