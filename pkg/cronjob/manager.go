package cronjob

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/upms-lab/upms-backend/pkg/matching"
)

type CronJobManager struct {
	db        *gorm.DB
	decider   *matching.AutoDecider
	cron      *cron.Cron
	cronMutex sync.RWMutex
}

func NewCronJobManager(db *gorm.DB) *CronJobManager {
	return &CronJobManager{
		db:      db,
		decider: matching.NewAutoDecider(db),
		cron:    cron.New(cron.WithLocation(time.Local)),
	}
}
