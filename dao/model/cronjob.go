package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CronJobType string

func (c CronJobType) String() string {
	return string(c)
}

const (
	CronJobTypeAutoDecision CronJobType = "auto_decision"
)

func GetAllCronJobTypes() []CronJobType {
	return []CronJobType{
		CronJobTypeAutoDecision,
	}
}

type CronJobConfig struct {
	gorm.Model
	Name    string         `gorm:"type:varchar(128);not null;index;unique;comment:cronjob name"`
	Type    CronJobType    `gorm:"type:varchar(128);not null;index;comment:cronjob type"`
	Spec    string         `gorm:"type:varchar(128);not null;comment:cron schedule spec"`
	Suspend *bool          `gorm:"not null;default:false;comment:suspended"`
	Config  datatypes.JSON `gorm:"type:jsonb;comment:job specific config"`
	EntryID int            `gorm:"type:int;comment:cron entry id"`
}

func (c *CronJobConfig) GetSuspend() bool {
	var v bool
	if c.Suspend != nil {
		v = *c.Suspend
	}
	return v
}

func (CronJobConfig) TableName() string {
	return "cron_job_configs"
}

type CronJobRecordStatus string

const (
	CronJobRecordStatusSuccess CronJobRecordStatus = "success"
	CronJobRecordStatusFailed  CronJobRecordStatus = "failed"
)

type CronJobRecord struct {
	gorm.Model
	Name        string              `gorm:"type:varchar(128);not null;index;comment:cronjob name"`
	ExecuteTime time.Time           `gorm:"not null;index;comment:tick time"`
	Status      CronJobRecordStatus `gorm:"type:varchar(32);not null;index;comment:tick outcome"`
	Message     string              `gorm:"type:text;comment:outcome detail or error"`
}

func (CronJobRecord) TableName() string {
	return "cron_job_records"
}
