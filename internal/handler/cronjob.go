package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/upms-lab/upms-backend/dao/model"
	"github.com/upms-lab/upms-backend/internal/payload"
	"github.com/upms-lab/upms-backend/internal/resputil"
	"github.com/upms-lab/upms-backend/pkg/cronjob"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewCronJobMgr)
}

// CronJobMgr is the ops surface for the scheduler: job configs and the
// per-tick execution records.
type CronJobMgr struct {
	name    string
	cronMgr *cronjob.CronJobManager
}

func NewCronJobMgr(conf *RegisterConfig) Manager {
	return &CronJobMgr{
		name:    "cronjobs",
		cronMgr: conf.CronJobManager,
	}
}

func (mgr *CronJobMgr) GetName() string { return mgr.name }

func (mgr *CronJobMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *CronJobMgr) RegisterProtected(_ *gin.RouterGroup) {}

func (mgr *CronJobMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.GET("", mgr.ListConfigs)
	g.PUT("/:name", mgr.UpdateConfig)
	g.GET("/records", mgr.ListRecords)
	g.DELETE("/records", mgr.DeleteRecords)
}

type (
	CronJobNameReq struct {
		Name string `uri:"name" binding:"required"`
	}
	UpdateCronJobReq struct {
		Type    *model.CronJobType `json:"type"`
		Spec    *string            `json:"spec"`
		Suspend *bool              `json:"suspend"`
		Config  *string            `json:"config"`
	}
	ListRecordsReq struct {
		Names     []string   `form:"names"`
		StartTime *time.Time `form:"start_time"`
		EndTime   *time.Time `form:"end_time"`
		Status    *string    `form:"status"`
	}
	DeleteRecordsReq struct {
		IDs       []uint     `json:"ids"`
		StartTime *time.Time `json:"startTime"`
		EndTime   *time.Time `json:"endTime"`
	}
)

func (mgr *CronJobMgr) ListConfigs(c *gin.Context) {
	configs, err := mgr.cronMgr.GetAllCronJobs(c)
	if err != nil {
		resputil.Error(c, fmt.Sprintf("failed to list cron jobs: %v", err), resputil.NotSpecified)
		return
	}
	resputil.Success(c, configs)
}

// UpdateConfig godoc
// @Summary Update a cron job's schedule, suspend flag or config (admin)
// @Security Bearer
// @Router /v1/admin/cronjobs/{name} [put]
func (mgr *CronJobMgr) UpdateConfig(c *gin.Context) {
	var nameReq CronJobNameReq
	if err := c.ShouldBindUri(&nameReq); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	var req UpdateCronJobReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	err := mgr.cronMgr.UpdateJobConfig(nameReq.Name, req.Type, req.Spec, req.Suspend, req.Config)
	if err != nil {
		resputil.Error(c, fmt.Sprintf("failed to update cron job: %v", err), resputil.NotSpecified)
		return
	}
	resputil.Success(c, "")
}

func (mgr *CronJobMgr) ListRecords(c *gin.Context) {
	var req ListRecordsReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	records, total, err := mgr.cronMgr.GetCronjobRecords(c, req.Names, req.StartTime, req.EndTime, req.Status)
	if err != nil {
		resputil.Error(c, fmt.Sprintf("failed to list cron job records: %v", err), resputil.NotSpecified)
		return
	}
	resputil.Success(c, payload.ListResp[*model.CronJobRecord]{Rows: records, Count: total})
}

func (mgr *CronJobMgr) DeleteRecords(c *gin.Context) {
	var req DeleteRecordsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	deleted, err := mgr.cronMgr.DeleteCronjobRecords(c, req.IDs, req.StartTime, req.EndTime)
	if err != nil {
		resputil.Error(c, fmt.Sprintf("failed to delete cron job records: %v", err), resputil.NotSpecified)
		return
	}
	resputil.Success(c, deleted)
}
