package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/upms-lab/upms-backend/dao/model"
	"github.com/upms-lab/upms-backend/internal/payload"
	"github.com/upms-lab/upms-backend/internal/resputil"
	"github.com/upms-lab/upms-backend/internal/util"
	"github.com/upms-lab/upms-backend/pkg/matching"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewApplicationMgr)
}

type ApplicationMgr struct {
	name    string
	db      *gorm.DB
	service *matching.DecisionService
}

func NewApplicationMgr(conf *RegisterConfig) Manager {
	return &ApplicationMgr{
		name:    "applications",
		db:      conf.DB,
		service: matching.NewDecisionService(conf.DB, conf.Mailer),
	}
}

func (mgr *ApplicationMgr) GetName() string { return mgr.name }

func (mgr *ApplicationMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *ApplicationMgr) RegisterProtected(g *gin.RouterGroup) {
	g.POST("", mgr.Submit)
	g.GET("", mgr.ListMine)
	g.GET("/minselection", mgr.GetMinSelection)
	g.PUT("/:id/status", mgr.Decide)
}

func (mgr *ApplicationMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.GET("", mgr.List)
	g.DELETE("/:id", mgr.Delete)
}

type (
	SubmitApplicationReq struct {
		FormID  uint `json:"formId" binding:"required"`
		RoundID uint `json:"roundId" binding:"required"`
	}
	ApplicationIDReq struct {
		ID uint `uri:"id" binding:"required"`
	}
	DecideApplicationReq struct {
		Status model.ApplicationStatus `json:"status" binding:"required"`
	}
	MinSelectionReq struct {
		ProjectID uint       `form:"project_id" binding:"required"`
		Part      model.Part `form:"part" binding:"required"`
		RoundID   uint       `form:"round_id" binding:"required"`
	}
	ListApplicationReq struct {
		PageIndex    *int                     `form:"page_index" binding:"required"`
		PageSize     *int                     `form:"page_size" binding:"required"`
		RoundID      *uint                    `form:"round_id"`
		ProjectID    *uint                    `form:"project_id"`
		ChallengerID *uint                    `form:"challenger_id"`
		Status       *model.ApplicationStatus `form:"status"`
	}
)

// Submit godoc
// @Summary Submit an application for the current challenger
// @Security Bearer
// @Router /v1/applications [post]
func (mgr *ApplicationMgr) Submit(c *gin.Context) {
	token, err := util.GetToken(c)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.TokenInvalid)
		return
	}
	var req SubmitApplicationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	app, err := mgr.service.Submit(c, req.FormID, token.ChallengerID, req.RoundID)
	if err != nil {
		matchingError(c, err)
		return
	}
	resputil.Success(c, app)
}

// ListMine lists the calling challenger's applications across rounds.
func (mgr *ApplicationMgr) ListMine(c *gin.Context) {
	token, err := util.GetToken(c)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.TokenInvalid)
		return
	}
	var apps []model.Application
	if err := mgr.db.WithContext(c).
		Where("challenger_id = ?", token.ChallengerID).
		Order("created_at DESC").
		Find(&apps).Error; err != nil {
		resputil.Error(c, fmt.Sprintf("failed to list applications: %v", err), resputil.NotSpecified)
		return
	}
	resputil.Success(c, apps)
}

// GetMinSelection godoc
// @Summary Fairness floor for a (project, part, round) group, product owner or admin only
// @Security Bearer
// @Router /v1/applications/minselection [get]
func (mgr *ApplicationMgr) GetMinSelection(c *gin.Context) {
	token, err := util.GetToken(c)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.TokenInvalid)
		return
	}
	var req MinSelectionReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	actor := matching.Actor{ChallengerID: token.ChallengerID, Admin: token.IsAdmin()}
	sel, err := mgr.service.MinSelectionInfo(c, req.ProjectID, req.Part, req.RoundID, actor)
	if err != nil {
		matchingError(c, err)
		return
	}
	resputil.Success(c, sel)
}

// Decide godoc
// @Summary Transition an application's status
// @Security Bearer
// @Router /v1/applications/{id}/status [put]
func (mgr *ApplicationMgr) Decide(c *gin.Context) {
	token, err := util.GetToken(c)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.TokenInvalid)
		return
	}
	var idReq ApplicationIDReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	var req DecideApplicationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	actor := matching.Actor{ChallengerID: token.ChallengerID, Admin: token.IsAdmin()}
	app, err := mgr.service.Decide(c, idReq.ID, req.Status, actor)
	if err != nil {
		matchingError(c, err)
		return
	}
	resputil.Success(c, app)
}

// List godoc
// @Summary List applications with filters (admin)
// @Security Bearer
// @Router /v1/admin/applications [get]
func (mgr *ApplicationMgr) List(c *gin.Context) {
	var req ListApplicationReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	tx := mgr.db.WithContext(c).Model(&model.Application{})
	if req.RoundID != nil {
		tx = tx.Where("round_id = ?", *req.RoundID)
	}
	if req.ProjectID != nil {
		tx = tx.Where("project_id = ?", *req.ProjectID)
	}
	if req.ChallengerID != nil {
		tx = tx.Where("challenger_id = ?", *req.ChallengerID)
	}
	if req.Status != nil {
		tx = tx.Where("status = ?", *req.Status)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		resputil.Error(c, fmt.Sprintf("failed to count applications: %v", err), resputil.NotSpecified)
		return
	}
	var apps []model.Application
	err := tx.
		Order("created_at DESC").
		Offset((*req.PageIndex - 1) * (*req.PageSize)).
		Limit(*req.PageSize).
		Find(&apps).Error
	if err != nil {
		resputil.Error(c, fmt.Sprintf("failed to list applications: %v", err), resputil.NotSpecified)
		return
	}
	resputil.Success(c, payload.ListResp[model.Application]{Rows: apps, Count: total})
}

// Delete godoc
// @Summary Hard-delete an application (admin)
// @Security Bearer
// @Router /v1/admin/applications/{id} [delete]
func (mgr *ApplicationMgr) Delete(c *gin.Context) {
	var idReq ApplicationIDReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	res := mgr.db.WithContext(c).Unscoped().Delete(&model.Application{}, idReq.ID)
	if res.Error != nil {
		resputil.Error(c, fmt.Sprintf("failed to delete application: %v", res.Error), resputil.NotSpecified)
		return
	}
	if res.RowsAffected == 0 {
		resputil.Error(c, "application not found", resputil.ApplicationNotFound)
		return
	}
	resputil.Success(c, "")
}
