package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/upms-lab/upms-backend/dao/model"
	"github.com/upms-lab/upms-backend/internal/payload"
	"github.com/upms-lab/upms-backend/internal/resputil"
	"github.com/upms-lab/upms-backend/internal/util"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewChallengerMgr)
}

type ChallengerMgr struct {
	name string
	db   *gorm.DB
}

func NewChallengerMgr(conf *RegisterConfig) Manager {
	return &ChallengerMgr{
		name: "challengers",
		db:   conf.DB,
	}
}

func (mgr *ChallengerMgr) GetName() string { return mgr.name }

func (mgr *ChallengerMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *ChallengerMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("/me", mgr.GetSelf)
	g.GET("/:id", mgr.Get)
}

func (mgr *ChallengerMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.GET("", mgr.List)
	g.PUT("/:id/role", mgr.UpdateRole)
}

type (
	ChallengerIDReq struct {
		ID uint `uri:"id" binding:"required"`
	}
	UpdateRoleReq struct {
		Role model.Role `json:"role" binding:"required"`
	}
	ListChallengerReq struct {
		PageIndex *int        `form:"page_index" binding:"required"`
		PageSize  *int        `form:"page_size" binding:"required"`
		ChapterID *uint       `form:"chapter_id"`
		Part      *model.Part `form:"part"`
	}
)

func (mgr *ChallengerMgr) GetSelf(c *gin.Context) {
	token, err := util.GetToken(c)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.TokenInvalid)
		return
	}
	var challenger model.Challenger
	if err := mgr.db.WithContext(c).First(&challenger, token.ChallengerID).Error; err != nil {
		resputil.Error(c, "challenger not found", resputil.ChallengerNotFound)
		return
	}
	resputil.Success(c, challenger)
}

func (mgr *ChallengerMgr) Get(c *gin.Context) {
	var idReq ChallengerIDReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	var challenger model.Challenger
	if err := mgr.db.WithContext(c).First(&challenger, idReq.ID).Error; err != nil {
		resputil.Error(c, "challenger not found", resputil.ChallengerNotFound)
		return
	}
	resputil.Success(c, challenger)
}

// List godoc
// @Summary List challengers with filters (admin)
// @Security Bearer
// @Router /v1/admin/challengers [get]
func (mgr *ChallengerMgr) List(c *gin.Context) {
	var req ListChallengerReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	tx := mgr.db.WithContext(c).Model(&model.Challenger{})
	if req.ChapterID != nil {
		tx = tx.Where("chapter_id = ?", *req.ChapterID)
	}
	if req.Part != nil {
		tx = tx.Where("part = ?", *req.Part)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		resputil.Error(c, fmt.Sprintf("failed to count challengers: %v", err), resputil.NotSpecified)
		return
	}
	var challengers []model.Challenger
	err := tx.
		Order("name").
		Offset((*req.PageIndex - 1) * (*req.PageSize)).
		Limit(*req.PageSize).
		Find(&challengers).Error
	if err != nil {
		resputil.Error(c, fmt.Sprintf("failed to list challengers: %v", err), resputil.NotSpecified)
		return
	}
	resputil.Success(c, payload.ListResp[model.Challenger]{Rows: challengers, Count: total})
}

// UpdateRole godoc
// @Summary Change a challenger's platform role (admin)
// @Security Bearer
// @Router /v1/admin/challengers/{id}/role [put]
func (mgr *ChallengerMgr) UpdateRole(c *gin.Context) {
	var idReq ChallengerIDReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	var req UpdateRoleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	res := mgr.db.WithContext(c).Model(&model.Challenger{}).
		Where("id = ?", idReq.ID).
		Update("role", req.Role)
	if res.Error != nil {
		resputil.Error(c, fmt.Sprintf("failed to update role: %v", res.Error), resputil.NotSpecified)
		return
	}
	if res.RowsAffected == 0 {
		resputil.Error(c, "challenger not found", resputil.ChallengerNotFound)
		return
	}
	resputil.Success(c, "")
}
