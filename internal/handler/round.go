package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/upms-lab/upms-backend/dao/model"
	"github.com/upms-lab/upms-backend/internal/resputil"
	"github.com/upms-lab/upms-backend/internal/util"
	"github.com/upms-lab/upms-backend/pkg/matching"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewRoundMgr)
}

type RoundMgr struct {
	name    string
	service *matching.RoundService
}

func NewRoundMgr(conf *RegisterConfig) Manager {
	return &RoundMgr{
		name:    "rounds",
		service: matching.NewRoundService(conf.DB),
	}
}

func (mgr *RoundMgr) GetName() string { return mgr.name }

func (mgr *RoundMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *RoundMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("", mgr.List)
	g.GET("/current", mgr.GetCurrent)
	g.GET("/:id", mgr.Get)
}

func (mgr *RoundMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.POST("", mgr.Create)
	g.PUT("/:id", mgr.Update)
	g.DELETE("/:id", mgr.Delete)
}

type (
	RoundIDReq struct {
		ID uint `uri:"id" binding:"required"`
	}
	RoundReq struct {
		Name               string    `json:"name" binding:"required"`
		Description        *string   `json:"description"`
		ChapterID          uint      `json:"chapterId" binding:"required"`
		StartAt            time.Time `json:"startAt" binding:"required"`
		EndAt              time.Time `json:"endAt" binding:"required"`
		DecisionDeadlineAt time.Time `json:"decisionDeadlineAt" binding:"required"`
	}
	CurrentRoundReq struct {
		// Include the next upcoming round when no round is active.
		Upcoming bool `form:"upcoming"`
	}
)

func (r *RoundReq) schedule() matching.RoundSchedule {
	return matching.RoundSchedule{
		Name:               r.Name,
		Description:        r.Description,
		ChapterID:          r.ChapterID,
		StartAt:            r.StartAt,
		EndAt:              r.EndAt,
		DecisionDeadlineAt: r.DecisionDeadlineAt,
	}
}

// Create godoc
// @Summary Create a matching round (admin)
// @Security Bearer
// @Router /v1/admin/rounds [post]
func (mgr *RoundMgr) Create(c *gin.Context) {
	var req RoundReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	round, err := mgr.service.Create(c, req.schedule())
	if err != nil {
		matchingError(c, err)
		return
	}
	resputil.Success(c, round)
}

// Update godoc
// @Summary Update a matching round's schedule (admin)
// @Security Bearer
// @Router /v1/admin/rounds/{id} [put]
func (mgr *RoundMgr) Update(c *gin.Context) {
	var idReq RoundIDReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	var req RoundReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	round, err := mgr.service.Update(c, idReq.ID, req.schedule())
	if err != nil {
		matchingError(c, err)
		return
	}
	resputil.Success(c, round)
}

func (mgr *RoundMgr) Get(c *gin.Context) {
	var idReq RoundIDReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	round, err := mgr.service.Get(c, idReq.ID)
	if err != nil {
		matchingError(c, err)
		return
	}
	resputil.Success(c, round)
}

func (mgr *RoundMgr) List(c *gin.Context) {
	rounds, err := mgr.service.List(c)
	if err != nil {
		matchingError(c, err)
		return
	}
	resputil.Success(c, rounds)
}

// GetCurrent godoc
// @Summary Active round of the caller's chapter, optionally falling back to the next one
// @Security Bearer
// @Router /v1/rounds/current [get]
func (mgr *RoundMgr) GetCurrent(c *gin.Context) {
	token, err := util.GetToken(c)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.TokenInvalid)
		return
	}
	var req CurrentRoundReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}

	var round *model.MatchingRound
	if req.Upcoming {
		round, err = mgr.service.CurrentOrUpcoming(c, token.ChapterID, time.Now())
	} else {
		round, err = mgr.service.Current(c, token.ChapterID, time.Now())
	}
	if err != nil {
		matchingError(c, err)
		return
	}
	resputil.Success(c, round)
}

// Delete godoc
// @Summary Delete a round and its applications (admin)
// @Security Bearer
// @Router /v1/admin/rounds/{id} [delete]
func (mgr *RoundMgr) Delete(c *gin.Context) {
	var idReq RoundIDReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	if err := mgr.service.Delete(c, idReq.ID); err != nil {
		matchingError(c, err)
		return
	}
	resputil.Success(c, "")
}
