package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/upms-lab/upms-backend/dao/model"
	"github.com/upms-lab/upms-backend/internal/resputil"
	"github.com/upms-lab/upms-backend/internal/util"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewAuthMgr)
}

// AuthMgr only refreshes tokens. Initial tokens are minted out of band;
// there is no login surface.
type AuthMgr struct {
	name string
	db   *gorm.DB
}

func NewAuthMgr(conf *RegisterConfig) Manager {
	return &AuthMgr{
		name: "auth",
		db:   conf.DB,
	}
}

func (mgr *AuthMgr) GetName() string { return mgr.name }

func (mgr *AuthMgr) RegisterPublic(g *gin.RouterGroup) {
	g.POST("/refresh", mgr.Refresh)
}

func (mgr *AuthMgr) RegisterProtected(_ *gin.RouterGroup) {}

func (mgr *AuthMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type (
	RefreshReq struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	RefreshResp struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
)

// Refresh godoc
// @Summary Exchange a refresh token for a fresh token pair
// @Router /v1/auth/refresh [post]
func (mgr *AuthMgr) Refresh(c *gin.Context) {
	var req RefreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	msg, err := util.GetTokenMgr().CheckRefreshToken(req.RefreshToken)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.TokenExpired)
		return
	}

	// Re-read the challenger so a role change since issuance sticks.
	var challenger model.Challenger
	if err := mgr.db.WithContext(c).First(&challenger, msg.ChallengerID).Error; err != nil {
		resputil.Error(c, "challenger not found", resputil.ChallengerNotFound)
		return
	}
	fresh := util.JWTMessage{
		ChallengerID: challenger.ID,
		ChapterID:    challenger.ChapterID,
		Name:         challenger.Name,
		Role:         challenger.Role,
	}
	access, refresh, err := util.GetTokenMgr().CreateTokens(&fresh)
	if err != nil {
		resputil.Error(c, fmt.Sprintf("failed to create tokens: %v", err), resputil.NotSpecified)
		return
	}
	resputil.Success(c, RefreshResp{AccessToken: access, RefreshToken: refresh})
}
