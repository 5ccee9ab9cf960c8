package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/upms-lab/upms-backend/dao/model"
	"github.com/upms-lab/upms-backend/internal/resputil"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewProjectMgr)
}

type ProjectMgr struct {
	name string
	db   *gorm.DB
}

func NewProjectMgr(conf *RegisterConfig) Manager {
	return &ProjectMgr{
		name: "projects",
		db:   conf.DB,
	}
}

func (mgr *ProjectMgr) GetName() string { return mgr.name }

func (mgr *ProjectMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *ProjectMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("", mgr.List)
	g.GET("/:id", mgr.Get)
	g.GET("/:id/quotas", mgr.ListQuotas)
	g.GET("/:id/members", mgr.ListMembers)
	g.GET("/:id/forms", mgr.ListForms)
}

func (mgr *ProjectMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.POST("", mgr.Create)
	g.PUT("/:id/quotas", mgr.UpsertQuota)
	g.POST("/:id/forms", mgr.CreateForm)
}

type (
	ProjectIDReq struct {
		ID uint `uri:"id" binding:"required"`
	}
	CreateProjectReq struct {
		Name           string  `json:"name" binding:"required"`
		Description    *string `json:"description"`
		ChapterID      uint    `json:"chapterId" binding:"required"`
		ProductOwnerID uint    `json:"productOwnerId" binding:"required"`
	}
	UpsertQuotaReq struct {
		Part      model.Part `json:"part" binding:"required"`
		Headcount *int       `json:"headcount" binding:"required"`
	}
	CreateFormReq struct {
		Title string `json:"title" binding:"required"`
	}
	ListProjectReq struct {
		ChapterID *uint `form:"chapter_id"`
	}
)

// Create godoc
// @Summary Create a project (admin)
// @Security Bearer
// @Router /v1/admin/projects [post]
func (mgr *ProjectMgr) Create(c *gin.Context) {
	var req CreateProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	project := &model.Project{
		Name:           req.Name,
		Description:    req.Description,
		ChapterID:      req.ChapterID,
		ProductOwnerID: req.ProductOwnerID,
	}
	if err := mgr.db.WithContext(c).Create(project).Error; err != nil {
		resputil.Error(c, fmt.Sprintf("failed to create project: %v", err), resputil.NotSpecified)
		return
	}
	resputil.Success(c, project)
}

func (mgr *ProjectMgr) Get(c *gin.Context) {
	var idReq ProjectIDReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	var project model.Project
	if err := mgr.db.WithContext(c).First(&project, idReq.ID).Error; err != nil {
		resputil.Error(c, "project not found", resputil.ProjectNotFound)
		return
	}
	resputil.Success(c, project)
}

func (mgr *ProjectMgr) List(c *gin.Context) {
	var req ListProjectReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	tx := mgr.db.WithContext(c).Model(&model.Project{})
	if req.ChapterID != nil {
		tx = tx.Where("chapter_id = ?", *req.ChapterID)
	}
	var projects []model.Project
	if err := tx.Order("name").Find(&projects).Error; err != nil {
		resputil.Error(c, fmt.Sprintf("failed to list projects: %v", err), resputil.NotSpecified)
		return
	}
	resputil.Success(c, projects)
}

// UpsertQuota godoc
// @Summary Set the headcount for a (project, part) pair (admin)
// @Security Bearer
// @Router /v1/admin/projects/{id}/quotas [put]
func (mgr *ProjectMgr) UpsertQuota(c *gin.Context) {
	var idReq ProjectIDReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	var req UpsertQuotaReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	if *req.Headcount < 0 {
		resputil.BadRequestError(c, "headcount must not be negative")
		return
	}
	quota := &model.ProjectQuota{
		ProjectID: idReq.ID,
		Part:      req.Part,
		Headcount: *req.Headcount,
	}
	err := mgr.db.WithContext(c).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}, {Name: "part"}},
			DoUpdates: clause.AssignmentColumns([]string{"headcount"}),
		}).
		Create(quota).Error
	if err != nil {
		resputil.Error(c, fmt.Sprintf("failed to upsert quota: %v", err), resputil.NotSpecified)
		return
	}
	resputil.Success(c, quota)
}

func (mgr *ProjectMgr) ListQuotas(c *gin.Context) {
	var idReq ProjectIDReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	var quotas []model.ProjectQuota
	if err := mgr.db.WithContext(c).
		Where("project_id = ?", idReq.ID).
		Order("part").
		Find(&quotas).Error; err != nil {
		resputil.Error(c, fmt.Sprintf("failed to list quotas: %v", err), resputil.NotSpecified)
		return
	}
	resputil.Success(c, quotas)
}

func (mgr *ProjectMgr) ListMembers(c *gin.Context) {
	var idReq ProjectIDReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	var members []model.ProjectMember
	if err := mgr.db.WithContext(c).
		Where("project_id = ?", idReq.ID).
		Order("part").
		Find(&members).Error; err != nil {
		resputil.Error(c, fmt.Sprintf("failed to list members: %v", err), resputil.NotSpecified)
		return
	}
	resputil.Success(c, members)
}

// CreateForm godoc
// @Summary Open an application form for a project (admin)
// @Security Bearer
// @Router /v1/admin/projects/{id}/forms [post]
func (mgr *ProjectMgr) CreateForm(c *gin.Context) {
	var idReq ProjectIDReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	var req CreateFormReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	var project model.Project
	if err := mgr.db.WithContext(c).First(&project, idReq.ID).Error; err != nil {
		resputil.Error(c, "project not found", resputil.ProjectNotFound)
		return
	}
	form := &model.ApplicationForm{
		ProjectID: project.ID,
		Title:     req.Title,
	}
	if err := mgr.db.WithContext(c).Create(form).Error; err != nil {
		resputil.Error(c, fmt.Sprintf("failed to create form: %v", err), resputil.NotSpecified)
		return
	}
	resputil.Success(c, form)
}

func (mgr *ProjectMgr) ListForms(c *gin.Context) {
	var idReq ProjectIDReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, fmt.Sprintf("failed to bind request: %v", err))
		return
	}
	var forms []model.ApplicationForm
	if err := mgr.db.WithContext(c).
		Where("project_id = ?", idReq.ID).
		Find(&forms).Error; err != nil {
		resputil.Error(c, fmt.Sprintf("failed to list forms: %v", err), resputil.NotSpecified)
		return
	}
	resputil.Success(c, forms)
}
