package handler

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/upms-lab/upms-backend/pkg/alert"
	"github.com/upms-lab/upms-backend/pkg/cronjob"
)

type Manager interface {
	GetName() string
	RegisterPublic(group *gin.RouterGroup)
	RegisterProtected(group *gin.RouterGroup)
	RegisterAdmin(group *gin.RouterGroup)
}

// RegisterConfig carries the shared collaborators handed to every manager.
type RegisterConfig struct {
	DB             *gorm.DB
	Mailer         alert.Mailer
	CronJobManager *cronjob.CronJobManager
}

// Registers collects the manager constructors; each handler file appends
// its own in init().
var Registers []func(*RegisterConfig) Manager
