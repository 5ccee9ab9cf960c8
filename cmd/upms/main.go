package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"k8s.io/klog/v2"

	"github.com/upms-lab/upms-backend/dao"
	"github.com/upms-lab/upms-backend/dao/query"
	"github.com/upms-lab/upms-backend/internal"
	"github.com/upms-lab/upms-backend/internal/handler"
	"github.com/upms-lab/upms-backend/pkg/alert"
	"github.com/upms-lab/upms-backend/pkg/config"
	"github.com/upms-lab/upms-backend/pkg/cronjob"
)

// @title						UPMS API
// @version						1.0.0
// @description					Matching round allocation backend: applications, decisions and headcount quotas.
// @securityDefinitions.apikey	Bearer
// @in							header
// @name						Authorization
func main() {
	if gin.Mode() == gin.DebugMode {
		if err := godotenv.Load(".debug.env"); err != nil && !os.IsNotExist(err) {
			klog.Fatalf("Failed to load env: %s", err)
		}
	}

	conf := config.GetConfig()

	db := query.GetDB()
	if err := dao.Migrate(db); err != nil {
		klog.Fatalf("Failed to migrate database: %s", err)
	}

	cronMgr := cronjob.NewCronJobManager(db)
	if err := cronMgr.SeedDefaultJobs(); err != nil {
		klog.Fatalf("Failed to seed cron jobs: %s", err)
	}
	cronMgr.SyncCronJob()
	defer cronMgr.StopCron()

	backend := internal.Register(&handler.RegisterConfig{
		DB:             db,
		Mailer:         alert.NewMailer(),
		CronJobManager: cronMgr,
	})

	server := &http.Server{
		Addr:              conf.ServerAddr,
		Handler:           backend.R,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		klog.Infof("Serving on %s", conf.ServerAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			klog.Fatalf("Server error: %s", err)
		}
	}()

	<-ctx.Done()
	klog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		klog.Errorf("Server shutdown: %s", err)
	}
}
