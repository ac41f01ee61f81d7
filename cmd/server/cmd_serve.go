package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/houzhh15/audioscribe/cmd/server/internal/api"
	"github.com/houzhh15/audioscribe/cmd/server/internal/middleware"
	"github.com/houzhh15/audioscribe/cmd/server/internal/orchestrator/health"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			return a.serve()
		},
	}
}

// router 注册所有 HTTP 路由
func (a *app) router(checkers health.Set, startTime time.Time) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(a.logger.With("component", "http")))

	r.GET("/health", api.HandleHealth(version, a.cfg.Server.Env, startTime))
	r.GET("/readiness", api.HandleReadiness(checkers))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.GET("/services/status", api.HandleServicesStatus(checkers))
	v1.GET("/environment", api.HandleEnvironmentCheck(a.environmentConfig()))

	transcriptions := api.NewTranscriptionHandler(
		a.orchestrator,
		a.cfg.Server.UploadDir,
		int64(a.cfg.Server.MaxUploadMB),
		a.logger.With("component", "api"),
	)
	limiter := middleware.NewConcurrencyLimiter(a.cfg.Server.MaxConcurrentRuns, a.cfg.Server.RunQueueTimeout)
	v1.POST("/transcriptions", limiter.Limit(), transcriptions.Create)
	return r
}

func (a *app) serve() error {
	startTime := time.Now()
	a.logger.Info("starting audioscribe", "version", version)
	fmt.Println(a.cfg.PrintConfig())

	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	checkers := a.healthCheckers()
	healthCtx, stopHealth := context.WithCancel(context.Background())
	checkers.Start(healthCtx)
	defer func() {
		checkers.Stop()
		stopHealth()
	}()

	serverAddr := a.cfg.GetServerAddr()
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: a.router(checkers, startTime),
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", "addr", serverAddr, "env", a.cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// 等待退出信号后优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	select {
	case err := <-serveErr:
		a.logger.Error("server failed", "error", err)
		return err
	case <-quit:
	}
	a.logger.Info("shutdown signal received, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		a.logger.Error("server forced to shutdown", "error", err)
		return err
	}
	a.logger.Info("server shutdown complete")
	return nil
}
