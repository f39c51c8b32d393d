package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/driveauth/internal/config"
	"github.com/xxxsen/driveauth/internal/handler"
	"github.com/xxxsen/driveauth/internal/job"
	"github.com/xxxsen/driveauth/internal/middleware"
	"github.com/xxxsen/driveauth/internal/schedule"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "driveauth",
		Short: "account and session service backed by a document store",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json (environment only when empty)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the http server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			app, err := newApp(cfg)
			if err != nil {
				return err
			}
			return runServer(cfg, app)
		},
	}

	reindexCmd := &cobra.Command{
		Use:   "reindex",
		Short: "rebuild the email index by scanning every account document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			app, err := newApp(cfg)
			if err != nil {
				return err
			}
			n, err := app.accounts.RebuildEmailIndex(cmd.Context())
			if err != nil {
				return fmt.Errorf("rebuild email index: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d accounts\n", n)
			return nil
		},
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "remove expired pending verifications once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			app, err := newApp(cfg)
			if err != nil {
				return err
			}
			return schedule.RunOnce(cmd.Context(), job.NewVerificationCleanupJob(app.verify))
		},
	}

	rootCmd.AddCommand(runCmd, reindexCmd, sweepCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded",
		zap.String("config", path),
		zap.String("doc_store", cfg.DocStore.Type),
		zap.String("mail", cfg.Mail.Type),
	)
	return cfg, nil
}

func runServer(cfg *config.Config, app *app) error {
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	deps := handler.RouterDeps{
		Auth:           handler.NewAuthHandler(app.auth),
		Users:          handler.NewUserHandler(app.verify, app.auth, cfg.Verification.SuccessURL, cfg.Verification.ErrorURL),
		SignupCooldown: time.Duration(cfg.SignupCooldown) * time.Second,
	}
	engine, err := webapi.NewEngine(
		"/",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Cleanup.Enabled {
		scheduler := schedule.NewCronScheduler()
		if err := scheduler.AddJob(job.NewVerificationCleanupJob(app.verify), cfg.Cleanup.Spec); err != nil {
			return fmt.Errorf("schedule verification cleanup: %w", err)
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", addr))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
