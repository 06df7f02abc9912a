package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"firefly/common/database"
	commonredis "firefly/common/redis"
	"firefly/internal/bootstrap"
	"firefly/internal/config"
	httpapi "firefly/internal/http"
	"firefly/internal/repository"
	"firefly/internal/service"
	"firefly/internal/store"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger := bootstrap.Logger(cfg, "firefly-data")
	defer logger.Sync()

	redisClient := bootstrap.Redis(cfg, logger)
	mqttClient := bootstrap.MQTT(cfg, logger)

	// 项目存储：DB 不可用时回退到内存 repo（本地联调）
	var db *sql.DB
	var projectsRepo repository.ProjectsRepository
	if cfg.Database.Enabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			logger.Info("DB enabled for firefly-data", zap.String("database", cfg.Database.Database))
		} else {
			logger.Warn("DB enabled but connection failed, falling back to memory store", zap.Error(err))
		}
	}
	if db != nil {
		projectsRepo = repository.NewPostgresProjectsRepository(db)
	} else {
		projectsRepo = repository.NewMemoryProjectsRepo()
	}

	// 保存锁：Redis 可用时跨实例生效
	var locker store.Locker = store.NewMemoryLocker()
	if redisClient != nil {
		locker = store.NewRedisLocker(redisClient, "firefly:lock:")
	}
	projects := service.NewProjectService(projectsRepo, locker, cfg.SaveLock.TTL, cfg.SaveLock.Wait, logger)

	st, err := bootstrap.Stamper(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialise stamper", zap.Error(err))
	}
	dispatcher := bootstrap.Dispatcher(cfg, redisClient, mqttClient, logger)
	docs := bootstrap.DocumentService(cfg, st, dispatcher, logger)

	router := httpapi.NewRouter(logger)
	router.RegisterDocumentRoutes("/api", httpapi.NewDocumentHandler(docs, cfg.Document.ExposeErrors, logger))
	router.RegisterProjectRoutes(httpapi.NewProjectsHandler(projects, logger))
	router.RegisterPositionRoutes(httpapi.NewPositionsHandler(st.Table(), st.Font(), logger))
	router.RegisterHealthRoutes()

	srv := service.NewServer("firefly-data", cfg.HTTP.Addr, router, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("HTTP server stopped", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	dispatcher.Wait()
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	_ = commonredis.Close(redisClient)
	_ = database.Close(db)
}
