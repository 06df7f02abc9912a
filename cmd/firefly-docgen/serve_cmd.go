package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	commonredis "firefly/common/redis"
	"firefly/internal/bootstrap"
	"firefly/internal/config"
	httpapi "firefly/internal/http"
	"firefly/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	addr := ":3001"
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the standalone document server (POST /generate-document)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if os.Getenv("MQTT_CLIENT_ID") == "" {
				cfg.MQTT.ClientID = "firefly-docgen"
			}
			logger := bootstrap.Logger(cfg, "firefly-docgen")
			defer logger.Sync()

			st, err := bootstrap.Stamper(cfg, logger)
			if err != nil {
				return err
			}
			redisClient := bootstrap.Redis(cfg, logger)
			mqttClient := bootstrap.MQTT(cfg, logger)
			dispatcher := bootstrap.Dispatcher(cfg, redisClient, mqttClient, logger)
			docs := bootstrap.DocumentService(cfg, st, dispatcher, logger)

			router := httpapi.NewRouter(logger)
			router.RegisterDocumentRoutes("", httpapi.NewDocumentHandler(docs, cfg.Document.ExposeErrors, logger))
			router.RegisterHealthRoutes()

			srv := service.NewServer("firefly-docgen", addr, router, logger)

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			var runErr error
			select {
			case sig := <-sigCh:
				logger.Info("Shutting down", zap.String("signal", sig.String()))
			case runErr = <-errCh:
				logger.Error("HTTP server stopped", zap.Error(runErr))
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Stop(shutdownCtx)
			dispatcher.Wait()
			if mqttClient != nil {
				mqttClient.Disconnect()
			}
			_ = commonredis.Close(redisClient)
			return runErr
		},
	}
	cmd.Flags().StringVar(&addr, "addr", addr, "listen address")
	return cmd
}
