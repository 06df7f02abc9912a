// Package bootstrap firefly-data 与 firefly-docgen 共用的组件装配
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"firefly/common/logger"
	"firefly/common/mqtt"
	commonredis "firefly/common/redis"
	"firefly/internal/config"
	"firefly/internal/notify"
	"firefly/internal/service"
	"firefly/internal/stamper"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Logger 按配置创建 logger，失败时回退到 zap.NewProduction
func Logger(cfg *config.Config, serviceName string) *zap.Logger {
	l, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, serviceName)
	if err != nil {
		l, _ = zap.NewProduction()
		l.Warn("Invalid log config, using defaults", zap.Error(err))
	}
	return l
}

// Redis REDIS_ENABLED 且可连通时返回客户端，否则返回 nil
func Redis(cfg *config.Config, log *zap.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	client := commonredis.NewRedisClient(&cfg.Redis)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := commonredis.Ping(ctx, client); err != nil {
		log.Warn("Redis enabled but unreachable, continuing without it", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		_ = client.Close()
		return nil
	}
	log.Info("Redis enabled", zap.String("addr", cfg.Redis.Addr))
	return client
}

// MQTT MQTT_ENABLED 且可连通时返回客户端，否则返回 nil
func MQTT(cfg *config.Config, log *zap.Logger) *mqtt.Client {
	if !cfg.MQTT.Enabled {
		return nil
	}
	client, err := mqtt.NewClient(&cfg.MQTT, log)
	if err != nil {
		log.Warn("MQTT enabled but connection failed, continuing without it", zap.String("broker", cfg.MQTT.Broker), zap.Error(err))
		return nil
	}
	log.Info("MQTT enabled", zap.String("broker", cfg.MQTT.Broker), zap.String("topic", cfg.MQTT.Topic))
	return client
}

// Dispatcher 按配置组装文档事件 notifier；一个都没有时返回的 Dispatcher 不做任何事
func Dispatcher(cfg *config.Config, redisClient *redis.Client, mqttClient *mqtt.Client, log *zap.Logger) *notify.Dispatcher {
	var notifiers []notify.Notifier
	if cfg.Notify.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(cfg.Notify.WebhookURL, cfg.Notify.Timeout))
	}
	if mqttClient != nil {
		notifiers = append(notifiers, notify.NewMQTTNotifier(mqttClient, cfg.MQTT.Topic, cfg.MQTT.QoS))
	}
	if redisClient != nil && cfg.Notify.Stream != "" {
		notifiers = append(notifiers, notify.NewStreamNotifier(redisClient, cfg.Notify.Stream))
	}
	names := make([]string, 0, len(notifiers))
	for _, n := range notifiers {
		names = append(names, n.Name())
	}
	log.Info("Document notifiers configured", zap.Strings("notifiers", names))
	return notify.NewDispatcher(notifiers, cfg.Notify.Timeout, log)
}

// Stamper 加载坐标表（POSITIONS_FILE 或内置）并创建 Stamper
func Stamper(cfg *config.Config, log *zap.Logger) (*stamper.Stamper, error) {
	table, err := stamper.LoadPositionTable(cfg.Document.PositionsFile)
	if err != nil {
		return nil, fmt.Errorf("load position table: %w", err)
	}
	log.Info("Position table loaded",
		zap.String("file", cfg.Document.PositionsFile),
		zap.Int("fields", table.Len()),
	)
	return stamper.New(table,
		stamper.WithFont(cfg.Document.Font),
		stamper.WithCompression(cfg.Document.Compress),
		stamper.WithLogger(log),
	), nil
}

// DocumentService 文档生成服务
func DocumentService(cfg *config.Config, st *stamper.Stamper, dispatcher *notify.Dispatcher, log *zap.Logger) *service.DocumentService {
	return service.NewDocumentService(service.NewTemplateStore(cfg.Document.TemplateRoot), st, dispatcher, log)
}
