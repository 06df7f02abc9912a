package config

import (
	"os"
	"time"

	commoncfg "firefly/common/config"
)

// Config firefly-data（HTTP API）与 firefly-docgen 共用配置
type Config struct {
	HTTP struct {
		Addr string
	}
	Database commoncfg.DatabaseConfig
	Redis    commoncfg.RedisConfig
	MQTT     commoncfg.MQTTConfig
	Log      struct {
		Level  string
		Format string
	}
	Document DocumentConfig
	Notify   NotifyConfig
	SaveLock SaveLockConfig
}

// DocumentConfig 文档生成配置
type DocumentConfig struct {
	TemplateRoot  string // 模板根目录，templatePath 相对于此解析
	PositionsFile string // 为空时使用内置坐标表
	Font          string
	Compress      bool
	ExposeErrors  bool // 500 响应中是否带 error 字段
}

// NotifyConfig 文档生成事件通知（均为尽力而为）
type NotifyConfig struct {
	WebhookURL string
	Stream     string // Redis Stream 名称，需 REDIS_ENABLED
	Timeout    time.Duration
}

// SaveLockConfig 项目保存锁
type SaveLockConfig struct {
	TTL  time.Duration
	Wait time.Duration
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	// DB 不可用时 firefly-data 回退到内存存储
	cfg.Database = commoncfg.DatabaseConfig{
		Enabled:  true,
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "firefly",
		SSLMode:  "disable",
		MaxConns: 10,
		MaxIdle:  5,
	}
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis = commoncfg.RedisConfig{Addr: "localhost:6379"}
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTT = commoncfg.MQTTConfig{
		Broker:   "tcp://localhost:1883",
		ClientID: "firefly-data",
		Topic:    "firefly/documents",
		QoS:      1,
	}
	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Document.TemplateRoot = getEnv("TEMPLATE_ROOT", "public")
	cfg.Document.PositionsFile = getEnv("POSITIONS_FILE", "")
	cfg.Document.Font = getEnv("PDF_FONT", "Helvetica")
	cfg.Document.Compress = getEnv("PDF_COMPRESS", "true") == "true"
	cfg.Document.ExposeErrors = getEnv("DOC_EXPOSE_ERRORS", "true") == "true"

	cfg.Notify.WebhookURL = getEnv("DOCUMENT_WEBHOOK_URL", "")
	cfg.Notify.Stream = getEnv("EVENT_STREAM", "")
	cfg.Notify.Timeout = commoncfg.ParseDuration(getEnv("NOTIFY_TIMEOUT", ""), 5*time.Second)

	cfg.SaveLock.TTL = commoncfg.ParseDuration(getEnv("SAVE_LOCK_TTL", ""), 30*time.Second)
	cfg.SaveLock.Wait = commoncfg.ParseDuration(getEnv("SAVE_LOCK_WAIT", ""), 3*time.Second)

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
