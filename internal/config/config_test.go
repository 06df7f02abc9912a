package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "firefly", cfg.Database.Database)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "firefly/documents", cfg.MQTT.Topic)
	assert.Equal(t, "public", cfg.Document.TemplateRoot)
	assert.Equal(t, "Helvetica", cfg.Document.Font)
	assert.True(t, cfg.Document.Compress)
	assert.True(t, cfg.Document.ExposeErrors)
	assert.Empty(t, cfg.Notify.WebhookURL)
	assert.Equal(t, 5*time.Second, cfg.Notify.Timeout)
	assert.Equal(t, 30*time.Second, cfg.SaveLock.TTL)
	assert.Equal(t, 3*time.Second, cfg.SaveLock.Wait)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DB_ENABLED", "false")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("MQTT_TOPIC", "site/docs")
	t.Setenv("TEMPLATE_ROOT", "/srv/templates")
	t.Setenv("DOC_EXPOSE_ERRORS", "false")
	t.Setenv("DOCUMENT_WEBHOOK_URL", "http://hooks.local/doc")
	t.Setenv("NOTIFY_TIMEOUT", "750ms")
	t.Setenv("SAVE_LOCK_WAIT", "not-a-duration")

	cfg := Load()
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "site/docs", cfg.MQTT.Topic)
	assert.Equal(t, "/srv/templates", cfg.Document.TemplateRoot)
	assert.False(t, cfg.Document.ExposeErrors)
	assert.Equal(t, "http://hooks.local/doc", cfg.Notify.WebhookURL)
	assert.Equal(t, 750*time.Millisecond, cfg.Notify.Timeout)
	assert.Equal(t, 3*time.Second, cfg.SaveLock.Wait)
}
