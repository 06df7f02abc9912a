package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const EventDocumentGenerated = "document.generated"

// Event 文档生成事件（不含 PDF 内容与占位符值）
type Event struct {
	Type         string    `json:"type"`
	TenantID     string    `json:"tenantId,omitempty"`
	ProjectID    string    `json:"projectId"`
	TemplatePath string    `json:"templatePath"`
	PageCount    int       `json:"pageCount"`
	Placed       int       `json:"placed"`
	Skipped      int       `json:"skipped"`
	SizeBytes    int       `json:"sizeBytes"`
	OccurredAt   time.Time `json:"occurredAt"`
}

type Notifier interface {
	Name() string
	Notify(ctx context.Context, ev Event) error
}

// Multi 依次通知全部 notifier，汇总错误
type Multi []Notifier

func (m Multi) Name() string { return "multi" }

func (m Multi) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Dispatcher 在独立 goroutine 中投递事件，失败只记录日志
type Dispatcher struct {
	notifiers Multi
	timeout   time.Duration
	logger    *zap.Logger
	wg        sync.WaitGroup
}

func NewDispatcher(notifiers []Notifier, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{notifiers: Multi(notifiers), timeout: timeout, logger: logger}
}

// Enabled 是否配置了任何 notifier
func (d *Dispatcher) Enabled() bool {
	return d != nil && len(d.notifiers) > 0
}

// Dispatch 不阻塞调用方，也不跟随请求 ctx 取消
func (d *Dispatcher) Dispatch(ev Event) {
	if !d.Enabled() {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.notifiers.Notify(ctx, ev); err != nil {
			d.logger.Warn("Failed to deliver document event",
				zap.String("event", ev.Type),
				zap.String("project_id", ev.ProjectID),
				zap.Error(err),
			)
			return
		}
		d.logger.Debug("Document event delivered",
			zap.String("event", ev.Type),
			zap.String("project_id", ev.ProjectID),
		)
	}()
}

// Wait 等待已派发的事件结束（关停与测试用）
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
