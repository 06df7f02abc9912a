package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"firefly/internal/notify"
	"firefly/internal/stamper"

	"go.uber.org/zap"
)

var (
	ErrTemplateNotFound    = errors.New("template file not found")
	ErrTemplateEmpty       = errors.New("template file is empty")
	ErrInvalidTemplatePath = errors.New("invalid template path")
)

// TemplateStore 只读模板目录；templatePath 必须是根目录下的相对路径
type TemplateStore struct {
	root string
}

func NewTemplateStore(root string) *TemplateStore {
	return &TemplateStore{root: root}
}

func (t *TemplateStore) Root() string { return t.root }

// Load 读取模板字节
func (t *TemplateStore) Load(templatePath string) ([]byte, error) {
	rel := filepath.FromSlash(templatePath)
	if !filepath.IsLocal(rel) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTemplatePath, templatePath)
	}
	full := filepath.Join(t.root, rel)

	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, templatePath)
		}
		return nil, fmt.Errorf("stat template %s: %w", templatePath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrTemplateNotFound, templatePath)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", templatePath, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTemplateEmpty, templatePath)
	}
	return data, nil
}

// GenerateRequest 文档生成请求
type GenerateRequest struct {
	TenantID     string
	ProjectID    string
	Placeholders map[string]string
	TemplatePath string
}

// Document 生成结果
type Document struct {
	Filename string
	PDF      []byte
	Result   *stamper.Result
}

// DocumentService 读取模板、盖章、发送事件；不缓存不持久化
type DocumentService struct {
	templates  *TemplateStore
	stamper    *stamper.Stamper
	dispatcher *notify.Dispatcher
	logger     *zap.Logger
}

func NewDocumentService(templates *TemplateStore, st *stamper.Stamper, dispatcher *notify.Dispatcher, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		templates:  templates,
		stamper:    st,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Generate 生成报告 PDF
// 错误：ErrInvalidTemplatePath / ErrTemplateNotFound / ErrTemplateEmpty / stamper.ErrTemplateLoad / 其它
func (s *DocumentService) Generate(ctx context.Context, req GenerateRequest) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tpl, err := s.templates.Load(req.TemplatePath)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := s.stamper.Stamp(tpl, req.Placeholders)
	if err != nil {
		return nil, fmt.Errorf("stamp %s: %w", req.TemplatePath, err)
	}

	s.logger.Info("Document generated",
		zap.String("tenant_id", req.TenantID),
		zap.String("project_id", req.ProjectID),
		zap.String("template", req.TemplatePath),
		zap.Int("pages", res.PageCount),
		zap.Int("placed", res.Placed()),
		zap.Int("skipped", res.Skipped()),
		zap.Int("bytes", len(res.PDF)),
		zap.Duration("elapsed", time.Since(start)),
	)

	s.dispatcher.Dispatch(notify.Event{
		Type:         notify.EventDocumentGenerated,
		TenantID:     req.TenantID,
		ProjectID:    req.ProjectID,
		TemplatePath: req.TemplatePath,
		PageCount:    res.PageCount,
		Placed:       res.Placed(),
		Skipped:      res.Skipped(),
		SizeBytes:    len(res.PDF),
	})

	return &Document{
		Filename: ReportFilename(req.ProjectID),
		PDF:      res.PDF,
		Result:   res,
	}, nil
}

// ReportFilename <projectId>-report.pdf
func ReportFilename(projectID string) string {
	return SafeName(projectID) + "-report.pdf"
}

// SafeName 文件名片段；非 [A-Za-z0-9._-] 字符替换为 '_'
func SafeName(s string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, s)
	clean = strings.Trim(clean, ".")
	if clean == "" {
		clean = "document"
	}
	return clean
}
