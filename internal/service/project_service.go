package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"firefly/internal/domain"
	"firefly/internal/placeholder"
	"firefly/internal/repository"
	"firefly/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrSaveInProgress  = errors.New("project save already in progress")
)

// ProjectService 项目向导后端：保存草稿、查询、状态
type ProjectService struct {
	repo     repository.ProjectsRepository
	locker   store.Locker
	lockTTL  time.Duration
	lockWait time.Duration
	logger   *zap.Logger
}

// NewProjectService 创建项目服务
func NewProjectService(repo repository.ProjectsRepository, locker store.Locker, lockTTL, lockWait time.Duration, logger *zap.Logger) *ProjectService {
	if locker == nil {
		locker = store.NewMemoryLocker()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{
		repo:     repo,
		locker:   locker,
		lockTTL:  lockTTL,
		lockWait: lockWait,
		logger:   logger,
	}
}

func mapRepoErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrProjectNotFound, err)
	}
	return err
}

// ============================================
// SaveDraft
// ============================================

// SaveDraft 保存向导当前步骤
// - 首次保存（无 ID）分配 UUID；子实体无 ID 时同样分配
// - 标量字段整体覆盖；nil 集合不改动，非 nil 集合按 ID 同步
// - 同一项目的保存由保存锁串行化
// 返回保存后的完整聚合（含所有生成的 ID）
func (s *ProjectService) SaveDraft(ctx context.Context, tenantID string, p *domain.Project) (*domain.Project, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant_id is required", domain.ErrInvalid)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: project is required", domain.ErrInvalid)
	}

	isNew := p.ID == ""
	assignIDs(p)
	if p.Status == "" {
		p.Status = domain.StatusDraft
	}
	if err := checkUUIDs(p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, "project:"+p.ID, s.lockTTL, s.lockWait)
	if err != nil {
		if errors.Is(err, store.ErrLockNotAcquired) {
			return nil, fmt.Errorf("%w: %v", ErrSaveInProgress, err)
		}
		return nil, fmt.Errorf("acquire save lock: %w", err)
	}
	defer release()

	if err := s.repo.SaveProject(ctx, tenantID, p); err != nil {
		return nil, mapRepoErr(err)
	}

	saved, err := s.repo.GetProject(ctx, tenantID, p.ID)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	s.logger.Info("Project draft saved",
		zap.String("tenant_id", tenantID),
		zap.String("project_id", saved.ID),
		zap.Bool("created", isNew),
		zap.Int("buildings", len(saved.Buildings)),
	)
	return saved, nil
}

func visit[T any](xs []*T, kind string, idOf func(*T) *string, fn func(kind string, id *string) error) error {
	for _, x := range xs {
		if x == nil {
			continue
		}
		if err := fn(kind, idOf(x)); err != nil {
			return err
		}
	}
	return nil
}

// eachID 遍历聚合内所有实体的 ID；nil 元素跳过，留给 Validate 报错
func eachID(p *domain.Project, fn func(kind string, id *string) error) error {
	if err := fn("project", &p.ID); err != nil {
		return err
	}
	for _, b := range p.Buildings {
		if b == nil {
			continue
		}
		if err := fn("building", &b.ID); err != nil {
			return err
		}
		for _, a := range b.Areas {
			if a == nil {
				continue
			}
			if err := fn("area", &a.ID); err != nil {
				return err
			}
			if err := visit(a.Rooms, "room", func(x *domain.Room) *string { return &x.ID }, fn); err != nil {
				return err
			}
			if err := visit(a.Commodities, "commodity", func(x *domain.Commodity) *string { return &x.ID }, fn); err != nil {
				return err
			}
		}
	}

	if err := visit(p.SpecialRisks, "special risk", func(x *domain.SpecialRisk) *string { return &x.ID }, fn); err != nil {
		return err
	}
	if err := visit(p.EscapeRoutes, "escape route", func(x *domain.EscapeRoute) *string { return &x.ID }, fn); err != nil {
		return err
	}
	if err := visit(p.Staircases, "staircase", func(x *domain.Staircase) *string { return &x.ID }, fn); err != nil {
		return err
	}
	if err := visit(p.Signage, "sign", func(x *domain.Sign) *string { return &x.ID }, fn); err != nil {
		return err
	}
	if err := visit(p.LightingZones, "lighting zone", func(x *domain.LightingZone) *string { return &x.ID }, fn); err != nil {
		return err
	}
	if err := visit(p.HoseReels, "hose reel", func(x *domain.HoseReel) *string { return &x.ID }, fn); err != nil {
		return err
	}
	if err := visit(p.Extinguishers, "extinguisher", func(x *domain.Extinguisher) *string { return &x.ID }, fn); err != nil {
		return err
	}
	if err := visit(p.Hydrants, "hydrant", func(x *domain.Hydrant) *string { return &x.ID }, fn); err != nil {
		return err
	}
	return visit(p.Firewater, "firewater supply", func(x *domain.FirewaterSupply) *string { return &x.ID }, fn)
}

// assignIDs 为缺少 ID 的实体分配 UUID
func assignIDs(p *domain.Project) {
	_ = eachID(p, func(_ string, id *string) error {
		if *id == "" {
			*id = uuid.NewString()
		}
		return nil
	})
}

// checkUUIDs 提交的 ID 必须是合法 UUID（表主键为 uuid 类型）
func checkUUIDs(p *domain.Project) error {
	return eachID(p, func(kind string, id *string) error {
		if _, err := uuid.Parse(*id); err != nil {
			return fmt.Errorf("%w: %s id %q is not a valid UUID", domain.ErrInvalid, kind, *id)
		}
		return nil
	})
}

// ============================================
// 查询 / 状态
// ============================================

// GetProject 完整聚合
func (s *ProjectService) GetProject(ctx context.Context, tenantID, projectID string) (*domain.Project, error) {
	if tenantID == "" || projectID == "" {
		return nil, fmt.Errorf("%w: tenant_id and project id are required", domain.ErrInvalid)
	}
	p, err := s.repo.GetProject(ctx, tenantID, projectID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return p, nil
}

// ProjectList 项目列表响应
type ProjectList struct {
	Items []*domain.Project `json:"items"`
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Size  int               `json:"size"`
}

// ListProjects 项目表头列表，按 updated_at 倒序
func (s *ProjectService) ListProjects(ctx context.Context, tenantID string, filters domain.ProjectFilters, page, size int) (*ProjectList, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant_id is required", domain.ErrInvalid)
	}
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalid, filters.Status)
	}
	items, total, err := s.repo.ListProjects(ctx, tenantID, filters, page, size)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	return &ProjectList{Items: items, Total: total, Page: page, Size: size}, nil
}

// SetStatus 更新项目状态
func (s *ProjectService) SetStatus(ctx context.Context, tenantID, projectID string, status domain.ProjectStatus) error {
	if tenantID == "" || projectID == "" {
		return fmt.Errorf("%w: tenant_id and project id are required", domain.ErrInvalid)
	}
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalid, status)
	}
	if err := s.repo.UpdateStatus(ctx, tenantID, projectID, status); err != nil {
		return mapRepoErr(err)
	}
	s.logger.Info("Project status updated",
		zap.String("tenant_id", tenantID),
		zap.String("project_id", projectID),
		zap.String("status", string(status)),
	)
	return nil
}

// ListPlaceholders 项目的占位符列表（供编辑器展示与修改）
func (s *ProjectService) ListPlaceholders(ctx context.Context, tenantID, projectID string) ([]domain.Placeholder, error) {
	p, err := s.GetProject(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	return placeholder.Extract(p, s.logger), nil
}
