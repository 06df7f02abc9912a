package repository

import (
	"context"
	"errors"

	"firefly/internal/domain"
)

// ErrNotFound 记录不存在（或不属于当前租户）
var ErrNotFound = errors.New("not found")

// ProjectsRepository 项目聚合 Repository 接口
// 使用强类型领域模型；读出的数据在返回前做 Validate
type ProjectsRepository interface {
	// SaveProject 在一个事务内保存整个聚合：按 ID upsert，删除未提交的子记录
	// 调用方必须已为聚合内所有实体分配 ID
	SaveProject(ctx context.Context, tenantID string, p *domain.Project) error
	GetProject(ctx context.Context, tenantID, projectID string) (*domain.Project, error)
	// ListProjects 仅返回项目表头（不含子集合），按 updated_at 倒序
	ListProjects(ctx context.Context, tenantID string, filters domain.ProjectFilters, page, size int) ([]*domain.Project, int, error)
	UpdateStatus(ctx context.Context, tenantID, projectID string, status domain.ProjectStatus) error
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	if size > 200 {
		size = 200
	}
	return page, size
}
