package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"firefly/internal/domain"
)

// MemoryProjectsRepo: 用于 DB 未就绪时的本地联调
// - 按 tenant_id 隔离
// - 与 Postgres 实现相同的集合语义：nil 不改动，非 nil 按 ID 同步
// - 存取均做深拷贝，调用方修改返回值不影响存储
type MemoryProjectsRepo struct {
	mu       sync.RWMutex
	projects map[string]map[string]*domain.Project // tenantID -> projectID -> project
	owner    map[string]string                     // projectID -> tenantID
	now      func() time.Time
}

func NewMemoryProjectsRepo() *MemoryProjectsRepo {
	return &MemoryProjectsRepo{
		projects: map[string]map[string]*domain.Project{},
		owner:    map[string]string{},
		now:      time.Now,
	}
}

func (r *MemoryProjectsRepo) SaveProject(_ context.Context, tenantID string, p *domain.Project) error {
	if tenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if err := requireIDs(p); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, ok := r.owner[p.ID]; ok && owner != tenantID {
		return fmt.Errorf("project %s: %w", p.ID, ErrNotFound)
	}
	if r.projects[tenantID] == nil {
		r.projects[tenantID] = map[string]*domain.Project{}
	}

	now := r.now().UTC()
	old := r.projects[tenantID][p.ID]
	merged := mergeProject(old, p)
	merged.TenantID = tenantID
	merged.UpdatedAt = now
	if old == nil {
		merged.CreatedAt = now
	} else {
		merged.CreatedAt = old.CreatedAt
	}

	r.projects[tenantID][p.ID] = merged
	r.owner[p.ID] = tenantID

	p.TenantID = tenantID
	p.CreatedAt = merged.CreatedAt
	p.UpdatedAt = merged.UpdatedAt
	return nil
}

func (r *MemoryProjectsRepo) GetProject(_ context.Context, tenantID, projectID string) (*domain.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.projects[tenantID][projectID]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	return cloneProject(p, true), nil
}

func (r *MemoryProjectsRepo) ListProjects(_ context.Context, tenantID string, filters domain.ProjectFilters, page, size int) ([]*domain.Project, int, error) {
	page, size = normalizePage(page, size)

	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(filters.Search)
	all := []*domain.Project{}
	for _, p := range r.projects[tenantID] {
		if filters.Status != "" && p.Status != filters.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.CompanyName), search) &&
			!strings.Contains(strings.ToLower(p.Town), search) {
			continue
		}
		all = append(all, cloneProject(p, false))
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].UpdatedAt.Equal(all[j].UpdatedAt) {
			return all[i].UpdatedAt.After(all[j].UpdatedAt)
		}
		return all[i].ID < all[j].ID
	})

	total := len(all)
	start := (page - 1) * size
	if start >= total {
		return []*domain.Project{}, total, nil
	}
	end := start + size
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (r *MemoryProjectsRepo) UpdateStatus(_ context.Context, tenantID, projectID string, status domain.ProjectStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalid, status)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[tenantID][projectID]
	if !ok {
		return fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	p.Status = status
	p.UpdatedAt = r.now().UTC()
	return nil
}

// ---- merge / clone ----

// mergeProject 以 in 为准合并；in 中为 nil 的集合沿用 old 中同一父级的集合
func mergeProject(old, in *domain.Project) *domain.Project {
	out := cloneProject(in, true)
	if old == nil {
		return out
	}

	if in.Buildings == nil {
		out.Buildings = cloneProject(old, true).Buildings
	} else {
		oldAreas := map[string][]*domain.Area{}
		oldRooms := map[string][]*domain.Room{}
		oldCommodities := map[string][]*domain.Commodity{}
		for _, b := range cloneProject(old, true).Buildings {
			oldAreas[b.ID] = b.Areas
			for _, a := range b.Areas {
				oldRooms[a.ID] = a.Rooms
				oldCommodities[a.ID] = a.Commodities
			}
		}
		for i, b := range out.Buildings {
			if in.Buildings[i].Areas == nil {
				b.Areas = oldAreas[b.ID]
				if b.Areas == nil {
					b.Areas = []*domain.Area{}
				}
				continue
			}
			for j, a := range b.Areas {
				src := in.Buildings[i].Areas[j]
				if src.Rooms == nil {
					a.Rooms = orEmpty(oldRooms[a.ID])
				}
				if src.Commodities == nil {
					a.Commodities = orEmpty(oldCommodities[a.ID])
				}
			}
		}
	}

	prev := cloneProject(old, true)
	if in.SpecialRisks == nil {
		out.SpecialRisks = prev.SpecialRisks
	}
	if in.EscapeRoutes == nil {
		out.EscapeRoutes = prev.EscapeRoutes
	}
	if in.Staircases == nil {
		out.Staircases = prev.Staircases
	}
	if in.Signage == nil {
		out.Signage = prev.Signage
	}
	if in.LightingZones == nil {
		out.LightingZones = prev.LightingZones
	}
	if in.HoseReels == nil {
		out.HoseReels = prev.HoseReels
	}
	if in.Extinguishers == nil {
		out.Extinguishers = prev.Extinguishers
	}
	if in.Hydrants == nil {
		out.Hydrants = prev.Hydrants
	}
	if in.Firewater == nil {
		out.Firewater = prev.Firewater
	}
	return out
}

func orEmpty[T any](s []*T) []*T {
	if s == nil {
		return []*T{}
	}
	return s
}

func cloneSlice[T any](in []*T) []*T {
	out := make([]*T, 0, len(in))
	for _, x := range in {
		c := *x
		out = append(out, &c)
	}
	return out
}

// cloneProject 深拷贝；withChildren=false 时只拷贝表头
// 拷贝结果的集合均为非 nil
func cloneProject(p *domain.Project, withChildren bool) *domain.Project {
	c := *p
	c.Buildings, c.SpecialRisks, c.EscapeRoutes, c.Staircases, c.Signage = nil, nil, nil, nil, nil
	c.LightingZones, c.HoseReels, c.Extinguishers, c.Hydrants, c.Firewater = nil, nil, nil, nil, nil
	if !withChildren {
		return &c
	}

	c.Buildings = make([]*domain.Building, 0, len(p.Buildings))
	for _, b := range p.Buildings {
		nb := *b
		nb.Areas = make([]*domain.Area, 0, len(b.Areas))
		for _, a := range b.Areas {
			na := *a
			na.Rooms = cloneSlice(a.Rooms)
			na.Commodities = cloneSlice(a.Commodities)
			nb.Areas = append(nb.Areas, &na)
		}
		c.Buildings = append(c.Buildings, &nb)
	}
	c.SpecialRisks = cloneSlice(p.SpecialRisks)
	c.EscapeRoutes = cloneSlice(p.EscapeRoutes)
	c.Staircases = cloneSlice(p.Staircases)
	c.Signage = cloneSlice(p.Signage)
	c.LightingZones = cloneSlice(p.LightingZones)
	c.HoseReels = cloneSlice(p.HoseReels)
	c.Extinguishers = cloneSlice(p.Extinguishers)
	c.Hydrants = cloneSlice(p.Hydrants)
	c.Firewater = cloneSlice(p.Firewater)
	return &c
}
