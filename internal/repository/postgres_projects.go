package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"firefly/internal/domain"
)

type PostgresProjectsRepository struct {
	db *sql.DB
}

func NewPostgresProjectsRepository(db *sql.DB) *PostgresProjectsRepository {
	return &PostgresProjectsRepository{db: db}
}

const projectColumns = `
	id::text,
	tenant_id,
	report_type,
	company_name,
	facility_process,
	construction_year,
	status,
	town,
	province,
	street_address,
	engineer_name,
	COALESCE(to_char(assessment_date, 'YYYY-MM-DD'), ''),
	created_at,
	updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(s rowScanner) (*domain.Project, error) {
	var p domain.Project
	var status string
	if err := s.Scan(
		&p.ID,
		&p.TenantID,
		&p.ReportType,
		&p.CompanyName,
		&p.FacilityProcess,
		&p.ConstructionYear,
		&status,
		&p.Town,
		&p.Province,
		&p.StreetAddress,
		&p.EngineerName,
		&p.AssessmentDate,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Status = domain.ProjectStatus(status)
	return &p, nil
}

// ============================================
// SaveProject
// ============================================

// SaveProject 单事务保存聚合；任何一步失败整体回滚
func (r *PostgresProjectsRepository) SaveProject(ctx context.Context, tenantID string, p *domain.Project) error {
	if tenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if err := requireIDs(p); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// 同一 ID 属于其它租户时 WHERE 不成立，不返回行
	err = tx.QueryRowContext(ctx, `
		INSERT INTO projects (
			id, tenant_id, report_type, company_name, facility_process, construction_year,
			status, town, province, street_address, engineer_name, assessment_date,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, '')::date, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			report_type = EXCLUDED.report_type,
			company_name = EXCLUDED.company_name,
			facility_process = EXCLUDED.facility_process,
			construction_year = EXCLUDED.construction_year,
			status = EXCLUDED.status,
			town = EXCLUDED.town,
			province = EXCLUDED.province,
			street_address = EXCLUDED.street_address,
			engineer_name = EXCLUDED.engineer_name,
			assessment_date = EXCLUDED.assessment_date,
			updated_at = NOW()
		WHERE projects.tenant_id = EXCLUDED.tenant_id
		RETURNING created_at, updated_at`,
		p.ID, tenantID, p.ReportType, p.CompanyName, p.FacilityProcess, p.ConstructionYear,
		string(p.Status), p.Town, p.Province, p.StreetAddress, p.EngineerName, p.AssessmentDate,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("project %s: %w", p.ID, ErrNotFound)
		}
		return fmt.Errorf("upsert project: %w", err)
	}
	p.TenantID = tenantID

	if p.Buildings != nil {
		if err := syncBuildings(ctx, tx, p); err != nil {
			return err
		}
	}
	for _, fc := range flatCollections {
		rows, ok := fc.rows(p)
		if !ok {
			continue
		}
		if err := syncChildren(ctx, tx, fc.table, p.ID, p.ID, rows); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// requireIDs 持久化前所有实体必须已有 ID
func requireIDs(p *domain.Project) error {
	if p == nil {
		return fmt.Errorf("%w: project is nil", domain.ErrInvalid)
	}
	missing := func(kind string) error {
		return fmt.Errorf("%w: %s without id", domain.ErrInvalid, kind)
	}
	if p.ID == "" {
		return missing("project")
	}
	for _, b := range p.Buildings {
		if b == nil || b.ID == "" {
			return missing("building")
		}
		for _, a := range b.Areas {
			if a == nil || a.ID == "" {
				return missing("area")
			}
			for _, rm := range a.Rooms {
				if rm == nil || rm.ID == "" {
					return missing("room")
				}
			}
			for _, c := range a.Commodities {
				if c == nil || c.ID == "" {
					return missing("commodity")
				}
			}
		}
	}
	for _, fc := range flatCollections {
		rows, _ := fc.rows(p)
		for _, row := range rows {
			if row.id == "" {
				return missing(fc.table.name)
			}
		}
	}
	return nil
}

// ============================================
// 查询
// ============================================

// GetProject 加载完整聚合并在存储边界校验
func (r *PostgresProjectsRepository) GetProject(ctx context.Context, tenantID, projectID string) (*domain.Project, error) {
	if tenantID == "" || projectID == "" {
		return nil, fmt.Errorf("tenant_id and project_id are required")
	}

	p, err := scanProject(r.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE tenant_id = $1 AND id::text = $2`,
		tenantID, projectID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
		}
		return nil, err
	}

	if err := loadBuildings(ctx, r.db, p); err != nil {
		return nil, err
	}
	if err := loadFlatCollections(ctx, r.db, p); err != nil {
		return nil, err
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("stored project %s is malformed: %w", p.ID, err)
	}
	return p, nil
}

// ListProjects 项目列表（仅表头）
func (r *PostgresProjectsRepository) ListProjects(ctx context.Context, tenantID string, filters domain.ProjectFilters, page, size int) ([]*domain.Project, int, error) {
	if tenantID == "" {
		return []*domain.Project{}, 0, nil
	}
	page, size = normalizePage(page, size)

	where := "tenant_id = $1"
	args := []any{tenantID}
	argIdx := 2
	if filters.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, string(filters.Status))
		argIdx++
	}
	if filters.Search != "" {
		where += fmt.Sprintf(" AND (company_name ILIKE $%d OR town ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+filters.Search+"%")
		argIdx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + projectColumns + ` FROM projects WHERE ` + where +
		fmt.Sprintf(" ORDER BY updated_at DESC, id LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []*domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		if !p.Status.Valid() {
			return nil, 0, fmt.Errorf("%w: stored project %s has unknown status %q", domain.ErrInvalid, p.ID, p.Status)
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// UpdateStatus 更新状态
func (r *PostgresProjectsRepository) UpdateStatus(ctx context.Context, tenantID, projectID string, status domain.ProjectStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalid, status)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE projects SET status = $3, updated_at = NOW() WHERE tenant_id = $1 AND id::text = $2`,
		tenantID, projectID, string(status),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	return nil
}
