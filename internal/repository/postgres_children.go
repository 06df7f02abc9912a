package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"firefly/internal/domain"

	"github.com/lib/pq"
)

// childTable 子集合表描述
// 所有子表都带 project_id，用于整项目加载和跨项目 ID 保护
type childTable struct {
	name     string
	parent   string // 作用域列：project_id / building_id / area_id
	columns  []string
	children []*childTable
}

type childRow struct {
	id     string
	values []any
}

var (
	roomsTable = &childTable{
		name:    "rooms",
		parent:  "area_id",
		columns: []string{"name", "description", "photo_ref"},
	}
	commoditiesTable = &childTable{
		name:    "expected_commodities",
		parent:  "area_id",
		columns: []string{"name", "category_code", "stacking_height", "storage_type"},
	}
	areasTable = &childTable{
		name:     "areas",
		parent:   "building_id",
		columns:  []string{"name"},
		children: []*childTable{roomsTable, commoditiesTable},
	}
	buildingsTable = &childTable{
		name:   "buildings",
		parent: "project_id",
		columns: []string{"name", "classification_code", "floor_area", "description",
			"external_wall_material", "internal_wall_material", "photo_ref", "layout_ref"},
		children: []*childTable{areasTable},
	}
)

// flatCollection 直接挂在项目下的子集合
type flatCollection struct {
	table *childTable
	// rows 返回待同步的行；集合为 nil 时 ok=false，表示不改动
	rows func(p *domain.Project) (rows []childRow, ok bool)
	load func(rows *sql.Rows, p *domain.Project) error
}

var flatCollections = []flatCollection{
	{
		table: &childTable{name: "special_risks", parent: "project_id",
			columns: []string{"risk_type", "location", "details", "description", "photo_ref"}},
		rows: func(p *domain.Project) ([]childRow, bool) {
			if p.SpecialRisks == nil {
				return nil, false
			}
			out := make([]childRow, 0, len(p.SpecialRisks))
			for _, x := range p.SpecialRisks {
				out = append(out, childRow{x.ID, []any{string(x.RiskType), x.Location, x.Details, x.Description, x.PhotoRef}})
			}
			return out, true
		},
		load: func(rows *sql.Rows, p *domain.Project) error {
			var x domain.SpecialRisk
			var riskType string
			if err := rows.Scan(&x.ID, &riskType, &x.Location, &x.Details, &x.Description, &x.PhotoRef); err != nil {
				return err
			}
			x.RiskType = domain.RiskType(riskType)
			p.SpecialRisks = append(p.SpecialRisks, &x)
			return nil
		},
	},
	{
		table: &childTable{name: "escape_routes", parent: "project_id",
			columns: []string{"name", "travel_distance", "width", "emergency_lighting"}},
		rows: func(p *domain.Project) ([]childRow, bool) {
			if p.EscapeRoutes == nil {
				return nil, false
			}
			out := make([]childRow, 0, len(p.EscapeRoutes))
			for _, x := range p.EscapeRoutes {
				out = append(out, childRow{x.ID, []any{x.Name, x.TravelDistance, x.Width, x.EmergencyLighting}})
			}
			return out, true
		},
		load: func(rows *sql.Rows, p *domain.Project) error {
			var x domain.EscapeRoute
			if err := rows.Scan(&x.ID, &x.Name, &x.TravelDistance, &x.Width, &x.EmergencyLighting); err != nil {
				return err
			}
			p.EscapeRoutes = append(p.EscapeRoutes, &x)
			return nil
		},
	},
	{
		table: &childTable{name: "staircases", parent: "project_id",
			columns: []string{"name", "width", "fire_rated", "pressurised"}},
		rows: func(p *domain.Project) ([]childRow, bool) {
			if p.Staircases == nil {
				return nil, false
			}
			out := make([]childRow, 0, len(p.Staircases))
			for _, x := range p.Staircases {
				out = append(out, childRow{x.ID, []any{x.Name, x.Width, x.FireRated, x.Pressurised}})
			}
			return out, true
		},
		load: func(rows *sql.Rows, p *domain.Project) error {
			var x domain.Staircase
			if err := rows.Scan(&x.ID, &x.Name, &x.Width, &x.FireRated, &x.Pressurised); err != nil {
				return err
			}
			p.Staircases = append(p.Staircases, &x)
			return nil
		},
	},
	{
		table: &childTable{name: "signage", parent: "project_id",
			columns: []string{"location", "sign_type", "photoluminescent"}},
		rows: func(p *domain.Project) ([]childRow, bool) {
			if p.Signage == nil {
				return nil, false
			}
			out := make([]childRow, 0, len(p.Signage))
			for _, x := range p.Signage {
				out = append(out, childRow{x.ID, []any{x.Location, x.SignType, x.Photoluminescent}})
			}
			return out, true
		},
		load: func(rows *sql.Rows, p *domain.Project) error {
			var x domain.Sign
			if err := rows.Scan(&x.ID, &x.Location, &x.SignType, &x.Photoluminescent); err != nil {
				return err
			}
			p.Signage = append(p.Signage, &x)
			return nil
		},
	},
	{
		table: &childTable{name: "lighting_zones", parent: "project_id",
			columns: []string{"name", "duration_minutes", "compliant"}},
		rows: func(p *domain.Project) ([]childRow, bool) {
			if p.LightingZones == nil {
				return nil, false
			}
			out := make([]childRow, 0, len(p.LightingZones))
			for _, x := range p.LightingZones {
				out = append(out, childRow{x.ID, []any{x.Name, x.DurationMinutes, x.Compliant}})
			}
			return out, true
		},
		load: func(rows *sql.Rows, p *domain.Project) error {
			var x domain.LightingZone
			if err := rows.Scan(&x.ID, &x.Name, &x.DurationMinutes, &x.Compliant); err != nil {
				return err
			}
			p.LightingZones = append(p.LightingZones, &x)
			return nil
		},
	},
	{
		table: &childTable{name: "hose_reels", parent: "project_id",
			columns: []string{"location", "hose_length", "coverage_adequate"}},
		rows: func(p *domain.Project) ([]childRow, bool) {
			if p.HoseReels == nil {
				return nil, false
			}
			out := make([]childRow, 0, len(p.HoseReels))
			for _, x := range p.HoseReels {
				out = append(out, childRow{x.ID, []any{x.Location, x.HoseLength, x.CoverageAdequate}})
			}
			return out, true
		},
		load: func(rows *sql.Rows, p *domain.Project) error {
			var x domain.HoseReel
			if err := rows.Scan(&x.ID, &x.Location, &x.HoseLength, &x.CoverageAdequate); err != nil {
				return err
			}
			p.HoseReels = append(p.HoseReels, &x)
			return nil
		},
	},
	{
		table: &childTable{name: "extinguishers", parent: "project_id",
			columns: []string{"location", "extinguisher_type", "rating", "service_date"}},
		rows: func(p *domain.Project) ([]childRow, bool) {
			if p.Extinguishers == nil {
				return nil, false
			}
			out := make([]childRow, 0, len(p.Extinguishers))
			for _, x := range p.Extinguishers {
				out = append(out, childRow{x.ID, []any{x.Location, x.ExtinguisherType, x.Rating, x.ServiceDate}})
			}
			return out, true
		},
		load: func(rows *sql.Rows, p *domain.Project) error {
			var x domain.Extinguisher
			if err := rows.Scan(&x.ID, &x.Location, &x.ExtinguisherType, &x.Rating, &x.ServiceDate); err != nil {
				return err
			}
			p.Extinguishers = append(p.Extinguishers, &x)
			return nil
		},
	},
	{
		table: &childTable{name: "hydrants", parent: "project_id",
			columns: []string{"location", "hydrant_type", "flow_rate", "pressure"}},
		rows: func(p *domain.Project) ([]childRow, bool) {
			if p.Hydrants == nil {
				return nil, false
			}
			out := make([]childRow, 0, len(p.Hydrants))
			for _, x := range p.Hydrants {
				out = append(out, childRow{x.ID, []any{x.Location, x.HydrantType, x.FlowRate, x.Pressure}})
			}
			return out, true
		},
		load: func(rows *sql.Rows, p *domain.Project) error {
			var x domain.Hydrant
			if err := rows.Scan(&x.ID, &x.Location, &x.HydrantType, &x.FlowRate, &x.Pressure); err != nil {
				return err
			}
			p.Hydrants = append(p.Hydrants, &x)
			return nil
		},
	},
	{
		table: &childTable{name: "firewater_supplies", parent: "project_id",
			columns: []string{"source", "capacity", "duration_minutes"}},
		rows: func(p *domain.Project) ([]childRow, bool) {
			if p.Firewater == nil {
				return nil, false
			}
			out := make([]childRow, 0, len(p.Firewater))
			for _, x := range p.Firewater {
				out = append(out, childRow{x.ID, []any{x.Source, x.Capacity, x.DurationMinutes}})
			}
			return out, true
		},
		load: func(rows *sql.Rows, p *domain.Project) error {
			var x domain.FirewaterSupply
			if err := rows.Scan(&x.ID, &x.Source, &x.Capacity, &x.DurationMinutes); err != nil {
				return err
			}
			p.Firewater = append(p.Firewater, &x)
			return nil
		},
	},
}

// ============================================
// SQL 构造
// ============================================

func (t *childTable) scoped() bool { return t.parent != "project_id" }

func (t *childTable) upsertSQL() string {
	cols := []string{"id", "project_id"}
	if t.scoped() {
		cols = append(cols, t.parent)
	}
	cols = append(cols, "position")
	cols = append(cols, t.columns...)

	params := make([]string, len(cols))
	for i := range cols {
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	sets := make([]string, 0, len(cols)-2)
	for _, c := range cols[2:] {
		sets = append(sets, c+" = EXCLUDED."+c)
	}
	return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)
		ON CONFLICT (id) DO UPDATE SET %s
		WHERE %s.project_id = EXCLUDED.project_id`,
		t.name, strings.Join(cols, ", "), strings.Join(params, ", "),
		strings.Join(sets, ", "), t.name)
}

// selectSQL 按项目加载整张子表，scoped 表额外返回父 ID
func (t *childTable) selectSQL() string {
	cols := []string{"id::text"}
	if t.scoped() {
		cols = append(cols, t.parent+"::text")
	}
	cols = append(cols, t.columns...)
	return fmt.Sprintf("SELECT %s FROM %s WHERE project_id = $1 ORDER BY position, id",
		strings.Join(cols, ", "), t.name)
}

// ============================================
// 同步（upsert + 删除未提交的记录）
// ============================================

func upsertChild(ctx context.Context, tx *sql.Tx, t *childTable, projectID, parentID string, position int, r childRow) error {
	args := []any{r.id, projectID}
	if t.scoped() {
		args = append(args, parentID)
	}
	args = append(args, position)
	args = append(args, r.values...)

	res, err := tx.ExecContext(ctx, t.upsertSQL(), args...)
	if err != nil {
		return fmt.Errorf("upsert %s %s: %w", t.name, r.id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s id %s belongs to another project", domain.ErrInvalid, t.name, r.id)
	}
	return nil
}

func syncChildren(ctx context.Context, tx *sql.Tx, t *childTable, projectID, parentID string, rows []childRow) error {
	keep := make([]string, 0, len(rows))
	for i, r := range rows {
		if err := upsertChild(ctx, tx, t, projectID, parentID, i, r); err != nil {
			return err
		}
		keep = append(keep, r.id)
	}
	return deleteStale(ctx, tx, t, parentID, keep)
}

// deleteStale 删除作用域内未提交的记录：先删依赖表（rooms/commodities → areas → buildings）
func deleteStale(ctx context.Context, tx *sql.Tx, t *childTable, scopeID string, keep []string) error {
	where := fmt.Sprintf("%s = $1 AND NOT (id = ANY($2::uuid[]))", t.parent)
	args := []any{scopeID, pq.Array(keep)}

	if err := deleteDependents(ctx, tx, t, fmt.Sprintf("SELECT id FROM %s WHERE %s", t.name, where), args); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s", t.name, where), args...); err != nil {
		return fmt.Errorf("delete stale %s: %w", t.name, err)
	}
	return nil
}

func deleteDependents(ctx context.Context, tx *sql.Tx, t *childTable, parentSel string, args []any) error {
	for _, c := range t.children {
		sel := fmt.Sprintf("SELECT id FROM %s WHERE %s IN (%s)", c.name, c.parent, parentSel)
		if err := deleteDependents(ctx, tx, c, sel, args); err != nil {
			return err
		}
		q := fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s)", c.name, c.parent, parentSel)
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("delete %s: %w", c.name, err)
		}
	}
	return nil
}

// syncBuildings 建筑 → 区域 → 房间/物品，逐层按父级同步
func syncBuildings(ctx context.Context, tx *sql.Tx, p *domain.Project) error {
	rows := make([]childRow, 0, len(p.Buildings))
	for _, b := range p.Buildings {
		rows = append(rows, childRow{b.ID, []any{b.Name, b.ClassificationCode, b.FloorArea, b.Description,
			b.ExternalWallMaterial, b.InternalWallMaterial, b.PhotoRef, b.LayoutRef}})
	}
	for i, r := range rows {
		if err := upsertChild(ctx, tx, buildingsTable, p.ID, p.ID, i, r); err != nil {
			return err
		}
	}

	for _, b := range p.Buildings {
		if b.Areas == nil {
			continue
		}
		areaRows := make([]childRow, 0, len(b.Areas))
		for _, a := range b.Areas {
			areaRows = append(areaRows, childRow{a.ID, []any{a.Name}})
		}
		for i, r := range areaRows {
			if err := upsertChild(ctx, tx, areasTable, p.ID, b.ID, i, r); err != nil {
				return err
			}
		}
		for _, a := range b.Areas {
			if a.Rooms != nil {
				roomRows := make([]childRow, 0, len(a.Rooms))
				for _, rm := range a.Rooms {
					roomRows = append(roomRows, childRow{rm.ID, []any{rm.Name, rm.Description, rm.PhotoRef}})
				}
				if err := syncChildren(ctx, tx, roomsTable, p.ID, a.ID, roomRows); err != nil {
					return err
				}
			}
			if a.Commodities != nil {
				comRows := make([]childRow, 0, len(a.Commodities))
				for _, c := range a.Commodities {
					comRows = append(comRows, childRow{c.ID, []any{c.Name, c.CategoryCode, c.StackingHeight, c.StorageType}})
				}
				if err := syncChildren(ctx, tx, commoditiesTable, p.ID, a.ID, comRows); err != nil {
					return err
				}
			}
		}
		if err := deleteStale(ctx, tx, areasTable, b.ID, ids(areaRows)); err != nil {
			return err
		}
	}

	return deleteStale(ctx, tx, buildingsTable, p.ID, ids(rows))
}

func ids(rows []childRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.id)
	}
	return out
}

// ============================================
// 加载
// ============================================

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func eachRow(ctx context.Context, q queryer, query, projectID string, fn func(rows *sql.Rows) error) error {
	rows, err := q.QueryContext(ctx, query, projectID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// loadBuildings 加载建筑树；父 ID 缺失的行视为损坏数据
func loadBuildings(ctx context.Context, q queryer, p *domain.Project) error {
	p.Buildings = []*domain.Building{}
	byBuilding := map[string]*domain.Building{}
	err := eachRow(ctx, q, buildingsTable.selectSQL(), p.ID, func(rows *sql.Rows) error {
		b := &domain.Building{Areas: []*domain.Area{}}
		if err := rows.Scan(&b.ID, &b.Name, &b.ClassificationCode, &b.FloorArea, &b.Description,
			&b.ExternalWallMaterial, &b.InternalWallMaterial, &b.PhotoRef, &b.LayoutRef); err != nil {
			return err
		}
		p.Buildings = append(p.Buildings, b)
		byBuilding[b.ID] = b
		return nil
	})
	if err != nil {
		return fmt.Errorf("load buildings: %w", err)
	}

	byArea := map[string]*domain.Area{}
	err = eachRow(ctx, q, areasTable.selectSQL(), p.ID, func(rows *sql.Rows) error {
		a := &domain.Area{Rooms: []*domain.Room{}, Commodities: []*domain.Commodity{}}
		var buildingID string
		if err := rows.Scan(&a.ID, &buildingID, &a.Name); err != nil {
			return err
		}
		b, ok := byBuilding[buildingID]
		if !ok {
			return fmt.Errorf("%w: area %s references unknown building %s", domain.ErrInvalid, a.ID, buildingID)
		}
		b.Areas = append(b.Areas, a)
		byArea[a.ID] = a
		return nil
	})
	if err != nil {
		return fmt.Errorf("load areas: %w", err)
	}

	err = eachRow(ctx, q, roomsTable.selectSQL(), p.ID, func(rows *sql.Rows) error {
		var r domain.Room
		var areaID string
		if err := rows.Scan(&r.ID, &areaID, &r.Name, &r.Description, &r.PhotoRef); err != nil {
			return err
		}
		a, ok := byArea[areaID]
		if !ok {
			return fmt.Errorf("%w: room %s references unknown area %s", domain.ErrInvalid, r.ID, areaID)
		}
		a.Rooms = append(a.Rooms, &r)
		return nil
	})
	if err != nil {
		return fmt.Errorf("load rooms: %w", err)
	}

	err = eachRow(ctx, q, commoditiesTable.selectSQL(), p.ID, func(rows *sql.Rows) error {
		var c domain.Commodity
		var areaID string
		if err := rows.Scan(&c.ID, &areaID, &c.Name, &c.CategoryCode, &c.StackingHeight, &c.StorageType); err != nil {
			return err
		}
		a, ok := byArea[areaID]
		if !ok {
			return fmt.Errorf("%w: commodity %s references unknown area %s", domain.ErrInvalid, c.ID, areaID)
		}
		a.Commodities = append(a.Commodities, &c)
		return nil
	})
	if err != nil {
		return fmt.Errorf("load commodities: %w", err)
	}
	return nil
}

func loadFlatCollections(ctx context.Context, q queryer, p *domain.Project) error {
	p.SpecialRisks = []*domain.SpecialRisk{}
	p.EscapeRoutes = []*domain.EscapeRoute{}
	p.Staircases = []*domain.Staircase{}
	p.Signage = []*domain.Sign{}
	p.LightingZones = []*domain.LightingZone{}
	p.HoseReels = []*domain.HoseReel{}
	p.Extinguishers = []*domain.Extinguisher{}
	p.Hydrants = []*domain.Hydrant{}
	p.Firewater = []*domain.FirewaterSupply{}

	for _, fc := range flatCollections {
		fc := fc
		err := eachRow(ctx, q, fc.table.selectSQL(), p.ID, func(rows *sql.Rows) error {
			return fc.load(rows, p)
		})
		if err != nil {
			return fmt.Errorf("load %s: %w", fc.table.name, err)
		}
	}
	return nil
}
