// Package placeholder flattens a Project aggregate into named string values
// that the document editor shows and the stamper draws.
package placeholder

import (
	"fmt"
	"sort"
	"strconv"

	"firefly/internal/domain"

	"go.uber.org/zap"
)

// Display categories
const (
	CategoryProject      = "Project Information"
	CategoryLocation     = "Location"
	CategoryBuildings    = "Buildings"
	CategorySpecialRisks = "Special Risks"
	CategoryEscapeRoutes = "Escape Routes"
	CategoryStaircases   = "Staircases"
	CategorySignage      = "Signage"
	CategoryLighting     = "Emergency Lighting"
	CategoryHoseReels    = "Hose Reels"
	CategoryExtinguisher = "Extinguishers"
	CategoryHydrants     = "Hydrants"
	CategoryFirewater    = "Firewater"
)

// Extract 将项目聚合展开为占位符列表，按 (Category, Name) 升序排列
// 仅输出有值的字段：空字符串、数值 0、false 均视为未设置
func Extract(p *domain.Project, log *zap.Logger) []domain.Placeholder {
	if log == nil {
		log = zap.NewNop()
	}
	b := &builder{out: []domain.Placeholder{}}
	if p == nil {
		return b.out
	}

	// ========== 项目标量字段 ==========
	b.text(CategoryProject, "company_name", p.CompanyName)
	b.text(CategoryProject, "report_type", p.ReportType)
	b.text(CategoryProject, "facility_process", p.FacilityProcess)
	b.integer(CategoryProject, "construction_year", p.ConstructionYear)
	b.text(CategoryProject, "engineer_name", p.EngineerName)
	b.date(CategoryProject, "assessment_date", p.AssessmentDate)
	b.text(CategoryLocation, "town", p.Town)
	b.text(CategoryLocation, "province", p.Province)
	b.text(CategoryLocation, "street_address", p.StreetAddress)

	// ========== 建筑 → 区域 → 房间 / 物品 ==========
	for i, bl := range p.Buildings {
		if bl == nil {
			continue
		}
		pre := indexed("building", i)
		b.text(CategoryBuildings, pre+"_name", bl.Name)
		b.text(CategoryBuildings, pre+"_classification", bl.ClassificationCode)
		b.number(CategoryBuildings, pre+"_floor_area", bl.FloorArea)
		b.text(CategoryBuildings, pre+"_description", bl.Description)
		b.text(CategoryBuildings, pre+"_external_wall", bl.ExternalWallMaterial)
		b.text(CategoryBuildings, pre+"_internal_wall", bl.InternalWallMaterial)
		b.file(CategoryBuildings, pre+"_photo", bl.PhotoRef)
		b.file(CategoryBuildings, pre+"_layout", bl.LayoutRef)
		for j, a := range bl.Areas {
			if a == nil {
				continue
			}
			apre := indexed(pre+"_area", j)
			b.text(CategoryBuildings, apre+"_name", a.Name)
			for k, r := range a.Rooms {
				if r == nil {
					continue
				}
				rpre := indexed(apre+"_room", k)
				b.text(CategoryBuildings, rpre+"_name", r.Name)
				b.text(CategoryBuildings, rpre+"_description", r.Description)
				b.file(CategoryBuildings, rpre+"_photo", r.PhotoRef)
			}
			for k, c := range a.Commodities {
				if c == nil {
					continue
				}
				cpre := indexed(apre+"_commodity", k)
				b.text(CategoryBuildings, cpre+"_name", c.Name)
				b.text(CategoryBuildings, cpre+"_category", c.CategoryCode)
				b.number(CategoryBuildings, cpre+"_stacking_height", c.StackingHeight)
				b.text(CategoryBuildings, cpre+"_storage_type", c.StorageType)
			}
		}
	}

	// ========== 其它子集合 ==========
	for i, r := range p.SpecialRisks {
		if r == nil {
			continue
		}
		pre := indexed("risk", i)
		b.text(CategorySpecialRisks, pre+"_type", string(r.RiskType))
		b.text(CategorySpecialRisks, pre+"_location", r.Location)
		b.text(CategorySpecialRisks, pre+"_details", r.Details)
		b.text(CategorySpecialRisks, pre+"_description", r.Description)
		b.file(CategorySpecialRisks, pre+"_photo", r.PhotoRef)
	}
	for i, e := range p.EscapeRoutes {
		if e == nil {
			continue
		}
		pre := indexed("escape_route", i)
		b.text(CategoryEscapeRoutes, pre+"_name", e.Name)
		b.number(CategoryEscapeRoutes, pre+"_travel_distance", e.TravelDistance)
		b.number(CategoryEscapeRoutes, pre+"_width", e.Width)
		b.flag(CategoryEscapeRoutes, pre+"_emergency_lighting", e.EmergencyLighting)
	}
	for i, s := range p.Staircases {
		if s == nil {
			continue
		}
		pre := indexed("staircase", i)
		b.text(CategoryStaircases, pre+"_name", s.Name)
		b.number(CategoryStaircases, pre+"_width", s.Width)
		b.flag(CategoryStaircases, pre+"_fire_rated", s.FireRated)
		b.flag(CategoryStaircases, pre+"_pressurised", s.Pressurised)
	}
	for i, s := range p.Signage {
		if s == nil {
			continue
		}
		pre := indexed("sign", i)
		b.text(CategorySignage, pre+"_location", s.Location)
		b.text(CategorySignage, pre+"_type", s.SignType)
		b.flag(CategorySignage, pre+"_photoluminescent", s.Photoluminescent)
	}
	for i, z := range p.LightingZones {
		if z == nil {
			continue
		}
		pre := indexed("lighting_zone", i)
		b.text(CategoryLighting, pre+"_name", z.Name)
		b.integer(CategoryLighting, pre+"_duration", z.DurationMinutes)
		b.flag(CategoryLighting, pre+"_compliant", z.Compliant)
	}
	for i, h := range p.HoseReels {
		if h == nil {
			continue
		}
		pre := indexed("hose_reel", i)
		b.text(CategoryHoseReels, pre+"_location", h.Location)
		b.number(CategoryHoseReels, pre+"_length", h.HoseLength)
		b.flag(CategoryHoseReels, pre+"_coverage_adequate", h.CoverageAdequate)
	}
	for i, e := range p.Extinguishers {
		if e == nil {
			continue
		}
		pre := indexed("extinguisher", i)
		b.text(CategoryExtinguisher, pre+"_location", e.Location)
		b.text(CategoryExtinguisher, pre+"_type", e.ExtinguisherType)
		b.text(CategoryExtinguisher, pre+"_rating", e.Rating)
		b.date(CategoryExtinguisher, pre+"_service_date", e.ServiceDate)
	}
	for i, h := range p.Hydrants {
		if h == nil {
			continue
		}
		pre := indexed("hydrant", i)
		b.text(CategoryHydrants, pre+"_location", h.Location)
		b.text(CategoryHydrants, pre+"_type", h.HydrantType)
		b.number(CategoryHydrants, pre+"_flow_rate", h.FlowRate)
		b.number(CategoryHydrants, pre+"_pressure", h.Pressure)
	}
	for i, f := range p.Firewater {
		if f == nil {
			continue
		}
		pre := indexed("firewater", i)
		b.text(CategoryFirewater, pre+"_source", f.Source)
		b.number(CategoryFirewater, pre+"_capacity", f.Capacity)
		b.integer(CategoryFirewater, pre+"_duration", f.DurationMinutes)
	}

	sort.SliceStable(b.out, func(i, j int) bool {
		if b.out[i].Category != b.out[j].Category {
			return b.out[i].Category < b.out[j].Category
		}
		return b.out[i].Name < b.out[j].Name
	})

	log.Debug("placeholders extracted",
		zap.String("project_id", p.ID),
		zap.Int("count", len(b.out)),
	)
	return b.out
}

// ValueMap 转换为 name → value，供 Stamper / 生成接口使用
func ValueMap(list []domain.Placeholder) map[string]string {
	m := make(map[string]string, len(list))
	for _, ph := range list {
		m[ph.Name] = ph.Value
	}
	return m
}

// indexed 生成 1-based 序号名，如 building_2
func indexed(prefix string, i int) string {
	return fmt.Sprintf("%s_%d", prefix, i+1)
}

type builder struct {
	out []domain.Placeholder
}

func (b *builder) add(cat, name, value string, kind domain.PlaceholderKind) {
	b.out = append(b.out, domain.Placeholder{Name: name, Value: value, Kind: kind, Category: cat})
}

func (b *builder) text(cat, name, v string) {
	if v != "" {
		b.add(cat, name, v, domain.KindText)
	}
}

func (b *builder) date(cat, name, v string) {
	if v != "" {
		b.add(cat, name, v, domain.KindDate)
	}
}

func (b *builder) file(cat, name, v string) {
	if v != "" {
		b.add(cat, name, v, domain.KindFile)
	}
}

func (b *builder) number(cat, name string, v float64) {
	if v != 0 {
		b.add(cat, name, strconv.FormatFloat(v, 'f', -1, 64), domain.KindNumber)
	}
}

func (b *builder) integer(cat, name string, v int) {
	if v != 0 {
		b.add(cat, name, strconv.Itoa(v), domain.KindNumber)
	}
}

// flag false 与未设置等价，不输出
func (b *builder) flag(cat, name string, v bool) {
	if v {
		b.add(cat, name, "true", domain.KindCheckbox)
	}
}
