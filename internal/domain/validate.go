package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalid 领域校验失败（在存储边界拒绝格式错误的数据）
var ErrInvalid = errors.New("invalid project data")

const dateLayout = "2006-01-02"

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate 校验整个聚合：枚举、非负数值、日期格式、聚合内 ID 唯一
func (p *Project) Validate() error {
	if p == nil {
		return invalid("project is nil")
	}
	if !p.Status.Valid() {
		return invalid("unknown status %q", p.Status)
	}
	if p.ConstructionYear < 0 {
		return invalid("construction year must not be negative")
	}
	if err := checkDate("assessment date", p.AssessmentDate); err != nil {
		return err
	}

	ids := map[string]struct{}{}
	seen := func(kind, id string) error {
		if id == "" {
			return nil
		}
		if id == p.ID {
			return invalid("%s id %s collides with project id", kind, id)
		}
		if _, ok := ids[id]; ok {
			return invalid("duplicate %s id %s", kind, id)
		}
		ids[id] = struct{}{}
		return nil
	}

	for _, b := range p.Buildings {
		if b == nil {
			return invalid("nil building")
		}
		if err := seen("building", b.ID); err != nil {
			return err
		}
		if b.FloorArea < 0 {
			return invalid("building %q: floor area must not be negative", b.Name)
		}
		for _, a := range b.Areas {
			if a == nil {
				return invalid("building %q: nil area", b.Name)
			}
			if err := seen("area", a.ID); err != nil {
				return err
			}
			for _, r := range a.Rooms {
				if r == nil {
					return invalid("area %q: nil room", a.Name)
				}
				if err := seen("room", r.ID); err != nil {
					return err
				}
			}
			for _, c := range a.Commodities {
				if c == nil {
					return invalid("area %q: nil commodity", a.Name)
				}
				if err := seen("commodity", c.ID); err != nil {
					return err
				}
				if c.StackingHeight < 0 {
					return invalid("commodity %q: stacking height must not be negative", c.Name)
				}
			}
		}
	}

	for _, r := range p.SpecialRisks {
		if r == nil {
			return invalid("nil special risk")
		}
		if err := seen("special risk", r.ID); err != nil {
			return err
		}
		if !r.RiskType.Valid() {
			return invalid("unknown risk type %q", r.RiskType)
		}
	}
	for _, e := range p.EscapeRoutes {
		if e == nil {
			return invalid("nil escape route")
		}
		if err := seen("escape route", e.ID); err != nil {
			return err
		}
		if e.TravelDistance < 0 || e.Width < 0 {
			return invalid("escape route %q: measures must not be negative", e.Name)
		}
	}
	for _, s := range p.Staircases {
		if s == nil {
			return invalid("nil staircase")
		}
		if err := seen("staircase", s.ID); err != nil {
			return err
		}
		if s.Width < 0 {
			return invalid("staircase %q: width must not be negative", s.Name)
		}
	}
	for _, s := range p.Signage {
		if s == nil {
			return invalid("nil sign")
		}
		if err := seen("sign", s.ID); err != nil {
			return err
		}
	}
	for _, z := range p.LightingZones {
		if z == nil {
			return invalid("nil lighting zone")
		}
		if err := seen("lighting zone", z.ID); err != nil {
			return err
		}
		if z.DurationMinutes < 0 {
			return invalid("lighting zone %q: duration must not be negative", z.Name)
		}
	}
	for _, h := range p.HoseReels {
		if h == nil {
			return invalid("nil hose reel")
		}
		if err := seen("hose reel", h.ID); err != nil {
			return err
		}
		if h.HoseLength < 0 {
			return invalid("hose reel %q: length must not be negative", h.Location)
		}
	}
	for _, e := range p.Extinguishers {
		if e == nil {
			return invalid("nil extinguisher")
		}
		if err := seen("extinguisher", e.ID); err != nil {
			return err
		}
		if err := checkDate("extinguisher service date", e.ServiceDate); err != nil {
			return err
		}
	}
	for _, h := range p.Hydrants {
		if h == nil {
			return invalid("nil hydrant")
		}
		if err := seen("hydrant", h.ID); err != nil {
			return err
		}
		if h.FlowRate < 0 || h.Pressure < 0 {
			return invalid("hydrant %q: measures must not be negative", h.Location)
		}
	}
	for _, f := range p.Firewater {
		if f == nil {
			return invalid("nil firewater supply")
		}
		if err := seen("firewater supply", f.ID); err != nil {
			return err
		}
		if f.Capacity < 0 || f.DurationMinutes < 0 {
			return invalid("firewater supply %q: measures must not be negative", f.Source)
		}
	}
	return nil
}

func checkDate(field, v string) error {
	if v == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, v); err != nil {
		return invalid("%s %q is not YYYY-MM-DD", field, v)
	}
	return nil
}
