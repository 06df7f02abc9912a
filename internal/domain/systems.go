package domain

// RiskType 特殊风险类型
type RiskType string

const (
	RiskGenerator        RiskType = "generator"
	RiskTransformer      RiskType = "transformer"
	RiskFlammableLiquids RiskType = "flammable_liquids"
	RiskLPGInstallation  RiskType = "lpg_installation"
	RiskBatteryRoom      RiskType = "battery_room"
	RiskSprayBooth       RiskType = "spray_booth"
	RiskDustExtraction   RiskType = "dust_extraction"
	RiskOther            RiskType = "other"
)

func (t RiskType) Valid() bool {
	switch t {
	case RiskGenerator, RiskTransformer, RiskFlammableLiquids, RiskLPGInstallation,
		RiskBatteryRoom, RiskSprayBooth, RiskDustExtraction, RiskOther:
		return true
	}
	return false
}

// SpecialRisk 特殊风险（对应 special_risks 表）
type SpecialRisk struct {
	ID          string   `db:"id" json:"id"`
	RiskType    RiskType `db:"risk_type" json:"riskType"`
	Location    string   `db:"location" json:"location,omitempty"`
	Details     string   `db:"details" json:"details,omitempty"`
	Description string   `db:"description" json:"description,omitempty"`
	PhotoRef    string   `db:"photo_ref" json:"photoRef,omitempty"`
}

// EscapeRoute 疏散路线（对应 escape_routes 表）
type EscapeRoute struct {
	ID                string  `db:"id" json:"id"`
	Name              string  `db:"name" json:"name,omitempty"`
	TravelDistance    float64 `db:"travel_distance" json:"travelDistance,omitempty"` // m
	Width             float64 `db:"width" json:"width,omitempty"`                    // mm
	EmergencyLighting bool    `db:"emergency_lighting" json:"emergencyLighting,omitempty"`
}

// Staircase 楼梯（对应 staircases 表）
type Staircase struct {
	ID          string  `db:"id" json:"id"`
	Name        string  `db:"name" json:"name,omitempty"`
	Width       float64 `db:"width" json:"width,omitempty"` // mm
	FireRated   bool    `db:"fire_rated" json:"fireRated,omitempty"`
	Pressurised bool    `db:"pressurised" json:"pressurised,omitempty"`
}

// Sign 标识（对应 signage 表）
type Sign struct {
	ID               string `db:"id" json:"id"`
	Location         string `db:"location" json:"location,omitempty"`
	SignType         string `db:"sign_type" json:"signType,omitempty"`
	Photoluminescent bool   `db:"photoluminescent" json:"photoluminescent,omitempty"`
}

// LightingZone 应急照明区域（对应 lighting_zones 表）
type LightingZone struct {
	ID              string `db:"id" json:"id"`
	Name            string `db:"name" json:"name,omitempty"`
	DurationMinutes int    `db:"duration_minutes" json:"durationMinutes,omitempty"`
	Compliant       bool   `db:"compliant" json:"compliant,omitempty"`
}

// HoseReel 消防卷盘（对应 hose_reels 表）
type HoseReel struct {
	ID               string  `db:"id" json:"id"`
	Location         string  `db:"location" json:"location,omitempty"`
	HoseLength       float64 `db:"hose_length" json:"hoseLength,omitempty"` // m
	CoverageAdequate bool    `db:"coverage_adequate" json:"coverageAdequate,omitempty"`
}

// Extinguisher 灭火器（对应 extinguishers 表）
type Extinguisher struct {
	ID               string `db:"id" json:"id"`
	Location         string `db:"location" json:"location,omitempty"`
	ExtinguisherType string `db:"extinguisher_type" json:"extinguisherType,omitempty"`
	Rating           string `db:"rating" json:"rating,omitempty"`
	ServiceDate      string `db:"service_date" json:"serviceDate,omitempty"` // YYYY-MM-DD
}

// Hydrant 消火栓（对应 hydrants 表）
type Hydrant struct {
	ID          string  `db:"id" json:"id"`
	Location    string  `db:"location" json:"location,omitempty"`
	HydrantType string  `db:"hydrant_type" json:"hydrantType,omitempty"`
	FlowRate    float64 `db:"flow_rate" json:"flowRate,omitempty"` // L/min
	Pressure    float64 `db:"pressure" json:"pressure,omitempty"`  // kPa
}

// FirewaterSupply 消防水源（对应 firewater_supplies 表）
type FirewaterSupply struct {
	ID              string  `db:"id" json:"id"`
	Source          string  `db:"source" json:"source,omitempty"`
	Capacity        float64 `db:"capacity" json:"capacity,omitempty"` // kL
	DurationMinutes int     `db:"duration_minutes" json:"durationMinutes,omitempty"`
}
