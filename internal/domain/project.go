package domain

import (
	"time"
)

// ProjectStatus 项目状态
type ProjectStatus string

const (
	StatusDraft     ProjectStatus = "draft"
	StatusReview    ProjectStatus = "review"
	StatusApproved  ProjectStatus = "approved"
	StatusRejected  ProjectStatus = "rejected"
	StatusCompleted ProjectStatus = "completed"
)

// Valid 判断状态是否为已知枚举值
func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusReview, StatusApproved, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

// Project 评估项目聚合根（对应 projects 表）
// 子集合为 nil 表示"未提交"，保存时不改动；非 nil（包括空切片）表示整体同步
type Project struct {
	ID               string        `db:"id" json:"id"`
	TenantID         string        `db:"tenant_id" json:"tenantId"`
	ReportType       string        `db:"report_type" json:"reportType,omitempty"`
	CompanyName      string        `db:"company_name" json:"companyName,omitempty"`
	FacilityProcess  string        `db:"facility_process" json:"facilityProcess,omitempty"`
	ConstructionYear int           `db:"construction_year" json:"constructionYear,omitempty"`
	Status           ProjectStatus `db:"status" json:"status"`
	Town             string        `db:"town" json:"town,omitempty"`
	Province         string        `db:"province" json:"province,omitempty"`
	StreetAddress    string        `db:"street_address" json:"streetAddress,omitempty"`
	EngineerName     string        `db:"engineer_name" json:"engineerName,omitempty"`
	AssessmentDate   string        `db:"assessment_date" json:"assessmentDate,omitempty"` // YYYY-MM-DD
	CreatedAt        time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updatedAt"`

	Buildings     []*Building        `json:"buildings,omitempty"`
	SpecialRisks  []*SpecialRisk     `json:"specialRisks,omitempty"`
	EscapeRoutes  []*EscapeRoute     `json:"escapeRoutes,omitempty"`
	Staircases    []*Staircase       `json:"staircases,omitempty"`
	Signage       []*Sign            `json:"signage,omitempty"`
	LightingZones []*LightingZone    `json:"lightingZones,omitempty"`
	HoseReels     []*HoseReel        `json:"hoseReels,omitempty"`
	Extinguishers []*Extinguisher    `json:"extinguishers,omitempty"`
	Hydrants      []*Hydrant         `json:"hydrants,omitempty"`
	Firewater     []*FirewaterSupply `json:"firewater,omitempty"`
}

// ProjectFilters 项目列表过滤器
type ProjectFilters struct {
	Status ProjectStatus
	Search string // 模糊搜索 company_name, town
}
