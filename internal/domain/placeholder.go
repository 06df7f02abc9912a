package domain

// PlaceholderKind 前端编辑器的输入类型
type PlaceholderKind string

const (
	KindText     PlaceholderKind = "text"
	KindNumber   PlaceholderKind = "number"
	KindDate     PlaceholderKind = "date"
	KindFile     PlaceholderKind = "file"
	KindCheckbox PlaceholderKind = "checkbox"
)

// Placeholder 由 Project 聚合派生的扁平字段，不落库
type Placeholder struct {
	Name     string          `json:"name"`
	Value    string          `json:"value"`
	Kind     PlaceholderKind `json:"type"`
	Category string          `json:"category"`
}
