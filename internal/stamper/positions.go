package stamper

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultFontSize 未配置字号时使用
const DefaultFontSize = 12

//go:embed positions.yaml
var defaultPositions []byte

// Position 字段在模板上的位置：1-based 页码，PDF 用户空间坐标（左下角为原点）
type Position struct {
	Page     int     `yaml:"page" json:"page"`
	X        float64 `yaml:"x" json:"x"`
	Y        float64 `yaml:"y" json:"y"`
	FontSize float64 `yaml:"font_size" json:"fontSize"`
}

// PositionTable 字段名 → 位置的不可变映射
// 构造后不再修改，可以在多个 goroutine 间共享
type PositionTable struct {
	entries map[string]Position
}

type positionFile struct {
	Fields map[string]Position `yaml:"fields"`
}

// NewPositionTable 校验并复制给定映射
func NewPositionTable(m map[string]Position) (PositionTable, error) {
	entries := make(map[string]Position, len(m))
	for name, pos := range m {
		if name == "" {
			return PositionTable{}, fmt.Errorf("position table: empty field name")
		}
		if pos.Page < 1 {
			return PositionTable{}, fmt.Errorf("position table: field %s: page must be >= 1", name)
		}
		if pos.X < 0 || pos.Y < 0 {
			return PositionTable{}, fmt.Errorf("position table: field %s: coordinates must not be negative", name)
		}
		if pos.FontSize < 0 {
			return PositionTable{}, fmt.Errorf("position table: field %s: font size must not be negative", name)
		}
		if pos.FontSize == 0 {
			pos.FontSize = DefaultFontSize
		}
		entries[name] = pos
	}
	return PositionTable{entries: entries}, nil
}

// ParsePositionTable 从 YAML 读取位置表
func ParsePositionTable(r io.Reader) (PositionTable, error) {
	var f positionFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return NewPositionTable(nil)
		}
		return PositionTable{}, fmt.Errorf("position table: %w", err)
	}
	return NewPositionTable(f.Fields)
}

// LoadPositionTable 从文件读取位置表；path 为空时使用内置默认表
func LoadPositionTable(path string) (PositionTable, error) {
	if path == "" {
		return DefaultPositionTable()
	}
	f, err := os.Open(path)
	if err != nil {
		return PositionTable{}, fmt.Errorf("position table: %w", err)
	}
	defer f.Close()
	return ParsePositionTable(f)
}

// DefaultPositionTable 内置的 Report_Template.pdf 位置表
func DefaultPositionTable() (PositionTable, error) {
	var f positionFile
	if err := yaml.Unmarshal(defaultPositions, &f); err != nil {
		return PositionTable{}, fmt.Errorf("default position table: %w", err)
	}
	return NewPositionTable(f.Fields)
}

// Lookup 查询字段位置
func (t PositionTable) Lookup(name string) (Position, bool) {
	pos, ok := t.entries[name]
	return pos, ok
}

// Len 条目数
func (t PositionTable) Len() int { return len(t.entries) }

// Names 返回排序后的字段名
func (t PositionTable) Names() []string {
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries 返回副本
func (t PositionTable) Entries() map[string]Position {
	out := make(map[string]Position, len(t.entries))
	for k, v := range t.entries {
		out[k] = v
	}
	return out
}
