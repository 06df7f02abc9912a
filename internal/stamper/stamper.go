// Package stamper overlays placeholder values onto the pages of a PDF template.
package stamper

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
)

// ErrTemplateLoad 模板不是合法的 PDF
var ErrTemplateLoad = errors.New("template load failed")

// 固定的文档日期，保证相同输入的输出一致
var fixedDocDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

var coreFonts = map[string]bool{
	"courier":   true,
	"helvetica": true,
	"times":     true,
}

func init() {
	// pdfcpu 默认会在用户目录创建配置文件
	api.DisableConfigDir()
}

// Outcome 单个字段的处理结果
type Outcome string

const (
	Placed                Outcome = "placed"
	SkippedNoMapping      Outcome = "skipped_no_mapping"
	SkippedPageOutOfRange Outcome = "skipped_page_out_of_range"
	SkippedEmpty          Outcome = "skipped_empty"
)

// FieldOutcome 字段名、结果及其配置的页码（无映射时为 0）
type FieldOutcome struct {
	Name    string  `json:"name"`
	Outcome Outcome `json:"outcome"`
	Page    int     `json:"page,omitempty"`
}

// Result 盖章结果
type Result struct {
	PDF       []byte
	Outcomes  []FieldOutcome
	PageCount int
}

// Placed 成功绘制的字段数
func (r *Result) Placed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Outcome == Placed {
			n++
		}
	}
	return n
}

// Skipped 被跳过的字段数
func (r *Result) Skipped() int {
	return len(r.Outcomes) - r.Placed()
}

// Stamper 将文本画到模板指定坐标
type Stamper struct {
	table    PositionTable
	font     string
	compress bool
	logger   *zap.Logger
}

// Option Stamper 配置项
type Option func(*Stamper)

// WithFont 设置标准字体（Courier / Helvetica / Times）
func WithFont(family string) Option {
	return func(s *Stamper) {
		if coreFonts[strings.ToLower(family)] {
			s.font = family
		}
	}
}

// WithCompression 是否压缩页面内容流
func WithCompression(on bool) Option {
	return func(s *Stamper) { s.compress = on }
}

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) Option {
	return func(s *Stamper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New 创建 Stamper，位置表在创建后不可变
func New(table PositionTable, opts ...Option) *Stamper {
	s := &Stamper{
		table:    table,
		font:     "Helvetica",
		compress: true,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Table 当前使用的位置表
func (s *Stamper) Table() PositionTable { return s.table }

// Font 当前使用的字体
func (s *Stamper) Font() string { return s.font }

type drawOp struct {
	name  string
	value string
	pos   Position
}

// Stamp 读取模板并按位置表绘制 values；模板字节本身不被修改
func (s *Stamper) Stamp(template []byte, values map[string]string) (*Result, error) {
	if len(template) == 0 {
		return nil, fmt.Errorf("%w: empty template", ErrTemplateLoad)
	}

	pageCount, err := inspect(template)
	if err != nil {
		return nil, err
	}

	// ========== 分类 ==========
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	outcomes := make([]FieldOutcome, 0, len(names))
	byPage := make(map[int][]drawOp)
	for _, name := range names {
		value := values[name]
		pos, ok := s.table.Lookup(name)
		switch {
		case !ok:
			outcomes = append(outcomes, FieldOutcome{Name: name, Outcome: SkippedNoMapping})
			s.logger.Warn("no position configured for placeholder", zap.String("field", name))
		case value == "":
			outcomes = append(outcomes, FieldOutcome{Name: name, Outcome: SkippedEmpty, Page: pos.Page})
		case pos.Page > pageCount:
			outcomes = append(outcomes, FieldOutcome{Name: name, Outcome: SkippedPageOutOfRange, Page: pos.Page})
			s.logger.Warn("placeholder page out of range",
				zap.String("field", name),
				zap.Int("page", pos.Page),
				zap.Int("page_count", pageCount),
			)
		default:
			outcomes = append(outcomes, FieldOutcome{Name: name, Outcome: Placed, Page: pos.Page})
			byPage[pos.Page] = append(byPage[pos.Page], drawOp{name: name, value: value, pos: pos})
		}
	}

	out, err := s.render(template, pageCount, byPage)
	if err != nil {
		return nil, err
	}

	return &Result{PDF: out, Outcomes: outcomes, PageCount: pageCount}, nil
}

// inspect 用 pdfcpu 校验模板并返回页数
func inspect(template []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(template), conf)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTemplateLoad, err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTemplateLoad, err)
	}
	if ctx.PageCount < 1 {
		return 0, fmt.Errorf("%w: template has no pages", ErrTemplateLoad)
	}
	return ctx.PageCount, nil
}

// render 逐页导入模板，再在其上绘制文本
func (s *Stamper) render(template []byte, pageCount int, byPage map[int][]drawOp) (out []byte, err error) {
	defer func() {
		// gofpdi 遇到无法解析的对象时会 panic
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: %v", ErrTemplateLoad, r)
		}
	}()

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCompression(s.compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(fixedDocDate)
	pdf.SetModificationDate(fixedDocDate)
	pdf.SetProducer("FireFly", false)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(template))

	for page := 1; page <= pageCount; page++ {
		tpl := importer.ImportPageFromStream(pdf, &rs, page, "/MediaBox")
		size := importer.GetPageSizes()[page]["/MediaBox"]
		w, h := size["w"], size["h"]
		if w <= 0 || h <= 0 {
			return nil, fmt.Errorf("%w: page %d has no media box", ErrTemplateLoad, page)
		}

		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
		importer.UseImportedTemplate(pdf, tpl, 0, 0, w, h)

		for _, op := range byPage[page] {
			pdf.SetFont(s.font, "", op.pos.FontSize)
			pdf.SetTextColor(0, 0, 0)
			// fpdf 以左上角为原点
			pdf.Text(op.pos.X, h-op.pos.Y, tr(op.value))
		}
		if pdf.Err() {
			return nil, fmt.Errorf("stamp page %d: %w", page, pdf.Error())
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("serialize document: %w", err)
	}
	return buf.Bytes(), nil
}
