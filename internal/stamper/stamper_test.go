package stamper

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"firefly/internal/domain"
	"firefly/internal/placeholder"

	"codeberg.org/go-pdf/fpdf"
	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// makeTemplate 生成 A4 测试模板
func makeTemplate(t *testing.T, pages int) []byte {
	t.Helper()
	doc := fpdf.New("P", "pt", "A4", "")
	for i := 1; i <= pages; i++ {
		doc.AddPage()
		doc.SetFont("Helvetica", "", 10)
		doc.Text(40, 40, fmt.Sprintf("Template page %d", i))
	}
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func mustTable(t *testing.T, m map[string]Position) PositionTable {
	t.Helper()
	table, err := NewPositionTable(m)
	require.NoError(t, err)
	return table
}

func openPDF(t *testing.T, b []byte) *pdf.Reader {
	t.Helper()
	r, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	require.NoError(t, err)
	return r
}

// visibleText 页面内容流中直接绘制的文本（不含模板 XObject）
func visibleText(t *testing.T, r *pdf.Reader, page int) []pdf.Text {
	t.Helper()
	return r.Page(page).Content().Text
}

func joined(texts []pdf.Text) string {
	var sb strings.Builder
	for _, tx := range texts {
		sb.WriteString(tx.S)
	}
	return sb.String()
}

// findRun 返回字符串 s 首字符的位置
func findRun(texts []pdf.Text, s string) (pdf.Text, bool) {
	for i := range texts {
		if i+len(s) > len(texts) {
			break
		}
		var sb strings.Builder
		for _, tx := range texts[i : i+len(s)] {
			sb.WriteString(tx.S)
		}
		if sb.String() == s {
			return texts[i], true
		}
	}
	return pdf.Text{}, false
}

func outcomeOf(res *Result, name string) Outcome {
	for _, o := range res.Outcomes {
		if o.Name == name {
			return o.Outcome
		}
	}
	return ""
}

func TestStamp_PlacesValueAtConfiguredPosition(t *testing.T) {
	table := mustTable(t, map[string]Position{
		"company_name": {Page: 1, X: 100, Y: 700, FontSize: 12},
	})
	s := New(table, WithLogger(zap.NewNop()))

	res, err := s.Stamp(makeTemplate(t, 1), map[string]string{"company_name": "Acme"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.PageCount)
	assert.Equal(t, 1, res.Placed())
	assert.Equal(t, Placed, outcomeOf(res, "company_name"))

	r := openPDF(t, res.PDF)
	require.Equal(t, 1, r.NumPage())
	first, ok := findRun(visibleText(t, r, 1), "Acme")
	require.True(t, ok, "stamped text not found")
	assert.InDelta(t, 100, first.X, 0.01)
	assert.InDelta(t, 700, first.Y, 0.01)
	assert.InDelta(t, 12, first.FontSize, 0.01)
	assert.Equal(t, "Helvetica", first.Font)
}

func TestStamp_UnmappedFieldIsNoop(t *testing.T) {
	table := mustTable(t, map[string]Position{
		"company_name": {Page: 1, X: 100, Y: 700},
	})
	tpl := makeTemplate(t, 2)
	s := New(table)

	res, err := s.Stamp(tpl, map[string]string{
		"company_name":  "Acme",
		"unknown_field": "Ghost",
	})
	require.NoError(t, err)
	assert.Equal(t, SkippedNoMapping, outcomeOf(res, "unknown_field"))
	assert.Equal(t, 1, res.Skipped())

	r := openPDF(t, res.PDF)
	assert.Equal(t, 2, r.NumPage())
	assert.Equal(t, "Acme", joined(visibleText(t, r, 1)))
	assert.Empty(t, visibleText(t, r, 2))
}

func TestStamp_PageOutOfRange(t *testing.T) {
	table := mustTable(t, map[string]Position{
		"risk_1_location": {Page: 3, X: 72, Y: 500},
	})
	res, err := New(table).Stamp(makeTemplate(t, 1), map[string]string{"risk_1_location": "Yard"})
	require.NoError(t, err)
	assert.Equal(t, SkippedPageOutOfRange, outcomeOf(res, "risk_1_location"))
	assert.Equal(t, 0, res.Placed())

	r := openPDF(t, res.PDF)
	assert.Equal(t, 1, r.NumPage())
	assert.Empty(t, visibleText(t, r, 1))
}

func TestStamp_EmptyValueNotDrawn(t *testing.T) {
	table := mustTable(t, map[string]Position{
		"town": {Page: 1, X: 100, Y: 520},
	})
	res, err := New(table).Stamp(makeTemplate(t, 1), map[string]string{"town": ""})
	require.NoError(t, err)
	assert.Equal(t, SkippedEmpty, outcomeOf(res, "town"))
	assert.Empty(t, visibleText(t, openPDF(t, res.PDF), 1))
}

func TestStamp_InvalidTemplate(t *testing.T) {
	s := New(mustTable(t, nil))

	_, err := s.Stamp(nil, map[string]string{"a": "b"})
	assert.True(t, errors.Is(err, ErrTemplateLoad))

	_, err = s.Stamp([]byte("this is not a pdf"), map[string]string{"a": "b"})
	assert.True(t, errors.Is(err, ErrTemplateLoad))
}

func TestStamp_MultiPageTargetsConfiguredPage(t *testing.T) {
	table := mustTable(t, map[string]Position{
		"building_1_name": {Page: 2, X: 72, Y: 760, FontSize: 10},
	})
	res, err := New(table).Stamp(makeTemplate(t, 3), map[string]string{"building_1_name": "Warehouse"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.PageCount)

	r := openPDF(t, res.PDF)
	require.Equal(t, 3, r.NumPage())
	assert.Empty(t, visibleText(t, r, 1))
	assert.Empty(t, visibleText(t, r, 3))
	first, ok := findRun(visibleText(t, r, 2), "Warehouse")
	require.True(t, ok)
	assert.InDelta(t, 72, first.X, 0.01)
	assert.InDelta(t, 760, first.Y, 0.01)
}

func TestStamp_Idempotent(t *testing.T) {
	table := mustTable(t, map[string]Position{
		"company_name": {Page: 1, X: 100, Y: 700},
		"town":         {Page: 1, X: 100, Y: 520},
		"province":     {Page: 2, X: 300, Y: 520},
	})
	values := map[string]string{"company_name": "Acme", "town": "Durban", "province": "KwaZulu-Natal", "nope": "x"}
	s := New(table)

	a, err := s.Stamp(makeTemplate(t, 2), values)
	require.NoError(t, err)
	b, err := s.Stamp(makeTemplate(t, 2), values)
	require.NoError(t, err)

	assert.Equal(t, a.Outcomes, b.Outcomes)
	assert.Equal(t, a.PageCount, b.PageCount)

	ra, rb := openPDF(t, a.PDF), openPDF(t, b.PDF)
	require.Equal(t, ra.NumPage(), rb.NumPage())
	for p := 1; p <= ra.NumPage(); p++ {
		assert.Equal(t, visibleText(t, ra, p), visibleText(t, rb, p), "page %d", p)
	}
}

func TestStamp_DoesNotModifyTemplate(t *testing.T) {
	tpl := makeTemplate(t, 1)
	orig := append([]byte(nil), tpl...)
	table := mustTable(t, map[string]Position{"company_name": {Page: 1, X: 100, Y: 700}})

	_, err := New(table).Stamp(tpl, map[string]string{"company_name": "Acme"})
	require.NoError(t, err)
	assert.Equal(t, orig, tpl)
}

func TestStamp_ExtractorRoundTrip(t *testing.T) {
	table, err := DefaultPositionTable()
	require.NoError(t, err)

	p := &domain.Project{
		CompanyName: "Acme",
		Town:        "Durban",
		Staircases: []*domain.Staircase{
			{Name: "North", FireRated: true},
		},
	}
	values := placeholder.ValueMap(placeholder.Extract(p, zap.NewNop()))

	res, err := New(table).Stamp(makeTemplate(t, 5), values)
	require.NoError(t, err)
	assert.Equal(t, len(values), res.Placed())

	r := openPDF(t, res.PDF)
	var all strings.Builder
	for page := 1; page <= r.NumPage(); page++ {
		all.WriteString(joined(visibleText(t, r, page)))
	}
	text := all.String()
	for _, v := range []string{"Acme", "Durban", "North", "true"} {
		assert.Contains(t, text, v)
	}
	assert.NotContains(t, text, "false")
	assert.Equal(t, len("Acme")+len("Durban")+len("North")+len("true"), len(text))
}

func TestStamp_WithFont(t *testing.T) {
	table := mustTable(t, map[string]Position{"company_name": {Page: 1, X: 100, Y: 700}})

	s := New(table, WithFont("Times"))
	assert.Equal(t, "Times", s.Font())
	res, err := s.Stamp(makeTemplate(t, 1), map[string]string{"company_name": "Acme"})
	require.NoError(t, err)
	first, ok := findRun(visibleText(t, openPDF(t, res.PDF), 1), "Acme")
	require.True(t, ok)
	assert.Equal(t, "Times-Roman", first.Font)

	assert.Equal(t, "Helvetica", New(table, WithFont("Comic Sans")).Font())
}
