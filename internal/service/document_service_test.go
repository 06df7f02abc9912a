package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"firefly/internal/notify"
	"firefly/internal/stamper"

	"codeberg.org/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeTemplate(t *testing.T, root, rel string, pages int) []byte {
	t.Helper()
	doc := fpdf.New("P", "pt", "A4", "")
	for i := 0; i < pages; i++ {
		doc.AddPage()
		doc.SetFont("Helvetica", "", 10)
		doc.Text(40, 40, "Fire Safety Report")
	}
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))

	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, buf.Bytes(), 0o644))
	return buf.Bytes()
}

type captureNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (c *captureNotifier) Name() string { return "capture" }

func (c *captureNotifier) Notify(_ context.Context, ev notify.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func newDocumentService(t *testing.T, root string, notifiers ...notify.Notifier) (*DocumentService, *notify.Dispatcher) {
	t.Helper()
	table, err := stamper.NewPositionTable(map[string]stamper.Position{
		"company_name": {Page: 1, X: 100, Y: 700, FontSize: 12},
	})
	require.NoError(t, err)
	d := notify.NewDispatcher(notifiers, time.Second, zap.NewNop())
	return NewDocumentService(NewTemplateStore(root), stamper.New(table), d, zap.NewNop()), d
}

func TestTemplateStore_Load(t *testing.T) {
	root := t.TempDir()
	want := writeTemplate(t, root, "document template/Report_Template.pdf", 1)
	require.NoError(t, os.WriteFile(filepath.Join(root, "empty.pdf"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "dir.pdf"), 0o755))

	store := NewTemplateStore(root)

	got, err := store.Load("document template/Report_Template.pdf")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = store.Load("missing.pdf")
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	_, err = store.Load("dir.pdf")
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	_, err = store.Load("empty.pdf")
	assert.ErrorIs(t, err, ErrTemplateEmpty)

	for _, p := range []string{"../secret.pdf", "/etc/passwd", "a/../../b.pdf", ""} {
		_, err = store.Load(p)
		assert.ErrorIs(t, err, ErrInvalidTemplatePath, p)
	}
}

func TestDocumentService_Generate(t *testing.T) {
	root := t.TempDir()
	original := writeTemplate(t, root, "document template/Report_Template.pdf", 2)
	capture := &captureNotifier{}
	svc, d := newDocumentService(t, root, capture)

	doc, err := svc.Generate(context.Background(), GenerateRequest{
		TenantID:     tenant,
		ProjectID:    "p-123",
		TemplatePath: "document template/Report_Template.pdf",
		Placeholders: map[string]string{"company_name": "Acme", "unmapped": "x"},
	})
	require.NoError(t, err)
	assert.Equal(t, "p-123-report.pdf", doc.Filename)
	assert.True(t, bytes.HasPrefix(doc.PDF, []byte("%PDF-")))
	assert.Equal(t, 2, doc.Result.PageCount)
	assert.Equal(t, 1, doc.Result.Placed())
	assert.Equal(t, 1, doc.Result.Skipped())

	d.Wait()
	require.Len(t, capture.events, 1)
	ev := capture.events[0]
	assert.Equal(t, notify.EventDocumentGenerated, ev.Type)
	assert.Equal(t, "p-123", ev.ProjectID)
	assert.Equal(t, len(doc.PDF), ev.SizeBytes)

	// 模板文件未被修改
	onDisk, err := os.ReadFile(filepath.Join(root, "document template", "Report_Template.pdf"))
	require.NoError(t, err)
	assert.Equal(t, original, onDisk)
}

func TestDocumentService_GenerateErrors(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "garbage.pdf"), []byte("this is not a pdf"), 0o644))
	capture := &captureNotifier{}
	svc, d := newDocumentService(t, root, capture)
	ctx := context.Background()

	_, err := svc.Generate(ctx, GenerateRequest{ProjectID: "p", TemplatePath: "missing.pdf", Placeholders: map[string]string{}})
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	_, err = svc.Generate(ctx, GenerateRequest{ProjectID: "p", TemplatePath: "garbage.pdf", Placeholders: map[string]string{}})
	assert.ErrorIs(t, err, stamper.ErrTemplateLoad)

	d.Wait()
	assert.Empty(t, capture.events)
}

func TestReportFilename(t *testing.T) {
	cases := map[string]string{
		"p-123":            "p-123-report.pdf",
		"a b/c\"d":         "a_b_c_d-report.pdf",
		"..":               "document-report.pdf",
		"3f2b0c1e-aaaa.v2": "3f2b0c1e-aaaa.v2-report.pdf",
		"":                 "document-report.pdf",
	}
	for in, want := range cases {
		assert.Equal(t, want, ReportFilename(in), in)
	}
}
