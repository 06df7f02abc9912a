package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"firefly/internal/domain"
	"firefly/internal/repository"
	"firefly/internal/service"
	"firefly/internal/stamper"
	"firefly/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const testTenant = "tenant-abc"

func newProjectsRouter(t *testing.T) (*Router, *store.MemoryLocker) {
	t.Helper()
	logger := zap.NewNop()
	locker := store.NewMemoryLocker()
	svc := service.NewProjectService(repository.NewMemoryProjectsRepo(), locker, 30*time.Second, 50*time.Millisecond, logger)

	table, err := stamper.DefaultPositionTable()
	require.NoError(t, err)

	router := NewRouter(logger)
	router.RegisterProjectRoutes(NewProjectsHandler(svc, logger))
	router.RegisterPositionRoutes(NewPositionsHandler(table, "Helvetica", logger))
	router.RegisterHealthRoutes()
	return router, locker
}

func doJSON(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req.Header.Set("X-Tenant-Id", testTenant)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeResult[T any](t *testing.T, rec *httptest.ResponseRecorder) Result[T] {
	t.Helper()
	var res Result[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	return res
}

func saveDraft(t *testing.T, router http.Handler, body string) *domain.Project {
	t.Helper()
	rec := doJSON(router, http.MethodPost, "/api/projects/draft", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decodeResult[*domain.Project](t, rec)
	require.Equal(t, ResultSuccess, res.Code)
	return res.Result
}

func TestProjects_WizardFlow(t *testing.T) {
	router, _ := newProjectsRouter(t)

	// 步骤 1：只有项目信息
	p := saveDraft(t, router, `{"companyName":"Acme","reportType":"Fire Risk Assessment","constructionYear":1998}`)
	require.NotEmpty(t, p.ID)
	assert.Equal(t, domain.StatusDraft, p.Status)

	// 步骤 2：两栋建筑，各一个区域；连续保存两次
	step2 := `{"id":"` + p.ID + `","companyName":"Acme","constructionYear":1998,"buildings":[
		{"name":"Warehouse","classificationCode":"J2","floorArea":1200.5,"areas":[{"name":"Racking"}]},
		{"name":"Office","areas":[{"name":"Open plan"}]}]}`
	saved := saveDraft(t, router, step2)
	require.Len(t, saved.Buildings, 2)

	body, err := json.Marshal(saved)
	require.NoError(t, err)
	again := saveDraft(t, router, string(body))
	require.Len(t, again.Buildings, 2)
	assert.Len(t, again.Buildings[0].Areas, 1)
	assert.Len(t, again.Buildings[1].Areas, 1)

	// 读取
	rec := doJSON(router, http.MethodGet, "/api/projects/"+p.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeResult[*domain.Project](t, rec).Result
	assert.Equal(t, "Acme", got.CompanyName)
	assert.Len(t, got.Buildings, 2)

	// 状态
	rec = doJSON(router, http.MethodPut, "/api/projects/"+p.ID+"/status", `{"status":"review"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(router, http.MethodGet, "/api/projects?status=review", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeResult[service.ProjectList](t, rec).Result
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, p.ID, list.Items[0].ID)

	// 占位符
	rec = doJSON(router, http.MethodGet, "/api/projects/"+p.ID+"/placeholders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	ph := decodeResult[struct {
		Items []domain.Placeholder `json:"items"`
		Total int                  `json:"total"`
	}](t, rec).Result
	values := map[string]string{}
	for _, item := range ph.Items {
		values[item.Name] = item.Value
	}
	assert.Equal(t, "Acme", values["company_name"])
	assert.Equal(t, "1998", values["construction_year"])
	assert.Equal(t, "1200.5", values["building_1_floor_area"])
	assert.Equal(t, "Open plan", values["building_2_area_1_name"])
	assert.Equal(t, len(ph.Items), ph.Total)
}

func TestProjects_ExportPlaceholdersXLSX(t *testing.T) {
	router, _ := newProjectsRouter(t)
	p := saveDraft(t, router, `{"companyName":"Acme","town":"Durban","buildings":[{"name":"Warehouse"}]}`)

	rec := doJSON(router, http.MethodGet, "/api/projects/"+p.ID+"/placeholders.xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), p.ID+"-placeholders.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Placeholders")
	require.NoError(t, err)
	require.Len(t, rows, 4) // 表头 + building_1_name + company_name + town
	assert.Equal(t, PlaceholderExportHeader, rows[0])
	assert.Equal(t, []string{"Buildings", "building_1_name", "text", "Warehouse"}, rows[1])
	assert.Equal(t, []string{"Location", "town", "text", "Durban"}, rows[2])
	assert.Equal(t, []string{"Project Information", "company_name", "text", "Acme"}, rows[3])
}

func TestProjects_Errors(t *testing.T) {
	router, locker := newProjectsRouter(t)
	missing := "7a1c1f2e-0000-4000-8000-000000000001"

	// 缺少租户
	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ResultError, decodeResult[any](t, rec).Code)

	rec = doJSON(router, http.MethodGet, "/api/projects/"+missing, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(router, http.MethodPost, "/api/projects/draft", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(router, http.MethodPost, "/api/projects/draft", `{"companyName":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(router, http.MethodPost, "/api/projects/draft", `{"status":"archived"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(router, http.MethodPost, "/api/projects/draft", `{"buildings":[{"name":"A","floorArea":-5}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(router, http.MethodPut, "/api/projects/"+missing+"/status", `{"status":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(router, http.MethodPut, "/api/projects/"+missing+"/status", `{"status":"review"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(router, http.MethodDelete, "/api/projects/"+missing, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = doJSON(router, http.MethodGet, "/api/projects/"+missing+"/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// 保存锁被占用
	release, err := locker.Acquire(context.Background(), "project:"+missing, time.Minute, 0)
	require.NoError(t, err)
	defer release()
	rec = doJSON(router, http.MethodPost, "/api/projects/draft", `{"id":"`+missing+`"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPositionsAndHealth(t *testing.T) {
	router, _ := newProjectsRouter(t)

	rec := doJSON(router, http.MethodGet, "/api/positions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeResult[struct {
		Font  string `json:"font"`
		Items []struct {
			Name string  `json:"name"`
			Page int     `json:"page"`
			X    float64 `json:"x"`
			Y    float64 `json:"y"`
		} `json:"items"`
		Total int `json:"total"`
	}](t, rec).Result
	assert.Equal(t, "Helvetica", res.Font)
	require.NotEmpty(t, res.Items)
	assert.Equal(t, len(res.Items), res.Total)
	for _, it := range res.Items {
		if it.Name == "company_name" {
			assert.Equal(t, 1, it.Page)
			assert.Equal(t, 100.0, it.X)
			assert.Equal(t, 700.0, it.Y)
		}
	}

	rec = doJSON(router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
