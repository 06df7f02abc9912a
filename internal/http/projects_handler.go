package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"firefly/internal/domain"
	"firefly/internal/service"

	"go.uber.org/zap"
)

const maxProjectBody = 4 << 20

// ProjectsHandler 项目向导 Handler
type ProjectsHandler struct {
	projects *service.ProjectService
	logger   *zap.Logger
}

func NewProjectsHandler(projects *service.ProjectService, logger *zap.Logger) *ProjectsHandler {
	return &ProjectsHandler{projects: projects, logger: logger}
}

// ServeHTTP 路由分发
//
//	GET  /api/projects
//	POST /api/projects/draft
//	GET  /api/projects/{id}
//	PUT  /api/projects/{id}/status
//	GET  /api/projects/{id}/placeholders
//	GET  /api/projects/{id}/placeholders.xlsx
func (h *ProjectsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	if path == "/api/projects" {
		h.only(w, r, http.MethodGet, h.ListProjects)
		return
	}
	if path == "/api/projects/draft" {
		h.only(w, r, http.MethodPost, h.SaveDraft)
		return
	}

	rest := strings.TrimPrefix(path, "/api/projects/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" || strings.Contains(sub, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch sub {
	case "":
		h.only(w, r, http.MethodGet, func(w http.ResponseWriter, r *http.Request) { h.GetProject(w, r, id) })
	case "status":
		h.only(w, r, http.MethodPut, func(w http.ResponseWriter, r *http.Request) { h.SetStatus(w, r, id) })
	case "placeholders":
		h.only(w, r, http.MethodGet, func(w http.ResponseWriter, r *http.Request) { h.ListPlaceholders(w, r, id) })
	case "placeholders.xlsx":
		h.only(w, r, http.MethodGet, func(w http.ResponseWriter, r *http.Request) { h.ExportPlaceholders(w, r, id) })
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *ProjectsHandler) only(w http.ResponseWriter, r *http.Request, method string, next http.HandlerFunc) {
	if r.Method != method {
		w.Header().Set("Allow", method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	next(w, r)
}

func (h *ProjectsHandler) tenantID(w http.ResponseWriter, r *http.Request) (string, bool) {
	tid := tenantIDFromReq(r)
	if tid == "" {
		writeJSON(w, http.StatusBadRequest, Fail("tenant_id is required"))
		return "", false
	}
	return tid, true
}

// writeError 按错误类型映射 HTTP 状态码
func (h *ProjectsHandler) writeError(w http.ResponseWriter, op string, err error, fields ...zap.Field) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrProjectNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrSaveInProgress):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		h.logger.Error(op+" failed", append(fields, zap.Error(err))...)
	} else {
		h.logger.Warn(op+" rejected", append(fields, zap.Error(err))...)
	}
	writeJSON(w, status, Fail(err.Error()))
}

// ListProjects 项目列表
func (h *ProjectsHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filters := domain.ProjectFilters{
		Status: domain.ProjectStatus(strings.TrimSpace(q.Get("status"))),
		Search: strings.TrimSpace(q.Get("search")),
	}
	page := parseInt(q.Get("page"), 1)
	size := parseInt(q.Get("size"), 20)

	resp, err := h.projects.ListProjects(r.Context(), tenantID, filters, page, size)
	if err != nil {
		h.writeError(w, "ListProjects", err, zap.String("tenant_id", tenantID))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// SaveDraft 保存向导步骤
func (h *ProjectsHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	var p *domain.Project
	if err := readBodyJSON(r, maxProjectBody, &p); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	if p == nil {
		writeJSON(w, http.StatusBadRequest, Fail("project body is required"))
		return
	}

	saved, err := h.projects.SaveDraft(r.Context(), tenantID, p)
	if err != nil {
		h.writeError(w, "SaveDraft", err, zap.String("tenant_id", tenantID), zap.String("project_id", p.ID))
		return
	}
	writeJSON(w, http.StatusOK, Ok(saved))
}

// GetProject 完整聚合
func (h *ProjectsHandler) GetProject(w http.ResponseWriter, r *http.Request, id string) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	p, err := h.projects.GetProject(r.Context(), tenantID, id)
	if err != nil {
		h.writeError(w, "GetProject", err, zap.String("tenant_id", tenantID), zap.String("project_id", id))
		return
	}
	writeJSON(w, http.StatusOK, Ok(p))
}

// SetStatus 更新状态
func (h *ProjectsHandler) SetStatus(w http.ResponseWriter, r *http.Request, id string) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	var payload struct {
		Status string `json:"status"`
	}
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	if payload.Status == "" {
		writeJSON(w, http.StatusBadRequest, Fail("status is required"))
		return
	}

	status := domain.ProjectStatus(payload.Status)
	if err := h.projects.SetStatus(r.Context(), tenantID, id, status); err != nil {
		h.writeError(w, "SetStatus", err, zap.String("tenant_id", tenantID), zap.String("project_id", id))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"id": id, "status": status}))
}

// ListPlaceholders 占位符列表
func (h *ProjectsHandler) ListPlaceholders(w http.ResponseWriter, r *http.Request, id string) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	list, err := h.projects.ListPlaceholders(r.Context(), tenantID, id)
	if err != nil {
		h.writeError(w, "ListPlaceholders", err, zap.String("tenant_id", tenantID), zap.String("project_id", id))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": list, "total": len(list)}))
}

// ExportPlaceholders 占位符导出为 xlsx
func (h *ProjectsHandler) ExportPlaceholders(w http.ResponseWriter, r *http.Request, id string) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	list, err := h.projects.ListPlaceholders(r.Context(), tenantID, id)
	if err != nil {
		h.writeError(w, "ExportPlaceholders", err, zap.String("tenant_id", tenantID), zap.String("project_id", id))
		return
	}
	data, err := GeneratePlaceholderExport(list)
	if err != nil {
		h.writeError(w, "ExportPlaceholders", err, zap.String("tenant_id", tenantID), zap.String("project_id", id))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+service.SafeName(id)+"-placeholders.xlsx")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
