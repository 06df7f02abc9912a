package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"firefly/internal/service"
	"firefly/internal/stamper"

	"go.uber.org/zap"
)

// 请求体上限（占位符值均为短文本）
const maxDocumentBody = 10 << 20

// DocumentErrorBody 文档接口错误响应（不使用 Result 包装）
type DocumentErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type generateDocumentRequest struct {
	ProjectID    string            `json:"projectId"`
	Placeholders map[string]string `json:"placeholders"`
	TemplatePath string            `json:"templatePath"`
}

// DocumentHandler POST /generate-document
type DocumentHandler struct {
	docs         *service.DocumentService
	exposeErrors bool
	logger       *zap.Logger
}

func NewDocumentHandler(docs *service.DocumentService, exposeErrors bool, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{docs: docs, exposeErrors: exposeErrors, logger: logger}
}

func (h *DocumentHandler) fail(w http.ResponseWriter, status int, message string, err error) {
	body := DocumentErrorBody{Message: message}
	if err != nil && h.exposeErrors {
		body.Error = err.Error()
	}
	writeJSON(w, status, body)
}

// GenerateDocument 将占位符值画到模板上并返回 PDF
func (h *DocumentHandler) GenerateDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.fail(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	// 1. 参数解析和验证
	body, err := readBody(r, maxDocumentBody)
	if err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		h.fail(w, http.StatusBadRequest, "Request body is required", nil)
		return
	}
	var req generateDocumentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	switch {
	case strings.TrimSpace(req.ProjectID) == "":
		h.fail(w, http.StatusBadRequest, "projectId is required", nil)
		return
	case req.Placeholders == nil:
		h.fail(w, http.StatusBadRequest, "placeholders is required", nil)
		return
	case strings.TrimSpace(req.TemplatePath) == "":
		h.fail(w, http.StatusBadRequest, "templatePath is required", nil)
		return
	}

	// 2. 调用 Service
	tenantID := tenantIDFromReq(r)
	doc, err := h.docs.Generate(r.Context(), service.GenerateRequest{
		TenantID:     tenantID,
		ProjectID:    req.ProjectID,
		Placeholders: req.Placeholders,
		TemplatePath: req.TemplatePath,
	})
	if err != nil {
		h.logger.Error("GenerateDocument failed",
			zap.String("tenant_id", tenantID),
			zap.String("project_id", req.ProjectID),
			zap.String("template", req.TemplatePath),
			zap.Error(err),
		)
		switch {
		case errors.Is(err, service.ErrInvalidTemplatePath):
			h.fail(w, http.StatusBadRequest, "Invalid template path", nil)
		case errors.Is(err, service.ErrTemplateNotFound):
			h.fail(w, http.StatusNotFound, "Template file not found", nil)
		case errors.Is(err, service.ErrTemplateEmpty):
			h.fail(w, http.StatusInternalServerError, "Template file is empty", nil)
		case errors.Is(err, stamper.ErrTemplateLoad):
			writeJSON(w, http.StatusInternalServerError, DocumentErrorBody{Message: "Failed to load template", Error: err.Error()})
		default:
			h.fail(w, http.StatusInternalServerError, "Failed to generate document", err)
		}
		return
	}

	// 3. 返回 PDF
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.PDF)))
	w.Header().Set("X-Placeholders-Placed", strconv.Itoa(doc.Result.Placed()))
	w.Header().Set("X-Placeholders-Skipped", strconv.Itoa(doc.Result.Skipped()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.PDF); err != nil {
		h.logger.Warn("Failed to write document response", zap.String("project_id", req.ProjectID), zap.Error(err))
	}
}
