package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterDocumentRoutes 文档生成；firefly-data 挂在 /api 下，firefly-docgen 挂在根路径
func (r *Router) RegisterDocumentRoutes(prefix string, h *DocumentHandler) {
	r.Handle(prefix+"/generate-document", h.GenerateDocument)
}

// RegisterProjectRoutes 项目向导接口
func (r *Router) RegisterProjectRoutes(h *ProjectsHandler) {
	r.HandleHandler("/api/projects", h)
	r.HandleHandler("/api/projects/", h)
}

// RegisterPositionRoutes 坐标表查询
func (r *Router) RegisterPositionRoutes(h *PositionsHandler) {
	r.Handle("/api/positions", h.ListPositions)
}

// RegisterHealthRoutes 存活探针
func (r *Router) RegisterHealthRoutes() {
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet && req.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
