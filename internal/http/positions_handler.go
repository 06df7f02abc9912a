package httpapi

import (
	"net/http"

	"firefly/internal/stamper"

	"go.uber.org/zap"
)

// PositionsHandler 当前生效的坐标表（前端编辑器定位用）
type PositionsHandler struct {
	table  stamper.PositionTable
	font   string
	logger *zap.Logger
}

func NewPositionsHandler(table stamper.PositionTable, font string, logger *zap.Logger) *PositionsHandler {
	return &PositionsHandler{table: table, font: font, logger: logger}
}

type positionItem struct {
	Name string `json:"name"`
	stamper.Position
}

func (h *PositionsHandler) ListPositions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	items := make([]positionItem, 0, h.table.Len())
	for _, name := range h.table.Names() {
		pos, _ := h.table.Lookup(name)
		items = append(items, positionItem{Name: name, Position: pos})
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"font":  h.font,
		"items": items,
		"total": len(items),
	}))
}
