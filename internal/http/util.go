package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

// readBody 读取请求体（最多 maxBytes）
func readBody(r *http.Request, maxBytes int64) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	return io.ReadAll(io.LimitReader(r.Body, maxBytes))
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := readBody(r, maxBytes)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// tenantIDFromReq tenant_id 查询参数优先，其次 X-Tenant-Id
func tenantIDFromReq(r *http.Request) string {
	if tid := strings.TrimSpace(r.URL.Query().Get("tenant_id")); tid != "" && tid != "null" {
		return tid
	}
	if tid := strings.TrimSpace(r.Header.Get("X-Tenant-Id")); tid != "" && tid != "null" {
		return tid
	}
	return ""
}
