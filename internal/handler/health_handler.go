package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger は依存コンポーネントの疎通確認のインターフェース。
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler はヘルスチェックのHTTPハンドラー。
// データベースとセッションストアの疎通を確認する。
type HealthHandler struct {
	db    Pinger
	store Pinger
}

// NewHealthHandler はHealthHandlerを生成する。
func NewHealthHandler(db, store Pinger) *HealthHandler {
	return &HealthHandler{db: db, store: store}
}

// healthResponse はヘルスチェックのレスポンス。
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Sessions string `json:"sessions"`
}

// Check はヘルスチェックを処理する。
// いずれかの依存が落ちている場合は503を返す。
// GET /healthz
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Database: "ok", Sessions: "ok"}
	statusCode := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Database = "unavailable"
		statusCode = http.StatusServiceUnavailable
	}
	if err := h.store.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Sessions = "unavailable"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSONResponse(w, statusCode, resp)
}
