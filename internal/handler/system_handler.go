package handler

import (
	"context"
	"net/http"
)

// HealthChecker はデータベース到達性の確認インターフェース。
type HealthChecker interface {
	// CheckHealth はデータベースに到達できる場合にtrueを返す。
	CheckHealth(ctx context.Context) bool
}

// SystemHandler はルートとヘルスチェックのHTTPハンドラー。
type SystemHandler struct {
	health HealthChecker
}

// NewSystemHandler はSystemHandlerを生成する。
func NewSystemHandler(health HealthChecker) *SystemHandler {
	return &SystemHandler{
		health: health,
	}
}

// healthResponse はヘルスチェックのAPIレスポンス。
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Root は動作確認用のルートエンドポイント。
// GET /
func (h *SystemHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Hello World"})
}

// Health はアプリケーションとデータベースの状態を返す。
// データベースに到達できない場合もHTTPとしては200で、bodyのstatusで劣化を表現する。
// GET /health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	res := healthResponse{
		Status:   "healthy",
		Database: "connected",
	}

	if !h.health.CheckHealth(r.Context()) {
		res.Status = "unhealthy"
		res.Database = "disconnected"
	}

	writeJSON(w, http.StatusOK, res)
}
