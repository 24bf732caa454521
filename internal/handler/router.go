package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/campusmarket/internal/metrics"
	"github.com/hitoshi/campusmarket/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionReader     middleware.SessionReader
	RateLimiter       *middleware.RateLimiter
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig

	// サービス
	AuthService    AuthServiceInterface
	SessionLookup  SessionReaderInterface
	ProfileService ProfileServiceInterface

	// 運用
	DBPinger        Pinger
	StorePinger     Pinger
	HTTPMetrics     middleware.StatusRecorder
	MetricsGatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → セキュリティヘッダー → リカバリー → アクセスログ → CSRF
//
// 認証ルート（/auth/*）はIP単位のレート制限のみ適用し、
// /apiルートはセッションミドルウェアとユーザー単位のレート制限を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.HTTPMetrics))
	r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

	authHandler := NewAuthHandler(deps.AuthService, deps.SessionLookup)
	profileHandler := NewProfileHandler(deps.ProfileService)
	healthHandler := NewHealthHandler(deps.DBPinger, deps.StorePinger)

	// --- 認証ルート（セッション不要、IP単位レート制限） ---
	r.Route("/auth", func(r chi.Router) {
		r.With(deps.RateLimiter.AuthMiddleware()).Post("/register", authHandler.Register)
		r.With(deps.RateLimiter.AuthMiddleware()).Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// --- 可否チェック（サインアップフォームから利用するため未認証） ---
	r.Route("/api/availability", func(r chi.Router) {
		r.Use(deps.RateLimiter.AuthMiddleware())
		r.Get("/username", profileHandler.CheckUsername)
		r.Get("/email", profileHandler.CheckEmail)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionReader))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Put("/api/profile", profileHandler.EditProfile)
	})

	// --- 運用ルート ---
	r.Get("/healthz", healthHandler.Check)
	r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))

	return r
}
