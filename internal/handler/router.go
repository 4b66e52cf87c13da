package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/noteshare/internal/metrics"
	"github.com/hitoshi/noteshare/internal/middleware"
)

// HealthChecker はヘルスチェック時のDB疎通確認を抽象化するインターフェース。
// *sql.DB がこのインターフェースを満たす。
type HealthChecker interface {
	Ping() error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	HealthChecker     HealthChecker
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// メトリクス
	MetricsGatherer prometheus.Gatherer
	StatusRecorder  middleware.HTTPStatusRecorder

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ノート
	NoteService NoteServiceInterface

	// ファイル
	FileService   FileServiceInterface
	MaxUploadSize int64

	// 共有
	ShareService ShareServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RecoveryMiddleware → CORSMiddleware → SecurityHeadersMiddleware
//	→ LoggingMiddleware → MetricsMiddleware
//	→ SessionMiddleware → CSRFMiddleware → RateLimitMiddleware(GeneralMiddleware)
//
// 認証ルート（/auth/*）とヘルスチェック、メトリクスはセッション検証の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// panicリカバリを最上位に適用（全ルートに効く）
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.StatusRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.StatusRecorder))
	}

	csrfConfig := middleware.CSRFConfig{
		CookieSecure: deps.AuthConfig.CookieSecure,
		CookieDomain: deps.AuthConfig.CookieDomain,
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	noteHandler := NewNoteHandler(deps.NoteService)
	fileHandler := NewFileHandler(deps.FileService, deps.MaxUploadSize)
	shareHandler := NewShareHandler(deps.ShareService)

	// --- 認証不要のルート ---

	// ヘルスチェック（Dockerヘルスチェック・監視用）
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.Ping(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	// Prometheusメトリクス
	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.SetupMetricsRoute(deps.MetricsGatherer))
	}

	// CSRFトークン取得（フロントエンドがログイン前に取得する）
	r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(csrfConfig).ServeHTTP)

	// 認証ルート
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(csrfConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 退会
		r.Delete("/auth/me", authHandler.Withdraw)

		// ノート管理
		r.Route("/api/notes", func(r chi.Router) {
			r.Get("/", noteHandler.List)
			r.Post("/", noteHandler.Create)
			r.Get("/search", noteHandler.Search)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", noteHandler.Get)
				r.Put("/", noteHandler.Update)
				r.Delete("/", noteHandler.Delete)
			})
		})

		// ファイル管理
		r.Route("/api/files", func(r chi.Router) {
			r.Get("/", fileHandler.List)

			// POST /api/files - アップロード（アップロード専用レート制限を追加）
			r.With(deps.RateLimiter.UploadMiddleware()).Post("/", fileHandler.Upload)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", fileHandler.Get)
				r.Get("/download", fileHandler.Download)
				r.Delete("/", fileHandler.Delete)
			})
		})

		// 共有管理
		r.Route("/api/shares", func(r chi.Router) {
			r.Route("/notes", func(r chi.Router) {
				r.Post("/", shareHandler.ShareNote)
				r.Delete("/", shareHandler.UnshareNote)
				r.Get("/with-me", shareHandler.ListNotesSharedWithMe)
				r.Get("/by-me", shareHandler.ListNotesSharedByMe)
			})

			r.Route("/files", func(r chi.Router) {
				r.Post("/", shareHandler.ShareFile)
				r.Delete("/", shareHandler.UnshareFile)
				r.Get("/with-me", shareHandler.ListFilesSharedWithMe)
				r.Get("/by-me", shareHandler.ListFilesSharedByMe)
			})
		})
	})

	return r
}
