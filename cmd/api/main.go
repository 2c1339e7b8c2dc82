// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yourusername/authgate/internal/auth"
	"github.com/yourusername/authgate/internal/config"
	"github.com/yourusername/authgate/internal/store"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	// ユーザーストアの初期化（スキーマ作成を含む）
	// ストアに接続できない場合は起動を中断する
	userStore, err := store.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open user store: %v", err)
	}
	defer userStore.Close()

	// Ginルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()

	// リクエストIDミドルウェア（ログ突き合わせ用）
	router.Use(requestIDMiddleware())

	// セッションストアの設定（クッキー署名鍵は必須）
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   auth.SessionMaxAgeSeconds(),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions(auth.SessionCookieName, sessionStore))

	// CORSミドルウェアの設定
	corsConfig := cors.DefaultConfig()
	// CORS許可オリジンを設定（カンマ区切りの文字列を配列に変換）
	corsConfig.AllowOrigins = strings.Split(cfg.CORSAllowedOrigins, ",")
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
	}
	corsConfig.ExposeHeaders = []string{"X-Request-Id"}
	router.Use(cors.New(corsConfig))

	// ルーティングの設定
	setupRoutes(router, cfg, userStore)

	// サーバーの起動
	addr := ":" + cfg.Port
	log.Printf("Starting API server on %s (mode: %s)", addr, cfg.GinMode)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "authgate-api",
		"version": "0.1.0",
	})
}

// requestIDMiddleware は各リクエストに一意な ID を割り当て、レスポンスヘッダーで返します。
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

// setupRoutes は認証周りのルーティングを配線します。
// ページの描画はフロントエンド側の責務なので、ここでは JSON とリダイレクトのみを返します。
func setupRoutes(router *gin.Engine, cfg *config.Config, userStore *store.Store) {
	// まずは誰でも叩けるヘルスチェックを登録
	router.GET("/health", handleHealth)

	authManager := auth.NewManager(cfg, userStore)

	router.GET("/", authManager.Index)
	router.POST("/signup", authManager.Signup)
	router.POST("/login", authManager.Login)
	router.POST("/logout", authManager.Logout)
	router.POST("/forgot", authManager.Forgot)

	// 保護ルートは RequireLogin の内側にぶら下げる
	protected := router.Group("")
	protected.Use(authManager.RequireLogin())
	{
		protected.GET("/me", authManager.Me)
	}
}
