// Package auth は認証・セッション管理・ルート保護を提供します。
package auth

import (
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/authgate/internal/config"
	"github.com/yourusername/authgate/internal/store"
)

const (
	// SessionCookieName はセッションクッキーの名前です。
	SessionCookieName = "ag_session"

	sessionKeyUserID = "uid"

	maxSessionLifetime = 7 * 24 * time.Hour
)

// SessionMaxAgeSeconds はクッキーの MaxAge に利用する秒数を返します。
func SessionMaxAgeSeconds() int {
	return int(maxSessionLifetime.Seconds())
}

// ContextUserIDKey は、ハンドラー間でログイン済みユーザー ID を共有するためのキーです。
const ContextUserIDKey = "auth.userID"

// LoginPath はログインエントリポイントのパスです。
// 未認証アクセスのリダイレクト先として RequireLogin が使用します。
const LoginPath = "/login"

// Manager は認証処理と状態をまとめた構造体です。
// セッションの状態は署名付きクッキーのみに保持され、サーバー側には残りません。
type Manager struct {
	cfg   *config.Config
	store *store.Store
}

// NewManager は認証マネージャーを作成します。
func NewManager(cfg *config.Config, st *store.Store) *Manager {
	return &Manager{
		cfg:   cfg,
		store: st,
	}
}

// Establish はセッションを Authenticated(userID) 状態に遷移させます。
// 既存のセッション値は破棄され、署名付きクッキーとしてレスポンスに書き込まれます。
func (m *Manager) Establish(c *gin.Context, userID int64) error {
	session := sessions.Default(c)
	session.Clear()
	session.Set(sessionKeyUserID, userID)
	return session.Save()
}

// CurrentUserID はセッションからログイン済みユーザー ID を読み取ります。
// クッキーが存在しない・解析できない・署名検証に失敗した場合はすべて
// 匿名（ok=false）として扱い、エラーにはしません。
func (m *Manager) CurrentUserID(c *gin.Context) (int64, bool) {
	session := sessions.Default(c)
	switch id := session.Get(sessionKeyUserID).(type) {
	case int64:
		if id > 0 {
			return id, true
		}
	case int:
		if id > 0 {
			return int64(id), true
		}
	}
	return 0, false
}

// ClearSession はセッションを Anonymous 状態に遷移させます。
// 既に匿名の場合も何もせず成功します（冪等）。
func (m *Manager) ClearSession(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{
		Path:   "/",
		MaxAge: -1,
	})
	return session.Save()
}
