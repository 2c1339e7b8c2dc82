package auth

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

// RequireLogin は保護ルート用のミドルウェアを返します。
// セッションが Authenticated であればユーザー ID をコンテキストへ載せて後続処理を呼び、
// Anonymous であれば後続処理を呼ばずにログインエントリポイントへリダイレクトします。
// リダイレクト先には元のリクエストパスを next として付与し、ログイン成功後に
// 戻れるようにします（戻り先は読み取り時に SafeNext で検証されます）。
func (m *Manager) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := m.CurrentUserID(c)
		if !ok {
			target := LoginPath + "?next=" + url.QueryEscape(c.Request.URL.Path)
			c.Redirect(http.StatusFound, target)
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

// UserIDFromContext はミドルウェアが設定したログイン済みユーザー ID を取り出します。
func UserIDFromContext(c *gin.Context) (int64, bool) {
	v, exists := c.Get(ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
