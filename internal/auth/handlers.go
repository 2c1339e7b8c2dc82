package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/authgate/internal/password"
	"github.com/yourusername/authgate/internal/store"
)

const (
	minPasswordLength = 8

	// profilePath はログイン直後の既定の遷移先です。
	profilePath = "/me"
)

// Index は / のハンドラーです。ログイン済みならプロフィールへリダイレクトします。
func (m *Manager) Index(c *gin.Context) {
	if _, ok := m.CurrentUserID(c); ok {
		c.Redirect(http.StatusFound, profilePath)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"service": "authgate-api",
		"version": "0.1.0",
	})
}

// Signup は POST /signup のハンドラーです。
// 入力検証はストアに触れる前に行います。登録に成功するとそのままログイン状態になります。
func (m *Manager) Signup(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	pw := c.PostForm("password")

	if email == "" || !strings.Contains(email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_EMAIL",
			"message": "有効なメールアドレスを入力してください",
		})
		return
	}
	if len(pw) < minPasswordLength {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "PASSWORD_TOO_SHORT",
			"message": "パスワードは8文字以上で入力してください",
		})
		return
	}
	if len(pw) > password.MaxPasswordBytes {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "PASSWORD_TOO_LONG",
			"message": "パスワードは72バイト以内で入力してください",
		})
		return
	}

	userID, err := m.store.CreateUser(c.Request.Context(), email, pw)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			// 登録済みかどうか以上の詳細は返さない
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "EMAIL_TAKEN",
				"message": "このメールアドレスは既に登録されています。ログインをお試しください",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "STORE_FAILURE",
			"message": "ユーザー登録に失敗しました",
		})
		return
	}

	if err := m.Establish(c, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "SESSION_SAVE_FAILED",
			"message": "セッションの保存に失敗しました",
		})
		return
	}

	c.Redirect(http.StatusFound, profilePath)
}

// Login は POST /login のハンドラーです。
// メールアドレス不存在とパスワード不一致は同一のレスポンスを返します。
func (m *Manager) Login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	pw := c.PostForm("password")

	userID, ok, err := m.store.VerifyUser(c.Request.Context(), email, pw)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "STORE_FAILURE",
			"message": "ログイン処理に失敗しました",
		})
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    "INVALID_CREDENTIALS",
			"message": "メールアドレスまたはパスワードが正しくありません",
		})
		return
	}

	if err := m.Establish(c, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "SESSION_SAVE_FAILED",
			"message": "セッションの保存に失敗しました",
		})
		return
	}

	next := c.PostForm("next")
	if next == "" {
		next = c.Query("next")
	}
	c.Redirect(http.StatusFound, SafeNext(next, profilePath))
}

// Logout は POST /logout のハンドラーです。未ログインでも常に成功します。
func (m *Manager) Logout(c *gin.Context) {
	if err := m.ClearSession(c); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "SESSION_SAVE_FAILED",
			"message": "セッションの削除に失敗しました",
		})
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// Forgot は POST /forgot のハンドラーです。
// アカウントの有無を問わず同一の応答を返し、ストアの参照も行いません。
// リセットメールの送信は未実装のプレースホルダです。
func (m *Manager) Forgot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "そのメールアドレスが登録されていれば、リセット用のリンクをお送りします",
	})
}

// Me は GET /me のハンドラーです。RequireLogin の内側に配置します。
func (m *Manager) Me(c *gin.Context) {
	userID, ok := UserIDFromContext(c)
	if !ok {
		// RequireLogin を通らずに到達した場合は匿名として扱う
		c.Redirect(http.StatusFound, LoginPath)
		c.Abort()
		return
	}

	user, found, err := m.store.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "STORE_FAILURE",
			"message": "ユーザー情報の取得に失敗しました",
		})
		return
	}
	if !found {
		// セッションが残ったままユーザーが消えた場合はセッションを破棄する
		_ = m.ClearSession(c)
		c.Redirect(http.StatusFound, LoginPath)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":    user.ID,
		"email": user.Email,
	})
}
