// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// defaultSessionSecret はローカル開発専用の署名鍵です。release モードでは使用できません。
const defaultSessionSecret = "dev-change-me"

// Config はアプリケーションの設定を保持する構造体です。
// 起動時に一度だけ構築され、以降は読み取り専用として扱います。
type Config struct {
	// サーバー設定
	Port    string // APIサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)

	// セッション設定
	SessionSecret string // セッションクッキー署名用の秘密鍵
	CookieSecure  bool   // Secure属性を付与するか（HTTPS配信時のみ有効にする）

	// データベース設定
	DatabasePath string // SQLiteデータベースファイルのパス

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	// .env.local ファイルを読み込む（存在しない場合はスキップ）
	loadEnvFile()

	config := &Config{
		// サーバー設定
		Port:    getEnv("PORT", "7059"),
		GinMode: getEnv("GIN_MODE", "debug"),

		// セッション設定
		SessionSecret: getEnv("SESSION_SECRET", defaultSessionSecret),
		CookieSecure:  getEnv("COOKIE_SECURE", "0") == "1",

		// データベース設定
		DatabasePath: getEnv("AUTH_DB", "auth.db"),

		// CORS設定
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
	}

	// 必須設定のバリデーション
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	// ローカル開発では開発用の署名鍵を許容する
	// 本番環境では明示的な鍵の設定を必須とする
	if c.GinMode == "release" {
		if c.SessionSecret == "" || c.SessionSecret == defaultSessionSecret {
			return fmt.Errorf("SESSION_SECRET is required in release mode")
		}
		if c.DatabasePath == "" {
			return fmt.Errorf("AUTH_DB is required in release mode")
		}
	}

	return nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
