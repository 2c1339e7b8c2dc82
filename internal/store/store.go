// Package store はユーザーレコードの永続化を SQLite で提供します。
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/yourusername/authgate/internal/password"
)

// ErrDuplicateEmail は正規化済みメールアドレスが既に登録されている場合に返されます。
var ErrDuplicateEmail = errors.New("email already registered")

// User はユーザーの公開プロフィールです。パスワードハッシュは含みません。
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"createdAt"`
}

// Store はユーザーレコードを SQLite に保存します。
type Store struct {
	db *sql.DB

	// modernc.org/sqlite は同時書き込みをサポートしないため直列化する
	writeLock sync.Mutex
}

// New は Store を作成し、スキーマを初期化します。
// スキーマ初期化は冪等で、既存のデータベースに対して再実行しても安全です。
func New(databasePath string) (*Store, error) {
	if databasePath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := initSchema(db); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			email      TEXT    UNIQUE NOT NULL,
			pw_hash    TEXT    NOT NULL,
			created_at INTEGER NOT NULL
		)
	`)
	return err
}

// NormalizeEmail はメールアドレスを一意性判定と検索に使う形へ正規化します。
// 前後の空白を除去し、小文字に変換します。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser はユーザーを登録し、採番された ID を返します。
// メールアドレスは正規化してから保存し、パスワードはハッシュ化して保存します（平文は保存しません）。
// 正規化後のメールアドレスが重複する場合は ErrDuplicateEmail を返します。
func (s *Store) CreateUser(ctx context.Context, email string, plainPassword string) (int64, error) {
	normalized := NormalizeEmail(email)

	pwHash, err := password.Hash(plainPassword)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO users (email, pw_hash, created_at) VALUES (?, ?, ?)",
		normalized,
		pwHash,
		time.Now().Unix(),
	)
	if err != nil {
		var liteErr *sqlite.Error
		if errors.As(err, &liteErr) {
			// id は自動採番なので、一意性違反は email の UNIQUE 制約に限られる
			if liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
				return 0, fmt.Errorf("%w: %w", ErrDuplicateEmail, err)
			}
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	return id, nil
}

// VerifyUser は資格情報を検証し、一致すればユーザー ID を返します。
// 「存在しないメールアドレス」と「パスワード不一致」は呼び出し側から区別できません。
// どちらも ok=false になります（アカウント列挙への対策）。
func (s *Store) VerifyUser(ctx context.Context, email string, plainPassword string) (int64, bool, error) {
	normalized := NormalizeEmail(email)

	var (
		id     int64
		pwHash string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, pw_hash FROM users WHERE email = ?",
		normalized,
	).Scan(&id, &pwHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("query user: %w", err)
	}

	if !password.Verify(plainPassword, pwHash) {
		return 0, false, nil
	}

	return id, true, nil
}

// GetUserByID は ID でユーザーを検索します。見つからない場合は ok=false を返します。
func (s *Store) GetUserByID(ctx context.Context, id int64) (*User, bool, error) {
	var user User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, email, created_at FROM users WHERE id = ?",
		id,
	).Scan(&user.ID, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query user: %w", err)
	}

	return &user, true, nil
}

// Close はデータベース接続を閉じます。
func (s *Store) Close() error {
	return s.db.Close()
}
