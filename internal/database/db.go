// Package database はデータベース接続とマイグレーション管理を提供する。
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/hitoshi/usersvc/internal/config"
)

// Open は設定に応じたデータベース接続を開く。
// PostgreSQL設定が揃っている場合はlib/pq、フォールバック時はmodernc.org/sqliteを使用する。
// sql.Openは接続を試行しないため、実際の接続確認にはCheckHealthを使用すること。
func Open(cfg *config.Config) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch cfg.Driver {
	case config.DriverPostgres:
		db, err = sql.Open("postgres", cfg.DatabaseURL)
	case config.DriverSQLite:
		db, err = sql.Open("sqlite", cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLiteは単一ファイルのため書き込み接続を1本に制限する
	if cfg.Driver == config.DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	return db, nil
}

// CheckHealth は軽量なクエリを発行してデータベースの到達性を確認する。
// 失敗した場合は原因をログに記録し、エラーを伝播せずfalseを返す。
func CheckHealth(ctx context.Context, db *sql.DB) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var one int
	if err := db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		slog.Error("database health check failed", slog.String("error", err.Error()))
		return false
	}

	return true
}
