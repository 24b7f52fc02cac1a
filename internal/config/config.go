// Package config は環境変数からのアプリケーション設定読み込みを提供する。
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// データベースドライバ名。
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	Driver      string // DriverPostgres または DriverSQLite
	DatabaseURL string // PostgreSQL接続URL。SQLiteの場合は空。
	SQLitePath  string // SQLiteフォールバック時のファイルパス

	// Server
	ServerPort      string
	ShutdownTimeout time.Duration

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
//
// データベース接続は user / password / host / db_port / dbname の5変数が
// すべて設定されている場合のみPostgreSQLを使用する。1つでも欠けている場合は
// ローカル開発・テスト用のSQLiteファイルにフォールバックする。
// フォールバックの判断は呼び出し側（app）が起動ログに明示する。
func Load() (*Config, error) {
	cfg := &Config{}

	dbUser := os.Getenv("user")
	dbPassword := os.Getenv("password")
	dbHost := os.Getenv("host")
	dbPort := os.Getenv("db_port")
	dbName := os.Getenv("dbname")

	if dbUser != "" && dbPassword != "" && dbHost != "" && dbPort != "" && dbName != "" {
		cfg.Driver = DriverPostgres
		cfg.DatabaseURL = buildPostgresURL(dbUser, dbPassword, dbHost, dbPort, dbName)
	} else {
		cfg.Driver = DriverSQLite
		cfg.SQLitePath = getEnvString("SQLITE_PATH", "./test_local.db")
	}

	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	if _, err := strconv.Atoi(cfg.ServerPort); err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT %q: %w", cfg.ServerPort, err)
	}

	return cfg, nil
}

// buildPostgresURL はlib/pq用のPostgreSQL接続URLを構築する。
// 認証情報はURLエスケープし、マネージドDB前提でsslmode=requireを指定する。
func buildPostgresURL(user, password, host, port, dbname string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     host + ":" + port,
		Path:     "/" + dbname,
		RawQuery: "sslmode=require",
	}
	return u.String()
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
