// Package app はアプリケーションの起動・終了ライフサイクルと依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/usersvc/internal/config"
	"github.com/hitoshi/usersvc/internal/database"
	"github.com/hitoshi/usersvc/internal/handler"
	"github.com/hitoshi/usersvc/internal/logger"
	"github.com/hitoshi/usersvc/internal/metrics"
	"github.com/hitoshi/usersvc/internal/repository"
	"github.com/hitoshi/usersvc/internal/user"
)

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("driver", cfg.Driver),
		slog.String("port", cfg.ServerPort),
	)

	// SQLiteフォールバックは開発・テスト専用。本番で意図せず使われないよう必ず警告する。
	if cfg.Driver == config.DriverSQLite {
		slog.Warn("database configuration incomplete, falling back to local SQLite store (development/testing only)",
			slog.String("path", cfg.SQLitePath),
		)
	}

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// dbHealthChecker は*sql.DBをhandler.HealthCheckerへ適合させる。
type dbHealthChecker struct {
	db *sql.DB
}

func (c *dbHealthChecker) CheckHealth(ctx context.Context) bool {
	return database.CheckHealth(ctx, c.db)
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// 2. 起動時ヘルスチェック
	// 接続できなくても起動は継続する。状態は/healthエンドポイントが反映する。
	startupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if database.CheckHealth(startupCtx, db) {
		slog.Info("database connection established")
	} else {
		slog.Error("database is unreachable at startup, continuing anyway")
	}
	cancel()

	// 3. スキーマの保証（冪等）
	// 失敗してもサーバーは起動させ、リクエスト時のクエリ失敗として表面化させる。
	if err := database.EnsureSchema(cfg); err != nil {
		slog.Error("failed to ensure schema", slog.String("error", err.Error()))
	} else {
		slog.Info("database schema verified")
	}

	// 4. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 5. リポジトリとサービスの初期化
	var userRepo repository.UserRepository
	if cfg.Driver == config.DriverPostgres {
		userRepo = repository.NewPostgresUserRepo(db)
	} else {
		userRepo = repository.NewSQLiteUserRepo(db)
	}
	userService := user.NewService(userRepo, collector)

	// 6. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		Metrics:           collector,
		Gatherer:          registry,
		HealthChecker:     &dbHealthChecker{db: db},
		UserService:       userService,
	})

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションのみを実行して終了する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("driver", cfg.Driver),
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.EnsureSchema(cfg); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if url == "" {
		return "(sqlite)"
	}
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
