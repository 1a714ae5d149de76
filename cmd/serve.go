package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"warlockarena/game"
	"warlockarena/server"
	"warlockarena/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket server",
	Long: `Starts the game server. Settings come from WARLOCK_* environment
variables; flags given on the command line take precedence.`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.String("addr", ":8080", "server listen address, e.g. :8080")
	f.String("log-file", "app.log", "log file path, empty for stderr")
	f.String("log-level", "info", "log level (debug, info, warn, error)")
	f.String("catalog", "", "ability catalog YAML, empty for the built-in one")
	f.String("db", "warlock.db", "SQLite file for match history, empty to disable")
	f.String("static", "web", "directory with static web assets, empty to disable")
	f.Duration("round-timeout", time.Minute, "time players have to submit actions each round")
	rootCmd.AddCommand(serveCmd)
}

// overrideFromFlags 只覆盖命令行上显式给出的参数
func overrideFromFlags(cmd *cobra.Command, cfg *server.Config) {
	f := cmd.Flags()
	if f.Changed("addr") {
		cfg.Addr, _ = f.GetString("addr")
	}
	if f.Changed("log-file") {
		cfg.LogFile, _ = f.GetString("log-file")
	}
	if f.Changed("log-level") {
		cfg.LogLevel, _ = f.GetString("log-level")
	}
	if f.Changed("catalog") {
		cfg.CatalogPath, _ = f.GetString("catalog")
	}
	if f.Changed("db") {
		cfg.DBPath, _ = f.GetString("db")
	}
	if f.Changed("static") {
		cfg.StaticDir, _ = f.GetString("static")
	}
	if f.Changed("round-timeout") {
		cfg.RoundTimeout, _ = f.GetDuration("round-timeout")
	}
}

func loadCatalog(path string) (*game.Catalog, error) {
	if path == "" {
		return game.DefaultCatalog()
	}
	return game.LoadCatalogFile(path)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := server.LoadConfig()
	if err != nil {
		return err
	}
	overrideFromFlags(cmd, &cfg)
	if cfg.RoundTimeout <= 0 {
		return fmt.Errorf("round timeout must be positive, got %s", cfg.RoundTimeout)
	}

	// 使用第三方 zap 日志库写入日志文件（带滚动）
	if err := server.InitLogger(cfg.LogFile, cfg.LogLevel); err != nil {
		return err
	}
	defer server.SyncLogger()

	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	var history server.HistoryRecorder
	if cfg.DBPath != "" {
		store, err := storage.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
		history = store
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rm := server.NewRoomManager(ctx, catalog, cfg, history)
	// 先预创建一个默认房间，便于快速试跑
	_ = rm.GetOrCreateRoom(server.DefaultRoomID)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           rm.Routes(cfg.StaticDir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		server.Log.Infof("WarlockArena listening on %s; open http://localhost%v/", cfg.Addr, cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		// 优雅退出（Ctrl+C）
		<-gctx.Done()
		server.Log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
