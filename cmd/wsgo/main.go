package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/wsgo/server/internal/auth"
	"github.com/wsgo/server/internal/config"
	"github.com/wsgo/server/internal/data"
	"github.com/wsgo/server/internal/handler"
	gonet "github.com/wsgo/server/internal/net"
	"github.com/wsgo/server/internal/net/packet"
	"github.com/wsgo/server/internal/persist"
	"github.com/wsgo/server/internal/scripting"
	"github.com/wsgo/server/internal/system"
	"github.com/wsgo/server/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, build uint32) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             wsgo  v0.1.0                  \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      WildStar · Go 世界伺服器             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m伺服器:\033[0m %s \033[90m(build: %d)\033[0m\n\n", serverName, build)
}

func printSection(title string) {
	displayWidth := 0
	for _, r := range title {
		if r > 0x7F {
			displayWidth += 2
		} else {
			displayWidth++
		}
	}
	lineLen := 46 - displayWidth - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfg, err := config.Load("config/server.toml")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.Build)

	// 3. Connect to PostgreSQL and run migrations
	printSection("資料庫")

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer bootCancel()

	db, err := persist.NewDB(bootCtx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK("PostgreSQL 連線成功")

	if err := persist.RunMigrations(bootCtx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK("資料庫遷移完成")
	fmt.Println()

	accountRepo := persist.NewAccountRepo(db)
	charRepo := persist.NewCharacterRepo(db)
	saveQueue := persist.NewSaveQueue(charRepo, log)

	// 4. Load static data and scripts
	printSection("資料載入")

	static, err := data.LoadAll("data/yaml", log)
	if err != nil {
		return fmt.Errorf("load static data: %w", err)
	}
	printOK(fmt.Sprintf("靜態資料載入完成 (生物 %d / 法術 %d / 地圖 %d)",
		static.Creatures.Count(), static.Spells.Count(), static.Zones.Count()))

	luaEngine, err := scripting.NewEngine("scripts", log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("Lua 腳本載入完成")
	fmt.Println()

	// 5. World state: directory, zone supervisor, tick pipeline
	directory := world.NewDirectory()
	supervisor := world.NewSupervisor(cfg, static, &directory.Alloc, log)
	supervisor.TickFunc = system.NewPipeline()

	sessions := auth.NewSessionStore(cfg.Network.SessionTTL)

	// 6. Packet registry and handlers
	pktReg := packet.NewRegistry(log)
	deps := &handler.Deps{
		AccountRepo: accountRepo,
		CharRepo:    charRepo,
		SaveQueue:   saveQueue,
		Sessions:    sessions,
		Config:      cfg,
		Log:         log,
		Directory:   directory,
		Zones:       supervisor,
		Static:      static,
		Scripting:   luaEngine,
	}
	handler.RegisterAll(pktReg, deps)

	// 7. Network server
	srv := gonet.NewServer(cfg.Network.BindAddress, pktReg, log)
	srv.OutQueueSize = cfg.Network.OutQueueSize
	srv.WriteTimeout = cfg.Network.WriteTimeout
	if cfg.RateLimit.Enabled {
		srv.PacketsPerSec = cfg.RateLimit.PacketsPerSecond
	}
	srv.OnSession = func(sess *gonet.Session) {
		sess.SetOnClose(func(sess *gonet.Session) {
			handler.Logout(sess, deps)
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(gctx) })
	g.Go(func() error { saveQueue.Run(gctx); return nil })
	g.Go(func() error { return housekeeping(gctx, cfg, sessions, supervisor, saveQueue, deps) })

	printSection("伺服器就緒")
	printReady(fmt.Sprintf("監聽位址 %s", cfg.Network.BindAddress))
	printReady(fmt.Sprintf("地圖 tick %s / 自動存檔 %s", cfg.World.TickRate, cfg.World.AutosaveInterval))
	fmt.Println()

	err = g.Wait()
	supervisor.StopAll()
	saveQueue.Wait()
	log.Info("伺服器已停止")
	return err
}

// housekeeping sweeps expired auth sessions and autosaves online players.
func housekeeping(ctx context.Context, cfg *config.Config, sessions *auth.SessionStore, supervisor *world.Supervisor, saveQueue *persist.SaveQueue, deps *handler.Deps) error {
	sweep := time.NewTicker(time.Minute)
	defer sweep.Stop()
	autosave := time.NewTicker(cfg.World.AutosaveInterval)
	defer autosave.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sweep.C:
			if n := sessions.Sweep(); n > 0 {
				deps.Log.Debug("清除過期會話", zap.Int("count", n))
			}
		case <-autosave.C:
			handler.AutosaveAll(supervisor, deps)
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
