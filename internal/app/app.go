// Package app assembles the agent: storage, transport, dispatcher,
// background task registry and the health endpoint.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmhodges/clock"
	"go.uber.org/zap"

	"github.com/Lex6452/lp/assets"
	"github.com/Lex6452/lp/internal/config"
	"github.com/Lex6452/lp/internal/dispatch"
	"github.com/Lex6452/lp/internal/handlers"
	"github.com/Lex6452/lp/internal/lookup"
	"github.com/Lex6452/lp/internal/media"
	"github.com/Lex6452/lp/internal/store"
	"github.com/Lex6452/lp/internal/tasks"
	"github.com/Lex6452/lp/internal/telegram"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	api     *tgbotapi.BotAPI
	httpSrv *http.Server
	repo    store.Repo
	router  *telegram.Router
	tasks   *tasks.Registry
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	api.Debug = false

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, api: api, httpSrv: srv}, nil
}

// openRepo picks the storage backend from configuration.
func openRepo(ctx context.Context, cfg config.Config) (store.Repo, error) {
	switch cfg.DBDriver {
	case "sqlite", "":
		return store.OpenSQLite(ctx, cfg.DBPath)
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, errors.New("POSTGRES_DSN is required with DB_DRIVER=postgres")
		}
		return store.OpenPostgres(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting agent",
		zap.Int64("owner", a.cfg.OwnerID),
		zap.String("db", a.cfg.DBDriver),
		zap.String("http", a.cfg.HTTPAddr),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := openRepo(ctx, a.cfg)
	if err != nil {
		a.log.Error("open store failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("store ready")

	if err := os.MkdirAll(a.cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	bot := telegram.NewBot(a.api, a.log)
	disp := dispatch.New(a.log, repo, repo, bot)
	a.router = telegram.NewRouter(a.log, bot, a.cfg.OwnerID, disp)

	clk := clock.New()
	a.tasks = tasks.NewRegistry(a.log, clk)

	look := lookup.New(a.log, a.cfg.WeatherAPIKey, a.cfg.WhoisAPIKey)
	look.NasaKey = a.cfg.NasaAPIKey

	deps := &handlers.Deps{
		Log:        a.log,
		Repo:       repo,
		API:        bot,
		Tasks:      a.tasks,
		Look:       look,
		Media:      media.NewTranscoder(a.cfg.FFmpegPath, a.log),
		Clk:        clk,
		DataDir:    a.cfg.DataDir,
		TaskCtx:    ctx,
		TrapSet:    assets.TrapSet,
		TrapSprung: assets.TrapSprung,
		OnForeign:  a.router.OnForeign,
	}
	handlers.Register(disp, deps)

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			a.shutdown()
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}

func (a *App) shutdown() {
	// Background loops hold the run context, which is already canceled;
	// StopAll only waits for them to wind down.
	a.tasks.StopAll()

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err := a.httpSrv.Shutdown(shCtx)
	cancel()
	if err != nil {
		a.log.Warn("http server shutdown error", zap.Error(err))
	}

	if a.repo != nil {
		_ = a.repo.Close()
	}
}
