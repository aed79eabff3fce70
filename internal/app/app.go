package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/berendovychRB/easy-track/internal/config"
	"github.com/berendovychRB/easy-track/internal/i18n"
	"github.com/berendovychRB/easy-track/internal/scheduler"
	"github.com/berendovychRB/easy-track/internal/store"
	"github.com/berendovychRB/easy-track/internal/telegram"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	repo    *store.Store
	router  *telegram.Router
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting easy-track",
		zap.String("http", a.cfg.HTTPAddr),
		zap.String("tz", a.cfg.DefaultTZ),
	)

	loc, err := time.LoadLocation(a.cfg.DefaultTZ)
	if err != nil {
		a.log.Error("invalid DEFAULT_TZ", zap.Error(err), zap.String("tz", a.cfg.DefaultTZ))
		return err
	}

	// Open SQLite, run migrations, seed the system measurement types.
	repo, err := store.Open(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready")

	translator, err := i18n.New()
	if err != nil {
		a.log.Error("load translations failed", zap.Error(err))
		return err
	}

	a.router = telegram.NewRouter(a.bot, a.log, a.repo, translator)

	sched := scheduler.New(a.repo, a.log, a.router, translator, loc)
	sched.Start()

	maint, err := scheduler.NewMaintenance(a.repo, a.log, loc)
	if err != nil {
		sched.Stop()
		a.log.Error("maintenance setup failed", zap.Error(err))
		return err
	}
	maint.Start()

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")

			// Drain background work before the store goes away.
			sched.Stop()
			maint.Stop()

			// Create a short-lived shutdown context and cancel it immediately after use.
			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.httpSrv.Shutdown(shCtx)
			cancel()

			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}
			if a.repo != nil {
				_ = a.repo.Close()
			}
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}
