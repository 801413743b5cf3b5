package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"carbon/internal/amqp"
	"carbon/internal/backend"
	"carbon/internal/cli"
	"carbon/internal/config"
	apphttp "carbon/internal/http"
	"carbon/internal/log"
	gsheet "carbon/internal/sheets/google"
	"carbon/internal/worker"
)

const shutdownTimeout = 30 * time.Second

// App carries the configuration and logger shared by every subcommand.
type App struct {
	loadConfig func() (*config.Config, error)
	newFactory func(*log.Logger) backend.Factory
	logOutput  io.Writer

	cfg    *config.Config
	logger *log.Logger
}

// NewApp returns an App that reads .env and the process environment.
func NewApp() *App {
	return &App{
		loadConfig: func() (*config.Config, error) {
			if err := cli.LoadEnvFile(); err != nil {
				return nil, fmt.Errorf("load .env: %w", err)
			}
			return cli.LoadAndValidateConfig()
		},
		newFactory: func(l *log.Logger) backend.Factory { return backend.NewFactory(l) },
		logOutput:  os.Stderr,
	}
}

// init loads configuration once and builds the logger.
func (a *App) init() error {
	if a.cfg != nil {
		return nil
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cli.SetupLogger(cfg.LogLevel, a.logOutput)
	return nil
}

// openBackend builds the ledger configured for this process. The caller must
// run Cleanup on the result.
func (a *App) openBackend(ctx context.Context) (*backend.BackendResult, error) {
	if err := a.init(); err != nil {
		return nil, err
	}
	bc, err := backend.FromAppConfig(a.cfg)
	if err != nil {
		return nil, err
	}
	res, err := a.newFactory(a.logger).CreateBackend(ctx, bc)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}
	return res, nil
}

// Serve runs the web UI until ctx is cancelled or SIGINT/SIGTERM arrives.
func (a *App) Serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := a.openBackend(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			a.logger.Warn("Backend cleanup failed", log.FieldError, err.Error())
		}
	}()

	srv := apphttp.NewServer(apphttp.Config{
		Addr:          ":" + a.cfg.Port,
		DailyTargetKg: a.cfg.DailyTargetKg,
		Logger:        a.logger,
	}, res.Service)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("Starting carbon server",
			"port", a.cfg.Port,
			log.FieldBackend, a.cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info("Server stopped gracefully")
	return nil
}

// Events prints ledger events from the configured queue until interrupted.
// With mirror set, each activity is also appended to the Sheets mirror.
func (a *App) Events(ctx context.Context, out io.Writer, mirror bool) error {
	if err := a.init(); err != nil {
		return err
	}
	if !a.cfg.AMQPEnabled() {
		return errors.New("AMQP_URL is not set")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var mw *worker.MirrorWorker
	if mirror {
		if !a.cfg.SheetsEnabled() {
			return errors.New("GOOGLE_SPREADSHEET_ID is not set")
		}
		sheetsClient, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:      a.cfg.GoogleSpreadsheetID,
			SheetName:          a.cfg.GoogleSheetName,
			ServiceAccountJSON: a.cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: a.cfg.GoogleServiceAccountFile,
		}, a.logger)
		if err != nil {
			return fmt.Errorf("initialize Google Sheets client: %w", err)
		}
		if err := sheetsClient.EnsureHeader(ctx); err != nil {
			a.logger.Warn("Could not prepare mirror sheet", log.FieldError, err.Error())
		}
		mw = worker.NewMirrorWorker(sheetsClient, a.logger)
		a.logger.Info("Google Sheets client initialized", "spreadsheet_id", a.cfg.GoogleSpreadsheetID)
	}

	client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue, a.logger)
	if err != nil {
		return err
	}
	defer client.Close()

	err = client.Consume(ctx, func(ev *amqp.LedgerEvent) error {
		if err := printEvent(out, ev); err != nil {
			return err
		}
		if mw != nil {
			return mw.HandleEvent(ctx, ev)
		}
		return nil
	})
	if mw != nil {
		st := mw.Stats()
		a.logger.Info("Worker shutdown complete",
			"processed", st.Processed,
			"mirrored", st.Mirrored,
			"failed", st.Failed)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
