package cli

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"

	"github.com/tengjizhang/reader/internal/config"
	"github.com/tengjizhang/reader/internal/fetch"
	"github.com/tengjizhang/reader/internal/reader"
	"github.com/tengjizhang/reader/internal/render"
	"github.com/tengjizhang/reader/internal/store"
)

// App owns every long-lived dependency of one command invocation.
type App struct {
	db       *sql.DB
	handle   *store.Handle
	fetcher  *fetch.Fetcher
	engine   *reader.Engine
	renderer *render.Renderer
	log      *slog.Logger
}

func NewApp(cfg config.Config, logOut io.Writer) (*App, error) {
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	db, err := store.OpenDB(cfg.DBDriver, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	handle := store.NewHandle(store.NewStore(db, cfg.DBDriver))
	fetcher := fetch.NewFetcher(cfg, logger)
	engine := reader.NewEngine(handle, fetcher, reader.Options{
		Concurrency:  cfg.FetchConcurrency,
		ArticleLimit: cfg.ArticleLimit,
		Logger:       logger,
	})

	return &App{
		db:       db,
		handle:   handle,
		fetcher:  fetcher,
		engine:   engine,
		renderer: render.NewRenderer(),
		log:      logger,
	}, nil
}

func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func requireApp(getApp func() *App) (*App, error) {
	if app := getApp(); app != nil {
		return app, nil
	}
	return nil, errors.New("database is not open for this command")
}
