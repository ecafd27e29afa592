package container

import (
	"context"
	"fmt"
	"os"

	"subsetlens/adapters/tabular"
	"subsetlens/app"
	"subsetlens/domain/dataset"
	"subsetlens/internal"
	"subsetlens/internal/config"
	"subsetlens/internal/errors"
	"subsetlens/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	Loader   ports.DatasetLoader
	Dataset  *dataset.Dataset
	Explorer *app.ExplorerService
	Worker   *app.Worker
	Sessions *app.SessionManager
}

// New creates a new dependency injection container. The dataset named by
// DATA_FILE is loaded when set; otherwise every request must carry its own.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel), os.Stderr)
	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Loader:   tabular.NewLoader(cfg.Data.Sheet, logger),
		Sessions: app.NewSessionManager(),
	}

	if cfg.Data.File != "" {
		ds, err := c.Loader.Load(ctx, cfg.Data.File)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load %s", cfg.Data.File)
		}
		c.Dataset = ds
	}

	if err := c.initExplorer(); err != nil {
		return nil, err
	}
	return c, nil
}

// WithDataset replaces the loaded dataset and rebuilds the explorer
func (c *Container) WithDataset(ds *dataset.Dataset) error {
	c.Dataset = ds
	return c.initExplorer()
}

func (c *Container) initExplorer() error {
	explorer, err := app.NewExplorerService(c.Dataset, c.Config.Search, c.Logger)
	if err != nil {
		return errors.Wrap(err, "failed to create explorer")
	}
	c.Explorer = explorer
	c.Worker = app.NewWorker(explorer, c.Logger)
	return nil
}

// Run sends req through the worker and waits for its response. The returned
// error is the response's Err, or the context error when ctx ends first.
func (c *Container) Run(ctx context.Context, req app.Request) (app.Response, error) {
	requests := make(chan app.Request, 1)
	requests <- req
	close(requests)

	resp, ok := <-c.Worker.Serve(ctx, requests)
	if !ok {
		return app.Response{ID: req.ID, Op: req.Op}, errors.WithCode(errors.CodeCancelled, ctx.Err())
	}
	return resp, resp.Err
}
