package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rewired-gh/usercube/internal/config"
	"github.com/rewired-gh/usercube/internal/cube"
	"github.com/rewired-gh/usercube/internal/explorer"
	"github.com/rewired-gh/usercube/internal/logger"
	"github.com/rewired-gh/usercube/internal/models"
	"github.com/rewired-gh/usercube/internal/records"
	"github.com/rewired-gh/usercube/internal/source"
	"github.com/rewired-gh/usercube/internal/storage"
)

// app bundles what every command needs.
type app struct {
	cfg    *config.Config
	store  *storage.Storage
	source *source.Client
}

func newApp(cfg *config.Config) (*app, error) {
	store, err := storage.New(cfg.Storage.MaxDatasets, cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return &app{
		cfg:   cfg,
		store: store,
		source: source.NewClient(source.ClientConfig{
			Timeout:        cfg.Source.Timeout,
			MaxRetries:     cfg.Source.MaxRetries,
			RetryDelayBase: cfg.Source.RetryDelayBase,
		}),
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		logger.Error("Failed to close storage: %v", err)
	}
}

func (a *app) schema() models.Schema {
	ds := a.cfg.Dataset
	return models.Schema{
		EntityField:   ds.EntityField,
		TimeField:     ds.TimeField,
		CategoryField: ds.CategoryField,
		DurationField: ds.DurationField,
	}.WithDefaults()
}

func (a *app) cubeOptions() cube.Options {
	return cube.Options{
		Categories: a.cfg.Dataset.Categories,
		PageSize:   a.cfg.Dataset.PageSize,
		Schema:     a.schema(),
	}
}

// importDataset fetches location and stores it as a new dataset.
func (a *app) importDataset(ctx context.Context, location string) (*models.Dataset, error) {
	if location == "" {
		location = a.cfg.Dataset.Source
	}
	raw, err := a.source.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}

	d := &models.Dataset{
		ID:       uuid.New().String(),
		Name:     a.cfg.Dataset.Name,
		Source:   location,
		Raw:      raw,
		RowCount: len(records.Parse(raw, a.schema())),
		LoadedAt: time.Now(),
	}
	if err := a.store.AddDataset(d); err != nil {
		return nil, fmt.Errorf("failed to store dataset: %w", err)
	}
	logger.Info("Imported dataset %s from %s (%d rows)", d.ID, location, d.RowCount)

	removed, err := a.store.RotateDatasets()
	if err != nil {
		logger.Warn("Failed to rotate datasets: %v", err)
	} else if removed > 0 {
		logger.Info("Rotated %d old datasets", removed)
	}
	return d, nil
}

// loadDataset returns the dataset with the given id, or the latest one. With
// nothing stored yet the configured source is imported first.
func (a *app) loadDataset(ctx context.Context, id string) (*models.Dataset, error) {
	if id != "" {
		return a.store.GetDataset(id)
	}
	d, err := a.store.LatestDataset()
	if errors.Is(err, storage.ErrNotFound) {
		logger.Info("No stored dataset, importing %s", a.cfg.Dataset.Source)
		return a.importDataset(ctx, "")
	}
	return d, err
}

// openExplorer builds the cube of a dataset and restores its last session.
func (a *app) openExplorer(d *models.Dataset) *explorer.Explorer {
	c := cube.BuildFromText(d.Raw, a.cubeOptions())
	logger.Debug("Built cube for %s: %d cells, %d users, %d pages",
		d.ID, len(c.Cells), len(c.Entities), c.PageCount())

	e := explorer.New(c, explorer.Options{
		DatasetID:         d.ID,
		PreferredCategory: a.cfg.Dataset.PreferredCategory,
		CategoryLabels:    a.cfg.Dataset.CategoryLabels,
	})

	s, err := a.store.LatestSession(d.ID)
	switch {
	case err == nil:
		e.Restore(*s)
		logger.Debug("Restored session %s (filter=%q selected=%q)", s.ID, s.Filter, s.SelectedCell)
	case !errors.Is(err, storage.ErrNotFound):
		logger.Warn("Failed to load session for %s: %v", d.ID, err)
	}
	return e
}

// reload refetches the dataset's source into a new dataset and swaps it into e.
func (a *app) reload(ctx context.Context, e *explorer.Explorer, location string) error {
	d, err := a.importDataset(ctx, location)
	if err != nil {
		return err
	}
	e.Reload(cube.BuildFromText(d.Raw, a.cubeOptions()), d.ID)
	a.saveSession(e)
	return nil
}

func (a *app) saveSession(e *explorer.Explorer) {
	s := e.Session()
	if err := a.store.SaveSession(&s); err != nil {
		logger.Warn("Failed to save session %s: %v", s.ID, err)
	}
}
