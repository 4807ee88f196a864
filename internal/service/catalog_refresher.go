package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/EldonT123/bs-reviews/internal/model"
	"github.com/EldonT123/bs-reviews/internal/repository"
)

// CatalogRefresher regenerates catalog_cache.json in the background.  The
// cache is a plain serialization of every movie's metadata, refreshed on an
// interval independent of request handling.  Refresh failures are logged
// and never fatal; the next tick simply tries again.
type CatalogRefresher struct {
	Movies   *repository.MovieRepo
	Path     string
	Interval time.Duration
	Log      *zap.Logger
}

func NewCatalogRefresher(movies *repository.MovieRepo, dataDir string, interval time.Duration, log *zap.Logger) *CatalogRefresher {
	return &CatalogRefresher{
		Movies:   movies,
		Path:     filepath.Join(dataDir, "catalog_cache.json"),
		Interval: interval,
		Log:      log,
	}
}

// Start runs the refresh loop until the context is cancelled.  One refresh
// happens immediately so the cache exists shortly after startup.
func (c *CatalogRefresher) Start(ctx context.Context) {
	go func() {
		if err := c.Refresh(); err != nil {
			c.Log.Warn("catalog refresh failed", zap.Error(err))
		}
		ticker := time.NewTicker(c.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.Refresh(); err != nil {
					c.Log.Warn("catalog refresh failed", zap.Error(err))
				}
			}
		}
	}()
}

// Refresh rebuilds the cache file once.  A movie folder with unreadable
// metadata is skipped so one corrupt folder cannot poison the cache.
func (c *CatalogRefresher) Refresh() error {
	folders, err := c.Movies.List()
	if err != nil {
		return err
	}
	summaries := []model.MovieSummary{}
	for _, folder := range folders {
		meta, err := c.Movies.GetMetadata(folder)
		if err != nil {
			c.Log.Warn("catalog refresh: skipping movie", zap.String("folder", folder), zap.Error(err))
			continue
		}
		summaries = append(summaries, model.MovieSummary{Folder: folder, Metadata: meta})
	}

	b, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.Path), filepath.Base(c.Path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.Path)
}
