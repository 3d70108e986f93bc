package workers

import (
	"context"
	"time"

	"sqlquest/logger"
	"sqlquest/services"
)

// ObjectFetcher is satisfied by utils.R2Client.
type ObjectFetcher interface {
	FetchObject(ctx context.Context, key, etag string) (body []byte, newETag string, changed bool, err error)
}

// CatalogSyncWorker re-imports the published catalog whenever the object's
// ETag changes.
type CatalogSyncWorker struct {
	Fetcher  ObjectFetcher
	Catalog  *services.CatalogService
	Key      string
	Interval time.Duration
	Log      *logger.Logger

	lastETag string
}

func NewCatalogSyncWorker(fetcher ObjectFetcher, catalog *services.CatalogService, key string, interval time.Duration, log *logger.Logger) *CatalogSyncWorker {
	return &CatalogSyncWorker{Fetcher: fetcher, Catalog: catalog, Key: key, Interval: interval, Log: log}
}

// SyncOnce imports the object if it changed. The ETag only advances after a
// successful import, so a bad upload is retried on every tick until fixed.
func (w *CatalogSyncWorker) SyncOnce(ctx context.Context) (bool, error) {
	body, etag, changed, err := w.Fetcher.FetchObject(ctx, w.Key, w.lastETag)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}
	stats, err := w.Catalog.ImportBytes(ctx, body)
	if err != nil {
		return false, err
	}
	w.lastETag = etag
	w.Log.Info("catalog synced from object storage",
		"key", w.Key,
		"etag", etag,
		"content_items", stats.ContentItems,
	)
	return true, nil
}

// Run syncs once immediately, then on every tick until ctx is cancelled.
func (w *CatalogSyncWorker) Run(ctx context.Context) {
	w.Log.Info("starting catalog sync", "key", w.Key, "interval", w.Interval.String())
	if _, err := w.SyncOnce(ctx); err != nil {
		w.Log.Error("catalog sync failed", "error", err)
	}

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Log.Info("catalog sync stopped")
			return
		case <-ticker.C:
			if _, err := w.SyncOnce(ctx); err != nil {
				w.Log.Error("catalog sync failed", "error", err)
			}
		}
	}
}
