// Package sweep reconciles object storage against document metadata:
// objects no row references and older than a grace period are removed.
// The sweep is the backstop for uploads whose metadata insert failed after
// the bytes were already written.
package sweep

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dkravchenko/patienthub/internal/config"
	"github.com/dkravchenko/patienthub/internal/logging"
	"github.com/dkravchenko/patienthub/internal/repositories/repomanager"
	"github.com/dkravchenko/patienthub/internal/storage"
	"github.com/sethvargo/go-retry"
)

// keyPrefix is where document objects live in the bucket.
const keyPrefix = "patients/"

type Sweeper struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       storage.ObjectStore
	logger      logging.Logger
	interval    time.Duration
	grace       time.Duration
}

func NewSweeper(db *sql.DB, m repomanager.RepositoryManager, store storage.ObjectStore, cfg *config.Config, logger logging.Logger) *Sweeper {
	return &Sweeper{
		db:          db,
		repomanager: m,
		store:       store,
		logger:      logger,
		interval:    cfg.SweepInterval,
		grace:       cfg.SweepGracePeriod,
	}
}

// Run sweeps once immediately, then on every interval tick until ctx is
// canceled. Sweep failures are logged and do not stop the loop.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.SweepOnce(ctx); err != nil {
			s.logger.Error(ctx, "sweep failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// SweepOnce lists the bucket prefix, subtracts every key a metadata row
// references, and removes the unreferenced objects older than the grace
// period. The grace period keeps in-flight uploads, whose object lands
// before its row, out of reach.
func (s *Sweeper) SweepOnce(ctx context.Context) error {
	objects, err := s.listWithRetry(ctx)
	if err != nil {
		return fmt.Errorf("listing objects: %w", err)
	}

	keys, err := s.repomanager.Documents(s.db).ListStorageKeys(ctx)
	if err != nil {
		return fmt.Errorf("listing referenced keys: %w", err)
	}

	referenced := make(map[string]bool, len(keys))
	for _, k := range keys {
		referenced[k] = true
	}

	cutoff := time.Now().Add(-s.grace)
	removed := 0
	for _, obj := range objects {
		if referenced[obj.Key] || obj.LastModified.After(cutoff) {
			continue
		}
		if err := s.store.Remove(ctx, obj.Key); err != nil && !storage.IsNotFound(err) {
			s.logger.Warn(ctx, "removing orphan", "key", obj.Key, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info(ctx, "sweep removed orphans", "count", removed, "scanned", len(objects))
	}
	return nil
}

var newListBackoff = func() retry.Backoff {
	return retry.WithMaxRetries(3, retry.NewExponential(time.Second))
}

func (s *Sweeper) listWithRetry(ctx context.Context) ([]storage.ObjectInfo, error) {
	var objects []storage.ObjectInfo

	err := retry.Do(ctx, newListBackoff(), func(ctx context.Context) error {
		var err error
		objects, err = s.store.List(ctx, keyPrefix)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	return objects, err
}
