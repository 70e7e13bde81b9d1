package worker

import (
	"context"
	"time"

	"github.com/ArowuTest/marketplace-backend/internal/repositories"
	"github.com/sirupsen/logrus"
)

// BlacklistSweeper periodically clears blacklist fields whose expiry has
// passed. The gating check already ignores expired entries, so the sweep
// only keeps stored data tidy.
type BlacklistSweeper struct {
	sellers  repositories.SellerRepository
	interval time.Duration
	now      func() time.Time
	log      logrus.FieldLogger
}

// NewBlacklistSweeper creates a sweeper that runs every interval
func NewBlacklistSweeper(sellers repositories.SellerRepository, interval time.Duration, logger logrus.FieldLogger) *BlacklistSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &BlacklistSweeper{
		sellers:  sellers,
		interval: interval,
		now:      time.Now,
		log:      logger.WithField("worker", "blacklist-sweeper"),
	}
}

// Start runs the sweep loop until ctx is cancelled. Blocking call.
func (w *BlacklistSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.log.WithField("interval", w.interval.String()).Info("worker started")
	for {
		select {
		case <-ctx.Done():
			w.log.Info("context cancelled, stopping")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs one pass and returns the number of sellers cleared
func (w *BlacklistSweeper) Sweep(ctx context.Context) int64 {
	cleared, err := w.sellers.ClearExpiredBlacklists(ctx, w.now().UTC())
	if err != nil {
		w.log.WithError(err).Error("sweep failed")
		return 0
	}
	if cleared > 0 {
		w.log.WithField("cleared", cleared).Info("expired blacklists cleared")
	}
	return cleared
}
