package files

import (
	"context"
	"time"

	"github.com/musicjacker/backend/internal/storage"
	"github.com/musicjacker/backend/pkg/logger"
)

// Sweeper periodically removes expired entries from every configured
// store, catching artifacts whose download link was never used.
type Sweeper struct {
	drivers  []storage.Driver
	interval time.Duration
	logger   logger.Logger
}

func NewSweeper(interval time.Duration, log logger.Logger, drivers ...storage.Driver) *Sweeper {
	return &Sweeper{drivers: drivers, interval: interval, logger: log}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, driver := range s.drivers {
				removed, err := driver.Sweep()
				if err != nil {
					s.logger.Warnf("sweep of %s failed: %v", driver.Base(), err)
					continue
				}
				if removed > 0 {
					s.logger.Infof("swept %d expired entries from %s", removed, driver.Base())
				}
			}
		}
	}
}
