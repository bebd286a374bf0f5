// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the background sweeper that physically
// removes expired rooms and items. The read-side expiry filters already hide
// expired rows, so the sweeper is purely a storage-reclamation loop and its
// timing is not part of the visibility contract.
package repo

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Sweeper periodically purges expired rooms and food items.
type Sweeper struct {
	DB       *gorm.DB
	Interval time.Duration
}

// NewSweeper returns a sweeper running every interval (minimum 1s).
func NewSweeper(db *gorm.DB, interval time.Duration) *Sweeper {
	if interval < time.Second {
		interval = time.Second
	}
	return &Sweeper{DB: db, Interval: interval}
}

// Run blocks, purging on every tick until the context is cancelled. Purge
// failures are logged and retried on the next tick; they never stop the loop.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := PurgeExpired(ctx, s.DB, now.UTC())
			if err != nil {
				log.Error().Err(err).Msg("ttl sweep failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("rows", n).Msg("ttl sweep purged expired records")
			}
		}
	}
}
