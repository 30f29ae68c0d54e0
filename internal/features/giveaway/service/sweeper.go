// Package service hosts the background sweeper that settles ended giveaways
// without waiting for a manual trigger or a client poll.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"marketplace-backend/internal/features/giveaway/repository"
	"marketplace-backend/internal/features/giveaway/selection"
	redisplatform "marketplace-backend/internal/platform/redis"
)

// Locker is an advisory per-giveaway lock. It only reduces duplicate work
// across processes; correctness against double processing rests on the
// store's winner-set guard, not on this lock.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) error
	ReleaseLock(ctx context.Context, key string) error
}

// Sweeper periodically lists ended, unprocessed giveaways and runs selection
// for each of them.
type Sweeper struct {
	store    repository.Store
	selector *selection.Selector
	locker   Locker // may be nil
	interval time.Duration
	lockTTL  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSweeper(store repository.Store, selector *selection.Selector, locker Locker, interval, lockTTL time.Duration) *Sweeper {
	ctx, cancel := context.WithCancel(context.Background())
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if lockTTL <= 0 {
		lockTTL = time.Minute
	}
	return &Sweeper{
		store:    store,
		selector: selector,
		locker:   locker,
		interval: interval,
		lockTTL:  lockTTL,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the sweep loop.
func (s *Sweeper) Start() {
	log.Info().Dur("interval", s.interval).Msg("Starting giveaway sweeper")
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.Sweep(s.ctx); err != nil {
					log.Error().Err(err).Msg("Sweep failed")
				}
			case <-s.ctx.Done():
				return
			}
		}
	}()
}

// Stop terminates the loop and waits for it to exit.
func (s *Sweeper) Stop() {
	s.cancel()
	s.wg.Wait()
	log.Info().Msg("Giveaway sweeper stopped")
}

// Sweep runs selection for every due giveaway once. Failures on one
// giveaway do not block the rest.
func (s *Sweeper) Sweep(ctx context.Context) error {
	due, err := s.store.ListDue(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("list due giveaways: %w", err)
	}

	for _, id := range due {
		if err := s.sweepOne(ctx, id); err != nil {
			log.Error().Err(err).Str("giveaway_id", id).Msg("Failed to settle giveaway")
		}
	}
	return nil
}

func (s *Sweeper) sweepOne(ctx context.Context, id string) error {
	if s.locker != nil {
		lockKey := fmt.Sprintf("lock:giveaway:%s", id)
		if err := s.locker.AcquireLock(ctx, lockKey, s.lockTTL); err != nil {
			if errors.Is(err, redisplatform.ErrAlreadyLocked) {
				// Someone else is settling this giveaway right now.
				return nil
			}
			return err
		}
		defer func() {
			if err := s.locker.ReleaseLock(ctx, lockKey); err != nil {
				log.Warn().Err(err).Str("giveaway_id", id).Msg("Failed to release sweep lock")
			}
		}()
	}

	result, err := s.selector.Run(ctx, id, selection.RunOptions{})
	if err != nil {
		return err
	}

	log.Info().
		Str("giveaway_id", id).
		Str("outcome", string(result.Outcome)).
		Msg("Sweeper processed giveaway")
	return nil
}
