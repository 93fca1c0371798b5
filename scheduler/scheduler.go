package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/petar-nikolic125/hmo-finder-live/config"
)

// RunFunc refreshes one city's listings.
type RunFunc func(ctx context.Context, city string)

// Scheduler re-scrapes the configured cities on a cron expression or fixed
// interval while the server is running.
type Scheduler struct {
	cfg    config.RefreshConfig
	run    RunFunc
	cron   *cron.Cron
	ticker *time.Ticker
	stopCh chan struct{}
}

func New(cfg config.RefreshConfig, run RunFunc) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		run:    run,
		cron:   cron.New(),
		stopCh: make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.cfg.Cities) == 0 {
		log.Println("scheduler: no refresh cities configured, idle")
		return nil
	}

	switch {
	case s.cfg.Cron != "":
		log.Printf("scheduler: cron %q for %d cities", s.cfg.Cron, len(s.cfg.Cities))
		if _, err := s.cron.AddFunc(s.cfg.Cron, func() { s.refreshAll(ctx) }); err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
	case s.cfg.Interval > 0:
		log.Printf("scheduler: interval %s for %d cities", s.cfg.Interval, len(s.cfg.Cities))
		s.ticker = time.NewTicker(s.cfg.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					s.refreshAll(ctx)
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	default:
		log.Println("scheduler: no cron or interval configured, idle")
	}

	return nil
}

func (s *Scheduler) refreshAll(ctx context.Context) {
	for _, city := range s.cfg.Cities {
		if ctx.Err() != nil {
			return
		}
		log.Printf("scheduler: refreshing %s", city)
		s.run(ctx, city)
	}
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
}
