package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultInterval matches the provider's update rate
const DefaultInterval = 5 * time.Minute

// Refresher is polled on every tick
type Refresher interface {
	Refresh(ctx context.Context)
}

type Scheduler struct {
	ctx       context.Context
	refresher Refresher
	interval  time.Duration
	timeout   time.Duration
	logger    *logrus.Logger
	cron      *cron.Cron
}

// NewScheduler polls refresher every interval. Each poll gets its own
// context bounded by timeout and derived from ctx.
func NewScheduler(ctx context.Context, refresher Refresher, interval, timeout time.Duration, logger *logrus.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 || timeout > interval {
		timeout = interval
	}
	return &Scheduler{
		ctx:       ctx,
		refresher: refresher,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DiscardLogger),
		)),
	}
}

// Start polls once right away and then on every interval
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), s.poll)
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"interval": s.interval.String(),
	}).Info("Starting poll schedule")

	s.poll()
	s.cron.Start()
	return nil
}

func (s *Scheduler) poll() {
	if s.ctx.Err() != nil {
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	s.refresher.Refresh(ctx)
}

// Stop the scheduler and wait for a running poll to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
