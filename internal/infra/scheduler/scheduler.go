package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/antsif-a/schizontology-bot/internal/domain/model"
	"github.com/antsif-a/schizontology-bot/internal/infra/logging"
)

// Resolver is the minimal interface the scheduler needs from the recipient resolver.
type Resolver interface {
	// Resolve looks up every configured recipient; a cached resolver refreshes
	// its entries as a side effect.
	Resolve(ctx context.Context) []model.Resolution
}

// Scheduler periodically re-resolves the recipient set so cached destinations
// are refreshed before they expire and stale ones are dropped.
type Scheduler struct {
	interval time.Duration
	resolver Resolver
	log      *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler constructs a scheduler that runs resolver.Resolve every `interval`.
// If interval <= 0 it defaults to 1 minute.
func NewScheduler(interval time.Duration, resolver Resolver, logger *zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Scheduler{
		interval: interval,
		resolver: resolver,
		log:      logger,
		done:     make(chan struct{}),
	}
}

// Start begins the scheduler loop in a background goroutine.
// Calling Start multiple times has no effect.
func (s *Scheduler) Start(parentCtx context.Context) {
	if s.ctx != nil {
		return
	}
	ctx, cancel := context.WithCancel(parentCtx)
	s.ctx = ctx
	s.cancel = cancel

	go s.loop()
}

func (s *Scheduler) loop() {
	ticker := time.NewTicker(s.interval)
	defer func() {
		ticker.Stop()
		close(s.done)
	}()

	s.log.Info().Dur("interval", s.interval).Msg("[scheduler] started")
	for {
		select {
		case <-s.ctx.Done():
			s.log.Info().Msg("[scheduler] context cancelled; stopping")
			return
		case <-ticker.C:
			s.RunOnce(s.ctx)
		}
	}
}

// RunOnce refreshes the recipient set with a bounded timeout and returns how
// many recipients failed to resolve.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	failed := 0
	res := s.resolver.Resolve(runCtx)
	for _, r := range res {
		if !r.OK() {
			failed++
			s.log.Warn().Err(r.Err).Str("recipient", r.Identifier).Msg("[scheduler] recipient refresh failed")
		}
	}
	s.log.Debug().Int("recipients", len(res)).Int("failed", failed).Msg("[scheduler] recipients refreshed")
	return failed
}

// Stop cancels the scheduler and waits for the loop to finish. It is idempotent.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.ctx = nil
	s.cancel = nil
	s.done = make(chan struct{})
	s.log.Info().Msg("[scheduler] stopped")
}
