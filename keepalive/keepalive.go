// Package keepalive renews the access token on a schedule shortly before it expires, so requests rarely
// meet an expired token.
package keepalive

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-shop-client/token"
)

// Session is the part of the session service the scheduler reads
type Session interface {
	IsAuthenticated() bool
	Token() (*oauth2.Token, bool)
}

// Renewer renews the session's tokens, ending the session when renewal fails
type Renewer interface {
	Renew(ctx context.Context) (*oauth2.Token, error)
}

// Scheduler periodically checks the access token and renews it when it expires within the margin
type Scheduler struct {
	session  Session
	renewer  Renewer
	schedule string
	margin   time.Duration
	logger   zerolog.Logger

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.Mutex
	isRunning bool
	renewing  bool
	ctx       context.Context
	cancel    context.CancelFunc
}

func New(session Session, renewer Renewer, schedule string, margin time.Duration, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		session:  session,
		renewer:  renewer,
		schedule: schedule,
		margin:   margin,
		logger:   logger,
		cron:     cron.New(),
	}
}

// Start schedules the check. It stops when ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunNow(s.jobContext()); err != nil {
			s.logger.Warn().Err(err).Msg("scheduled token renewal failed")
		}
	})
	if err != nil {
		return fmt.Errorf("[keepalive Start] invalid schedule %q: %w", s.schedule, err)
	}
	s.entryID = entryID
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()
	s.isRunning = true

	s.logger.Info().Str("schedule", s.schedule).Dur("margin", s.margin).Msg("keepalive started")

	go func(ctx context.Context) {
		<-ctx.Done()
		s.Stop()
	}(s.ctx)

	return nil
}

// Stop waits for a running check and removes the schedule
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.cron.Remove(s.entryID)
	cancel := s.cancel
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	cancel()
	s.logger.Info().Msg("keepalive stopped")
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// NextRun returns when the next check is due, or nil when not running
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return nil
	}
	next := s.cron.Entry(s.entryID).Next
	return &next
}

// RunNow performs one check and reports whether the token was renewed. Anonymous sessions and tokens
// outside the margin are left alone; a check already in progress makes this call a no-op.
func (s *Scheduler) RunNow(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.renewing {
		s.mu.Unlock()
		return false, nil
	}
	s.renewing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.renewing = false
		s.mu.Unlock()
	}()

	if !s.session.IsAuthenticated() {
		return false, nil
	}
	t, ok := s.session.Token()
	if !ok || !token.ExpiresWithin(t, s.margin) {
		return false, nil
	}

	if _, err := s.renewer.Renew(ctx); err != nil {
		return false, fmt.Errorf("[keepalive RunNow] %w", err)
	}
	s.logger.Debug().Msg("access token renewed ahead of expiry")
	return true, nil
}

func (s *Scheduler) jobContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}
