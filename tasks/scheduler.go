package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"menu-service/notify"

	"github.com/sirupsen/logrus"
)

// ErrSkip marks a run that was skipped rather than failed.
var ErrSkip = errors.New("run skipped")

const defaultMaxNotifyInterval = time.Hour

// Scheduler calls Job every Interval until its context is cancelled.
type Scheduler struct {
	Name     string
	Interval time.Duration
	Job      Func
	Notifier notify.Notifier
	Logger   *logrus.Logger
	// RunImmediately triggers one run before the first tick.
	RunImmediately bool
	// MaxNotifyInterval caps the backoff between failure notifications while
	// the job keeps failing. Zero means one hour.
	MaxNotifyInterval time.Duration

	throttle failureThrottle
	now      func() time.Time
}

// Run blocks until ctx is done and every in-flight run has returned.
func (s *Scheduler) Run(ctx context.Context) error {
	log := s.Logger.WithFields(logrus.Fields{"component": "scheduler", "task": s.Name})
	log.WithField("interval", s.Interval).Info("scheduler started")

	var wg sync.WaitGroup
	fire := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runOnce(ctx, log)
		}()
	}

	if s.RunImmediately {
		fire()
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			log.Info("scheduler stopped")
			return nil
		case <-ticker.C:
			fire()
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, log *logrus.Entry) {
	err := s.Job(ctx)
	switch {
	case err == nil:
		if n := s.throttle.success(); n > 0 {
			log.WithField("failures", n).Info("run recovered")
			s.notify(ctx, log, s.Name+" recovered", fmt.Sprintf("succeeded after %d failed runs", n))
		}
	case errors.Is(err, ErrSkip):
		log.WithError(err).Info("run skipped")
	case ctx.Err() != nil:
		log.WithError(err).Warn("run interrupted by shutdown")
	default:
		log.WithError(err).Error("run failed")
		if s.throttle.failure(s.clock(), s.Interval, s.maxNotifyInterval()) {
			s.notify(ctx, log, s.Name+" failed", err.Error())
		}
	}
}

func (s *Scheduler) notify(ctx context.Context, log *logrus.Entry, subject, message string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ctx, subject, message); err != nil {
		log.WithError(err).Warn("notification not sent")
	}
}

func (s *Scheduler) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *Scheduler) maxNotifyInterval() time.Duration {
	if s.MaxNotifyInterval > 0 {
		return s.MaxNotifyInterval
	}
	return defaultMaxNotifyInterval
}
