package sheetsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"menu-service/client"

	"github.com/sirupsen/logrus"
)

var ErrRunInProgress = errors.New("sheet sync already running")

type JobConfig struct {
	Source  Source
	Schema  Schema
	BaseURL string
	// Timeout bounds each remote call. Zero means no timeout.
	Timeout time.Duration
}

// Job runs one full reconciliation per Run call. Overlapping calls are not
// queued: the second one returns ErrRunInProgress.
type Job struct {
	cfg JobConfig
	log *logrus.Entry
	mu  sync.Mutex
}

func NewJob(cfg JobConfig, logger *logrus.Logger) (*Job, error) {
	if cfg.Source == nil {
		return nil, errors.New("sheetsync: source is required")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("sheetsync: base URL is required")
	}
	if err := cfg.Schema.Validate(); err != nil {
		return nil, err
	}
	return &Job{cfg: cfg, log: logger.WithField("component", "sheetsync")}, nil
}

func (j *Job) Run(ctx context.Context) (Report, error) {
	if !j.mu.TryLock() {
		getMetrics().runsTotal.WithLabelValues("skipped").Inc()
		return Report{}, ErrRunInProgress
	}
	defer j.mu.Unlock()

	start := time.Now()
	api := client.New(j.cfg.BaseURL, j.cfg.Timeout)
	defer api.Close()

	report, err := j.run(ctx, api)
	report.Duration = time.Since(start)

	m := getMetrics()
	if err != nil {
		m.runsTotal.WithLabelValues("failure").Inc()
		return report, err
	}
	m.runsTotal.WithLabelValues("success").Inc()
	m.runDuration.Observe(report.Duration.Seconds())
	j.log.WithFields(report.Fields()).Info("sheet sync finished")
	return report, nil
}

func (j *Job) run(ctx context.Context, api API) (Report, error) {
	var report Report

	rows, err := j.cfg.Source.Rows(ctx)
	if err != nil {
		return report, fmt.Errorf("read sheet: %w", err)
	}
	report.Rows = len(rows)

	rec := NewReconciler(api, &report, j.log)
	tree, err := NewBuilder(j.cfg.Schema, rec).Build(ctx, rows)
	if err != nil {
		return report, err
	}

	if _, err := NewCleaner(api, &report, j.log).Clean(ctx, tree); err != nil {
		return report, err
	}
	return report, nil
}
