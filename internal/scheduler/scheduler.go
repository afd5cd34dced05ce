/*
Copyright 2025 The Kubeflow authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package scheduler drives recurring pipeline runs from a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/imadeit/pipectl/api/v1alpha1"
	"github.com/imadeit/pipectl/internal/pipeline"
	"github.com/imadeit/pipectl/pkg/util"
)

// historyLimit caps how many finished run statuses are kept in memory.
const historyLimit = 10

// Scheduler starts a run of one pipeline at every cron tick, subject to the
// manifest's concurrency policy.
type Scheduler struct {
	pipeline *v1alpha1.Pipeline
	runner   *pipeline.Runner
	schedule cron.Schedule
	policy   v1alpha1.ConcurrencyPolicy
	suspend  bool
	logger   *zap.Logger

	mu         sync.Mutex
	inFlight   int
	cancelLast context.CancelFunc
	history    []v1alpha1.RunStatus
	nextRun    time.Time
}

// New validates the pipeline's schedule block and builds a Scheduler.
func New(p *v1alpha1.Pipeline, runner *pipeline.Runner, logger *zap.Logger) (*Scheduler, error) {
	spec := p.Spec.Schedule
	if spec == nil {
		return nil, fmt.Errorf("pipeline %s has no schedule block", p.Name)
	}

	timezone := spec.TimeZone
	if timezone != "Local" {
		if _, err := time.LoadLocation(timezone); err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
		}
	}

	// Prefix the timezone unless the expression already pins one.
	cronSchedule := spec.Schedule
	if !strings.HasPrefix(cronSchedule, "CRON_TZ=") && !strings.HasPrefix(cronSchedule, "TZ=") {
		cronSchedule = fmt.Sprintf("CRON_TZ=%s %s", timezone, cronSchedule)
	}

	schedule, err := cron.ParseStandard(cronSchedule)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schedule %q: %w", spec.Schedule, err)
	}

	suspend := spec.Suspend != nil && *spec.Suspend
	return &Scheduler{
		pipeline: p,
		runner:   runner,
		schedule: schedule,
		policy:   spec.ConcurrencyPolicy,
		suspend:  suspend,
		logger:   logger,
	}, nil
}

// Start blocks, firing runs on schedule until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.suspend {
		s.logger.Info("schedule is suspended, not starting runs",
			zap.String("pipeline", s.pipeline.Name))
		<-ctx.Done()
		return nil
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		next := s.schedule.Next(time.Now())
		s.setNextRun(next)
		s.logger.Info("next scheduled run",
			zap.String("pipeline", s.pipeline.Name),
			zap.Time("at", next))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Until(next)):
		}

		if !s.admit() {
			continue
		}

		runCtx, cancel := context.WithCancel(ctx)
		s.trackStart(cancel)

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer cancel()
			runName := util.NewRunName(s.pipeline.Name)
			status, err := s.runner.Execute(runCtx, s.pipeline, runName)
			if err != nil {
				s.logger.Error("scheduled run failed",
					zap.String("run", runName),
					zap.Error(err))
			}
			s.trackFinish(*status)
		}()
	}
}

// admit applies the concurrency policy at a tick. It reports whether a new
// run may start.
func (s *Scheduler) admit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight == 0 {
		return true
	}

	switch s.policy {
	case v1alpha1.ConcurrencyAllow:
		return true
	case v1alpha1.ConcurrencyForbid:
		s.logger.Info("previous run still in flight, skipping tick",
			zap.String("pipeline", s.pipeline.Name))
		return false
	case v1alpha1.ConcurrencyReplace:
		s.logger.Info("previous run still in flight, cancelling it",
			zap.String("pipeline", s.pipeline.Name))
		if s.cancelLast != nil {
			s.cancelLast()
		}
		return true
	default:
		return true
	}
}

func (s *Scheduler) trackStart(cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight++
	s.cancelLast = cancel
}

func (s *Scheduler) trackFinish(status v1alpha1.RunStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	s.history = append(s.history, status)
	if len(s.history) > historyLimit {
		s.history = s.history[len(s.history)-historyLimit:]
	}
}

func (s *Scheduler) setNextRun(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRun = t
}

// NextRun returns the time of the next scheduled run.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRun
}

// History returns the retained statuses of finished runs, oldest first.
func (s *Scheduler) History() []v1alpha1.RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]v1alpha1.RunStatus, len(s.history))
	copy(out, s.history)
	return out
}

// InFlight returns the number of runs currently executing.
func (s *Scheduler) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}
