// Package app runs the phase scheduler: a periodic pass that evaluates
// every on-going challenge and advances the ones whose phase is complete.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/louisbranch/challenge.space/internal/platform/errors"
	"github.com/louisbranch/challenge.space/internal/platform/timeouts"
	challengeapp "github.com/louisbranch/challenge.space/internal/services/challenge/app"
	"github.com/louisbranch/challenge.space/internal/services/scheduler/storage"
)

const (
	defaultPollInterval = time.Minute
	defaultConcurrency  = 4
)

// Evaluator lists and evaluates challenges.
type Evaluator interface {
	OngoingChallengeIDs(ctx context.Context) ([]string, error)
	EvaluatePhaseStep(ctx context.Context, challengeID string) (challengeapp.Step, error)
}

// AttemptRecorder persists evaluation attempts.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, attempt storage.AttemptRecord) error
}

// Config controls the scheduler loop.
type Config struct {
	PollInterval time.Duration
	// Concurrency caps how many challenges are evaluated at once.
	Concurrency int
	// EvaluationTimeout caps one challenge's evaluation.
	EvaluationTimeout time.Duration
}

func (c Config) normalized() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	if c.EvaluationTimeout <= 0 {
		c.EvaluationTimeout = timeouts.Evaluation
	}
	return c
}

// PassReport summarizes one evaluation pass.
type PassReport struct {
	Challenges int
	Outcomes   map[challengeapp.Outcome]int
	Failed     int
	Duration   time.Duration
}

// Scheduler drives phase transitions.
type Scheduler struct {
	evaluator Evaluator
	recorder  AttemptRecorder
	metrics   *Metrics
	cfg       Config
	clock     func() time.Time
	logf      func(string, ...any)
}

// New builds a scheduler. recorder and metrics may be nil.
func New(evaluator Evaluator, recorder AttemptRecorder, metrics *Metrics, cfg Config, logf func(string, ...any)) *Scheduler {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Scheduler{
		evaluator: evaluator,
		recorder:  recorder,
		metrics:   metrics,
		cfg:       cfg.normalized(),
		clock:     time.Now,
		logf:      logf,
	}
}

// Run evaluates once immediately and then on every poll interval until ctx
// ends. Pass failures are logged and do not stop the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	if s == nil || s.evaluator == nil {
		return errors.New("scheduler evaluator is required")
	}
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		if _, err := s.RunPass(ctx); err != nil && ctx.Err() == nil {
			s.logf("scheduler pass: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RunPass evaluates every on-going challenge once. A failing challenge is
// logged and recorded; the rest of the pass continues. The error is only
// set when the on-going list itself cannot be read.
func (s *Scheduler) RunPass(ctx context.Context) (PassReport, error) {
	started := s.clock()
	report := PassReport{Outcomes: make(map[challengeapp.Outcome]int)}

	ids, err := s.evaluator.OngoingChallengeIDs(ctx)
	if err != nil {
		report.Duration = s.clock().Sub(started)
		s.metrics.observePass(report, err)
		return report, fmt.Errorf("list on-going challenges: %w", err)
	}
	report.Challenges = len(ids)

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for _, id := range ids {
		g.Go(func() error {
			step, err := s.evaluate(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				return nil
			}
			report.Outcomes[step.Outcome]++
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = s.clock().Sub(started)
	s.metrics.observePass(report, nil)
	return report, nil
}

func (s *Scheduler) evaluate(ctx context.Context, challengeID string) (challengeapp.Step, error) {
	stepCtx, cancel := context.WithTimeout(ctx, s.cfg.EvaluationTimeout)
	defer cancel()

	step, err := s.evaluator.EvaluatePhaseStep(stepCtx, challengeID)
	s.metrics.observeStep(step, err)
	switch {
	case err != nil && !apperrors.CodeOf(err).Retryable():
		code := apperrors.CodeOf(err)
		s.metrics.alert(code)
		s.logf("alert: challenge %s needs an operator: %v (%s)", challengeID, err, code)
	case err != nil:
		s.logf("evaluate challenge %s: %v (%s)", challengeID, err, apperrors.CodeOf(err))
	case step.Outcome == challengeapp.OutcomeAdvanced:
		s.logf("challenge %s advanced from %s to %s", challengeID, step.From, step.To)
	}
	s.record(ctx, challengeID, step, err)
	return step, err
}

func (s *Scheduler) record(ctx context.Context, challengeID string, step challengeapp.Step, stepErr error) {
	if s.recorder == nil {
		return
	}
	// Idle and terminal evaluations are not recorded.
	if stepErr == nil && (step.Outcome == challengeapp.OutcomeIdle || step.Outcome == challengeapp.OutcomeTerminal) {
		return
	}
	attempt := storage.AttemptRecord{
		ChallengeID: challengeID,
		Outcome:     string(step.Outcome),
		FromPhase:   string(step.From),
		ToPhase:     string(step.To),
		CreatedAt:   s.clock().UTC(),
	}
	if stepErr != nil {
		attempt.Outcome = outcomeFailed
		attempt.LastError = stepErr.Error()
	}
	if err := s.recorder.RecordAttempt(ctx, attempt); err != nil {
		s.logf("record attempt for %s: %v", challengeID, err)
	}
}
