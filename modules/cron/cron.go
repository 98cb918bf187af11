// Package cron schedules background jobs contributed by root modules.
//
// A module contributes to the "cron" extension a Job or a []Job:
//
//	ContributeFunc: func(ext string, _ mosaic.ModuleConfig, _ *mosaic.Services) (any, bool) {
//	    if ext != cron.Extension {
//	        return nil, false
//	    }
//	    return cron.Job{Name: "cleanup", Spec: "@every 1h", Run: cleanup}, true
//	},
//
// Jobs of one application share a scheduler, started once every job is
// added and stopped on shutdown.
package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/mosaic"
)

const (
	// Name is the module name.
	Name = "cron"

	// Service is the name of the *Scheduler service.
	Service = "cron"

	// Extension is the name of the extension jobs are contributed to.
	Extension = "cron"
)

// Job is a named function run on a schedule. Spec accepts five fields,
// an optional leading seconds field, and descriptors such as "@hourly"
// or "@every 5m".
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler runs the jobs of one application.
type Scheduler struct {
	cron   *cron.Cron
	log    *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	jobs    map[string]Job
	started bool
	stopped bool
}

// NewScheduler creates a stopped scheduler. Jobs run with a context derived
// from ctx that is canceled by Stop.
func NewScheduler(ctx context.Context, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	adapter := logAdapter{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
			cron.WithLogger(adapter),
		),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]Job),
	}
}

// Add schedules job. Names are unique within a scheduler.
func (s *Scheduler) Add(job Job) error {
	if job.Name == "" || job.Run == nil {
		return fmt.Errorf("%w: %q needs a name and a function", ErrInvalidJob, job.Name)
	}
	sched, err := parser.Parse(job.Spec)
	if err != nil {
		return errors.Join(ErrInvalidSchedule, fmt.Errorf("job %q: %w", job.Name, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrSchedulerStopped
	}
	if _, ok := s.jobs[job.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateJob, job.Name)
	}
	s.jobs[job.Name] = job
	s.cron.Schedule(sched, cron.FuncJob(func() { s.run(job) }))
	return nil
}

// Start starts the scheduler. Calling it again is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true
	s.cron.Start()
}

// Stop cancels the job context and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Jobs returns the names of the scheduled jobs, sorted.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// RunNow runs the named job in the calling goroutine.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}
	return s.exec(job)
}

func (s *Scheduler) run(job Job) {
	if err := s.exec(job); err != nil {
		s.log.ErrorContext(s.ctx, "cron job failed", slog.String("job", job.Name), slog.Any("error", err))
	}
}

func (s *Scheduler) exec(job Job) error {
	if err := s.ctx.Err(); err != nil {
		return ErrSchedulerStopped
	}
	return job.Run(s.ctx)
}

// logAdapter implements cron.Logger on top of slog.
type logAdapter struct {
	log *slog.Logger
}

func (l logAdapter) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l logAdapter) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

// Module provides the scheduler service and the "cron" extension.
var Module = mosaic.Define(mosaic.Definition{
	Name: Name,
	ServicesFunc: func(ctx context.Context, cfg mosaic.ModuleConfig, svc *mosaic.Services) (map[string]any, error) {
		log := svc.Logger().With(slog.String("module", Name))
		return map[string]any{Service: NewScheduler(ctx, log)}, nil
	},
	ExtensionsFunc: func(_ mosaic.ModuleConfig, svc *mosaic.Services) (map[string]mosaic.Extension, error) {
		s, err := mosaic.Service[*Scheduler](svc, Service)
		if err != nil {
			return nil, err
		}
		return map[string]mosaic.Extension{
			Extension: func(_ context.Context, contributions []mosaic.Contribution) error {
				for _, c := range contributions {
					jobs, err := jobsOf(c.Value)
					if err != nil {
						return fmt.Errorf("module %q: %w", c.Module, err)
					}
					for _, job := range jobs {
						if err := s.Add(job); err != nil {
							return fmt.Errorf("module %q: %w", c.Module, err)
						}
					}
				}
				s.Start()
				return nil
			},
		}, nil
	},
	ShutdownFunc: func(ctx context.Context, _ mosaic.ModuleConfig, svc *mosaic.Services) error {
		s, err := mosaic.Service[*Scheduler](svc, Service)
		if err != nil {
			return nil
		}
		return s.Stop(ctx)
	},
})

func jobsOf(v any) ([]Job, error) {
	switch j := v.(type) {
	case Job:
		return []Job{j}, nil
	case []Job:
		return j, nil
	case *Job:
		if j != nil {
			return []Job{*j}, nil
		}
	}
	return nil, ErrBadContribution
}
