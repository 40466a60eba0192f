package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/tedious-mc/tedious/berror"
	"github.com/tedious-mc/tedious/game"
	"go.uber.org/atomic"
)

// State holds the control flags of a scheduler. KeepRunning is the desired state of the run loop while
// Running reports whether a run loop is actually executing.
type State struct {
	keepRunning atomic.Bool
	running     atomic.Bool
}

func (s *State) KeepRunning() bool {
	return s.keepRunning.Load()
}

func (s *State) Running() bool {
	return s.running.Load()
}

// Scheduler runs its tasks one after another in a cooperative round-robin. At most one run loop is active
// at any time.
type Scheduler struct {
	log   *logrus.Logger
	state State

	// mu guards the registry against changes racing with the start of a run loop.
	mu  sync.Mutex
	reg *Registry

	hMutex sync.RWMutex
	h      Handler
}

// New creates a Scheduler without any tasks.
func New(log *logrus.Logger) *Scheduler {
	return &Scheduler{log: log, reg: NewRegistry(), h: NopHandler{}}
}

// Handle sets the handler notified when a run loop ends.
func (s *Scheduler) Handle(h Handler) {
	if h == nil {
		h = NopHandler{}
	}
	s.hMutex.Lock()
	defer s.hMutex.Unlock()
	s.h = h
}

func (s *Scheduler) handler() Handler {
	s.hMutex.RLock()
	defer s.hMutex.RUnlock()
	return s.h
}

// State returns the control flags of the scheduler.
func (s *Scheduler) State() *State {
	return &s.state
}

func (s *Scheduler) Running() bool {
	return s.state.Running()
}

// Add registers a task. Tasks cannot be added while the scheduler is running.
func (s *Scheduler) Add(name string, t Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Running() {
		return berror.New(game.ErrorSchedulerRunning)
	}
	return s.reg.Add(name, t)
}

// Remove unregisters a task. Tasks cannot be removed while the scheduler is running.
func (s *Scheduler) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Running() {
		return berror.New(game.ErrorSchedulerRunning)
	}
	return s.reg.Remove(name)
}

// Names returns the names of the registered tasks in the order they run in.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Names()
}

// Start starts a run loop in a new goroutine. It returns an error if a run loop is already active.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.acquire(); err != nil {
		return err
	}
	go func() {
		_ = s.loop(ctx)
	}()
	return nil
}

// Run runs a run loop on the calling goroutine until it is stopped, fails or every task finished.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.acquire(); err != nil {
		return err
	}
	return s.loop(ctx)
}

// Stop asks the run loop to stop. The loop stops at the next task boundary: the task in progress is not
// interrupted. Use Wait to block until the loop has stopped.
func (s *Scheduler) Stop() {
	s.state.keepRunning.Store(false)
}

// Wait blocks until no run loop is active or the context is done.
func (s *Scheduler) Wait(ctx context.Context) error {
	t := time.NewTicker(time.Millisecond * 20)
	defer t.Stop()

	for s.state.Running() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}

func (s *Scheduler) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.running.CompareAndSwap(false, true) {
		return berror.New("the scheduler is already running")
	}
	s.state.keepRunning.Store(true)
	return nil
}

func (s *Scheduler) loop(ctx context.Context) (err error) {
	var (
		failed   string
		finished = make(map[string]bool)
		allDone  bool
	)
	s.log.Debugf("run loop started with %v", s.reg.Names())

	defer func() {
		s.state.keepRunning.Store(false)
		s.state.running.Store(false)

		h := s.handler()
		switch {
		case err != nil:
			s.log.WithField("task", failed).Errorf("run loop aborted: %v", err)
			sentry.CaptureException(err)
			h.HandleTaskError(failed, err)
		case allDone:
			s.log.Info("every task finished")
			h.HandleFinish()
		default:
			s.log.Debug("run loop stopped")
		}
	}()

	for s.state.KeepRunning() {
		if ctx.Err() != nil {
			return nil
		}

		ran := false
		s.reg.each(func(name string, t Task) bool {
			if !s.state.KeepRunning() || ctx.Err() != nil {
				return false
			}
			if finished[name] {
				return true
			}
			ran = true

			status, taskErr := s.invoke(ctx, t)
			if taskErr != nil && ctx.Err() != nil {
				// The session is going away; this is not a failure of the task.
				return false
			}
			if taskErr != nil {
				failed, err = name, fmt.Errorf("%s: %w", name, taskErr)
				return false
			}
			if status == StatusFinished {
				s.log.WithField("task", name).Info("task finished")
				finished[name] = true
			}
			return true
		})
		if err != nil {
			return err
		}
		if !ran && s.state.KeepRunning() && ctx.Err() == nil {
			allDone = true
			return nil
		}
	}
	return nil
}

// invoke runs a single task, turning a panic into an error.
func (s *Scheduler) invoke(ctx context.Context, t Task) (status Status, err error) {
	defer func() {
		if v := recover(); v != nil {
			if be, ok := v.(*berror.BotError); ok {
				err = be
			} else {
				err = berror.Exhausted("task panicked: %v", v)
			}
			s.log.Debugf("recovered panic: %v\n%s", v, debug.Stack())
		}
	}()
	return t(ctx)
}
