// Package jobmgr runs named background jobs with cancellation and lifecycle
// reporting. Jobs are goroutines bound to the manager's parent context and
// are removed automatically when they return.
package jobmgr

import (
	"context"
	"fmt"
	"sync"
)

// StatusReporter receives lifecycle events for jobs, e.g. "running:sweeper",
// "error:sweeper:...", "done:sweeper".
type StatusReporter func(string)

type job struct {
	name   string
	cancel context.CancelFunc
}

// Manager starts, stops and tracks jobs. Safe for concurrent use.
type Manager struct {
	parent   context.Context
	reporter StatusReporter

	mu   sync.Mutex
	jobs map[string]*job
	wg   sync.WaitGroup
}

// NewManager creates a Manager whose jobs stop when parent is done. The
// reporter callback may be nil.
func NewManager(parent context.Context, reporter StatusReporter) *Manager {
	return &Manager{
		parent:   parent,
		reporter: reporter,
		jobs:     make(map[string]*job),
	}
}

// Start runs a job in its own goroutine. Starting a name that is already
// running is an error.
func (m *Manager) Start(name string, runner func(ctx context.Context) error) error {
	m.mu.Lock()
	if _, exists := m.jobs[name]; exists {
		m.mu.Unlock()
		return fmt.Errorf("job '%s' is already running", name)
	}
	ctx, cancel := context.WithCancel(m.parent)
	m.jobs[name] = &job{name: name, cancel: cancel}
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		m.report("running:" + name)

		if err := runner(ctx); err != nil {
			m.report("error:" + name + ":" + err.Error())
		} else {
			m.report("done:" + name)
		}

		cancel()
		m.mu.Lock()
		delete(m.jobs, name)
		m.mu.Unlock()
	}()

	return nil
}

// Stop cancels a running job by name.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[name]
	if !ok {
		return fmt.Errorf("job '%s' not running", name)
	}
	j.cancel()
	delete(m.jobs, name)
	return nil
}

// List returns the active job names.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.jobs))
	for k := range m.jobs {
		out = append(out, k)
	}
	return out
}

// Wait blocks until every started job has returned. Cancel the parent
// context first.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) report(s string) {
	if m.reporter != nil {
		m.reporter(s)
	}
}
