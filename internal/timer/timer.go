// Package timer runs background countdowns and a single process-wide
// stopwatch.
package timer

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"sync"
	"time"
)

var (
	ErrDurationOutOfRange  = errors.New("timer duration out of range")
	ErrStopwatchRunning    = errors.New("stopwatch already running")
	ErrStopwatchNotRunning = errors.New("stopwatch not running")
	ErrClosed              = errors.New("timer manager closed")
)

const DefaultMaxSeconds = 3600

type State int

const (
	Scheduled State = iota
	Running
	Completed
)

func (s State) String() string {
	switch s {
	case Scheduled:
		return "scheduled"
	case Running:
		return "running"
	case Completed:
		return "completed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Record describes one accepted timer.
type Record struct {
	ID      int
	Seconds int
	Started time.Time
}

// Status is a snapshot of an active timer.
type Status struct {
	Record
	State     State
	Remaining int
}

type Options struct {
	// MaxSeconds bounds accepted durations to (0, MaxSeconds].
	MaxSeconds int
	Clock      Clock
	// OnDone fires once per timer, from the timer's own goroutine.
	OnDone func(Record)
}

type countdown struct {
	rec       Record
	state     State
	remaining int
}

type Manager struct {
	max    int
	clock  Clock
	onDone func(Record)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	nextID    int
	active    []*countdown
	stopwatch *time.Time
}

func NewManager(opts Options) *Manager {
	if opts.MaxSeconds <= 0 {
		opts.MaxSeconds = DefaultMaxSeconds
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		max:    opts.MaxSeconds,
		clock:  opts.Clock,
		onDone: opts.OnDone,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (m *Manager) MaxSeconds() int { return m.max }

// Start schedules a countdown of the given length and returns immediately.
func (m *Manager) Start(seconds int) (Record, error) {
	if seconds <= 0 || seconds > m.max {
		return Record{}, fmt.Errorf("%w: %d not in (0, %d]", ErrDurationOutOfRange, seconds, m.max)
	}
	if m.ctx.Err() != nil {
		return Record{}, ErrClosed
	}

	m.mu.Lock()
	m.nextID++
	cd := &countdown{
		rec: Record{
			ID:      m.nextID,
			Seconds: seconds,
			Started: m.clock.Now(),
		},
		state:     Scheduled,
		remaining: seconds,
	}
	m.active = append(m.active, cd)
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run(cd)

	log.Info("Timer started", "id", cd.rec.ID, "seconds", seconds)
	return cd.rec, nil
}

func (m *Manager) run(cd *countdown) {
	defer m.wg.Done()

	m.mu.Lock()
	cd.state = Running
	m.mu.Unlock()

	for {
		m.mu.Lock()
		left := cd.remaining
		m.mu.Unlock()
		if left <= 0 {
			break
		}

		select {
		case <-m.ctx.Done():
			m.remove(cd.rec.ID)
			return
		case <-m.clock.After(time.Second):
		}

		m.mu.Lock()
		cd.remaining--
		m.mu.Unlock()
	}

	m.mu.Lock()
	cd.state = Completed
	m.mu.Unlock()

	log.Info("Timer finished", "id", cd.rec.ID, "seconds", cd.rec.Seconds)
	if m.onDone != nil {
		m.onDone(cd.rec)
	}
	m.remove(cd.rec.ID)
}

func (m *Manager) remove(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, cd := range m.active {
		if cd.rec.ID == id {
			m.active = append(m.active[:i], m.active[i+1:]...)
			return
		}
	}
}

// Active lists the timers that have not yet been removed, oldest first.
func (m *Manager) Active() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Status, 0, len(m.active))
	for _, cd := range m.active {
		out = append(out, Status{Record: cd.rec, State: cd.state, Remaining: cd.remaining})
	}
	return out
}

// StartStopwatch begins timing. Only one stopwatch may run at a time.
func (m *Manager) StartStopwatch() (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopwatch != nil {
		return *m.stopwatch, ErrStopwatchRunning
	}
	now := m.clock.Now()
	m.stopwatch = &now
	return now, nil
}

// StopStopwatch clears the stopwatch and returns the elapsed time.
func (m *Manager) StopStopwatch() (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopwatch == nil {
		return 0, ErrStopwatchNotRunning
	}
	elapsed := m.clock.Now().Sub(*m.stopwatch)
	m.stopwatch = nil
	return elapsed, nil
}

func (m *Manager) StopwatchRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopwatch != nil
}

// Wait blocks until every started countdown has returned.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Close abandons pending countdowns without notifying and waits for their
// goroutines to exit.
func (m *Manager) Close() {
	m.cancel()
	m.wg.Wait()
}
