// Package reactor implements a worker-pool scheduling model: N
// single-threaded event loops, each owning its own connections, with a
// selection policy assigning new connections to a worker and a control
// channel for cross-worker wakeups.
//
// An epoll-based reactor must own its readiness-notification loop
// directly. Go's net package already gives every connection its own
// netpoller-backed goroutine with blocking reads/writes that park the
// goroutine instead of spinning a thread, which is exactly the kind of
// readiness-notification interface a reactor would otherwise hand-roll.
// Reimplementing epoll registration in Go would fight the runtime for no
// behavioral gain, so a Reactor here is a goroutine plus a buffered task
// channel (the control pipe's analogue) rather than an event loop
// wrapping raw file descriptors. The scheduling contract (one owner
// goroutine per reactor, FIFO within it, no ordering across reactors)
// is preserved exactly; grounded on nova/serve.go's goroutine-plus-
// signal-channel shutdown shape, generalized from one server loop to N.
package reactor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// SelectionPolicy decides which reactor a new connection is assigned to.
type SelectionPolicy int

const (
	// RoundRobin cycles through reactors in order.
	RoundRobin SelectionPolicy = iota
	// LeastLoaded picks the reactor with the fewest active connections.
	LeastLoaded
)

// Task is a unit of work submitted to a reactor's run queue. It runs on
// the owning reactor's goroutine, so it observes FIFO order relative to
// every other task and connection event on that reactor.
type Task func()

// Timeouts holds the per-connection timer settings. Only TotalLifetime
// is enforced: Assign turns it into a deadline on the context passed to
// Conn.Run. ReadIdle and WriteIdle are stored but not applied by the
// reactor.
type Timeouts struct {
	ReadIdle      time.Duration
	WriteIdle     time.Duration
	TotalLifetime time.Duration
}

// Config configures a Pool.
type Config struct {
	Workers  int
	Policy   SelectionPolicy
	Timeouts Timeouts
	// QueueSize bounds each reactor's task channel; 0 means a reasonable default.
	QueueSize int
}

// Conn is anything a reactor manages the lifecycle of: server.Conn
// implements this to plug into the pool without reactor depending on
// katana/server.
type Conn interface {
	// Run drives the connection to completion or until ctx is canceled.
	// Run must return promptly after ctx is canceled (shutdown drain
	// deadline elapsed).
	Run(ctx context.Context)
	// Close forcibly closes the underlying socket.
	Close() error
}

// Reactor is one single-threaded event loop: all registration and
// handler invocation for its connections happens on its own goroutine.
type Reactor struct {
	id       int
	tasks    chan Task
	done     chan struct{}
	active   int64 // atomic: connections currently owned by this reactor
	timeouts Timeouts

	mu    sync.Mutex
	conns map[*connEntry]struct{}
}

type connEntry struct {
	conn   Conn
	cancel context.CancelFunc
}

func newReactor(id int, queueSize int, timeouts Timeouts) *Reactor {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &Reactor{
		id:       id,
		tasks:    make(chan Task, queueSize),
		done:     make(chan struct{}),
		timeouts: timeouts,
		conns:    make(map[*connEntry]struct{}),
	}
}

// Submit enqueues fn to run on the reactor's goroutine. Submit is the
// only safe way to reach into a reactor from another goroutine; it is
// the control-channel wakeup for cross-thread tasks. The task executes
// asynchronously; Submit itself never blocks the caller beyond the
// queue being full.
func (rx *Reactor) Submit(fn Task) {
	select {
	case rx.tasks <- fn:
	case <-rx.done:
	}
}

// ActiveConns returns the number of connections currently owned by this
// reactor, used by the LeastLoaded selection policy.
func (rx *Reactor) ActiveConns() int64 { return atomic.LoadInt64(&rx.active) }

// Assign hands a new connection to this reactor. The connection's Run
// method is invoked on the reactor's own goroutine via Submit, so every
// handler invocation for it is serialized with this reactor's other
// work.
func (rx *Reactor) Assign(conn Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	if rx.timeouts.TotalLifetime > 0 {
		var lifetimeCancel context.CancelFunc
		ctx, lifetimeCancel = context.WithTimeout(ctx, rx.timeouts.TotalLifetime)
		prevCancel := cancel
		cancel = func() {
			lifetimeCancel()
			prevCancel()
		}
	}
	entry := &connEntry{conn: conn, cancel: cancel}

	rx.mu.Lock()
	rx.conns[entry] = struct{}{}
	rx.mu.Unlock()
	atomic.AddInt64(&rx.active, 1)

	rx.Submit(func() {
		defer func() {
			rx.mu.Lock()
			delete(rx.conns, entry)
			rx.mu.Unlock()
			atomic.AddInt64(&rx.active, -1)
			cancel()
		}()
		conn.Run(ctx)
	})
}

// run is the reactor's goroutine body: drain the task channel until
// told to stop.
func (rx *Reactor) run() {
	for {
		select {
		case fn := <-rx.tasks:
			fn()
		case <-rx.done:
			// Drain remaining queued tasks before exiting so a task
			// submitted just before shutdown still runs.
			for {
				select {
				case fn := <-rx.tasks:
					fn()
				default:
					return
				}
			}
		}
	}
}

// shutdown cancels every connection owned by this reactor, gives them
// until deadline to exit, and force-closes whatever remains.
func (rx *Reactor) shutdown(deadline time.Duration) {
	rx.mu.Lock()
	entries := make([]*connEntry, 0, len(rx.conns))
	for e := range rx.conns {
		entries = append(entries, e)
	}
	rx.mu.Unlock()

	for _, e := range entries {
		e.cancel()
	}

	if deadline > 0 {
		timer := time.NewTimer(deadline)
		defer timer.Stop()
		<-timer.C
	}

	rx.mu.Lock()
	remaining := make([]*connEntry, 0, len(rx.conns))
	for e := range rx.conns {
		remaining = append(remaining, e)
	}
	rx.mu.Unlock()

	for _, e := range remaining {
		if err := e.conn.Close(); err != nil {
			slog.Default().Warn("reactor: force-close failed", "error", err)
		}
	}

	close(rx.done)
}

// Pool is the fixed-size set of reactors a server dispatches connections
// across.
type Pool struct {
	reactors []*Reactor
	policy   SelectionPolicy
	next     uint64 // atomic: round-robin cursor
}

// ErrNoWorkers is returned by NewPool when Config.Workers is non-positive.
var ErrNoWorkers = errors.New("reactor: pool requires at least one worker")

// NewPool constructs and starts a Pool of cfg.Workers reactors, each
// running on its own goroutine.
func NewPool(cfg Config) (*Pool, error) {
	if cfg.Workers <= 0 {
		return nil, ErrNoWorkers
	}
	p := &Pool{policy: cfg.Policy}
	for i := 0; i < cfg.Workers; i++ {
		rx := newReactor(i, cfg.QueueSize, cfg.Timeouts)
		p.reactors = append(p.reactors, rx)
		go rx.run()
	}
	return p, nil
}

// Assign routes conn to a reactor chosen by the pool's selection policy.
func (p *Pool) Assign(conn Conn) {
	p.pick().Assign(conn)
}

func (p *Pool) pick() *Reactor {
	switch p.policy {
	case LeastLoaded:
		best := p.reactors[0]
		bestLoad := best.ActiveConns()
		for _, rx := range p.reactors[1:] {
			if l := rx.ActiveConns(); l < bestLoad {
				best, bestLoad = rx, l
			}
		}
		return best
	default: // RoundRobin
		n := atomic.AddUint64(&p.next, 1)
		return p.reactors[int(n-1)%len(p.reactors)]
	}
}

// Reactors returns the pool's reactors, primarily for tests and metrics.
func (p *Pool) Reactors() []*Reactor { return p.reactors }

// Shutdown drains every reactor: each gets until deadline to let its
// in-flight connections finish before being force-closed. Shutdown
// returns once every reactor has force-closed its remaining connections
// and been signalled to stop; it does not wait for the reactor
// goroutines to exit, so a Conn.Run that ignores cancellation may still
// be running.
func (p *Pool) Shutdown(ctx context.Context) error {
	deadline := time.Duration(0)
	if dl, ok := ctx.Deadline(); ok {
		deadline = time.Until(dl)
		if deadline < 0 {
			deadline = 0
		}
	}

	var wg sync.WaitGroup
	for _, rx := range p.reactors {
		wg.Add(1)
		go func(rx *Reactor) {
			defer wg.Done()
			rx.shutdown(deadline)
		}(rx)
	}
	wg.Wait()
	return nil
}
