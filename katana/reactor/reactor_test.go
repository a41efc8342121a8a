package reactor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	ran      int32
	closed   int32
	blockRun chan struct{}
}

func (f *fakeConn) Run(ctx context.Context) {
	atomic.StoreInt32(&f.ran, 1)
	if f.blockRun != nil {
		select {
		case <-ctx.Done():
		case <-f.blockRun:
		}
	}
}

func (f *fakeConn) Close() error {
	atomic.StoreInt32(&f.closed, 1)
	return nil
}

func TestNewPoolRejectsZeroWorkers(t *testing.T) {
	_, err := NewPool(Config{Workers: 0})
	assert.ErrorIs(t, err, ErrNoWorkers)
}

func TestAssignRunsConnection(t *testing.T) {
	p, err := NewPool(Config{Workers: 2})
	require.NoError(t, err)

	c := &fakeConn{}
	p.Assign(c)

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&c.ran) == 1
	}, time.Second, time.Millisecond)
}

func TestRoundRobinDistributesAcrossReactors(t *testing.T) {
	p, err := NewPool(Config{Workers: 3, Policy: RoundRobin})
	require.NoError(t, err)

	seen := map[*Reactor]bool{}
	var mu sync.Mutex
	for i := 0; i < 6; i++ {
		rx := p.pick()
		mu.Lock()
		seen[rx] = true
		mu.Unlock()
	}
	assert.Len(t, seen, 3)
}

func TestLeastLoadedPicksFewestActive(t *testing.T) {
	p, err := NewPool(Config{Workers: 2, Policy: LeastLoaded})
	require.NoError(t, err)

	block := make(chan struct{})
	busy := &fakeConn{blockRun: block}
	p.reactors[0].Assign(busy)

	assert.Eventually(t, func() bool {
		return p.reactors[0].ActiveConns() == 1
	}, time.Second, time.Millisecond)

	picked := p.pick()
	assert.Equal(t, p.reactors[1], picked)

	close(block)
}

// stubbornConn never responds to context cancellation, forcing the
// reactor's shutdown to fall through to Close after the drain deadline.
type stubbornConn struct {
	ran    int32
	closed int32
	block  chan struct{}
}

func (s *stubbornConn) Run(ctx context.Context) {
	atomic.StoreInt32(&s.ran, 1)
	<-s.block
}

func (s *stubbornConn) Close() error {
	atomic.StoreInt32(&s.closed, 1)
	return nil
}

func TestShutdownDrainsThenForceCloses(t *testing.T) {
	p, err := NewPool(Config{Workers: 1})
	require.NoError(t, err)

	c := &stubbornConn{block: make(chan struct{})}
	t.Cleanup(func() { close(c.block) })
	p.Assign(c)

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&c.ran) == 1
	}, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))

	assert.Equal(t, int32(1), atomic.LoadInt32(&c.closed))
}

func TestSubmitRunsOnOwningReactor(t *testing.T) {
	p, err := NewPool(Config{Workers: 1})
	require.NoError(t, err)

	var order []int
	var mu sync.Mutex
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		i := i
		p.reactors[0].Submit(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			if i == 4 {
				close(done)
			}
		})
	}
	<-done
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}
