package syncer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedPinger struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (p *scriptedPinger) Ping(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	if p.calls < len(p.errs) {
		err = p.errs[p.calls]
	}
	p.calls++
	return err
}

type onlineRecorder struct {
	mu     sync.Mutex
	states []bool
}

func (r *onlineRecorder) SetOnline(v bool) {
	r.mu.Lock()
	r.states = append(r.states, v)
	r.mu.Unlock()
}

func (r *onlineRecorder) States() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.states...)
}

func TestWatcher_Probe(t *testing.T) {
	p := &scriptedPinger{errs: []error{nil, errors.New("down"), nil}}
	rec := &onlineRecorder{}
	w := NewWatcher(p, rec, time.Hour, nil)

	assert.True(t, w.Probe(context.Background()))
	assert.False(t, w.Probe(context.Background()))
	assert.True(t, w.Probe(context.Background()))
	assert.Equal(t, []bool{true, false, true}, rec.States())
}

func TestWatcher_RunUntilCancelled(t *testing.T) {
	p := &scriptedPinger{errs: []error{errors.New("down")}}
	rec := &onlineRecorder{}
	w := NewWatcher(p, rec, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(rec.States()) >= 3 }, 2*time.Second, time.Millisecond)
	cancel()
	<-done

	states := rec.States()
	assert.False(t, states[0], "first probe fails")
	assert.True(t, states[1])
}

func TestWatcher_DrivesOrchestrator(t *testing.T) {
	f := newFixture(t, true)
	w := NewWatcher(&scriptedPinger{errs: []error{errors.New("down")}}, f.orch, 0, nil)

	w.Probe(context.Background())
	assert.False(t, f.orch.IsOnline())
	w.Probe(context.Background())
	assert.True(t, f.orch.IsOnline())
	assert.Empty(t, f.remote.Calls(), "watcher never syncs")
}

func TestTickerScheduler(t *testing.T) {
	var n atomic.Int32
	cancel := TickerScheduler{}.Every(2*time.Millisecond, func() { n.Add(1) })

	require.Eventually(t, func() bool { return n.Load() >= 2 }, 2*time.Second, time.Millisecond)
	cancel()
	cancel()

	time.Sleep(10 * time.Millisecond)
	stopped := n.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, n.Load())
}
