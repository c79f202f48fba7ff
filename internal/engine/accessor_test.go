package engine_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mixdown/internal/engine"
	"mixdown/internal/services"
)

type gatedEngine struct {
	gate   chan struct{}
	loads  atomic.Int32
	fail   atomic.Int32
	closed atomic.Bool
}

func (g *gatedEngine) Load(ctx context.Context) error {
	g.loads.Add(1)
	if g.gate != nil {
		select {
		case <-g.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if g.fail.Load() > 0 {
		g.fail.Add(-1)
		return errors.New("wasm fetch failed")
	}
	return nil
}

func (g *gatedEngine) WriteFile(context.Context, string, []byte) error  { return nil }
func (g *gatedEngine) Exec(context.Context, []string) error             { return nil }
func (g *gatedEngine) ReadFile(context.Context, string) ([]byte, error) { return nil, nil }
func (g *gatedEngine) DeleteFile(context.Context, string) error         { return nil }
func (g *gatedEngine) Close() error                                     { g.closed.Store(true); return nil }

func TestAcquireConcurrentCallersShareOneLoad(t *testing.T) {
	eng := &gatedEngine{gate: make(chan struct{})}
	acc := engine.NewAccessor(eng)

	var wg sync.WaitGroup
	results := make([]engine.Engine, 2)
	errs := make([]error, 2)
	for i := range 2 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = acc.Acquire(context.Background())
		}(i)
	}

	deadline := time.Now().Add(2 * time.Second)
	for eng.loads.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	close(eng.gate)
	wg.Wait()

	for i := range 2 {
		if errs[i] != nil {
			t.Fatalf("acquire %d: %v", i, errs[i])
		}
		if results[i] != eng {
			t.Fatalf("acquire %d returned a different engine", i)
		}
	}
	if got := eng.loads.Load(); got != 1 {
		t.Fatalf("expected exactly one load, got %d", got)
	}

	if _, err := acc.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire after ready: %v", err)
	}
	if got := eng.loads.Load(); got != 1 {
		t.Fatalf("ready engine should not reload, got %d loads", got)
	}
}

func TestAcquireFailureAllowsRetry(t *testing.T) {
	eng := &gatedEngine{}
	eng.fail.Store(1)
	var observed []error
	acc := engine.NewAccessor(eng, engine.WithLoadObserver(func(_ time.Duration, err error) {
		observed = append(observed, err)
	}))

	_, err := acc.Acquire(context.Background())
	if err == nil {
		t.Fatal("expected load failure")
	}
	if !errors.Is(err, services.ErrLoad) {
		t.Fatalf("expected ErrLoad, got %v", err)
	}
	if acc.Ready() {
		t.Fatal("accessor should return to uninitialized after failure")
	}

	if _, err := acc.Acquire(context.Background()); err != nil {
		t.Fatalf("retry acquire: %v", err)
	}
	if got := eng.loads.Load(); got != 2 {
		t.Fatalf("expected two load attempts, got %d", got)
	}
	if len(observed) != 2 || observed[0] == nil || observed[1] != nil {
		t.Fatalf("unexpected observer calls: %v", observed)
	}
}

func TestAcquireWaiterCancellation(t *testing.T) {
	eng := &gatedEngine{gate: make(chan struct{})}
	acc := engine.NewAccessor(eng)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := acc.Acquire(ctx)
	if !errors.Is(err, services.ErrLoad) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled load error, got %v", err)
	}

	close(eng.gate)
	if _, err := acc.Acquire(context.Background()); err != nil {
		t.Fatalf("detached load should still succeed: %v", err)
	}
	if got := eng.loads.Load(); got != 1 {
		t.Fatalf("expected the detached load to be reused, got %d loads", got)
	}
}

func TestAcquireLoadTimeout(t *testing.T) {
	eng := &gatedEngine{gate: make(chan struct{})}
	acc := engine.NewAccessor(eng, engine.WithLoadTimeout(20*time.Millisecond))
	_, err := acc.Acquire(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestCloseTearsDownEngine(t *testing.T) {
	eng := &gatedEngine{}
	acc := engine.NewAccessor(eng)
	if _, err := acc.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := acc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !eng.closed.Load() {
		t.Fatal("expected engine Close to be called")
	}
	if _, err := acc.Acquire(context.Background()); !errors.Is(err, engine.ErrAccessorClosed) {
		t.Fatalf("expected closed error, got %v", err)
	}
}
