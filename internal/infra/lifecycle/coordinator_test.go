package lifecycle

import (
	"sync"
	"testing"
	"time"
)

// fakeTracker records coordinator commands and lets tests fire the
// drain signal on demand.
type fakeTracker struct {
	mu          sync.Mutex
	calls       []string
	stopCalls   int
	notifyCalls int
	abortCalls  int

	drained   chan struct{}
	drainOnce sync.Once
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{drained: make(chan struct{})}
}

func (f *fakeTracker) StopAccepting() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCalls++
	f.calls = append(f.calls, "stop")
}

func (f *fakeTracker) NotifyClose() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifyCalls++
	f.calls = append(f.calls, "notify")
}

func (f *fakeTracker) Drained() <-chan struct{} {
	return f.drained
}

func (f *fakeTracker) Abort() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.abortCalls++
	f.calls = append(f.calls, "abort")
}

// fireDrain simulates the live connection count collapsing to zero.
func (f *fakeTracker) fireDrain() {
	f.drainOnce.Do(func() { close(f.drained) })
}

func (f *fakeTracker) counts() (stop, notify, abort int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopCalls, f.notifyCalls, f.abortCalls
}

func (f *fakeTracker) callOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func TestNewCoordinator(t *testing.T) {
	trk := newFakeTracker()
	c := NewCoordinator(InfiniteGrace(), trk, nil)
	if c == nil {
		t.Fatal("NewCoordinator returned nil")
	}
	if got := c.State(); got != StateAccepting {
		t.Errorf("initial state = %v, want %v", got, StateAccepting)
	}
	select {
	case <-c.Done():
		t.Error("Done channel should not be closed initially")
	default:
	}
}

func TestRequestShutdown_Idempotent(t *testing.T) {
	trk := newFakeTracker()
	c := NewCoordinator(InfiniteGrace(), trk, nil)

	for i := 0; i < 5; i++ {
		c.RequestShutdown()
	}

	if got := c.State(); got != StateDraining {
		t.Fatalf("state = %v, want %v", got, StateDraining)
	}
	stop, notify, _ := trk.counts()
	if stop != 1 {
		t.Errorf("StopAccepting called %d times, want 1", stop)
	}
	if notify != 1 {
		t.Errorf("NotifyClose called %d times, want 1", notify)
	}

	// Let the infinite drain finish so the goroutine exits.
	trk.fireDrain()
	if got := c.AwaitTermination(); got != OutcomeGraceful {
		t.Errorf("outcome = %v, want graceful", got)
	}
}

func TestRequestShutdown_ConcurrentCallers(t *testing.T) {
	trk := newFakeTracker()
	c := NewCoordinator(InfiniteGrace(), trk, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RequestShutdown()
		}()
	}
	wg.Wait()

	stop, notify, _ := trk.counts()
	if stop != 1 || notify != 1 {
		t.Errorf("stop=%d notify=%d, want 1/1", stop, notify)
	}

	trk.fireDrain()
	c.AwaitTermination()
}

func TestZeroGrace_ForcesImmediately(t *testing.T) {
	trk := newFakeTracker()
	c := NewCoordinator(ZeroGrace(), trk, nil)

	c.RequestShutdown()

	// The zero-grace path is synchronous: no waiting at all.
	if got := c.State(); got != StateTerminated {
		t.Fatalf("state = %v, want %v", got, StateTerminated)
	}
	if got := c.AwaitTermination(); got != OutcomeForced {
		t.Errorf("outcome = %v, want forced", got)
	}

	stop, notify, abort := trk.counts()
	if stop != 1 || notify != 1 || abort != 1 {
		t.Errorf("stop=%d notify=%d abort=%d, want 1/1/1", stop, notify, abort)
	}
	want := []string{"stop", "notify", "abort"}
	got := trk.callOrder()
	for i := range want {
		if i >= len(got) || got[i] != want[i] {
			t.Fatalf("call order = %v, want %v", got, want)
		}
	}
}

func TestBoundedZero_SameAsZeroGrace(t *testing.T) {
	g, err := BoundedGrace(0)
	if err != nil {
		t.Fatalf("BoundedGrace(0) error = %v", err)
	}
	if !g.IsZero() {
		t.Fatal("BoundedGrace(0) should normalize to zero grace")
	}

	trk := newFakeTracker()
	c := NewCoordinator(g, trk, nil)
	c.RequestShutdown()

	if got := c.State(); got != StateTerminated {
		t.Fatalf("state = %v, want terminated without delay", got)
	}
	_, _, abort := trk.counts()
	if abort != 1 {
		t.Errorf("abort called %d times, want 1", abort)
	}
}

func TestBoundedGrace_DrainWinsRace(t *testing.T) {
	trk := newFakeTracker()
	grace, _ := BoundedGrace(5 * time.Second)
	c := NewCoordinator(grace, trk, nil)

	start := time.Now()
	c.RequestShutdown()

	go func() {
		time.Sleep(30 * time.Millisecond)
		trk.fireDrain()
	}()

	outcome := c.AwaitTermination()
	elapsed := time.Since(start)

	if outcome != OutcomeGraceful {
		t.Errorf("outcome = %v, want graceful", outcome)
	}
	if elapsed >= 2*time.Second {
		t.Errorf("termination took %v, should track the drain, not the timer", elapsed)
	}
	if _, _, abort := trk.counts(); abort != 0 {
		t.Errorf("abort called %d times, want 0 on graceful drain", abort)
	}
}

func TestBoundedGrace_TimerWinsRace(t *testing.T) {
	trk := newFakeTracker()
	grace, _ := BoundedGrace(80 * time.Millisecond)
	c := NewCoordinator(grace, trk, nil)

	start := time.Now()
	c.RequestShutdown()

	outcome := c.AwaitTermination()
	elapsed := time.Since(start)

	if outcome != OutcomeForced {
		t.Errorf("outcome = %v, want forced", outcome)
	}
	if elapsed < 80*time.Millisecond {
		t.Errorf("terminated after %v, before the grace period elapsed", elapsed)
	}
	if _, _, abort := trk.counts(); abort != 1 {
		t.Errorf("abort called %d times, want exactly 1", abort)
	}
}

func TestInfiniteGrace_WaitsForDrain(t *testing.T) {
	trk := newFakeTracker()
	c := NewCoordinator(InfiniteGrace(), trk, nil)

	c.RequestShutdown()

	// No termination while the drain signal is outstanding.
	select {
	case <-c.Done():
		t.Fatal("terminated before drain with infinite grace")
	case <-time.After(150 * time.Millisecond):
	}

	trk.fireDrain()

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("did not terminate after drain completed")
	}

	if got := c.AwaitTermination(); got != OutcomeGraceful {
		t.Errorf("outcome = %v, want graceful", got)
	}
	if _, _, abort := trk.counts(); abort != 0 {
		t.Errorf("abort called %d times, want 0", abort)
	}
}

func TestRace_NoDoubleSideEffects(t *testing.T) {
	// Run the drain-vs-timer race with both events landing close
	// together; the abort command must fire at most once and exactly
	// one outcome must be produced each time.
	for i := 0; i < 30; i++ {
		trk := newFakeTracker()
		grace, _ := BoundedGrace(time.Millisecond)
		c := NewCoordinator(grace, trk, nil)

		go trk.fireDrain()
		c.RequestShutdown()

		outcome := c.AwaitTermination()
		if outcome != OutcomeGraceful && outcome != OutcomeForced {
			t.Fatalf("iteration %d: invalid outcome %v", i, outcome)
		}

		_, _, abort := trk.counts()
		if abort > 1 {
			t.Fatalf("iteration %d: abort called %d times", i, abort)
		}
		if outcome == OutcomeGraceful && abort != 0 {
			t.Fatalf("iteration %d: graceful outcome but abort fired", i)
		}
		if outcome == OutcomeForced && abort != 1 {
			t.Fatalf("iteration %d: forced outcome but abort count = %d", i, abort)
		}

		// Late firing of the losing event must stay inert.
		trk.fireDrain()
		c.RequestShutdown()
		if got := c.State(); got != StateTerminated {
			t.Fatalf("iteration %d: state = %v after termination", i, got)
		}
	}
}

func TestRequestShutdown_AfterTerminated(t *testing.T) {
	trk := newFakeTracker()
	c := NewCoordinator(ZeroGrace(), trk, nil)

	c.RequestShutdown()
	c.RequestShutdown()
	c.RequestShutdown()

	if got := c.State(); got != StateTerminated {
		t.Fatalf("state = %v, want terminated", got)
	}
	stop, notify, abort := trk.counts()
	if stop != 1 || notify != 1 || abort != 1 {
		t.Errorf("stop=%d notify=%d abort=%d, want 1/1/1", stop, notify, abort)
	}
}

func TestListen_Trigger(t *testing.T) {
	trk := newFakeTracker()
	c := NewCoordinator(ZeroGrace(), trk, nil)

	trigger := NewTrigger()
	c.Listen(trigger)

	trigger.Fire()
	trigger.Fire()

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("coordinator did not react to trigger")
	}

	if got := c.AwaitTermination(); got != OutcomeForced {
		t.Errorf("outcome = %v, want forced", got)
	}
	stop, _, _ := trk.counts()
	if stop != 1 {
		t.Errorf("StopAccepting called %d times, want 1", stop)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateAccepting, "accepting"},
		{StateDraining, "draining"},
		{StateTerminated, "terminated"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestOutcomeString(t *testing.T) {
	if OutcomeGraceful.String() != "graceful" {
		t.Error("OutcomeGraceful should stringify to graceful")
	}
	if OutcomeForced.String() != "forced" {
		t.Error("OutcomeForced should stringify to forced")
	}
}
