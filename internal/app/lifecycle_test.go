package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bft-labs/canvasship/internal/domain"
	"github.com/bft-labs/canvasship/pkg/log"
)

// mockLogger implements log.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...log.Field) {}
func (mockLogger) Info(msg string, fields ...log.Field)  {}
func (mockLogger) Warn(msg string, fields ...log.Field)  {}
func (mockLogger) Error(msg string, fields ...log.Field) {}

// mockEmitter records state changes in order.
type mockEmitter struct {
	mu     sync.Mutex
	events []stateChangeEvent
}

type stateChangeEvent struct {
	previous State
	current  State
	reason   string
}

func (m *mockEmitter) OnStateChange(previous, current State, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, stateChangeEvent{previous, current, reason})
}

func (m *mockEmitter) Events() []stateChangeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]stateChangeEvent{}, m.events...)
}

// path returns the visited states, starting with the first previous state.
func (m *mockEmitter) path() []State {
	events := m.Events()
	if len(events) == 0 {
		return nil
	}
	out := []State{events[0].previous}
	for _, e := range events {
		out = append(out, e.current)
	}
	return out
}

func assertPath(t *testing.T, got []State, want ...State) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("path = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("path = %v, want %v", got, want)
		}
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateStopped, "Stopped"},
		{StateStarting, "Starting"},
		{StateRunning, "Running"},
		{StateStopping, "Stopping"},
		{StateCrashed, "Crashed"},
		{State(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestLifecycle_TransitionMatrix(t *testing.T) {
	all := []State{StateStopped, StateStarting, StateRunning, StateStopping, StateCrashed}
	allowed := map[State][]State{
		StateStopped:  {StateStarting},
		StateStarting: {StateRunning, StateStopping, StateCrashed},
		StateRunning:  {StateStopping, StateCrashed},
		StateStopping: {StateStopped, StateCrashed},
		StateCrashed:  {StateStarting},
	}
	// Leaving an idle state is refused as not running; anything else as
	// already running.
	refusal := func(from State) error {
		if from == StateStopped || from == StateCrashed {
			return domain.ErrNotRunning
		}
		return domain.ErrAlreadyRunning
	}

	for _, from := range all {
		for _, to := range all {
			ok := false
			for _, a := range allowed[from] {
				ok = ok || a == to
			}
			t.Run(from.String()+"->"+to.String(), func(t *testing.T) {
				l := NewLifecycle(mockLogger{}, nil)
				l.state = from

				err := l.TransitionTo(to, "matrix")
				if ok {
					if err != nil || l.State() != to {
						t.Errorf("TransitionTo() = %v, state %v; want nil, %v", err, l.State(), to)
					}
					return
				}
				if !errors.Is(err, refusal(from)) {
					t.Errorf("TransitionTo() = %v, want %v", err, refusal(from))
				}
				if l.State() != from {
					t.Errorf("state = %v after refused transition, want %v", l.State(), from)
				}
			})
		}
	}
}

func TestLifecycle_CanStartCanStop(t *testing.T) {
	tests := []struct {
		state    State
		canStart bool
		canStop  bool
	}{
		{StateStopped, true, false},
		{StateStarting, false, true},
		{StateRunning, false, true},
		{StateStopping, false, false},
		{StateCrashed, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			l := NewLifecycle(mockLogger{}, nil)
			l.state = tt.state
			if got := l.CanStart(); got != tt.canStart {
				t.Errorf("CanStart() = %v, want %v", got, tt.canStart)
			}
			if got := l.CanStop(); got != tt.canStop {
				t.Errorf("CanStop() = %v, want %v", got, tt.canStop)
			}
		})
	}
}

// startWorkers moves l to Running with n workers blocked on the returned
// context, the way a session starts.
func startWorkers(t *testing.T, l *Lifecycle, n int) context.Context {
	t.Helper()
	if err := l.TransitionTo(StateStarting, "start"); err != nil {
		t.Fatalf("Starting: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.SetCancel(cancel)
	for i := 0; i < n; i++ {
		l.Go(func() { <-ctx.Done() })
	}
	if err := l.TransitionTo(StateRunning, "workers started"); err != nil {
		t.Fatalf("Running: %v", err)
	}
	return ctx
}

func TestLifecycle_GracefulStop(t *testing.T) {
	emitter := &mockEmitter{}
	l := NewLifecycle(mockLogger{}, emitter)
	startWorkers(t, l, 3)

	if err := l.TransitionTo(StateStopping, "stop"); err != nil {
		t.Fatalf("Stopping: %v", err)
	}
	l.Cancel()
	if err := l.WaitWithTimeout(time.Second); err != nil {
		t.Fatalf("WaitWithTimeout() = %v", err)
	}
	if err := l.TransitionTo(StateStopped, "graceful shutdown"); err != nil {
		t.Fatalf("Stopped: %v", err)
	}

	assertPath(t, emitter.path(), StateStopped, StateStarting, StateRunning, StateStopping, StateStopped)
	if events := emitter.Events(); events[len(events)-1].reason != "graceful shutdown" {
		t.Errorf("last reason = %q", events[len(events)-1].reason)
	}
}

func TestLifecycle_FinishBeforeRunning(t *testing.T) {
	// A single-capture run can complete while Start is still in Starting.
	emitter := &mockEmitter{}
	l := NewLifecycle(mockLogger{}, emitter)
	if err := l.TransitionTo(StateStarting, "start"); err != nil {
		t.Fatal(err)
	}

	if err := l.TransitionTo(StateStopping, "capture complete"); err != nil {
		t.Fatalf("Starting->Stopping: %v", err)
	}
	if err := l.TransitionTo(StateStopped, "capture complete"); err != nil {
		t.Fatalf("Stopping->Stopped: %v", err)
	}
	if err := l.TransitionTo(StateRunning, "workers started"); !errors.Is(err, domain.ErrNotRunning) {
		t.Errorf("late Running transition = %v, want ErrNotRunning", err)
	}

	assertPath(t, emitter.path(), StateStopped, StateStarting, StateStopping, StateStopped)
	if !l.CanStart() {
		t.Error("CanStart() = false after finish")
	}
}

func TestLifecycle_StopRacesFinish(t *testing.T) {
	for i := 0; i < 20; i++ {
		l := NewLifecycle(mockLogger{}, nil)
		startWorkers(t, l, 1)

		var wins atomic.Int32
		var wg sync.WaitGroup
		for _, reason := range []string{"Stop() called", "capture complete"} {
			wg.Add(1)
			go func(reason string) {
				defer wg.Done()
				if l.TransitionTo(StateStopping, reason) == nil {
					wins.Add(1)
				}
			}(reason)
		}
		wg.Wait()

		if n := wins.Load(); n != 1 {
			t.Fatalf("%d callers entered Stopping, want exactly 1", n)
		}
		l.Cancel()
		if err := l.WaitWithTimeout(time.Second); err != nil {
			t.Fatal(err)
		}
	}
}

func TestLifecycle_CrashCancelsWorkersAndAllowsRestart(t *testing.T) {
	emitter := &mockEmitter{}
	l := NewLifecycle(mockLogger{}, emitter)
	ctx := startWorkers(t, l, 2)

	if err := l.TransitionTo(StateCrashed, "upload failed"); err != nil {
		t.Fatalf("Crashed: %v", err)
	}
	l.Cancel()
	select {
	case <-ctx.Done():
	default:
		t.Fatal("Cancel() did not reach the workers")
	}
	if err := l.WaitWithTimeout(time.Second); err != nil {
		t.Fatalf("WaitWithTimeout() = %v", err)
	}

	if l.CanStop() {
		t.Error("CanStop() = true after crash")
	}
	// A Stop racing the crash finds nothing to stop.
	if err := l.TransitionTo(StateStopping, "Stop() called"); !errors.Is(err, domain.ErrNotRunning) {
		t.Errorf("Stopping after crash = %v, want ErrNotRunning", err)
	}
	if events := emitter.Events(); events[len(events)-1].reason != "upload failed" {
		t.Errorf("crash reason = %q", events[len(events)-1].reason)
	}

	startWorkers(t, l, 1)
	assertPath(t, emitter.path(),
		StateStopped, StateStarting, StateRunning, StateCrashed, StateStarting, StateRunning)
	l.Cancel()
	if err := l.WaitWithTimeout(time.Second); err != nil {
		t.Fatal(err)
	}
}

func TestLifecycle_ShutdownTimeoutCrashes(t *testing.T) {
	emitter := &mockEmitter{}
	l := NewLifecycle(mockLogger{}, emitter)
	startWorkers(t, l, 1)

	release := make(chan struct{})
	l.Go(func() { <-release })

	if err := l.TransitionTo(StateStopping, "stop"); err != nil {
		t.Fatal(err)
	}
	l.Cancel()
	if err := l.WaitWithTimeout(20 * time.Millisecond); !errors.Is(err, domain.ErrShutdownTimeout) {
		t.Fatalf("WaitWithTimeout() = %v, want ErrShutdownTimeout", err)
	}
	if err := l.TransitionTo(StateCrashed, "shutdown timeout"); err != nil {
		t.Fatalf("Stopping->Crashed: %v", err)
	}
	assertPath(t, emitter.path(), StateStopped, StateStarting, StateRunning, StateStopping, StateCrashed)

	close(release)
	if err := l.WaitWithTimeout(time.Second); err != nil {
		t.Errorf("WaitWithTimeout() after release = %v", err)
	}
}

func TestLifecycle_Cancel_NilSafe(t *testing.T) {
	l := NewLifecycle(mockLogger{}, nil)
	l.Cancel()
}

func TestLifecycle_ConcurrentReadsAndTransitions(t *testing.T) {
	l := NewLifecycle(mockLogger{}, &mockEmitter{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = l.State()
				_ = l.CanStart()
				_ = l.CanStop()
			}
		}()
	}

	var starts atomic.Int32
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TransitionTo(StateStarting, "start") == nil {
				starts.Add(1)
			}
		}()
	}
	wg.Wait()

	if n := starts.Load(); n != 1 {
		t.Errorf("%d concurrent starts succeeded, want 1", n)
	}
}
