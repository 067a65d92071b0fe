package control

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"
)

type fakeSignaler struct {
	err   error
	calls []signalCall
}

type signalCall struct {
	pid  int32
	mode Mode
}

func (f *fakeSignaler) Signal(pid int32, mode Mode) error {
	f.calls = append(f.calls, signalCall{pid: pid, mode: mode})
	return f.err
}

type fakeInspector struct {
	identities map[int32]Identity
	err        error
}

func (f *fakeInspector) Inspect(_ context.Context, pid int32) (Identity, error) {
	if f.err != nil {
		return Identity{}, f.err
	}
	id, ok := f.identities[pid]
	if !ok {
		return Identity{}, fmt.Errorf("%w: pid %d", ErrNotFound, pid)
	}
	return id, nil
}

var started = time.Unix(1_700_000_000, 0)

func newTestController(sig *fakeSignaler, ids map[int32]Identity, opts ...Option) *Controller {
	opts = append([]Option{WithSignaler(sig), WithInspector(&fakeInspector{identities: ids})}, opts...)
	return New(opts...)
}

func TestTerminateSendsRequestedMode(t *testing.T) {
	sig := &fakeSignaler{}
	ctrl := newTestController(sig, map[int32]Identity{42: {Name: "runaway", StartTime: started}})

	for _, mode := range []Mode{Graceful, Forced} {
		res := ctrl.Terminate(context.Background(), Target{PID: 42, StartTime: started}, mode)
		if res.Outcome != Success || res.Err != nil {
			t.Fatalf("%s: expected success, got %s (%v)", mode, res.Outcome, res.Err)
		}
		if res.Target.Name != "runaway" {
			t.Fatalf("expected name to be filled from inspection, got %q", res.Target.Name)
		}
	}
	if len(sig.calls) != 2 || sig.calls[0].mode != Graceful || sig.calls[1].mode != Forced {
		t.Fatalf("unexpected signal calls: %+v", sig.calls)
	}
}

func TestTerminateClassifiesSignalErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{name: "not found", err: fmt.Errorf("%w: pid 42", ErrNotFound), want: NotFound},
		{name: "permission", err: fmt.Errorf("%w: pid 42", ErrPermissionDenied), want: PermissionDenied},
		{name: "other", err: errors.New("device on fire"), want: OSError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := &fakeSignaler{err: tt.err}
			ctrl := newTestController(sig, map[int32]Identity{42: {Name: "x"}})
			res := ctrl.Terminate(context.Background(), Target{PID: 42}, Forced)
			if res.Outcome != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, res.Outcome)
			}
			if !errors.Is(res.Err, tt.err) {
				t.Fatalf("expected error %v to be preserved, got %v", tt.err, res.Err)
			}
		})
	}
}

func TestTerminateMissingProcessIsNotFound(t *testing.T) {
	sig := &fakeSignaler{}
	ctrl := newTestController(sig, nil)

	res := ctrl.Terminate(context.Background(), Target{PID: 404}, Graceful)
	if res.Outcome != NotFound {
		t.Fatalf("expected NotFound, got %s", res.Outcome)
	}
	if res.Failed() {
		t.Fatalf("expected NotFound to be benign")
	}
	if len(sig.calls) != 0 {
		t.Fatalf("expected no signal for a missing process")
	}
}

func TestTerminateDetectsPIDReuse(t *testing.T) {
	sig := &fakeSignaler{}
	ctrl := newTestController(sig, map[int32]Identity{42: {Name: "newcomer", StartTime: started.Add(time.Minute)}})

	res := ctrl.Terminate(context.Background(), Target{PID: 42, Name: "old", StartTime: started}, Forced)
	if res.Outcome != NotFound {
		t.Fatalf("expected NotFound for reused pid, got %s", res.Outcome)
	}
	if len(sig.calls) != 0 {
		t.Fatalf("expected reused pid not to be signalled")
	}
}

func TestTerminateRefusesProtectedNames(t *testing.T) {
	sig := &fakeSignaler{}
	ctrl := newTestController(sig, map[int32]Identity{1: {Name: "Systemd"}})

	res := ctrl.Terminate(context.Background(), Target{PID: 1}, Forced)
	if res.Outcome != Protected || !errors.Is(res.Err, ErrProtected) {
		t.Fatalf("expected Protected, got %s (%v)", res.Outcome, res.Err)
	}
	if !res.Failed() {
		t.Fatalf("expected protected refusal to be surfaced")
	}
	if len(sig.calls) != 0 {
		t.Fatalf("expected protected process not to be signalled")
	}

	ctrl = newTestController(sig, map[int32]Identity{1: {Name: "systemd"}}, WithProtected([]string{}))
	if res := ctrl.Terminate(context.Background(), Target{PID: 1}, Forced); res.Outcome != Success {
		t.Fatalf("expected empty protected list to allow signalling, got %s", res.Outcome)
	}
}

func TestTerminateRefusesInvalidAndSelf(t *testing.T) {
	sig := &fakeSignaler{}
	ctrl := newTestController(sig, nil)

	for _, pid := range []int32{0, -1} {
		res := ctrl.Terminate(context.Background(), Target{PID: pid}, Forced)
		if res.Outcome != OSError || !errors.Is(res.Err, ErrInvalidPID) {
			t.Fatalf("pid %d: expected invalid pid error, got %s (%v)", pid, res.Outcome, res.Err)
		}
	}
	res := ctrl.Terminate(context.Background(), Target{PID: int32(os.Getpid())}, Forced)
	if res.Outcome != Protected {
		t.Fatalf("expected self to be protected, got %s", res.Outcome)
	}
	if len(sig.calls) != 0 {
		t.Fatalf("expected no signals, got %+v", sig.calls)
	}
}

func TestTerminateProceedsWhenInspectionFails(t *testing.T) {
	sig := &fakeSignaler{}
	ctrl := New(WithSignaler(sig), WithInspector(&fakeInspector{err: errors.New("proc busy")}))

	res := ctrl.Terminate(context.Background(), Target{PID: 42, Name: "worker"}, Graceful)
	if res.Outcome != Success {
		t.Fatalf("expected success, got %s (%v)", res.Outcome, res.Err)
	}
	if len(sig.calls) != 1 {
		t.Fatalf("expected one signal, got %d", len(sig.calls))
	}
}

func TestResultMessage(t *testing.T) {
	target := Target{PID: 7, Name: "yes"}
	cases := map[Outcome]string{
		Success:          "killed yes (PID 7)",
		NotFound:         "PID 7 already exited",
		PermissionDenied: "permission denied: cannot signal yes (PID 7)",
		Protected:        "yes (PID 7) is protected",
	}
	for outcome, want := range cases {
		res := Result{Target: target, Mode: Forced, Outcome: outcome}
		if got := res.Message(); got != want {
			t.Fatalf("%s: expected %q, got %q", outcome, want, got)
		}
	}
	graceful := Result{Target: target, Mode: Graceful, Outcome: Success}
	if got := graceful.Message(); got != "asked yes (PID 7) to exit" {
		t.Fatalf("unexpected graceful message %q", got)
	}
}

func TestIsProtected(t *testing.T) {
	list := DefaultProtected()
	if !IsProtected(list, "INIT") {
		t.Fatalf("expected case-insensitive match")
	}
	if IsProtected(list, "initd") {
		t.Fatalf("expected exact name match only")
	}
	if IsProtected(list, "") {
		t.Fatalf("expected empty name never to be protected")
	}
}
