package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"go.uber.org/zap"
)

func newTestRegistry() (*Registry, clock.FakeClock) {
	clk := clock.NewFake()
	return NewRegistry(zap.NewNop(), clk), clk
}

func waitTick(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for task iteration")
	}
}

func TestStart_RunsImmediatelyThenOnPeriod(t *testing.T) {
	r, clk := newTestRegistry()
	defer r.StopAll()

	ticks := make(chan struct{}, 8)
	key := Key{UserID: 1, ChatID: -1, Feature: "interval"}
	if !r.Start(context.Background(), key, time.Minute, func(ctx context.Context) error {
		ticks <- struct{}{}
		return nil
	}) {
		t.Fatal("first Start must report a fresh task")
	}

	// First iteration fires before any clock advance.
	waitTick(t, ticks)

	clk.Add(time.Minute)
	waitTick(t, ticks)
}

func TestStart_SameKeyIsNoOp(t *testing.T) {
	r, clk := newTestRegistry()
	defer r.StopAll()

	key := Key{UserID: 1, ChatID: -1, Feature: "interval"}
	firstTicks := make(chan struct{}, 8)
	cancelled := make(chan struct{})

	r.Start(context.Background(), key, time.Minute, func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			close(cancelled)
			return ctx.Err()
		default:
		}
		firstTicks <- struct{}{}
		return nil
	})
	waitTick(t, firstTicks)

	if r.Start(context.Background(), key, time.Minute, func(ctx context.Context) error {
		t.Error("second task must never run")
		return nil
	}) {
		t.Fatal("second Start on a live key must report false")
	}

	// The original task keeps its schedule.
	clk.Add(time.Minute)
	waitTick(t, firstTicks)
	select {
	case <-cancelled:
		t.Fatal("second Start must not cancel the running task")
	default:
	}
	if !r.Active(key) {
		t.Fatal("task must stay registered")
	}
}

func TestOnce_SameKeyReplacesOldRun(t *testing.T) {
	r, _ := newTestRegistry()
	defer r.StopAll()

	key := Key{UserID: 1, ChatID: -1, Feature: "spam"}
	oldStopped := make(chan struct{})
	first := make(chan struct{})

	r.Once(context.Background(), key, func(ctx context.Context) error {
		close(first)
		<-ctx.Done()
		close(oldStopped)
		return ctx.Err()
	})
	<-first

	ticks := make(chan struct{}, 1)
	if r.Once(context.Background(), key, func(ctx context.Context) error {
		ticks <- struct{}{}
		<-ctx.Done()
		return ctx.Err()
	}) {
		t.Fatal("restart must report that a task was replaced")
	}

	waitTick(t, oldStopped)
	waitTick(t, ticks)
	if !r.Active(key) {
		t.Fatal("replacement task must stay registered")
	}
}

func TestStop_IsIdempotent(t *testing.T) {
	r, _ := newTestRegistry()
	defer r.StopAll()

	key := Key{UserID: 1, ChatID: -1, Feature: "online"}
	started := make(chan struct{})
	r.Once(context.Background(), key, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started

	if !r.Stop(key) {
		t.Fatal("first Stop must find the task")
	}
	if r.Stop(key) {
		t.Fatal("second Stop must be a no-op")
	}
	if r.Active(key) {
		t.Fatal("stopped task must not stay registered")
	}
}

func TestLoop_PermanentErrorSelfStops(t *testing.T) {
	r, _ := newTestRegistry()
	defer r.StopAll()

	key := Key{UserID: 1, ChatID: -1, Feature: "interval"}
	done := make(chan struct{}, 1)
	r.Start(context.Background(), key, time.Minute, func(ctx context.Context) error {
		done <- struct{}{}
		return errors.New("telegram: 502")
	})
	waitTick(t, done)
	// Plain errors keep the task alive.
	if !r.Active(key) {
		t.Fatal("transient error must not stop the task")
	}
	r.Stop(key)

	r.Start(context.Background(), key, time.Minute, func(ctx context.Context) error {
		done <- struct{}{}
		return ErrPermanent
	})
	waitTick(t, done)

	deadline := time.Now().Add(2 * time.Second)
	for r.Active(key) {
		if time.Now().After(deadline) {
			t.Fatal("permanent error must deregister the task")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStopAll_WaitsForGoroutines(t *testing.T) {
	r, _ := newTestRegistry()

	finished := make(chan struct{}, 3)
	for i := int64(1); i <= 3; i++ {
		r.Once(context.Background(), Key{UserID: i, ChatID: -i, Feature: "spam"}, func(ctx context.Context) error {
			<-ctx.Done()
			finished <- struct{}{}
			return ctx.Err()
		})
	}

	r.StopAll()
	if got := len(finished); got != 3 {
		t.Fatalf("StopAll returned before goroutines exited: %d of 3 done", got)
	}
	if r.Active(Key{UserID: 1, ChatID: -1, Feature: "spam"}) {
		t.Fatal("registry must be empty after StopAll")
	}
}
