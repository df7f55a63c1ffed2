// Package tasks tracks the repeating background jobs a user has started
// (spam floods, fake presence, interval posts, animations) and lets them
// be stopped individually or all at once on shutdown.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmhodges/clock"
	"go.uber.org/zap"
)

// Key identifies a running task. One task per (user, chat, feature):
// Start on a live key is a no-op, Once supersedes the previous run.
type Key struct {
	UserID  int64
	ChatID  int64
	Feature string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d/%d", k.Feature, k.UserID, k.ChatID)
}

// ErrPermanent wraps failures that repeating won't fix (deleted chat,
// revoked rights). A task whose work returns it stops itself.
var ErrPermanent = errors.New("permanent task failure")

// Work performs one iteration of a repeating task.
type Work func(ctx context.Context) error

type entry struct {
	cancel context.CancelFunc
}

// Registry owns the goroutines behind repeating tasks. All methods are
// safe for concurrent use.
type Registry struct {
	log *zap.Logger
	clk clock.Clock

	mu      sync.Mutex
	running map[Key]*entry
	wg      sync.WaitGroup
}

func NewRegistry(log *zap.Logger, clk clock.Clock) *Registry {
	return &Registry{
		log:     log,
		clk:     clk,
		running: make(map[Key]*entry),
	}
}

// Start launches a repeating task: run work, sleep period, repeat. If a
// task with the same key is already live, Start reports false and the
// running task is left untouched; re-enabling is a no-op.
func (r *Registry) Start(ctx context.Context, key Key, period time.Duration, work Work) bool {
	e, taskCtx, ok := r.add(ctx, key)
	if !ok {
		return false
	}
	r.wg.Add(1)
	go r.loop(taskCtx, e, key, period, work)
	return true
}

// Once launches a finite task: work runs a single time and the key
// deregisters when it returns. Used for spam floods and animations,
// whose work loops internally and honors ctx. Unlike Start, issuing
// Once on a live key cancels the previous run and replaces it, so a
// new playback supersedes one still in flight.
func (r *Registry) Once(ctx context.Context, key Key, work Work) bool {
	e, taskCtx, existed := r.replace(ctx, key)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.deregister(key, e)
		if err := work(taskCtx); err != nil && !errors.Is(err, context.Canceled) {
			r.log.Warn("task finished with error", zap.Stringer("task", key), zap.Error(err))
		}
	}()
	return !existed
}

// add installs an entry only when key is absent.
func (r *Registry) add(ctx context.Context, key Key) (*entry, context.Context, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.running[key]; exists {
		return nil, nil, false
	}
	taskCtx, cancel := context.WithCancel(ctx)
	e := &entry{cancel: cancel}
	r.running[key] = e
	return e, taskCtx, true
}

// replace installs an entry, cancelling any previous one under key.
func (r *Registry) replace(ctx context.Context, key Key) (*entry, context.Context, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, existed := r.running[key]
	if existed {
		prev.cancel()
	}
	taskCtx, cancel := context.WithCancel(ctx)
	e := &entry{cancel: cancel}
	r.running[key] = e
	return e, taskCtx, existed
}

// deregister removes key only if our entry is still the installed one.
// A restart may have replaced it while the old goroutine was winding
// down.
func (r *Registry) deregister(key Key, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running[key] == e {
		delete(r.running, key)
	}
}

func (r *Registry) loop(ctx context.Context, e *entry, key Key, period time.Duration, work Work) {
	defer r.wg.Done()
	defer r.deregister(key, e)

	for {
		if err := work(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			if errors.Is(err, ErrPermanent) {
				r.log.Warn("task stopped permanently", zap.Stringer("task", key), zap.Error(err))
				return
			}
			// Transient failure: log and keep the schedule.
			r.log.Error("task iteration failed", zap.Stringer("task", key), zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-r.clk.After(period):
		}
	}
}

// Stop cancels the task with the given key. Reports whether one was
// running.
func (r *Registry) Stop(key Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.running[key]
	if !ok {
		return false
	}
	e.cancel()
	delete(r.running, key)
	return true
}

// Active reports whether a task with the given key is registered.
func (r *Registry) Active(key Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.running[key]
	return ok
}

// StopAll cancels every task and waits for the goroutines to exit.
func (r *Registry) StopAll() {
	r.mu.Lock()
	for key, e := range r.running {
		e.cancel()
		delete(r.running, key)
	}
	r.mu.Unlock()
	r.wg.Wait()
}
