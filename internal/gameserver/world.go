package gameserver

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
)

// ErrWorldStopped is returned for work submitted after the loop exited.
var ErrWorldStopped = errors.New("world loop stopped")

const defaultInboxSize = 1024

// World owns the serial processing loop of one game world. Every engine
// call, store mutation and daily reroll for the world runs inside it.
type World struct {
	id      string
	inbox   chan func()
	done    chan struct{} // closed when the loop stops accepting work
	stopped chan struct{} // closed after the final drain
}

// NewWorld creates a world loop. It does nothing until Run is called.
func NewWorld(id string, inboxSize int) *World {
	if inboxSize <= 0 {
		inboxSize = defaultInboxSize
	}
	return &World{
		id:      id,
		inbox:   make(chan func(), inboxSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// ID returns the world id.
func (w *World) ID() string { return w.id }

// Run executes submitted tasks in order until ctx is cancelled.
// Tasks already queued at cancellation still run before Run returns.
func (w *World) Run(ctx context.Context) error {
	slog.Info("world loop started", "world", w.id)
	defer func() {
		close(w.stopped)
		slog.Info("world loop stopped", "world", w.id)
	}()

	for {
		select {
		case fn := <-w.inbox:
			w.exec(fn)
		case <-ctx.Done():
			close(w.done)
			for {
				select {
				case fn := <-w.inbox:
					w.exec(fn)
				default:
					return ctx.Err()
				}
			}
		}
	}
}

func (w *World) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("world task panicked",
				"world", w.id,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

// Submit queues fn. It blocks while the inbox is full and returns false
// once the loop has stopped.
func (w *World) Submit(fn func()) bool {
	select {
	case <-w.done:
		return false
	default:
	}
	select {
	case w.inbox <- fn:
		return true
	case <-w.done:
		return false
	}
}

// Do runs fn on the loop and waits for it to finish.
func (w *World) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !w.Submit(func() {
		defer close(finished)
		fn()
	}) {
		return ErrWorldStopped
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-w.stopped:
		select {
		case <-finished:
			return nil
		default:
			return ErrWorldStopped
		}
	}
}
