package async

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"bridgecore/core/types"
)

type pendingCall struct {
	call     Call
	callback Callback
}

// Queue is an in-process Scheduler. Calls addressed to a registered receiver
// are executed by Drain; all others stay pending until Resolve is called with
// the outcome reported by the outside world. Calls never time out.
type Queue struct {
	mu       sync.Mutex
	order    []string
	pending  map[string]pendingCall
	handlers map[types.AccountID]Handler
	logger   *slog.Logger
	observer func(call Call, res Result)
}

// NewQueue returns an empty queue.
func NewQueue(logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		pending:  make(map[string]pendingCall),
		handlers: make(map[types.AccountID]Handler),
		logger:   logger,
	}
}

// Register routes calls addressed to receiver to h.
func (q *Queue) Register(receiver types.AccountID, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[receiver] = h
}

// SetObserver installs a hook invoked after each call resolves.
func (q *Queue) SetObserver(fn func(call Call, res Result)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.observer = fn
}

// Schedule implements Scheduler.
func (q *Queue) Schedule(call Call, cb Callback) (string, error) {
	if err := call.Validate(); err != nil {
		return "", err
	}
	if call.ID == "" {
		call.ID = uuid.NewString()
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, exists := q.pending[call.ID]; exists {
		return "", fmt.Errorf("%w: duplicate id %s", ErrInvalidCall, call.ID)
	}
	q.pending[call.ID] = pendingCall{call: call, callback: cb}
	q.order = append(q.order, call.ID)
	q.logger.Debug("async call scheduled",
		slog.String("id", call.ID),
		slog.String("caller", call.Caller.String()),
		slog.String("receiver", call.Receiver.String()),
		slog.String("method", call.Method))
	return call.ID, nil
}

// Pending lists unresolved calls in scheduling order.
func (q *Queue) Pending() []Call {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Call, 0, len(q.order))
	for _, id := range q.order {
		out = append(out, q.pending[id].call)
	}
	return out
}

// Get returns a pending call.
func (q *Queue) Get(id string) (Call, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	p, ok := q.pending[id]
	return p.call, ok
}

// Resolve delivers res to the callback of call id exactly once. The callback
// runs without the queue lock held so it may schedule further calls.
func (q *Queue) Resolve(id string, res Result) error {
	q.mu.Lock()
	p, ok := q.pending[id]
	if !ok {
		q.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownCall, id)
	}
	delete(q.pending, id)
	for i, queued := range q.order {
		if queued == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
	observer := q.observer
	q.mu.Unlock()

	if observer != nil {
		observer(p.call, res)
	}
	if p.callback == nil {
		return nil
	}
	if err := p.callback(res); err != nil {
		q.logger.Warn("async callback failed",
			slog.String("id", id),
			slog.String("method", p.call.Method),
			slog.Any("error", err))
		return fmt.Errorf("async: callback for %s: %w", p.call.Method, err)
	}
	return nil
}

// Drain executes pending calls whose receiver has a handler, in FIFO order,
// until none are left. Calls scheduled by handlers or callbacks are picked up
// in the same pass. It returns the number of calls executed and the callback
// errors joined together.
func (q *Queue) Drain(ctx context.Context) (int, error) {
	executed := 0
	var errs []error
	for {
		if err := ctx.Err(); err != nil {
			return executed, err
		}
		id, call, handler, ok := q.nextRunnable()
		if !ok {
			break
		}
		res := handler.HandleCall(ctx, call)
		executed++
		if err := q.Resolve(id, res); err != nil {
			errs = append(errs, err)
		}
	}
	return executed, errors.Join(errs...)
}

func (q *Queue) nextRunnable() (string, Call, Handler, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, id := range q.order {
		p := q.pending[id]
		if h, ok := q.handlers[p.call.Receiver]; ok {
			return id, p.call, h, true
		}
	}
	return "", Call{}, nil, false
}
