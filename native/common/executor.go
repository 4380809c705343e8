package common

import (
	"errors"
	"fmt"
	"log/slog"

	"bridgecore/core/async"
	"bridgecore/core/events"
	"bridgecore/core/state"
	"bridgecore/core/types"
	"bridgecore/observability/metrics"
)

var (
	ErrReentrant  = errors.New("operation already in progress")
	ErrOutsideRun = errors.New("call scheduled outside an operation")
	ErrPanicked   = errors.New("operation panicked")
)

type scheduled struct {
	call async.Call
	cb   async.Callback
}

// Executor runs contract operations all-or-nothing. State writes, outgoing
// calls and events staged by an operation become visible only when it
// returns nil; otherwise all three are dropped.
type Executor struct {
	module    string
	account   types.AccountID
	state     *state.Manager
	scheduler async.Scheduler
	emitter   events.Emitter
	logger    *slog.Logger
	telemetry *metrics.ContractMetrics

	running bool
	outbox  []scheduled
	events  []events.Event
}

// NewExecutor binds an executor to the contract state and the host scheduler.
func NewExecutor(module string, account types.AccountID, st *state.Manager, scheduler async.Scheduler) *Executor {
	return &Executor{
		module:    module,
		account:   account,
		state:     st,
		scheduler: scheduler,
		emitter:   events.NoopEmitter{},
		logger:    slog.Default().With(slog.String("contract", module), slog.String("account", account.String())),
		telemetry: metrics.Contracts(),
	}
}

// SetEmitter configures the event sink. Nil installs a no-op emitter.
func (e *Executor) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetLogger replaces the operation logger.
func (e *Executor) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	e.logger = logger.With(slog.String("contract", e.module), slog.String("account", e.account.String()))
}

func (e *Executor) Logger() *slog.Logger                { return e.logger }
func (e *Executor) Telemetry() *metrics.ContractMetrics { return e.telemetry }

// Run executes fn as one operation. A panic in fn counts as a failure.
// Staged calls are checked before the commit, so a call the scheduler would
// refuse rejects the whole operation. Events go out after the calls are
// handed over.
func (e *Executor) Run(op string, fn func() error) error {
	if e.running {
		return fmt.Errorf("%s %s: %w", e.module, op, ErrReentrant)
	}
	e.running = true
	defer func() {
		e.running = false
		e.outbox = nil
		e.events = nil
	}()
	e.outbox, e.events = nil, nil

	if err := e.stage(fn); err != nil {
		e.state.Revert()
		e.telemetry.ObserveOperation(e.module, op, err)
		e.logger.Warn("operation rejected", slog.String("op", op), slog.Any("error", err))
		return err
	}
	if err := e.state.Commit(); err != nil {
		e.state.Revert()
		e.telemetry.ObserveOperation(e.module, op, err)
		e.logger.Error("operation commit failed", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("%s %s: %w", e.module, op, err)
	}

	// The operation stands once committed; a refused call is only logged.
	for _, out := range e.outbox {
		if _, err := e.scheduler.Schedule(out.call, out.cb); err != nil {
			e.logger.Error("operation dispatch failed",
				slog.String("op", op),
				slog.String("receiver", out.call.Receiver.String()),
				slog.String("method", out.call.Method),
				slog.Any("error", err))
		}
	}
	for _, evt := range e.events {
		e.emitter.Emit(evt)
	}
	e.telemetry.ObserveOperation(e.module, op, nil)
	e.logger.Info("operation applied", slog.String("op", op), slog.Int("calls", len(e.outbox)))
	return nil
}

// stage runs fn and checks the calls it left in the outbox.
func (e *Executor) stage(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %w: %v", e.module, ErrPanicked, r)
		}
	}()
	if err := fn(); err != nil {
		return err
	}
	for _, out := range e.outbox {
		if err := out.call.Validate(); err != nil {
			return fmt.Errorf("%s: %w", e.module, err)
		}
	}
	return nil
}

// Schedule stages an outgoing call. The caller defaults to the contract
// account and the scheduler assigns the call id.
func (e *Executor) Schedule(call async.Call, cb async.Callback) error {
	if !e.running {
		return fmt.Errorf("%s: %w", e.module, ErrOutsideRun)
	}
	if err := call.Validate(); err != nil {
		return fmt.Errorf("%s: %w", e.module, err)
	}
	if call.Caller.IsEmpty() {
		call.Caller = e.account
	}
	call.ID = ""
	e.outbox = append(e.outbox, scheduled{call: call, cb: cb})
	return nil
}

// Emit stages an event.
func (e *Executor) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	e.events = append(e.events, evt)
}
