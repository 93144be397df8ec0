package services

import (
	"context"
	"errors"

	"finboss/internal/api"
	"finboss/internal/core"
	applog "finboss/internal/log"
	"finboss/internal/observable"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// ServiceState is the published state of one service. An empty
// ErrorMessage means no error.
type ServiceState[T any] struct {
	Data         T
	IsLoading    bool
	ErrorMessage string
	Loaded       bool // at least one operation succeeded
}

func (s ServiceState[T]) Phase() Phase {
	switch {
	case s.IsLoading:
		return PhaseLoading
	case s.ErrorMessage != "":
		return PhaseFailed
	case s.Loaded:
		return PhaseSuccess
	default:
		return PhaseIdle
	}
}

func (s ServiceState[T]) HasError() bool {
	return s.ErrorMessage != ""
}

// EventPublisher receives domain events after successful operations.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event core.Event) error
}

// base carries the state store and lifecycle bookkeeping shared by every service.
type base[T any] struct {
	store    *observable.Store[ServiceState[T]]
	inFlight int // guarded by the store's update lock
	logger   *applog.Logger
	sl       *applog.StructuredLogger
	events   EventPublisher
}

func newBase[T any](initial T, logger *applog.Logger, component string, events EventPublisher) *base[T] {
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(component)
	return &base[T]{
		store:  observable.New(ServiceState[T]{Data: initial}),
		logger: logger,
		sl:     applog.NewStructuredLogger(logger),
		events: events,
	}
}

func (b *base[T]) State() ServiceState[T] {
	return b.store.Get()
}

// Subscribe registers fn for every state change. fn is called once
// immediately with the current state. fn must not call mutating methods of
// the service synchronously.
func (b *base[T]) Subscribe(fn func(ServiceState[T])) (unsubscribe func()) {
	return b.store.Subscribe(fn)
}

// ClearError drops the current error message. Without an error it does nothing.
func (b *base[T]) ClearError() {
	b.store.UpdateIf(func(s ServiceState[T]) (ServiceState[T], bool) {
		if s.ErrorMessage == "" {
			return s, false
		}
		s.ErrorMessage = ""
		return s, true
	})
}

func (b *base[T]) begin() {
	b.store.Update(func(s ServiceState[T]) ServiceState[T] {
		b.inFlight++
		s.IsLoading = true
		s.ErrorMessage = ""
		return s
	})
}

func (b *base[T]) finish(outcome func(ServiceState[T]) ServiceState[T]) {
	b.store.Update(func(s ServiceState[T]) ServiceState[T] {
		b.inFlight--
		loading := b.inFlight > 0
		if outcome != nil {
			s = outcome(s)
		}
		s.IsLoading = loading
		return s
	})
}

func (b *base[T]) logFailure(ctx context.Context, op string, err error) {
	var appErr *api.ApplicationError
	if errors.As(err, &appErr) {
		b.logger.WarnContext(ctx, "Operation rejected by server",
			applog.FieldOperation, op,
			applog.FieldError, appErr.Message)
		return
	}
	var fields applog.LogFields
	if code := api.StatusCode(err); code != 0 {
		fields = applog.NewFields()
		fields[applog.FieldStatusCode] = code
	}
	b.sl.LogError(ctx, "Operation failed", err, op, fields)
}

// publish forwards an event. Failures are logged and otherwise ignored.
func (b *base[T]) publish(ctx context.Context, event core.Event) {
	if b.events == nil {
		b.logger.DebugContext(ctx, "Event publisher not configured, skipping event",
			applog.FieldType, string(event.Type))
		return
	}
	if err := b.events.PublishEvent(ctx, event); err != nil {
		b.logger.WarnContext(ctx, "Failed to publish event",
			applog.FieldType, string(event.Type),
			applog.FieldOperation, applog.OpPublish,
			applog.FieldError, err.Error())
	}
}
