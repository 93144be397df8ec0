package services

import (
	"context"

	"finboss/internal/api"
	"finboss/internal/core"
)

// operation describes one state-driving call.
type operation[T, R any] struct {
	name string
	// call performs the remote work and returns the payload to merge.
	call func(context.Context) (R, error)
	// commit runs local side effects (token persistence) before the merge.
	commit func(context.Context, R) error
	merge  func(T, R) T
}

// execute runs op under the loading protocol: loading is raised and the error
// cleared, then exactly one outcome is published together with loading
// dropped. Loading is dropped even if call panics.
func execute[T, R any](ctx context.Context, b *base[T], op operation[T, R]) (R, bool) {
	b.begin()
	var outcome func(ServiceState[T]) ServiceState[T]
	defer func() { b.finish(outcome) }()

	result, err := op.call(ctx)
	if err == nil && op.commit != nil {
		err = op.commit(ctx, result)
	}
	if err != nil {
		b.logFailure(ctx, op.name, err)
		msg := err.Error()
		outcome = func(s ServiceState[T]) ServiceState[T] {
			s.ErrorMessage = msg
			return s
		}
		var zero R
		return zero, false
	}

	outcome = func(s ServiceState[T]) ServiceState[T] {
		if op.merge != nil {
			s.Data = op.merge(s.Data, result)
		}
		s.ErrorMessage = ""
		s.Loaded = true
		return s
	}
	return result, true
}

// unwrap turns an envelope call into a payload call. A status other than
// "success" becomes an *api.ApplicationError carrying the server message or
// fallback, whatever the data field holds.
func unwrap[R any](fallback string, fn func(context.Context) (core.Envelope[R], error)) func(context.Context) (R, error) {
	return func(ctx context.Context) (R, error) {
		var zero R
		env, err := fn(ctx)
		if err != nil {
			return zero, err
		}
		if !env.OK() {
			return zero, &api.ApplicationError{Message: env.MessageOr(fallback)}
		}
		return env.DataOrZero(), nil
	}
}

// unwrapData is unwrap for calls whose payload is the result itself. A
// success envelope without data is an *api.ApplicationError too.
func unwrapData[R any](fallback string, fn func(context.Context) (core.Envelope[R], error)) func(context.Context) (R, error) {
	return func(ctx context.Context) (R, error) {
		var zero R
		env, err := fn(ctx)
		if err != nil {
			return zero, err
		}
		data, ok := env.Payload()
		if !env.OK() || !ok {
			return zero, &api.ApplicationError{Message: env.MessageOr(fallback)}
		}
		return data, nil
	}
}
