// Package viewmodel adapts domain services to screens. Each adapter mirrors
// exactly one service's state and turns user intent into service calls.
//
// Adapter subscribers are notified while the service is publishing, so they
// must not call back into the service synchronously.
package viewmodel

import (
	"finboss/internal/observable"
)

// CurrencySymbol prefixes formatted amounts.
const CurrencySymbol = "$"

type mirror[T any] struct {
	state *observable.Store[T]
	unsub func()
}

func (m *mirror[T]) State() T {
	return m.state.Get()
}

// Subscribe registers fn; it is called immediately with the current state.
func (m *mirror[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	return m.state.Subscribe(fn)
}

// Close detaches the adapter from its service. The last mirrored state stays readable.
func (m *mirror[T]) Close() {
	if m.unsub != nil {
		m.unsub()
	}
}
