package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"finboss/internal/core"
)

type fakeTransactionAPI struct {
	mu     sync.Mutex
	calls  map[string]int
	list   func() (core.Envelope[[]core.Transaction], error)
	create func(core.CreateTransactionRequest) (core.Envelope[core.Transaction], error)
	get    func(string) (core.Envelope[core.Transaction], error)
	update func(string, core.UpdateTransactionRequest) (core.Envelope[core.Transaction], error)
	del    func(string) (core.Envelope[map[string]string], error)
}

func (f *fakeTransactionAPI) count(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
}

func (f *fakeTransactionAPI) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeTransactionAPI) ListTransactions(context.Context) (core.Envelope[[]core.Transaction], error) {
	f.count("list")
	return f.list()
}

func (f *fakeTransactionAPI) CreateTransaction(_ context.Context, req core.CreateTransactionRequest) (core.Envelope[core.Transaction], error) {
	f.count("create")
	return f.create(req)
}

func (f *fakeTransactionAPI) GetTransaction(_ context.Context, id string) (core.Envelope[core.Transaction], error) {
	f.count("get")
	return f.get(id)
}

func (f *fakeTransactionAPI) UpdateTransaction(_ context.Context, id string, req core.UpdateTransactionRequest) (core.Envelope[core.Transaction], error) {
	f.count("update")
	return f.update(id, req)
}

func (f *fakeTransactionAPI) DeleteTransaction(_ context.Context, id string) (core.Envelope[map[string]string], error) {
	f.count("delete")
	return f.del(id)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []core.Event
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, e core.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Events() []core.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]core.Event(nil), p.events...)
}

func success[T any](data T) core.Envelope[T] {
	return core.Envelope[T]{Status: core.StatusSuccess, Data: &data}
}

func failure[T any](message string, data T) core.Envelope[T] {
	env := core.Envelope[T]{Status: "fail", Data: &data}
	if message != "" {
		env.Message = &message
	}
	return env
}

func tx(id string, amount string) core.Transaction {
	return core.Transaction{
		ID:       id,
		UserID:   "u1",
		Type:     core.Expense,
		Amount:   core.NewAmount(decimal.RequireFromString(amount)),
		Category: "Food",
		Date:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
}

func ids(list []core.Transaction) []string {
	out := make([]string, 0, len(list))
	for _, t := range list {
		out = append(out, t.ID)
	}
	return out
}

var errNetwork = errors.New("transport error: connection reset")

// loadingTrace records IsLoading on every notification.
type loadingTrace struct {
	mu     sync.Mutex
	values []bool
}

func (l *loadingTrace) observe(v bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.values = append(l.values, v)
}

func (l *loadingTrace) Values() []bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]bool(nil), l.values...)
}
