package services

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finboss/internal/api"
	"finboss/internal/core"
	applog "finboss/internal/log"
)

func loadedService(t *testing.T, initial ...core.Transaction) (*TransactionService, *fakeTransactionAPI) {
	t.Helper()
	fake := &fakeTransactionAPI{
		list: func() (core.Envelope[[]core.Transaction], error) { return success(initial), nil },
	}
	svc := NewTransactionService(fake, nil, nil)
	svc.Load(context.Background())
	require.Empty(t, svc.State().ErrorMessage)
	require.Len(t, svc.State().Data, len(initial))
	return svc, fake
}

func TestTransactionService_InitialStateIsIdle(t *testing.T) {
	svc := NewTransactionService(&fakeTransactionAPI{}, nil, nil)
	st := svc.State()
	assert.Empty(t, st.Data)
	assert.False(t, st.IsLoading)
	assert.Empty(t, st.ErrorMessage)
	assert.Equal(t, PhaseIdle, st.Phase())
}

func TestTransactionService_LoadingInvariant(t *testing.T) {
	tests := []struct {
		name string
		list func() (core.Envelope[[]core.Transaction], error)
	}{
		{"success", func() (core.Envelope[[]core.Transaction], error) {
			return success([]core.Transaction{tx("a", "1")}), nil
		}},
		{"application failure", func() (core.Envelope[[]core.Transaction], error) { return failure("nope", []core.Transaction{}), nil }},
		{"transport failure", func() (core.Envelope[[]core.Transaction], error) {
			return core.Envelope[[]core.Transaction]{}, errNetwork
		}},
		{"http failure", func() (core.Envelope[[]core.Transaction], error) {
			return core.Envelope[[]core.Transaction]{}, &api.HTTPError{StatusCode: 500}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewTransactionService(&fakeTransactionAPI{list: tt.list}, nil, nil)
			var trace loadingTrace
			unsub := svc.Subscribe(func(s ServiceState[[]core.Transaction]) { trace.observe(s.IsLoading) })
			defer unsub()

			svc.Load(context.Background())

			assert.Equal(t, []bool{false, true, false}, trace.Values())
			assert.False(t, svc.State().IsLoading)
		})
	}
}

func TestTransactionService_LoadingClearedOnPanic(t *testing.T) {
	fake := &fakeTransactionAPI{
		create: func(core.CreateTransactionRequest) (core.Envelope[core.Transaction], error) { panic("boom") },
	}
	svc := NewTransactionService(fake, nil, nil)

	func() {
		defer func() { _ = recover() }()
		svc.Create(context.Background(), core.CreateTransactionRequest{
			Type: core.Income, Amount: core.MustAmount("1"), Category: "Salary", Date: time.Now(),
		})
	}()

	assert.False(t, svc.State().IsLoading)
}

func TestTransactionService_SuccessEnvelopeGate(t *testing.T) {
	serverList := []core.Transaction{tx("x", "9")}

	t.Run("fail status with data is not adopted", func(t *testing.T) {
		svc, fake := loadedService(t, tx("a", "1"))
		fake.list = func() (core.Envelope[[]core.Transaction], error) { return failure("", serverList), nil }

		svc.Load(context.Background())

		st := svc.State()
		assert.Equal(t, []string{"a"}, ids(st.Data))
		assert.Equal(t, "Failed to load transactions", st.ErrorMessage)
		assert.Equal(t, PhaseFailed, st.Phase())
	})

	t.Run("server message wins over default", func(t *testing.T) {
		svc, fake := loadedService(t)
		fake.list = func() (core.Envelope[[]core.Transaction], error) { return failure("Session expired", serverList), nil }

		svc.Load(context.Background())
		assert.Equal(t, "Session expired", svc.State().ErrorMessage)
		assert.Empty(t, svc.State().Data)
	})

	t.Run("success status adopts data", func(t *testing.T) {
		svc, fake := loadedService(t, tx("a", "1"))
		fake.list = func() (core.Envelope[[]core.Transaction], error) { return success(serverList), nil }

		svc.Load(context.Background())
		assert.Equal(t, []string{"x"}, ids(svc.State().Data))
		assert.Empty(t, svc.State().ErrorMessage)
		assert.Equal(t, PhaseSuccess, svc.State().Phase())
	})

	t.Run("success status without data empties the list", func(t *testing.T) {
		svc, fake := loadedService(t, tx("a", "1"))
		fake.list = func() (core.Envelope[[]core.Transaction], error) {
			return core.Envelope[[]core.Transaction]{Status: core.StatusSuccess}, nil
		}

		svc.Load(context.Background())
		assert.Empty(t, svc.State().Data)
		assert.Empty(t, svc.State().ErrorMessage)
	})
}

func TestTransactionService_SuccessWithoutDataIsAnError(t *testing.T) {
	noData := func() (core.Envelope[core.Transaction], error) {
		return core.Envelope[core.Transaction]{Status: core.StatusSuccess}, nil
	}
	validCreate := core.CreateTransactionRequest{
		Type:     core.Income,
		Amount:   core.MustAmount("5"),
		Category: "Gift",
		Date:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name    string
		run     func(*TransactionService, *fakeTransactionAPI)
		wantMsg string
	}{
		{
			name: "create",
			run: func(svc *TransactionService, fake *fakeTransactionAPI) {
				fake.create = func(core.CreateTransactionRequest) (core.Envelope[core.Transaction], error) { return noData() }
				svc.Create(context.Background(), validCreate)
			},
			wantMsg: "Failed to create transaction",
		},
		{
			name: "update",
			run: func(svc *TransactionService, fake *fakeTransactionAPI) {
				fake.update = func(string, core.UpdateTransactionRequest) (core.Envelope[core.Transaction], error) { return noData() }
				svc.Update(context.Background(), "a", core.UpdateTransactionRequest{})
			},
			wantMsg: "Failed to update transaction",
		},
		{
			name: "refresh",
			run: func(svc *TransactionService, fake *fakeTransactionAPI) {
				fake.get = func(string) (core.Envelope[core.Transaction], error) { return noData() }
				svc.Refresh(context.Background(), "a")
			},
			wantMsg: "Failed to load transaction",
		},
		{
			name: "server message wins over default",
			run: func(svc *TransactionService, fake *fakeTransactionAPI) {
				msg := "Created, but nothing to show"
				fake.create = func(core.CreateTransactionRequest) (core.Envelope[core.Transaction], error) {
					return core.Envelope[core.Transaction]{Status: core.StatusSuccess, Message: &msg}, nil
				}
				svc.Create(context.Background(), validCreate)
			},
			wantMsg: "Created, but nothing to show",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			fake := &fakeTransactionAPI{
				list: func() (core.Envelope[[]core.Transaction], error) {
					return success([]core.Transaction{tx("a", "1"), tx("b", "2")}), nil
				},
			}
			svc := NewTransactionService(fake, nil, pub)
			svc.Load(context.Background())
			before := svc.State().Data

			tt.run(svc, fake)

			st := svc.State()
			assert.Equal(t, tt.wantMsg, st.ErrorMessage)
			assert.Equal(t, before, st.Data)
			assert.False(t, st.IsLoading)
			assert.Empty(t, pub.Events())
		})
	}
}

func TestTransactionService_TransportErrorKeepsData(t *testing.T) {
	svc, fake := loadedService(t, tx("a", "1"), tx("b", "2"))
	fake.list = func() (core.Envelope[[]core.Transaction], error) {
		return core.Envelope[[]core.Transaction]{}, errNetwork
	}

	svc.Load(context.Background())
	assert.Equal(t, []string{"a", "b"}, ids(svc.State().Data))
	assert.Equal(t, errNetwork.Error(), svc.State().ErrorMessage)
}

func TestTransactionService_ListReconciliation(t *testing.T) {
	svc, fake := loadedService(t, tx("a", "1"), tx("b", "2"))
	n := len(svc.State().Data)

	var sent core.CreateTransactionRequest
	fake.create = func(req core.CreateTransactionRequest) (core.Envelope[core.Transaction], error) {
		sent = req
		return success(tx("T1", "12.50")), nil
	}
	fake.del = func(id string) (core.Envelope[map[string]string], error) {
		return success(map[string]string{"message": "deleted " + id}), nil
	}

	empty := ""
	svc.Create(context.Background(), core.CreateTransactionRequest{
		Type:        core.Expense,
		Amount:      core.MustAmount("12.50"),
		Category:    "Food",
		Description: &empty,
		Date:        time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	})

	st := svc.State()
	require.Empty(t, st.ErrorMessage)
	require.Len(t, st.Data, n+1)
	assert.Equal(t, "T1", st.Data[n].ID)
	assert.Nil(t, sent.Description, "empty description must be dropped before sending")

	svc.Delete(context.Background(), "T1")

	st = svc.State()
	require.Empty(t, st.ErrorMessage)
	assert.Len(t, st.Data, n)
	assert.NotContains(t, ids(st.Data), "T1")
}

func TestTransactionService_DeleteRemovesAllMatches(t *testing.T) {
	svc, fake := loadedService(t, tx("a", "1"), tx("dup", "2"), tx("b", "3"), tx("dup", "4"))
	fake.del = func(string) (core.Envelope[map[string]string], error) { return success(map[string]string{}), nil }

	svc.Delete(context.Background(), "dup")
	assert.Equal(t, []string{"a", "b"}, ids(svc.State().Data))
}

func TestTransactionService_DeleteFailureKeepsList(t *testing.T) {
	svc, fake := loadedService(t, tx("a", "1"))
	fake.del = func(string) (core.Envelope[map[string]string], error) {
		return failure[map[string]string]("", nil), nil
	}

	svc.Delete(context.Background(), "a")
	assert.Equal(t, []string{"a"}, ids(svc.State().Data))
	assert.Equal(t, "Failed to delete transaction", svc.State().ErrorMessage)
}

func TestTransactionService_UpdateReplacesInPlace(t *testing.T) {
	svc, fake := loadedService(t, tx("a", "1"), tx("b", "2"), tx("c", "3"))
	fake.update = func(id string, req core.UpdateTransactionRequest) (core.Envelope[core.Transaction], error) {
		updated := tx(id, "99")
		updated.Category = *req.Category
		return success(updated), nil
	}

	category := "Rent"
	svc.Update(context.Background(), "b", core.UpdateTransactionRequest{Category: &category})

	st := svc.State()
	require.Empty(t, st.ErrorMessage)
	assert.Equal(t, []string{"a", "b", "c"}, ids(st.Data))
	assert.Equal(t, "Rent", st.Data[1].Category)
	assert.Equal(t, "99", st.Data[1].Amount.String())
}

func TestTransactionService_UpdateMissLeavesCollectionUnchanged(t *testing.T) {
	svc, fake := loadedService(t, tx("a", "1"), tx("b", "2"))
	before := svc.State().Data
	fake.update = func(id string, _ core.UpdateTransactionRequest) (core.Envelope[core.Transaction], error) {
		return success(tx(id, "5")), nil
	}

	category := "Rent"
	svc.Update(context.Background(), "missing", core.UpdateTransactionRequest{Category: &category})

	st := svc.State()
	assert.Equal(t, ids(before), ids(st.Data))
	assert.Empty(t, st.ErrorMessage, "an update miss is not reported as an error")
	assert.False(t, st.IsLoading)
}

func TestTransactionService_UpdateFailureDefaultMessage(t *testing.T) {
	svc, fake := loadedService(t, tx("a", "1"))
	fake.update = func(string, core.UpdateTransactionRequest) (core.Envelope[core.Transaction], error) {
		return failure("", tx("a", "100")), nil
	}

	amount := core.MustAmount("100")
	svc.Update(context.Background(), "a", core.UpdateTransactionRequest{Amount: &amount})

	assert.Equal(t, "Failed to update transaction", svc.State().ErrorMessage)
	assert.Equal(t, "1", svc.State().Data[0].Amount.String())
}

func TestTransactionService_RefreshReplacesOne(t *testing.T) {
	svc, fake := loadedService(t, tx("a", "1"), tx("b", "2"))
	fake.get = func(id string) (core.Envelope[core.Transaction], error) {
		fresh := tx(id, "42")
		return success(fresh), nil
	}

	svc.Refresh(context.Background(), "b")
	assert.Equal(t, "42", svc.State().Data[1].Amount.String())

	svc.Refresh(context.Background(), "zzz")
	assert.Equal(t, []string{"a", "b"}, ids(svc.State().Data))
}

func TestTransactionService_CreateValidationSkipsRequest(t *testing.T) {
	svc, fake := loadedService(t)
	fake.create = func(core.CreateTransactionRequest) (core.Envelope[core.Transaction], error) {
		t.Fatal("request must not be sent")
		return core.Envelope[core.Transaction]{}, nil
	}

	var trace loadingTrace
	svc.Subscribe(func(s ServiceState[[]core.Transaction]) { trace.observe(s.IsLoading) })

	svc.Create(context.Background(), core.CreateTransactionRequest{
		Type: core.Expense, Amount: core.MustAmount("3"), Category: "  ", Date: time.Now(),
	})

	assert.Equal(t, core.ErrEmptyCategory.Error(), svc.State().ErrorMessage)
	assert.Equal(t, []bool{false, true, false}, trace.Values())
	assert.Zero(t, fake.Calls("create"))
}

func TestTransactionService_EmptyIDRejected(t *testing.T) {
	svc, fake := loadedService(t, tx("a", "1"))
	svc.Delete(context.Background(), "")

	assert.Equal(t, core.ErrEmptyID.Error(), svc.State().ErrorMessage)
	assert.Zero(t, fake.Calls("delete"))
}

func TestTransactionService_NewOperationClearsPreviousError(t *testing.T) {
	svc, fake := loadedService(t)
	fake.list = func() (core.Envelope[[]core.Transaction], error) {
		return core.Envelope[[]core.Transaction]{}, errNetwork
	}
	svc.Load(context.Background())
	require.NotEmpty(t, svc.State().ErrorMessage)

	var sawCleared bool
	svc.Subscribe(func(s ServiceState[[]core.Transaction]) {
		if s.IsLoading && s.ErrorMessage == "" {
			sawCleared = true
		}
	})
	fake.list = func() (core.Envelope[[]core.Transaction], error) { return success([]core.Transaction{}), nil }
	svc.Load(context.Background())

	assert.True(t, sawCleared)
	assert.Empty(t, svc.State().ErrorMessage)
}

func TestTransactionService_ClearError(t *testing.T) {
	svc, fake := loadedService(t, tx("a", "1"))

	var notifications int
	svc.Subscribe(func(ServiceState[[]core.Transaction]) { notifications++ })
	require.Equal(t, 1, notifications)

	svc.ClearError()
	assert.Equal(t, 1, notifications, "clearing with no error must not publish")

	fake.list = func() (core.Envelope[[]core.Transaction], error) { return failure("bad", []core.Transaction{}), nil }
	svc.Load(context.Background())
	require.Equal(t, "bad", svc.State().ErrorMessage)
	before := svc.State()

	svc.ClearError()
	after := svc.State()
	assert.Empty(t, after.ErrorMessage)
	assert.Equal(t, before.Data, after.Data)
	assert.Equal(t, before.IsLoading, after.IsLoading)
}

func TestTransactionService_MultipleSubscribersSeeSameState(t *testing.T) {
	svc, fake := loadedService(t)
	fake.list = func() (core.Envelope[[]core.Transaction], error) {
		return success([]core.Transaction{tx("a", "1")}), nil
	}

	var first, second []ServiceState[[]core.Transaction]
	svc.Subscribe(func(s ServiceState[[]core.Transaction]) { first = append(first, s) })
	svc.Subscribe(func(s ServiceState[[]core.Transaction]) { second = append(second, s) })

	svc.Load(context.Background())
	assert.Equal(t, first, second)
	assert.Len(t, first, 3)
}

func TestTransactionService_LoadCoalescesConcurrentCalls(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	fake := &fakeTransactionAPI{
		list: func() (core.Envelope[[]core.Transaction], error) {
			once.Do(func() { close(started) })
			<-release
			return success([]core.Transaction{tx("a", "1")}), nil
		},
	}
	svc := NewTransactionService(fake, nil, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		svc.Load(context.Background())
	}()
	<-started

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Load(context.Background())
		}()
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, fake.Calls("list"))
	assert.Equal(t, []string{"a"}, ids(svc.State().Data))
	assert.False(t, svc.State().IsLoading)
}

func TestTransactionService_OverlappingOperationsKeepLoadingUntilLast(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	fake := &fakeTransactionAPI{
		list: func() (core.Envelope[[]core.Transaction], error) {
			entered <- struct{}{}
			<-release
			return success([]core.Transaction{}), nil
		},
		get: func(id string) (core.Envelope[core.Transaction], error) {
			return success(tx(id, "1")), nil
		},
	}
	svc := NewTransactionService(fake, nil, nil)

	done := make(chan struct{})
	go func() {
		svc.Load(context.Background())
		close(done)
	}()
	<-entered

	svc.Refresh(context.Background(), "a")
	assert.True(t, svc.State().IsLoading, "load still in flight")

	close(release)
	<-done
	assert.False(t, svc.State().IsLoading)
}

func TestTransactionService_PublishesEvents(t *testing.T) {
	pub := &recordingPublisher{}
	fake := &fakeTransactionAPI{
		create: func(core.CreateTransactionRequest) (core.Envelope[core.Transaction], error) {
			return success(tx("T1", "5")), nil
		},
		del: func(string) (core.Envelope[map[string]string], error) { return success(map[string]string{}), nil },
	}
	svc := NewTransactionService(fake, nil, pub)

	svc.Create(context.Background(), core.CreateTransactionRequest{
		Type: core.Expense, Amount: core.MustAmount("5"), Category: "Food", Date: time.Now(),
	})
	svc.Delete(context.Background(), "T1")

	events := pub.Events()
	require.Len(t, events, 2)
	assert.Equal(t, core.EventTransactionCreated, events[0].Type)
	assert.Equal(t, "T1", events[0].TransactionID)
	assert.Equal(t, "u1", events[0].UserID)
	assert.Equal(t, core.EventTransactionDeleted, events[1].Type)
	assert.Equal(t, "u1", events[1].UserID)
}

func TestTransactionService_PublishFailureDoesNotAffectState(t *testing.T) {
	pub := &recordingPublisher{err: errNetwork}
	fake := &fakeTransactionAPI{
		create: func(core.CreateTransactionRequest) (core.Envelope[core.Transaction], error) {
			return success(tx("T1", "5")), nil
		},
	}
	svc := NewTransactionService(fake, nil, pub)

	svc.Create(context.Background(), core.CreateTransactionRequest{
		Type: core.Expense, Amount: core.MustAmount("5"), Category: "Food", Date: time.Now(),
	})

	assert.Empty(t, svc.State().ErrorMessage)
	assert.Equal(t, []string{"T1"}, ids(svc.State().Data))
}

func TestTransactionService_HTTPFailureLogsStatusCode(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Output: &buf, Level: slog.LevelDebug})
	fake := &fakeTransactionAPI{
		list: func() (core.Envelope[[]core.Transaction], error) {
			return core.Envelope[[]core.Transaction]{}, &api.HTTPError{StatusCode: 503}
		},
	}
	svc := NewTransactionService(fake, logger, nil)

	svc.Load(context.Background())

	assert.Equal(t, "http error: status 503", svc.State().ErrorMessage)
	assert.Contains(t, buf.String(), "status_code=503")
	assert.Contains(t, buf.String(), "operation=list")
}
