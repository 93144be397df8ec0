package services

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"finboss/internal/core"
	applog "finboss/internal/log"
)

const (
	msgLoadTransactions  = "Failed to load transactions"
	msgCreateTransaction = "Failed to create transaction"
	msgUpdateTransaction = "Failed to update transaction"
	msgDeleteTransaction = "Failed to delete transaction"
	msgFetchTransaction  = "Failed to load transaction"
)

type TransactionAPI interface {
	ListTransactions(ctx context.Context) (core.Envelope[[]core.Transaction], error)
	CreateTransaction(ctx context.Context, req core.CreateTransactionRequest) (core.Envelope[core.Transaction], error)
	GetTransaction(ctx context.Context, id string) (core.Envelope[core.Transaction], error)
	UpdateTransaction(ctx context.Context, id string, req core.UpdateTransactionRequest) (core.Envelope[core.Transaction], error)
	DeleteTransaction(ctx context.Context, id string) (core.Envelope[map[string]string], error)
}

// TransactionService owns the in-memory transaction collection.
type TransactionService struct {
	*base[[]core.Transaction]
	client TransactionAPI
	group  singleflight.Group
}

func NewTransactionService(client TransactionAPI, logger *applog.Logger, events EventPublisher) *TransactionService {
	return &TransactionService{
		base:   newBase[[]core.Transaction](nil, logger, applog.ComponentTransactions, events),
		client: client,
	}
}

// Load replaces the collection with the server's list. Concurrent calls
// share one request.
func (s *TransactionService) Load(ctx context.Context) {
	_, _, _ = s.group.Do("list", func() (any, error) {
		execute(ctx, s.base, operation[[]core.Transaction, []core.Transaction]{
			name: applog.OpList,
			call: unwrap(msgLoadTransactions, s.client.ListTransactions),
			merge: func(_ []core.Transaction, fresh []core.Transaction) []core.Transaction {
				return append([]core.Transaction(nil), fresh...)
			},
		})
		return nil, nil
	})
}

// Create validates and sends req, appending the created transaction.
func (s *TransactionService) Create(ctx context.Context, req core.CreateTransactionRequest) {
	req = req.Normalize()
	tx, ok := execute(ctx, s.base, operation[[]core.Transaction, core.Transaction]{
		name: applog.OpCreate,
		call: unwrapData(msgCreateTransaction, func(ctx context.Context) (core.Envelope[core.Transaction], error) {
			if err := req.Validate(); err != nil {
				return core.Envelope[core.Transaction]{}, err
			}
			return s.client.CreateTransaction(ctx, req)
		}),
		merge: func(list []core.Transaction, tx core.Transaction) []core.Transaction {
			out := make([]core.Transaction, 0, len(list)+1)
			out = append(out, list...)
			return append(out, tx)
		},
	})
	if !ok {
		return
	}
	s.changed(ctx, applog.OpCreate, core.EventTransactionCreated, tx)
}

// Update sends a partial update and replaces the matching element in place.
// An id missing from the collection leaves it unchanged.
func (s *TransactionService) Update(ctx context.Context, id string, req core.UpdateTransactionRequest) {
	req = req.Normalize()
	tx, ok := execute(ctx, s.base, operation[[]core.Transaction, core.Transaction]{
		name: applog.OpUpdate,
		call: unwrapData(msgUpdateTransaction, func(ctx context.Context) (core.Envelope[core.Transaction], error) {
			if id == "" {
				return core.Envelope[core.Transaction]{}, core.ErrEmptyID
			}
			if err := req.Validate(); err != nil {
				return core.Envelope[core.Transaction]{}, err
			}
			return s.client.UpdateTransaction(ctx, id, req)
		}),
		merge: func(list []core.Transaction, tx core.Transaction) []core.Transaction {
			return s.replace(ctx, list, id, tx)
		},
	})
	if !ok {
		return
	}
	s.changed(ctx, applog.OpUpdate, core.EventTransactionUpdated, tx)
}

// Refresh refetches one transaction and replaces it in place.
func (s *TransactionService) Refresh(ctx context.Context, id string) {
	execute(ctx, s.base, operation[[]core.Transaction, core.Transaction]{
		name: applog.OpRead,
		call: unwrapData(msgFetchTransaction, func(ctx context.Context) (core.Envelope[core.Transaction], error) {
			if id == "" {
				return core.Envelope[core.Transaction]{}, core.ErrEmptyID
			}
			return s.client.GetTransaction(ctx, id)
		}),
		merge: func(list []core.Transaction, tx core.Transaction) []core.Transaction {
			return s.replace(ctx, list, id, tx)
		},
	})
}

// Delete removes every element with the given id once the server confirms.
func (s *TransactionService) Delete(ctx context.Context, id string) {
	userID := s.ownerOf(id)
	_, ok := execute(ctx, s.base, operation[[]core.Transaction, map[string]string]{
		name: applog.OpDelete,
		call: unwrap(msgDeleteTransaction, func(ctx context.Context) (core.Envelope[map[string]string], error) {
			if id == "" {
				return core.Envelope[map[string]string]{}, core.ErrEmptyID
			}
			return s.client.DeleteTransaction(ctx, id)
		}),
		merge: func(list []core.Transaction, _ map[string]string) []core.Transaction {
			out := make([]core.Transaction, 0, len(list))
			for _, t := range list {
				if t.ID != id {
					out = append(out, t)
				}
			}
			return out
		},
	})
	if !ok {
		return
	}
	s.sl.LogTransactionChanged(ctx, applog.OpDelete, id, "", "", "")
	s.publish(ctx, core.Event{
		Type:          core.EventTransactionDeleted,
		TransactionID: id,
		UserID:        userID,
		Timestamp:     time.Now().UTC(),
	})
}

func (s *TransactionService) replace(ctx context.Context, list []core.Transaction, id string, tx core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(list))
	copy(out, list)
	for i := range out {
		if out[i].ID == id {
			out[i] = tx
			return out
		}
	}
	s.logger.WarnContext(ctx, "Transaction not in local collection, leaving it unchanged",
		applog.FieldTransactionID, id)
	return list
}

func (s *TransactionService) ownerOf(id string) string {
	for _, t := range s.State().Data {
		if t.ID == id {
			return t.UserID
		}
	}
	return ""
}

func (s *TransactionService) changed(ctx context.Context, op string, eventType core.EventType, tx core.Transaction) {
	s.sl.LogTransactionChanged(ctx, op, tx.ID, string(tx.Type), tx.Amount.String(), tx.Category)
	s.publish(ctx, core.Event{
		Type:          eventType,
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Timestamp:     time.Now().UTC(),
	})
}
