package worker

import (
	"context"
	"time"

	"finboss/internal/amqp"
	"finboss/internal/core"
	applog "finboss/internal/log"
	"finboss/internal/services"
	"finboss/internal/trace"
)

type TransactionRefresher interface {
	Load(ctx context.Context)
	Refresh(ctx context.Context, id string)
	State() services.ServiceState[[]core.Transaction]
}

type AnalyticsRefresher interface {
	LoadCategoryBreakdown(ctx context.Context)
	State() services.ServiceState[[]core.CategoryBreakdown]
}

// RefreshWorker keeps the services current when other clients change data.
type RefreshWorker struct {
	transactions TransactionRefresher
	analytics    AnalyticsRefresher
	logger       *applog.Logger
}

func NewRefreshWorker(transactions TransactionRefresher, analytics AnalyticsRefresher, logger *applog.Logger) *RefreshWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	return &RefreshWorker{
		transactions: transactions,
		analytics:    analytics,
		logger:       logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleEvent reacts to one event from the broker. Refresh failures are
// logged, not returned: the message is acked and the next periodic sync
// catches up, so a backend outage does not spin the queue.
func (w *RefreshWorker) HandleEvent(ctx context.Context, msg *amqp.TransactionEvent) error {
	if !msg.IsTransactionEvent() {
		w.logger.DebugContext(ctx, "Ignoring non-transaction event", applog.FieldType, string(msg.Type))
		return nil
	}

	// API calls made for this event carry the message id
	if msg.ID != "" {
		ctx = trace.WithRequestID(ctx, msg.ID)
	}

	w.logger.InfoContext(ctx, "Processing transaction event",
		applog.FieldType, string(msg.Type),
		applog.FieldTransactionID, msg.TransactionID,
		applog.FieldUserID, msg.UserID)

	if msg.Type == core.EventTransactionUpdated && msg.TransactionID != "" && w.known(msg.TransactionID) {
		w.transactions.Refresh(ctx, msg.TransactionID)
	} else {
		w.transactions.Load(ctx)
	}
	w.analytics.LoadCategoryBreakdown(ctx)

	w.report(ctx)
	return nil
}

// Sync reloads everything. Used at startup and on the periodic tick.
func (w *RefreshWorker) Sync(ctx context.Context) {
	w.transactions.Load(ctx)
	w.analytics.LoadCategoryBreakdown(ctx)
	w.report(ctx)
}

// RunPeriodic calls Sync every interval until ctx is done.
func (w *RefreshWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Sync(ctx)
		}
	}
}

func (w *RefreshWorker) known(id string) bool {
	for _, t := range w.transactions.State().Data {
		if t.ID == id {
			return true
		}
	}
	return false
}

func (w *RefreshWorker) report(ctx context.Context) {
	txState := w.transactions.State()
	anState := w.analytics.State()
	if txState.HasError() || anState.HasError() {
		w.logger.WarnContext(ctx, "Refresh incomplete",
			"transactions_error", txState.ErrorMessage,
			"analytics_error", anState.ErrorMessage)
		return
	}
	w.logger.InfoContext(ctx, "Refresh complete",
		applog.FieldCount, len(txState.Data),
		"categories", len(anState.Data))
}
