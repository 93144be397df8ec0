package viewmodel

import (
	"context"
	"strings"
	"time"

	"finboss/internal/core"
	"finboss/internal/observable"
	"finboss/internal/services"
)

type TransactionState = services.ServiceState[[]core.Transaction]

type TransactionViewModel struct {
	*mirror[TransactionState]
	svc *services.TransactionService
}

func NewTransactionViewModel(svc *services.TransactionService) *TransactionViewModel {
	m := &mirror[TransactionState]{state: observable.New(svc.State())}
	m.unsub = svc.Subscribe(m.state.Set)
	return &TransactionViewModel{mirror: m, svc: svc}
}

func (vm *TransactionViewModel) Load(ctx context.Context) {
	vm.svc.Load(ctx)
}

func (vm *TransactionViewModel) Create(ctx context.Context, req core.CreateTransactionRequest) {
	vm.svc.Create(ctx, req)
}

func (vm *TransactionViewModel) Update(ctx context.Context, id string, req core.UpdateTransactionRequest) {
	vm.svc.Update(ctx, id, req)
}

func (vm *TransactionViewModel) Delete(ctx context.Context, id string) {
	vm.svc.Delete(ctx, id)
}

func (vm *TransactionViewModel) ClearError() {
	vm.svc.ClearError()
}

// Totals summarizes the mirrored list.
func (vm *TransactionViewModel) Totals() core.Totals {
	return core.Summarize(vm.State().Data)
}

// TransactionForm is raw user input for a new transaction.
type TransactionForm struct {
	Type        string
	Amount      string
	Category    string
	Description string
	Date        string // YYYY-MM-DD; empty means today
}

// Request parses the form into a create request.
func (f TransactionForm) Request(now time.Time) (core.CreateTransactionRequest, error) {
	txType := core.TransactionType(strings.ToLower(strings.TrimSpace(f.Type)))
	if err := txType.Validate(); err != nil {
		return core.CreateTransactionRequest{}, err
	}
	amount, err := core.ParseAmount(f.Amount)
	if err != nil {
		return core.CreateTransactionRequest{}, err
	}
	date := now.UTC().Truncate(24 * time.Hour)
	if strings.TrimSpace(f.Date) != "" {
		date, err = time.Parse(time.DateOnly, strings.TrimSpace(f.Date))
		if err != nil {
			return core.CreateTransactionRequest{}, core.ErrInvalidDate
		}
	}
	desc := strings.TrimSpace(f.Description)
	req := core.CreateTransactionRequest{
		Type:        txType,
		Amount:      amount,
		Category:    strings.TrimSpace(f.Category),
		Description: &desc,
		Date:        date,
	}
	return req.Normalize(), req.Validate()
}

// FormatAmount renders a signed amount, e.g. "+$12.34" or "-$3.50".
func FormatAmount(t core.Transaction) string {
	if t.Type == core.Expense {
		return t.Signed().Format(CurrencySymbol)
	}
	return "+" + t.Amount.Format(CurrencySymbol)
}

// FormatDate renders the transaction date for lists.
func FormatDate(t core.Transaction) string {
	return t.Date.Format("Jan 2, 2006")
}
