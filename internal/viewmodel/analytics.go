package viewmodel

import (
	"context"
	"fmt"

	"finboss/internal/core"
	"finboss/internal/observable"
	"finboss/internal/services"
)

type AnalyticsState = services.ServiceState[[]core.CategoryBreakdown]

type AnalyticsViewModel struct {
	*mirror[AnalyticsState]
	svc *services.AnalyticsService
}

func NewAnalyticsViewModel(svc *services.AnalyticsService) *AnalyticsViewModel {
	m := &mirror[AnalyticsState]{state: observable.New(svc.State())}
	m.unsub = svc.Subscribe(m.state.Set)
	return &AnalyticsViewModel{mirror: m, svc: svc}
}

func (vm *AnalyticsViewModel) Load(ctx context.Context) {
	vm.svc.LoadCategoryBreakdown(ctx)
}

func (vm *AnalyticsViewModel) ClearError() {
	vm.svc.ClearError()
}

// Total sums the amounts of every category.
func (vm *AnalyticsViewModel) Total() core.Amount {
	var amounts []core.Amount
	for _, b := range vm.State().Data {
		amounts = append(amounts, b.Amount)
	}
	return core.Sum(amounts...)
}

// FormatPercentage renders a share with one decimal, e.g. "42.5%".
func FormatPercentage(b core.CategoryBreakdown) string {
	return fmt.Sprintf("%.1f%%", b.Percentage)
}
