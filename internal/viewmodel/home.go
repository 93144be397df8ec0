package viewmodel

import (
	"context"

	"finboss/internal/observable"
	"finboss/internal/services"
)

type HomeState = services.ServiceState[services.Session]

// HomeViewModel shows the signed-in user and handles logout.
type HomeViewModel struct {
	*mirror[HomeState]
	svc *services.AuthService
}

func NewHomeViewModel(svc *services.AuthService) *HomeViewModel {
	m := &mirror[HomeState]{state: observable.New(svc.State())}
	m.unsub = svc.Subscribe(m.state.Set)
	return &HomeViewModel{mirror: m, svc: svc}
}

func (vm *HomeViewModel) Refresh(ctx context.Context) {
	vm.svc.FetchProfile(ctx)
}

func (vm *HomeViewModel) Logout(ctx context.Context) {
	vm.svc.Logout(ctx)
}

func (vm *HomeViewModel) ClearError() {
	vm.svc.ClearError()
}

// Greeting renders the header line.
func (vm *HomeViewModel) Greeting() string {
	user := vm.State().Data.User
	if user == nil || user.FullName() == "" {
		return "Welcome"
	}
	return "Welcome, " + user.FullName()
}
