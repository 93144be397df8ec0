package viewmodel

import (
	"context"
	"strings"

	"finboss/internal/observable"
	"finboss/internal/services"
)

const (
	msgFirstNameRequired = "First name is required"
	msgLastNameRequired  = "Last name is required"
	msgEmailRequired     = "Email is required"
	msgPasswordRequired  = "Password is required"
)

// AuthViewState mirrors the auth service and adds form validation.
type AuthViewState struct {
	services.ServiceState[services.Session]
	ValidationError string
}

// Message is what the screen shows: the validation error first, then the
// service error.
func (s AuthViewState) Message() string {
	if s.ValidationError != "" {
		return s.ValidationError
	}
	return s.ErrorMessage
}

type authMirror struct {
	*mirror[AuthViewState]
	svc *services.AuthService
}

func newAuthMirror(svc *services.AuthService) authMirror {
	m := &mirror[AuthViewState]{state: observable.New(AuthViewState{ServiceState: svc.State()})}
	m.unsub = svc.Subscribe(func(s services.ServiceState[services.Session]) {
		m.state.Update(func(v AuthViewState) AuthViewState {
			v.ServiceState = s
			if s.IsLoading {
				v.ValidationError = ""
			}
			return v
		})
	})
	return authMirror{mirror: m, svc: svc}
}

func (a authMirror) setValidationError(msg string) {
	a.state.Update(func(v AuthViewState) AuthViewState {
		v.ValidationError = msg
		return v
	})
}

// ClearError dismisses both the validation and the service error.
func (a authMirror) ClearError() {
	a.state.UpdateIf(func(v AuthViewState) (AuthViewState, bool) {
		if v.ValidationError == "" {
			return v, false
		}
		v.ValidationError = ""
		return v, true
	})
	a.svc.ClearError()
}

func required(value, msg string) string {
	if strings.TrimSpace(value) == "" {
		return msg
	}
	return ""
}

type LoginViewModel struct {
	authMirror
}

func NewLoginViewModel(svc *services.AuthService) *LoginViewModel {
	return &LoginViewModel{authMirror: newAuthMirror(svc)}
}

// Login validates input and, when valid, logs in. It reports whether the
// session is logged in afterwards.
func (vm *LoginViewModel) Login(ctx context.Context, email, password string) bool {
	for _, msg := range []string{
		required(email, msgEmailRequired),
		required(password, msgPasswordRequired),
	} {
		if msg != "" {
			vm.setValidationError(msg)
			return false
		}
	}
	vm.svc.Login(ctx, strings.TrimSpace(email), password)
	return vm.svc.IsLoggedIn()
}

type RegisterForm struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Validate returns the first missing field's message, or "".
func (f RegisterForm) Validate() string {
	for _, msg := range []string{
		required(f.FirstName, msgFirstNameRequired),
		required(f.LastName, msgLastNameRequired),
		required(f.Email, msgEmailRequired),
	} {
		if msg != "" {
			return msg
		}
	}
	// passwords are not trimmed
	if f.Password == "" {
		return msgPasswordRequired
	}
	return ""
}

type RegisterViewModel struct {
	authMirror
}

func NewRegisterViewModel(svc *services.AuthService) *RegisterViewModel {
	return &RegisterViewModel{authMirror: newAuthMirror(svc)}
}

func (vm *RegisterViewModel) Register(ctx context.Context, form RegisterForm) bool {
	if msg := form.Validate(); msg != "" {
		vm.setValidationError(msg)
		return false
	}
	vm.svc.Register(ctx,
		strings.TrimSpace(form.Email),
		form.Password,
		strings.TrimSpace(form.FirstName),
		strings.TrimSpace(form.LastName))
	return vm.svc.IsLoggedIn()
}
