package services

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"finboss/internal/api"
	"finboss/internal/core"
	"finboss/internal/credentials"
	applog "finboss/internal/log"
)

const (
	msgLogin        = "Login failed"
	msgRegister     = "Registration failed"
	msgFetchProfile = "Failed to load profile"
)

type AuthAPI interface {
	Login(ctx context.Context, req core.LoginRequest) (core.Envelope[core.AuthResponse], error)
	Register(ctx context.Context, req core.RegisterRequest) (core.Envelope[core.AuthResponse], error)
	Profile(ctx context.Context) (core.Envelope[core.User], error)
}

// Session is the auth slice of state. User is nil until known.
type Session struct {
	User       *core.User
	IsLoggedIn bool
}

// AuthService owns the session and is the only writer of the access token.
type AuthService struct {
	*base[Session]
	client AuthAPI
	creds  credentials.Store
	group  singleflight.Group
}

func NewAuthService(client AuthAPI, store credentials.Store, logger *applog.Logger, events EventPublisher) *AuthService {
	return &AuthService{
		base:   newBase(Session{}, logger, applog.ComponentAuth, events),
		client: client,
		creds:  store,
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) {
	req := core.LoginRequest{Email: email, Password: password}
	s.authenticate(ctx, applog.OpLogin, msgLogin, unwrapData(msgLogin, func(ctx context.Context) (core.Envelope[core.AuthResponse], error) {
		return s.client.Login(ctx, req)
	}))
}

func (s *AuthService) Register(ctx context.Context, email, password, firstName, lastName string) {
	req := core.RegisterRequest{Email: email, Password: password, FirstName: firstName, LastName: lastName}
	s.authenticate(ctx, applog.OpRegister, msgRegister, unwrapData(msgRegister, func(ctx context.Context) (core.Envelope[core.AuthResponse], error) {
		return s.client.Register(ctx, req)
	}))
}

func (s *AuthService) authenticate(ctx context.Context, op, fallback string, call func(context.Context) (core.AuthResponse, error)) {
	resp, ok := execute(ctx, s.base, operation[Session, core.AuthResponse]{
		name: op,
		call: call,
		commit: func(ctx context.Context, resp core.AuthResponse) error {
			if resp.AccessToken == "" {
				return &api.ApplicationError{Message: fallback}
			}
			return s.creds.Save(ctx, credentials.AccessTokenKey, resp.AccessToken)
		},
		merge: func(_ Session, resp core.AuthResponse) Session {
			user := resp.User
			return Session{User: &user, IsLoggedIn: true}
		},
	})
	if !ok {
		return
	}
	s.logger.InfoContext(ctx, "User authenticated",
		applog.FieldOperation, op,
		applog.FieldUserID, resp.User.ID)
	s.publish(ctx, core.Event{Type: core.EventLoggedIn, UserID: resp.User.ID, Timestamp: time.Now().UTC()})
}

// FetchProfile replaces the user with the server's profile. Concurrent
// calls share one request.
func (s *AuthService) FetchProfile(ctx context.Context) {
	_, _, _ = s.group.Do("profile", func() (any, error) {
		execute(ctx, s.base, operation[Session, core.User]{
			name: applog.OpProfile,
			call: unwrapData(msgFetchProfile, s.client.Profile),
			merge: func(sess Session, user core.User) Session {
				sess.User = &user
				return sess
			},
		})
		return nil, nil
	})
}

// Logout deletes the token and clears the session.
func (s *AuthService) Logout(ctx context.Context) {
	prev := s.State().Data.User
	_, ok := execute(ctx, s.base, operation[Session, struct{}]{
		name: applog.OpLogout,
		call: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.creds.Delete(ctx, credentials.AccessTokenKey)
		},
		merge: func(Session, struct{}) Session {
			return Session{}
		},
	})
	if !ok {
		return
	}
	var userID string
	if prev != nil {
		userID = prev.ID
	}
	s.logger.InfoContext(ctx, "User logged out", applog.FieldUserID, userID)
	s.publish(ctx, core.Event{Type: core.EventLoggedOut, UserID: userID, Timestamp: time.Now().UTC()})
}

// RestoreSession marks the session logged in when a persisted token exists.
func (s *AuthService) RestoreSession(ctx context.Context) {
	execute(ctx, s.base, operation[Session, bool]{
		name: applog.OpRestore,
		call: func(ctx context.Context) (bool, error) {
			token, ok, err := s.creds.Retrieve(ctx, credentials.AccessTokenKey)
			return ok && token != "", err
		},
		merge: func(sess Session, present bool) Session {
			sess.IsLoggedIn = present
			if !present {
				sess.User = nil
			}
			return sess
		},
	})
}

func (s *AuthService) IsLoggedIn() bool {
	return s.State().Data.IsLoggedIn
}
