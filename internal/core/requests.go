package core

import (
	"strings"
	"time"
)

// StatusSuccess is the only envelope status that signals success.
const StatusSuccess = "success"

// Envelope wraps every backend response.
type Envelope[T any] struct {
	Status  string  `json:"status"`
	Message *string `json:"message,omitempty"`
	Data    *T      `json:"data,omitempty"`
}

// OK reports whether the server declared success. Data presence is irrelevant.
func (e Envelope[T]) OK() bool {
	return e.Status == StatusSuccess
}

// MessageOr returns the server message or fallback when absent or blank.
func (e Envelope[T]) MessageOr(fallback string) string {
	if e.Message == nil || strings.TrimSpace(*e.Message) == "" {
		return fallback
	}
	return *e.Message
}

// Payload returns the payload and whether the server sent one.
func (e Envelope[T]) Payload() (T, bool) {
	if e.Data == nil {
		var zero T
		return zero, false
	}
	return *e.Data, true
}

// DataOrZero returns the payload or the zero value of T.
func (e Envelope[T]) DataOrZero() T {
	var zero T
	if e.Data == nil {
		return zero
	}
	return *e.Data
}

type (
	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	RegisterRequest struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}

	AuthResponse struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		User         User   `json:"user"`
	}

	CreateTransactionRequest struct {
		Type        TransactionType `json:"type"`
		Amount      Amount          `json:"amount"`
		Category    string          `json:"category"`
		Description *string         `json:"description,omitempty"`
		Date        time.Time       `json:"date"`
	}

	// UpdateTransactionRequest carries a partial update; nil fields are left untouched.
	UpdateTransactionRequest struct {
		Type        *TransactionType `json:"type,omitempty"`
		Amount      *Amount          `json:"amount,omitempty"`
		Category    *string          `json:"category,omitempty"`
		Description *string          `json:"description,omitempty"`
		Date        *time.Time       `json:"date,omitempty"`
	}
)

// Normalize drops an empty description so it is not transmitted.
func (r CreateTransactionRequest) Normalize() CreateTransactionRequest {
	r.Description = normalizeOptional(r.Description)
	return r
}

func (r CreateTransactionRequest) Validate() error {
	if err := r.Type.Validate(); err != nil {
		return err
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	if r.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Normalize drops an empty description so it is not transmitted.
func (r UpdateTransactionRequest) Normalize() UpdateTransactionRequest {
	r.Description = normalizeOptional(r.Description)
	return r
}

func (r UpdateTransactionRequest) Validate() error {
	if r.Type != nil {
		if err := r.Type.Validate(); err != nil {
			return err
		}
	}
	if r.Amount != nil {
		if err := r.Amount.Validate(); err != nil {
			return err
		}
	}
	if r.Category != nil && strings.TrimSpace(*r.Category) == "" {
		return ErrEmptyCategory
	}
	if r.Date != nil && r.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func normalizeOptional(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
