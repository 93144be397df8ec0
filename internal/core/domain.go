package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	User struct {
		ID        string `json:"id"`
		Email     string `json:"email"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}

	Transaction struct {
		ID          string          `json:"_id"`
		UserID      string          `json:"userId"`
		Type        TransactionType `json:"type"`
		Amount      Amount          `json:"amount"`
		Category    string          `json:"category"`
		Description *string         `json:"description,omitempty"`
		Date        time.Time       `json:"date"`
		CreatedAt   time.Time       `json:"createdAt"`
		UpdatedAt   time.Time       `json:"updatedAt"`
	}

	// CategoryBreakdown is one row of the per-category analytics report.
	CategoryBreakdown struct {
		Category         string  `json:"category"`
		Amount           Amount  `json:"amount"`
		Percentage       float64 `json:"percentage"`
		TransactionCount int     `json:"transactionCount"`
	}
)

var (
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyCategory = errors.New("empty category")
	ErrInvalidDate   = errors.New("invalid date")
	ErrEmptyID       = errors.New("empty transaction id")
)

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidType
	}
}

// FullName joins first and last name, skipping empty parts.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DescriptionOrEmpty returns the description or "" when absent.
func (t Transaction) DescriptionOrEmpty() string {
	if t.Description == nil {
		return ""
	}
	return *t.Description
}

// Signed returns the amount negated for expenses.
func (t Transaction) Signed() Amount {
	if t.Type == Expense {
		return Amount{Decimal: t.Amount.Neg()}
	}
	return t.Amount
}
