package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestTransactionTypeValidate(t *testing.T) {
	cases := []struct {
		in TransactionType
		ok bool
	}{
		{Income, true},
		{Expense, true},
		{"", false},
		{"transfer", false},
	}
	for i, tc := range cases {
		err := tc.in.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidType) {
			t.Fatalf("case %d expected ErrInvalidType, got %v", i, err)
		}
	}
}

func TestTransactionDecodeUsesServerIDKey(t *testing.T) {
	raw := `{"_id":"t1","userId":"u1","type":"expense","amount":12.5,"category":"Food",
		"date":"2025-03-01T00:00:00.000Z","createdAt":"2025-03-01T10:00:00Z","updatedAt":"2025-03-01T10:00:00Z"}`

	var tx Transaction
	if err := json.Unmarshal([]byte(raw), &tx); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tx.ID != "t1" || tx.UserID != "u1" {
		t.Fatalf("unexpected ids: %+v", tx)
	}
	if tx.Type != Expense || tx.Amount.String() != "12.5" {
		t.Fatalf("unexpected type/amount: %s %s", tx.Type, tx.Amount)
	}
	if tx.Description != nil {
		t.Fatalf("expected absent description, got %q", *tx.Description)
	}
	if !tx.Date.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %v", tx.Date)
	}
	if got := tx.Signed().String(); got != "-12.5" {
		t.Fatalf("Signed() = %s, want -12.5", got)
	}
}

func TestUserFullName(t *testing.T) {
	if got := (User{FirstName: "Ada", LastName: "Lovelace"}).FullName(); got != "Ada Lovelace" {
		t.Fatalf("FullName() = %q", got)
	}
	if got := (User{FirstName: "Ada"}).FullName(); got != "Ada" {
		t.Fatalf("FullName() = %q", got)
	}
}

func TestSummarize(t *testing.T) {
	txs := []Transaction{
		{Type: Income, Amount: MustAmount("100.00")},
		{Type: Expense, Amount: MustAmount("30.25")},
		{Type: Expense, Amount: MustAmount("9.75")},
	}
	got := Summarize(txs)
	if got.Income.StringFixed(2) != "100.00" || got.Expense.StringFixed(2) != "40.00" || got.Balance.StringFixed(2) != "60.00" {
		t.Fatalf("unexpected totals: %+v", got)
	}
}
