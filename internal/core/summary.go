package core

// Totals is a compact income/expense summary over a set of transactions.
type Totals struct {
	Income  Amount
	Expense Amount
	Balance Amount
}

// Summarize computes totals for the given transactions.
func Summarize(txs []Transaction) Totals {
	var income, expense []Amount
	for _, t := range txs {
		switch t.Type {
		case Income:
			income = append(income, t.Amount)
		case Expense:
			expense = append(expense, t.Amount)
		}
	}
	in, out := Sum(income...), Sum(expense...)
	return Totals{
		Income:  in,
		Expense: out,
		Balance: Amount{Decimal: in.Sub(out.Decimal)},
	}
}
