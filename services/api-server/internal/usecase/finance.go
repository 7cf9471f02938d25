package usecase

import (
	"context"
	"time"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/model"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/repository"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/validation"
)

const monthLayout = "2006-01"

// FinanceSummary totals a user's transactions, optionally for one month.
type FinanceSummary struct {
	Month             string           `json:"month,omitempty"`
	Income            int64            `json:"income"`
	Expense           int64            `json:"expense"`
	Balance           int64            `json:"balance"`
	Count             int              `json:"count"`
	ExpenseByCategory map[string]int64 `json:"expense_by_category"`
	IncomeByCategory  map[string]int64 `json:"income_by_category"`
}

type FinanceUsecase interface {
	Summary(ctx context.Context, userID, month string) (*FinanceSummary, error)
}

type financeUsecase struct {
	transactions repository.OwnedRepository[model.Transaction, *model.Transaction]
}

func NewFinanceUsecase(transactions repository.OwnedRepository[model.Transaction, *model.Transaction]) FinanceUsecase {
	return &financeUsecase{transactions: transactions}
}

// Summary totals every transaction of userID. A month in YYYY-MM form limits
// the totals to transactions that occurred in that month (UTC).
func (u *financeUsecase) Summary(ctx context.Context, userID, month string) (*FinanceSummary, error) {
	var from, to time.Time
	if month != "" {
		start, err := time.Parse(monthLayout, month)
		if err != nil {
			return nil, validationError(validation.NewError("month", "month must be in YYYY-MM format"))
		}
		from, to = start, start.AddDate(0, 1, 0)
	}

	txs, err := u.transactions.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &FinanceSummary{
		Month:             month,
		ExpenseByCategory: map[string]int64{},
		IncomeByCategory:  map[string]int64{},
	}
	for _, tx := range txs {
		if month != "" {
			at := tx.OccurredAt.UTC()
			if at.Before(from) || !at.Before(to) {
				continue
			}
		}

		summary.Count++
		switch tx.Type {
		case model.TransactionIncome:
			summary.Income += tx.Amount
			summary.IncomeByCategory[tx.Category] += tx.Amount
		case model.TransactionExpense:
			summary.Expense += tx.Amount
			summary.ExpenseByCategory[tx.Category] += tx.Amount
		}
	}
	summary.Balance = summary.Income - summary.Expense

	return summary, nil
}
