package core

import (
	"iter"
	"time"
)

// DefaultProjectionMonths is used when a caller does not ask for a horizon.
const DefaultProjectionMonths = 12

// MonthProjection is one month of the forward cash-flow walk.
type MonthProjection struct {
	Month            string `json:"month"` // YYYY-MM
	Income           Money  `json:"income"`
	Expenses         Money  `json:"expenses"`
	NetChange        Money  `json:"netChange"`
	ProjectedBalance Money  `json:"projectedBalance"`
	BelowThreshold   bool   `json:"belowThreshold"`
}

// Projection is the full cash-flow response.
type Projection struct {
	CurrentBalance      Money             `json:"currentBalance"`
	MinReserveThreshold Money             `json:"minReserveThreshold"`
	Projection          []MonthProjection `json:"projection"`
}

// Project walks months forward from the month containing now, applying every
// matching recurring transaction to a running balance. The sequence yields
// exactly months entries, none when months <= 0.
func Project(current Money, txs []RecurringTransaction, reserve Money, months int, now time.Time) iter.Seq[MonthProjection] {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return func(yield func(MonthProjection) bool) {
		balance := current
		for i := 0; i < months; i++ {
			target := first.AddDate(0, i, 0)
			var income, expenses Money
			for _, tx := range txs {
				if !Matches(tx, target) {
					continue
				}
				switch tx.Type {
				case Income:
					income = income.Add(tx.Amount)
				case Expense:
					expenses = expenses.Add(tx.Amount)
				}
			}
			net := income.Sub(expenses)
			balance = balance.Add(net)
			p := MonthProjection{
				Month:            target.Format("2006-01"),
				Income:           income,
				Expenses:         expenses,
				NetChange:        net,
				ProjectedBalance: balance,
				BelowThreshold:   balance.Cents < reserve.Cents,
			}
			if !yield(p) {
				return
			}
		}
	}
}
