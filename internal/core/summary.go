package core

// PeriodSummary aggregates a user's transactions over one month ("2024-01")
// or one year ("2024").
type PeriodSummary struct {
	Period  string
	Income  float64
	Expense float64
}

// Savings may be negative.
func (p PeriodSummary) Savings() float64 {
	return p.Income - p.Expense
}

// BudgetStatus compares a monthly category budget with what was spent.
type BudgetStatus struct {
	Category  string
	Month     Month
	Budget    float64
	Spent     float64
	Remaining float64
}

func NewBudgetStatus(category string, month Month, budget, spent float64) BudgetStatus {
	return BudgetStatus{
		Category:  category,
		Month:     month,
		Budget:    budget,
		Spent:     spent,
		Remaining: budget - spent,
	}
}

func (b BudgetStatus) OverBudget() bool {
	return b.Remaining < 0
}
