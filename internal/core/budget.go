package core

import "math"

// budgetWarnRatio is the fraction of the monthly limit past which the
// one-time alert fires. The boundary is strict: spending exactly 80% of
// the limit does not trigger it.
const budgetWarnRatio = 0.8

// BudgetStatus is the derived state of spending against a monthly limit.
type BudgetStatus struct {
	TotalSpent    float64
	Limit         float64
	PercentUsed   int
	OverThreshold bool
}

// EvaluateBudget computes spending against the limit. A limit of zero (or
// negative) means no budget is set; the threshold never trips and the
// percentage stays zero.
func EvaluateBudget(totalSpent, limit float64) BudgetStatus {
	status := BudgetStatus{TotalSpent: totalSpent, Limit: limit}
	if limit <= 0 {
		return status
	}
	status.PercentUsed = int(math.Round(100 * totalSpent / limit))
	status.OverThreshold = totalSpent > budgetWarnRatio*limit
	return status
}

// AlertGate arms the budget alert for one view session. The alert fires
// at most once per gate; re-arming requires a fresh gate, not a fresh
// expense.
type AlertGate struct {
	fired bool
}

func NewAlertGate() *AlertGate {
	return &AlertGate{}
}

// Check evaluates the user's budget against totalSpent and reports
// whether the alert should surface now. It returns the status either way
// so callers can still display the percentage.
func (g *AlertGate) Check(user User, totalSpent float64) (BudgetStatus, bool) {
	status := EvaluateBudget(totalSpent, user.BudgetLimit)
	if g.fired || !user.NotificationsEnabled || !status.OverThreshold {
		return status, false
	}
	g.fired = true
	return status, true
}
