package amqp

import (
	"encoding/json"
	"time"
)

// BudgetAlertMessage is the fan-out payload published when a user
// crosses the budget warning threshold. It carries everything the
// notifier needs; the worker never calls back into the expense service.
type BudgetAlertMessage struct {
	Username    string    `json:"username"`
	PercentUsed int       `json:"percentUsed"`
	TotalSpent  float64   `json:"totalSpent"`
	BudgetLimit float64   `json:"budgetLimit"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewBudgetAlertMessage stamps the message with the current time.
func NewBudgetAlertMessage(username string, percentUsed int, totalSpent, budgetLimit float64) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		Username:    username,
		PercentUsed: percentUsed,
		TotalSpent:  totalSpent,
		BudgetLimit: budgetLimit,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BudgetAlertMessageFromJSON creates a message from JSON bytes
func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
