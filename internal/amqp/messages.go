package amqp

import (
	"encoding/json"
	"time"
)

// Command operation names carried on the wire.
const (
	OpSetInitialBudget     = "set_initial_budget"
	OpAddSubDivision       = "add_sub_division"
	OpSpendFromSubDivision = "spend_from_sub_division"
	OpSpendFromCategory    = "spend_from_category"
	OpSpendFromGeneral     = "spend_from_general"
)

// BudgetEventMessage announces a committed ledger mutation. It carries only
// the identity and operation; consumers fetch the current account state from
// storage, so a lost or reordered event never produces a stale export.
type BudgetEventMessage struct {
	Identity  string    `json:"identity"`
	Operation string    `json:"operation"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBudgetEventMessage creates an event for a committed operation.
func NewBudgetEventMessage(identity, operation string) *BudgetEventMessage {
	return &BudgetEventMessage{
		Identity:  identity,
		Operation: operation,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *BudgetEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BudgetEventMessageFromJSON parses a message from JSON bytes.
func BudgetEventMessageFromJSON(data []byte) (*BudgetEventMessage, error) {
	var msg BudgetEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
