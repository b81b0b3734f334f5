package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Atanda1/dca-experiment/internal/core"
)

const (
	TypeInvestmentCreated = "investment.created"
	TypeInvestmentDeleted = "investment.deleted"
)

// InvestmentActivityMessage is one entry on the activity stream, emitted
// after the remote service has confirmed a create or delete. Amount and
// date travel as strings so consumers need no decimal handling to record
// them.
type InvestmentActivityMessage struct {
	EventID      string    `json:"event_id"`
	Type         string    `json:"type"`
	InvestmentID string    `json:"investment_id"`
	UserID       string    `json:"user_id"`
	Category     string    `json:"category"`
	Amount       string    `json:"amount"`
	Date         string    `json:"investment_date"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// NewCreatedMessage builds the activity message for a confirmed insert.
func NewCreatedMessage(inv core.Investment) *InvestmentActivityMessage {
	return newActivityMessage(TypeInvestmentCreated, inv)
}

// NewDeletedMessage builds the activity message for a confirmed delete.
func NewDeletedMessage(inv core.Investment) *InvestmentActivityMessage {
	return newActivityMessage(TypeInvestmentDeleted, inv)
}

func newActivityMessage(msgType string, inv core.Investment) *InvestmentActivityMessage {
	return &InvestmentActivityMessage{
		EventID:      uuid.NewString(),
		Type:         msgType,
		InvestmentID: inv.ID,
		UserID:       inv.UserID,
		Category:     inv.Category.String(),
		Amount:       inv.Amount.String(),
		Date:         inv.Date.String(),
		OccurredAt:   time.Now().UTC(),
	}
}

// Validate rejects messages a consumer cannot record.
func (m *InvestmentActivityMessage) Validate() error {
	if m.EventID == "" {
		return fmt.Errorf("missing event id")
	}
	if m.Type != TypeInvestmentCreated && m.Type != TypeInvestmentDeleted {
		return fmt.Errorf("unknown activity type %q", m.Type)
	}
	if m.InvestmentID == "" || m.UserID == "" {
		return fmt.Errorf("missing investment or user id")
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *InvestmentActivityMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func FromJSON(data []byte) (*InvestmentActivityMessage, error) {
	var msg InvestmentActivityMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
