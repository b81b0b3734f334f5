package events

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Atanda1/dca-experiment/internal/core"
)

func sampleInvestment() core.Investment {
	return core.Investment{
		ID:       "inv-1",
		UserID:   "user-1",
		Amount:   decimal.RequireFromString("100.50"),
		Category: core.CategoryETF,
		Date:     core.NewDate(2024, 6, 1),
	}
}

func TestNewCreatedMessage(t *testing.T) {
	msg := NewCreatedMessage(sampleInvestment())

	assert.Equal(t, TypeInvestmentCreated, msg.Type)
	assert.NotEmpty(t, msg.EventID)
	assert.Equal(t, "inv-1", msg.InvestmentID)
	assert.Equal(t, "user-1", msg.UserID)
	assert.Equal(t, "etf", msg.Category)
	assert.Equal(t, "100.5", msg.Amount)
	assert.Equal(t, "2024-06-01", msg.Date)
	assert.WithinDuration(t, time.Now(), msg.OccurredAt, time.Minute)
	assert.NoError(t, msg.Validate())

	// event ids are unique per message
	assert.NotEqual(t, msg.EventID, NewCreatedMessage(sampleInvestment()).EventID)
}

func TestJSONRoundTrip(t *testing.T) {
	msg := NewDeletedMessage(sampleInvestment())

	body, err := msg.ToJSON()
	require.NoError(t, err)

	got, err := FromJSON(body)
	require.NoError(t, err)
	assert.Equal(t, msg.EventID, got.EventID)
	assert.Equal(t, TypeInvestmentDeleted, got.Type)
	assert.Equal(t, msg.Amount, got.Amount)
}

func TestFromJSONInvalid(t *testing.T) {
	_, err := FromJSON([]byte(`not json`))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*InvestmentActivityMessage)
	}{
		{"missing event id", func(m *InvestmentActivityMessage) { m.EventID = "" }},
		{"unknown type", func(m *InvestmentActivityMessage) { m.Type = "investment.updated" }},
		{"missing investment id", func(m *InvestmentActivityMessage) { m.InvestmentID = "" }},
		{"missing user id", func(m *InvestmentActivityMessage) { m.UserID = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := NewCreatedMessage(sampleInvestment())
			tt.mutate(msg)
			assert.Error(t, msg.Validate())
		})
	}
}
