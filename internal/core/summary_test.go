package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSummarizeEmptyList(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Count)
	assert.True(t, s.Total.IsZero())
	assert.True(t, s.Newest.IsZero())
	assert.True(t, s.Oldest.IsZero())
}

func TestSummarizeTotalsAndDateRange(t *testing.T) {
	// list arrives newest first
	list := []Investment{
		{Amount: decimal.NewFromInt(100), Date: NewDate(2024, 6, 1)},
		{Amount: decimal.NewFromInt(250), Date: NewDate(2024, 5, 1)},
	}
	s := Summarize(list)
	assert.Equal(t, 2, s.Count)
	assert.True(t, s.Total.Equal(decimal.NewFromInt(350)), "got %s", s.Total)
	assert.Equal(t, "2024-06-01", s.Newest.String())
	assert.Equal(t, "2024-05-01", s.Oldest.String())
}

func TestSummarizeSingleEntry(t *testing.T) {
	list := []Investment{{Amount: decimal.RequireFromString("9.99"), Date: NewDate(2024, 1, 2)}}
	s := Summarize(list)
	assert.Equal(t, s.Newest, s.Oldest)
	assert.True(t, s.Total.Equal(decimal.RequireFromString("9.99")))
}
