package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"10", "10", false},
		{"  12.34 ", "12.34", false},
		{"12,34", "12.34", false},
		{"0.01", "0.01", false},
		{"", "", true},
		{"abc", "", true},
		{"0", "", true},
		{"-5", "", true},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "input %q: got %s", tt.in, got)
	}
}

func TestCategoryIsValid(t *testing.T) {
	for _, c := range Categories() {
		assert.True(t, c.IsValid(), "category %s", c)
	}
	assert.False(t, Category("").IsValid())
	assert.False(t, Category("yachts").IsValid())
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2024, time.March, 9)
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-09"`, string(b))

	var out Date
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, d.String(), out.String())
}

func TestDateUnmarshalTruncatesTimestamps(t *testing.T) {
	// date columns sometimes come back as full timestamps
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-03-09T00:00:00Z"`), &d))
	assert.Equal(t, "2024-03-09", d.String())
}

func TestNewInvestmentValidate(t *testing.T) {
	valid := NewInvestment{
		UserID:   "user-1",
		Amount:   decimal.NewFromInt(100),
		Category: CategoryStocks,
		Date:     Today(),
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*NewInvestment)
		want   error
	}{
		{"missing user", func(n *NewInvestment) { n.UserID = "" }, ErrMissingUser},
		{"empty category", func(n *NewInvestment) { n.Category = "" }, ErrEmptyCategory},
		{"unknown category", func(n *NewInvestment) { n.Category = "yachts" }, ErrUnknownCategory},
		{"zero amount", func(n *NewInvestment) { n.Amount = decimal.Zero }, ErrInvalidAmount},
		{"zero date", func(n *NewInvestment) { n.Date = Date{} }, ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := valid
			tt.mutate(&n)
			assert.ErrorIs(t, n.Validate(), tt.want)
		})
	}
}

func TestSessionValid(t *testing.T) {
	assert.False(t, Session{}.Valid())

	live := Session{AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour)}
	assert.True(t, live.Valid())
	assert.False(t, live.Expired())

	stale := Session{AccessToken: "tok", ExpiresAt: time.Now().Add(-time.Minute)}
	assert.False(t, stale.Valid())
	assert.True(t, stale.Expired())
}
