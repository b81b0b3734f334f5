package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	CategoryStocks     Category = "stocks"
	CategoryETF        Category = "etf"
	CategoryBonds      Category = "bonds"
	CategoryCrypto     Category = "crypto"
	CategoryRealEstate Category = "real-estate"
	CategoryCash       Category = "cash"
	CategoryOther      Category = "other"
)

type (
	// Category is the closed set of investment categories. Free-text
	// values are rejected at validation time.
	Category string

	// Date is a calendar date with no time component. It marshals as
	// YYYY-MM-DD on the wire.
	Date struct {
		time.Time
	}

	// User is the identity derived from a Session. It is never mutated
	// directly by the app.
	User struct {
		ID    string
		Email string
	}

	// Session is the token bundle issued by the remote data service.
	Session struct {
		AccessToken  string
		RefreshToken string
		TokenType    string
		ExpiresAt    time.Time
		User         User
	}

	// Investment is one persisted row, owned by exactly one user. Rows
	// are created and deleted by this app, never updated in place.
	Investment struct {
		ID        string
		UserID    string
		Amount    decimal.Decimal
		Category  Category
		Date      Date
		Notes     string
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// NewInvestment is the insert payload for one investment row.
	NewInvestment struct {
		UserID   string
		Amount   decimal.Decimal
		Category Category
		Date     Date
		Notes    string
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyCategory   = errors.New("empty category")
	ErrUnknownCategory = errors.New("unknown category")
	ErrMissingUser     = errors.New("no authenticated user")
	ErrInvalidDate     = errors.New("invalid date")
)

// Categories returns the closed category set in display order.
func Categories() []Category {
	return []Category{
		CategoryStocks, CategoryETF, CategoryBonds, CategoryCrypto,
		CategoryRealEstate, CategoryCash, CategoryOther,
	}
}

func (c Category) IsValid() bool {
	switch c {
	case CategoryStocks, CategoryETF, CategoryBonds, CategoryCrypto,
		CategoryRealEstate, CategoryCash, CategoryOther:
		return true
	}
	return false
}

func (c Category) String() string { return string(c) }

const dateLayout = "2006-01-02"

// NewDate builds a Date from calendar parts.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts bare dates and timestamp strings whose first ten
// characters form a date, which is how the remote service returns
// date-typed columns.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return ErrInvalidDate
	}
	d.Time = t
	return nil
}

// Expired reports whether the session's tokens are past their expiry.
func (s Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// Valid reports whether the session carries usable credentials.
func (s Session) Valid() bool {
	return s.AccessToken != "" && !s.Expired()
}

// ParseAmount parses a user-entered amount string into a positive decimal.
// Both dot and comma decimal separators are accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

// Validate checks an insert payload before it is sent to the service.
func (n NewInvestment) Validate() error {
	if n.UserID == "" {
		return ErrMissingUser
	}
	if n.Category == "" {
		return ErrEmptyCategory
	}
	if !n.Category.IsValid() {
		return ErrUnknownCategory
	}
	if !n.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if n.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}
