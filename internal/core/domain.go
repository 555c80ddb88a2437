package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the persisted and wire form of a calendar date.
const DateLayout = "2006-01-02"

const (
	Income  TxType = "Income"
	Expense TxType = "Expense"

	// AnyType matches both transaction types when used as a filter.
	AnyType TxType = ""
)

type (
	TxType string

	Date struct {
		time.Time
	}

	// Transaction is a single dated income or expense record. Transactions are
	// immutable; editing one is a delete followed by an insert.
	Transaction struct {
		Date     Date
		Type     TxType
		Category string
		Amount   decimal.Decimal
		// RawDate keeps the stored date text of an undated transaction so
		// saving the ledger writes it back unchanged.
		RawDate string
	}

	// Identity selects transactions for deletion. Fields are compared one by one,
	// so separator characters inside a category never make two keys collide.
	Identity struct {
		Date     Date
		Category string
		Type     TxType
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrEmptyCategory = errors.New("empty category")
)

// Types lists the transaction types in display order.
func Types() []TxType {
	return []TxType{Income, Expense}
}

// ParseTxType matches the persisted type text exactly (case-sensitive).
func ParseTxType(s string) (TxType, error) {
	switch t := TxType(strings.TrimSpace(s)); t {
	case Income, Expense:
		return t, nil
	default:
		return "", ErrInvalidType
	}
}

func (t TxType) String() string {
	return string(t)
}

// IsValid reports whether t is Income or Expense.
func (t TxType) IsValid() bool {
	return t == Income || t == Expense
}

// Matches reports whether t passes a type filter; AnyType matches everything.
func (t TxType) Matches(filter TxType) bool {
	return filter == AnyType || t == filter
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Today returns the current calendar date.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string. The zero Date marks an undated
// transaction, so 0001-01-01 is rejected rather than read as missing.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	d := DateOf(t)
	if d.IsZero() {
		return Date{}, ErrInvalidDate
	}
	return d, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// String renders the date as YYYY-MM-DD, or "" for a missing date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool {
	return d.Time.After(o.Time)
}

// Equal reports whether d and o are the same calendar day.
func (d Date) Equal(o Date) bool {
	return d.Time.Equal(o.Time)
}

// Compare returns -1, 0 or +1 ordering d against o.
func (d Date) Compare(o Date) int {
	return d.Time.Compare(o.Time)
}

func (e Transaction) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return errors.Join(ErrInvalidDate, err)
	}
	if !e.Type.IsValid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if len(e.Category) > 200 {
		return errors.New("category too long (max 200 characters)")
	}
	if e.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// Identity returns the delete-selection key of the transaction.
func (e Transaction) Identity() Identity {
	return Identity{Date: e.Date, Category: e.Category, Type: e.Type}
}

// HasDate reports whether the transaction carries a usable date.
func (e Transaction) HasDate() bool {
	return !e.Date.IsZero()
}

// Matches reports whether the transaction has exactly this identity.
func (id Identity) Matches(e Transaction) bool {
	return id.Date.Equal(e.Date) && id.Category == e.Category && id.Type == e.Type
}

func (id Identity) Validate() error {
	if err := id.Date.Validate(); err != nil {
		return errors.Join(ErrInvalidDate, err)
	}
	if !id.Type.IsValid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(id.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// NormalizeCategory trims a newly created category label and capitalizes it:
// first letter upper-case, the rest lower-case.
func NormalizeCategory(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
	return string(runes)
}
