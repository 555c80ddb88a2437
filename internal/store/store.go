// Package store defines the persistence port of the ledger and the row
// codec shared by the tabular backends.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ledger/internal/core"
)

// Column names of the persisted table, in write order.
const (
	ColDate     = "Date"
	ColType     = "Type"
	ColCategory = "Category"
	ColAmount   = "Amount"
)

// Header is the persisted column order.
var Header = []string{ColDate, ColType, ColCategory, ColAmount}

var ErrMissingColumn = errors.New("missing column")

// Store loads and saves the whole ledger. Save replaces everything that was
// persisted before.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, txs []core.Transaction) error
	Close() error
}

// Snapshot is what a Load produced. Rows whose type, category or amount
// could not be decoded are dropped and counted in Rejected; rows with an
// undecodable date are kept with a zero date.
type Snapshot struct {
	Transactions []core.Transaction
	Rejected     int
}

// storedDateLayouts are tried in order when decoding a persisted date.
var storedDateLayouts = []string{
	core.DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
}

// ParseStoredDate decodes a persisted date. It returns the zero Date when
// the text is not a recognised date.
func ParseStoredDate(s string) core.Date {
	s = strings.TrimSpace(s)
	for _, layout := range storedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t)
		}
	}
	return core.Date{}
}

// DecodeFields builds a transaction from its four text fields.
func DecodeFields(date, typ, category, amount string) (core.Transaction, error) {
	t, err := core.ParseTxType(typ)
	if err != nil {
		return core.Transaction{}, err
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return core.Transaction{}, core.ErrEmptyCategory
	}
	amt, err := core.ParseAmount(amount)
	if err != nil {
		return core.Transaction{}, err
	}
	tx := core.Transaction{
		Date:     ParseStoredDate(date),
		Type:     t,
		Category: category,
		Amount:   amt,
	}
	if !tx.HasDate() {
		tx.RawDate = date
	}
	return tx, nil
}

// EncodeDate renders the date field of tx. Undated transactions get their
// stored text back.
func EncodeDate(tx core.Transaction) string {
	if !tx.HasDate() {
		return tx.RawDate
	}
	return tx.Date.String()
}

// EncodeFields renders a transaction in Header order.
func EncodeFields(tx core.Transaction) []string {
	return []string{EncodeDate(tx), tx.Type.String(), tx.Category, tx.Amount.String()}
}

// Columns maps each persisted column name to its position in a header row.
type Columns map[string]int

// IndexHeader locates the four ledger columns in header, matching names
// case-insensitively. Extra columns are ignored.
func IndexHeader(header []string) (Columns, error) {
	cols := Columns{}
	for i, name := range header {
		for _, want := range Header {
			if strings.EqualFold(strings.TrimSpace(name), want) {
				cols[want] = i
			}
		}
	}
	var missing []string
	for _, want := range Header {
		if _, ok := cols[want]; !ok {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ","))
	}
	return cols, nil
}

// Decode builds a transaction from a row laid out as described by c.
func (c Columns) Decode(row []string) (core.Transaction, error) {
	get := func(col string) string {
		if i := c[col]; i < len(row) {
			return row[i]
		}
		return ""
	}
	return DecodeFields(get(ColDate), get(ColType), get(ColCategory), get(ColAmount))
}

// DecodeRows decodes every row and counts the rejected ones.
func (c Columns) DecodeRows(rows [][]string) Snapshot {
	snap := Snapshot{Transactions: make([]core.Transaction, 0, len(rows))}
	for _, row := range rows {
		if blank(row) {
			continue
		}
		tx, err := c.Decode(row)
		if err != nil {
			snap.Rejected++
			continue
		}
		snap.Transactions = append(snap.Transactions, tx)
	}
	return snap
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
