package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"ledger/internal/core"
)

const (
	OpInsert = "insert"
	OpDelete = "delete"
)

// LedgerEvent announces one committed ledger mutation. Amount is empty for
// deletes; Removed is zero for inserts.
type LedgerEvent struct {
	ID        uuid.UUID `json:"id"`
	Op        string    `json:"op"`
	Date      string    `json:"date"`
	Type      string    `json:"type"`
	Category  string    `json:"category"`
	Amount    string    `json:"amount,omitempty"`
	Removed   int       `json:"removed,omitempty"`
	Revision  uint64    `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

// NewInsertEvent describes an added transaction.
func NewInsertEvent(tx core.Transaction, revision uint64) *LedgerEvent {
	return &LedgerEvent{
		ID:        uuid.New(),
		Op:        OpInsert,
		Date:      tx.Date.String(),
		Type:      tx.Type.String(),
		Category:  tx.Category,
		Amount:    tx.Amount.String(),
		Revision:  revision,
		Timestamp: time.Now().UTC(),
	}
}

// NewDeleteEvent describes removed transactions.
func NewDeleteEvent(id core.Identity, removed int, revision uint64) *LedgerEvent {
	return &LedgerEvent{
		ID:        uuid.New(),
		Op:        OpDelete,
		Date:      id.Date.String(),
		Type:      id.Type.String(),
		Category:  id.Category,
		Removed:   removed,
		Revision:  revision,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes an event.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
