package amqp

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
)

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp 127.0.0.1:5672: connect: connection refused"), true},
		{"closed connection", errors.New("connection closed"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"recoverable amqp error", &amqp091.Error{Code: 320, Reason: "CONNECTION_FORCED", Recover: true}, true},
		{"access refused", &amqp091.Error{Code: 403, Reason: "ACCESS_REFUSED"}, false},
		{"bad url", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestEvents(t *testing.T) {
	tx := core.Transaction{Date: core.NewDate(2024, 3, 1), Type: core.Expense, Category: "Food", Amount: decimal.RequireFromString("12.50")}

	ins := NewInsertEvent(tx, 7)
	assert.Equal(t, OpInsert, ins.Op)
	assert.Equal(t, "2024-03-01", ins.Date)
	assert.Equal(t, "12.5", ins.Amount)

	del := NewDeleteEvent(tx.Identity(), 2, 8)
	assert.NotEqual(t, ins.ID, del.ID)

	body, err := del.ToJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(body), `"amount"`)

	decoded, err := LedgerEventFromJSON(body)
	require.NoError(t, err)
	assert.Equal(t, del.ID, decoded.ID)
	assert.Equal(t, 2, decoded.Removed)

	_, err = LedgerEventFromJSON([]byte("{"))
	assert.Error(t, err)
}

func TestNewClientInvalidURL(t *testing.T) {
	_, err := NewClient(Config{URL: "http://localhost", Exchange: "ledger", DialAttempts: 2, DialDelay: time.Millisecond}, nil)
	assert.Error(t, err)
}

func TestPublishSubscribe(t *testing.T) {
	url := os.Getenv("TEST_AMQP_URL")
	if url == "" {
		t.Skip("TEST_AMQP_URL not set, skipping integration test")
	}
	cfg := Config{URL: url, Exchange: "ledger_test"}
	sub, err := NewClient(cfg, nil)
	require.NoError(t, err)
	defer sub.Close()
	pub, err := NewClient(cfg, nil)
	require.NoError(t, err)
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	got := make(chan *LedgerEvent, 1)
	go sub.Subscribe(ctx, func(e *LedgerEvent) error {
		got <- e
		return nil
	})
	time.Sleep(200 * time.Millisecond)

	event := NewDeleteEvent(core.Identity{Date: core.NewDate(2024, 1, 1), Category: "Food", Type: core.Expense}, 1, 1)
	require.NoError(t, pub.Publish(ctx, event))

	select {
	case e := <-got:
		assert.Equal(t, event.ID, e.ID)
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}
