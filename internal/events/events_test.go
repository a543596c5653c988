package events

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_StampsIDAndTime(t *testing.T) {
	e := New(OrderPaid, "o-1", map[string]int{"items": 2})

	assert.NotEmpty(t, e.ID)
	assert.False(t, e.OccurredAt.IsZero())

	raw, err := json.Marshal(e)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "order.paid", got["type"])
	assert.Equal(t, "o-1", got["order_id"])
}

func TestAMQPPublisher_Publish(t *testing.T) {
	url := os.Getenv("AMQP_URL")
	if url == "" {
		t.Skip("AMQP_URL not set")
	}
	p, err := Dial(url, "orders.events.test")
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Publish(context.Background(), New(OrderCancelled, "o-2", nil)))
}
