package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	mu      sync.Mutex
	path    string
	apiKey  string
	payload map[string]any
}

func newEndpoint(t *testing.T, status int, delay time.Duration) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)
		c.mu.Lock()
		defer c.mu.Unlock()
		c.path = r.URL.Path
		c.apiKey = r.Header.Get("x-api-key")
		_ = json.NewDecoder(r.Body).Decode(&c.payload)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func sampleMessage() Message {
	return Message{
		ProductName:    "Washed Ball Cap",
		ItemCount:      2,
		PaymentMethod:  "card",
		TotalAmount:    decimal.RequireFromString("59.80"),
		PaymentStatus:  "paid",
		OrderNumber:    "9f2b2a11",
		RecipientName:  "Kim",
		RecipientPhone: "010-1234-5678",
		Address:        "12 Hat St 3F",
		TotalQuantity:  3,
	}
}

func TestSend_PostsFlatPayloadWithAPIKey(t *testing.T) {
	srv, got := newEndpoint(t, http.StatusOK, 0)
	c := NewClient(srv.URL, "s3cret", time.Second)

	require.NoError(t, c.Send(context.Background(), KindPayment, sampleMessage()))

	assert.Equal(t, "/payment", got.path)
	assert.Equal(t, "s3cret", got.apiKey)
	assert.Equal(t, "Washed Ball Cap", got.payload["productName"])
	assert.Equal(t, "9f2b2a11", got.payload["orderNumber"])
	assert.Equal(t, 59.8, got.payload["totalAmount"], "amount is a JSON number")
	assert.EqualValues(t, 3, got.payload["totalQuantity"])
}

func TestSend_Non2xxIsNotifyError(t *testing.T) {
	srv, _ := newEndpoint(t, http.StatusUnauthorized, 0)
	c := NewClient(srv.URL, "wrong", time.Second)

	err := c.Send(context.Background(), KindShipping, sampleMessage())
	var nerr *Error
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, http.StatusUnauthorized, nerr.Status)
	assert.Equal(t, KindShipping, nerr.Kind)
}

func TestDispatch_IsDetachedAndBounded(t *testing.T) {
	srv, _ := newEndpoint(t, http.StatusOK, 200*time.Millisecond)
	c := NewClient(srv.URL, "k", 20*time.Millisecond)

	start := time.Now()
	c.Dispatch(KindPayment, "order-1", sampleMessage())
	assert.Less(t, time.Since(start), 50*time.Millisecond, "Dispatch must not block the caller")

	c.Wait() // the timeout fires and the failure is only logged
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestMessage_TotalAmountIsNumber(t *testing.T) {
	b, err := json.Marshal(sampleMessage())
	require.NoError(t, err)
	assert.Contains(t, string(b), `"totalAmount":59.8`)
	assert.Contains(t, string(b), `"recipientPhone":"010-1234-5678"`)
}

func TestNewClient_DefaultTimeout(t *testing.T) {
	c := NewClient("http://localhost", "k", 0)
	assert.Equal(t, 5*time.Second, c.Timeout)
	assert.Equal(t, 5*time.Second, c.HTTP.Timeout)

	srv, got := newEndpoint(t, http.StatusOK, 0)
	c = NewClient(srv.URL, "k", 0)
	c.Dispatch(KindPayment, "order-1", sampleMessage())
	c.Wait()
	got.mu.Lock()
	defer got.mu.Unlock()
	assert.Equal(t, "/payment", got.path, "zero timeout must not cancel delivery")
}
