// Package notify sends the order SMS notifications through the internal
// notification endpoint. Delivery is best effort: failures are logged and
// never reach the caller.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindPayment  Kind = "payment"
	KindShipping Kind = "shipping"
)

// Message is the flat payload the notification endpoint expects.
type Message struct {
	ProductName    string          `json:"productName"`
	ItemCount      int             `json:"itemCount"`
	PaymentMethod  string          `json:"paymentMethod"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	PaymentStatus  string          `json:"paymentStatus"`
	OrderNumber    string          `json:"orderNumber"`
	RecipientName  string          `json:"recipientName"`
	RecipientPhone string          `json:"recipientPhone"`
	Address        string          `json:"address"`
	TotalQuantity  int             `json:"totalQuantity"`
}

// MarshalJSON writes TotalAmount as a bare number.
func (m Message) MarshalJSON() ([]byte, error) {
	type flat Message
	return json.Marshal(struct {
		flat
		TotalAmount json.Number `json:"totalAmount"`
	}{flat(m), json.Number(m.TotalAmount.String())})
}

// Error is a failed delivery. It is only ever logged.
type Error struct {
	Kind   Kind
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("notify %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("notify %s: unexpected status %d", e.Kind, e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

type Client struct {
	HTTP    *http.Client
	BaseURL string
	APIKey  string
	Timeout time.Duration

	wg sync.WaitGroup
}

const defaultTimeout = 5 * time.Second

// NewClient bounds each delivery by timeout; zero or less means 5s.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		HTTP:    &http.Client{Timeout: timeout},
		BaseURL: baseURL,
		APIKey:  apiKey,
		Timeout: timeout,
	}
}

// Send delivers one message synchronously.
func (c *Client) Send(ctx context.Context, kind Kind, m Message) error {
	body, err := json.Marshal(m)
	if err != nil {
		return &Error{Kind: kind, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/%s", c.BaseURL, kind), bytes.NewReader(body))
	if err != nil {
		return &Error{Kind: kind, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return &Error{Kind: kind, Err: err}
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &Error{Kind: kind, Status: res.StatusCode}
	}
	return nil
}

// Dispatch sends in the background on its own bounded context so a slow
// endpoint cannot hold up the request that triggered it.
func (c *Client) Dispatch(kind Kind, orderID string, m Message) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
		defer cancel()
		if err := c.Send(ctx, kind, m); err != nil {
			log.Printf("[notify] order=%s %v", orderID, err)
			return
		}
		log.Printf("[notify] order=%s %s sent to %s", orderID, kind, m.RecipientPhone)
	}()
}

// Wait blocks until every dispatched message has finished.
func (c *Client) Wait() { c.wg.Wait() }
