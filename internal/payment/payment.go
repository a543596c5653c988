// Package payment confirms with the gateway that a receipt reported by the
// storefront widget is really a completed charge.
package payment

import (
	"context"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

var ErrNotConfirmed = errors.New("payment not confirmed by gateway")

type Receipt struct {
	Method    string
	ReceiptID string
}

type Verifier interface {
	Verify(ctx context.Context, r Receipt) error
}

// PassThrough trusts the widget's done event.
type PassThrough struct{}

func (PassThrough) Verify(_ context.Context, r Receipt) error {
	if r.ReceiptID == "" {
		return fmt.Errorf("%w: empty receipt id", ErrNotConfirmed)
	}
	return nil
}

// paymentFetcher is the subset of the Razorpay payment resource we call.
type paymentFetcher interface {
	Fetch(paymentID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type Razorpay struct {
	payments paymentFetcher
}

func NewRazorpay(keyID, keySecret string) *Razorpay {
	client := razorpay.NewClient(keyID, keySecret)
	return &Razorpay{payments: client.Payment}
}

func (v *Razorpay) Verify(_ context.Context, r Receipt) error {
	if r.ReceiptID == "" {
		return fmt.Errorf("%w: empty receipt id", ErrNotConfirmed)
	}
	p, err := v.payments.Fetch(r.ReceiptID, nil, nil)
	if err != nil {
		return fmt.Errorf("fetch payment %s: %w", r.ReceiptID, err)
	}
	status, _ := p["status"].(string)
	switch status {
	case "captured", "authorized":
		return nil
	default:
		return fmt.Errorf("%w: status %q", ErrNotConfirmed, status)
	}
}
