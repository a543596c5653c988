package order

import "encoding/json"

// CreateOrderRequest payload of order creation; items are taken from the cart.
// swagger:model CreateOrderRequest
type CreateOrderRequest struct {
	UserID    string `json:"user_id"    example:"b2f5ff47-2b1e-4f22-8a96-5f3c1f2f2e7b"`
	AddressID string `json:"address_id" example:"5d0c7a7e-3f7a-4d35-9b5e-2f0c1f2f9a11"`
	Note      string `json:"note"       example:"Leave at the door"`
}

// PaymentConfirmRequest is sent by the storefront after the payment widget
// reports a done event.
// swagger:model PaymentConfirmRequest
type PaymentConfirmRequest struct {
	PaymentMethod string          `json:"paymentMethod" example:"card"`
	ReceiptID     string          `json:"receiptId"     example:"pay_29QQoUBi66xm2f"`
	PaymentData   json.RawMessage `json:"paymentData"   swaggertype:"object"`
}

// UpdateStatusRequest payload of an order status change.
// swagger:model UpdateStatusRequest
type UpdateStatusRequest struct {
	Status string `json:"status" example:"shipping"`
}

// DetailResponse is an order together with its line items.
// swagger:model
type DetailResponse struct {
	Order Order  `json:"order"`
	Items []Item `json:"items"`
}
