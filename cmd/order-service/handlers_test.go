package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hatshop/orders/internal/cart"
	"github.com/hatshop/orders/internal/memstore"
	ord "github.com/hatshop/orders/internal/order"
	"github.com/hatshop/orders/internal/payment"
	"github.com/hatshop/orders/internal/product"
	"github.com/hatshop/orders/internal/settlement"
)

//
// ---------- STUBS & FAKES ----------
//

// fakeVerifier confirms every receipt unless ok is false.
type fakeVerifier struct{ ok bool }

func (f fakeVerifier) Verify(_ context.Context, r payment.Receipt) error {
	if !f.ok {
		return fmt.Errorf("%w: %s declined", payment.ErrNotConfirmed, r.ReceiptID)
	}
	return nil
}

type env struct {
	r        *gin.Engine
	orders   *memstore.Orders
	products *memstore.Products
	carts    *memstore.Carts
}

func newEnv(t *testing.T, verified bool) *env {
	t.Helper()
	e := &env{
		orders:   memstore.NewOrders(),
		products: memstore.NewProducts(),
		carts:    memstore.NewCarts(),
	}
	svc, err := settlement.New(settlement.Deps{Orders: e.orders, Stock: e.products})
	if err != nil {
		t.Fatalf("settlement.New: %v", err)
	}
	e.r = newRouter(deps{
		orders:   e.orders,
		checkout: ord.NewCheckout(e.orders, e.carts, e.products),
		settle:   svc,
		verifier: fakeVerifier{ok: verified},
	})
	return e
}

// seed stores a pending order of qty units of a product holding stock units.
func (e *env) seed(stock, qty int) (orderID, productID string) {
	productID = uuid.NewString()
	e.products.PutProduct(product.Product{ID: productID, Name: "Fedora", Price: decimal.RequireFromString("30.00"), Inventory: stock})
	orderID = uuid.NewString()
	e.orders.Put(ord.Order{
		ID:            orderID,
		UserID:        uuid.NewString(),
		PaymentStatus: ord.PaymentPending,
		Status:        ord.StatusPending,
		Total:         decimal.RequireFromString("30.00").Mul(decimal.NewFromInt(int64(qty))),
	}, ord.Item{
		ID:          uuid.NewString(),
		OrderID:     orderID,
		ProductID:   productID,
		Quantity:    qty,
		Price:       decimal.RequireFromString("30.00"),
		ProductName: "Fedora",
	})
	return orderID, productID
}

func (e *env) do(method, target, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	e.r.ServeHTTP(w, req)
	return w
}

func (e *env) orderStatus(t *testing.T, id string) (ord.PaymentStatus, ord.Status) {
	t.Helper()
	o, _, err := e.orders.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("order %s: %v", id, err)
	}
	return o.PaymentStatus, o.Status
}

const confirmBody = `{"paymentMethod":"card","receiptId":"pay_1","paymentData":{"event":"done"}}`

//
// ---------- TESTS ----------
//

func TestCreateOrder_FromCart(t *testing.T) {
	e := newEnv(t, true)
	pid := uuid.NewString()
	e.products.PutProduct(product.Product{ID: pid, Name: "Cap", Price: decimal.RequireFromString("15.00"), Inventory: 5})
	uid := uuid.NewString()
	e.carts.Add(cart.Item{ID: uuid.NewString(), UserID: uid, ProductID: pid, Quantity: 2})

	w := e.do(http.MethodPost, "/orders", fmt.Sprintf(`{"user_id":%q,"address_id":%q}`, uid, uuid.NewString()))
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got ord.DetailResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(got.Items) != 1 || !got.Order.Total.Equal(decimal.RequireFromString("30.00")) {
		t.Fatalf("unexpected order: %+v", got)
	}
	if inv := e.products.Inventory(pid); inv != 5 {
		t.Fatalf("order creation touched stock: %d", inv)
	}
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	e := newEnv(t, true)
	w := e.do(http.MethodPost, "/orders", fmt.Sprintf(`{"user_id":%q,"address_id":%q}`, uuid.NewString(), uuid.NewString()))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s (expected 400)", w.Code, w.Body.String())
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	e := newEnv(t, true)
	w := e.do(http.MethodGet, "/orders/"+uuid.NewString(), "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s (expected 404)", w.Code, w.Body.String())
	}
}

func TestGetOrderItems_OK(t *testing.T) {
	e := newEnv(t, true)
	oid, _ := e.seed(5, 2)
	w := e.do(http.MethodGet, "/orders/"+oid+"/items", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var items []ord.Item
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil || len(items) != 1 {
		t.Fatalf("items=%v err=%v", items, err)
	}
}

func TestListOrdersByUser_OK(t *testing.T) {
	e := newEnv(t, true)
	oid, _ := e.seed(5, 1)
	o, _, _ := e.orders.GetByID(context.Background(), oid)

	w := e.do(http.MethodGet, "/orders/user/"+o.UserID+"?limit=10&offset=0", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var arr []ord.Order
	if err := json.Unmarshal(w.Body.Bytes(), &arr); err != nil || len(arr) != 1 {
		t.Fatalf("orders=%v err=%v", arr, err)
	}
}

func TestAvailability_ReportsShortage(t *testing.T) {
	e := newEnv(t, true)
	oid, _ := e.seed(1, 3)
	w := e.do(http.MethodGet, "/orders/"+oid+"/availability", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var rep settlement.AvailabilityReport
	if err := json.Unmarshal(w.Body.Bytes(), &rep); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if rep.CanProceed || rep.Items[0].Shortage != 2 {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestValidatePayment_Conflict(t *testing.T) {
	e := newEnv(t, true)
	oid, _ := e.seed(1, 3)
	w := e.do(http.MethodPost, "/orders/"+oid+"/payment/validate", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s (expected 409)", w.Code, w.Body.String())
	}
	var body struct {
		Error string                `json:"error"`
		Items []settlement.Shortage `json:"items"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if len(body.Items) != 1 || body.Items[0].Name != "Fedora" || body.Items[0].Shortage != 2 {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestConfirmPayment_Settles(t *testing.T) {
	e := newEnv(t, true)
	oid, pid := e.seed(5, 3)

	w := e.do(http.MethodPost, "/orders/"+oid+"/payment/confirm", confirmBody)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if inv := e.products.Inventory(pid); inv != 2 {
		t.Fatalf("stock expected=2, got=%d", inv)
	}
	if ps, st := e.orderStatus(t, oid); ps != ord.PaymentPaid || st != ord.StatusProcessing {
		t.Fatalf("status after confirm: %s/%s", ps, st)
	}
}

func TestConfirmPayment_NotVerified(t *testing.T) {
	e := newEnv(t, false)
	oid, pid := e.seed(5, 3)

	w := e.do(http.MethodPost, "/orders/"+oid+"/payment/confirm", confirmBody)
	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("status=%d body=%s (expected 402)", w.Code, w.Body.String())
	}
	if inv := e.products.Inventory(pid); inv != 5 {
		t.Fatalf("stock changed without payment: %d", inv)
	}
}

func TestConfirmPayment_StockGone(t *testing.T) {
	e := newEnv(t, true)
	oid, pid := e.seed(2, 3)

	w := e.do(http.MethodPost, "/orders/"+oid+"/payment/confirm", confirmBody)
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s (expected 409)", w.Code, w.Body.String())
	}
	var body struct {
		Error string                `json:"error"`
		Items []settlement.Shortage `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.Error != "stock changed, please retry" || len(body.Items) != 1 || body.Items[0].Shortage != 1 {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	if inv := e.products.Inventory(pid); inv != 2 {
		t.Fatalf("stock changed: %d", inv)
	}
	if ps, _ := e.orderStatus(t, oid); ps != ord.PaymentPending {
		t.Fatalf("payment status=%s, expected pending", ps)
	}
}

func TestConfirmPayment_Twice(t *testing.T) {
	e := newEnv(t, true)
	oid, pid := e.seed(3, 3)

	for i := 0; i < 2; i++ {
		w := e.do(http.MethodPost, "/orders/"+oid+"/payment/confirm", confirmBody)
		if w.Code != http.StatusOK {
			t.Fatalf("confirm #%d: status=%d body=%s", i+1, w.Code, w.Body.String())
		}
		var got settlement.SettledOrder
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if got.Order == nil || got.Order.PaymentStatus != ord.PaymentPaid {
			t.Fatalf("confirm #%d: unexpected body: %s", i+1, w.Body.String())
		}
	}
	if inv := e.products.Inventory(pid); inv != 0 {
		t.Fatalf("stock expected=0, got=%d", inv)
	}
	if ps, st := e.orderStatus(t, oid); ps != ord.PaymentPaid || st != ord.StatusProcessing {
		t.Fatalf("status after replay: %s/%s", ps, st)
	}

	// a different receipt for a paid order is a second charge
	w := e.do(http.MethodPost, "/orders/"+oid+"/payment/confirm", `{"paymentMethod":"card","receiptId":"pay_2"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s (expected 409)", w.Code, w.Body.String())
	}
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if _, ok := body["items"]; ok || body["error"] != "order already paid" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestConfirmPayment_StoreFailure(t *testing.T) {
	e := newEnv(t, true)
	oid, _ := e.seed(5, 1)
	e.orders.FailMarkPaid = memstore.ErrInjected

	w := e.do(http.MethodPost, "/orders/"+oid+"/payment/confirm", confirmBody)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d body=%s (expected 500)", w.Code, w.Body.String())
	}
}

func TestCancel_PaidOrderRestocks(t *testing.T) {
	e := newEnv(t, true)
	oid, pid := e.seed(3, 2)

	if w := e.do(http.MethodPost, "/orders/"+oid+"/payment/confirm", confirmBody); w.Code != http.StatusOK {
		t.Fatalf("confirm status=%d body=%s", w.Code, w.Body.String())
	}
	if inv := e.products.Inventory(pid); inv != 1 {
		t.Fatalf("stock after payment=%d, expected 1", inv)
	}

	w := e.do(http.MethodPost, "/orders/"+oid+"/cancel", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if inv := e.products.Inventory(pid); inv != 3 {
		t.Fatalf("restock failed: stock=%d, expected=3", inv)
	}
	if ps, st := e.orderStatus(t, oid); ps != ord.PaymentPaid || st != ord.StatusCancelled {
		t.Fatalf("status after cancel: %s/%s", ps, st)
	}

	// second cancel is a conflict and does not restock again
	w = e.do(http.MethodPost, "/orders/"+oid+"/cancel", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s (expected 409)", w.Code, w.Body.String())
	}
	if inv := e.products.Inventory(pid); inv != 3 {
		t.Fatalf("stock=%d after second cancel", inv)
	}
}

func TestUpdateOrderStatus_PendingToCancelled_NoRestock(t *testing.T) {
	e := newEnv(t, true)
	oid, pid := e.seed(3, 2)

	w := e.do(http.MethodPut, "/orders/"+oid+"/status", `{"status":"cancelled"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if inv := e.products.Inventory(pid); inv != 3 {
		t.Fatalf("stock changed and should not have: %d", inv)
	}
}

func TestUpdateOrderStatus_Shipping(t *testing.T) {
	e := newEnv(t, true)
	oid, _ := e.seed(3, 1)

	// unpaid orders cannot ship
	if w := e.do(http.MethodPut, "/orders/"+oid+"/status", `{"status":"shipping"}`); w.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s (expected 409)", w.Code, w.Body.String())
	}
	if w := e.do(http.MethodPost, "/orders/"+oid+"/payment/confirm", confirmBody); w.Code != http.StatusOK {
		t.Fatalf("confirm status=%d body=%s", w.Code, w.Body.String())
	}
	w := e.do(http.MethodPut, "/orders/"+oid+"/status", `{"status":"shipping"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if _, st := e.orderStatus(t, oid); st != ord.StatusShipping {
		t.Fatalf("order status=%s, expected shipping", st)
	}
}

func TestUpdateOrderStatus_InvalidStatus(t *testing.T) {
	e := newEnv(t, true)
	oid, _ := e.seed(3, 1)
	w := e.do(http.MethodPut, "/orders/"+oid+"/status", `{"status":"wtf"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s (expected 400)", w.Code, w.Body.String())
	}
}

func init() {
	gin.SetMode(gin.TestMode)
	gin.DefaultWriter = io.Discard
	log.SetOutput(io.Discard)
}
