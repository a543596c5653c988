package main

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hatshop/orders/internal/httpx"
	"github.com/hatshop/orders/internal/lock"
	ord "github.com/hatshop/orders/internal/order"
	"github.com/hatshop/orders/internal/payment"
	"github.com/hatshop/orders/internal/settlement"
)

// deps is everything the order routes need.
type deps struct {
	orders   ord.Repository
	checkout *ord.Checkout
	settle   *settlement.Service
	verifier payment.Verifier
}

func newRouter(d deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger())

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	r.POST("/orders", createOrderHandler(d.checkout))
	r.GET("/orders/user/:user_id", listOrdersByUserHandler(d.orders))
	r.GET("/orders/:id", getOrderHandler(d.orders))
	r.GET("/orders/:id/items", getOrderItemsHandler(d.orders))
	r.GET("/orders/:id/availability", availabilityHandler(d.settle))
	r.POST("/orders/:id/payment/validate", validatePaymentHandler(d.settle))
	r.POST("/orders/:id/payment/confirm", confirmPaymentHandler(d.settle, d.orders, d.verifier))
	r.PUT("/orders/:id/status", updateOrderStatusHandler(d.settle))
	r.POST("/orders/:id/cancel", cancelOrderHandler(d.settle))
	return r
}

// writeError maps the settlement error taxonomy onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var verr *settlement.ValidationError
	switch {
	case errors.Is(err, settlement.ErrOrderNotFound):
		httpx.Error(c, http.StatusNotFound, "order not found")
	case errors.As(err, &verr):
		body := gin.H{"error": verr.Error()}
		if len(verr.Items) > 0 {
			body["items"] = verr.Items
		}
		c.AbortWithStatusJSON(http.StatusConflict, body)
	case errors.Is(err, payment.ErrNotConfirmed):
		httpx.Error(c, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, lock.ErrLockTimeout):
		httpx.Error(c, http.StatusServiceUnavailable, "stock is busy, please retry")
	default:
		rid, _ := c.Get("rid")
		log.Printf("[http] rid=%v %s %s: %v", rid, c.Request.Method, c.Request.URL.Path, err)
		httpx.Error(c, http.StatusInternalServerError, "internal error")
	}
}

// createOrderHandler godoc
// @Summary      Create order from cart
// @Description  Snapshots the user's cart into a pending order and clears the cart. Stock is not reserved.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        body  body      ord.CreateOrderRequest  true  "Order"
// @Success      201   {object}  ord.DetailResponse
// @Failure      400   {object}  product.HTTPError
// @Failure      500   {object}  product.HTTPError
// @Router       /orders [post]
func createOrderHandler(co *ord.Checkout) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid json")
			return
		}
		if req.UserID == "" || req.AddressID == "" {
			httpx.Error(c, http.StatusBadRequest, "user_id and address_id are required")
			return
		}
		o, items, err := co.PlaceOrder(c.Request.Context(), ord.PlaceOrderInput{
			UserID:    req.UserID,
			AddressID: req.AddressID,
			Note:      req.Note,
		})
		if errors.Is(err, ord.ErrEmptyCart) || errors.Is(err, ord.ErrInvalidCart) {
			httpx.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, ord.DetailResponse{Order: *o, Items: items})
	}
}

// getOrderHandler godoc
// @Summary  Get order with items
// @Tags     orders
// @Produce  json
// @Param    id   path      string  true  "Order ID"
// @Success  200  {object}  ord.DetailResponse
// @Failure  404  {object}  product.HTTPError
// @Router   /orders/{id} [get]
func getOrderHandler(repo ord.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, items, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, ord.DetailResponse{Order: *o, Items: items})
	}
}

// getOrderItemsHandler godoc
// @Summary  List order items
// @Tags     orders
// @Produce  json
// @Param    id   path  string  true  "Order ID"
// @Success  200  {array}   ord.Item
// @Failure  404  {object}  product.HTTPError
// @Router   /orders/{id}/items [get]
func getOrderItemsHandler(repo ord.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := repo.GetItems(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// listOrdersByUserHandler godoc
// @Summary  List a user's orders, newest first
// @Tags     orders
// @Produce  json
// @Param    user_id  path   string  true   "User ID"
// @Param    limit    query  int     false  "Page size (1-100)"
// @Param    offset   query  int     false  "Offset"
// @Success  200  {array}  ord.Order
// @Router   /orders/user/{user_id} [get]
func listOrdersByUserHandler(repo ord.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := httpx.Page(c)
		out, err := repo.ListByUser(c.Request.Context(), c.Param("user_id"), limit, offset)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// availabilityHandler godoc
// @Summary      Check stock for an order
// @Description  Read-only; returns the per-item report whether or not the order can proceed.
// @Tags         payment
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  settlement.AvailabilityReport
// @Failure      404  {object}  product.HTTPError
// @Router       /orders/{id}/availability [get]
func availabilityHandler(svc *settlement.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		rep, err := svc.CheckAvailability(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, rep)
	}
}

// validatePaymentHandler godoc
// @Summary      Validate an order before opening the payment widget
// @Tags         payment
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  settlement.AvailabilityReport
// @Failure      409  {object}  product.HTTPError
// @Router       /orders/{id}/payment/validate [post]
func validatePaymentHandler(svc *settlement.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		rep, err := svc.ValidateBeforePayment(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, rep)
	}
}

// confirmPaymentHandler godoc
// @Summary      Confirm a payment reported by the widget
// @Description  Verifies the receipt, re-checks stock under the stock locks and settles. Replaying the receipt that paid the order returns 200 again. A 409 carrying items means stock changed after the charge and the caller must refund it.
// @Tags         payment
// @Accept       json
// @Produce      json
// @Param        id    path      string                     true  "Order ID"
// @Param        body  body      ord.PaymentConfirmRequest  true  "Payment"
// @Success      200   {object}  settlement.SettledOrder
// @Failure      402   {object}  product.HTTPError
// @Failure      409   {object}  product.HTTPError
// @Failure      500   {object}  product.HTTPError
// @Router       /orders/{id}/payment/confirm [post]
func confirmPaymentHandler(svc *settlement.Service, repo ord.Repository, verifier payment.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.PaymentConfirmRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid json")
			return
		}
		ctx := c.Request.Context()
		id := c.Param("id")

		if err := verifier.Verify(ctx, payment.Receipt{Method: req.PaymentMethod, ReceiptID: req.ReceiptID}); err != nil {
			if !errors.Is(err, payment.ErrNotConfirmed) {
				log.Printf("[payment] order=%s verify receipt=%s: %v", id, req.ReceiptID, err)
			}
			httpx.Error(c, http.StatusPaymentRequired, "payment not confirmed")
			return
		}

		res, err := svc.SettlePayment(ctx, id, settlement.PaymentInfo{
			Method:    req.PaymentMethod,
			ReceiptID: req.ReceiptID,
			Data:      req.PaymentData,
		})
		if errors.Is(err, settlement.ErrAlreadyPaid) {
			replayedConfirm(c, repo, id, req.ReceiptID)
			return
		}
		var verr *settlement.ValidationError
		if errors.As(err, &verr) && len(verr.Items) > 0 {
			log.Printf("[payment] order=%s receipt=%s charged but not settled: %v", id, req.ReceiptID, err)
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error": "stock changed, please retry",
				"items": verr.Items,
			})
			return
		}
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// replayedConfirm answers a confirmation for an order that is already paid.
// The receipt that paid it gets the order back; any other receipt is a second
// charge.
func replayedConfirm(c *gin.Context, repo ord.Repository, id, receiptID string) {
	o, items, err := repo.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if o.PaymentKey != receiptID {
		log.Printf("[payment] order=%s already paid by %s, got receipt=%s", id, o.PaymentKey, receiptID)
		httpx.Error(c, http.StatusConflict, "order already paid")
		return
	}
	c.JSON(http.StatusOK, settlement.SettledOrder{Order: o, Items: items})
}

// updateOrderStatusHandler godoc
// @Summary      Move an order through fulfilment
// @Description  shipping and completed require a paid order; cancelled restores stock of paid orders.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id    path      string                   true  "Order ID"
// @Param        body  body      ord.UpdateStatusRequest  true  "Status"
// @Success      200   {object}  ord.Order
// @Failure      400   {object}  product.HTTPError
// @Failure      409   {object}  product.HTTPError
// @Router       /orders/{id}/status [put]
func updateOrderStatusHandler(svc *settlement.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid json")
			return
		}
		to := ord.Status(req.Status)
		if !to.Valid() {
			httpx.Error(c, http.StatusBadRequest, "invalid status")
			return
		}
		o, err := svc.AdvanceStatus(c.Request.Context(), c.Param("id"), to)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// cancelOrderHandler godoc
// @Summary  Cancel an order
// @Tags     orders
// @Produce  json
// @Param    id   path      string  true  "Order ID"
// @Success  200  {object}  settlement.CancelResult
// @Failure  404  {object}  product.HTTPError
// @Failure  409  {object}  product.HTTPError
// @Router   /orders/{id}/cancel [post]
func cancelOrderHandler(svc *settlement.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.CancelOrder(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}
