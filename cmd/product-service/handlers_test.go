package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/hatshop/orders/internal/memstore"
	prod "github.com/hatshop/orders/internal/product"
)

func seeded() *memstore.Products {
	repo := memstore.NewProducts()
	repo.PutProduct(prod.Product{ID: "p", Name: "Bucket Hat", Price: decimal.RequireFromString("19.90"), Inventory: 0})
	repo.PutVariant(prod.Variant{ID: "v-black", ProductID: "p", Color: "Black", Inventory: 2, IsActive: true})
	repo.PutVariant(prod.Variant{ID: "v-red", ProductID: "p", Color: "Red", Inventory: 10, IsActive: false})
	repo.PutProduct(prod.Product{ID: "q", Name: "Beanie", Price: decimal.RequireFromString("9.90"), Inventory: 7})
	return repo
}

func send(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

// GET /products/:id
func TestGetProduct_WithVariants_And_NotFound(t *testing.T) {
	r := newRouter(seeded())

	// OK
	{
		w := send(r, http.MethodGet, "/products/p", "")
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		var got prod.DetailResponse
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if got.ID != "p" || len(got.Variants) != 2 {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	}

	// 404
	{
		w := send(r, http.MethodGet, "/products/nope", "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d body=%s", w.Code, w.Body.String())
		}
	}
}

// PUT /products/:id/inventory
func TestSetInventory_Valid_And_Invalid(t *testing.T) {
	repo := seeded()
	r := newRouter(repo)

	{
		w := send(r, http.MethodPut, "/products/q/inventory", `{"inventory":3}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		if inv := repo.Inventory("q"); inv != 3 {
			t.Fatalf("inventory=%d, expected 3", inv)
		}
	}

	// zero is a real value, not "omitted"
	{
		w := send(r, http.MethodPut, "/products/q/inventory", `{"inventory":0}`)
		if w.Code != http.StatusOK || repo.Inventory("q") != 0 {
			t.Fatalf("status=%d inventory=%d", w.Code, repo.Inventory("q"))
		}
	}

	// missing inventory => 400
	{
		w := send(r, http.MethodPut, "/products/q/inventory", `{}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d body=%s", w.Code, w.Body.String())
		}
	}

	// negative => 400
	{
		w := send(r, http.MethodPut, "/products/q/inventory", `{"inventory":-1}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for negative inventory, got %d body=%s", w.Code, w.Body.String())
		}
	}

	// unknown product => 404
	{
		w := send(r, http.MethodPut, "/products/nope/inventory", `{"inventory":1}`)
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d body=%s", w.Code, w.Body.String())
		}
	}
}

// PUT /variants/:id (partial)
func TestUpdateVariant_Partial(t *testing.T) {
	repo := seeded()
	r := newRouter(repo)

	// activate only; inventory untouched
	{
		w := send(r, http.MethodPut, "/variants/v-red", `{"is_active":true}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		var v prod.Variant
		_ = json.Unmarshal(w.Body.Bytes(), &v)
		if !v.IsActive || v.Inventory != 10 {
			t.Fatalf("partial update not respected: %+v", v)
		}
	}

	// inventory only
	{
		w := send(r, http.MethodPut, "/variants/v-black", `{"inventory":5}`)
		if w.Code != http.StatusOK || repo.Inventory("v-black") != 5 {
			t.Fatalf("status=%d inventory=%d", w.Code, repo.Inventory("v-black"))
		}
	}

	// empty body => 400
	{
		w := send(r, http.MethodPut, "/variants/v-black", `{}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d body=%s", w.Code, w.Body.String())
		}
	}

	// negative => 400
	{
		w := send(r, http.MethodPut, "/variants/v-black", `{"inventory":-3}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d body=%s", w.Code, w.Body.String())
		}
	}

	// unknown => 404
	{
		w := send(r, http.MethodPut, "/variants/nope", `{"inventory":1}`)
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d body=%s", w.Code, w.Body.String())
		}
	}
}

func TestHealthz(t *testing.T) {
	w := send(newRouter(seeded()), http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func init() {
	gin.SetMode(gin.TestMode)
	gin.DefaultWriter = io.Discard
	log.SetOutput(io.Discard)
}
