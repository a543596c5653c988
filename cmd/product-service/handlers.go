package main

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hatshop/orders/internal/httpx"
	prod "github.com/hatshop/orders/internal/product"
)

func newRouter(repo prod.Repository) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger())

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/products/:id", getProductHandler(repo))
	r.PUT("/products/:id/inventory", setInventoryHandler(repo))
	r.GET("/variants/:id", getVariantHandler(repo))
	r.PUT("/variants/:id", updateVariantHandler(repo))
	return r
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, prod.ErrNotFound), errors.Is(err, prod.ErrVariantNotFound):
		httpx.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, prod.ErrInvalidInventory):
		httpx.Error(c, http.StatusBadRequest, err.Error())
	default:
		log.Printf("[http] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		httpx.Error(c, http.StatusInternalServerError, "internal error")
	}
}

// getProductHandler returns the product with its colour variants.
func getProductHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		p, err := repo.GetByID(ctx, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		variants, err := repo.ListVariants(ctx, p.ID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, prod.DetailResponse{Product: *p, Variants: variants})
	}
}

func setInventoryHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req prod.SetInventoryRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Inventory == nil {
			httpx.Error(c, http.StatusBadRequest, "inventory is required")
			return
		}
		ctx := c.Request.Context()
		if err := repo.SetInventory(ctx, c.Param("id"), *req.Inventory); err != nil {
			writeError(c, err)
			return
		}
		p, err := repo.GetByID(ctx, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func getVariantHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := repo.GetVariant(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

// updateVariantHandler applies a partial update; omitted fields are kept.
func updateVariantHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req prod.UpdateVariantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid json")
			return
		}
		if req.Inventory == nil && req.IsActive == nil {
			httpx.Error(c, http.StatusBadRequest, "nothing to update")
			return
		}
		v, err := repo.UpdateVariant(c.Request.Context(), c.Param("id"), req.Inventory, req.IsActive)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}
