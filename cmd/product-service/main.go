package main

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hatshop/orders/internal/config"
	prod "github.com/hatshop/orders/internal/product"
)

func main() {
	cfg := config.Load()

	db, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	r := newRouter(prod.NewPGRepo(db))
	log.Printf("product-service listening on %s", cfg.ProductSvcAddr)
	log.Fatal(r.Run(cfg.ProductSvcAddr))
}
