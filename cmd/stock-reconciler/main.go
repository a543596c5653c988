package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hatshop/orders/internal/config"
	"github.com/hatshop/orders/internal/lock"
	"github.com/hatshop/orders/internal/product"
	"github.com/hatshop/orders/internal/reconcile"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Only a shared locker excludes the order service; the local one is a
	// single-process fallback.
	var locker lock.Locker = lock.NewLocal(cfg.LockWait)
	if cfg.RedisAddr != "" {
		client, err := lock.NewRedisPool(cfg.RedisAddr)
		if err != nil {
			log.Fatalf("redis connect: %v", err)
		}
		defer client.Close()
		locker = lock.NewRedis(client, cfg.LockTTL, cfg.LockWait)
	}

	r := reconcile.NewReconciler(reconcile.NewPGRepo(db), product.NewPGRepo(db), locker, cfg.ReconcileMaxAttempts)
	log.Printf("stock-reconciler running every %s (max attempts %d)", cfg.ReconcileInterval, cfg.ReconcileMaxAttempts)
	r.Run(ctx, cfg.ReconcileInterval)
	log.Printf("stock-reconciler stopped")
}
