// @title        Hatshop Order Service
// @version      1.0
// @description  Orders, stock-checked payment settlement and cancellation.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/hatshop/orders/docs"
	"github.com/hatshop/orders/internal/address"
	"github.com/hatshop/orders/internal/cart"
	"github.com/hatshop/orders/internal/config"
	"github.com/hatshop/orders/internal/events"
	"github.com/hatshop/orders/internal/lock"
	"github.com/hatshop/orders/internal/notify"
	ord "github.com/hatshop/orders/internal/order"
	"github.com/hatshop/orders/internal/payment"
	"github.com/hatshop/orders/internal/product"
	"github.com/hatshop/orders/internal/reconcile"
	"github.com/hatshop/orders/internal/settlement"
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

	orders := ord.NewPGRepo(db)
	products := product.NewPGRepo(db)

	var locker lock.Locker = lock.NewLocal(cfg.LockWait)
	if cfg.RedisAddr != "" {
		client, err := lock.NewRedisPool(cfg.RedisAddr)
		if err != nil {
			log.Fatalf("redis connect: %v", err)
		}
		defer client.Close()
		locker = lock.NewRedis(client, cfg.LockTTL, cfg.LockWait)
		log.Printf("stock locks on redis %s", cfg.RedisAddr)
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		p, err := events.Dial(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatalf("amqp connect: %v", err)
		}
		defer p.Close()
		publisher = p
	}

	var verifier payment.Verifier = payment.PassThrough{}
	if cfg.RazorpayKeyID != "" {
		verifier = payment.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	}

	notifier := notify.NewClient(cfg.NotifyBaseURL, cfg.NotifyAPIKey, cfg.NotifyTimeout)

	svc, err := settlement.New(settlement.Deps{
		Orders:        orders,
		Stock:         products,
		Addresses:     address.NewPGRepo(db),
		Locker:        locker,
		Notifier:      notifier,
		Events:        publisher,
		Discrepancies: reconcile.NewPGRepo(db),
	})
	if err != nil {
		log.Fatalf("settlement: %v", err)
	}

	r := newRouter(deps{
		orders:   orders,
		checkout: ord.NewCheckout(orders, cart.NewPGRepo(db), products),
		settle:   svc,
		verifier: verifier,
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{Addr: cfg.OrderSvcAddr, Handler: r}
	go func() {
		log.Printf("order-service listening on %s", cfg.OrderSvcAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	notifier.Wait()
}
