package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/anbari/storefront/internal/config"
	"github.com/anbari/storefront/internal/database"
	"github.com/anbari/storefront/internal/events"
	"github.com/anbari/storefront/internal/order"
	"github.com/anbari/storefront/internal/pricing"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("connected to database")

	var publisher *events.Publisher
	if cfg.Events.AMQPURL != "" {
		publisher, err = events.NewPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			logger.Fatal("connect to amqp", zap.Error(err))
		}
		defer publisher.Close()
		logger.Info("order events enabled", zap.String("exchange", cfg.Events.Exchange))
	}

	calc := pricing.NewCalculator(cfg.Pricing)

	a := &api{
		db:        db,
		calc:      calc,
		engine:    order.NewEngine(db, calc),
		publisher: publisher,
		logger:    logger,
	}

	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/categories", a.listCategories)
	r.Post("/categories", a.createCategory)

	r.Get("/products", a.listProducts)
	r.Post("/products", a.createProduct)
	r.Get("/products/{productID}", a.getProduct)

	r.Post("/users", a.createUser)

	r.Route("/users/{userID}", func(r chi.Router) {
		r.Get("/", a.getUser)

		r.Get("/cart", a.getCart)
		r.Delete("/cart", a.clearCart)
		r.Post("/cart/items", a.addCartItem)
		r.Put("/cart/items/{productID}", a.updateCartItem)
		r.Delete("/cart/items/{productID}", a.removeCartItem)

		r.Post("/checkout", a.checkout)
		r.Post("/buy-now", a.buyNow)

		r.Get("/orders", a.listOrders)
		r.Get("/orders/{orderID}", a.getOrder)
		r.Post("/orders/{orderID}/cancel", a.cancelOrder)
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info("server starting", zap.String("port", cfg.Server.Port))
	if err := server.ListenAndServe(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
