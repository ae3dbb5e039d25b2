package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/madraskitchen/canteen/internal/cart"
	"github.com/madraskitchen/canteen/internal/checkout"
	"github.com/madraskitchen/canteen/internal/config"
	"github.com/madraskitchen/canteen/internal/events"
	"github.com/madraskitchen/canteen/internal/menu"
	"github.com/madraskitchen/canteen/internal/middleware"
	"github.com/madraskitchen/canteen/internal/orders"
	"github.com/madraskitchen/canteen/internal/payment"
	"github.com/madraskitchen/canteen/internal/students"
	"github.com/madraskitchen/canteen/internal/telemetry"
)

const serviceName = "canteen"

const serviceVersion = "0.1.0"

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	configPath := flag.String("config", "", "optional path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.Otel.Endpoint, serviceName, serviceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName, serviceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	db, err := telemetry.OpenDB("postgres", cfg.Postgres.URL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var cartBroadcast cart.Broadcaster
	var orderBroadcast checkout.Broadcaster
	if len(cfg.Kafka.Brokers) > 0 {
		cartPublisher := events.NewPublisher(cfg.Kafka.Brokers, events.TopicCartUpdated)
		defer func() { _ = cartPublisher.Close() }()
		orderPublisher := events.NewPublisher(cfg.Kafka.Brokers, events.TopicOrderPlaced)
		defer func() { _ = orderPublisher.Close() }()
		cartBroadcast = cartPublisher
		orderBroadcast = orderPublisher
	}

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	studentRepo := students.NewStudentRepository(db)
	sessionRepo := students.NewSessionRepository(db)
	menuRepo := menu.NewMenuRepository(db)
	cartService := cart.NewService(cart.NewRepository(db), cartBroadcast, logger)
	orderRepo := orders.NewOrderRepository(db)
	gateway := payment.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.ClientID, cfg.Gateway.ClientSecret, httpClient)

	checkoutService := checkout.NewService(sessionRepo, studentRepo, cartService,
		orderRepo, gateway, orderBroadcast, cfg.Gateway.ReturnURL, logger)

	studentHandler := students.NewHandler(studentRepo, sessionRepo, logger)
	menuHandler := menu.NewHandler(menuRepo, logger)
	cartHandler := cart.NewHandler(cartService, menuRepo, logger)
	checkoutHandler := checkout.NewHandler(checkoutService, logger)
	orderHandler := orders.NewHandler(orderRepo, gateway, logger)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /students", telemetry.WithHTTPRoute(studentHandler.HandleRegister))
	mux.HandleFunc("GET /students/{id}", telemetry.WithHTTPRoute(studentHandler.HandleGet))
	mux.HandleFunc("PUT /students/{id}", telemetry.WithHTTPRoute(studentHandler.HandleUpdateProfile))
	mux.HandleFunc("POST /sessions", telemetry.WithHTTPRoute(studentHandler.HandleLogin))
	mux.HandleFunc("GET /sessions/{id}", telemetry.WithHTTPRoute(studentHandler.HandleGetSession))

	mux.HandleFunc("GET /menu", telemetry.WithHTTPRoute(menuHandler.HandleList))
	mux.HandleFunc("GET /menu/{id}", telemetry.WithHTTPRoute(menuHandler.HandleGet))

	mux.HandleFunc("GET /cart", telemetry.WithHTTPRoute(cartHandler.HandleGet))
	mux.HandleFunc("POST /cart/items", telemetry.WithHTTPRoute(cartHandler.HandleAddItem))
	mux.HandleFunc("PATCH /cart/items/{itemID}", telemetry.WithHTTPRoute(cartHandler.HandleSetQuantity))
	mux.HandleFunc("DELETE /cart/items/{itemID}", telemetry.WithHTTPRoute(cartHandler.HandleRemoveItem))
	mux.HandleFunc("DELETE /cart", telemetry.WithHTTPRoute(cartHandler.HandleClear))

	mux.HandleFunc("POST /checkout", telemetry.WithHTTPRoute(checkoutHandler.HandleCheckout))

	mux.HandleFunc("GET /orders", telemetry.WithHTTPRoute(orderHandler.HandleList))
	mux.HandleFunc("GET /orders/{id}", telemetry.WithHTTPRoute(orderHandler.HandleGet))
	mux.HandleFunc("PATCH /orders/{id}/status", telemetry.WithHTTPRoute(orderHandler.HandleUpdateStatus))
	mux.HandleFunc("POST /orders/{id}/verify", telemetry.WithHTTPRoute(orderHandler.HandleVerifyPayment))

	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := middleware.CORS(cfg.CORS.AllowOrigins)(mux)

	server := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: otelhttp.NewHandler(handler, serviceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting canteen service", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
