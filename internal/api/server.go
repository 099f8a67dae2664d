package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/freshmart/grocery-api/internal/auth"
	"github.com/freshmart/grocery-api/internal/cache"
	"github.com/freshmart/grocery-api/internal/clients"
	"github.com/freshmart/grocery-api/internal/config"
	"github.com/freshmart/grocery-api/internal/database"
	"github.com/freshmart/grocery-api/internal/handlers"
	"github.com/freshmart/grocery-api/internal/models"
	"github.com/freshmart/grocery-api/internal/outbox"
	"github.com/freshmart/grocery-api/internal/repository"
	"github.com/freshmart/grocery-api/internal/service"
	"github.com/freshmart/grocery-api/pkg/kafka"
	"github.com/freshmart/grocery-api/pkg/logger"
	"github.com/freshmart/grocery-api/pkg/middleware"
)

// Server owns the HTTP surface and the background machinery behind it: the
// outbox processor, the Kafka consumer and the rate limiter.
type Server struct {
	config     *config.Config
	logger     logger.Logger
	router     *mux.Router
	httpServer *http.Server
	db         *database.Database
	tokens     *auth.TokenManager

	staffRepo  *repository.StaffRepository
	outboxRepo *repository.OutboxRepository

	customerService  *service.CustomerService
	orderService     *service.OrderService
	deliveryService  *service.DeliveryService
	inventoryService *service.InventoryService

	outboxProcessor *outbox.Processor
	kafkaProducer   *kafka.Producer
	kafkaConsumer   *kafka.Consumer
	rateLimiter     *middleware.RateLimiter
}

// NewServer wires repositories, services and background processors, runs
// migrations and starts the asynchronous pieces. It returns an error rather
// than panicking so main can decide how to fail.
func NewServer(cfg *config.Config, log logger.Logger) (*Server, error) {
	db, err := database.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := db.RunMigrations(); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	orderRepo := repository.NewOrderRepository(db, log)
	productRepo := repository.NewProductRepository(db, log)
	customerRepo := repository.NewCustomerRepository(db, log)
	staffRepo := repository.NewStaffRepository(db, log)
	deliveryRepo := repository.NewDeliveryRepository(db, log)
	purchaseOrderRepo := repository.NewPurchaseOrderRepository(db, log)
	loyaltyRepo := repository.NewLoyaltyRepository(db, log)
	outboxRepo := repository.NewOutboxRepository(db, log)
	txManager := repository.NewTxManager(db, log)

	tokens := auth.NewTokenManager(cfg.Auth.Secret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)

	var productCache service.ProductCache
	if cfg.Redis.Addr != "" {
		productCache = cache.NewProductCache(cfg.Redis.Addr, log)
	}

	var paymentGateway service.PaymentGateway
	if cfg.Payments.GatewayURL != "" {
		paymentGateway = &paymentGatewayAdapter{client: clients.NewPaymentClient(cfg.Payments.GatewayURL, log)}
	}

	deliveryService := service.NewDeliveryService(deliveryRepo, orderRepo, staffRepo, outboxRepo, txManager, log)
	orderService := service.NewOrderService(orderRepo, productRepo, customerRepo, deliveryRepo, outboxRepo, deliveryService, paymentGateway, txManager, log)
	inventoryService := service.NewInventoryService(productRepo, purchaseOrderRepo, productCache, txManager, log)
	customerService := service.NewCustomerService(customerRepo, loyaltyRepo, tokens, log)

	kafkaProducer, err := kafka.NewProducer(cfg.Kafka.Brokers, log)
	if err != nil {
		return nil, fmt.Errorf("create Kafka producer: %w", err)
	}

	outboxProcessor := outbox.NewProcessor(outboxRepo, outbox.Config{
		PollInterval: 2 * time.Second,
		BatchSize:    20,
		MaxRetries:   5,
	}, log)

	kafkaHandler := outbox.NewKafkaHandler(kafkaProducer, cfg.Kafka.OrdersTopic, log)
	for _, eventType := range []string{
		models.EventOrderPlaced,
		models.EventOrderCancelled,
		models.EventOrderStatusChanged,
		models.EventDeliveryAssigned,
	} {
		outboxProcessor.RegisterHandler(eventType, kafkaHandler)
	}

	kafkaConsumer, err := kafka.NewConsumer(&kafka.ConsumerConfig{
		Brokers:       cfg.Kafka.Brokers,
		Topics:        []string{cfg.Kafka.OrdersTopic},
		ConsumerGroup: cfg.Kafka.ConsumerGroup,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("create Kafka consumer: %w", err)
	}
	kafkaConsumer.RegisterHandler(cfg.Kafka.OrdersTopic, handlers.NewLoyaltyEventsHandler(loyaltyRepo, log))

	rateLimiter := middleware.NewRateLimiter(&middleware.RateLimiterConfig{
		GlobalCapacity:    200,
		GlobalRefillRate:  100,
		IPCapacity:        20,
		IPRefillRate:      10,
		TrustForwardedFor: cfg.Env != "production",
	}, log)

	router := mux.NewRouter()
	server := &Server{
		config: cfg,
		logger: log,
		router: router,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		db:               db,
		tokens:           tokens,
		staffRepo:        staffRepo,
		outboxRepo:       outboxRepo,
		customerService:  customerService,
		orderService:     orderService,
		deliveryService:  deliveryService,
		inventoryService: inventoryService,
		outboxProcessor:  outboxProcessor,
		kafkaProducer:    kafkaProducer,
		kafkaConsumer:    kafkaConsumer,
		rateLimiter:      rateLimiter,
	}

	server.setupRoutes()

	outboxProcessor.Start(context.Background())
	if err := kafkaConsumer.Start(); err != nil {
		// The API can serve without the loyalty consumer; points accrue
		// once it reconnects.
		log.Error("Failed to start Kafka consumer", "error", err)
	}

	return server, nil
}

// setupRoutes configures all the routes for the API.
func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.rateLimiter.Middleware)

	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", s.healthCheckHandler).Methods(http.MethodGet)

	// Public catalog and account endpoints.
	api.HandleFunc("/auth/register", s.registerHandler).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.loginHandler).Methods(http.MethodPost)
	api.HandleFunc("/products", s.listProductsHandler).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", s.getProductHandler).Methods(http.MethodGet)

	// Customer endpoints.
	customer := api.PathPrefix("/customer").Subrouter()
	customer.Use(s.requireAuth(auth.RoleCustomer))
	customer.HandleFunc("/me", s.profileHandler).Methods(http.MethodGet)
	customer.HandleFunc("/loyalty", s.loyaltyHandler).Methods(http.MethodGet)
	customer.HandleFunc("/orders", s.placeOrderHandler).Methods(http.MethodPost)
	customer.HandleFunc("/orders", s.listOrdersHandler).Methods(http.MethodGet)
	customer.HandleFunc("/orders/{id}", s.getOrderHandler).Methods(http.MethodGet)
	customer.HandleFunc("/orders/{id}", s.updateOrderHandler).Methods(http.MethodPut)
	customer.HandleFunc("/orders/{id}/cancel", s.cancelOrderHandler).Methods(http.MethodPut)

	// Courier endpoints.
	delivery := api.PathPrefix("/delivery").Subrouter()
	delivery.Use(s.requireAuth(auth.RoleDelivery, auth.RoleAdmin))
	delivery.HandleFunc("/deliveries", s.myDeliveriesHandler).Methods(http.MethodGet)
	delivery.HandleFunc("/deliveries/{id}/status", s.updateDeliveryStatusHandler).Methods(http.MethodPut)

	// Back-office endpoints.
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(s.requireAuth(auth.RoleAdmin))
	admin.HandleFunc("/products", s.createProductHandler).Methods(http.MethodPost)
	admin.HandleFunc("/products/{id}", s.updateProductHandler).Methods(http.MethodPut)
	admin.HandleFunc("/products/{id}", s.deleteProductHandler).Methods(http.MethodDelete)
	admin.HandleFunc("/products/low-stock", s.lowStockHandler).Methods(http.MethodGet)
	admin.HandleFunc("/purchase-orders", s.listPurchaseOrdersHandler).Methods(http.MethodGet)
	admin.HandleFunc("/purchase-orders/generate", s.generatePurchaseOrdersHandler).Methods(http.MethodPost)
	admin.HandleFunc("/purchase-orders/{id}/receive", s.receivePurchaseOrderHandler).Methods(http.MethodPost)
	admin.HandleFunc("/staff", s.createStaffHandler).Methods(http.MethodPost)
	admin.HandleFunc("/staff", s.listStaffHandler).Methods(http.MethodGet)
	admin.HandleFunc("/staff/{id}/token", s.issueStaffTokenHandler).Methods(http.MethodPost)
	admin.HandleFunc("/outbox/failed", s.getFailedMessagesHandler).Methods(http.MethodGet)
	admin.HandleFunc("/outbox/{id}/retry", s.retryFailedMessageHandler).Methods(http.MethodPost)
}

// healthCheckHandler reports liveness.
func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data: map[string]string{
			"status":    "ok",
			"version":   "1.0.0",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("Server listening", "addr", s.httpServer.Addr, "env", s.config.Env)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the background processors, closes broker and database
// connections, then drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.outboxProcessor.Stop()
	s.rateLimiter.Stop()

	if err := s.kafkaConsumer.Stop(); err != nil {
		s.logger.Error("Error stopping Kafka consumer", "error", err)
	}
	if err := s.kafkaProducer.Close(); err != nil {
		s.logger.Error("Error closing Kafka producer", "error", err)
	}
	if err := s.db.Close(); err != nil {
		s.logger.Error("Error closing database connection", "error", err)
	}

	return s.httpServer.Shutdown(ctx)
}

// paymentGatewayAdapter bridges the HTTP gateway client to the service
// layer's gateway interface.
type paymentGatewayAdapter struct {
	client *clients.PaymentClient
}

func (a *paymentGatewayAdapter) CreatePaymentIntent(ctx context.Context, req *service.PaymentIntentRequest) (*service.PaymentIntentResponse, error) {
	resp, err := a.client.CreatePaymentIntent(ctx, &clients.PaymentIntentRequest{
		OrderID:    req.OrderID,
		CustomerID: req.CustomerID,
		Amount:     req.Amount,
		Currency:   req.Currency,
	})
	if err != nil {
		return nil, err
	}
	return &service.PaymentIntentResponse{
		IntentID:   resp.IntentID,
		Status:     resp.Status,
		PaymentURL: resp.PaymentURL,
	}, nil
}
