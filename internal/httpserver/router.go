package httpserver

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"storefront/internal/domain"
	"storefront/internal/payment"
	orderservice "storefront/internal/service/order"
	productservice "storefront/internal/service/product"
	userservice "storefront/internal/service/user"
	"storefront/internal/validation"
)

// UserService is the account surface the handlers need.
type UserService interface {
	Register(ctx context.Context, in userservice.RegisterInput) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	Details(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, actorID, targetID string, in userservice.UpdateInput) (*domain.User, error)
	ForgotPassword(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

// ProductService is the catalog surface the handlers need.
type ProductService interface {
	List(ctx context.Context) ([]domain.Product, error)
	ListByCategory(ctx context.Context, category string) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, in productservice.CreateInput) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

// PaymentService opens gateway sessions and verifies callbacks.
type PaymentService interface {
	CreateSession(ctx context.Context, amountMinor int64) (*domain.PaymentSession, error)
	HandleCallback(ctx context.Context, cb payment.Callback) (payment.Result, error)
}

// OrderService places orders and lists history.
type OrderService interface {
	PlaceOrder(ctx context.Context, in orderservice.PlaceInput) (*orderservice.Result, error)
	History(ctx context.Context, userID string) ([]domain.Order, error)
}

// Deps groups the services the router dispatches to.
type Deps struct {
	Users    UserService
	Products ProductService
	Payments PaymentService
	Orders   OrderService
}

// Options tunes router behaviour that does not come from a service.
type Options struct {
	// CORSOrigins lists allowed browser origins; empty allows any origin.
	CORSOrigins []string
	// ReadyChecks are optional stores reported by /readyz next to the primary db.
	ReadyChecks map[string]Pinger
}

func (d Deps) validate() error {
	switch {
	case d.Users == nil:
		return errors.New("httpserver: user service is required")
	case d.Products == nil:
		return errors.New("httpserver: product service is required")
	case d.Payments == nil:
		return errors.New("httpserver: payment service is required")
	case d.Orders == nil:
		return errors.New("httpserver: order service is required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db Pinger, deps Deps, opts Options) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validation.Configure(v)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(corsConfig(opts.CORSOrigins)))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db, opts.ReadyChecks))

	h := &handlers{deps: deps, logger: logger}
	auth := authMiddleware(deps.Users, logger)

	api := router.Group("/api")

	users := api.Group("/user")
	users.POST("", h.register)
	users.POST("/login", h.login)
	users.GET("/details", auth, h.details)
	users.PUT("/:id", auth, h.updateUser)
	users.POST("/forgot-password", h.forgotPassword)
	users.POST("/verify-otp", h.verifyOTP)
	users.POST("/reset-password", h.resetPassword)

	products := api.Group("/product")
	products.GET("/allproducts", h.listProducts)
	products.GET("/item/:id", h.getProduct)
	products.DELETE("/item/:id", auth, h.deleteProduct)
	products.POST("/uploads", auth, h.createProduct)
	products.GET("/:category", h.listCategory)

	payments := api.Group("/payment")
	payments.POST("/session", h.createPaymentSession)
	payments.POST("/razorpay", h.createPaymentSession)
	payments.POST("/verify", h.verifyPayment)

	orders := api.Group("/order")
	orders.POST("", auth, h.placeOrder)
	orders.GET("/history", auth, h.orderHistory)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", authHeader, idempotencyHeader},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

type handlers struct {
	deps   Deps
	logger *log.Logger
}
