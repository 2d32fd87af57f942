// Package di assembles the runtime dependency graph: storage, payment
// processors, services, and the HTTP router, all driven by config.Config.
package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/sante-plus/api/internal/domain"
	"github.com/sante-plus/api/internal/handlers"
	"github.com/sante-plus/api/internal/payments"
	"github.com/sante-plus/api/internal/platform/config"
	pfirestore "github.com/sante-plus/api/internal/platform/firestore"
	"github.com/sante-plus/api/internal/platform/idempotency"
	"github.com/sante-plus/api/internal/platform/identity"
	"github.com/sante-plus/api/internal/platform/jobs"
	"github.com/sante-plus/api/internal/platform/observability"
	"github.com/sante-plus/api/internal/repositories"
	fsrepo "github.com/sante-plus/api/internal/repositories/firestore"
	"github.com/sante-plus/api/internal/repositories/memory"
	"github.com/sante-plus/api/internal/services"
)

// Services bundles the service-layer contracts the HTTP handlers rely upon.
type Services struct {
	Carts    services.CartService
	Pricing  services.PricingService
	Checkout services.CheckoutService
	Payments services.PaymentService
	Orders   services.OrderService
}

// Container owns the wired runtime dependencies and the resources backing
// them. Close releases clients and stops background workers.
type Container struct {
	Config   config.Config
	Logger   *zap.Logger
	Handler  http.Handler
	Services Services

	closers     []namedCloser
	stopCleanup context.CancelFunc
}

type namedCloser struct {
	name  string
	close func(context.Context) error
}

// Option customises container construction.
type Option func(*containerOptions)

type containerOptions struct {
	version string
}

// WithVersion reports the build version through the health endpoint.
func WithVersion(version string) Option {
	return func(o *containerOptions) {
		o.version = version
	}
}

// NewContainer wires the full dependency graph. When cfg.Firestore.UseMemory
// is set the service runs on in-process storage with no external clients,
// which is the local development mode.
func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*Container, error) {
	if logger == nil {
		return nil, errors.New("di: logger is required")
	}

	var options containerOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	c := &Container{Config: cfg, Logger: logger}
	svcLog := serviceLogger()

	memReg := memory.NewRegistry()

	var (
		registry     repositories.Registry
		counters     repositories.CounterRepository
		cartRepo     repositories.CartRepository
		stateRepo    repositories.CheckoutStateRepository
		idemStore    idempotency.Store
		healthChecks []handlers.HealthOption
	)

	if cfg.Firestore.UseMemory {
		registry = memReg
		counters = memory.NewCounterRepository()
		cartRepo = memReg.Carts()
		stateRepo = memReg.CheckoutStates()
		idemStore = idempotency.NewMemoryStore()
	} else {
		provider := pfirestore.NewProvider(cfg.Firestore)
		client, err := provider.Client(ctx)
		if err != nil {
			return nil, fmt.Errorf("di: firestore client: %w", err)
		}
		c.addCloser("firestore", provider.Close)

		fsReg, err := fsrepo.NewRegistry(provider)
		if err != nil {
			return nil, c.closeOnError(ctx, fmt.Errorf("di: firestore registry: %w", err))
		}
		registry = fsReg
		counters = fsrepo.NewCounterRepository(provider)

		// Firestore blips degrade carts and checkout state to the in-memory
		// mirror instead of interrupting the session.
		cartRepo = repositories.NewFallbackCartRepository(fsReg.Carts(), memReg.Carts(), repositories.FallbackLogger(svcLog))
		stateRepo = repositories.NewFallbackStateRepository(fsReg.CheckoutStates(), memReg.CheckoutStates(), repositories.FallbackLogger(svcLog))

		idemStore = idempotency.NewFirestoreStore(client)

		healthChecks = append(healthChecks, handlers.WithReadinessCheck("firestore", func(ctx context.Context) error {
			_, err := provider.Client(ctx)
			return err
		}))
	}

	pricing, err := services.NewPricingService(services.PricingServiceDeps{
		Currency:   cfg.Checkout.Currency,
		CouponCode: cfg.Checkout.CouponCode,
		Rates:      shippingRates(cfg.Checkout),
	})
	if err != nil {
		return nil, c.closeOnError(ctx, fmt.Errorf("di: pricing service: %w", err))
	}

	carts, err := services.NewCartService(services.CartServiceDeps{
		Repository:      cartRepo,
		Pricer:          pricing,
		Clock:           time.Now,
		DefaultCurrency: cfg.Checkout.Currency,
		Logger:          svcLog,
	})
	if err != nil {
		return nil, c.closeOnError(ctx, fmt.Errorf("di: cart service: %w", err))
	}

	checkout, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Repository: stateRepo,
		Carts:      carts,
		Pricer:     pricing,
		Clock:      time.Now,
		Logger:     svcLog,
	})
	if err != nil {
		return nil, c.closeOnError(ctx, fmt.Errorf("di: checkout service: %w", err))
	}

	sequence, err := services.NewSequenceService(services.SequenceServiceDeps{
		Repository: counters,
		Clock:      time.Now,
	})
	if err != nil {
		return nil, c.closeOnError(ctx, fmt.Errorf("di: sequence service: %w", err))
	}

	manager, err := buildPaymentManager(cfg.Payments)
	if err != nil {
		return nil, c.closeOnError(ctx, fmt.Errorf("di: payment manager: %w", err))
	}

	publisher, psChecks, err := c.buildPublisher(ctx, cfg.PubSub)
	if err != nil {
		return nil, c.closeOnError(ctx, err)
	}
	healthChecks = append(healthChecks, psChecks...)

	payment, err := services.NewPaymentService(services.PaymentServiceDeps{
		Registry:        registry,
		Pricer:          pricing,
		Payments:        manager,
		Publisher:       publisher,
		OrderNumbers:    sequence,
		Clock:           time.Now,
		Logger:          svcLog,
		Carrier:         cfg.Checkout.Carrier,
		CarrierIntl:     cfg.Checkout.CarrierIntl,
		TrackingURLBase: cfg.Checkout.TrackingURLBase,
	})
	if err != nil {
		return nil, c.closeOnError(ctx, fmt.Errorf("di: payment service: %w", err))
	}

	orders, err := services.NewOrderService(services.OrderServiceDeps{
		Repository: registry.Orders(),
		Logger:     svcLog,
	})
	if err != nil {
		return nil, c.closeOnError(ctx, fmt.Errorf("di: order service: %w", err))
	}

	c.Services = Services{
		Carts:    carts,
		Pricing:  pricing,
		Checkout: checkout,
		Payments: payment,
		Orders:   orders,
	}

	paymentGuard := idempotency.Middleware(idemStore,
		idempotency.WithHeader(cfg.Idempotency.Header),
		idempotency.WithTTL(cfg.Idempotency.TTL),
		idempotency.WithMethods(http.MethodPost),
		idempotency.WithLogger(logger),
	)

	cleanupCtx, cancel := context.WithCancel(context.Background())
	c.stopCleanup = cancel
	go runIdempotencyCleanup(cleanupCtx, idemStore, cfg.Idempotency, logger)

	healthOpts := healthChecks
	if options.version != "" {
		healthOpts = append(healthOpts, handlers.WithVersion(options.version))
	}

	projectID := cfg.Firestore.ProjectID
	c.Handler = handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.TraceMiddleware(projectID),
			observability.InjectLoggerMiddleware(logger),
			observability.RequestLoggerMiddleware(projectID),
			observability.RecoveryMiddleware(logger),
		),
		handlers.WithIdentityMiddleware(identity.Middleware()),
		handlers.WithHealthHandlers(handlers.NewHealthHandlers(healthOpts...)),
		handlers.WithCartRoutes(handlers.NewCartHandlers(carts).Routes),
		handlers.WithCheckoutRoutes(handlers.NewCheckoutHandlers(checkout, pricing, payment,
			handlers.WithPaymentMiddleware(paymentGuard)).Routes),
		handlers.WithOrderRoutes(handlers.NewOrderHandlers(orders).Routes),
	)

	return c, nil
}

// Close stops background workers and releases clients in reverse wiring order.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if c.stopCleanup != nil {
		c.stopCleanup()
		c.stopCleanup = nil
	}
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		closer := c.closers[i]
		if err := closer.close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", closer.name, err))
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *Container) addCloser(name string, close func(context.Context) error) {
	if close == nil {
		return
	}
	c.closers = append(c.closers, namedCloser{name: name, close: close})
}

// closeOnError releases any resource acquired so far and returns err so the
// constructor never leaks clients on a partial build.
func (c *Container) closeOnError(ctx context.Context, err error) error {
	if closeErr := c.Close(ctx); closeErr != nil {
		return errors.Join(err, closeErr)
	}
	return err
}

// buildPublisher wires the Pub/Sub order event publisher. Publishing is
// disabled when no topic or project is configured; order placement then
// proceeds without notifications.
func (c *Container) buildPublisher(ctx context.Context, cfg config.PubSubConfig) (services.OrderEventPublisher, []handlers.HealthOption, error) {
	if cfg.Topic == "" || cfg.ProjectID == "" {
		return nil, nil, nil
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("di: pubsub client: %w", err)
	}
	c.addCloser("pubsub", func(context.Context) error { return client.Close() })

	topic := client.Topic(cfg.Topic)
	c.addCloser("pubsub topic", func(context.Context) error {
		topic.Stop()
		return nil
	})

	publisher, err := jobs.NewPubSubOrderPublisher(topic)
	if err != nil {
		return nil, nil, fmt.Errorf("di: pubsub publisher: %w", err)
	}

	check := handlers.WithReadinessCheck("pubsub", func(ctx context.Context) error {
		exists, err := topic.Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("topic %s does not exist", cfg.Topic)
		}
		return nil
	})
	return publisher, []handlers.HealthOption{check}, nil
}

// buildPaymentManager assembles one processor per supported payment method.
func buildPaymentManager(cfg config.PaymentConfig) (*payments.Manager, error) {
	newRef := func() string { return "PAY-" + ulid.Make().String() }

	// The bank challenge is simulated: the hold is logged and approved.
	confirmer := payments.ConfirmerFunc(func(ctx context.Context, challenge payments.Challenge) (bool, error) {
		observability.FromContext(ctx).Info("payment.card_challenge",
			zap.Int64("amount", challenge.Amount),
			zap.String("currency", challenge.Currency),
			zap.String("cardLast", challenge.CardLast),
		)
		return true, nil
	})
	card, err := payments.NewCardProcessor(newRef,
		payments.WithRequire3DS(cfg.Require3DS),
		payments.WithConfirmer(confirmer),
	)
	if err != nil {
		return nil, err
	}

	sender := payments.CodeSenderFunc(func(ctx context.Context, phoneNumber string) error {
		observability.FromContext(ctx).Info("payment.mobile_code_sent",
			zap.String("phone", observability.SanitizeUserID(phoneNumber)),
		)
		return nil
	})
	mobile, err := payments.NewMobileProcessor(newRef,
		payments.WithCodeSender(sender),
		payments.WithSettlementDelay(cfg.MobileCodeDelay),
	)
	if err != nil {
		return nil, err
	}

	insurance, err := payments.NewInsuranceProcessor(newRef)
	if err != nil {
		return nil, err
	}
	paypal, err := payments.NewPayPalProcessor(newRef)
	if err != nil {
		return nil, err
	}
	transfer, err := payments.NewTransferProcessor(newRef)
	if err != nil {
		return nil, err
	}
	cod, err := payments.NewCODProcessor(newRef)
	if err != nil {
		return nil, err
	}

	return payments.NewManager(card, mobile, insurance, paypal, transfer, cod)
}

func shippingRates(cfg config.CheckoutConfig) map[domain.ShippingMethod]services.ShippingRate {
	return map[domain.ShippingMethod]services.ShippingRate{
		domain.ShippingStandard: {Amount: cfg.ShippingStandard, DeliveryDays: cfg.ShippingStandardDays, Label: "Livraison standard"},
		domain.ShippingExpress:  {Amount: cfg.ShippingExpress, DeliveryDays: cfg.ShippingExpressDays, Label: "Livraison express"},
		domain.ShippingPickup:   {Amount: cfg.ShippingPickup, DeliveryDays: cfg.ShippingPickupDays, Label: "Retrait en pharmacie"},
	}
}

// serviceLogger adapts the request-scoped zap logger to the event callback
// shape the services expect.
func serviceLogger() func(context.Context, string, map[string]any) {
	return func(ctx context.Context, event string, fields map[string]any) {
		zfields := make([]zap.Field, 0, len(fields))
		for key, value := range fields {
			zfields = append(zfields, zap.Any(key, value))
		}
		observability.FromContext(ctx).Info(event, zfields...)
	}
}

// runIdempotencyCleanup periodically expires stored idempotent responses so
// replays are bounded by the configured TTL.
func runIdempotencyCleanup(ctx context.Context, store idempotency.Store, cfg config.IdempotencyConfig, logger *zap.Logger) {
	ticker := time.NewTicker(cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := store.CleanupExpired(ctx, now.UTC(), cfg.CleanupBatchSize)
			if err != nil {
				logger.Warn("idempotency cleanup failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Debug("idempotency records expired", zap.Int("removed", removed))
			}
		}
	}
}
