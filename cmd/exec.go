package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	pubnub "github.com/pubnub/go"

	"tickethub/config"
	"tickethub/internal/feed"
	"tickethub/internal/handlers"
	"tickethub/internal/inventory"
	"tickethub/internal/payments"
	"tickethub/internal/services"
	"tickethub/internal/store"
	_ "tickethub/migrations"
	"tickethub/monitoring"
	"tickethub/security"
	"tickethub/utils"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	// Initialize PubNub (tenant live-monitoring feed)
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	pn := pubnub.NewPubNub(pnConfig)
	publisher := feed.NewPubNubPublisher(pn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Payment provider with its async notification subscription
	provider, err := payments.NewProvider(ctx, cfg, redisClient)
	if err != nil {
		return err
	}
	defer provider.Close(ctx)

	// Stores
	tickets := store.NewTicketStore(app)
	orders := store.NewOrderStore(app)
	events := store.NewEventStore(app)
	coupons := store.NewCouponStore(app)
	accounts := store.NewAccountStore(app)
	reservations := inventory.New(redisClient)

	// Services
	accessService := services.NewAccessService(tickets, orders, publisher)
	orderService := services.NewOrderService(
		events, orders, tickets, coupons, accounts,
		reservations, provider, publisher, cfg.DefaultAccountCap,
	)
	settlementService := services.NewSettlementService(orders, tickets, reservations, publisher, services.SlogMailer{})

	// Provider events drive settlement the same way the webhooks do
	paymentEvents := make(chan *payments.Event, 16)
	provider.SetEventChannel(paymentEvents)
	go consumePaymentEvents(ctx, paymentEvents, settlementService)

	// Handlers
	accessHandler := handlers.NewAccessHandler(accessService)
	orderHandler := handlers.NewOrderHandler(orderService, coupons, orders)
	webhookHandler := handlers.NewWebhookHandler(settlementService, []byte(cfg.PaymentWebhookHMACKey))

	rateLimiter := security.NewRateLimiter(redisClient)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	if cfg.EnableMetrics {
		monitoring.Serve(cfg.MetricsPort)
	}

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		go seedInventoryCounters(app, reservations, tickets)

		// Access validation
		scan := e.Router.Group("/api/v1/access")
		scan.BindFunc(rateLimiter.Limit("scan", cfg.ScanRateLimit))
		scan.POST("/validate", accessHandler.Validate)

		// Checkout
		checkout := e.Router.Group("/api/v1/orders")
		checkout.BindFunc(rateLimiter.AntiBot())
		checkout.BindFunc(rateLimiter.Limit("checkout", cfg.CheckoutRateLimit))
		checkout.POST("", orderHandler.Create)

		// Payment webhooks (HMAC authenticated, no rate limit)
		e.Router.POST("/api/v1/webhooks/payment/succeeded", webhookHandler.Succeeded)
		e.Router.POST("/api/v1/webhooks/payment/failed", webhookHandler.Failed)
		e.Router.POST("/api/v1/webhooks/payment/refunded", webhookHandler.Refunded)

		// Advisory lookups
		e.Router.GET("/api/v1/coupons/{code}", orderHandler.CouponInfo)
		e.Router.GET("/api/v1/promocodes/{code}", orderHandler.PromocodeInfo)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		setupEventHooks(app, reservations, tickets)

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

// consumePaymentEvents routes async provider notifications into settlement.
func consumePaymentEvents(ctx context.Context, ch chan *payments.Event, settlement *services.SettlementService) {
	for {
		select {
		case ev := <-ch:
			var err error
			switch ev.Kind {
			case payments.EventSucceeded:
				err = settlement.Settle(ctx, ev.PaymentRef)
			case payments.EventFailed:
				err = settlement.MarkFailed(ctx, ev.PaymentRef)
			case payments.EventRefunded:
				err = settlement.Refund(ctx, ev.PaymentRef)
			}
			if err != nil {
				slog.Error("payment event handling failed", "payment_ref", ev.PaymentRef, "kind", ev.Kind, "error", err)
			}

		case <-ctx.Done():
			slog.Info("payment event consumer stopped")
			return
		}
	}
}

// seedInventoryCounters initializes the Redis admission counters from the
// durable ticket counts for every sellable event.
func seedInventoryCounters(app *pocketbase.PocketBase, reservations *inventory.Reservations, tickets *store.TicketStore) {
	ctx := context.Background()

	events := store.NewEventStore(app)
	records, err := app.FindRecordsByFilter("events", "status = 'LAUNCHED' || status = 'LIVE'", "", 0, 0)
	if err != nil {
		log.Printf("Error fetching sellable events: %v", err)
		return
	}

	for _, rec := range records {
		event, err := events.FindByID(ctx, rec.Id)
		if err != nil {
			continue
		}
		for _, tt := range event.TicketTypes {
			issued, err := tickets.CountIssued(ctx, event.ID, tt.Name)
			if err != nil {
				slog.Error("inventory seed: count failed", "event_id", event.ID, "type", tt.Name, "error", err)
				continue
			}
			if err := reservations.Seed(ctx, event.ID, tt.Name, issued); err != nil {
				slog.Error("inventory seed failed", "event_id", event.ID, "type", tt.Name, "error", err)
			}
		}
	}

	log.Printf("Seeded inventory counters for %d events", len(records))
}

// setupEventHooks keeps the Redis counters aligned when a promoter edits an
// event's price table.
func setupEventHooks(app *pocketbase.PocketBase, reservations *inventory.Reservations, tickets *store.TicketStore) {
	app.OnRecordUpdateRequest("events").BindFunc(func(e *core.RecordRequestEvent) error {
		if err := e.Next(); err != nil {
			return err
		}

		ctx := e.Request.Context()
		events := store.NewEventStore(app)

		event, err := events.FindByID(ctx, e.Record.Id)
		if err != nil {
			slog.Error("event hook: reload failed", "event_id", e.Record.Id, "error", err)
			return nil
		}

		for _, tt := range event.TicketTypes {
			issued, err := tickets.CountIssued(ctx, event.ID, tt.Name)
			if err != nil {
				slog.Error("event hook: count failed", "event_id", event.ID, "type", tt.Name, "error", err)
				continue
			}
			// force-set: the edit may have renamed or resized a type
			if err := reservations.Reset(ctx, event.ID, tt.Name, issued); err != nil {
				slog.Error("event hook: counter reset failed", "event_id", event.ID, "type", tt.Name, "error", err)
			}
		}
		return nil
	})
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
