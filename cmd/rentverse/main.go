package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentverse/internal/app/commands"
	leaseapp "rentverse/internal/app/handlers/lease"
	listingapp "rentverse/internal/app/handlers/listings"
	policyapp "rentverse/internal/app/handlers/policy"
	"rentverse/internal/app/middleware"
	appoutbox "rentverse/internal/app/outbox"
	"rentverse/internal/app/policies"
	"rentverse/internal/app/queries"
	"rentverse/internal/app/uow"
	domainlease "rentverse/internal/domain/lease"
	domainpolicy "rentverse/internal/domain/policy"
	domainproperty "rentverse/internal/domain/property"
	"rentverse/internal/domain/shared/daterange"
	"rentverse/internal/domain/shared/money"
	"rentverse/internal/infra/agreements"
	"rentverse/internal/infra/broker/kafka"
	"rentverse/internal/infra/config"
	mongodb "rentverse/internal/infra/db/mongo"
	ginserver "rentverse/internal/infra/http/gin"
	"rentverse/internal/infra/obs"
	infraoutbox "rentverse/internal/infra/outbox"
	"rentverse/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.close()

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	ready    func() error
	closers  []func() error
}

func (a application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, error) {
	app := application{ready: func() error { return nil }}

	var (
		factory  uow.Factory
		lock     domainlease.CalendarLock
		outboxSt appoutbox.Outbox
		idStore  middleware.IdempotencyStore
	)

	switch cfg.StorageMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, fmt.Errorf("mongo connect: %w", err)
		}
		db := client.DB
		factory = mongodb.Factory{
			DB:             db,
			PropertiesRepo: mongodb.NewPropertyRepository(db),
			ApprovalsRepo:  mongodb.NewApprovalRepository(db),
			LeasesRepo:     mongodb.NewLeaseRepository(db),
			PolicyRepo:     mongodb.NewPolicyRepository(db),
		}
		lock = mongodb.NewCalendarLock(db)
		store := infraoutbox.NewStore(db)
		outboxSt = store
		idStore = mongodb.NewIdempotencyStore(db, cfg.IdempotencyTTL)
		app.ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}
		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return application{}, fmt.Errorf("kafka connect: %w", err)
			}
			app.closers = append(app.closers, producer.Close)
			worker := &infraoutbox.Worker{
				Store:       store,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
			}
			go func() {
				if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("outbox worker stopped", "error", err)
				}
			}()
		}
	default:
		properties := memory.NewPropertyRepository()
		factory = memory.Factory{
			PropertiesRepo: properties,
			ApprovalsRepo:  memory.NewApprovalRepository(properties),
			LeasesRepo:     memory.NewLeaseRepository(),
			PolicyRepo:     memory.NewPolicyRepository(),
		}
		lock = memory.NewCalendarLock()
		outboxSt = memory.NewOutbox()
		idStore = memory.NewIdempotencyStore()
		if len(cfg.KafkaBrokers) > 0 {
			logger.Warn("kafka brokers configured but ignored in memory storage mode")
		}
	}

	lock = timeboxedLock{inner: lock, timeout: cfg.CalendarLockTimeout}

	var agreementPort policies.AgreementPort = agreements.Noop{}
	if cfg.AgreementServiceURL != "" {
		agreementPort = &agreements.HTTPGenerator{
			Client:   &http.Client{Timeout: cfg.AgreementTimeout},
			Endpoint: cfg.AgreementServiceURL,
		}
	}

	encoder := appoutbox.JSONEventEncoder{}
	base := commands.NewInMemoryBus()

	requestLease := &leaseapp.RequestLeaseHandler{
		UoWFactory: factory,
		Lock:       lock,
		Agreements: agreementPort,
		Outbox:     outboxSt,
		Encoder:    encoder,
		Logger:     logger,
	}
	commands.RegisterHandler(base, leaseapp.RequestLeaseCommand{}.Key(), requestLease)

	decideLease := &leaseapp.DecideLeaseHandler{
		UoWFactory: factory,
		Lock:       lock,
		Outbox:     outboxSt,
		Encoder:    encoder,
	}
	commands.RegisterHandler(base, leaseapp.ApproveLeaseCommand{}.Key(),
		commands.HandlerFunc[leaseapp.ApproveLeaseCommand, *leaseapp.DecideLeaseResult](decideLease.HandleApprove))
	commands.RegisterHandler(base, leaseapp.RejectLeaseCommand{}.Key(),
		commands.HandlerFunc[leaseapp.RejectLeaseCommand, *leaseapp.DecideLeaseResult](decideLease.HandleReject))

	submitListing := &listingapp.SubmitListingHandler{UoWFactory: factory, Outbox: outboxSt, Encoder: encoder}
	commands.RegisterHandler(base, listingapp.SubmitListingCommand{}.Key(), submitListing)

	reviewListing := &listingapp.ReviewListingHandler{UoWFactory: factory, Outbox: outboxSt, Encoder: encoder}
	commands.RegisterHandler(base, listingapp.ApproveListingCommand{}.Key(),
		commands.HandlerFunc[listingapp.ApproveListingCommand, *listingapp.ReviewListingResult](reviewListing.HandleApprove))
	commands.RegisterHandler(base, listingapp.RejectListingCommand{}.Key(),
		commands.HandlerFunc[listingapp.RejectListingCommand, *listingapp.ReviewListingResult](reviewListing.HandleReject))

	manageListing := &listingapp.ManageListingHandler{UoWFactory: factory, Outbox: outboxSt, Encoder: encoder}
	commands.RegisterHandler(base, listingapp.SetAvailabilityCommand{}.Key(),
		commands.HandlerFunc[listingapp.SetAvailabilityCommand, *listingapp.ManageListingResult](manageListing.HandleSetAvailability))
	commands.RegisterHandler(base, listingapp.ArchiveListingCommand{}.Key(),
		commands.HandlerFunc[listingapp.ArchiveListingCommand, *listingapp.ManageListingResult](manageListing.HandleArchive))

	repairApprovals := &listingapp.RepairApprovalsHandler{UoWFactory: factory, Outbox: outboxSt, Encoder: encoder, Logger: logger}
	commands.RegisterHandler(base, listingapp.RepairApprovalsCommand{}.Key(), repairApprovals)

	togglePolicy := &policyapp.ToggleHandler{UoWFactory: factory, Outbox: outboxSt, Encoder: encoder}
	commands.RegisterHandler(base, policyapp.TogglePolicyCommand{}.Key(), togglePolicy)

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, leaseapp.BookedPeriodsQuery{}.Key(), &leaseapp.BookedPeriodsHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, leaseapp.MyLeasesQuery{}.Key(), &leaseapp.MyLeasesHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, leaseapp.PropertyLeasesQuery{}.Key(), &leaseapp.PropertyLeasesHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, listingapp.PendingListingsQuery{}.Key(), &listingapp.PendingListingsHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, policyapp.GetPolicyQuery{}.Key(), &policyapp.GetHandler{UoWFactory: factory})

	// Lease commands manage their own unit of work so the calendar lock
	// encloses the commit; wrapping them in the transaction middleware would
	// release the lock before the write became visible.
	idempotency := middleware.Idempotency(idStore, nil, replaySentinels...)
	leaseCommands := middleware.ChainCommands(
		base,
		middleware.Validation(selfValidator{}),
		idempotency,
		middleware.OutboxFlush(outboxSt),
	)
	adminCommands := middleware.ChainCommands(
		base,
		middleware.Validation(selfValidator{}),
		idempotency,
		middleware.Transaction(factory, nil),
		middleware.OutboxFlush(outboxSt),
	)
	queryPipeline := middleware.ChainQueries(queryBus)

	app.handlers = ginserver.Handlers{
		Lease:          ginserver.LeaseHandler{Commands: leaseCommands, Queries: queryPipeline},
		Listing:        ginserver.ListingHandler{Commands: adminCommands},
		Admin:          ginserver.AdminHandler{Commands: adminCommands, Queries: queryPipeline},
		AuthMiddleware: ginserver.GatewayIdentity(),
	}
	return app, nil
}

// replaySentinels are the domain failures an idempotent retry must replay
// with their errors.Is identity intact, so the HTTP status mapping holds.
var replaySentinels = []error{
	commands.ErrInvalidCommand,
	daterange.ErrInvalidRange,
	domainlease.ErrStartDateInPast,
	domainlease.ErrSelfLease,
	domainlease.ErrPropertyUnavailable,
	domainlease.ErrDateConflict,
	domainlease.ErrNotFound,
	domainlease.ErrAccessDenied,
	domainlease.ErrInvalidState,
	domainlease.ErrReasonRequired,
	domainlease.ErrLockTimeout,
	domainproperty.ErrNotFound,
	domainproperty.ErrAccessDenied,
	domainproperty.ErrInvalidState,
	domainproperty.ErrApprovalNotFound,
	domainproperty.ErrApprovalAlreadyFinal,
	domainproperty.ErrReviewNotesRequired,
	domainproperty.ErrStatusMismatch,
	domainpolicy.ErrNotFound,
	money.ErrInvalidCurrency,
	money.ErrNegativeAmount,
}

// timeboxedLock bounds every acquisition attempt with the configured
// deadline so a stuck calendar surfaces as a retryable timeout.
type timeboxedLock struct {
	inner   domainlease.CalendarLock
	timeout time.Duration
}

func (l timeboxedLock) Acquire(ctx context.Context, propertyID domainproperty.PropertyID) (func(), error) {
	if l.timeout <= 0 {
		return l.inner.Acquire(ctx, propertyID)
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	release, err := l.inner.Acquire(ctx, propertyID)
	if err != nil {
		cancel()
		return nil, err
	}
	return func() {
		release()
		cancel()
	}, nil
}

// selfValidator lets commands that carry a Validate method reject bad input
// before any middleware does work.
type selfValidator struct{}

func (selfValidator) Validate(ctx context.Context, message any) error {
	if v, ok := message.(interface{ Validate() error }); ok {
		return v.Validate()
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
