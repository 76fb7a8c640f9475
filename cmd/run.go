package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"betledger/application"
	"betledger/config"
	"betledger/database"
	"betledger/domain/eventid"
	"betledger/domain/interfaces"
	"betledger/domain/services"
	"betledger/infrastructure"
	"betledger/infrastructure/attestation"
	"betledger/infrastructure/observability"
	"betledger/repository"
	"betledger/server"

	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// closer is anything released at shutdown
type closer struct {
	name  string
	close func() error
}

// stack is the wired ledger and everything it holds open
type stack struct {
	ledger  *application.Ledger
	metrics *observability.MetricsProvider
	closers []closer
}

func (s *stack) onClose(name string, fn func() error) {
	s.closers = append(s.closers, closer{name: name, close: fn})
}

// Close releases resources in reverse order of acquisition
func (s *stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		c := s.closers[i]
		if err := c.close(); err != nil {
			log.WithError(err).WithField("resource", c.name).Warn("Error during shutdown")
		}
	}
}

// Run initializes the ledger and serves the HTTP API until ctx is cancelled
func Run(ctx context.Context) error {
	cfg := config.Get()
	ConfigureLogging(cfg)
	log.WithField("environment", cfg.Environment).Info("Starting betting ledger...")

	// Take the writer lease first so a second instance never touches storage
	if cfg.RedisAddr != "" {
		rdb, err := infrastructure.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer rdb.Close()

		lease := infrastructure.NewWriterLease(rdb, cfg.WriterLeaseTTL)
		leaseCtx, err := lease.Acquire(ctx)
		if err != nil {
			if errors.Is(err, infrastructure.ErrLeaseHeld) {
				return fmt.Errorf("another ledger instance is running: %w", err)
			}
			return err
		}
		defer lease.Release()
		ctx = leaseCtx
	}

	s, err := buildStack(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	auth := server.NewAuthenticator(cfg.JWTSecret)
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		metricsHandler = s.metrics.Handler()
	}
	router := server.NewRouter(server.NewLedgerHandler(s.ledger), auth, metricsHandler)
	srv := server.NewServer(cfg.HTTPAddr, router)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down ledger...")
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server did not shut down cleanly")
	}
	if err := s.metrics.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Failed to shut down metrics provider")
	}

	log.Info("Shutdown completed")
	return nil
}

// ImportFixtures registers the events of a fixture file and prints a report.
// It fails when any fixture was rejected.
func ImportFixtures(ctx context.Context, path string, out io.Writer) error {
	cfg := config.Get()
	ConfigureLogging(cfg)

	s, err := buildStack(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := application.NewFixtureImporter(s.ledger).ImportFile(ctx, path)
	if err != nil {
		return err
	}

	for _, o := range report.Created {
		fmt.Fprintf(out, "created    %s  %s\n", o.UID.Hex(), o.Title)
	}
	for _, o := range report.Duplicates {
		fmt.Fprintf(out, "duplicate  %s  %s\n", o.UID.Hex(), o.Title)
	}
	for _, o := range report.Rejected {
		fmt.Fprintf(out, "rejected   %s: %v\n", o.Title, o.Err)
	}
	fmt.Fprintf(out, "%d created, %d duplicate, %d rejected\n",
		len(report.Created), len(report.Duplicates), len(report.Rejected))

	if len(report.Rejected) > 0 {
		return fmt.Errorf("%d fixtures rejected", len(report.Rejected))
	}
	return nil
}

// PrintUID prints the identifier of an event from its sport, gender, start
// time and title
func PrintUID(args []string, out io.Writer) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: betledger uid <sportId> <genderId> <startTime> <title>")
	}
	sportID, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		return fmt.Errorf("invalid sport id %q: %w", args[0], err)
	}
	genderID, err := strconv.ParseUint(args[1], 10, 8)
	if err != nil {
		return fmt.Errorf("invalid gender id %q: %w", args[1], err)
	}
	startTime, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid start time %q: %w", args[2], err)
	}

	uid, err := eventid.Derive(uint8(sportID), uint8(genderID), startTime, args[3])
	if err != nil {
		return err
	}
	fmt.Fprintln(out, uid.Hex())
	return nil
}

func buildStack(ctx context.Context, cfg *config.Config) (*stack, error) {
	s := &stack{}
	ok := false
	defer func() {
		if !ok {
			s.Close()
		}
	}()

	dispatcher, err := buildDispatcher(ctx, cfg, s)
	if err != nil {
		return nil, err
	}

	var uowFactory *infrastructure.UnitOfWorkFactory
	switch cfg.StorageBackend {
	case config.StoragePostgres:
		log.Info("Connecting to database...")
		db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		s.onClose("database", func() error { db.Close(); return nil })

		uowFactory = infrastructure.NewPostgresUnitOfWorkFactory(db, dispatcher)
		seq, err := repository.CurrentSequence(ctx, db)
		if err != nil {
			return nil, err
		}
		log.WithField("sequence", seq).Info("Database connection established")
	case config.StorageMemory:
		log.Warn("Using in-memory storage, state is lost on exit")
		uowFactory = infrastructure.NewMemoryUnitOfWorkFactory(dispatcher)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	verifier, err := buildVerifier(cfg)
	if err != nil {
		return nil, err
	}

	policy, err := services.NewStakingPolicy(cfg.StakingPolicy)
	if err != nil {
		return nil, err
	}

	s.metrics = observability.NewMetricsProvider(cfg.MetricsEnabled)
	if err := s.metrics.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	s.ledger = application.NewLedger(uowFactory, policy, services.SystemClock{}, verifier, s.metrics)
	ok = true
	return s, nil
}

func buildDispatcher(ctx context.Context, cfg *config.Config, s *stack) (*infrastructure.Dispatcher, error) {
	dispatcher := infrastructure.NewDispatcher()

	if cfg.NATSServers != "" {
		client := infrastructure.NewNATSClient(cfg.NATSServers)
		if err := client.Connect(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		s.onClose("nats", client.Close)

		mapper := infrastructure.NewEventSubjectMapper()
		if err := infrastructure.EnsureDomainEventStream(client, mapper); err != nil {
			return nil, err
		}
		dispatcher.AddSink(infrastructure.NewNATSEventPublisher(client, mapper))
	}

	if len(cfg.KafkaBrokers) > 0 {
		publisher := infrastructure.NewKafkaEventPublisher(infrastructure.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic))
		s.onClose("kafka", publisher.Close)
		dispatcher.AddSink(publisher)
		log.WithField("topic", cfg.KafkaTopic).Info("Publishing ledger events to Kafka")
	}

	if cfg.DiscordWebhookID != "" {
		notifier, err := infrastructure.NewDiscordNotifier(cfg.DiscordWebhookID, cfg.DiscordWebhookToken)
		if err != nil {
			return nil, err
		}
		dispatcher.AddSink(notifier)
		log.Info("Announcing finalized matches on Discord")
	}

	return dispatcher, nil
}

func buildVerifier(cfg *config.Config) (interfaces.AttestationVerifier, error) {
	switch cfg.AttestationMode {
	case config.AttestationMerkle:
		if cfg.AttestationRootsFile == "" {
			log.Warn("No attestation roots configured, attested results will be rejected")
			return attestation.NewMerkleVerifier(nil), nil
		}
		return attestation.LoadMerkleVerifier(cfg.AttestationRootsFile)
	case config.AttestationSignature:
		signers, err := attestation.ParseSigners(cfg.AttestationSigners)
		if err != nil {
			return nil, err
		}
		return attestation.NewSignatureVerifier(signers), nil
	default:
		return nil, fmt.Errorf("unknown attestation mode %q", cfg.AttestationMode)
	}
}
