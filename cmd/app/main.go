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

	"dispatch/cmd"
	httpin "dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/out/memory"
	"dispatch/internal/adapters/out/notify"
	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/postgres/catalogrepo"

	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := cmd.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("open %s backend: %v", cfg.StorageBackend, err)
	}

	transports, cleanup, err := openTransports(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("open notification transports: %v", err)
	}
	defer cleanup()

	dispatcher := notify.NewAsyncDispatcher(transports.Notifier, cfg.NotifyQueueSize, cfg.NotifyWorkers, cfg.NotifyTimeout, logger)
	transports.Notifier = dispatcher

	app, err := cmd.NewCompositionRoot(cfg, backend, transports, time.Now, logger)
	if err != nil {
		log.Fatalf("compose application: %v", err)
	}

	jobManager := app.CreateJobManager()
	if err = jobManager.StartAll(); err != nil {
		log.Fatalf("start jobs: %v", err)
	}

	e, err := httpin.NewEcho(ctx, app.CreateServer())
	if err != nil {
		log.Fatalf("http server: %v", err)
	}
	go func() {
		if startErr := e.Start(fmt.Sprintf("0.0.0.0:%d", cfg.HTTPPort)); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
			log.Fatalf("http server: %v", startErr)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err = e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	jobManager.StopAll()
	if err = dispatcher.Close(shutdownCtx); err != nil {
		logger.Error("notification queue not drained", "error", err, "dropped", dispatcher.Dropped())
	}
}

func openBackend(ctx context.Context, cfg cmd.Config) (cmd.Backend, error) {
	if cfg.StorageBackend == cmd.BackendMemory {
		store := memory.NewStore(time.Now)
		if cfg.SeedFile != "" {
			if err := cmd.LoadSeed(ctx, cfg.SeedFile, store); err != nil {
				return cmd.Backend{}, err
			}
		}
		return cmd.NewMemoryBackend(store), nil
	}

	db, err := gorm.Open(postgresdriver.Open(cfg.DB.DSN()), &gorm.Config{})
	if err != nil {
		return cmd.Backend{}, err
	}
	if err = postgres.Migrate(db.WithContext(ctx)); err != nil {
		return cmd.Backend{}, err
	}
	if cfg.SeedFile != "" {
		if err = cmd.LoadSeed(ctx, cfg.SeedFile, catalogrepo.NewGormCatalog(db)); err != nil {
			return cmd.Backend{}, err
		}
	}
	return cmd.NewPostgresBackend(db, time.Now), nil
}

// openTransports connects the configured notification transports. Without
// RabbitMQ or MongoDB notifications only go to the log.
func openTransports(ctx context.Context, cfg cmd.Config, logger *slog.Logger) (cmd.Notifications, func(), error) {
	sessions := notify.NewSessionRouter()
	result := cmd.Notifications{Sessions: sessions}
	var fanout notify.Fanout
	var closers []func()

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.RabbitURL != "" {
		conn, err := amqp.Dial(cfg.RabbitURL)
		if err != nil {
			return result, cleanup, fmt.Errorf("dial rabbitmq: %w", err)
		}
		closers = append(closers, func() { _ = conn.Close() })

		ch, err := conn.Channel()
		if err != nil {
			return result, cleanup, fmt.Errorf("open channel: %w", err)
		}
		closers = append(closers, func() { _ = ch.Close() })

		if err = notify.DeclareExchange(ch, cfg.RabbitExchange); err != nil {
			return result, cleanup, err
		}
		fanout = append(fanout, notify.NewRabbitPublisher(ch, cfg.RabbitExchange, sessions, time.Now))
	}

	if cfg.MongoURI != "" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return result, cleanup, fmt.Errorf("connect mongo: %w", err)
		}
		closers = append(closers, func() { _ = client.Disconnect(context.Background()) })

		col := client.Database(cfg.MongoDB).Collection(notify.InboxCollectionName)
		if err = notify.EnsureIndexes(ctx, col); err != nil {
			return result, cleanup, err
		}
		inbox := notify.NewMongoInbox(col, time.Now)
		fanout = append(fanout, inbox)
		result.Inbox = inbox
	}

	if len(fanout) == 0 {
		logger.Warn("no notification transport configured, logging notifications only")
		fanout = append(fanout, notify.NewLogNotifier(logger))
	}

	result.Notifier = fanout
	return result, cleanup, nil
}
