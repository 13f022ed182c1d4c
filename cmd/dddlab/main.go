package main

import (
	"context"
	"database/sql"
	"time"

	bookApp "github.com/davicafu/dddlab/internal/bookstore/application"
	bookDomain "github.com/davicafu/dddlab/internal/bookstore/domain"
	bookHttp "github.com/davicafu/dddlab/internal/bookstore/infra/inbound/http"
	bookCache "github.com/davicafu/dddlab/internal/bookstore/infra/outbound/cache"
	custInmem "github.com/davicafu/dddlab/internal/bookstore/infra/outbound/db/inmemory"
	custMongo "github.com/davicafu/dddlab/internal/bookstore/infra/outbound/db/mongodb"
	custPostgres "github.com/davicafu/dddlab/internal/bookstore/infra/outbound/db/postgres"
	custSqlite "github.com/davicafu/dddlab/internal/bookstore/infra/outbound/db/sqlite"
	"github.com/davicafu/dddlab/internal/bookstore/infra/outbound/mailer"
	config "github.com/davicafu/dddlab/internal/config"
	sharedApp "github.com/davicafu/dddlab/internal/shared/application"
	sharedDomain "github.com/davicafu/dddlab/internal/shared/domain"
	chAudit "github.com/davicafu/dddlab/internal/shared/infra/analytics/clickhouse"
	"github.com/davicafu/dddlab/internal/shared/infra/events"
	"github.com/davicafu/dddlab/internal/shared/infra/messaging"
	outboxInmem "github.com/davicafu/dddlab/internal/shared/infra/persistence/inmemory"
	outboxMongo "github.com/davicafu/dddlab/internal/shared/infra/persistence/mongodb"
	outboxPostgres "github.com/davicafu/dddlab/internal/shared/infra/persistence/postgres"
	outboxSqlite "github.com/davicafu/dddlab/internal/shared/infra/persistence/sqlite"
	"github.com/davicafu/dddlab/internal/shared/infra/relayer"
	"github.com/davicafu/dddlab/pkg/logger"
	"github.com/davicafu/dddlab/pkg/retry"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	mongoOptions "go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"
	// _ "github.com/mattn/go-sqlite3" // requires gcc
	_ "modernc.org/sqlite"
)

// ---------------- Main ----------------
func main() {
	logger.Init()          // inicializa zap
	log := logger.Logger() // obtiene logger estructurado
	defer log.Sync()       // flush buffers al salir

	ctx := context.Background()
	cfg := config.LoadConfig()

	// ---------------- Topics ----------------
	// Validación fail-fast: una plantilla sin {EventName} tumba el proceso
	// en el arranque, no en la primera publicación.
	topics, err := events.NewTopicResolver(cfg.DomainTopicTemplate, cfg.IntegrationTopicTemplate)
	if err != nil {
		log.Fatal("invalid topic template", zap.Error(err))
	}

	// ---------------- Bus de mensajes ----------------
	var provider messaging.Provider
	switch cfg.MessagingProvider {
	case "kafka":
		log.Info("🚀 Usando Kafka como bus de eventos")
		kafkaProvider := messaging.NewKafkaProvider(cfg.KafkaBrokers, log)
		defer kafkaProvider.Close()
		provider = kafkaProvider
	case "rabbitmq":
		log.Info("🚀 Usando RabbitMQ como bus de eventos")
		var rabbitProvider *messaging.RabbitProvider
		// El broker puede tardar en aceptar conexiones al arrancar en local.
		err := retry.Do(ctx, 5, 2*time.Second, func() error {
			var dialErr error
			rabbitProvider, dialErr = messaging.NewRabbitProvider(cfg.RabbitURL, log)
			return dialErr
		})
		if err != nil {
			log.Fatal("failed to connect to RabbitMQ", zap.Error(err))
		}
		defer rabbitProvider.Close()
		provider = rabbitProvider
	case "inmemory", "":
		log.Info("⚡️Usando bus de eventos en memoria (canales de Go)")
		provider = messaging.NewInMemoryProvider(log)
	default:
		log.Fatal("unknown messaging provider",
			zap.String("provider", cfg.MessagingProvider),
			zap.Error(messaging.ErrUnknownBroker),
		)
	}

	// ---------------- Persistencia ----------------
	// sessions fabrica la pareja Session + OutboxRepo por operación (misma
	// transacción); operations añade el repo de clientes sobre esa sesión.
	// dispatcherRepo es la vista del dispatcher sobre la outbox, fuera de
	// cualquier transacción de operación.
	var (
		sessions       func() (sharedDomain.Session, sharedDomain.OutboxRepository)
		operations     bookApp.OperationFactory
		dispatcherRepo sharedDomain.OutboxRepository
	)

	var scopes *sharedApp.ScopeFactory

	switch cfg.PersistenceProvider {
	case "postgres":
		log.Info("🚀 Usando PostgreSQL como almacenamiento")
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Fatal("failed to open PostgreSQL", zap.Error(err))
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal("failed to ping PostgreSQL", zap.Error(err))
		}
		if err := outboxPostgres.InitSchema(ctx, db); err != nil {
			log.Fatal("failed to initialize outbox schema", zap.Error(err))
		}
		if err := custPostgres.InitSchema(ctx, db); err != nil {
			log.Fatal("failed to initialize customers schema", zap.Error(err))
		}

		sessions = func() (sharedDomain.Session, sharedDomain.OutboxRepository) {
			session := outboxPostgres.NewSession(db)
			return session, outboxPostgres.NewOutboxRepo(session, cfg.DispatcherID, cfg.OutboxClaimLease)
		}
		scopes = sharedApp.NewScopeFactory(sessions, log)
		operations = func() *bookApp.Operation {
			session := outboxPostgres.NewSession(db)
			outbox := outboxPostgres.NewOutboxRepo(session, cfg.DispatcherID, cfg.OutboxClaimLease)
			return &bookApp.Operation{
				Scope:     sharedApp.NewScope(session, outbox, log),
				Customers: custPostgres.NewCustomerRepo(session),
			}
		}
		dispatcherRepo = outboxPostgres.NewOutboxRepo(outboxPostgres.NewSession(db), cfg.DispatcherID, cfg.OutboxClaimLease)

	case "mongodb":
		log.Info("🚀 Usando MongoDB como almacenamiento")
		client, err := mongo.Connect(ctx, mongoOptions.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatal("failed to connect to MongoDB", zap.Error(err))
		}
		defer client.Disconnect(ctx)

		outboxRepo, err := outboxMongo.NewOutboxRepo(ctx, client, cfg.MongoDatabase)
		if err != nil {
			log.Fatal("failed to initialize MongoDB outbox", zap.Error(err))
		}
		customerRepo, err := custMongo.NewCustomerRepo(ctx, client, cfg.MongoDatabase)
		if err != nil {
			log.Fatal("failed to initialize MongoDB customers", zap.Error(err))
		}

		sessions = func() (sharedDomain.Session, sharedDomain.OutboxRepository) {
			return outboxMongo.NewSession(), outboxRepo
		}
		scopes = sharedApp.NewScopeFactory(sessions, log)
		operations = func() *bookApp.Operation {
			return &bookApp.Operation{Scope: scopes.New(), Customers: customerRepo}
		}
		dispatcherRepo = outboxRepo

	case "inmemory":
		log.Info("⚡️Usando almacenamiento en memoria")
		outboxStore := outboxInmem.NewOutboxStore()
		customerStore := custInmem.NewCustomerStore()

		sessions = func() (sharedDomain.Session, sharedDomain.OutboxRepository) {
			session := outboxInmem.NewSession(outboxStore)
			return session, outboxInmem.NewOutboxRepo(outboxStore, session)
		}
		scopes = sharedApp.NewScopeFactory(sessions, log)
		operations = func() *bookApp.Operation {
			session := outboxInmem.NewSession(outboxStore)
			outbox := outboxInmem.NewOutboxRepo(outboxStore, session)
			return &bookApp.Operation{
				Scope:     sharedApp.NewScope(session, outbox, log),
				Customers: custInmem.NewCustomerRepo(customerStore, session),
			}
		}
		dispatcherRepo = outboxInmem.NewOutboxRepo(outboxStore, outboxInmem.NewSession(outboxStore))

	case "sqlite", "":
		log.Info("🚀 Usando SQLite como almacenamiento")
		db, err := sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			log.Fatal("failed to open SQLite", zap.Error(err))
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal("failed to ping SQLite", zap.Error(err))
		}
		if err := outboxSqlite.InitSchema(ctx, db); err != nil {
			log.Fatal("failed to initialize outbox schema", zap.Error(err))
		}
		if err := custSqlite.InitSchema(ctx, db); err != nil {
			log.Fatal("failed to initialize customers schema", zap.Error(err))
		}

		sessions = func() (sharedDomain.Session, sharedDomain.OutboxRepository) {
			session := outboxSqlite.NewSession(db)
			return session, outboxSqlite.NewOutboxRepo(session)
		}
		scopes = sharedApp.NewScopeFactory(sessions, log)
		operations = func() *bookApp.Operation {
			session := outboxSqlite.NewSession(db)
			outbox := outboxSqlite.NewOutboxRepo(session)
			return &bookApp.Operation{
				Scope:     sharedApp.NewScope(session, outbox, log),
				Customers: custSqlite.NewCustomerRepo(session),
			}
		}
		dispatcherRepo = outboxSqlite.NewOutboxRepo(outboxSqlite.NewSession(db))

	default:
		log.Fatal("unknown persistence provider",
			zap.String("provider", cfg.PersistenceProvider),
		)
	}

	// ---------------- Cache ----------------
	var cacheInstance bookDomain.CustomerCache
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("⚠️ Redis no disponible, cache en memoria:", zap.Error(err))
		cacheInstance = bookCache.NewInMemoryCache(cfg.CacheTTL, 3*cfg.CacheTTL)
	} else {
		cacheInstance = bookCache.NewRedisCache(rdb, cfg.CacheTTL)
		log.Info("✅ Redis conectado, cache habilitado")
	}

	// ------------ Outbox Dispatcher ------------
	// Se podría ejecutar externamente
	dispatcher := relayer.NewDispatcher(dispatcherRepo, provider, topics,
		cfg.OutboxInterval, cfg.OutboxBatchSize, log)

	if cfg.ClickHouseAddr != "" {
		audit, err := chAudit.NewDeliveryLog(cfg.ClickHouseAddr, cfg.ClickHouseDatabase)
		if err != nil {
			log.Warn("⚠️ ClickHouse no disponible, auditoría de entregas deshabilitada", zap.Error(err))
		} else {
			dispatcher.WithDeliveryLog(audit)
			log.Info("✅ ClickHouse conectado, auditoría de entregas habilitada")
		}
	}
	go dispatcher.Start(ctx)

	// --------------- Servicio --------------
	customerService := bookApp.NewCustomerService(operations, cacheInstance, log).
		WithCommitHook(dispatcher.Wake)

	// ---------------- Listeners ---------------
	log.Info("🎧 Iniciando listener de CustomerRegistered")
	welcomeAction := bookApp.NewSendWelcomeEmailAction(mailer.NewLogMailer(log), scopes, log)
	customerListener := bookApp.NewCustomerRegisteredListener(provider, topics, cfg.ListenerGroup, welcomeAction, log)
	if err := customerListener.Start(ctx); err != nil {
		log.Fatal("failed to start CustomerRegistered listener", zap.Error(err))
	}
	defer customerListener.Stop(context.Background())

	// ---------------- HTTP ----------------
	customerHandler := bookHttp.NewCustomerHandler(customerService)
	router := gin.Default()
	bookHttp.RegisterCustomerRoutes(router, customerHandler)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	log.Info("🚀 Server running",
		zap.String("url", "http://localhost:"+cfg.HTTPPort),
	)
	if err := router.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatal("failed to start server: %v", zap.Error(err))
	}
}
