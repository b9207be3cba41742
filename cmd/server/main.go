package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/nanasync/nanasync-api/internal/adapters/events"
	"github.com/nanasync/nanasync-api/internal/adapters/http/handler"
	"github.com/nanasync/nanasync-api/internal/adapters/metrics"
	mongorepo "github.com/nanasync/nanasync-api/internal/adapters/repository/mongodb"
	pgrepo "github.com/nanasync/nanasync-api/internal/adapters/repository/postgres"
	"github.com/nanasync/nanasync-api/internal/core/auth"
	"github.com/nanasync/nanasync-api/internal/core/company"
	"github.com/nanasync/nanasync-api/internal/core/credential"
	"github.com/nanasync/nanasync-api/internal/core/domainevent"
	"github.com/nanasync/nanasync-api/internal/core/employee"
	"github.com/nanasync/nanasync-api/internal/core/timeclock"
	"github.com/nanasync/nanasync-api/internal/platform/config"
	mongodb "github.com/nanasync/nanasync-api/internal/platform/db/mongodb"
	pg "github.com/nanasync/nanasync-api/internal/platform/db/postgres"
	"github.com/nanasync/nanasync-api/internal/platform/logger"
	"github.com/nanasync/nanasync-api/internal/platform/server"
	"github.com/nanasync/nanasync-api/internal/platform/token"
)

// store はストアドライバごとのリポジトリ群です。
type store struct {
	companies company.Repository
	employees employee.Repository
	clocks    timeclock.Repository
	tx        auth.TransactionManager
	close     func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	st, err := openStore(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("store unavailable", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer st.close()

	m := metrics.New()

	var publisher domainevent.Publisher = domainevent.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, zl)
		if err != nil {
			zl.Fatal("failed to initialize kafka producer", zap.Error(err))
		}
		defer producer.Close()
		publisher = producer
		zl.Info("publishing domain events to kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	publisher = metrics.NewCountingPublisher(publisher, m)

	hasher := credential.NewBcryptHasher(cfg.Auth.BcryptCost)
	companySvc := company.NewService(st.companies, nil, st.tx)
	employeeSvc := employee.NewService(st.employees, st.tx)
	authSvc := auth.NewService(st.companies, st.employees, hasher, nil, nil, st.tx, publisher)
	recorder := timeclock.NewRecorder(st.clocks, st.employees, nil, st.tx, publisher, zl)

	opts := handler.Options{
		Auth:           authSvc,
		Companies:      companySvc,
		Employees:      employeeSvc,
		TimeClock:      recorder,
		RequireToken:   cfg.Auth.RequireToken,
		Metrics:        m,
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		Logger:         zl,
	}
	if cfg.Auth.JWTSecret != "" {
		issuer, err := token.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL, nil)
		if err != nil {
			zl.Fatal("failed to initialize token issuer", zap.Error(err))
		}
		opts.Tokens = issuer
	}

	srv := server.New(cfg.Server, handler.NewRouter(opts), zl)
	srv.SetServing(true)

	zl.Info("starting nanasync api",
		zap.String("listen_addr", cfg.Server.ListenAddr),
		zap.String("health_addr", cfg.Server.HealthAddr),
		zap.String("store_driver", cfg.Store.Driver),
		zap.Int("bcrypt_cost", hasher.Cost()),
	)

	if err := srv.Run(ctx); err != nil {
		zl.Error("server stopped with error", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, zl *zap.Logger) (*store, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := pg.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return &store{
			companies: pgrepo.NewCompanyRepository(pool),
			employees: pgrepo.NewEmployeeRepository(pool),
			clocks:    pgrepo.NewClockEventRepository(pool),
			tx:        pg.NewTransactionManager(pool, txOptions(cfg.Database)...),
			close:     pool.Close,
		}, nil
	default:
		client, db, err := mongodb.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}

		indexCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
		defer cancel()
		if err := mongorepo.EnsureIndexes(indexCtx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}

		return &store{
			companies: mongorepo.NewCompanyRepository(db),
			employees: mongorepo.NewEmployeeRepository(db),
			clocks:    mongorepo.NewClockEventRepository(db),
			close: func() {
				disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := client.Disconnect(disconnectCtx); err != nil {
					zl.Warn("failed to disconnect mongodb", zap.Error(err))
				}
			},
		}, nil
	}
}

func txOptions(cfg config.DatabaseConfig) []pg.Option {
	if cfg.IsolationLevel == "" {
		return nil
	}
	return []pg.Option{pg.WithIsolationLevel(pgx.TxIsoLevel(cfg.IsolationLevel))}
}
