package main

import (
	"context"
	"fmt"

	"github.com/huongkhe/schoolsite/internal/api"
	"github.com/huongkhe/schoolsite/internal/audit"
	"github.com/huongkhe/schoolsite/internal/auth"
	"github.com/huongkhe/schoolsite/internal/content"
	"github.com/huongkhe/schoolsite/internal/docstore"
	"github.com/huongkhe/schoolsite/internal/infrastructure/config"
	"github.com/huongkhe/schoolsite/internal/infrastructure/database"
	"github.com/huongkhe/schoolsite/internal/infrastructure/influxdb"
	"github.com/huongkhe/schoolsite/internal/infrastructure/logging"
	"github.com/huongkhe/schoolsite/internal/infrastructure/mqtt"
	"github.com/huongkhe/schoolsite/internal/infrastructure/objectstore"
	"github.com/huongkhe/schoolsite/internal/mail"
	"github.com/huongkhe/schoolsite/internal/media"
	"github.com/huongkhe/schoolsite/internal/realtime"
)

// run is the server lifecycle, separated from main for testability.
// It returns nil on clean shutdown after ctx is cancelled.
func run(ctx context.Context, configPath string) error {
	log := logging.Default()
	log.Info("starting schoolsite",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath, "environment", cfg.Environment)

	log, err = logging.New(cfg.Logging, version)
	if err != nil {
		return fmt.Errorf("initialising logger: %w", err)
	}
	defer log.Close() //nolint:errcheck // log file close on exit

	db, err := openDatabase(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	store, closeStore, err := openStore(ctx, cfg, db, log)
	if err != nil {
		return err
	}
	defer closeStore()

	users := auth.NewUserRepository(db.DB)
	if _, seedErr := auth.SeedUsers(ctx, users, cfg.Security, log.Logger); seedErr != nil {
		return fmt.Errorf("seeding users: %w", seedErr)
	}

	hub := realtime.NewHub(cfg.WebSocket, log.With("component", "websocket"))
	var emitter realtime.Emitter = hub

	// MQTT relay (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		mqttClient.SetLogger(log)
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()

		relay := realtime.NewRelay(mqttClient, mqttClient.Topics(), mqttClient.QoS(), hub, log.With("component", "relay"))
		if startErr := relay.Start(); startErr != nil {
			return startErr
		}
		defer relay.Wait()
		emitter = realtime.Fanout{hub, relay}
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"origin", relay.Origin(),
		)
	} else {
		log.Info("MQTT relay disabled")
	}

	// InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Media uploads (optional)
	var mediaService *media.Service
	if cfg.Media.Enabled {
		minioClient, minioErr := objectstore.NewMinioClient(cfg.Media)
		if minioErr != nil {
			return fmt.Errorf("creating object storage client: %w", minioErr)
		}
		if bucketErr := minioClient.EnsureBucket(ctx); bucketErr != nil {
			return fmt.Errorf("preparing media bucket: %w", bucketErr)
		}
		mediaService = media.NewService(minioClient, cfg.Media)
		log.Info("media uploads enabled", "endpoint", minioClient.Endpoint(), "bucket", minioClient.Bucket())
	} else {
		log.Info("media uploads disabled")
	}

	auditRepo := audit.NewSQLiteRepository(db.DB)

	srv, err := api.New(api.Deps{
		Config:    cfg,
		Logger:    log,
		Store:     store,
		Gate:      auth.NewGate(cfg.Security.Session.Secret, cfg.Security.Session.TTL),
		Auth:      auth.NewAuthenticator(users),
		Hub:       hub,
		Emitter:   emitter,
		DB:        db,
		Audit:     audit.NewRecorder(auditRepo, log.With("component", "audit")),
		AuditRepo: auditRepo,
		Metrics:   influxClient,
		MQTT:      mqttClient,
		Media:     mediaService,
		Mailer:    mail.New(cfg.Mail, log.With("component", "mail")),
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal",
		"address", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
	)

	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	if err := srv.Close(); err != nil {
		log.Error("error stopping API server", "error", err)
	}

	log.Info("schoolsite stopped")
	return nil
}

// openDatabase opens SQLite and applies pending migrations.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, log *logging.Logger) (*database.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", cfg.Path)
	return db, nil
}

// openStore returns the content store selected by store.driver and a
// function that releases it.
func openStore(ctx context.Context, cfg *config.Config, db *database.DB, log *logging.Logger) (docstore.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMongo:
		store, err := docstore.ConnectMongo(ctx, cfg.Store.Mongo)
		if err != nil {
			return nil, nil, fmt.Errorf("opening content store: %w", err)
		}
		if err := ensureIndexes(ctx, store); err != nil {
			_ = store.Close(context.Background())
			return nil, nil, err
		}
		log.Info("content store connected", "driver", store.Name(), "database", cfg.Store.Mongo.Database)
		return store, func() {
			log.Info("closing content store")
			if err := store.Close(context.Background()); err != nil {
				log.Error("error closing content store", "error", err)
			}
		}, nil
	default:
		store := docstore.NewSQLiteStore(db.DB)
		log.Info("content store ready", "driver", store.Name())
		return store, func() {}, nil
	}
}

// ensureIndexes creates listing indexes for every content collection on
// stores that need them.
func ensureIndexes(ctx context.Context, store docstore.Store) error {
	ix, ok := store.(docstore.Indexer)
	if !ok {
		return nil
	}
	if err := ix.EnsureIndexes(ctx, content.Collections()...); err != nil {
		return fmt.Errorf("preparing content store: %w", err)
	}
	return nil
}
