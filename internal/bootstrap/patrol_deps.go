package bootstrap

import (
	"context"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"patrol_server/adapter/in/worker"
	"patrol_server/adapter/out/mongodb"
	"patrol_server/adapter/out/persistence"
	"patrol_server/adapter/out/provider"
	"patrol_server/adapter/out/realtime"
	"patrol_server/adapter/out/registry"
	"patrol_server/config"
	"patrol_server/core/domain"
	"patrol_server/core/port/out"
	"patrol_server/core/service/flagging"
	"patrol_server/core/service/hotel"
	"patrol_server/core/service/ingest"
	"patrol_server/core/service/report"
	"patrol_server/core/service/risk"
	"patrol_server/infra/database"
	"patrol_server/pkg/logger"
)

// Dependencies wires the adapters and services together.
type Dependencies struct {
	Config *config.Config

	SQLDB   *sqlx.DB
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	MongoDB *mongo.Client

	// Repositories
	EvidenceRepo out.EvidenceRepository
	HotelRepo    out.HotelRepository

	// Hotel registry
	Registry *registry.InMemoryRegistry

	// Snapshot archive (optional)
	SnapshotAdapter *mongodb.SnapshotAdapter

	// Realtime
	SSEHub *realtime.SSEAdapter

	// Scoring
	Scorer *risk.Scorer

	// Services
	FlaggingService *flagging.Service
	HotelService    *hotel.Service
	ReportService   *report.Service
	IngestService   *ingest.Service
}

// NewDependencies builds the dependency graph. The evidence store falls
// back to an in-memory implementation when Postgres is not configured,
// so the server stays usable in development.
func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	// Evidence and hotel storage: Postgres when configured, in-memory
	// otherwise. The sqlx handle carries queries; the pgx pool backs the
	// readiness probe and pool statistics.
	if cfg.DatabaseURL != "" {
		sqlDB, err := database.NewSQLX(cfg.DatabaseURL)
		if err != nil {
			logger.WithError(err).Warn("postgres connection failed, using in-memory store")
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			err = persistence.EnsureSchema(ctx, sqlDB)
			cancel()
			if err != nil {
				logger.WithError(err).Warn("schema setup failed, using in-memory store")
				sqlDB.Close()
			} else {
				deps.SQLDB = sqlDB
				cleanups = append(cleanups, func() { sqlDB.Close() })
				deps.EvidenceRepo = persistence.NewEvidenceAdapter(sqlDB)
				deps.HotelRepo = persistence.NewHotelAdapter(sqlDB)

				pgPool, err := database.NewPostgres(cfg.DatabaseURL)
				if err != nil {
					logger.WithError(err).Warn("pgx pool setup failed, readiness checks degraded")
				} else {
					deps.Pool = pgPool
					cleanups = append(cleanups, pgPool.Close)
				}
			}
		}
	}
	if deps.EvidenceRepo == nil {
		logger.Warn("no DATABASE_URL configured: evidence is stored in memory and lost on restart")
		memStore := persistence.NewMemoryStore()
		deps.EvidenceRepo = memStore
		deps.HotelRepo = memStore
	}

	// Redis (optional): dashboard stats cache and shared rate limiting.
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Warn("redis connection failed, caching disabled")
		} else {
			deps.Redis = redisClient
			cleanups = append(cleanups, func() { redisClient.Close() })
		}
	}

	// MongoDB (optional): raw capture snapshot archive.
	if cfg.MongoDBURL != "" {
		mongoClient, err := mongodb.NewClient(cfg.MongoDBURL, cfg.MongoDBName)
		if err != nil {
			logger.WithError(err).Warn("mongodb connection failed, snapshot archive disabled")
		} else {
			deps.MongoDB = mongoClient
			cleanups = append(cleanups, func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = mongoClient.Disconnect(ctx)
			})

			deps.SnapshotAdapter = mongodb.NewSnapshotAdapter(mongoClient.Database(cfg.MongoDBName))
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := deps.SnapshotAdapter.EnsureIndexes(ctx); err != nil {
				logger.WithError(err).Warn("failed to create snapshot indexes")
			}
			cancel()
		}
	}

	// Keyword taxonomy. LoadTaxonomy falls back to the built-in set when
	// no path is configured.
	taxonomy, err := domain.LoadTaxonomy(cfg.TaxonomyPath)
	if err != nil {
		logger.WithError(err).Error("invalid taxonomy file")
		runCleanups(cleanups)
		return nil, nil, err
	}
	deps.Scorer = risk.NewScorer(taxonomy)
	logger.WithField("categories", len(taxonomy.Categories)).Info("taxonomy loaded")

	// Trusted hotel registry.
	deps.Registry = registry.NewInMemoryRegistry()
	if cfg.RegistryPath != "" {
		entries, err := registry.LoadFromFile(cfg.RegistryPath)
		if err != nil {
			logger.WithError(err).Warn("hotel registry load failed, all claims will be unverified")
		} else {
			deps.Registry.Reload(entries)
			logger.WithField("entries", len(entries)).Info("hotel registry loaded")
		}
	}

	// Realtime alert hub.
	deps.SSEHub = realtime.NewSSEAdapter(zlog)

	// Services.
	var archive out.SnapshotArchive
	if deps.SnapshotAdapter != nil {
		archive = deps.SnapshotAdapter
	}
	deps.FlaggingService = flagging.NewService(
		deps.Scorer,
		deps.EvidenceRepo,
		deps.SSEHub,
		archive,
		cfg.RiskThreshold,
		cfg.HighRiskThreshold,
	)
	deps.HotelService = hotel.NewService(deps.Registry, deps.HotelRepo)
	deps.ReportService = report.NewService(deps.EvidenceRepo, deps.Redis, cfg.StatsCacheTTL)

	// Source providers and the concurrent fetch pool.
	scraperCfg := &provider.ScraperConfig{
		UserAgent:  cfg.ScraperUserAgent,
		Timeout:    time.Duration(cfg.ScraperTimeoutSec) * time.Second,
		MaxRetries: cfg.ScraperMaxRetries,
	}
	providers := []out.SourceProvider{
		provider.NewTelegramAdapter(cfg.TelegramPreviewURL, scraperCfg),
		provider.NewInstagramAdapter(cfg.InstagramTagURL, scraperCfg),
	}
	dispatcher := worker.NewFetchPool(cfg.FetchWorkerCount, cfg.FetchQueueSize, zlog)
	deps.IngestService = ingest.NewService(providers, dispatcher, deps.FlaggingService)

	cleanup := func() { runCleanups(cleanups) }
	return deps, cleanup, nil
}

func runCleanups(cleanups []func()) {
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}
