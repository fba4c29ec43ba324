package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/config"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/core"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/data"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/data/memstore"
	httpx "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/http"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/service"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/telemetry"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Jobs      *service.JobService
	Reviews   *service.ReviewService
	Readiness []httpx.ReadinessCheck
}

// ServiceDeps groups dependencies for service initialization. Everything except
// Config is optional; a nil DB requires the memory store driver.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Blobs       core.BlobStore
	Publisher   core.EventPublisher
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	Jobs    core.JobRepository
	Reviews core.ReviewRepository
	Cache   *core.TimelineCache
}

// NewServices wires repositories, cache, and collaborators into the services.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	repos, err := buildRepositories(deps, logger)
	if err != nil {
		return ServiceContainer{}, err
	}

	jobs, err := service.NewJobService(service.JobServiceOptions{
		Repo: repos.Jobs,
		Collaborators: service.JobCollaborators{
			Blobs:     deps.Blobs,
			Publisher: deps.Publisher,
			Timelines: repos.Cache,
		},
		Config: service.JobServiceConfig{
			MaxUploadBytes:        cfg.Blob.MaxUploadBytes,
			AllowedStorageDomains: cfg.Blob.AllowedDomains,
		},
		Logger: logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("job service: %w", err)
	}

	reviews, err := service.NewReviewService(service.ReviewServiceOptions{
		Repos:     service.ReviewRepos{Jobs: repos.Jobs, Reviews: repos.Reviews},
		Publisher: deps.Publisher,
		Logger:    logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("review service: %w", err)
	}

	return ServiceContainer{
		Jobs:      jobs,
		Reviews:   reviews,
		Readiness: readinessChecks(deps.DB, repos.Cache),
	}, nil
}

func buildRepositories(deps *ServiceDeps, logger *slog.Logger) (*serviceRepositories, error) {
	cfg := deps.Config
	repos := &serviceRepositories{}

	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		store := memstore.New(memstore.Options{})
		repos.Jobs, repos.Reviews = store.Jobs(), store.Reviews()
	default:
		if deps.DB == nil {
			return nil, errors.New("postgres store selected but no database connection provided")
		}
		repoCfg := data.RepoConfig{Logger: logger, JobNumberAttempts: cfg.Store.JobNumberAttempts}
		repos.Jobs = data.NewJobRepo(deps.DB, repoCfg)
		repos.Reviews = data.NewReviewRepo(deps.DB, repoCfg)
	}

	if cfg.Observability.Telemetry.Enabled {
		repos.Jobs = telemetry.WrapJobRepository(repos.Jobs, telemetry.InstrumentOptions{})
		repos.Reviews = telemetry.WrapReviewRepository(repos.Reviews, telemetry.InstrumentOptions{})
	}

	if deps.RedisClient != nil {
		repos.Cache = core.NewTimelineCache(core.TimelineCacheOptions{
			Cache: data.NewRedisCacheRepo(data.RedisCacheOptions{Client: deps.RedisClient, Prefix: cfg.Redis.Prefix}),
			TTL:   cfg.Timeline.CacheTTL,
		})
	}
	return repos, nil
}

func readinessChecks(db *sql.DB, timelines *core.TimelineCache) []httpx.ReadinessCheck {
	var checks []httpx.ReadinessCheck
	if db != nil {
		checks = append(checks, httpx.ReadinessCheck{Name: "postgres", Check: db.PingContext})
	}
	if timelines != nil {
		checks = append(checks, httpx.ReadinessCheck{Name: "redis", Check: timelines.Health})
	}
	return checks
}
