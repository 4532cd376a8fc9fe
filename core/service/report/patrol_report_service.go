// Package report aggregates patrol statistics for the dashboard.
package report

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"patrol_server/core/domain"
	"patrol_server/core/port/in"
	"patrol_server/core/port/out"
	"patrol_server/pkg/logger"
)

const overviewCacheKey = "patrol:dashboard:overview"

// Service computes dashboard and evidence statistics. The overview is
// cached briefly in Redis when a client is available; a nil client means
// every call hits the store.
type Service struct {
	evidenceRepo out.EvidenceRepository
	redis        *redis.Client
	cacheTTL     time.Duration
	log          *logger.Logger
}

// NewService creates the stats service.
func NewService(evidenceRepo out.EvidenceRepository, redisClient *redis.Client, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &Service{
		evidenceRepo: evidenceRepo,
		redis:        redisClient,
		cacheTTL:     cacheTTL,
		log:          logger.WithField("service", "report"),
	}
}

// Overview returns dashboard statistics, served from cache when fresh.
func (s *Service) Overview(ctx context.Context) (*domain.DashboardStats, error) {
	if cached := s.fromCache(ctx); cached != nil {
		return cached, nil
	}

	stats, err := s.evidenceRepo.DashboardStats(ctx)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, stats)
	return stats, nil
}

// EvidenceStats returns evidence store aggregates, always fresh.
func (s *Service) EvidenceStats(ctx context.Context) (*domain.EvidenceStats, error) {
	return s.evidenceRepo.Stats(ctx)
}

func (s *Service) fromCache(ctx context.Context) *domain.DashboardStats {
	if s.redis == nil {
		return nil
	}
	data, err := s.redis.Get(ctx, overviewCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.WithError(err).Debug("overview cache read failed")
		}
		return nil
	}
	var stats domain.DashboardStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil
	}
	return &stats
}

func (s *Service) toCache(ctx context.Context, stats *domain.DashboardStats) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, overviewCacheKey, data, s.cacheTTL).Err(); err != nil {
		s.log.WithError(err).Debug("overview cache write failed")
	}
}

var _ in.StatsProvider = (*Service)(nil)
