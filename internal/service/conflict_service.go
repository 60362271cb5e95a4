package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/univops/timetable-api/internal/dto"
	"github.com/univops/timetable-api/internal/models"
	"github.com/univops/timetable-api/internal/solver"
	appErrors "github.com/univops/timetable-api/pkg/errors"
)

// ConflictService audits the persisted schedule for invariant violations.
// Reports are cached as snapshots; any planning commit works against fresh
// data because the cache key embeds the horizon and a short TTL bounds
// staleness.
type ConflictService struct {
	indexRepo   planningIndexRepository
	sessionRepo planningSessionRepository
	cache       *redis.Client
	snapshotTTL time.Duration
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewConflictService instantiates ConflictService. cache may be nil.
func NewConflictService(indexRepo planningIndexRepository, sessionRepo planningSessionRepository, cache *redis.Client, snapshotTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *ConflictService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{
		indexRepo:   indexRepo,
		sessionRepo: sessionRepo,
		cache:       cache,
		snapshotTTL: snapshotTTL,
		metrics:     metrics,
		logger:      logger,
	}
}

// Detect returns every conflict among active sessions intersecting the range.
func (s *ConflictService) Detect(ctx context.Context, from, to time.Time) (*dto.ConflictReportResponse, error) {
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "range end precedes range start")
	}

	cacheKey := fmt.Sprintf("conflicts:%s:%s", from.Format(time.DateOnly), to.Format(time.DateOnly))
	if cached := s.fromSnapshot(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	data, err := s.indexRepo.LoadIndex(ctx, nil)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err)
	}
	idx := solver.NewIndex(data)

	rows, err := s.sessionRepo.LoadHorizon(ctx, from, to)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err)
	}
	sessions := make([]*models.Session, len(rows))
	for i := range rows {
		sessions[i] = &rows[i]
	}

	conflicts := solver.NewAnalyzer(idx, solver.DefaultConfig()).Report(sessions)
	if conflicts == nil {
		conflicts = []models.Conflict{}
	}

	if s.metrics != nil {
		kinds := map[string]int{}
		for _, c := range conflicts {
			kinds[string(c.Kind)]++
		}
		s.metrics.ObserveConflicts(kinds)
	}

	response := &dto.ConflictReportResponse{
		HorizonStart: from,
		HorizonEnd:   to,
		Count:        len(conflicts),
		Conflicts:    conflicts,
	}
	s.storeSnapshot(ctx, cacheKey, response)
	return response, nil
}

func (s *ConflictService) fromSnapshot(ctx context.Context, key string) *dto.ConflictReportResponse {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("conflict snapshot read failed", zap.String("key", key), zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.ObserveSnapshot(false)
		}
		return nil
	}
	var response dto.ConflictReportResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil
	}
	if s.metrics != nil {
		s.metrics.ObserveSnapshot(true)
	}
	return &response
}

func (s *ConflictService) storeSnapshot(ctx context.Context, key string, response *dto.ConflictReportResponse) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.snapshotTTL).Err(); err != nil {
		s.logger.Warn("conflict snapshot write failed", zap.String("key", key), zap.Error(err))
	}
}
