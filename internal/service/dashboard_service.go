package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/society-api/internal/dto"
	"github.com/noah-isme/society-api/internal/models"
	"github.com/noah-isme/society-api/internal/observability"
	"github.com/noah-isme/society-api/internal/policy"
	"github.com/noah-isme/society-api/internal/repository"
	"github.com/noah-isme/society-api/internal/validation"
	"github.com/noah-isme/society-api/internal/workflow"
)

const (
	dashboardCachePrefix = "sms:dashboard:v1:"
	upcomingEventsLimit  = 5
)

// DashboardService aggregates the admin overview.
type DashboardService interface {
	DashboardInvalidator
	Get(ctx context.Context, actor policy.Actor) (dto.DashboardResponse, error)
}

type dashboardService struct {
	apps      repository.ApplicationRepository
	societies repository.SocietyRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewDashboardService builds the dashboard aggregator. A nil cache disables caching.
func NewDashboardService(apps repository.ApplicationRepository, societies repository.SocietyRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) DashboardService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &dashboardService{
		apps:      apps,
		societies: societies,
		cache:     cache,
		cacheTTL:  ttl,
		logger:    logger.With().Str("component", "dashboard_service").Logger(),
		now:       time.Now,
	}
}

func (s *dashboardService) Get(ctx context.Context, actor policy.Actor) (dto.DashboardResponse, error) {
	role := policy.ParseRole(actor.Role)
	cacheKey := fmt.Sprintf("%s%d:%s:%s", dashboardCachePrefix, actor.ID, role, strings.ToLower(strings.TrimSpace(actor.Faculty)))

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.DashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.DashboardCacheRequests().WithLabelValues("hit").Inc()
				response.CacheHit = true
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}
	observability.DashboardCacheRequests().WithLabelValues("miss").Inc()

	response, err := s.build(ctx, actor)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

// Invalidate drops every cached dashboard.
func (s *dashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	iter := s.cache.Scan(ctx, 0, dashboardCachePrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to scan dashboard cache")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate dashboard cache")
	}
}

func (s *dashboardService) build(ctx context.Context, actor policy.Actor) (dto.DashboardResponse, error) {
	now := s.now().UTC()
	role := policy.ParseRole(actor.Role)

	total, err := s.societies.CountByStatus(ctx, "")
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	active, err := s.societies.CountByStatus(ctx, models.SocietyStatusActive)
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	registrations, err := s.apps.Count(ctx, repository.ApplicationFilter{Kind: models.KindRegistration, Year: now.Year()})
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	renewals, err := s.apps.Count(ctx, repository.ApplicationFilter{Kind: models.KindRenewal, Year: now.Year()})
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	pending, err := s.pendingCount(ctx, actor)
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	upcoming, err := s.upcomingEvents(ctx, now)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	tabs := policy.Tabs(actor)
	tabNames := make([]string, 0, len(tabs))
	for _, tab := range tabs {
		tabNames = append(tabNames, string(tab))
	}

	return dto.DashboardResponse{
		TotalSocieties:           total,
		ActiveSocieties:          active,
		CurrentYearRegistrations: registrations,
		CurrentYearRenewals:      renewals,
		PendingApprovals:         pending,
		UpcomingEvents:           upcoming,
		Tabs:                     tabNames,
		AdminInfo: dto.AdminInfo{
			ID:      actor.ID,
			Name:    actor.Name,
			Role:    role,
			Faculty: actor.Faculty,
		},
		GeneratedAt: now,
	}, nil
}

func (s *dashboardService) pendingCount(ctx context.Context, actor policy.Actor) (int64, error) {
	role := policy.ParseRole(actor.Role)
	filter := repository.ApplicationFilter{}
	switch role {
	case models.RoleStudentService:
		filter.Statuses = workflow.PendingStatuses()
	case models.RoleDean:
		if strings.TrimSpace(actor.Faculty) == "" {
			return 0, nil
		}
		filter.Statuses = policy.QueueStatuses(actor)
		filter.Faculty = actor.Faculty
	default:
		filter.Statuses = policy.QueueStatuses(actor)
	}
	if len(filter.Statuses) == 0 {
		return 0, nil
	}
	return s.apps.Count(ctx, filter)
}

func (s *dashboardService) upcomingEvents(ctx context.Context, now time.Time) ([]dto.UpcomingEvent, error) {
	apps, _, err := s.apps.List(ctx, repository.ApplicationFilter{
		Kind:     models.KindEvent,
		Statuses: []models.ApplicationStatus{models.StatusApproved},
		PageSize: 100,
	})
	if err != nil {
		return nil, err
	}

	today := now.Format(validation.DateLayout)
	events := make([]dto.UpcomingEvent, 0, upcomingEventsLimit)
	for _, app := range apps {
		details, err := app.EventDetails()
		if err != nil {
			s.logger.Warn().Err(err).Uint("application_id", app.ID).Msg("skipping event with unreadable details")
			continue
		}
		if details.EventDate < today {
			continue
		}
		events = append(events, dto.UpcomingEvent{
			ID:          app.ID,
			EventName:   details.EventName,
			EventDate:   details.EventDate,
			Place:       details.Place,
			SocietyName: app.SocietyName,
		})
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].EventDate < events[j].EventDate })
	if len(events) > upcomingEventsLimit {
		events = events[:upcomingEventsLimit]
	}
	return events, nil
}
