package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/society-api/internal/dto"
	"github.com/noah-isme/society-api/internal/models"
	"github.com/noah-isme/society-api/internal/repository"
)

// ErrSocietyNotFound indicates the society does not exist.
var ErrSocietyNotFound = errors.New("society not found")

// SocietyService serves the public society directory.
type SocietyService interface {
	List(ctx context.Context, req dto.SocietyListRequest) (dto.SocietyListResponse, error)
	Get(ctx context.Context, id uint) (dto.SocietyResponse, error)
	Statistics(ctx context.Context) (dto.SocietyStatistics, error)
}

type societyService struct {
	societies repository.SocietyRepository
	apps      repository.ApplicationRepository
	logger    zerolog.Logger
}

// NewSocietyService constructs the society directory service.
func NewSocietyService(societies repository.SocietyRepository, apps repository.ApplicationRepository, logger zerolog.Logger) SocietyService {
	return &societyService{
		societies: societies,
		apps:      apps,
		logger:    logger.With().Str("component", "society_service").Logger(),
	}
}

func (s *societyService) List(ctx context.Context, req dto.SocietyListRequest) (dto.SocietyListResponse, error) {
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if status == "" {
		status = models.SocietyStatusActive
	}
	filter := repository.SocietyFilter{
		Page:     normalizePage(req.Page),
		PageSize: clampPageSize(req.PageSize),
		Search:   strings.TrimSpace(req.Search),
		Faculty:  strings.TrimSpace(req.Faculty),
		Status:   status,
	}

	societies, total, err := s.societies.List(ctx, filter)
	if err != nil {
		return dto.SocietyListResponse{}, err
	}

	items := make([]dto.SocietyResponse, 0, len(societies))
	for _, society := range societies {
		items = append(items, dto.NewSocietyResponse(society))
	}

	return dto.SocietyListResponse{
		Items: items,
		Pagination: dto.PaginationMeta{
			Page:       filter.Page,
			PageSize:   filter.PageSize,
			TotalItems: total,
			TotalPages: calculateTotalPages(total, filter.PageSize),
		},
	}, nil
}

func (s *societyService) Get(ctx context.Context, id uint) (dto.SocietyResponse, error) {
	society, err := s.societies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SocietyResponse{}, ErrSocietyNotFound
		}
		return dto.SocietyResponse{}, err
	}
	return dto.NewSocietyResponse(society), nil
}

func (s *societyService) Statistics(ctx context.Context) (dto.SocietyStatistics, error) {
	total, err := s.societies.CountByStatus(ctx, "")
	if err != nil {
		return dto.SocietyStatistics{}, err
	}
	active, err := s.societies.CountByStatus(ctx, models.SocietyStatusActive)
	if err != nil {
		return dto.SocietyStatistics{}, err
	}
	byFaculty, err := s.societies.CountByFaculty(ctx)
	if err != nil {
		return dto.SocietyStatistics{}, err
	}
	byStatus, err := s.apps.CountByStatus(ctx)
	if err != nil {
		return dto.SocietyStatistics{}, err
	}

	applications := make(map[string]int64, len(byStatus))
	for status, count := range byStatus {
		applications[string(status)] = count
	}

	return dto.SocietyStatistics{
		TotalSocieties:    total,
		ActiveSocieties:   active,
		ByFaculty:         byFaculty,
		ApplicationsByKey: applications,
	}, nil
}
