package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/society-api/internal/models"
)

// SocietyFilter narrows society directory queries.
type SocietyFilter struct {
	Page     int
	PageSize int
	Search   string
	Faculty  string
	Status   string
}

// SocietyRepository persists approved societies.
type SocietyRepository interface {
	GetByID(ctx context.Context, id uint) (models.Society, error)
	FindByName(ctx context.Context, name string) (models.Society, error)
	List(ctx context.Context, filter SocietyFilter) ([]models.Society, int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	CountByFaculty(ctx context.Context) (map[string]int64, error)
}

type societyRepository struct {
	db *gorm.DB
}

// NewSocietyRepository constructs the society repository.
func NewSocietyRepository(db *gorm.DB) SocietyRepository {
	return &societyRepository{db: db}
}

func (r *societyRepository) GetByID(ctx context.Context, id uint) (models.Society, error) {
	var society models.Society
	if err := r.db.WithContext(ctx).First(&society, id).Error; err != nil {
		return models.Society{}, err
	}
	return society, nil
}

func (r *societyRepository) FindByName(ctx context.Context, name string) (models.Society, error) {
	var society models.Society
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&society).Error
	if err != nil {
		return models.Society{}, err
	}
	return society, nil
}

func (r *societyRepository) List(ctx context.Context, filter SocietyFilter) ([]models.Society, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Society{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if faculty := strings.TrimSpace(filter.Faculty); faculty != "" {
		query = query.Where("LOWER(primary_faculty) = ?", strings.ToLower(faculty))
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(aims) LIKE ?", like, like)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var societies []models.Society
	if err := query.Order("name ASC").Find(&societies).Error; err != nil {
		return nil, 0, err
	}

	return societies, total, nil
}

func (r *societyRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Society{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *societyRepository) CountByFaculty(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		PrimaryFaculty string
		Total          int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Society{}).
		Select("primary_faculty, COUNT(*) AS total").
		Group("primary_faculty").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.PrimaryFaculty] = row.Total
	}
	return counts, nil
}
