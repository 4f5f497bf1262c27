package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/society-api/internal/models"
)

// ErrStatusChanged indicates the application left the expected status before the update landed.
var ErrStatusChanged = errors.New("application status changed concurrently")

// ApplicationFilter narrows application queries.
type ApplicationFilter struct {
	Page     int
	PageSize int
	Kind     models.ApplicationKind
	Statuses []models.ApplicationStatus
	Faculty  string
	Year     int
	Search   string
	Sort     string
}

// Decision bundles the writes of a single approve or reject.
type Decision struct {
	Application    *models.Application
	PreviousStatus models.ApplicationStatus
	Activity       *models.ActivityLog
	Society        *models.Society
}

// ApplicationRepository persists registrations, renewals and event permissions.
type ApplicationRepository interface {
	Create(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id uint) (models.Application, error)
	List(ctx context.Context, filter ApplicationFilter) ([]models.Application, int64, error)
	Count(ctx context.Context, filter ApplicationFilter) (int64, error)
	CountByStatus(ctx context.Context) (map[models.ApplicationStatus]int64, error)
	ApplyDecision(ctx context.Context, decision Decision) error
}

type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository constructs the application repository.
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

var applicationSorts = map[string]string{
	"":        "submitted_at DESC, id DESC",
	"newest":  "submitted_at DESC, id DESC",
	"oldest":  "submitted_at ASC, id ASC",
	"society": "society_name ASC, id ASC",
	"status":  "status ASC, submitted_at DESC",
}

func (r *applicationRepository) Create(ctx context.Context, app *models.Application) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *applicationRepository) GetByID(ctx context.Context, id uint) (models.Application, error) {
	var app models.Application
	if err := r.db.WithContext(ctx).First(&app, id).Error; err != nil {
		return models.Application{}, err
	}
	return app, nil
}

func (r *applicationRepository) filtered(ctx context.Context, filter ApplicationFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Application{})

	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}

	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}

	if faculty := strings.TrimSpace(filter.Faculty); faculty != "" {
		query = query.Where("LOWER(TRIM(applicant_faculty)) = ?", strings.ToLower(faculty))
	}

	if filter.Year > 0 {
		query = query.Where("year = ?", filter.Year)
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(society_name) LIKE ? OR LOWER(applicant_name) LIKE ? OR LOWER(reference_id) LIKE ?", like, like, like)
	}

	return query
}

func (r *applicationRepository) List(ctx context.Context, filter ApplicationFilter) ([]models.Application, int64, error) {
	query := r.filtered(ctx, filter)

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order, ok := applicationSorts[filter.Sort]
	if !ok {
		order = applicationSorts[""]
	}
	query = query.Order(order)

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var apps []models.Application
	if err := query.Find(&apps).Error; err != nil {
		return nil, 0, err
	}

	return apps, total, nil
}

func (r *applicationRepository) Count(ctx context.Context, filter ApplicationFilter) (int64, error) {
	var total int64
	err := r.filtered(ctx, filter).Count(&total).Error
	return total, err
}

func (r *applicationRepository) CountByStatus(ctx context.Context) (map[models.ApplicationStatus]int64, error) {
	var rows []struct {
		Status models.ApplicationStatus
		Total  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.ApplicationStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

// ApplyDecision writes the new status, the society record and the activity entry
// in one transaction. The update only lands if the application is still at
// PreviousStatus.
func (r *applicationRepository) ApplyDecision(ctx context.Context, decision Decision) error {
	app := decision.Application
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Application{}).
			Where("id = ? AND status = ?", app.ID, decision.PreviousStatus).
			Updates(map[string]interface{}{
				"status":           app.Status,
				"rejection_reason": app.RejectionReason,
				"dean_approved_at": app.DeanApprovedAt,
				"ar_approved_at":   app.ARApprovedAt,
				"vc_approved_at":   app.VCApprovedAt,
				"approved_at":      app.ApprovedAt,
				"updated_at":       app.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStatusChanged
		}

		if decision.Society != nil {
			if decision.Society.ID == 0 {
				if err := tx.Create(decision.Society).Error; err != nil {
					return err
				}
			} else if err := tx.Save(decision.Society).Error; err != nil {
				return err
			}
		}

		if decision.Activity != nil {
			if err := tx.Create(decision.Activity).Error; err != nil {
				return err
			}
		}

		return nil
	})
}
