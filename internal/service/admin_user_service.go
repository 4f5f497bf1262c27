package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/society-api/internal/dto"
	"github.com/noah-isme/society-api/internal/models"
	"github.com/noah-isme/society-api/internal/policy"
	"github.com/noah-isme/society-api/internal/repository"
	"github.com/noah-isme/society-api/internal/workflow"
)

var (
	// ErrAdminNotFound indicates the admin account does not exist or is inactive.
	ErrAdminNotFound = errors.New("admin account not found")
	// ErrAdminEmailTaken indicates an active admin already uses the email.
	ErrAdminEmailTaken = errors.New("admin email already registered")
)

// AdminUserService manages admin dashboard accounts.
type AdminUserService interface {
	Add(ctx context.Context, actor policy.Actor, req dto.AdminUserCreateRequest) (dto.AdminUserResponse, error)
	Remove(ctx context.Context, actor policy.Actor, req dto.AdminUserRemoveRequest) (dto.AdminUserResponse, error)
	List(ctx context.Context, actor policy.Actor) ([]dto.AdminUserResponse, error)
	Resolve(ctx context.Context, email string) (models.AdminUser, error)
}

type adminUserService struct {
	repo      repository.AdminUserRepository
	activity  ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAdminUserService constructs the admin account service.
func NewAdminUserService(repo repository.AdminUserRepository, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) AdminUserService {
	return &adminUserService{
		repo:      repo,
		activity:  activity,
		validator: validate,
		logger:    logger.With().Str("component", "admin_user_service").Logger(),
	}
}

func (s *adminUserService) Add(ctx context.Context, actor policy.Actor, req dto.AdminUserCreateRequest) (dto.AdminUserResponse, error) {
	if err := requireAdminManager(actor); err != nil {
		return dto.AdminUserResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.AdminUserResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil && existing.Active:
		return dto.AdminUserResponse{}, ErrAdminEmailTaken
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return dto.AdminUserResponse{}, err
	}

	user := models.AdminUser{
		Name:   strings.TrimSpace(req.Name),
		Email:  email,
		Role:   policy.ParseRole(req.Role),
		Active: true,
	}
	if user.Role == models.RoleDean {
		user.Faculty = strings.TrimSpace(req.Faculty)
	}

	if err == nil {
		// Email is unique, so a removed account is reactivated in place.
		user.ID = existing.ID
		user.CreatedAt = existing.CreatedAt
		if err := s.repo.Save(ctx, &user); err != nil {
			return dto.AdminUserResponse{}, err
		}
	} else if err := s.repo.Create(ctx, &user); err != nil {
		return dto.AdminUserResponse{}, err
	}

	s.record(ctx, actor, "admin added", user)
	return dto.NewAdminUserResponse(user), nil
}

func (s *adminUserService) Remove(ctx context.Context, actor policy.Actor, req dto.AdminUserRemoveRequest) (dto.AdminUserResponse, error) {
	if err := requireAdminManager(actor); err != nil {
		return dto.AdminUserResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.AdminUserResponse{}, err
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AdminUserResponse{}, ErrAdminNotFound
		}
		return dto.AdminUserResponse{}, err
	}
	if user.ID == actor.ID {
		return dto.AdminUserResponse{}, &workflow.ValidationError{Field: "email", Message: "you cannot remove your own account"}
	}

	if err := s.repo.Deactivate(ctx, user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AdminUserResponse{}, ErrAdminNotFound
		}
		return dto.AdminUserResponse{}, err
	}
	user.Active = false

	s.record(ctx, actor, "admin removed", user)
	return dto.NewAdminUserResponse(user), nil
}

func (s *adminUserService) List(ctx context.Context, actor policy.Actor) ([]dto.AdminUserResponse, error) {
	if err := requireAdminManager(actor); err != nil {
		return nil, err
	}
	users, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AdminUserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, dto.NewAdminUserResponse(user))
	}
	return out, nil
}

// Resolve returns the active admin account for an email.
func (s *adminUserService) Resolve(ctx context.Context, email string) (models.AdminUser, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.AdminUser{}, ErrAdminNotFound
		}
		return models.AdminUser{}, err
	}
	if !user.Active {
		return models.AdminUser{}, ErrAdminNotFound
	}
	return user, nil
}

func (s *adminUserService) record(ctx context.Context, actor policy.Actor, action string, user models.AdminUser) {
	if s.activity == nil {
		return
	}
	id := user.ID
	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		ActorRole:  policy.ParseRole(actor.Role),
		Action:     action,
		Target:     user.Name,
		EntityType: "admin_user",
		EntityID:   &id,
		Metadata: map[string]interface{}{
			"email": user.Email,
			"role":  user.Role,
		},
	}); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record admin activity")
	}
}

func requireAdminManager(actor policy.Actor) error {
	if !policy.CanManageAdmins(actor) {
		return &policy.AuthorizationError{Role: actor.Role, Reason: "only the assistant registrar can manage admin accounts"}
	}
	return nil
}
