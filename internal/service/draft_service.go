package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/society-api/internal/dto"
	"github.com/noah-isme/society-api/internal/models"
	"github.com/noah-isme/society-api/internal/wizard"
)

// DraftService drives the server-held application wizard.
type DraftService interface {
	Create(ctx context.Context, req dto.DraftCreateRequest) (dto.DraftResponse, error)
	Get(ctx context.Context, id string) (dto.DraftResponse, error)
	Update(ctx context.Context, id string, req dto.DraftUpdateRequest) (dto.DraftResponse, error)
	Next(ctx context.Context, id string) (dto.DraftResponse, error)
	Prev(ctx context.Context, id string) (dto.DraftResponse, error)
	Submit(ctx context.Context, id string) (dto.DraftResponse, error)
}

type draftService struct {
	store     wizard.Store
	submitter wizard.Submitter
	logger    zerolog.Logger
	now       func() time.Time
}

// NewDraftService constructs the wizard service.
func NewDraftService(store wizard.Store, submitter wizard.Submitter, logger zerolog.Logger) DraftService {
	return &draftService{
		store:     store,
		submitter: submitter,
		logger:    logger.With().Str("component", "draft_service").Logger(),
		now:       time.Now,
	}
}

func (s *draftService) Create(ctx context.Context, req dto.DraftCreateRequest) (dto.DraftResponse, error) {
	w, err := wizard.New(uuid.NewString(), models.ApplicationKind(req.Kind), s.now().UTC())
	if err != nil {
		return dto.DraftResponse{}, err
	}
	if err := s.store.Save(ctx, w); err != nil {
		return dto.DraftResponse{}, err
	}
	return dto.NewDraftResponse(w), nil
}

func (s *draftService) Get(ctx context.Context, id string) (dto.DraftResponse, error) {
	w, err := s.store.Load(ctx, id)
	if err != nil {
		return dto.DraftResponse{}, err
	}
	return dto.NewDraftResponse(w), nil
}

func (s *draftService) Update(ctx context.Context, id string, req dto.DraftUpdateRequest) (dto.DraftResponse, error) {
	return s.mutate(ctx, id, func(w *wizard.Wizard, now time.Time) error {
		return w.Update(req.Fields, req.Lists, now)
	})
}

func (s *draftService) Next(ctx context.Context, id string) (dto.DraftResponse, error) {
	return s.mutate(ctx, id, func(w *wizard.Wizard, now time.Time) error {
		return w.Next(now)
	})
}

func (s *draftService) Prev(ctx context.Context, id string) (dto.DraftResponse, error) {
	return s.mutate(ctx, id, func(w *wizard.Wizard, now time.Time) error {
		w.Prev(now)
		return nil
	})
}

// submitLockTTL bounds how long a submit may hold a draft.
const submitLockTTL = 30 * time.Second

// Submit holds the draft lock for the whole load, submit and save so two
// concurrent calls cannot both see an unsubmitted draft.
func (s *draftService) Submit(ctx context.Context, id string) (dto.DraftResponse, error) {
	release, err := s.store.Lock(ctx, id, submitLockTTL)
	if err != nil {
		if errors.Is(err, wizard.ErrDraftLocked) {
			s.logger.Warn().Str("draft_id", id).Msg("concurrent draft submit rejected")
		}
		return dto.DraftResponse{}, err
	}
	defer release()

	return s.mutate(ctx, id, func(w *wizard.Wizard, now time.Time) error {
		err := w.Submit(ctx, s.submitter, now)
		if err == nil {
			s.logger.Info().Str("draft_id", w.ID).Uint("application_id", w.ApplicationID).Msg("draft submitted")
		}
		return err
	})
}

// mutate loads the wizard, applies fn and saves the result even when fn
// fails, so step errors and submit errors are kept for the next read.
func (s *draftService) mutate(ctx context.Context, id string, fn func(w *wizard.Wizard, now time.Time) error) (dto.DraftResponse, error) {
	w, err := s.store.Load(ctx, id)
	if err != nil {
		return dto.DraftResponse{}, err
	}

	opErr := fn(w, s.now().UTC())
	if errors.Is(opErr, wizard.ErrAlreadySubmitted) {
		return dto.NewDraftResponse(w), opErr
	}
	if err := s.store.Save(ctx, w); err != nil {
		return dto.DraftResponse{}, err
	}
	return dto.NewDraftResponse(w), opErr
}
