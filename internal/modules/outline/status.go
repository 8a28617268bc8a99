package outline

import (
	"context"
	"errors"

	"github.com/presenton/core/internal/models"
	"github.com/presenton/core/internal/pkg/pagination"
	"github.com/presenton/core/internal/pkg/response"
	"github.com/presenton/core/internal/pkg/runledger"
)

const (
	StatusCompleted  = "completed"
	StatusGenerating = "generating"
)

// OutlineStatus is the polling view of a presentation's outline.
type OutlineStatus struct {
	ID     string                `json:"id"`
	Status string                `json:"status"`
	Slides []models.SlideOutline `json:"slides"`
	Title  *string               `json:"title"`
}

// GetStatus reports whether the outline is ready. It never writes.
func (s *Service) GetStatus(ctx context.Context, id string) (*OutlineStatus, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &OutlineStatus{
		ID:     p.ID,
		Status: StatusGenerating,
		Slides: []models.SlideOutline{},
		Title:  p.Title,
	}
	if p.Outlines != nil {
		out.Status = StatusCompleted
		if p.Outlines.Slides != nil {
			out.Slides = p.Outlines.Slides
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.PresentationModel, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, q pagination.Query) ([]models.PresentationModel, response.Pagination, error) {
	return s.store.List(ctx, q)
}

func (s *Service) Create(ctx context.Context, dto CreatePresentationDTO) (*models.PresentationModel, error) {
	p := dto.toModel()
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

var ErrLedgerDisabled = errors.New("run ledger is not configured")

// Runs lists recent stream invocations for a presentation.
func (s *Service) Runs(ctx context.Context, id string, limit int) ([]*runledger.Run, error) {
	if s.ledger == nil {
		return nil, ErrLedgerDisabled
	}
	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.ledger.List(ctx, id, limit)
}
