package outline

import (
	"context"
	"errors"

	"github.com/presenton/core/internal/models"
	"github.com/presenton/core/internal/pkg/pagination"
	"github.com/presenton/core/internal/pkg/response"
	"gorm.io/gorm"
)

var ErrPresentationNotFound = errors.New("presentation not found")

// Store persists presentations.
type Store interface {
	Get(ctx context.Context, id string) (*models.PresentationModel, error)
	Create(ctx context.Context, p *models.PresentationModel) error
	// List returns presentations newest first.
	List(ctx context.Context, q pagination.Query) ([]models.PresentationModel, response.Pagination, error)
	// SaveOutline writes the outline and title in one transaction.
	SaveOutline(ctx context.Context, p *models.PresentationModel) error
}

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Get(ctx context.Context, id string) (*models.PresentationModel, error) {
	var p models.PresentationModel
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPresentationNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *gormStore) Create(ctx context.Context, p *models.PresentationModel) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *gormStore) List(ctx context.Context, q pagination.Query) ([]models.PresentationModel, response.Pagination, error) {
	return pagination.Paginate[models.PresentationModel](ctx, s.db.Order("created_at desc"), q)
}

func (s *gormStore) SaveOutline(ctx context.Context, p *models.PresentationModel) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(p).Select("outlines", "title").Updates(p)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPresentationNotFound
		}
		return nil
	})
}
