package repository

import (
	"context"

	"github.com/amirasaad/crowdpledge/pkg/domain"
	"github.com/amirasaad/crowdpledge/pkg/domain/pledge"
	"github.com/amirasaad/crowdpledge/pkg/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a project repository on db.
func NewProjectRepository(db *gorm.DB) repository.ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Get(ctx context.Context, id int64) (*pledge.Project, error) {
	var m Project
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	}); err != nil {
		return nil, err
	}
	return &pledge.Project{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Title:       m.Title,
		Slug:        m.Slug,
		CatSlug:     m.CatSlug,
		FundingType: pledge.FundingType(m.FundingType),
		Goal:        m.Goal,
		Funded:      m.Funded,
		Published:   m.Published,
		Approved:    m.Approved,
	}, nil
}

// AddFunds increments funded in SQL so concurrent pledges never overwrite
// each other.
func (r *projectRepository) AddFunds(ctx context.Context, id int64, amount decimal.Decimal) error {
	res := r.db.WithContext(ctx).
		Model(&Project{}).
		Where("id = ?", id).
		Update("funded", gorm.Expr("funded + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
