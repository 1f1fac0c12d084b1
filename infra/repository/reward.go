package repository

import (
	"context"

	"github.com/amirasaad/crowdpledge/pkg/domain"
	"github.com/amirasaad/crowdpledge/pkg/domain/pledge"
	"github.com/amirasaad/crowdpledge/pkg/repository"
	"gorm.io/gorm"
)

type rewardRepository struct {
	db *gorm.DB
}

// NewRewardRepository creates a reward repository on db.
func NewRewardRepository(db *gorm.DB) repository.RewardRepository {
	return &rewardRepository{db: db}
}

func (r *rewardRepository) Get(ctx context.Context, id int64) (*pledge.Reward, error) {
	var m Reward
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	}); err != nil {
		return nil, err
	}
	return &pledge.Reward{
		ID:          m.ID,
		ProjectID:   m.ProjectID,
		Title:       m.Title,
		Amount:      m.Amount,
		Number:      m.Number,
		Distributed: m.Distributed,
		Published:   m.Published,
	}, nil
}

func (r *rewardRepository) IncreaseDistributed(ctx context.Context, id int64, n int) error {
	res := r.db.WithContext(ctx).
		Model(&Reward{}).
		Where("id = ?", id).
		Update("distributed", gorm.Expr("distributed + ?", n))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
