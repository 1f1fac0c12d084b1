package pledge

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentSession binds a checkout attempt to a pledge intent.
type PaymentSession struct {
	ID         string          `json:"id"`
	InvestorID int64           `json:"investor_id"`
	ProjectID  int64           `json:"project_id"`
	RewardID   int64           `json:"reward_id"`
	Amount     decimal.Decimal `json:"amount"`
	Anonymous  bool            `json:"anonymous"`
	CreatedAt  time.Time       `json:"created_at"`
}

// EffectiveRewardID is the reward attached to the pledge. Anonymous pledges
// never carry a reward.
func (s *PaymentSession) EffectiveRewardID() int64 {
	if s.Anonymous {
		return 0
	}
	return s.RewardID
}
