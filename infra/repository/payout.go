package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/amirasaad/crowdpledge/pkg/domain/pledge"
	"github.com/amirasaad/crowdpledge/pkg/repository"
	"gorm.io/gorm"
)

type payoutRepository struct {
	db     *gorm.DB
	cipher pledge.Cipher
}

// NewPayoutRepository creates a payout repository on db. Tokens are sealed
// with cipher; a nil cipher stores them as given.
func NewPayoutRepository(db *gorm.DB, cipher pledge.Cipher) repository.PayoutRepository {
	return &payoutRepository{db: db, cipher: cipher}
}

func (r *payoutRepository) GetByOwner(ctx context.Context, ownerID int64) (*pledge.Payout, error) {
	var m Payout
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&m).Error
	}); err != nil {
		return nil, err
	}
	access, err := r.open(m.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("access token: %w", err)
	}
	refresh, err := r.open(m.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	p := &pledge.Payout{
		ID:            m.ID,
		OwnerID:       m.OwnerID,
		TestAccountID: m.TestAccountID,
		LiveAccountID: m.LiveAccountID,
		AccessToken:   access,
		RefreshToken:  refresh,
	}
	if m.TokenExpiresAt != nil {
		p.TokenExpiresAt = *m.TokenExpiresAt
	}
	return p, nil
}

func (r *payoutRepository) SaveTokens(ctx context.Context, p *pledge.Payout) error {
	access, err := r.seal(p.AccessToken)
	if err != nil {
		return fmt.Errorf("access token: %w", err)
	}
	refresh, err := r.seal(p.RefreshToken)
	if err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}
	var expires *time.Time
	if !p.TokenExpiresAt.IsZero() {
		t := p.TokenExpiresAt
		expires = &t
	}
	updates := map[string]any{
		"access_token":     access,
		"refresh_token":    refresh,
		"token_expires_at": expires,
	}
	if p.TestAccountID != "" {
		updates["test_account_id"] = p.TestAccountID
	}
	if p.LiveAccountID != "" {
		updates["live_account_id"] = p.LiveAccountID
	}
	res := r.db.WithContext(ctx).Model(&Payout{}).Where("id = ?", p.ID).Updates(updates)
	if err := MapGormErrorToDomain(res.Error); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("payout %d: %w", p.ID, gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *payoutRepository) seal(v string) (string, error) {
	if r.cipher == nil || v == "" {
		return v, nil
	}
	return r.cipher.Encrypt([]byte(v))
}

func (r *payoutRepository) open(v string) (string, error) {
	if r.cipher == nil || v == "" {
		return v, nil
	}
	raw, err := r.cipher.Decrypt(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
