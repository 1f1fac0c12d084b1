package repository

import (
	"context"
	"fmt"
	"reflect"

	"github.com/amirasaad/crowdpledge/pkg/domain/pledge"
	"github.com/amirasaad/crowdpledge/pkg/repository"
	"gorm.io/gorm"
)

// UoW provides transaction boundary and repository access in one abstraction.
// Repositories handed out inside Do share the transaction session.
type UoW struct {
	db           *gorm.DB
	tx           *gorm.DB
	cipher       pledge.Cipher
	repoRegistry map[reflect.Type]func(*gorm.DB, pledge.Cipher) any
}

// NewUoW creates a new UoW for the given *gorm.DB. cipher protects the
// payout tokens at rest.
func NewUoW(db *gorm.DB, cipher pledge.Cipher) *UoW {
	return &UoW{
		db:     db,
		cipher: cipher,
		repoRegistry: map[reflect.Type]func(*gorm.DB, pledge.Cipher) any{
			reflect.TypeOf((*repository.TransactionRepository)(nil)).Elem(): func(db *gorm.DB, _ pledge.Cipher) any {
				return NewTransactionRepository(db)
			},
			reflect.TypeOf((*repository.ProjectRepository)(nil)).Elem(): func(db *gorm.DB, _ pledge.Cipher) any {
				return NewProjectRepository(db)
			},
			reflect.TypeOf((*repository.RewardRepository)(nil)).Elem(): func(db *gorm.DB, _ pledge.Cipher) any {
				return NewRewardRepository(db)
			},
			reflect.TypeOf((*repository.PayoutRepository)(nil)).Elem(): func(db *gorm.DB, c pledge.Cipher) any {
				return NewPayoutRepository(db, c)
			},
		},
	}
}

// Do runs the given function in a transaction boundary, providing a UoW with repository access.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txnUow := &UoW{db: u.db, tx: tx, cipher: u.cipher, repoRegistry: u.repoRegistry}
		return fn(txnUow)
	})
}

// GetRepository provides type-safe access to repositories using the
// transaction session when inside Do and the plain session otherwise.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	constructor, ok := u.repoRegistry[repoType]
	if !ok {
		return nil, fmt.Errorf("unsupported repository type: %v", repoType)
	}
	return constructor(u.session(), u.cipher), nil
}

func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

// TransactionRepository returns the transaction repository.
func (u *UoW) TransactionRepository() (repository.TransactionRepository, error) {
	return getRepo[repository.TransactionRepository](u)
}

// ProjectRepository returns the project repository.
func (u *UoW) ProjectRepository() (repository.ProjectRepository, error) {
	return getRepo[repository.ProjectRepository](u)
}

// RewardRepository returns the reward repository.
func (u *UoW) RewardRepository() (repository.RewardRepository, error) {
	return getRepo[repository.RewardRepository](u)
}

// PayoutRepository returns the payout repository.
func (u *UoW) PayoutRepository() (repository.PayoutRepository, error) {
	return getRepo[repository.PayoutRepository](u)
}

func getRepo[T any](u *UoW) (T, error) {
	var zero T
	repoAny, err := u.GetRepository(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	repo, ok := repoAny.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected repository type %T", repoAny)
	}
	return repo, nil
}

var _ repository.UnitOfWork = (*UoW)(nil)
