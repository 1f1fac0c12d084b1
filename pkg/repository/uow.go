package repository

import (
	"context"
	"reflect"
)

// UnitOfWork defines the contract for transactional work and type-safe repository access.
//
// Repositories obtained from the UnitOfWork passed to Do share its database
// transaction, so everything written inside fn commits or rolls back together.
type UnitOfWork interface {
	// Do executes the given function within a transaction boundary.
	// If the function returns an error, the transaction is rolled back.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	// GetRepository returns a repository of the requested type, bound to the current transaction/session.
	// Example:
	//   repoAny, err := uow.GetRepository(reflect.TypeOf((*TransactionRepository)(nil)).Elem())
	//   repo := repoAny.(TransactionRepository)
	GetRepository(repoType reflect.Type) (any, error)

	TransactionRepository() (TransactionRepository, error)
	ProjectRepository() (ProjectRepository, error)
	RewardRepository() (RewardRepository, error)
	PayoutRepository() (PayoutRepository, error)
}
