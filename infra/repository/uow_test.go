package repository

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/amirasaad/crowdpledge/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	dialector := postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestUoW_DoAndGetRepository(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)
	db, mock := newMockDB(t)
	uow := NewUoW(db, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := uow.Do(context.Background(), func(txUow repository.UnitOfWork) error {
		repoAny, err := txUow.GetRepository(reflect.TypeOf((*repository.TransactionRepository)(nil)).Elem())
		require.NoError(err)
		_, ok := repoAny.(*transactionRepository)
		assert.True(ok)

		projects, err := txUow.ProjectRepository()
		require.NoError(err)
		_, ok = projects.(*projectRepository)
		assert.True(ok)

		rewards, err := txUow.RewardRepository()
		require.NoError(err)
		_, ok = rewards.(*rewardRepository)
		assert.True(ok)

		payouts, err := txUow.PayoutRepository()
		require.NoError(err)
		_, ok = payouts.(*payoutRepository)
		assert.True(ok)
		return nil
	})
	assert.NoError(err)
	assert.NoError(mock.ExpectationsWereMet())
}

func TestUoW_RollbackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	uow := NewUoW(db, nil)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := uow.Do(context.Background(), func(repository.UnitOfWork) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUoW_UnsupportedRepository(t *testing.T) {
	db, _ := newMockDB(t)
	uow := NewUoW(db, nil)

	_, err := uow.GetRepository(reflect.TypeOf((*error)(nil)).Elem())
	assert.Error(t, err)
}

func TestTransactionRepository_UpdateStatus(t *testing.T) {
	require := require.New(t)
	db, mock := newMockDB(t)
	repo := NewTransactionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "pledge_transactions" SET "txn_status"=\$1,"updated_at"=\$2 WHERE id = \$3`).
		WithArgs("canceled", sqlmock.AnyArg(), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(repo.UpdateStatus(context.Background(), 9, "canceled"))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "pledge_transactions"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	err := repo.UpdateStatus(context.Background(), 10, "canceled")
	require.Error(err)
	require.NoError(mock.ExpectationsWereMet())
}
