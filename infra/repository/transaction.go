package repository

import (
	"context"
	"errors"

	"github.com/amirasaad/crowdpledge/pkg/domain"
	"github.com/amirasaad/crowdpledge/pkg/domain/pledge"
	"github.com/amirasaad/crowdpledge/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a transaction repository on db.
func NewTransactionRepository(db *gorm.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Get(ctx context.Context, id int64) (*pledge.Transaction, error) {
	var m Transaction
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, mapTransactionErr(err)
	}
	return mapTransactionModelToDomain(&m), nil
}

func (r *transactionRepository) GetByTxnID(
	ctx context.Context,
	txnID string,
	forUpdate bool,
) (*pledge.Transaction, error) {
	q := r.db.WithContext(ctx)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var m Transaction
	if err := q.Where("txn_id = ?", txnID).First(&m).Error; err != nil {
		return nil, mapTransactionErr(err)
	}
	return mapTransactionModelToDomain(&m), nil
}

func (r *transactionRepository) Create(ctx context.Context, txn *pledge.Transaction) error {
	m := mapTransactionDomainToModel(txn)
	m.ID = 0
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	}); err != nil {
		return err
	}
	txn.ID = m.ID
	return nil
}

func (r *transactionRepository) Update(ctx context.Context, txn *pledge.Transaction) error {
	m := mapTransactionDomainToModel(txn)
	res := r.db.WithContext(ctx).
		Model(&Transaction{}).
		Where("id = ?", txn.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(&m)
	if err := MapGormErrorToDomain(res.Error); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return pledge.ErrTransactionNotFound
	}
	return nil
}

func (r *transactionRepository) UpdateStatus(ctx context.Context, id int64, status pledge.Status) error {
	res := r.db.WithContext(ctx).
		Model(&Transaction{}).
		Where("id = ?", id).
		Update("txn_status", string(status))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pledge.ErrTransactionNotFound
	}
	return nil
}

func (r *transactionRepository) GetServiceData(ctx context.Context, id int64) (string, error) {
	var m TransactionServiceData
	err := r.db.WithContext(ctx).First(&m, "transaction_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return m.Data, nil
}

func (r *transactionRepository) SaveServiceData(ctx context.Context, id int64, blob string) error {
	m := TransactionServiceData{TransactionID: id, Data: blob}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "transaction_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&m).Error
}

func mapTransactionErr(err error) error {
	err = MapGormErrorToDomain(err)
	if errors.Is(err, domain.ErrNotFound) {
		return pledge.ErrTransactionNotFound
	}
	return err
}

// --- Mappers ---

func mapTransactionDomainToModel(txn *pledge.Transaction) Transaction {
	return Transaction{
		ID:              txn.ID,
		TxnID:           txn.TxnID,
		ParentTxnID:     txn.ParentTxnID,
		InvestorID:      txn.InvestorID,
		ReceiverID:      txn.ReceiverID,
		ProjectID:       txn.ProjectID,
		RewardID:        txn.RewardID,
		Amount:          txn.Amount,
		Currency:        txn.Currency,
		Fee:             txn.Fee,
		Status:          string(txn.Status),
		Date:            txn.Date,
		ServiceProvider: txn.ServiceProvider,
		ServiceAlias:    txn.ServiceAlias,
		ExtraData:       txn.ExtraData,
	}
}

func mapTransactionModelToDomain(m *Transaction) *pledge.Transaction {
	return &pledge.Transaction{
		ID:              m.ID,
		TxnID:           m.TxnID,
		ParentTxnID:     m.ParentTxnID,
		InvestorID:      m.InvestorID,
		ReceiverID:      m.ReceiverID,
		ProjectID:       m.ProjectID,
		RewardID:        m.RewardID,
		Amount:          m.Amount,
		Currency:        m.Currency,
		Fee:             m.Fee,
		Status:          pledge.Status(m.Status),
		Date:            m.Date,
		ServiceProvider: m.ServiceProvider,
		ServiceAlias:    m.ServiceAlias,
		ExtraData:       m.ExtraData,
	}
}
