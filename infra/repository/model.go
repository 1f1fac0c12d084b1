package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a persisted pledge transaction.
type Transaction struct {
	ID              int64           `gorm:"primaryKey;autoIncrement"`
	TxnID           string          `gorm:"column:txn_id;type:varchar(64);uniqueIndex;not null"`
	ParentTxnID     string          `gorm:"column:parent_txn_id;type:varchar(64);index"`
	InvestorID      int64           `gorm:"index"`
	ReceiverID      int64           `gorm:"index"`
	ProjectID       int64           `gorm:"index;not null"`
	RewardID        *int64          `gorm:"column:reward_id"`
	Amount          decimal.Decimal `gorm:"column:txn_amount;type:decimal(20,4);not null"`
	Currency        string          `gorm:"column:txn_currency;type:varchar(3);not null"`
	Fee             decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	Status          string          `gorm:"column:txn_status;type:varchar(32);not null;default:'pending'"`
	Date            time.Time       `gorm:"column:txn_date"`
	ServiceProvider string          `gorm:"type:varchar(64)"`
	ServiceAlias    string          `gorm:"type:varchar(32)"`
	ExtraData       *string         `gorm:"type:text"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName specifies the table name for the Transaction model.
func (Transaction) TableName() string {
	return "pledge_transactions"
}

// TransactionServiceData holds the encrypted service-provider metadata of
// a transaction.
type TransactionServiceData struct {
	TransactionID int64  `gorm:"primaryKey;autoIncrement:false"`
	Data          string `gorm:"type:text;not null"`
	UpdatedAt     time.Time
}

// TableName specifies the table name for the TransactionServiceData model.
func (TransactionServiceData) TableName() string {
	return "pledge_transaction_service_data"
}

// Project represents a crowdfunding project record.
type Project struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	OwnerID     int64           `gorm:"index;not null"`
	Title       string          `gorm:"type:varchar(255);not null"`
	Slug        string          `gorm:"type:varchar(255)"`
	CatSlug     string          `gorm:"type:varchar(255)"`
	FundingType string          `gorm:"type:varchar(16);not null;default:'FIXED'"`
	Goal        decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	Funded      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	Published   bool
	Approved    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the table name for the Project model.
func (Project) TableName() string {
	return "projects"
}

// Reward represents a project reward record.
type Reward struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	ProjectID   int64           `gorm:"index;not null"`
	Title       string          `gorm:"type:varchar(255)"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	Number      int             `gorm:"not null;default:0"`
	Distributed int             `gorm:"not null;default:0"`
	Published   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the table name for the Reward model.
func (Reward) TableName() string {
	return "rewards"
}

// Payout represents a project owner's payout configuration. Tokens are
// stored encrypted.
type Payout struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	OwnerID        int64  `gorm:"uniqueIndex;not null"`
	TestAccountID  string `gorm:"type:varchar(64)"`
	LiveAccountID  string `gorm:"type:varchar(64)"`
	AccessToken    string `gorm:"type:text"`
	RefreshToken   string `gorm:"type:text"`
	TokenExpiresAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName specifies the table name for the Payout model.
func (Payout) TableName() string {
	return "payouts"
}

// Models lists every model managed by AutoMigrate.
func Models() []any {
	return []any{
		&Transaction{},
		&TransactionServiceData{},
		&Project{},
		&Reward{},
		&Payout{},
	}
}
