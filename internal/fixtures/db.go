// Package fixtures provides database helpers shared by tests.
package fixtures

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/amirasaad/crowdpledge/infra/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a migrated in-memory sqlite database private to t.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(repository.Models()...))
	return db
}

// SeedProject inserts a published project owned by ownerID.
func SeedProject(t *testing.T, db *gorm.DB, id, ownerID int64, fundingType string) {
	t.Helper()
	require.NoError(t, db.Create(&repository.Project{
		ID:          id,
		OwnerID:     ownerID,
		Title:       fmt.Sprintf("Project %d", id),
		Slug:        fmt.Sprintf("project-%d", id),
		CatSlug:     "technology",
		FundingType: fundingType,
		Goal:        decimal.NewFromInt(10000),
		Published:   true,
		Approved:    true,
	}).Error)
}

// SeedReward inserts a published reward with number available units (0 for
// unlimited).
func SeedReward(t *testing.T, db *gorm.DB, id, projectID int64, number int) {
	t.Helper()
	require.NoError(t, db.Create(&repository.Reward{
		ID:        id,
		ProjectID: projectID,
		Title:     fmt.Sprintf("Reward %d", id),
		Amount:    decimal.NewFromInt(25),
		Number:    number,
		Published: true,
	}).Error)
}

// SeedPayout inserts a payout row with plaintext tokens.
func SeedPayout(t *testing.T, db *gorm.DB, p repository.Payout) {
	t.Helper()
	require.NoError(t, db.Create(&p).Error)
}

// ProjectFunded reads the current funding total of a project.
func ProjectFunded(t *testing.T, db *gorm.DB, id int64) decimal.Decimal {
	t.Helper()
	var p repository.Project
	require.NoError(t, db.First(&p, "id = ?", id).Error)
	return p.Funded
}
