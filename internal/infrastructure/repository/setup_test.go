package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/infrastructure/persistence/models"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// every connection to :memory: is a fresh database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.TenantModel{},
		&models.TenantUsageModel{},
		&models.TenantDeletionModel{},
		&models.PlanModel{},
		&models.RoleModel{},
		&models.UserModel{},
		&models.ActivityModel{},
	)
	require.NoError(t, err)

	return db
}

func newTenantRepo(t *testing.T, db *gorm.DB, extra ...string) *TenantRepositoryImpl {
	repo, err := NewTenantRepository(db, extra, logger.NewNopLogger())
	require.NoError(t, err)
	return repo
}

func createTestTenant(t *testing.T, repo *TenantRepositoryImpl, slug string) *tenant.Tenant {
	tn, err := tenant.NewTenant(fmt.Sprintf("tnt_%s", slug), "Org "+slug, slug, "free",
		tenant.NewSettings(3, 100, 1<<20, []string{"reports"}), 0, testNow)
	require.NoError(t, err)
	require.NoError(t, repo.Create(t.Context(), tn))
	return tn
}
