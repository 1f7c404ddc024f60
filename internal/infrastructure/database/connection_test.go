package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/spendwise/spendwise/internal/shared/config"
)

func TestOpen_AppliesPoolSettings(t *testing.T) {
	cfg := &config.DatabaseConfig{MaxOpenConns: 3, MaxIdleConns: 1, ConnectRetries: 1}
	gdb, err := Open(context.Background(), sqlite.Open(":memory:"), cfg)
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	assert.Equal(t, 3, sqlDB.Stats().MaxOpenConnections)
	require.NoError(t, sqlDB.Close())
}

func TestOpen_GivesUpAfterRetries(t *testing.T) {
	cfg := &config.DatabaseConfig{ConnectRetries: 2}
	_, err := Open(context.Background(), sqlite.Open("/nonexistent-dir/x/y.db"), cfg)
	assert.Error(t, err)
}

func TestFilteredLogger_DropsSchemaProbes(t *testing.T) {
	assert.NotPanics(t, func() {
		(&filteredLogger{}).Printf("%s", "SELECT VERSION()")
		(&filteredLogger{}).Printf("%s", "slow sql >= 200ms")
	})
}

func TestClose_WithoutInit(t *testing.T) {
	assert.NoError(t, Close())
}
