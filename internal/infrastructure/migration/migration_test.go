package migration

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/spendwise/spendwise/internal/shared/constants"
)

func TestNewManager_PicksStrategyByMode(t *testing.T) {
	assert.Equal(t, "goose", NewManager("release").Strategy().GetName())
	assert.Equal(t, "gorm-automigrate", NewManager("debug").Strategy().GetName())
	assert.Equal(t, "gorm-automigrate", NewManager("test").Strategy().GetName())
}

func TestManager_AutoMigrateCreatesTables(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	m := NewManager("debug")
	require.NoError(t, m.Migrate(db))

	for _, table := range []string{
		constants.TableTenants, constants.TableTenantUsages, constants.TableTenantDeletions,
		constants.TablePlans, constants.TableRoles, constants.TableUsers, constants.TableActivities,
	} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	assert.Error(t, m.Status(db), "automigrate has no versions")
}

func TestEmbeddedScripts_CoverEveryTable(t *testing.T) {
	entries, err := fs.ReadDir(embeddedScripts, scriptsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	raw, err := fs.ReadFile(embeddedScripts, scriptsDir+"/"+entries[0].Name())
	require.NoError(t, err)
	sql := string(raw)

	assert.True(t, strings.Contains(sql, "-- +goose Up"))
	assert.True(t, strings.Contains(sql, "-- +goose Down"))
	for _, table := range []string{
		constants.TableTenants, constants.TableTenantUsages, constants.TableTenantDeletions,
		constants.TablePlans, constants.TableRoles, constants.TableUsers, constants.TableActivities,
		constants.TableCasbinRules,
	} {
		assert.Contains(t, sql, "CREATE TABLE "+table+" (", table)
	}
}
