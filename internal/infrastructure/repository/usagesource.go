package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/spendwise/spendwise/internal/domain/user"
	"github.com/spendwise/spendwise/internal/infrastructure/persistence/models"
	"github.com/spendwise/spendwise/internal/shared/config"
	"github.com/spendwise/spendwise/internal/shared/db"
)

// UsageSource recounts tenant consumption from the tables that hold it.
// Records and storage come from product tables named in config; a table
// that is not configured or does not exist yet counts as zero.
type UsageSource struct {
	db  *gorm.DB
	cfg config.UsageSourceConfig
}

func NewUsageSource(db *gorm.DB, cfg config.UsageSourceConfig) (*UsageSource, error) {
	for _, name := range []string{cfg.RecordsTable, cfg.RecordsDateColumn, cfg.StorageTable, cfg.StorageSizeColumn} {
		if name != "" && !tableNamePattern.MatchString(name) {
			return nil, fmt.Errorf("invalid usage source identifier %q", name)
		}
	}
	return &UsageSource{db: db, cfg: cfg}, nil
}

func (s *UsageSource) CountActiveUsers(ctx context.Context, tenantID uint) (int64, error) {
	var n int64
	err := db.GetTxFromContext(ctx, s.db).Model(&models.UserModel{}).
		Scopes(db.ForTenant(tenantID)).
		Where("status = ?", string(user.StatusActive)).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count active users: %w", err)
	}
	return n, nil
}

func (s *UsageSource) CountRecords(ctx context.Context, tenantID uint, from, to time.Time) (int64, error) {
	tx := db.GetTxFromContext(ctx, s.db)
	if s.cfg.RecordsTable == "" || !tx.Migrator().HasTable(s.cfg.RecordsTable) {
		return 0, nil
	}
	query := tx.Table(s.cfg.RecordsTable).Scopes(db.ForTenant(tenantID))
	if col := s.cfg.RecordsDateColumn; col != "" {
		query = query.Where(tx.Statement.Quote(col)+" >= ? AND "+tx.Statement.Quote(col)+" < ?", from, to)
	}
	var n int64
	if err := query.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

func (s *UsageSource) SumStorageBytes(ctx context.Context, tenantID uint) (int64, error) {
	tx := db.GetTxFromContext(ctx, s.db)
	if s.cfg.StorageTable == "" || s.cfg.StorageSizeColumn == "" || !tx.Migrator().HasTable(s.cfg.StorageTable) {
		return 0, nil
	}
	var total int64
	err := tx.Table(s.cfg.StorageTable).
		Scopes(db.ForTenant(tenantID)).
		Select("COALESCE(SUM(" + tx.Statement.Quote(s.cfg.StorageSizeColumn) + "), 0)").
		Row().Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum storage bytes: %w", err)
	}
	return total, nil
}
