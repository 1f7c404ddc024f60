package migration

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/spendwise/spendwise/internal/shared/logger"
)

// ScriptsPath is where new migrations are written, relative to the repo root.
const ScriptsPath = "./internal/infrastructure/migration/scripts"

// Manager handles database migrations with different strategies
type Manager struct {
	strategy Strategy
	logger   logger.Interface
}

// NewManager picks gorm AutoMigrate for debug and test modes and the goose
// scripts for release.
func NewManager(serverMode string) *Manager {
	var strategy Strategy
	if serverMode == "release" {
		strategy = NewGooseStrategy("mysql")
	} else {
		strategy = NewGormAutoMigrateStrategy()
	}
	return NewManagerWithStrategy(strategy)
}

func NewManagerWithStrategy(strategy Strategy) *Manager {
	return &Manager{
		strategy: strategy,
		logger:   logger.WithComponent("migration.manager"),
	}
}

func (m *Manager) Strategy() Strategy {
	return m.strategy
}

// Migrate executes the configured migration strategy
func (m *Manager) Migrate(db *gorm.DB) error {
	models := AutoMigrateModels()
	m.logger.Infow("starting database migration", "strategy", m.strategy.GetName(), "models_count", len(models))
	if err := m.strategy.Migrate(db, models...); err != nil {
		m.logger.Errorw("migration failed", "strategy", m.strategy.GetName(), "error", err)
		return fmt.Errorf("migration failed with strategy %s: %w", m.strategy.GetName(), err)
	}
	m.logger.Infow("database migration completed", "strategy", m.strategy.GetName())
	return nil
}

// goose returns the goose strategy or an error for managers built on another one.
func (m *Manager) goose() (*GooseStrategy, error) {
	g, ok := m.strategy.(*GooseStrategy)
	if !ok {
		return nil, fmt.Errorf("%s strategy does not support versioned migrations", m.strategy.GetName())
	}
	return g, nil
}

func (m *Manager) Down(db *gorm.DB, steps int) error {
	g, err := m.goose()
	if err != nil {
		return err
	}
	return g.MigrateDown(db, steps)
}

func (m *Manager) Status(db *gorm.DB) error {
	g, err := m.goose()
	if err != nil {
		return err
	}
	return g.Status(db)
}

func (m *Manager) Create(name string) error {
	g, err := m.goose()
	if err != nil {
		return err
	}
	return g.Create(ScriptsPath, name)
}
