package store

import (
	"context"
	"fmt"
	"log"

	"github.com/example/realestate-chat/domain/chat"
	"github.com/example/realestate-chat/domain/user"
	"github.com/go-monolith/mono"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the store configuration.
type Config struct {
	Driver string
	DSN    string
	Seed   bool
	// HashPassword hashes the demo password when seeding. Nil falls back to bcrypt.DefaultCost.
	HashPassword func(password string) (string, error)
}

// Module owns the database connection and the repository.
type Module struct {
	config Config
	db     *gorm.DB
	repo   *Repository
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new store module.
func NewModule(config Config) *Module {
	if config.Driver == "" {
		config.Driver = DriverSQLite
	}
	if config.DSN == "" {
		config.DSN = "realestate_chat.db"
	}
	return &Module{config: config}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "store"
}

// Open connects to the database with the given driver.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows a single writer.
	if driver == DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database connection: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&user.User{},
		&chat.Listing{},
		&chat.ChatRoom{},
		&chat.Member{},
		&chat.Message{},
		&chat.Notification{},
	)
}

// Start opens the database and migrates the schema.
func (m *Module) Start(ctx context.Context) error {
	db, err := Open(m.config.Driver, m.config.DSN)
	if err != nil {
		return err
	}
	m.db = db

	if err := Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	m.repo = NewRepository(db)

	if m.config.Seed {
		if err := Seed(ctx, m.repo, m.config.HashPassword); err != nil {
			return fmt.Errorf("failed to seed database: %w", err)
		}
	}

	log.Printf("[store] Module started (driver: %s)", m.config.Driver)
	return nil
}

// Stop closes the database connection.
func (m *Module) Stop(_ context.Context) error {
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[store] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.repo == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	if err := m.repo.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": m.config.Driver,
		},
	}
}

// Repository returns the repository. It is nil until Start has run.
func (m *Module) Repository() *Repository {
	return m.repo
}
