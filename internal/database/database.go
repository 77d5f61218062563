package database

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/fediarchive/internal/database/accounts"
	"github.com/mrlokans/fediarchive/internal/entities"
)

// ErrAccountNotFound is returned when no account has the requested id.
var ErrAccountNotFound = accounts.ErrNotFound

type Database struct {
	DB *gorm.DB
}

type Option func(*gorm.Config)

// WithVerbose logs every SQL statement.
func WithVerbose(verbose bool) Option {
	return func(cfg *gorm.Config) {
		if verbose {
			cfg.Logger = logger.Default.LogMode(logger.Info)
		}
	}
}

// Models lists every table the archive store owns, in migration order.
func Models() []any {
	return []any{
		&entities.Account{},
		&entities.Post{},
		&entities.Like{},
		&entities.Bookmark{},
		&entities.Media{},
		&entities.ImportRecord{},
		&entities.ArchiveMetadata{},
		&entities.AuditEvent{},
	}
}

func NewDatabase(dbPath string, opts ...Option) (*Database, error) {
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate all entities
	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
