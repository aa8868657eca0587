package store

import (
	"fmt"

	"resumetrack/internal/errors"
	"resumetrack/internal/ledger"
	"resumetrack/internal/quota"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect opens a postgres-backed gorm handle. gorm's own logger is silenced;
// storage failures surface through the application error path instead.
func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStorageUnavailable,
			fmt.Sprintf("database connection failed: %v", err), err)
	}
	return gdb, nil
}

// AutoMigrateAndIndexes creates or updates the schema for every persisted
// model, then applies the indexes gorm tags cannot express.
func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&quota.UserQuota{},
		&ledger.Analysis{},
		&ledger.Version{},
		&ledger.Suggestion{},
	); err != nil {
		return fmt.Errorf("auto-migrate failed: %w", err)
	}

	// One version number per analysis, enforced at the storage layer even
	// though append serializes behind a row lock.
	if err := gdb.Exec(`create unique index if not exists uq_versions_analysis_number on analysis_versions(analysis_id, number);`).Error; err != nil {
		return fmt.Errorf("index exec failed: %w", err)
	}

	stmts := []string{
		`create index if not exists idx_analyses_user_status on analyses(user_id, status);`,
		`create index if not exists idx_suggestions_analysis_priority on analysis_suggestions(analysis_id, priority) where not implemented;`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
