package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// sqliteFileName is the database file created under the cache root.
const sqliteFileName = "cache.db"

// sqliteRecord is one row of a namespace table.
type sqliteRecord struct {
	RecordKey string    `gorm:"column:record_key;primaryKey;size:64"`
	Data      []byte    `gorm:"column:data;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// OpenSQLite opens (creating if needed) the cache database under root.
func OpenSQLite(root string) (*gorm.DB, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(filepath.Join(root, sqliteFileName)), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	// SQLite allows one writer at a time; a single connection avoids
	// "database is locked" errors between pooled connections.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// SQLiteBackend stores one row per record in a per-namespace table. Several
// backends may share one *gorm.DB; the owner of the handle closes it.
type SQLiteBackend struct {
	db    *gorm.DB
	table string
}

// NewSQLiteBackend migrates table and returns a backend bound to it.
func NewSQLiteBackend(db *gorm.DB, table string) (*SQLiteBackend, error) {
	if db == nil {
		return nil, errors.New("cache database cannot be nil")
	}
	if table == "" {
		return nil, errors.New("cache table cannot be empty")
	}
	if err := db.Table(table).AutoMigrate(&sqliteRecord{}); err != nil {
		return nil, fmt.Errorf("migrating cache table %s: %w", table, err)
	}
	return &SQLiteBackend{db: db, table: table}, nil
}

// Read implements Backend.
func (b *SQLiteBackend) Read(key string) ([]byte, error) {
	var rec sqliteRecord
	err := b.db.Table(b.table).Where("record_key = ?", key).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to read cache row: %w", err)
	}
	return rec.Data, nil
}

// Write implements Backend with a single upsert statement.
func (b *SQLiteBackend) Write(key string, data []byte) error {
	rec := sqliteRecord{RecordKey: key, Data: data, UpdatedAt: time.Now()}
	err := b.db.Table(b.table).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "record_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to write cache row: %w", err)
	}
	return nil
}

// Delete implements Backend.
func (b *SQLiteBackend) Delete(key string) (bool, error) {
	res := b.db.Table(b.table).Where("record_key = ?", key).Delete(&sqliteRecord{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete cache row: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Scan implements Backend. Rows are loaded before fn runs so fn may delete.
func (b *SQLiteBackend) Scan(fn func(Record) error) error {
	var rows []sqliteRecord
	if err := b.db.Table(b.table).Order("record_key").Find(&rows).Error; err != nil {
		return fmt.Errorf("failed to scan cache table: %w", err)
	}
	for _, row := range rows {
		if err := fn(Record{Key: row.RecordKey, Data: row.Data, Size: int64(len(row.Data))}); err != nil {
			return err
		}
	}
	return nil
}

// Purge implements Backend.
func (b *SQLiteBackend) Purge() (int, error) {
	res := b.db.Table(b.table).Where("1 = 1").Delete(&sqliteRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge cache table: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

// Location implements Backend.
func (b *SQLiteBackend) Location() string {
	return "sqlite:" + b.table
}

// Close implements Backend. The shared database handle is not closed here.
func (b *SQLiteBackend) Close() error {
	return nil
}

// closeSQLite closes the underlying connection pool of db.
func closeSQLite(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
