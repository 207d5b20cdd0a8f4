package database

import (
	"fmt"
	"strings"
	"time"

	"collectibles-vault/internal/logger"
	"collectibles-vault/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Driver names returned by Dialect.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Dialect picks a driver from the DSN and strips any scheme the driver does not accept.
func Dialect(databaseURL string) (driver, dsn string) {
	raw := strings.TrimSpace(databaseURL)
	lower := strings.ToLower(raw)
	switch {
	case raw == "", lower == ":memory:":
		return DriverSQLite, ":memory:"
	case strings.HasPrefix(lower, "sqlite://"):
		return DriverSQLite, raw[len("sqlite://"):]
	case strings.HasPrefix(lower, "file:"), strings.HasSuffix(lower, ".db"):
		return DriverSQLite, raw
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return DriverPostgres, raw
	case strings.HasPrefix(lower, "mysql://"):
		return DriverMySQL, raw[len("mysql://"):]
	default:
		return DriverMySQL, raw
	}
}

func Initialize(databaseURL string, log *logger.Logger) (*gorm.DB, error) {
	log = logger.OrNop(log)
	driver, dsn := Dialect(databaseURL)

	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(withBusyTimeout(dsn))
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		dialector = mysql.Open(withMySQLDefaults(dsn))
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if driver == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := Migrate(db, log); err != nil {
		return nil, err
	}
	log.Info("database initialized", "driver", driver)
	return db, nil
}

// Migrate creates the catalog tables and the identifier lookup indexes.
func Migrate(db *gorm.DB, log *logger.Logger) error {
	log = logger.OrNop(log)
	if err := db.AutoMigrate(&models.CatalogEntry{}, &models.PriceSnapshot{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	if err := ensureIdentifierIndexes(db, log); err != nil {
		log.Warn("migration warning", "error", err.Error())
	}
	return nil
}

// ensureIdentifierIndexes adds a lookup index on every denormalized
// identifier column that lacks one, for tables created before the columns existed.
func ensureIdentifierIndexes(db *gorm.DB, log *logger.Logger) error {
	m := db.Migrator()
	for _, field := range models.IdentifierFields {
		if !m.HasColumn(&models.CatalogEntry{}, field) {
			if err := m.AddColumn(&models.CatalogEntry{}, field); err != nil {
				return fmt.Errorf("add column %s: %w", field, err)
			}
			log.Info("added identifier column", "field", field)
		}
		if m.HasIndex(&models.CatalogEntry{}, field) {
			continue
		}
		if err := m.CreateIndex(&models.CatalogEntry{}, field); err != nil {
			return fmt.Errorf("create index for %s: %w", field, err)
		}
		log.Info("created identifier index", "field", field)
	}
	return nil
}

func withBusyTimeout(dsn string) string {
	if dsn == ":memory:" || strings.Contains(dsn, "_pragma=busy_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)"
}

func withMySQLDefaults(dsn string) string {
	if strings.Contains(dsn, "parseTime=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "charset=utf8mb4&parseTime=True&loc=Local"
}
