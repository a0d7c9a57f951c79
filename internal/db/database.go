package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/intellexhq/intellex-backend/internal/logger"
	"github.com/intellexhq/intellex-backend/internal/types"
	"github.com/intellexhq/intellex-backend/internal/utils"
)

// DatabaseService owns the gorm handle. The backend is picked once at
// startup from STORAGE_DRIVER ("postgres" or "sqlite"); nothing downstream
// ever inspects which driver is active.
type DatabaseService struct {
	db     *gorm.DB
	driver string
	log    *logger.Logger
}

func NewDatabaseService(log *logger.Logger) (*DatabaseService, error) {
	serviceLog := log.With("service", "DatabaseService")

	driver := strings.ToLower(utils.GetEnv("STORAGE_DRIVER", "sqlite", log))

	var (
		gdb *gorm.DB
		err error
	)
	switch driver {
	case "postgres":
		gdb, err = openPostgres(log)
	case "sqlite":
		gdb, err = openSQLite(log)
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q (want postgres or sqlite)", driver)
	}
	if err != nil {
		serviceLog.Error("Failed to connect to database", "driver", driver, "error", err)
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	serviceLog.Info("Database connected", "driver", driver)
	return &DatabaseService{db: gdb, driver: driver, log: serviceLog}, nil
}

func openPostgres(log *logger.Logger) (*gorm.DB, error) {
	host := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	port := utils.GetEnv("POSTGRES_PORT", "5432", log)
	user := utils.GetEnv("POSTGRES_USER", "postgres", log)
	password := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	name := utils.GetEnv("POSTGRES_NAME", "intellex", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
}

func openSQLite(log *logger.Logger) (*gorm.DB, error) {
	// /tmp default keeps serverless deploys off read-only filesystems.
	path := utils.GetEnv("DB_PATH", "/tmp/intellex.db", log)
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := gdb.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return gdb, nil
}

// AutoMigrateAll runs once at boot; readiness is this call returning nil,
// not a cached flag checked per request.
func (s *DatabaseService) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...", "driver", s.driver)
	err := s.db.AutoMigrate(
		&types.User{},
		&types.ResearchProject{},
		&types.ResearchPlan{},
		&types.ChatMessage{},
		&types.ProjectShare{},
	)
	if err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

func (s *DatabaseService) DB() *gorm.DB {
	return s.db
}

func (s *DatabaseService) Driver() string {
	return s.driver
}

// Ping backs the healthcheck endpoint.
func (s *DatabaseService) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
