package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/prevozkop/backend/config"
	"github.com/prevozkop/backend/errs"
	"github.com/prevozkop/backend/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrDuplicate is returned when a unique column (slug, email) already holds the value.
var ErrDuplicate = errors.New("duplicate key")

type Database struct {
	db               *gorm.DB
	adminRepo        *AdminRepo
	projectRepo      *ProjectRepo
	projectMediaRepo *ProjectMediaRepo
	productRepo      *ProductRepo
	orderRepo        *OrderRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		db:               db,
		adminRepo:        NewAdminRepo(db),
		projectRepo:      NewProjectRepo(db),
		projectMediaRepo: NewProjectMediaRepo(db),
		productRepo:      NewProductRepo(db),
		orderRepo:        NewOrderRepo(db),
	}
}

// Accessor methods for each repository

func (d Database) AdminRepo() *AdminRepo {
	return d.adminRepo
}

func (d Database) ProjectRepo() *ProjectRepo {
	return d.projectRepo
}

func (d Database) ProjectMediaRepo() *ProjectMediaRepo {
	return d.projectMediaRepo
}

func (d Database) ProductRepo() *ProductRepo {
	return d.productRepo
}

func (d Database) OrderRepo() *OrderRepo {
	return d.orderRepo
}

// Ping checks that the underlying connection pool is usable.
func (d Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Open connects to the configured driver. SQLite connections are limited to a
// single open connection so in-memory databases stay shared.
func Open(cfg config.Database) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.ConnectionString())
	case "postgres":
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.ConnectionString(),
			PreferSimpleProtocol: true,
		})
	case "sqlite":
		dialector = sqlite.Open(cfg.ConnectionString())
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             2 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		PrepareStmt:    false,
		Logger:         newLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	// Test database connection
	var result int
	if err := db.Raw("SELECT 1").Scan(&result).Error; err != nil {
		return nil, fmt.Errorf("test %s connection: %w", cfg.Driver, err)
	}
	return db, nil
}

// Models lists every table the application owns.
func Models() []any {
	return []any{
		&models.Admin{},
		&models.Project{},
		&models.ProjectMedia{},
		&models.Product{},
		&models.Order{},
	}
}

// Migrate creates or alters the schema to match the models.
func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(Models()...)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errs.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
