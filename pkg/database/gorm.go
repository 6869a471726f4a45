package database

import (
	"io"
	"log"
	"os"
	"time"

	"content-editor-be/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newLogger(w io.Writer, level logger.LogLevel) logger.Interface {
	return logger.New(
		log.New(w, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true, // Ignore ErrRecordNotFound error for logger
			ParameterizedQueries:      true, // Don't include params in the SQL log
			Colorful:                  w == os.Stdout,
		},
	)
}

func configureConnectionPool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return nil
}

func NewGormDBFromDSN(dsn string) (*gorm.DB, error) {
	return open(dsn, newLogger(os.Stdout, logger.Info))
}

// NewQuietGormDB logs only warnings and errors, to stderr. Used where
// stdout belongs to a protocol (the MCP stdio server).
func NewQuietGormDB(dsn string) (*gorm.DB, error) {
	return open(dsn, newLogger(os.Stderr, logger.Warn))
}

func open(dsn string, l logger.Interface) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: l,
	})
	if err != nil {
		return nil, err
	}

	if err := configureConnectionPool(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Models lists every table the editor backend owns.
func Models() []interface{} {
	return []interface{}{
		&model.Content{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
