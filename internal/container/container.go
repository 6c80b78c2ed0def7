package container

import (
	"context"
	"fmt"

	"gosigma/adapters/postgres"
	"gosigma/adapters/report"
	"gosigma/app"
	"gosigma/internal"
	"gosigma/internal/config"
	"gosigma/internal/errors"
	"gosigma/internal/migration"
	"gosigma/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure; nil when persistence is disabled
	DB *sqlx.DB

	AnalysisRepo ports.AnalysisRepository
	Reports      ports.ReportRenderer
	Service      *app.AnalysisService
}

// New creates a container without touching the database. Call Init before use.
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Container{
		Config:  cfg,
		Logger:  logger,
		Reports: report.NewRenderer(),
	}, nil
}

// Init connects and migrates the database when one is configured, then builds the service
func (c *Container) Init(ctx context.Context) error {
	if c.Config.Database.Enabled() {
		db, err := sqlx.ConnectContext(ctx, "postgres", c.Config.Database.URL)
		if err != nil {
			return errors.DatabaseError("failed to connect to database", err)
		}
		db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
		db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
		if err := c.InitWithDatabase(ctx, db); err != nil {
			db.Close()
			return err
		}
	} else {
		c.Logger.Info("DATABASE_URL not set, analyses will not be persisted")
	}

	c.Service = app.NewAnalysisService(c.AnalysisRepo, c.Config.Analysis, c.Logger)
	return nil
}

// InitWithDatabase migrates an open connection and builds the repositories on it
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	if err := db.PingContext(ctx); err != nil {
		return errors.DatabaseError("database connection test failed", err)
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(ctx, db); err != nil {
		return errors.Wrap(err, "database migration failed")
	}

	c.DB = db
	c.AnalysisRepo = postgres.NewAnalysisRepository(db)
	c.Logger.Info("Analysis storage ready (schema %s)", migrator.Version())
	return nil
}

// Shutdown releases the database connection
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
