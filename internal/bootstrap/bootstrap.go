// Package bootstrap assembles the store, engines and services from configuration.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"placetime/backend/internal/config"
	"placetime/backend/internal/db"
	"placetime/backend/internal/handler"
	"placetime/backend/internal/migrations"
	"placetime/backend/internal/repository"
	"placetime/backend/internal/rollover"
	"placetime/backend/internal/router"
	"placetime/backend/internal/service"
	"placetime/backend/internal/tracker"
	"placetime/backend/internal/week"
)

type App struct {
	Config   config.Config
	DB       *sql.DB
	Store    *repository.Store
	Calendar week.Calendar
	Rollover *rollover.Engine
	Feed     *tracker.Feed
	Tracker  *tracker.Tracker

	Auth     *service.AuthService
	Places   *service.PlaceService
	Goals    *service.GoalService
	Progress *service.ProgressService
	Tracking *service.TrackingService
}

// New opens the database, applies migrations and wires every component.
func New(cfg config.Config, logger *log.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	database, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	dialect := db.ParseDialect(cfg.DBDriver)
	if err := db.RunMigrations(database, dialect, migrations.FS, dialect.MigrationDir()); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	cal := week.NewCalendar(loc)
	store := repository.NewStore(database, dialect)
	engine := rollover.New(store, cal, time.Now, logger)
	progress := service.NewProgressService(store, engine, cal, time.Now)

	feed := tracker.NewFeed()
	placeTracker := tracker.New(store.Sessions, store.Places, tracker.Options{
		Source: feed,
		SourceOptions: tracker.SourceOptions{
			Interval:          cfg.FixInterval,
			MaxAccuracyMeters: cfg.MaxFixAccuracyMeters(),
		},
		Calendar: cal,
		Observer: progress,
		Logger:   logger,
	})

	return &App{
		Config:   cfg,
		DB:       database,
		Store:    store,
		Calendar: cal,
		Rollover: engine,
		Feed:     feed,
		Tracker:  placeTracker,
		Auth:     service.NewAuthService(store.Users, cfg.JWTSecret, cfg.TokenTTL),
		Places:   service.NewPlaceService(store.Places),
		Goals:    service.NewGoalService(store.Goals, engine, cal, time.Now),
		Progress: progress,
		Tracking: service.NewTrackingService(placeTracker, feed, store.Sessions, engine, cal, time.Now),
	}, nil
}

func (a *App) Handler() *gin.Engine {
	return router.New(a.Auth, router.Handlers{
		Auth:     handler.NewAuthHandler(a.Auth, a.Tracking),
		Place:    handler.NewPlaceHandler(a.Places),
		Goal:     handler.NewGoalHandler(a.Goals),
		Tracking: handler.NewTrackingHandler(a.Tracking),
		Progress: handler.NewProgressHandler(a.Progress),
	}, a.Config.CORSOrigins)
}

// Close stops every tracked owner, closing open sessions, then closes the database.
func (a *App) Close(ctx context.Context) error {
	return errors.Join(a.Tracker.Shutdown(ctx), a.DB.Close())
}
