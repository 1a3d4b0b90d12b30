// Package app builds the punch clock services from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"axiapac.com/punchclock/auth"
	"axiapac.com/punchclock/camera"
	"axiapac.com/punchclock/config"
	"axiapac.com/punchclock/core"
	"axiapac.com/punchclock/infrastructure/communication"
	"axiapac.com/punchclock/infrastructure/email"
	"axiapac.com/punchclock/infrastructure/filesystem"
	"axiapac.com/punchclock/kv"
	"axiapac.com/punchclock/model"
	"axiapac.com/punchclock/punch"
	"axiapac.com/punchclock/report"
	"axiapac.com/punchclock/security"
	"axiapac.com/punchclock/store"
	"axiapac.com/punchclock/web"
	"axiapac.com/punchclock/web/metrics"
)

// DemoEmployee is created by seeding when no employee file is given.
var DemoEmployee = model.Employee{ID: "1", PhoneNumber: "9876543210", Name: "Ramesh", Pin: "1234"}

type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    *store.RecordStore
	Auth     *auth.Service
	Punch    *punch.Machine
	Notifier communication.Notifier
	Sinks    []report.Sink

	kv       kv.Store
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	closers  []func() error
}

// New connects every configured backend. Close releases them.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	kvStore, err := a.openStorage(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.kv = kvStore
	a.Store = store.New(kvStore, cfg.Location())

	tokens, err := security.NewTokenIssuer(cfg.Security.TokenSecret, cfg.Security.TokenTTL)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Auth = auth.NewService(a.Store, tokens, logger)

	a.Notifier = communication.LogNotifier{Logger: logger}
	if cfg.Slack.Token != "" {
		a.Notifier = communication.NewSlack(cfg.Slack.Token, communication.SlackOption{
			InfoChannelID:  cfg.Slack.InfoChannel,
			ErrorChannelID: cfg.Slack.ErrorChannel,
		})
	}

	opts := punch.Options{
		LocationTimeout: cfg.Punch.LocationTimeout,
		Site:            cfg.Punch.Site,
		Notifier:        a.Notifier,
		Logger:          logger,
	}
	if cfg.Punch.PhotoBucket != "" {
		bucket, err := filesystem.Connect(ctx, cfg.Punch.PhotoBucket)
		if err != nil {
			a.Close()
			return nil, err
		}
		opts.Archive = camera.NewS3Archive(bucket, cfg.Punch.PhotoPrefix)
	}
	// Locations come from the client with each punch.
	a.Punch = punch.New(a.Store, nil, opts)

	if a.Sinks, err = a.exportSinks(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.registry)

	return a, nil
}

func (a *App) openStorage(ctx context.Context) (kv.Store, error) {
	sc := a.Config.Storage
	switch sc.Driver {
	case "memory":
		return kv.NewMemoryStore(), nil
	case "file":
		return kv.NewFileStore(sc.Path)
	case "mysql":
		dm, err := core.New(sc.DSN, sc.MaxConnections)
		if err != nil {
			return nil, err
		}
		dm.LogLevel = a.Config.LogLevel()
		a.closers = append(a.closers, dm.Close)
		return kv.NewGormStore(dm, sc.Schema), nil
	case "s3":
		bucket, err := filesystem.Connect(ctx, sc.Bucket)
		if err != nil {
			return nil, err
		}
		return kv.NewS3Store(bucket, sc.Prefix), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", sc.Driver)
}

func (a *App) exportSinks(ctx context.Context) ([]report.Sink, error) {
	ec := a.Config.Export
	var sinks []report.Sink
	if ec.Dir != "" {
		sinks = append(sinks, report.DirSink{Dir: ec.Dir})
	}
	if ec.Bucket != "" {
		bucket, err := filesystem.Connect(ctx, ec.Bucket)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, report.S3Sink{Bucket: bucket, Prefix: ec.Prefix})
	}
	if len(ec.EmailTo) > 0 {
		sender, err := email.Connect(ctx)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, report.EmailSink{Sender: sender, From: ec.EmailFrom, To: ec.EmailTo})
	}
	return sinks, nil
}

// Router returns the HTTP API.
func (a *App) Router() *gin.Engine {
	var accounts gin.Accounts
	if a.Config.Server.AdminUser != "" {
		accounts = gin.Accounts{a.Config.Server.AdminUser: a.Config.Server.AdminPassword}
	}
	return web.NewRouter(web.Dependencies{
		Auth:           a.Auth,
		Punch:          a.Punch,
		Store:          a.Store,
		Gatherer:       a.registry,
		Metrics:        a.metrics,
		AdminAccounts:  accounts,
		MaxUploadBytes: int64(a.Config.Server.MaxUploadMB) << 20,
		Logger:         a.Logger,
	})
}

// Migrate creates the storage schema. Only the mysql driver has one.
func (a *App) Migrate(ctx context.Context) error {
	gs, ok := a.kv.(*kv.GormStore)
	if !ok {
		a.Logger.Info("storage driver has no schema", "driver", a.Config.Storage.Driver)
		return nil
	}
	return gs.Migrate(ctx)
}

// Seed saves the employees, or the demo employee when none are given.
func (a *App) Seed(ctx context.Context, employees []model.Employee) error {
	if len(employees) == 0 {
		employees = []model.Employee{DemoEmployee}
	}
	for _, e := range employees {
		if err := a.Store.SaveEmployee(ctx, e); err != nil {
			return fmt.Errorf("failed to seed employee %s: %w", e.ID, err)
		}
		a.Logger.Info("employee saved", "employeeId", e.ID, "name", e.Name)
	}
	return nil
}

// Export builds the report for c and delivers it to sinks, or to the configured sinks when none are given.
func (a *App) Export(ctx context.Context, c report.Criteria, f report.Format, sinks ...report.Sink) (*report.Artifact, []string, error) {
	if len(sinks) == 0 {
		sinks = a.Sinks
	}
	if len(sinks) == 0 {
		return nil, nil, errors.New("no export destination configured")
	}

	r, err := report.Build(ctx, a.Store, c)
	if err != nil {
		return nil, nil, err
	}
	artifact, err := r.Export(f)
	if err != nil {
		return nil, nil, err
	}

	locations, err := report.Deliver(ctx, artifact, sinks...)
	if err != nil {
		if nerr := a.Notifier.Error(fmt.Sprintf("Attendance export %s failed: %v", artifact.Name, err)); nerr != nil {
			a.Logger.Warn("failed to send export notice", "error", nerr)
		}
		return artifact, locations, err
	}
	a.Logger.Info("attendance exported", "file", artifact.Name, "records", artifact.Stats.Records, "locations", locations)
	return artifact, locations, nil
}

func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}
