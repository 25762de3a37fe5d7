package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	httpin "parceltrack/internal/adapters/in/http"
	"parceltrack/internal/adapters/out/kafka"
	"parceltrack/internal/adapters/out/mail"
	"parceltrack/internal/adapters/out/memory"
	"parceltrack/internal/adapters/out/postgres"
	"parceltrack/internal/adapters/out/realtime"
	"parceltrack/internal/adapters/out/s3store"
	"parceltrack/internal/core/application/usecases/commands"
	"parceltrack/internal/core/application/usecases/queries"
	"parceltrack/internal/core/ports"
	"parceltrack/internal/jobs"

	"github.com/redis/go-redis/v9"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// CompositionRoot owns every adapter the process runs with and builds the use case
// handlers on top of them.
type CompositionRoot struct {
	config Config
	logger *slog.Logger

	gormDB     *gorm.DB
	uowFactory ports.UnitOfWorkFactory
	parcels    ports.ParcelReader
	agents     ports.AgentReader

	hub       *realtime.Hub
	publisher ports.EventPublisher
	mailer    ports.Mailer
	artifacts ports.ArtifactStore

	runners []func(ctx context.Context) error
	closers []func() error
}

// OpenDatabase connects gorm to the configured PostgreSQL database.
func OpenDatabase(config Config) (*gorm.DB, error) {
	db, err := gorm.Open(pgdriver.Open(config.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

func NewCompositionRoot(ctx context.Context, config Config, logger *slog.Logger) (*CompositionRoot, error) {
	c := &CompositionRoot{config: config, logger: logger}

	if err := c.initStorage(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initNotifications(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *CompositionRoot) initStorage() error {
	switch c.config.StorageDriver {
	case StoragePostgres:
		db, err := OpenDatabase(c.config)
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		c.closers = append(c.closers, sqlDB.Close)

		c.gormDB = db
		c.uowFactory = postgres.NewGormUnitOfWorkFactory(db)
		c.parcels = postgres.NewParcelReader(db)
		c.agents = postgres.NewAgentReader(db)
	default:
		store := memory.NewStore()
		c.uowFactory = store
		c.parcels = store.Parcels()
		c.agents = store.Agents()
	}
	c.logger.Info("storage ready", "driver", c.config.StorageDriver)
	return nil
}

func (c *CompositionRoot) initNotifications(ctx context.Context) error {
	c.hub = realtime.NewHub(c.config.SubscriberBuffer, c.logger)

	var sinks realtime.Fanout
	switch c.config.RealtimeBridge {
	case BridgePostgres:
		sqlDB, err := c.gormDB.DB()
		if err != nil {
			return err
		}
		bridge, err := realtime.NewPgNotifyBridge(sqlDB, c.config.DSN(), realtime.DefaultNotifyChannel, c.hub, c.logger)
		if err != nil {
			return err
		}
		sinks = append(sinks, bridge)
		c.runners = append(c.runners, bridge.Run)
	case BridgeRedis:
		client := redis.NewClient(&redis.Options{Addr: c.config.RedisAddr})
		c.closers = append(c.closers, client.Close)
		bridge, err := realtime.NewRedisBridge(client, realtime.DefaultRedisChannel, c.hub, c.logger)
		if err != nil {
			return err
		}
		sinks = append(sinks, bridge)
		c.runners = append(c.runners, bridge.Run)
	default:
		sinks = append(sinks, c.hub)
	}

	if c.config.KafkaBrokers != "" {
		producer, err := kafka.NewParcelEventProducer(c.config.KafkaBrokers, c.config.KafkaParcelEventsTopic, c.logger)
		if err != nil {
			return err
		}
		c.closers = append(c.closers, producer.Close)
		sinks = append(sinks, producer)
	}
	c.publisher = sinks

	if c.config.SMTPHost != "" {
		mailer, err := mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     c.config.SMTPHost,
			Port:     c.config.SMTPPort,
			User:     c.config.SMTPUser,
			Password: c.config.SMTPPassword,
			From:     c.config.SMTPFrom,
		}, c.logger)
		if err != nil {
			return err
		}
		c.mailer = mailer
	} else {
		c.mailer = mail.NewLogMailer(c.logger)
	}

	if c.config.ExportS3Bucket != "" {
		store, err := s3store.NewArtifactStore(ctx, c.config.ExportS3Region, c.config.ExportS3Bucket, c.config.ExportS3Prefix)
		if err != nil {
			return err
		}
		c.artifacts = store
	}

	c.logger.Info("notifications ready",
		"bridge", c.config.RealtimeBridge,
		"kafka", c.config.KafkaBrokers != "",
		"smtp", c.config.SMTPHost != "",
		"exports", c.config.ExportS3Bucket != "")
	return nil
}

// Run keeps the realtime bridges attached until ctx ends.
func (c *CompositionRoot) Run(ctx context.Context) {
	for _, run := range c.runners {
		go func() {
			if err := run(ctx); err != nil {
				c.logger.Error("realtime bridge stopped", "error", err)
			}
		}()
	}
}

func (c *CompositionRoot) Close() error {
	var err error
	for i := len(c.closers) - 1; i >= 0; i-- {
		err = errors.Join(err, c.closers[i]())
	}
	c.closers = nil
	return err
}

func (c *CompositionRoot) Hub() *realtime.Hub {
	return c.hub
}

func (c *CompositionRoot) sideEffects() commands.SideEffects {
	return commands.NewSideEffects(c.publisher, c.mailer, c.logger)
}

func (c *CompositionRoot) CreateBookParcelCommandHandler() commands.BookParcelCommandHandler {
	var f commands.BookingUoWFactory = FuncBookingUoWFactory(func() commands.BookingUoW {
		return c.uowFactory.Create()
	})
	return commands.NewBookParcelCommandHandler(f, c.sideEffects())
}

func (c *CompositionRoot) CreateAssignAgentCommandHandler() commands.AssignAgentCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewAssignAgentCommandHandler(f, c.sideEffects())
}

func (c *CompositionRoot) CreateUpdateStatusCommandHandler() commands.UpdateStatusCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewUpdateStatusCommandHandler(f, c.sideEffects())
}

func (c *CompositionRoot) CreateCancelParcelCommandHandler() commands.CancelParcelCommandHandler {
	var f commands.ParcelUoWFactory = FuncParcelUoWFactory(func() commands.ParcelUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCancelParcelCommandHandler(f, c.sideEffects())
}

func (c *CompositionRoot) CreateReportLocationCommandHandler() commands.ReportLocationCommandHandler {
	var f commands.ParcelUoWFactory = FuncParcelUoWFactory(func() commands.ParcelUoW {
		return c.uowFactory.Create()
	})
	return commands.NewReportLocationCommandHandler(f, c.sideEffects())
}

func (c *CompositionRoot) CreateScanAndUpdateCommandHandler() commands.ScanAndUpdateCommandHandler {
	return commands.NewScanAndUpdateCommandHandler(c.parcels, c.CreateUpdateStatusCommandHandler())
}

func (c *CompositionRoot) CreateRegisterAgentCommandHandler() commands.RegisterAgentCommandHandler {
	var f commands.AgentUoWFactory = FuncAgentUoWFactory(func() commands.AgentUoW {
		return c.uowFactory.Create()
	})
	return commands.NewRegisterAgentCommandHandler(f)
}

func (c *CompositionRoot) CreateSetAgentActiveCommandHandler() commands.SetAgentActiveCommandHandler {
	var f commands.AgentUoWFactory = FuncAgentUoWFactory(func() commands.AgentUoW {
		return c.uowFactory.Create()
	})
	return commands.NewSetAgentActiveCommandHandler(f)
}

func (c *CompositionRoot) CreateExportParcelsCommandHandler() commands.ExportParcelsCommandHandler {
	return commands.NewExportParcelsCommandHandler(c.parcels, c.artifacts)
}

func (c *CompositionRoot) CreatePurgeIdempotencyKeysCommandHandler() commands.PurgeIdempotencyKeysCommandHandler {
	var f commands.IdempotencyUoWFactory = FuncIdempotencyUoWFactory(func() commands.IdempotencyUoW {
		return c.uowFactory.Create()
	})
	return commands.NewPurgeIdempotencyKeysCommandHandler(f)
}

func (c *CompositionRoot) CreateGetParcelQueryHandler() queries.GetParcelQueryHandler {
	return queries.NewGetParcelQueryHandler(c.parcels)
}

func (c *CompositionRoot) CreateListParcelsQueryHandler() queries.ListParcelsQueryHandler {
	return queries.NewListParcelsQueryHandler(c.parcels)
}

func (c *CompositionRoot) CreateGetParcelLocationQueryHandler() queries.GetParcelLocationQueryHandler {
	return queries.NewGetParcelLocationQueryHandler(c.parcels)
}

func (c *CompositionRoot) CreateVerifyQRQueryHandler() queries.VerifyQRQueryHandler {
	return queries.NewVerifyQRQueryHandler(c.parcels)
}

func (c *CompositionRoot) CreateListAgentsQueryHandler() queries.ListAgentsQueryHandler {
	return queries.NewListAgentsQueryHandler(c.agents)
}

func (c *CompositionRoot) CreateGetDashboardStatsQueryHandler() queries.GetDashboardStatsQueryHandler {
	return queries.NewGetDashboardStatsQueryHandler(c.parcels)
}

// CreateHTTPHandlers wires every use case the HTTP server exposes.
func (c *CompositionRoot) CreateHTTPHandlers() httpin.Handlers {
	return httpin.Handlers{
		BookParcel:     c.CreateBookParcelCommandHandler(),
		AssignAgent:    c.CreateAssignAgentCommandHandler(),
		UpdateStatus:   c.CreateUpdateStatusCommandHandler(),
		CancelParcel:   c.CreateCancelParcelCommandHandler(),
		ReportLocation: c.CreateReportLocationCommandHandler(),
		ScanAndUpdate:  c.CreateScanAndUpdateCommandHandler(),
		RegisterAgent:  c.CreateRegisterAgentCommandHandler(),
		SetAgentActive: c.CreateSetAgentActiveCommandHandler(),
		ExportParcels:  c.CreateExportParcelsCommandHandler(),

		GetParcel:         c.CreateGetParcelQueryHandler(),
		ListParcels:       c.CreateListParcelsQueryHandler(),
		GetParcelLocation: c.CreateGetParcelLocationQueryHandler(),
		VerifyQR:          c.CreateVerifyQRQueryHandler(),
		ListAgents:        c.CreateListAgentsQueryHandler(),
		GetDashboardStats: c.CreateGetDashboardStatsQueryHandler(),
	}
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(
		c.CreatePurgeIdempotencyKeysCommandHandler(),
		c.config.IdempotencyTTL,
		c.config.IdempotencyPurgeSchedule,
		c.logger,
	)
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}

type FuncBookingUoWFactory func() commands.BookingUoW

func (f FuncBookingUoWFactory) Create() commands.BookingUoW {
	return f()
}

type FuncParcelUoWFactory func() commands.ParcelUoW

func (f FuncParcelUoWFactory) Create() commands.ParcelUoW {
	return f()
}

type FuncAgentUoWFactory func() commands.AgentUoW

func (f FuncAgentUoWFactory) Create() commands.AgentUoW {
	return f()
}

type FuncIdempotencyUoWFactory func() commands.IdempotencyUoW

func (f FuncIdempotencyUoWFactory) Create() commands.IdempotencyUoW {
	return f()
}
