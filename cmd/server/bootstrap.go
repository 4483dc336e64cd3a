package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/teamflow/internal/api"
	"github.com/charlesng35/teamflow/internal/app"
	"github.com/charlesng35/teamflow/internal/app/maintenance"
	"github.com/charlesng35/teamflow/internal/database"
	"github.com/charlesng35/teamflow/internal/messaging"
	"github.com/charlesng35/teamflow/internal/monitoring"
	"github.com/charlesng35/teamflow/internal/monitoring/checks"
	"github.com/charlesng35/teamflow/internal/realtime"
	"github.com/charlesng35/teamflow/internal/scope"
	"github.com/charlesng35/teamflow/internal/services"
	"github.com/charlesng35/teamflow/internal/succession"
	"github.com/charlesng35/teamflow/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB      *gorm.DB
	Redis   *messaging.RedisPublisher
	Hub     *realtime.Hub
	Scope   *scope.Scope
	Tasks   *services.TaskService
	Cleaner *maintenance.Cleaner
	Health  *monitoring.HealthManager
	Router  *gin.Engine

	cancel  context.CancelFunc
	workers sync.WaitGroup
}

// bootstrapRuntime initialises the database, the succession graph, event
// transports, background jobs and the HTTP router. Goroutines it starts run
// until Shutdown or until ctx is cancelled.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	ctx, cancel := context.WithCancel(ctx)
	stack := &runtimeStack{cancel: cancel}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	stack.Hub = realtime.NewHub(realtime.WithAllowedOrigins(cfg.Server.AllowedOrigins...))
	publishers := services.Publishers{stack.Hub}

	if cfg.Cache.Redis.Enabled {
		if stack.Redis, err = messaging.NewRedisPublisher(cfg.RedisSettings()); err != nil {
			log.Warn("redis unavailable; events stay local to this instance", zap.Error(err))
			stack.Redis = nil
		} else {
			log.Info("redis connected",
				zap.String("addr", cfg.Cache.Redis.Address),
				zap.String("channel", stack.Redis.Channel()),
			)
			publishers = append(publishers, stack.Redis)
		}
	}

	auditSvc, err := services.NewAuditService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise audit service: %w", err)
	}

	teamSvc, err := services.NewTeamService(stack.DB, auditSvc)
	if err != nil {
		return nil, fmt.Errorf("initialise team service: %w", err)
	}

	stack.Tasks, err = services.NewTaskService(stack.DB, succession.NewGraph(), teamSvc, auditSvc, publishers)
	if err != nil {
		return nil, fmt.Errorf("initialise task service: %w", err)
	}
	if err := stack.Tasks.Reload(ctx); err != nil {
		return nil, fmt.Errorf("load succession graph: %w", err)
	}

	scopeSvc, err := services.NewScopeService(teamSvc, auditSvc, publishers)
	if err != nil {
		return nil, fmt.Errorf("initialise scope service: %w", err)
	}

	stack.Scope = scope.New()
	stack.goRun(func() { scopeSvc.Relay(ctx, stack.Scope) })

	if stack.Redis != nil {
		redis := stack.Redis
		stack.goRun(func() {
			if err := redis.Relay(ctx, stack.Hub); err != nil {
				log.Warn("redis relay stopped", zap.Error(err))
			}
		})
	}

	tracker := monitoring.NewJobTracker()
	if cfg.Maintenance.Enabled {
		stack.Cleaner = maintenance.NewCleaner(stack.Tasks, auditSvc,
			maintenance.WithTracker(tracker),
			maintenance.WithIntegritySchedule(cfg.Maintenance.IntegritySchedule),
			maintenance.WithAuditSchedule(cfg.Maintenance.AuditSchedule),
			maintenance.WithAuditRetentionDays(cfg.Maintenance.AuditRetentionDays),
		)
		if err := stack.Cleaner.SweepIntegrity(ctx); err != nil {
			log.Warn("initial integrity sweep failed", zap.Error(err))
		}
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	stack.Health = buildHealthManager(cfg, stack, tracker)

	stack.Router, err = api.NewRouter(api.Dependencies{
		Config: cfg,
		Scope:  stack.Scope,
		Teams:  teamSvc,
		Tasks:  stack.Tasks,
		Scopes: scopeSvc,
		Audit:  auditSvc,
		Hub:    stack.Hub,
		Health: stack.Health,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

func buildHealthManager(cfg *app.Config, stack *runtimeStack, tracker *monitoring.JobTracker) *monitoring.HealthManager {
	manager := monitoring.NewHealthManager()

	var sweep checks.ViolationCounter
	if stack.Cleaner != nil {
		sweep = stack.Cleaner
	}
	manager.RegisterLiveness(checks.Graph(stack.Tasks.Graph(), sweep))

	manager.RegisterReadiness(checks.Database(stack.DB, 0))
	var redis checks.RedisPinger
	if stack.Redis != nil {
		redis = stack.Redis
	}
	manager.RegisterReadiness(checks.Redis(redis, cfg.Cache.Redis.Enabled, cfg.Cache.Redis.Timeout))
	if cfg.Maintenance.Enabled {
		manager.RegisterReadiness(checks.Maintenance(tracker, cfg.Maintenance.JobGrace))
	}
	return manager
}

func (s *runtimeStack) goRun(fn func()) {
	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		fn()
	}()
}

// Shutdown stops relays and background jobs, then releases resources.
// Running maintenance jobs are awaited until ctx expires.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.cancel != nil {
		s.cancel()
	}
	if s.Hub != nil {
		s.Hub.Close()
	}

	if s.Cleaner != nil {
		select {
		case <-s.Cleaner.Stop().Done():
		case <-ctx.Done():
			log.Warn("maintenance jobs still running at shutdown")
		}
	}

	s.workers.Wait()

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn("redis shutdown", zap.Error(err))
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.DatabaseSettings()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	migrate := database.AutoMigrate
	if cfg.Features.SeedFixtures {
		migrate = database.AutoMigrateAndSeed
	}
	if err := migrate(db); err != nil {
		closeDatabase(db, logger.WithModule("database"))
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected",
		zap.String("driver", dbCfg.Driver),
		zap.Bool("fixtures", cfg.Features.SeedFixtures),
	)

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
