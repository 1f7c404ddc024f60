package http

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	appactivity "github.com/spendwise/spendwise/internal/application/activity"
	activityusecases "github.com/spendwise/spendwise/internal/application/activity/usecases"
	permissionapp "github.com/spendwise/spendwise/internal/application/permission"
	"github.com/spendwise/spendwise/internal/application/quota"
	"github.com/spendwise/spendwise/internal/application/subscription"
	"github.com/spendwise/spendwise/internal/application/tenancy"
	tenantapp "github.com/spendwise/spendwise/internal/application/tenant"
	tenantusecases "github.com/spendwise/spendwise/internal/application/tenant/usecases"
	userapp "github.com/spendwise/spendwise/internal/application/user"
	"github.com/spendwise/spendwise/internal/domain/shared/events"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/infrastructure/auth"
	"github.com/spendwise/spendwise/internal/infrastructure/cache"
	"github.com/spendwise/spendwise/internal/infrastructure/config"
	"github.com/spendwise/spendwise/internal/infrastructure/permission"
	"github.com/spendwise/spendwise/internal/infrastructure/pubsub"
	"github.com/spendwise/spendwise/internal/infrastructure/ratelimit"
	"github.com/spendwise/spendwise/internal/infrastructure/repository"
	"github.com/spendwise/spendwise/internal/infrastructure/scheduler"
	"github.com/spendwise/spendwise/internal/interfaces/http/handlers"
	adminhandlers "github.com/spendwise/spendwise/internal/interfaces/http/handlers/admin"
	"github.com/spendwise/spendwise/internal/interfaces/http/middleware"
	"github.com/spendwise/spendwise/internal/shared/db"
	"github.com/spendwise/spendwise/internal/shared/goroutine"
	"github.com/spendwise/spendwise/internal/shared/logger"
	"github.com/spendwise/spendwise/internal/shared/services/markdown"
)

const (
	policyReloadInterval = time.Minute
	maxUploadBytes       = 64 << 20
)

type repositories struct {
	tenants   *repository.TenantRepositoryImpl
	usage     *repository.TenantUsageRepositoryImpl
	deletions *repository.TenantDeletionRepositoryImpl
	plans     *repository.PlanRepositoryImpl
	roles     *repository.RoleRepositoryImpl
	users     *repository.UserRepositoryImpl
	activity  *repository.ActivityRepositoryImpl
	source    *repository.UsageSource
}

type services struct {
	tenants     *tenantapp.ServiceDDD
	users       *userapp.ServiceDDD
	permissions *permissionapp.Service
	plans       *subscription.ServiceDDD
	activity    *appactivity.ServiceDDD
	enforcer    *quota.Enforcer
	reconciler  *quota.Reconciler
	sweeper     *activityusecases.SweepActivitiesUseCase
	recorder    *appactivity.Recorder
	directory   *tenancy.Directory
	tenantCache *cache.TieredTenantCache
	sessions    *auth.JWTService
	hasher      *auth.BcryptPasswordHasher
	operatorACL *permission.OperatorACL
	rateLimiter ratelimit.Limiter
	tx          *db.TransactionManager
	markdownSvc markdown.MarkdownService
}

type allHandlers struct {
	health      *handlers.HealthHandler
	auth        *handlers.AuthHandler
	members     *handlers.MemberHandler
	roles       *handlers.RoleHandler
	activities  *handlers.ActivityHandler
	tenant      *handlers.TenantHandler
	adminTenant *adminhandlers.TenantHandler
	adminPlan   *adminhandlers.PlanHandler
}

// Container holds every long-lived dependency of the HTTP process, built in
// sections by NewContainer, and tears them down in Shutdown.
type Container struct {
	engine *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	log    logger.Interface
	redis  *redis.Client

	repos *repositories
	svcs  *services
	hdlrs *allHandlers

	dispatcher *events.InMemoryEventDispatcher
	eventBus   *pubsub.RedisTenantEventBus
	scheduler  *scheduler.SchedulerManager

	tenancyMiddleware *middleware.TenancyMiddleware
	guardMiddleware   *middleware.GuardMiddleware

	cancelSubscribers context.CancelFunc
}

// NewRedisClient connects to Redis or returns nil when Redis is disabled.
func NewRedisClient(ctx context.Context, cfg *config.Config, log logger.Interface) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		log.Infow("redis disabled, running with process-local cache and rate limits")
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Infow("redis connection established", "addr", cfg.Redis.GetAddr())
	return client, nil
}

// NewContainer wires the process. redisClient may be nil.
func NewContainer(cfg *config.Config, database *gorm.DB, redisClient *redis.Client, log logger.Interface) (*Container, error) {
	c := &Container{
		db:    database,
		cfg:   cfg,
		log:   log,
		redis: redisClient,
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"infrastructure", c.initInfrastructure},
		{"audit", c.initAudit},
		{"tenancy", c.initTenancy},
		{"services", c.initServices},
		{"scheduler", c.initScheduler},
		{"handlers", c.initHandlers},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return nil, fmt.Errorf("failed to initialize %s: %w", step.name, err)
		}
	}

	c.engine = gin.New()
	c.setupRoutes()
	return c, nil
}

// ============================================================
// Section 1: Infrastructure - repositories, auth, rate limiting
// ============================================================

func (c *Container) initInfrastructure() error {
	log := c.log
	tenants, err := repository.NewTenantRepository(c.db, []string{
		c.cfg.Quota.Source.RecordsTable,
		c.cfg.Quota.Source.StorageTable,
	}, log.Named("repository.tenant"))
	if err != nil {
		return err
	}
	source, err := repository.NewUsageSource(c.db, c.cfg.Quota.Source)
	if err != nil {
		return err
	}
	c.repos = &repositories{
		tenants:   tenants,
		usage:     repository.NewTenantUsageRepository(c.db, log.Named("repository.usage")),
		deletions: repository.NewTenantDeletionRepository(c.db, log.Named("repository.deletion")),
		plans:     repository.NewPlanRepository(c.db, log.Named("repository.plan")),
		roles:     repository.NewRoleRepository(c.db, log.Named("repository.role")),
		users:     repository.NewUserRepository(c.db, log.Named("repository.user")),
		activity:  repository.NewActivityRepository(c.db, log.Named("repository.activity")),
		source:    source,
	}

	acl, err := permission.NewOperatorACL(c.db, c.cfg.Permission.ModelPath, log.Named("permission.acl"))
	if err != nil {
		return err
	}

	c.svcs = &services{
		sessions:    auth.NewJWTService(c.cfg.Auth.JWT.Secret, c.cfg.Auth.JWT.SessionExpDays, c.cfg.Auth.JWT.Issuer),
		hasher:      auth.NewBcryptPasswordHasher(c.cfg.Auth.Password.BcryptCost),
		operatorACL: acl,
		tx:          db.NewTransactionManager(c.db),
		markdownSvc: markdown.NewMarkdownService(),
		rateLimiter: c.newRateLimiter(),
	}

	if c.redis != nil {
		c.eventBus = pubsub.NewRedisTenantEventBus(c.redis, log.Named("pubsub.tenant"))
	}
	return nil
}

// newRateLimiter prefers the shared Redis window and falls back to the
// process-local one when Redis is down or disabled.
func (c *Container) newRateLimiter() ratelimit.Limiter {
	rl := c.cfg.RateLimit
	if !rl.Enabled {
		return nil
	}
	local := ratelimit.NewLocalRateLimiter(rl.LocalCapacity, rl.RequestsPerMinute, time.Minute)
	if c.redis == nil {
		return local
	}
	remote := ratelimit.NewRedisRateLimiter(c.redis, rl.RequestsPerMinute, time.Minute)
	return ratelimit.NewFallbackLimiter(remote, local, c.log.Named("ratelimit"))
}

// ============================================================
// Section 2: Audit - dispatcher and recorder
// ============================================================

func (c *Container) initAudit() error {
	c.dispatcher = events.NewInMemoryEventDispatcher(c.cfg.Audit.DispatcherBuffer, c.log.Named("events.dispatcher"))

	recorder := appactivity.NewRecorder(c.dispatcher, c.repos.activity, c.svcs.markdownSvc, c.log.Named("activity.recorder"))
	if c.eventBus != nil {
		recorder.SetNotifier(c.eventBus)
	}
	if err := recorder.Subscribe(c.dispatcher); err != nil {
		return err
	}
	c.svcs.recorder = recorder
	c.svcs.sweeper = activityusecases.NewSweepActivitiesUseCase(c.repos.activity, c.cfg.Audit.RetentionHorizon(), c.log.Named("activity.sweep"))
	return nil
}

// ============================================================
// Section 3: Tenancy - directory, cache, gates and middleware
// ============================================================

func (c *Container) initTenancy() error {
	log := c.log
	tenantCache := cache.NewTieredTenantCache(c.redis, c.cfg.Tenancy.CacheTTL(), log.Named("cache.tenant"))
	if c.eventBus != nil {
		tenantCache.SetPublisher(c.eventBus)
	}
	c.svcs.tenantCache = tenantCache
	c.svcs.directory = tenancy.NewDirectory(c.repos.tenants, tenantCache, log.Named("tenancy.directory"))

	c.svcs.enforcer = quota.NewEnforcer(c.repos.usage, c.svcs.tx, log.Named("quota.enforcer"))
	c.svcs.reconciler = quota.NewReconciler(
		c.repos.usage, c.repos.source, c.repos.tenants, c.cfg.Quota.ReconcileConcurrency, log.Named("quota.reconciler"),
	)

	upgradeURL := c.cfg.Tenancy.UpgradeURL
	guard := tenancy.NewGuard(
		tenancy.NewStateGate(upgradeURL),
		tenancy.NewPermissionPolicy(c.repos.roles, c.svcs.operatorACL, log.Named("tenancy.permission")),
		tenancy.NewQuotaPolicy(c.svcs.enforcer),
		tenancy.NewFeatureGate(upgradeURL),
	)

	c.tenancyMiddleware = middleware.NewTenancyMiddleware(
		tenancy.NewHostRules(c.cfg.Tenancy),
		c.svcs.directory,
		c.svcs.sessions,
		c.repos.users,
		c.cfg.Tenancy.OverrideHeader,
		log.Named("middleware.tenancy"),
	)
	c.guardMiddleware = middleware.NewGuardMiddleware(guard, c.svcs.operatorACL, quotaAdmitter(c.svcs.enforcer), log.Named("middleware.guard"))
	return nil
}

func quotaAdmitter(e *quota.Enforcer) middleware.QuotaAdmitter {
	return middleware.AdmitterFunc(func(ctx context.Context, t *tenant.Tenant, r tenant.Resource, amount int64) (middleware.Reservation, error) {
		res, err := e.Admit(ctx, t, r, amount)
		if err != nil {
			return nil, err
		}
		return res, nil
	})
}

// ============================================================
// Section 4: Application services
// ============================================================

func (c *Container) initServices() error {
	log := c.log
	s := c.svcs

	s.tenants = tenantapp.NewServiceDDD(tenantapp.Dependencies{
		Tenants:    c.repos.tenants,
		Usage:      c.repos.usage,
		Deletions:  c.repos.deletions,
		Plans:      c.repos.plans,
		Roles:      c.repos.roles,
		Users:      c.repos.users,
		Hasher:     s.hasher,
		Quota:      s.enforcer,
		Reconciler: s.reconciler,
		Tx:         s.tx,
		Cache:      s.directory,
		Auditor:    s.recorder,
		Rules: tenantusecases.ProvisionRules{
			ReservedSlugs: c.cfg.Tenancy.ReservedSubdomains,
			DefaultPlan:   c.cfg.Tenancy.DefaultPlan,
		},
	}, log.Named("tenant.service"))

	s.users = userapp.NewServiceDDD(
		c.repos.users, c.repos.roles, s.directory, s.hasher, s.sessions, s.enforcer, s.tx, s.recorder, log.Named("user.service"),
	)
	s.permissions = permissionapp.NewService(c.repos.roles, s.recorder, log.Named("permission.service"))
	s.plans = subscription.NewServiceDDD(c.repos.plans, c.repos.tenants, s.tx, s.directory, s.recorder, log.Named("plan.service"))
	s.activity = appactivity.NewServiceDDD(c.repos.activity, s.markdownSvc, c.cfg.Audit.RetentionHorizon(), log.Named("activity.service"))
	return nil
}

// ============================================================
// Section 5: Scheduler - retention, reconciliation, policy reload
// ============================================================

func (c *Container) initScheduler() error {
	m, err := scheduler.NewSchedulerManager(c.log.Named("scheduler"))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if err := m.RegisterRetentionSweep(c.cfg.Audit.SweepCron, c.svcs.sweeper); err != nil {
		return err
	}
	interval := time.Duration(c.cfg.Quota.ReconcileIntervalMinutes) * time.Minute
	if interval > 0 {
		if err := m.RegisterUsageReconcile(interval, c.svcs.reconciler); err != nil {
			return err
		}
	}
	if err := m.RegisterPolicyReload(policyReloadInterval, c.svcs.operatorACL); err != nil {
		return err
	}
	c.scheduler = m
	return nil
}

// ============================================================
// Section 6: Handlers
// ============================================================

func (c *Container) initHandlers() error {
	log := c.log
	s := c.svcs
	c.hdlrs = &allHandlers{
		health:      handlers.NewHealthHandler(c.db, c.redis, log.Named("handler.health")),
		auth:        handlers.NewAuthHandler(s.users, log.Named("handler.auth")),
		members:     handlers.NewMemberHandler(s.users, log.Named("handler.member")),
		roles:       handlers.NewRoleHandler(s.permissions, log.Named("handler.role")),
		activities:  handlers.NewActivityHandler(s.activity, handlers.NewRoleAdminChecker(c.repos.roles), log.Named("handler.activity")),
		tenant:      handlers.NewTenantHandler(s.tenants, log.Named("handler.tenant")),
		adminTenant: adminhandlers.NewTenantHandler(s.tenants, log.Named("handler.admin.tenant")),
		adminPlan:   adminhandlers.NewPlanHandler(s.plans, log.Named("handler.admin.plan")),
	}
	return nil
}

// Engine returns the configured gin engine.
func (c *Container) Engine() *gin.Engine {
	return c.engine
}

func (c *Container) Scheduler() *scheduler.SchedulerManager {
	return c.scheduler
}

// SeedPlans creates the catalog plans that do not exist yet.
func (c *Container) SeedPlans(ctx context.Context) error {
	path := c.cfg.Tenancy.PlanCatalogPath
	if path == "" {
		return nil
	}
	created, err := c.svcs.plans.SeedFromFile(ctx, path)
	if err != nil {
		return err
	}
	c.log.Infow("plan catalog seeded", "path", path, "created", created)
	return nil
}

// Start runs the event dispatcher and, with Redis, the cross-instance
// cache invalidation subscriber.
func (c *Container) Start(ctx context.Context) error {
	if err := c.dispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start event dispatcher: %w", err)
	}
	if c.eventBus == nil {
		return nil
	}

	subCtx, cancel := context.WithCancel(ctx)
	c.cancelSubscribers = cancel
	goroutine.SafeGo(c.log, "tenant-change-subscriber", func() {
		err := c.eventBus.SubscribeTenantChanged(subCtx, func(event pubsub.TenantChangedEvent) {
			c.svcs.tenantCache.DropLocal(event.Keys...)
		})
		logSubscriberExit(c.log, "tenant change subscriber", err)
	})
	return nil
}

// Shutdown stops background work in reverse start order.
func (c *Container) Shutdown() {
	if c.cancelSubscribers != nil {
		c.cancelSubscribers()
	}
	if c.scheduler != nil && c.scheduler.IsStarted() {
		if err := c.scheduler.Stop(); err != nil {
			c.log.Errorw("failed to stop scheduler", "error", err)
		}
	}
	if c.dispatcher != nil {
		if err := c.dispatcher.Stop(); err != nil {
			c.log.Errorw("failed to stop event dispatcher", "error", err)
		}
	}
}

// logSubscriberExit logs a subscriber exit; cancellation during shutdown is expected.
func logSubscriberExit(log logger.Interface, name string, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		log.Infow(name+" stopped")
		return
	}
	log.Errorw(name+" failed", "error", err)
}
