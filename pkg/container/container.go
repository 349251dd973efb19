package container

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"library-backend/internal/config"
	infraCache "library-backend/internal/infrastructure/cache"
	"library-backend/internal/infrastructure/database"
	"library-backend/internal/infrastructure/memstore"
	"library-backend/internal/shared/auth"
	"library-backend/pkg/cache"
	pkgdb "library-backend/pkg/database"
	"library-backend/pkg/jwt"

	"library-backend/internal/domains/user"
	userHandler "library-backend/internal/domains/user/handler"
	userRepo "library-backend/internal/domains/user/repository"
	userService "library-backend/internal/domains/user/service"

	"library-backend/internal/domains/book"
	bookHandler "library-backend/internal/domains/book/handler"
	bookRepo "library-backend/internal/domains/book/repository"
	bookService "library-backend/internal/domains/book/service"

	"library-backend/internal/domains/loan"
	loanHandler "library-backend/internal/domains/loan/handler"
	loanRepo "library-backend/internal/domains/loan/repository"
	loanService "library-backend/internal/domains/loan/service"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container is the root of the dependency graph. Every field is a singleton
// for the lifetime of the process.
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================

	Config      *config.Config
	DB          *database.PostgresDB // nil with the memory driver
	MemStore    *memstore.Store      // nil with the postgres driver
	Transactor  pkgdb.Transactor
	Cache       cache.Cache
	JWTManager  *jwt.Manager
	Identity    auth.Provider
	Revocations *auth.RevocationStore

	// ========================================
	// REPOSITORY LAYER
	// ========================================

	UserRepo user.Repository
	BookRepo book.Repository
	LoanRepo loan.Repository

	// ========================================
	// SERVICE LAYER
	// ========================================

	UserService user.Service
	BookService book.Service
	LoanService loan.Service

	// ========================================
	// HANDLER LAYER
	// ========================================

	UserHandler *userHandler.UserHandler
	BookHandler *bookHandler.Handler
	LoanHandler *loanHandler.Handler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer loads configuration from the environment and builds the graph.
func NewContainer() (*Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log.Info().Str("environment", cfg.App.Environment).Msg("config loaded")

	return NewContainerFromConfig(cfg)
}

// NewContainerFromConfig builds the graph in dependency order:
// storage, cache, auth, repositories, services, handlers.
func NewContainerFromConfig(cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}

	// ========================================
	// STEP 1: STORAGE
	// ========================================
	if err := c.initStorage(); err != nil {
		c.Cleanup()
		return nil, err
	}

	// ========================================
	// STEP 2: CACHE
	// ========================================
	c.initCache()

	// ========================================
	// STEP 3: AUTH
	// ========================================
	c.JWTManager = jwt.NewManager(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute,
		time.Duration(cfg.JWT.RefreshTokenExpiry)*time.Hour,
	)
	c.Identity = auth.NewContextProvider()
	c.Revocations = auth.NewRevocationStore(c.Cache)

	// ========================================
	// STEP 4-6: REPOSITORIES, SERVICES, HANDLERS
	// ========================================
	c.initRepositories()
	c.initServices()
	c.initHandlers()

	log.Info().Msg("container initialized")
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initStorage() error {
	if c.Config.Storage.Driver == config.DriverMemory {
		log.Info().Msg("using in-memory store")
		c.MemStore = memstore.New()
		c.Transactor = c.MemStore
		return nil
	}

	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	if c.Config.Storage.AutoMigrate {
		if err := database.MigrateUp(dbConfig.DSN()); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(ctx); err != nil {
		db.Close()
		return fmt.Errorf("database health check failed: %w", err)
	}

	c.DB = db
	c.Transactor = db.Transactor()
	return nil
}

func (c *Container) initCache() {
	if c.Config.Storage.CacheDriver == config.DriverMemory {
		log.Info().Msg("using in-memory cache")
		c.Cache = infraCache.NewMemoryCache()
		return
	}

	redisCache := infraCache.NewRedisCache(c.Config.Redis.Host, c.Config.Redis.Password, c.Config.Redis.DB)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Redis failure is not critical: revocation checks fail open and login
	// throttling is skipped until it comes back.
	if err := redisCache.Connect(ctx); err != nil {
		log.Warn().Err(err).Str("addr", c.Config.Redis.Host).Msg("redis unavailable, continuing without it")
	}
	c.Cache = redisCache
}

func (c *Container) initRepositories() {
	if c.MemStore != nil {
		c.UserRepo = c.MemStore.UserRepository()
		c.BookRepo = c.MemStore.BookRepository()
		c.LoanRepo = c.MemStore.LoanRepository()
		return
	}

	pool := c.DB.Pool
	c.UserRepo = userRepo.NewPostgresRepository(pool, c.Cache)
	c.BookRepo = bookRepo.NewPostgresRepository(pool)
	c.LoanRepo = loanRepo.NewPostgresRepository(pool)
}

func (c *Container) initServices() {
	c.UserService = userService.NewUserService(
		c.UserRepo,
		c.JWTManager,
		c.Cache,
		c.Identity,
		userService.Options{
			BcryptCost:       c.Config.Auth.BcryptCost,
			MaxLoginAttempts: c.Config.Auth.MaxLoginAttempts,
			LockoutDuration:  time.Duration(c.Config.Auth.LockoutMinutes) * time.Minute,
		},
	)

	c.BookService = bookService.NewBookService(c.BookRepo, c.Transactor, c.Identity)

	// Loans lock and flip the referenced book inside their own transaction.
	c.LoanService = loanService.NewLoanService(c.LoanRepo, c.BookRepo, c.Transactor, c.Identity)
}

func (c *Container) initHandlers() {
	c.UserHandler = userHandler.NewUserHandler(c.UserService)
	c.BookHandler = bookHandler.NewHandler(c.BookService)
	c.LoanHandler = loanHandler.NewHandler(c.LoanService)
}

// Cleanup releases connections. Called during graceful shutdown.
func (c *Container) Cleanup() {
	if c.DB != nil && c.DB.Pool != nil {
		if err := c.DB.Close(); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}

	if rc, ok := c.Cache.(*infraCache.RedisCache); ok {
		if err := rc.Close(); err != nil {
			log.Error().Err(err).Msg("close redis")
		}
	}

}
