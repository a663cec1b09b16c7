package container

import (
	"context"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-registry/config"
	"github.com/oksasatya/go-user-registry/internal/application"
	repo "github.com/oksasatya/go-user-registry/internal/domain/repository"
	"github.com/oksasatya/go-user-registry/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/go-user-registry/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/go-user-registry/internal/interface/http"
	"github.com/oksasatya/go-user-registry/pkg/helpers"
	"github.com/oksasatya/go-user-registry/pkg/search"
)

// Container holds the components built at startup. Optional backends are nil
// when they are not configured or not reachable.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger

	PGPool    *pgxpool.Pool
	Redis     *redis.Client
	RabbitPub *helpers.RabbitPublisher
	ES        *elasticsearch.Client

	Repo        repo.UserRepository
	Service     *application.Service
	UserIndex   *search.UserIndex
	UserHandler *handlers.UserHandler
}

// New builds the container. The store must be reachable; Redis, RabbitMQ and
// Elasticsearch failures are logged and the feature is left disabled.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	if err := c.initStore(ctx); err != nil {
		c.Close()
		return nil, err
	}
	c.initRedis(ctx)
	c.initRabbit()
	c.initES()

	var events application.EventPublisher
	if c.RabbitPub != nil {
		events = c.RabbitPub
	}
	c.Service = application.NewService(c.Repo, events, logger)

	var searcher handlers.UserSearcher
	if c.UserIndex != nil {
		searcher = c.UserIndex
	}
	c.UserHandler = handlers.NewUserHandler(c.Service, searcher, logger)
	return c, nil
}

func (c *Container) initStore(ctx context.Context) error {
	switch c.Config.StoreDriver {
	case config.StoreDriverMemory:
		c.Logger.Warn("using in-memory user store; data is lost on restart")
		c.Repo = memory.NewUserRepository()
		return nil
	case config.StoreDriverPostgres:
	default:
		return fmt.Errorf("unknown store driver %q", c.Config.StoreDriver)
	}

	pool, err := pginfra.NewPool(ctx, c.Config.PostgresDSN(), c.Config.DBMaxConns, c.Config.DBMinConns, c.Config.DBMaxConnLife)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	c.PGPool = pool
	if err := pginfra.RunMigrations(c.Config.PostgresDSN(), c.Config.MigrationsDir, c.Logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	c.Repo = pginfra.NewUserRepository(pool)
	return nil
}

func (c *Container) initRedis(ctx context.Context) {
	rdb, err := helpers.ConnectRedis(ctx, c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB)
	if err != nil {
		c.Logger.WithError(err).WithField("addr", c.Config.RedisAddr).Warn("redis unavailable; rate limiting disabled")
		return
	}
	c.Redis = rdb
}

func (c *Container) initRabbit() {
	if c.Config.RabbitMQURL == "" {
		return
	}
	pub, err := helpers.NewRabbitPublisher(c.Config.RabbitMQURL, c.Config.RabbitMQUserEventsQueue)
	if err != nil {
		c.Logger.WithError(err).Warn("rabbitmq unavailable; user events disabled")
		return
	}
	c.RabbitPub = pub
}

func (c *Container) initES() {
	addrs := c.Config.ESAddrs()
	if len(addrs) == 0 {
		return
	}
	es, err := helpers.NewESClient(addrs, c.Config.ElasticsearchUser, c.Config.ElasticsearchPass)
	if err != nil {
		c.Logger.WithError(err).Warn("elasticsearch client init failed; search disabled")
		return
	}
	c.ES = es
	c.UserIndex = search.NewUserIndex(es, c.Config.ESUsersIndex)
}

// Close releases every open backend.
func (c *Container) Close() {
	if c.RabbitPub != nil {
		c.RabbitPub.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.PGPool != nil {
		c.PGPool.Close()
	}
}
