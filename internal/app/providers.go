package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/wire"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"
	"gorm.io/gorm"

	// Domains
	"github.com/labportal/server/internal/domain/invitation"
	"github.com/labportal/server/internal/domain/membership"
	"github.com/labportal/server/internal/domain/roster"
	"github.com/labportal/server/internal/domain/submission"

	// Inbound adapters
	portalhttp "github.com/labportal/server/internal/adapter/inbound/http/portal"

	// Ports
	"github.com/labportal/server/internal/port/outbound"

	// Outbound adapters
	amqpadapter "github.com/labportal/server/internal/adapter/outbound/amqp"
	"github.com/labportal/server/internal/adapter/outbound/cached"
	"github.com/labportal/server/internal/adapter/outbound/memory"
	"github.com/labportal/server/internal/adapter/outbound/postgres"
	redisadapter "github.com/labportal/server/internal/adapter/outbound/redis"
	"github.com/labportal/server/internal/adapter/outbound/remote"
	s3adapter "github.com/labportal/server/internal/adapter/outbound/s3"

	// Infrastructure
	"github.com/labportal/server/internal/infra/auth"
	"github.com/labportal/server/internal/infra/cache"
	"github.com/labportal/server/internal/infra/config"
	"github.com/labportal/server/internal/infra/database"
	"github.com/labportal/server/internal/infra/events"
	"github.com/labportal/server/internal/infra/httpclient"

	// Utils
	"github.com/labportal/server/internal/utils/logger"
	"github.com/labportal/server/internal/utils/metrics"
)

// ===== Infrastructure Providers =====

// InfraSet provides infrastructure dependencies.
var InfraSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideHTTPClient,
	ProvideRedisClient,
	ProvideDatabase,
	ProvideEventBus,
	ProvideBroker,
	ProvideVerifier,
)

// ProvideLogger creates the zap logger.
func ProvideLogger(cfg *config.Config) *zap.Logger {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

// ProvideMetrics creates a metrics instance.
func ProvideMetrics() *metrics.Metrics {
	return metrics.New("labportal")
}

// ProvideHTTPClient creates a shared HTTP client with connection pooling.
func ProvideHTTPClient(cfg *config.Config) *http.Client {
	return httpclient.New(cfg.HTTPClient)
}

// ProvideRedisClient creates a Redis client. Caching is optional: without an
// address, or when Redis is unreachable, nil is returned and in-process
// fallbacks are used.
func ProvideRedisClient(cfg *config.Config, log *zap.Logger) (goredis.UniversalClient, func()) {
	if cfg.Redis.Address == "" {
		return nil, func() {}
	}
	client, err := cache.Connect(context.Background(), cfg.Redis)
	if err != nil {
		log.Warn("Redis connection failed, continuing without cache", zap.Error(err))
		return nil, func() {}
	}
	return client, func() {
		if err := client.Close(); err != nil {
			log.Warn("close redis", zap.Error(err))
		}
	}
}

// ProvideDatabase opens and migrates Postgres when it backs the local store.
// Other backends get a nil handle.
func ProvideDatabase(cfg *config.Config, m *metrics.Metrics, log *zap.Logger) (*gorm.DB, func(), error) {
	if cfg.Store.Backend != config.StorePostgres {
		return nil, func() {}, nil
	}
	db, err := database.New(&cfg.Database, m)
	if err != nil {
		return nil, nil, fmt.Errorf("init database: %w", err)
	}
	if err := database.Migrate(context.Background(), db); err != nil {
		_ = database.Close(db)
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, func() {
		if err := database.Close(db); err != nil {
			log.Warn("close database", zap.Error(err))
		}
	}, nil
}

// ProvideEventBus creates the in-process domain event bus.
func ProvideEventBus(log *zap.Logger) *events.Bus {
	return events.NewBus(log)
}

// ProvideBroker dials the AMQP broker when one is configured.
func ProvideBroker(cfg *config.Config, log *zap.Logger) (*amqpadapter.Publisher, func(), error) {
	if cfg.Broker.URL == "" {
		return nil, func() {}, nil
	}
	pub, err := amqpadapter.Dial(cfg.Broker.URL, cfg.Broker.Exchange, log)
	if err != nil {
		return nil, nil, fmt.Errorf("init broker: %w", err)
	}
	return pub, func() {
		if err := pub.Close(); err != nil {
			log.Warn("close broker", zap.Error(err))
		}
	}, nil
}

// ProvideVerifier creates the bearer token verifier.
func ProvideVerifier(cfg *config.Config) *auth.Verifier {
	return auth.NewVerifier(auth.Config{
		Secret:   cfg.Auth.JWTSecret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
	})
}

// ===== Upstream Providers =====

// Upstream holds one client per external collaborator.
type Upstream struct {
	Projects *remote.Client
	Users    *remote.Client
	Tasks    *remote.Client
	Records  *remote.Client
}

// UpstreamSet provides the upstream clients.
var UpstreamSet = wire.NewSet(
	ProvideCallerTokens,
	ProvideUpstream,
)

// ProvideCallerTokens creates the upstream token provider. The service's
// client credentials are used only for calls made outside a user request.
func ProvideCallerTokens(cfg *config.Config) *remote.CallerTokens {
	if cfg.Upstream.ClientID == "" {
		return remote.NewCallerTokens(nil)
	}
	return remote.NewCallerTokens(&clientcredentials.Config{
		ClientID:     cfg.Upstream.ClientID,
		ClientSecret: cfg.Upstream.ClientSecret,
		TokenURL:     cfg.Upstream.TokenURL,
		Scopes:       cfg.Upstream.Scopes,
	})
}

// ProvideUpstream creates a client, and so a circuit breaker, per collaborator.
func ProvideUpstream(
	cfg *config.Config,
	httpClient *http.Client,
	tokens *remote.CallerTokens,
	m *metrics.Metrics,
	log *zap.Logger,
) *Upstream {
	client := func(name, baseURL string) *remote.Client {
		rc := remote.DefaultConfig(baseURL)
		if cfg.Upstream.FailureThreshold > 0 {
			rc.FailureThreshold = cfg.Upstream.FailureThreshold
		}
		if cfg.Upstream.OpenTimeout > 0 {
			rc.OpenTimeout = cfg.Upstream.OpenTimeout
		}
		if cfg.Upstream.Interval > 0 {
			rc.Interval = cfg.Upstream.Interval
		}
		return remote.NewClient(name, rc, httpClient, tokens, m, log)
	}

	return &Upstream{
		Projects: client("projects", cfg.Upstream.ProjectsURL),
		Users:    client("users", cfg.Upstream.UsersURL),
		Tasks:    client("tasks", cfg.Upstream.TasksURL()),
		Records:  client("records", cfg.Upstream.RecordsURL),
	}
}

// ===== Store Providers =====

// StoreSet selects an adapter per outbound port from the configured backend.
var StoreSet = wire.NewSet(
	ProvideProjectDirectory,
	ProvideUserCache,
	ProvideUserDirectory,
	ProvideMembershipStore,
	ProvideInvitationStore,
	ProvideTaskStore,
	ProvideSubmissionStore,
	ProvideFileStore,
	ProvideRosterCache,
)

// ProvideProjectDirectory reads projects from the Project Directory.
func ProvideProjectDirectory(cfg *config.Config, up *Upstream) outbound.ProjectDirectoryPort {
	if cfg.Store.Backend == config.StoreMemory {
		return memory.NewProjectDirectory()
	}
	return remote.NewProjectDirectory(up.Projects)
}

// ProvideUserCache returns the Redis user cache, or nil without Redis.
func ProvideUserCache(redis goredis.UniversalClient, m *metrics.Metrics) outbound.UserCachePort {
	if redis == nil {
		return nil
	}
	return redisadapter.NewUserCacheAdapter(redis, m)
}

// ProvideUserDirectory reads users from the User Directory, through the
// profile cache when there is one.
func ProvideUserDirectory(cfg *config.Config, up *Upstream, userCache outbound.UserCachePort, log *zap.Logger) outbound.UserDirectoryPort {
	var dir outbound.UserDirectoryPort
	if cfg.Store.Backend == config.StoreMemory {
		dir = memory.NewUserDirectory()
	} else {
		dir = remote.NewUserDirectory(up.Users)
	}
	if userCache == nil {
		return dir
	}
	return cached.NewUserDirectory(dir, userCache, cfg.Portal.UserCacheTTL, log)
}

// ProvideMembershipStore selects the membership store.
func ProvideMembershipStore(cfg *config.Config, up *Upstream, db *gorm.DB) outbound.MembershipStorePort {
	switch cfg.Store.Backend {
	case config.StorePostgres:
		return postgres.NewMembershipAdapter(db)
	case config.StoreMemory:
		return memory.NewMembershipStore()
	default:
		return remote.NewMembershipStore(up.Records)
	}
}

// ProvideInvitationStore selects the invitation store.
func ProvideInvitationStore(cfg *config.Config, up *Upstream, db *gorm.DB) outbound.InvitationStorePort {
	switch cfg.Store.Backend {
	case config.StorePostgres:
		return postgres.NewInvitationAdapter(db)
	case config.StoreMemory:
		return memory.NewInvitationStore()
	default:
		return remote.NewInvitationStore(up.Records)
	}
}

// ProvideTaskStore selects the task store. Tasks are always owned upstream
// except in the in-process backend.
func ProvideTaskStore(cfg *config.Config, up *Upstream) outbound.TaskStorePort {
	if cfg.Store.Backend == config.StoreMemory {
		return memory.NewTaskStore()
	}
	return remote.NewTaskStore(up.Tasks)
}

// ProvideSubmissionStore selects the submission store.
func ProvideSubmissionStore(cfg *config.Config, up *Upstream, db *gorm.DB) outbound.SubmissionStorePort {
	switch cfg.Store.Backend {
	case config.StorePostgres:
		return postgres.NewSubmissionAdapter(db)
	case config.StoreMemory:
		return memory.NewSubmissionStore()
	default:
		return remote.NewSubmissionStore(up.Records)
	}
}

// ProvideFileStore stores deliverables in S3-compatible storage when a bucket
// is configured, in process memory otherwise.
func ProvideFileStore(cfg *config.Config, log *zap.Logger) (outbound.FileStorePort, error) {
	if cfg.Storage.Bucket == "" {
		log.Warn("no storage bucket configured, deliverables are kept in memory")
		return memory.NewFileStore(), nil
	}
	client, err := s3adapter.NewClient(context.Background(), cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	return s3adapter.NewFileStore(client, cfg.Storage.Bucket), nil
}

// ProvideRosterCache caches rosters in Redis, or in process without it.
func ProvideRosterCache(redis goredis.UniversalClient, m *metrics.Metrics) outbound.RosterCachePort {
	if redis == nil {
		return memory.NewRosterCache()
	}
	return redisadapter.NewRosterCacheAdapter(redis, m)
}

// ===== Domain Providers =====

// DomainSet provides the portal domains.
var DomainSet = wire.NewSet(
	ProvideMembershipDomain,
	ProvideInvitationDomain,
	ProvideRosterDomain,
	ProvideSubmissionDomain,
)

// ProvideMembershipDomain creates the membership domain.
func ProvideMembershipDomain(
	projects outbound.ProjectDirectoryPort,
	memberships outbound.MembershipStorePort,
	bus *events.Bus,
	cfg *config.Config,
	m *metrics.Metrics,
	log *zap.Logger,
) *membership.Domain {
	mc := membership.DefaultConfig()
	if cfg.Portal.MembershipLookups > 0 {
		mc.ProjectLookupConcurrency = cfg.Portal.MembershipLookups
	}
	return membership.NewDomain(projects, memberships, bus, mc, m, log.Named("membership"))
}

// ProvideInvitationDomain creates the invitation domain.
func ProvideInvitationDomain(
	invitations outbound.InvitationStorePort,
	users outbound.UserDirectoryPort,
	members *membership.Domain,
	bus *events.Bus,
	cfg *config.Config,
	m *metrics.Metrics,
	log *zap.Logger,
) *invitation.Domain {
	ic := invitation.DefaultConfig()
	if cfg.Portal.InvitationTTL > 0 {
		ic.TTL = cfg.Portal.InvitationTTL
	}
	if cfg.Portal.InviteMessageMax > 0 {
		ic.MaxMessageLength = cfg.Portal.InviteMessageMax
	}
	return invitation.NewDomain(invitations, users, members, bus, ic, m, log.Named("invitation"))
}

// ProvideRosterDomain creates the roster domain.
func ProvideRosterDomain(
	members *membership.Domain,
	users outbound.UserDirectoryPort,
	rosterCache outbound.RosterCachePort,
	cfg *config.Config,
	m *metrics.Metrics,
	log *zap.Logger,
) *roster.Domain {
	rc := roster.DefaultConfig()
	if cfg.Portal.RosterChunkSize > 0 {
		rc.ChunkSize = cfg.Portal.RosterChunkSize
	}
	if cfg.Portal.RosterConcurrency > 0 {
		rc.Concurrency = cfg.Portal.RosterConcurrency
	}
	if cfg.Portal.RosterCacheTTL > 0 {
		rc.CacheTTL = cfg.Portal.RosterCacheTTL
	}
	return roster.NewDomain(members, users, rosterCache, rc, m, log.Named("roster"))
}

// ProvideSubmissionDomain creates the submission domain.
func ProvideSubmissionDomain(
	tasks outbound.TaskStorePort,
	submissions outbound.SubmissionStorePort,
	files outbound.FileStorePort,
	members *membership.Domain,
	bus *events.Bus,
	cfg *config.Config,
	m *metrics.Metrics,
	log *zap.Logger,
) *submission.Domain {
	sc := submission.DefaultConfig()
	if cfg.Portal.MaxFileSize > 0 {
		sc.MaxFileSize = cfg.Portal.MaxFileSize
	}
	if cfg.Portal.SubmissionKeyPrefix != "" {
		sc.KeyPrefix = cfg.Portal.SubmissionKeyPrefix
	}
	return submission.NewDomain(tasks, submissions, files, members, bus, sc, m, log.Named("submission"))
}

// ===== Handler Providers =====

// HandlerSet provides HTTP handlers.
var HandlerSet = wire.NewSet(
	ProvidePortalHandler,
)

// ProvidePortalHandler creates the portal HTTP handler.
func ProvidePortalHandler(
	members *membership.Domain,
	invitations *invitation.Domain,
	rosters *roster.Domain,
	submissions *submission.Domain,
	log *zap.Logger,
) *portalhttp.Handler {
	return portalhttp.NewHandler(members, invitations, rosters, submissions, log.Named("http"))
}

// AppSet is the master provider set that includes all dependencies.
var AppSet = wire.NewSet(
	InfraSet,
	UpstreamSet,
	StoreSet,
	DomainSet,
	HandlerSet,
)
