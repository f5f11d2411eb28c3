//go:build wireinject
// +build wireinject

package app

import (
	"net/http"

	"github.com/google/wire"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	// Domains
	"github.com/labportal/server/internal/domain/invitation"
	"github.com/labportal/server/internal/domain/membership"
	"github.com/labportal/server/internal/domain/roster"
	"github.com/labportal/server/internal/domain/submission"

	// Inbound adapters
	portalhttp "github.com/labportal/server/internal/adapter/inbound/http/portal"

	// Outbound adapters
	amqpadapter "github.com/labportal/server/internal/adapter/outbound/amqp"

	// Infrastructure
	"github.com/labportal/server/internal/infra/auth"
	"github.com/labportal/server/internal/infra/config"
	"github.com/labportal/server/internal/infra/events"

	// Utils
	"github.com/labportal/server/internal/utils/metrics"
)

// Dependencies holds all injected dependencies.
type Dependencies struct {
	Config     *config.Config
	DB         *gorm.DB
	Redis      goredis.UniversalClient
	HTTPClient *http.Client
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	Bus        *events.Bus
	Broker     *amqpadapter.Publisher
	Verifier   *auth.Verifier

	// Domains
	MembershipDomain *membership.Domain
	InvitationDomain *invitation.Domain
	RosterDomain     *roster.Domain
	SubmissionDomain *submission.Domain

	// HTTP Handlers
	PortalHandler *portalhttp.Handler
}

// InitializeDependencies creates all dependencies using Wire.
func InitializeDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	wire.Build(
		AppSet,
		wire.Struct(new(Dependencies), "*"),
	)
	return nil, nil, nil
}
