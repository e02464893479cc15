// Package main provides the Propflow workflow builder API server.
package main

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/dukex/propflow/pkg/catalog"
	"github.com/dukex/propflow/pkg/eventbus"
	"github.com/dukex/propflow/pkg/persistence"
	"github.com/dukex/propflow/pkg/services"
	"github.com/dukex/propflow/pkg/templates"
	"github.com/dukex/propflow/pkg/validation"
	"github.com/dukex/propflow/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	templates   *templates.Loader
	catalog     *catalog.Catalog
	tracer      trace.Tracer
	validate    *validator.Validate
	sessions    *services.Sessions
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	templates *templates.Loader,
	tracer trace.Tracer,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		templates:   templates,
		catalog:     catalog.Default(),
		tracer:      tracer,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() (*fiber.App, error) {
	sessions, err := services.NewSessions(services.Dependencies{
		Repository: a.persistence.WorkflowRepository(),
		Templates:  a.templates,
		Catalog:    a.catalog,
		Validator:  validation.New(a.logger),
		Publisher:  a.eventBus,
		Tracer:     a.tracer,
		Logger:     a.logger,
	})
	if err != nil {
		return nil, err
	}

	a.sessions = sessions

	handlers := web.NewAPIHandlers(
		sessions,
		services.NewWorkflows(a.persistence),
		a.catalog,
		a.templates,
		a.validate,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Propflow API")
	})

	handlers.RegisterRoutes(app)

	return app, nil
}

// Start serves the API on port. Sessions idle for longer than sessionTTL are closed; a
// zero sessionTTL keeps them until deleted.
func (a *API) Start(port int, sessionTTL time.Duration) error {
	app, err := a.App()
	if err != nil {
		return err
	}

	if sessionTTL > 0 {
		stop, err := a.sessions.StartEviction(evictionInterval(sessionTTL), sessionTTL)
		if err != nil {
			return err
		}
		defer stop()
	}

	return app.Listen(":" + strconv.Itoa(port))
}

func evictionInterval(sessionTTL time.Duration) time.Duration {
	return max(min(sessionTTL/4, time.Minute), time.Second)
}
