package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/curatehq/curate/internal/config"
	"github.com/curatehq/curate/internal/observability"
)

// Dependencies holds all injected dependencies for the HTTP transport layer.
type Dependencies struct {
	Config       *config.Config
	Handlers     *Handlers
	Metrics      *observability.Metrics
	Readiness    observability.ReadinessChecks
	Authenticate func(http.Handler) http.Handler
	Log          *zap.Logger
}

// NewRouter creates a chi.Router with the full middleware pipeline and all
// route registrations. Health, readiness, and metrics endpoints bypass the
// authentication middleware.
func NewRouter(deps Dependencies) chi.Router {
	r := chi.NewRouter()

	// Global middleware: applied to all routes including health.
	r.Use(Recovery(deps.Log))
	r.Use(CORS(deps.Config.Server.CORS))
	r.Use(RequestID)
	r.Use(SecurityHeaders)

	// Public routes.
	r.Get("/health", observability.HandleHealth())
	r.Get("/ready", observability.HandleReady(deps.Readiness))
	if deps.Metrics != nil {
		r.Handle(deps.Config.Observability.Metrics.Path, observability.Handler())
	}

	auth := deps.Authenticate
	if auth == nil {
		auth = func(next http.Handler) http.Handler { return next }
	}

	h := deps.Handlers
	r.Route("/api", func(r chi.Router) {
		r.Use(auth)
		r.Use(BuildRequestContext)
		r.Use(HandlerTimeout(deps.Config.Server.HandlerTimeout))
		r.Use(RequestLogging(deps.Log))
		if deps.Metrics != nil {
			r.Use(deps.Metrics.MetricsMiddleware)
		}
		r.Use(observability.TracingMiddleware)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.handleSessionCreate)
			r.Get("/", h.handleSessionList)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", h.handleSessionGet)
				r.Delete("/", h.handleSessionDelete)
				r.Post("/operations", h.handleSessionOperation)
				r.Get("/readiness", h.handleSessionReadiness)
				r.Post("/submit", h.handleSubmit)

				r.Post("/import/contributors", h.handleImportContributors)
				r.Post("/import/keywords", h.handleImportKeywords)

				r.Post("/orcid-input", h.handleORCIDInput)
				r.Get("/orcid-suggestions/{rowID}", h.handleORCIDSuggestions)
			})
		})

		r.Route("/lookups", func(r chi.Router) {
			r.Get("/orcid", h.handleORCIDSearch)
			r.Get("/funders", h.handleFunderSuggest)
			r.Get("/affiliations", h.handleAffiliationSuggestions)
		})

		r.Route("/vocabularies", func(r chi.Router) {
			r.Get("/", h.handleVocabularyList)
			r.Get("/msl-laboratories", h.handleMSLLaboratories)
			r.Get("/{vocabulary}/tree", h.handleVocabularyTree)
			r.Get("/{vocabulary}/search", h.handleVocabularySearch)
		})
	})

	return r
}
