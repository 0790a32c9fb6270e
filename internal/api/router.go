package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/branch-teller/internal/ledger"
	"github.com/example/branch-teller/internal/posting"
	"github.com/example/branch-teller/internal/security"
	"github.com/example/branch-teller/pkg/audit"
)

// PostingService is the engine surface the API depends on.
type PostingService interface {
	Post(ctx context.Context, req *posting.PostingRequest, actor posting.Actor) (*posting.Receipt, error)
	Reverse(ctx context.Context, tellerTransactionID string, actor posting.Actor) (*posting.Receipt, error)
	Lookup(ctx context.Context, tellerTransactionID string) (*ledger.PostingRecord, error)
	LookupByRequestID(ctx context.Context, requestID string) (*ledger.PostingRecord, error)
}

type Auditor interface {
	Append(payload string) *audit.Entry
}

type Dependencies struct {
	Logger   *slog.Logger
	Postings PostingService

	Auditor      Auditor
	RateLimiter  *security.RedisTokenBucket
	IPAllowlist  []*net.IPNet
	MaxBodyBytes int64
}

func NewRouter(deps Dependencies) (http.Handler, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	postingV, err := security.NewJSONSchemaValidator(postingSchema)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(security.CorrelationID)
	r.Use(RequestLogger(deps.Logger))
	r.Use(security.BodySizeLimit(deps.MaxBodyBytes))
	r.Use(security.IPAllowlist(deps.IPAllowlist))
	if deps.RateLimiter != nil {
		r.Use(security.RateLimitMiddleware(deps.RateLimiter, rateLimitKeyBySession))
	}
	if deps.Auditor != nil {
		r.Use(AuditMiddleware(deps.Auditor))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Route("/postings", func(r chi.Router) {
			r.With(postingV.Middleware).Post("/", handleCreatePosting(deps))
			r.Get("/", handleLookupByRequestID(deps))
			r.Get("/{tellerTransactionID}", handleGetPosting(deps))
			r.Post("/{tellerTransactionID}/reverse", handleReversePosting(deps))
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		security.WriteJSONError(w, r, http.StatusNotFound, "not_found")
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		security.WriteJSONError(w, r, http.StatusMethodNotAllowed, "method_not_allowed")
	})

	return r, nil
}

// rateLimitKeyBySession meters per teller session so one runaway workstation
// cannot starve the branch.
func rateLimitKeyBySession(r *http.Request) string {
	session := r.Header.Get(headerTellerSession)
	if session == "" {
		return ""
	}
	return "session:" + session
}
