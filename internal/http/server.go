package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	applog "clubfund/internal/log"
	"clubfund/internal/middleware/ratelimit"
	"clubfund/internal/middleware/security"
	"clubfund/internal/middleware/trace"
	"clubfund/internal/services"
	"clubfund/internal/store"
)

// Services are the collaborators the handlers call.
type Services struct {
	Members    *services.MemberService
	Sessions   *services.SessionService
	Fund       *services.FundService
	Calculator *services.CalculatorService
	// Health is pinged by /readyz.
	Health store.Pinger
}

type Options struct {
	Addr               string
	CORSAllowedOrigins []string
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	svc      Services
	router   *mux.Router
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	log      *applog.Logger

	shutdownOnce sync.Once
}

func NewServer(opts Options, svc Services) *Server {
	s := &Server{
		svc:      svc,
		router:   mux.NewRouter(),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: security.NewDetector(),
		log:      applog.Default(applog.ComponentHTTP),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, s.log)
	s.routes()

	s.router.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited))
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not_found", "resource not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	origins := opts.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", trace.HeaderRequestID},
		ExposedHeaders:   []string{trace.HeaderRequestID},
		AllowCredentials: false,
	})

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           corsHandler.Handler(s.screen(s.router)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// screen wraps h with the middlewares that must also see requests the
// router cannot match.
func (s *Server) screen(h http.Handler) http.Handler {
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	return s.tracer.Middleware(s.detector.Middleware(headers.Middleware(h)))
}

func (s *Server) routes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/members", s.handleListMembers).Methods(http.MethodGet)
	api.HandleFunc("/members", s.handleCreateMember).Methods(http.MethodPost)
	api.HandleFunc("/members/{id:[0-9]+}", s.handleGetMember).Methods(http.MethodGet)
	api.HandleFunc("/members/{id:[0-9]+}", s.handleUpdateMember).Methods(http.MethodPut)
	api.HandleFunc("/members/{id:[0-9]+}", s.handleDeleteMember).Methods(http.MethodDelete)
	api.HandleFunc("/members/{id:[0-9]+}/balance", s.handleMemberBalance).Methods(http.MethodGet)

	api.HandleFunc("/sessions", s.handleListSessions).Methods(http.MethodGet)
	api.HandleFunc("/sessions", s.handleCreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id:[0-9]+}", s.handleGetSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id:[0-9]+}", s.handleUpdateSession).Methods(http.MethodPut)
	api.HandleFunc("/sessions/{id:[0-9]+}", s.handleDeleteSession).Methods(http.MethodDelete)

	api.HandleFunc("/funds", s.handleListContributions).Methods(http.MethodGet)
	api.HandleFunc("/funds", s.handleRecordContribution).Methods(http.MethodPost)
	api.HandleFunc("/funds/balances", s.handleBalances).Methods(http.MethodGet)
	api.HandleFunc("/funds/{id:[0-9]+}", s.handleDeleteContribution).Methods(http.MethodDelete)

	api.HandleFunc("/calculator/calculate", s.handleCalculate).Methods(http.MethodPost)
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
	})
	return s.Server.Shutdown(ctx)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	writeError(w, r, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded, please try again later")
}
