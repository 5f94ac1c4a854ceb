package web

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rdnc12/authentication"
	appoauth1 "github.com/rdnc12/authentication/oauth1"
	appoauth2 "github.com/rdnc12/authentication/oauth2"
)

// RouterDeps carries everything NewRouter needs: the store, the session
// codec, the strategies and the metrics registry.
type RouterDeps struct {
	Users    authentication.UserStore
	Sessions *authentication.SessionAuth
	Metrics  *authentication.Metrics
	Gatherer prometheus.Gatherer

	Local    *authentication.LocalAuth
	Google   *appoauth2.Strategy
	Facebook *appoauth2.Strategy
	Twitter  *appoauth1.TwitterStrategy
}

// NewRouter assembles the full handler graph. The returned handler already
// includes session loading, user extraction and response metrics, so the
// caller only has to serve it.
func NewRouter(deps RouterDeps) http.Handler {
	h := &pageHandlers{users: deps.Users, sessions: deps.Sessions}
	mw := &authentication.Middleware{Users: deps.Users, Sessions: deps.Sessions}

	r := mux.NewRouter()

	// Public pages.
	r.HandleFunc("/", h.home).Methods(http.MethodGet)
	r.HandleFunc("/login", h.loginPage).Methods(http.MethodGet)
	r.HandleFunc("/login", deps.Local.HandleLogin).Methods(http.MethodPost)
	r.HandleFunc("/register", h.registerPage).Methods(http.MethodGet)
	r.HandleFunc("/register", deps.Local.HandleRegister).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.logout).Methods(http.MethodGet)

	// Protected pages: one predicate, enforced by RequireUser.
	r.Handle("/secrets", mw.RequireUser(http.HandlerFunc(h.secretsPage))).Methods(http.MethodGet)
	r.Handle("/submit", mw.RequireUser(http.HandlerFunc(h.submitPage))).Methods(http.MethodGet)
	r.Handle("/submit", mw.RequireUser(http.HandlerFunc(h.submitSecret))).Methods(http.MethodPost)

	// Federated handshakes. The callback paths mirror the registered
	// provider redirect URIs.
	if deps.Google != nil {
		r.HandleFunc("/auth/google", deps.Google.HandleBegin).Methods(http.MethodGet)
		r.HandleFunc("/auth/google/secrets", deps.Google.HandleCallback).Methods(http.MethodGet)
	}
	if deps.Facebook != nil {
		r.HandleFunc("/auth/facebook", deps.Facebook.HandleBegin).Methods(http.MethodGet)
		r.HandleFunc("/auth/facebook/secrets", deps.Facebook.HandleCallback).Methods(http.MethodGet)
	}
	if deps.Twitter != nil {
		r.HandleFunc("/auth/twitter", deps.Twitter.HandleBegin).Methods(http.MethodGet)
		r.HandleFunc("/auth/twitter/callback", deps.Twitter.HandleCallback).Methods(http.MethodGet)
	}

	// Operational endpoints.
	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	if deps.Gatherer != nil {
		r.Handle("/metrics", authentication.MetricsHandler(deps.Gatherer)).Methods(http.MethodGet)
	}

	var handler http.Handler = r
	handler = mw.LoadUser(handler)
	handler = recordResponses(deps.Metrics, handler)
	return deps.Sessions.Manager.LoadAndSave(handler)
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func recordResponses(metrics *authentication.Metrics, next http.Handler) http.Handler {
	if metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.RecordResponse(rec.status)
	})
}
