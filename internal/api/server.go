package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"category-dashboard/internal/service"
)

// UploadsPrefix is the URL path under which stored images are served.
const UploadsPrefix = "/uploads/"

// Options wires the HTTP layer to its services.
type Options struct {
	Auth       *service.AuthService
	Categories *service.CategoryService
	Images     *service.ImageService
	// Limiter throttles the register and login endpoints. Nil disables it.
	Limiter *RateLimiter
	Logger  *logrus.Logger
	// DevErrors exposes internal error text in 500 responses.
	DevErrors bool
}

// Server serves the category dashboard REST API.
type Server struct {
	auth       *service.AuthService
	categories *service.CategoryService
	images     *service.ImageService
	limiter    *RateLimiter
	log        *logrus.Logger
	devErrors  bool
	now        func() time.Time
}

func NewServer(opts Options) *Server {
	return &Server{
		auth:       opts.Auth,
		categories: opts.Categories,
		images:     opts.Images,
		limiter:    opts.Limiter,
		log:        opts.Logger,
		devErrors:  opts.DevErrors,
		now:        time.Now,
	}
}

// Handler returns the routed API with CORS, panic recovery and access logging.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.accessLog)

	r.HandleFunc("/", s.banner).Methods(http.MethodGet)
	r.HandleFunc("/api/health", s.health).Methods(http.MethodGet)
	r.PathPrefix(UploadsPrefix).Handler(s.uploads()).Methods(http.MethodGet, http.MethodHead)

	authRouter := r.PathPrefix("/api/auth").Subrouter()
	authRouter.HandleFunc("/register", s.rateLimited(s.register)).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", s.rateLimited(s.login)).Methods(http.MethodPost)
	authRouter.Handle("/me", s.requireAuth(http.HandlerFunc(s.me))).Methods(http.MethodGet)

	categoryRouter := r.PathPrefix("/api/categories").Subrouter()
	categoryRouter.Use(s.requireAuth)
	for _, root := range []string{"", "/"} {
		categoryRouter.HandleFunc(root, s.listCategories).Methods(http.MethodGet)
		categoryRouter.HandleFunc(root, s.createCategory).Methods(http.MethodPost)
	}
	categoryRouter.HandleFunc("/{id}", s.updateCategory).Methods(http.MethodPut)
	categoryRouter.HandleFunc("/{id}", s.deleteCategory).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.writeMessage(w, http.StatusNotFound, "Route not found")
	})

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)
	recovery := handlers.RecoveryHandler(handlers.RecoveryLogger(s.log), handlers.PrintRecoveryStack(true))
	return recovery(cors(r))
}

func (s *Server) banner(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Category dashboard API is running"))
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"message":   "Server is running!",
		"database":  "SQLite",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

// uploads serves stored images without directory listings.
func (s *Server) uploads() http.Handler {
	files := http.StripPrefix(UploadsPrefix, http.FileServer(http.Dir(s.images.Dir())))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			s.writeMessage(w, http.StatusNotFound, "Route not found")
			return
		}
		files.ServeHTTP(w, r)
	})
}
