package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/huongkhe/schoolsite/internal/audit"
	"github.com/huongkhe/schoolsite/internal/auth"
	"github.com/huongkhe/schoolsite/internal/content"
	"github.com/huongkhe/schoolsite/internal/docstore"
	"github.com/huongkhe/schoolsite/internal/infrastructure/config"
	"github.com/huongkhe/schoolsite/internal/infrastructure/database"
	"github.com/huongkhe/schoolsite/internal/infrastructure/influxdb"
	"github.com/huongkhe/schoolsite/internal/infrastructure/logging"
	"github.com/huongkhe/schoolsite/internal/infrastructure/mqtt"
	"github.com/huongkhe/schoolsite/internal/mail"
	"github.com/huongkhe/schoolsite/internal/media"
	"github.com/huongkhe/schoolsite/internal/realtime"
	"github.com/huongkhe/schoolsite/internal/spa"
	"github.com/huongkhe/schoolsite/internal/validation"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// runtimeMetricsInterval is how often runtime gauges go to InfluxDB.
const runtimeMetricsInterval = 30 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config *config.Config
	Logger *logging.Logger
	Store  docstore.Store
	Gate   *auth.Gate
	Auth   *auth.Authenticator
	Hub    *realtime.Hub

	// Emitter receives change events. Defaults to Hub; set it to a
	// realtime.Fanout of the hub and an MQTT relay to share events
	// between instances.
	Emitter realtime.Emitter

	// Optional.
	DB        *database.DB
	Audit     *audit.Recorder
	AuditRepo audit.Repository
	Metrics   *influxdb.Client
	MQTT      *mqtt.Client
	Media     *media.Service // enables POST /api/media
	Mailer    *mail.Mailer   // defaults to one built from Config.Mail
	Version   string
}

// Server is the HTTP API server for the school site.
//
// It manages the HTTP listener, routes, middleware, and the WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg       *config.Config
	logger    *logging.Logger
	store     docstore.Store
	gate      *auth.Gate
	authn     *auth.Authenticator
	hub       *realtime.Hub
	emitter   realtime.Emitter
	db        *database.DB
	audit     *audit.Recorder
	auditRepo audit.Repository
	metrics   *influxdb.Client
	mqtt      *mqtt.Client
	media     *media.Service
	mailer    *mail.Mailer
	site      http.Handler
	validator *validation.Validator
	version   string
	dev       bool
	startTime time.Time

	news     *content.Repository[content.News, content.NewsInput]
	teachers *content.Repository[content.Teacher, content.TeacherInput]
	clubs    *content.Repository[content.Club, content.ClubInput]
	events   *content.Repository[content.Event, content.EventInput]
	gallery  *content.Repository[content.GalleryItem, content.GalleryInput]

	router http.Handler
	server *http.Server
	cancel context.CancelFunc // cancels background goroutines on Close()
	bg     sync.WaitGroup     // goroutines Close waits for
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called, but Handler() is
// usable immediately.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	switch {
	case deps.Config == nil:
		return nil, fmt.Errorf("config is required")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger is required")
	case deps.Store == nil:
		return nil, fmt.Errorf("document store is required")
	case deps.Gate == nil || deps.Auth == nil:
		return nil, fmt.Errorf("session gate and authenticator are required")
	case deps.Hub == nil:
		return nil, fmt.Errorf("websocket hub is required")
	}

	v, err := validation.New(append(content.ValidatorOptions(),
		validation.WithMessage("confirmPassword", "eqfield", "Passwords don't match"),
	)...)
	if err != nil {
		return nil, fmt.Errorf("building validator: %w", err)
	}

	emitter := deps.Emitter
	if emitter == nil {
		emitter = deps.Hub
	}
	mailer := deps.Mailer
	if mailer == nil {
		mailer = mail.New(deps.Config.Mail, deps.Logger)
	}

	var site http.Handler
	if dir := deps.Config.Server.StaticDir; dir != "" {
		if site, err = spa.Handler(dir); err != nil {
			return nil, err
		}
	}

	s := &Server{
		cfg:       deps.Config,
		logger:    deps.Logger,
		store:     deps.Store,
		gate:      deps.Gate,
		authn:     deps.Auth,
		hub:       deps.Hub,
		emitter:   emitter,
		db:        deps.DB,
		audit:     deps.Audit,
		auditRepo: deps.AuditRepo,
		metrics:   deps.Metrics,
		mqtt:      deps.MQTT,
		media:     deps.Media,
		mailer:    mailer,
		site:      site,
		validator: v,
		version:   deps.Version,
		dev:       deps.Config.IsDevelopment(),
		startTime: time.Now(),

		news:     content.NewRepository(content.NewsKind, deps.Store),
		teachers: content.NewRepository(content.TeacherKind, deps.Store),
		clubs:    content.NewRepository(content.ClubKind, deps.Store),
		events:   content.NewRepository(content.EventKind, deps.Store),
		gallery:  content.NewRepository(content.GalleryKind, deps.Store),
	}
	s.router = s.buildRouter()

	return s, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub, the audit writer and the runtime metrics
// loop, then launches the HTTP listener in a background goroutine.
// The server can be stopped with Close().
//
// Parameters:
//   - ctx: Parent context for the background goroutines
//
// Returns:
//   - error: If the server fails to start
func (s *Server) Start(ctx context.Context) error {
	// Create internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)
	if s.audit != nil {
		s.bg.Add(1)
		go func() {
			defer s.bg.Done()
			s.audit.Run(srvCtx)
		}()
	}
	if s.metrics.IsConnected() {
		go s.runtimeMetricsLoop(srvCtx)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:           s.router,
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	// Listen synchronously so a port already in use fails Start.
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		s.cancel()
		return fmt.Errorf("listening on %s: %w", s.server.Addr, err)
	}

	tls := s.cfg.Server.TLS
	go func() {
		var err error
		if tls.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", ln.Addr().String(),
				"cert", tls.CertFile,
			)
			err = s.server.ServeTLS(ln, tls.CertFile, tls.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", ln.Addr().String())
			err = s.server.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	err := s.server.Shutdown(ctx)

	// Shutdown does not wait for hijacked WebSocket connections; cancelling
	// stops the hub, which closes them, and lets the audit writer drain.
	if s.cancel != nil {
		s.cancel()
	}
	s.bg.Wait()

	if err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}

func (s *Server) runtimeMetricsLoop(ctx context.Context) {
	ticker := time.NewTicker(runtimeMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var mem runtime.MemStats
			runtime.ReadMemStats(&mem)
			s.metrics.WriteRuntimeMetrics(map[string]interface{}{
				"goroutines":        runtime.NumGoroutine(),
				"heap_alloc_bytes":  int64(mem.HeapAlloc),
				"websocket_clients": s.hub.ClientCount(),
				"dropped_events":    s.hub.Dropped(),
			})
		}
	}
}
