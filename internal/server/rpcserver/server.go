package rpcserver

import (
	"errors"
	"net"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"connectrpc.com/grpcreflect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mbaklund/quiesce/internal/infra/tlsroots"
	"github.com/mbaklund/quiesce/internal/server/tracker"
	"github.com/mbaklund/quiesce/internal/telemetry/logger"
	"github.com/mbaklund/quiesce/internal/telemetry/metric"
)

// Config holds the RPC server settings.
type Config struct {
	// Addr is the TCP listen address, e.g. "[::]:50051".
	Addr string

	// RateLimit is the per-client-IP request rate in requests per
	// second. Zero disables rate limiting.
	RateLimit int

	// TLSCert and TLSKey enable TLS when both are set. The key pair
	// is watched and reloaded on change. Empty means plaintext h2c.
	TLSCert string
	TLSKey  string
}

// Server is the RPC server. It serves health checks and reflection over
// Connect/gRPC/gRPC-Web and exposes Prometheus metrics on /metrics.
type Server struct {
	cfg         Config
	httpServer  *http.Server
	checker     *grpchealth.StaticChecker
	certWatcher *tlsroots.Watcher
	trk         *tracker.Tracker
	log         logger.Logger
}

// New creates the RPC server and registers its drain hook on the tracker.
func New(cfg Config, trk *tracker.Tracker, metrics *metric.Registry, log logger.Logger) (*Server, error) {
	if log == nil {
		log = logger.Default()
	}
	checker := grpchealth.NewStaticChecker(grpchealth.HealthV1ServiceName)

	mux := http.NewServeMux()

	// Skip compressing tiny responses; health and reflection payloads
	// rarely clear this bar.
	opts := connect.WithCompressMinBytes(1024)

	healthPath, healthHandler := grpchealth.NewHandler(checker, opts)
	mux.Handle(healthPath, healthHandler)

	reflector := grpcreflect.NewStaticReflector(grpchealth.HealthV1ServiceName)
	reflectPath, reflectHandler := grpcreflect.NewHandlerV1(reflector, opts)
	mux.Handle(reflectPath, reflectHandler)
	reflectAlphaPath, reflectAlphaHandler := grpcreflect.NewHandlerV1Alpha(reflector, opts)
	mux.Handle(reflectAlphaPath, reflectAlphaHandler)

	if metrics != nil {
		mux.Handle("/metrics", metrics.Handler())
	}

	middlewares := []Middleware{
		Recover(log),
		RequestID(),
	}
	if metrics != nil {
		middlewares = append(middlewares, Metrics(metrics))
	}
	if cfg.RateLimit > 0 {
		middlewares = append(middlewares, RateLimit(cfg.RateLimit))
	}
	handler := Chain(mux, middlewares...)

	// With TLS, HTTP/2 is negotiated via ALPN; without it, h2c carries
	// gRPC over plaintext HTTP/2.
	var certWatcher *tlsroots.Watcher
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if cfg.TLSCert != "" {
		var err error
		certWatcher, err = tlsroots.NewWatcher(cfg.TLSCert, cfg.TLSKey, tlsroots.WithLogger(log))
		if err != nil {
			return nil, err
		}
		httpServer.Handler = handler
		httpServer.TLSConfig = certWatcher.TLSConfig()
	} else {
		httpServer.Handler = h2c.NewHandler(handler, &http2.Server{})
	}

	s := &Server{
		cfg:         cfg,
		httpServer:  httpServer,
		checker:     checker,
		certWatcher: certWatcher,
		trk:         trk,
		log:         log,
	}

	// When draining begins, advertise NOT_SERVING so load balancers stop
	// routing new requests, and disable keep-alives so idle connections
	// close after their current request instead of lingering.
	trk.OnClose(func() {
		s.log.Info("marking health service as not serving")
		s.checker.SetStatus("", grpchealth.StatusNotServing)
		s.checker.SetStatus(grpchealth.HealthV1ServiceName, grpchealth.StatusNotServing)
		s.httpServer.SetKeepAlivesEnabled(false)
	})

	return s, nil
}

// ListenAndServe binds the configured address and serves until the
// listener is closed by the tracker.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections from ln through the tracker until the tracker
// stops accepting. A listener closed by the tracker is a clean exit, not
// an error.
func (s *Server) Serve(ln net.Listener) error {
	tracked := s.trk.Listen(ln)
	s.log.Info("rpc server listening", "addr", ln.Addr().String(), "tls", s.certWatcher != nil)

	var err error
	if s.certWatcher != nil {
		s.certWatcher.StartAsync()
		defer s.certWatcher.Stop()
		err = s.httpServer.ServeTLS(tracked, "", "")
	} else {
		err = s.httpServer.Serve(tracked)
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.cfg.Addr
}
