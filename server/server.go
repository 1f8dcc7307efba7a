package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/prior-it/bestiary/config"
	"github.com/prior-it/bestiary/views"
)

type (
	Handler         func(ex *Exchange) error
	ErrorHandler    func(ex *Exchange, err error)
	NotFoundHandler func(ex *Exchange)
)

// Options contains everything a Server is composed of.
type Options struct {
	Config   *config.Config
	Logger   *slog.Logger
	Renderer views.Renderer
	// Monsters receives every request below /monsters.
	Monsters http.Handler
	// Middleware runs after the default middleware and before the static files.
	Middleware []func(http.Handler) http.Handler
	// OnShutdown is called after the server stopped accepting requests.
	OnShutdown   []func(ctx context.Context)
	ErrorHandler ErrorHandler
	NotFound     NotFoundHandler
}

type Server struct {
	mux          *chi.Mux
	cfg          *config.Config
	logger       *slog.Logger
	renderer     views.Renderer
	errorHandler ErrorHandler
	onShutdown   []func(ctx context.Context)
}

// New creates a new server. All routes and middleware are registered here, the resulting
// server cannot be changed anymore.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("a server needs a config.Config value")
	}
	if opts.Renderer == nil {
		return nil, errors.New("a server needs a views.Renderer")
	}
	if opts.Monsters == nil {
		return nil, errors.New("a server needs a monsters handler")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ErrorHandler == nil {
		opts.ErrorHandler = DefaultErrorHandler
	}
	if opts.NotFound == nil {
		opts.NotFound = DefaultNotFoundHandler
	}

	static, err := Static(opts.Config.Static.Root, opts.Config.App.Debug)
	if err != nil {
		return nil, err
	}

	server := &Server{
		mux:          chi.NewMux(),
		cfg:          opts.Config,
		logger:       opts.Logger,
		renderer:     opts.Renderer,
		errorHandler: opts.ErrorHandler,
		onShutdown:   opts.OnShutdown,
	}

	// Middleware has to be registered before any route
	server.mux.Use(defaultMiddleware(opts.Config)...)
	server.mux.Use(opts.Middleware...)
	server.mux.Use(static)

	server.mux.Mount("/monsters", opts.Monsters)
	server.mux.Get("/", server.handle(Home))
	server.mux.Get("/ping", server.handle(Ping))

	notFound := opts.NotFound
	server.mux.NotFound(server.handle(func(ex *Exchange) error {
		notFound(ex)
		return nil
	}))
	server.mux.MethodNotAllowed(server.handle(func(ex *Exchange) error {
		notFound(ex)
		return nil
	}))

	return server, nil
}

// Home renders the index view.
func Home(ex *Exchange) error {
	return ex.Render("index", nil)
}

// Ping can be used as a liveness check.
func Ping(ex *Exchange) error {
	render.PlainText(ex.Writer, ex.Request, "pong")
	return nil
}

func (server *Server) newExchange(w http.ResponseWriter, r *http.Request) *Exchange {
	return &Exchange{
		Writer:   w,
		Request:  r,
		logger:   server.logger,
		renderer: server.renderer,
	}
}

func (server *Server) handle(handler Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ex := server.newExchange(w, r)
		err := handler(ex)
		if err != nil {
			server.errorHandler(ex, err)
		}
		_ = r.Body.Close()
	}
}

// ServeHTTP implements [net/http.Handler].
func (server *Server) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	server.mux.ServeHTTP(writer, request)
}

// Start runs the server until ctx is done or the process receives SIGINT or SIGTERM, after which it
// shuts down gracefully.
// If no listener is provided, a new TCP listener will be created on the configured host and port.
// Binding happens before Start returns control to the serving goroutine, so an address that is
// already in use results in an error without any request being served.
func (server *Server) Start(ctx context.Context, listener net.Listener) error {
	// Handle OS signals to cancel the context
	ctxServer, stopSignal := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignal()

	if listener == nil {
		var err error
		listener, err = net.Listen("tcp", server.cfg.Addr())
		if err != nil {
			return fmt.Errorf("cannot listen on %q: %w", server.cfg.Addr(), err)
		}
	}

	httpServer := &http.Server{
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second, //nolint:mnd
		ErrorLog:          slog.NewLogLogger(server.logger.Handler(), slog.LevelWarn),
	}

	server.logger.Info(
		"Server started",
		"port", listenerPort(listener),
		"addr", listener.Addr().String(),
	)

	errorCh := make(chan error, 1)
	go func() {
		errorCh <- httpServer.Serve(listener)
	}()

	select {
	case err := <-errorCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server stopped unexpectedly: %w", err)
	case <-ctxServer.Done():
		server.logger.Info("Server interrupt received")
	}

	timeout := time.Duration(max(server.cfg.App.ShutdownTimeout, 1)) * time.Second
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), timeout)
	defer cancelShutdown()

	errShutdown := httpServer.Shutdown(ctxShutdown)
	server.Shutdown(ctxShutdown)
	if errShutdown != nil {
		return fmt.Errorf("cannot shut down the server gracefully: %w", errShutdown)
	}
	server.logger.Info("Server stopped")
	return nil
}

// Shutdown will release all server resources. You generally don't need to call this manually.
func (server *Server) Shutdown(ctx context.Context) {
	for _, f := range server.onShutdown {
		f(ctx)
	}
}

func listenerPort(listener net.Listener) int {
	if addr, ok := listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}
