package controller

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/domocan/internal/discovery"
	"github.com/muurk/domocan/internal/logging"
)

// DefaultHardwareIndex is the gateway registered when none is configured
const DefaultHardwareIndex = 1

// Config holds the simulator configuration
type Config struct {
	Host      string
	Port      int   // 0 picks a free port
	Hardware  []int // gateway indices accepting DomoCAN commands
	Advertise bool  // announce the controller over mDNS
	Instance  string
	LogLevel  string
}

// Server is a simulated controller serving json.htm over plain HTTP
type Server struct {
	config   *Config
	store    *Store
	handler  *Handler
	logger   *zap.Logger
	http     *http.Server
	listener net.Listener
	mdns     *zeroconf.Server
	mu       sync.Mutex
}

// New creates a simulator. Nothing is bound until Listen or Start.
func New(config *Config, logger *zap.Logger) *Server {
	hardware := config.Hardware
	if len(hardware) == 0 {
		hardware = []int{DefaultHardwareIndex}
	}
	logger = logging.OrNop(logger)

	store := NewStore(hardware...)
	handler := NewHandler(store, logger)
	return &Server{
		config:  config,
		store:   store,
		handler: handler,
		logger:  logger,
		http: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Store exposes the node tables, mainly for seeding
func (s *Server) Store() *Store {
	return s.store
}

// Listen binds the listening socket and starts the mDNS announcement if enabled
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return errors.New("server already listening")
	}

	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	if s.config.Advertise {
		if err := s.advertise(); err != nil {
			_ = listener.Close()
			s.listener = nil
			return err
		}
	}

	s.logger.Info("Simulated controller listening",
		zap.String("addr", listener.Addr().String()),
		zap.Ints("hardware", s.store.Hardware()),
		zap.Bool("advertise", s.config.Advertise),
	)
	return nil
}

func (s *Server) advertise() error {
	port := s.listener.Addr().(*net.TCPAddr).Port
	instance := s.config.Instance
	if instance == "" {
		instance = "DomoCAN simulator"
	}

	txt := []string{"path=/", "version=" + Version}
	if hw := s.store.Hardware(); len(hw) > 0 {
		txt = append(txt, discovery.HardwareIndexKey+"="+strconv.Itoa(hw[0]))
	}

	mdns, err := zeroconf.Register(instance, discovery.ServiceType, discovery.ServiceDomain, port, txt, nil)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}
	s.mdns = mdns
	return nil
}

// Addr returns the bound address, or "" before Listen
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// BaseURL returns the URL clients should use, or "" before Listen
func (s *Server) BaseURL() string {
	addr := s.Addr()
	if addr == "" {
		return ""
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return ""
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsUnspecified() {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// Serve handles requests until Shutdown. Listen must have been called.
func (s *Server) Serve() error {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()

	if listener == nil {
		return errors.New("server is not listening")
	}
	if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Start binds, serves and blocks until ctx is done or an interrupt arrives
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Serve()
	}()

	select {
	case <-sigChan:
		s.logger.Info("Shutdown signal received, stopping simulator...")
	case <-ctx.Done():
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops the mDNS announcement and the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	mdns := s.mdns
	s.mdns = nil
	listener := s.listener
	s.mu.Unlock()

	if mdns != nil {
		mdns.Shutdown()
	}

	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down simulator: %w", err)
	}
	if listener != nil {
		// Already closed when Serve ran
		_ = listener.Close()
	}
	s.logger.Info("Simulator stopped")
	return nil
}
