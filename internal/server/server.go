package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/docsentry/docsentry/internal/config"
	"github.com/docsentry/docsentry/internal/linkcheck"
	"github.com/docsentry/docsentry/internal/lint"
	"github.com/docsentry/docsentry/internal/logging"
	"github.com/docsentry/docsentry/internal/registry"
	"github.com/docsentry/docsentry/internal/scanner"
	"github.com/docsentry/docsentry/internal/watcher"
)

// Client represents a WebSocket client
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	server *ReportServer
}

// ReportServer serves the documentation integrity report with live reload.
// When hot reload is enabled it watches the docs roots, rescans changed
// files, and pushes update messages to connected browsers.
type ReportServer struct {
	config        *config.Config
	httpServer    *http.Server
	serverMutex   sync.RWMutex // Protects httpServer and server state
	clients       map[*websocket.Conn]*Client
	clientsMutex  sync.RWMutex
	broadcast     chan []byte
	register      chan *Client
	unregister    chan *websocket.Conn
	registry      *registry.DocumentRegistry
	scanner       *scanner.DocumentScanner
	linter        *lint.Linter
	checker       *linkcheck.Checker
	watcher       *watcher.FileWatcher
	logger        logging.Logger
	shutdownOnce  sync.Once
	isShutdown    bool
	shutdownMutex sync.RWMutex
}

// UpdateMessage represents a message sent to the browser
type UpdateMessage struct {
	Type      string    `json:"type"`
	Target    string    `json:"target,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// New creates a new report server
func New(cfg *config.Config, logger logging.Logger) (*ReportServer, error) {
	if logger == nil {
		logger = logging.NewLogger(logging.DefaultConfig())
	}
	logger = logger.WithComponent("server")

	reg := registry.NewDocumentRegistry()

	root := "."
	if len(cfg.Docs.Roots) > 0 {
		root = cfg.Docs.Roots[0]
	}
	docScanner := scanner.NewDocumentScanner(reg,
		scanner.WithRoot(root),
		scanner.WithExcludePatterns(cfg.Docs.ExcludePatterns),
	)

	var fileWatcher *watcher.FileWatcher
	if cfg.Development.HotReload {
		var err error
		fileWatcher, err = watcher.NewFileWatcher(300*time.Millisecond, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create file watcher: %w", err)
		}
	}

	return &ReportServer{
		config:     cfg,
		clients:    make(map[*websocket.Conn]*Client),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn),
		registry:   reg,
		scanner:    docScanner,
		linter:     lint.New(LinterOptions(cfg)),
		checker:    linkcheck.New(CheckerOptions(cfg)),
		watcher:    fileWatcher,
		logger:     logger,
	}, nil
}

// LinterOptions maps lint configuration onto linter options.
func LinterOptions(cfg *config.Config) lint.Options {
	return lint.Options{
		MaxTitleLength:       cfg.Lint.MaxTitleLength,
		MaxDescriptionLength: cfg.Lint.MaxDescriptionLength,
		DisabledRules:        cfg.Lint.DisabledRules,
		SeverityOverrides:    cfg.Lint.Severity,
	}
}

// CheckerOptions maps link configuration onto checker options.
func CheckerOptions(cfg *config.Config) linkcheck.Options {
	return linkcheck.Options{
		Concurrency:    cfg.Links.Concurrency,
		Timeout:        cfg.Links.Timeout,
		Retries:        cfg.Links.Retries,
		IgnorePatterns: cfg.Links.IgnorePatterns,
		CheckFragments: cfg.Links.CheckFragments,
		PerHostDelay:   cfg.Links.PerHostDelay,
	}
}

// Registry exposes the server's document registry.
func (s *ReportServer) Registry() *registry.DocumentRegistry {
	return s.registry
}

// Start starts the report server
func (s *ReportServer) Start(ctx context.Context) error {
	if s.watcher != nil {
		s.setupFileWatcher(ctx)
	}

	// Initial scan
	if err := s.initialScan(ctx); err != nil {
		s.logger.Warn(ctx, err, "initial scan failed")
	}

	// Start WebSocket hub
	go s.runWebSocketHub(ctx)
	go s.forwardRegistryEvents(ctx)

	// Set up HTTP routes
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/documents", s.handleDocuments)
	mux.HandleFunc("/api/documents/", s.handleDocument)
	mux.HandleFunc("/api/report", s.handleReport)
	mux.HandleFunc("/", s.handleIndex)

	handler := s.addMiddleware(mux)

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: handler,
	}
	server := s.httpServer // Get local copy for safe access
	s.serverMutex.Unlock()

	s.logger.Info(ctx, "serving report", "addr", addr)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

func (s *ReportServer) setupFileWatcher(ctx context.Context) {
	s.watcher.AddFilter(watcher.MarkdownFilter)
	s.watcher.AddFilter(watcher.NoHiddenFilter)
	s.watcher.AddFilter(watcher.NoVendorFilter)

	s.watcher.AddHandler(s.handleFileChange)

	for _, root := range s.config.Docs.Roots {
		if err := s.watcher.AddRecursive(root); err != nil {
			s.logger.Warn(ctx, err, "failed to watch path", "path", root)
		}
	}

	if err := s.watcher.Start(ctx); err != nil {
		s.logger.Warn(ctx, err, "failed to start file watcher")
	}
}

func (s *ReportServer) initialScan(ctx context.Context) error {
	for _, root := range s.config.Docs.Roots {
		if err := s.scanner.ScanDirectory(root); err != nil {
			s.logger.Warn(ctx, err, "error scanning root", "root", root)
			continue
		}
	}

	s.logger.Info(ctx, "initial scan complete", "documents", s.registry.Count())
	return nil
}

func (s *ReportServer) handleFileChange(events []watcher.ChangeEvent) error {
	ctx := context.Background()

	for _, event := range events {
		s.logger.Debug(ctx, "file changed", "path", event.Path, "type", event.Type.String())

		if event.Type == watcher.EventTypeDeleted {
			s.registry.Remove(s.scanner.RelPath(event.Path))
			continue
		}

		if err := s.scanner.ScanFile(event.Path); err != nil {
			s.logger.Warn(ctx, err, "failed to rescan file", "path", event.Path)
		}
	}

	// External link results for unchanged URLs stay cached; only new URLs
	// are fetched on the next report request.
	s.broadcastMessage(UpdateMessage{Type: "reload", Timestamp: time.Now()})

	return nil
}

// forwardRegistryEvents pushes document lifecycle events to browsers so the
// report view can update incrementally.
func (s *ReportServer) forwardRegistryEvents(ctx context.Context) {
	events := s.registry.Watch()
	defer s.registry.UnWatch(events)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			msg := UpdateMessage{
				Type:      "document_" + string(event.Type),
				Timestamp: event.Timestamp,
			}
			if event.Document != nil {
				msg.Target = event.Document.Path
			}
			s.broadcastMessage(msg)
		}
	}
}

func (s *ReportServer) addMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if s.isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		start := time.Now()
		handler.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "request",
			"method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// isAllowedOrigin checks if the origin is in the allowed origins list
func (s *ReportServer) isAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}

	for _, allowed := range s.config.Server.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}

	return false
}

func (s *ReportServer) broadcastMessage(msg UpdateMessage) {
	s.shutdownMutex.RLock()
	if s.isShutdown {
		s.shutdownMutex.RUnlock()
		return
	}
	s.shutdownMutex.RUnlock()

	jsonData, err := json.Marshal(msg)
	if err != nil {
		s.logger.Warn(context.Background(), err, "failed to marshal update message")
		jsonData = []byte(`{"type":"reload"}`)
	}

	s.broadcast <- jsonData
}

// Shutdown gracefully shuts down the server and cleans up resources
func (s *ReportServer) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "shutting down server")

		// Mark as shutdown to prevent new operations
		s.shutdownMutex.Lock()
		s.isShutdown = true
		s.shutdownMutex.Unlock()

		if s.watcher != nil {
			s.watcher.Stop()
		}

		if s.scanner != nil {
			s.scanner.Close()
		}

		// Close all WebSocket connections
		s.clientsMutex.Lock()
		for conn, client := range s.clients {
			close(client.send)
			conn.Close(websocket.StatusNormalClosure, "")
		}
		s.clients = make(map[*websocket.Conn]*Client)
		s.clientsMutex.Unlock()

		s.serverMutex.RLock()
		server := s.httpServer
		s.serverMutex.RUnlock()

		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})

	return shutdownErr
}
