package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/net/html"

	vaultshot "github.com/alnah/go-vaultshot"
	"github.com/alnah/go-vaultshot/internal/config"
	"github.com/alnah/go-vaultshot/internal/dom"
	"github.com/alnah/go-vaultshot/internal/pipeline"
	"github.com/alnah/go-vaultshot/internal/vault"
	"github.com/alnah/go-vaultshot/internal/yamlutil"
)

// Server timeouts.
const (
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 5 * time.Minute // a request may hold several captures
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 15 * time.Second
	probeTimeout      = 30 * time.Second
)

// requestIDHeader carries the request id in both directions.
const requestIDHeader = "X-Request-Id"

// requestNote is the pseudo path request documents are rendered at: relative
// image paths resolve against the vault root.
const requestNote = "request.html"

// exportRequest is the body of POST /v1/exports. JSON is accepted as YAML.
type exportRequest struct {
	HTML      string            `yaml:"html" json:"html"`
	Elements  []string          `yaml:"elements" json:"elements"`
	Directory string            `yaml:"directory" json:"directory"`
	FileName  string            `yaml:"fileName" json:"fileName"`
	Style     map[string]string `yaml:"style" json:"style"`
}

// exportItem is the outcome for one captured element.
type exportItem struct {
	Index  int    `json:"index"`
	Path   string `json:"path"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Error  string `json:"error,omitempty"`
}

type exportResponse struct {
	RequestID string       `json:"requestId"`
	Exports   []exportItem `json:"exports"`
}

type errorResponse struct {
	RequestID string `json:"requestId,omitempty"`
	Error     string `json:"error"`
}

// server holds the HTTP API dependencies.
type server struct {
	cfg      *config.Config
	pool     Pool
	renderer *pipeline.Renderer
	probe    ProbeFunc
	logger   *log.Logger
	baseDir  string
}

// runServeCmd serves the HTTP API until ctx is canceled.
func runServeCmd(ctx context.Context, args []string, env *Environment) error {
	flags, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	envCfg := loadEnvConfig()
	if !flags.common.quiet {
		warnUnknownEnvVars(env.Stderr)
	}

	cfg, err := loadSettings(flags.common, envCfg)
	if err != nil {
		return err
	}
	mergeVaultFlags(flags.vault, cfg)
	if err := mergeCaptureFlags(flags.capture, cfg); err != nil {
		return err
	}
	mergeBrowserFlags(flags.browser, cfg)
	if flags.addr != "" {
		cfg.Server.Addr = flags.addr
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = config.DefaultAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	workers, err := resolveWorkers(flags.workers, envCfg)
	if err != nil {
		return err
	}
	css, err := resolveCSS(cfg)
	if err != nil {
		return err
	}

	logger := newLogger(env.Stderr, cfg.Log.Level, flags.common)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("closing vault", "err", err)
		}
	}()

	pool := env.NewPool(workers, store, exporterOptions(cfg, flags.browser.trace, logger)...)
	defer func() {
		if err := pool.Close(); err != nil {
			logger.Warn("closing browsers", "err", err)
		}
	}()

	baseDir, err := filepath.Abs(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpenVault, err)
	}
	s := &server{
		cfg:      cfg,
		pool:     pool,
		renderer: pipeline.NewRenderer(pipeline.WithCSS(css)),
		probe:    env.Probe,
		logger:   logger,
		baseDir:  baseDir,
	}

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Server.Addr, err)
	}
	return s.serve(ctx, ln)
}

// serve runs the HTTP server on ln and shuts it down when ctx is done.
func (s *server) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String(), "workers", s.pool.Size())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// routes builds the chi router.
func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/exports", s.handleExport)
		r.Get("/probe", s.handleProbe)
	})
	return r
}

type requestIDKey struct{}

// requestID reuses the caller's X-Request-Id or generates one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// requestIDFrom returns the id set by the requestID middleware.
func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// accessLog logs one line per request at debug level, or at warn level for
// server errors.
func (s *server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logFn := s.logger.Debug
		if ww.Status() >= http.StatusInternalServerError {
			logFn = s.logger.Warn
		}
		logFn("request",
			"id", requestIDFrom(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"took", time.Since(start).Round(time.Millisecond))
	})
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": Version})
}

// handleExport renders the posted HTML, captures every matching element,
// and stores the snapshots. Any failed capture turns the response into a
// 422 that still lists the successful ones.
func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := requestIDFrom(ctx)

	var req exportRequest
	if err := yamlutil.DecodeStrict(r.Body, &req); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, yamlutil.ErrInputTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, id, fmt.Errorf("decoding request: %w", err))
		return
	}

	elements, style, err := s.validateRequest(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, id, err)
		return
	}

	doc, err := s.renderer.Render(ctx, pipeline.Note{Path: filepath.Join(s.baseDir, requestNote), Content: req.HTML})
	if err != nil {
		writeError(w, http.StatusBadRequest, id, err)
		return
	}
	targets := pipeline.SelectTargets(doc, elements)
	if len(targets) == 0 {
		writeError(w, http.StatusUnprocessableEntity, id, vaultshot.ErrNoTargets)
		return
	}

	pub := s.pool.Acquire()
	if pub == nil {
		writeError(w, http.StatusServiceUnavailable, id, ErrExporterInit)
		return
	}
	defer s.pool.Release(pub)

	var prepare vaultshot.PrepareFunc
	if len(style) > 0 {
		prepare = func(_, root *html.Node) { dom.ApplyStyle(root, style) }
	}

	resp := exportResponse{RequestID: id, Exports: make([]exportItem, 0, len(targets))}
	status := http.StatusOK
	for i, target := range targets {
		name := exportFileName(req.FileName, i, len(targets))
		item := exportItem{Index: i}
		if p, err := vault.Join(req.Directory, name); err == nil {
			item.Path = p
		}

		dims, err := pub.ExportErr(ctx, req.Directory, vaultshot.RenderTarget{Root: target, Prepare: prepare}, name)
		if err != nil {
			if ctx.Err() != nil {
				return // client gone
			}
			s.logger.Warn("export failed", "id", id, "file", name, "err", err)
			item.Error = err.Error()
			if status == http.StatusOK {
				status = statusForExportError(err)
			}
		} else {
			item.Width, item.Height = dims.Width, dims.Height
		}
		resp.Exports = append(resp.Exports, item)
	}
	writeJSON(w, status, resp)
}

// validateRequest fills request defaults from the server config and checks
// the result with the same rules as a config file.
func (s *server) validateRequest(req *exportRequest) ([]string, dom.Style, error) {
	if strings.TrimSpace(req.HTML) == "" {
		return nil, nil, errors.New("html is required")
	}
	if req.Directory == "" {
		req.Directory = s.cfg.Capture.Directory
	}
	if req.FileName == "" {
		req.FileName = uuid.NewString() + ".png"
	}

	style := make(dom.Style, len(s.cfg.Capture.Style)+len(req.Style))
	for k, v := range s.cfg.Capture.Style {
		style[k] = v
	}
	for k, v := range req.Style {
		style[k] = v
	}

	check := config.DefaultConfig()
	check.Capture.Directory = req.Directory
	check.Capture.Elements = req.Elements
	check.Capture.Style = style
	if err := check.Validate(); err != nil {
		return nil, nil, err
	}

	elements := req.Elements
	if len(elements) == 0 {
		elements = s.cfg.Elements()
	}
	return elements, style, nil
}

// exportFileName numbers files when a request captures several elements:
// chart.png becomes chart-1.png, chart-2.png, ...
func exportFileName(fileName string, i, n int) string {
	if n == 1 {
		return fileName
	}
	ext := filepath.Ext(fileName)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(fileName, ext), i+1, ext)
}

// statusForExportError maps an export error to an HTTP status.
func statusForExportError(err error) int {
	switch exitCodeFor(err) {
	case ExitUsage:
		return http.StatusBadRequest
	case ExitBrowser:
		return http.StatusBadGateway
	default:
		return http.StatusUnprocessableEntity
	}
}

// handleProbe reports the natural size of ?src=.
func (s *server) handleProbe(w http.ResponseWriter, r *http.Request) {
	id := requestIDFrom(r.Context())
	src := r.URL.Query().Get("src")
	if strings.TrimSpace(src) == "" {
		writeError(w, http.StatusBadRequest, id, errors.New("src is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()
	dims, err := s.probe(ctx, src)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, id, err)
		return
	}
	writeJSON(w, http.StatusOK, dims)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, id string, err error) {
	writeJSON(w, status, errorResponse{RequestID: id, Error: err.Error()})
}
