package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/levenlabs/go-lflag"

	"github.com/powerroof/powerroof/pkg/feasibility"
	"github.com/powerroof/powerroof/pkg/log"
	"github.com/powerroof/powerroof/pkg/metrics"
	"github.com/powerroof/powerroof/pkg/policy"
	"github.com/powerroof/powerroof/pkg/prices"
	"github.com/powerroof/powerroof/pkg/types"
)

// Builder assembles a dossier for one request.
type Builder interface {
	Build(ctx context.Context, req feasibility.Request) (*feasibility.Report, error)
}

// identity is the verified subject of a bearer token.
type identity struct {
	Email   string
	Subject string
}

// tokenVerifier validates a Google ID token and returns its identity.
type tokenVerifier func(ctx context.Context, rawIDToken string) (identity, error)

// Server exposes the price history and report generation over HTTP.
type Server struct {
	history  *prices.History
	builder  Builder
	facility *types.FacilityProfile

	listenAddr string
	httpServer *http.Server

	adminEmails   []string
	verifier      tokenVerifier
	bypassAuth    bool
	serverName    string
	reportTimeout time.Duration
}

// Configured initializes the Server with its dependencies and registers its
// flags. pol and facility are resolved by their own packages during flag
// parsing; facility is the profile used when a request does not carry one.
func Configured(h *prices.History, pol *policy.Policy, fetcher feasibility.ImageFetcher, facility *types.FacilityProfile) *Server {
	srv := &Server{
		history:    h,
		facility:   facility,
		serverName: "powerroof",
	}
	if revision := os.Getenv("K_REVISION"); revision != "" {
		srv.serverName = revision
	}

	// get the port from PORT when running in cloud run
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	listenAddr := lflag.String("http-listen", ":"+port, "HTTP server listen address")
	adminEmails := lflag.String("admin-emails", "", "comma-delimited list of email addresses allowed to record prices")
	oidcAudience := lflag.String("oidc-audience", "", "audience to validate Google ID tokens against")
	bypassAuth := lflag.Bool("bypass-auth", false, "Allow price writes without a token (local development only)")
	reportTimeout := lflag.Duration("report-timeout", 45*time.Second, "Maximum time to assemble and render one report")
	window := lflag.String("price-window", strconv.Itoa(prices.DefaultWindow), "Number of recent months summarized for the wholesale price")

	lflag.Do(func() {
		srv.listenAddr = *listenAddr
		srv.adminEmails = splitEmails(*adminEmails)
		srv.bypassAuth = *bypassAuth
		srv.reportTimeout = *reportTimeout
		n, err := strconv.Atoi(*window)
		if err != nil || n <= 0 {
			panic(fmt.Sprintf("invalid price-window %q", *window))
		}
		srv.builder = feasibility.NewAssembler(h, *pol, fetcher).WithWindow(n)

		if *oidcAudience != "" {
			provider, err := oidc.NewProvider(context.Background(), "https://accounts.google.com")
			if err != nil {
				log.Ctx(context.Background()).Error("failed to initialize Google OIDC provider", slog.Any("error", err))
				os.Exit(1)
			}
			srv.verifier = oidcVerifier(provider.Verifier(&oidc.Config{ClientID: *oidcAudience}))
		}
	})

	return srv
}

func splitEmails(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, e := range strings.Split(s, ",") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

func oidcVerifier(v *oidc.IDTokenVerifier) tokenVerifier {
	return func(ctx context.Context, raw string) (identity, error) {
		tok, err := v.Verify(ctx, raw)
		if err != nil {
			return identity{}, err
		}
		var claims struct {
			Email string `json:"email"`
		}
		if err := tok.Claims(&claims); err != nil {
			return identity{}, fmt.Errorf("failed to parse claims: %w", err)
		}
		return identity{Email: claims.Email, Subject: tok.Subject}, nil
	}
}

func (s *Server) setupHandler() http.Handler {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /api/prices", s.handleListPrices)
	apiMux.Handle("POST /api/prices", s.adminMiddleware(http.HandlerFunc(s.handleUpsertPrice)))
	apiMux.HandleFunc("GET /api/prices/statistics", s.handlePriceStatistics)
	apiMux.HandleFunc("GET /api/feasibility", s.handleFeasibility)
	apiMux.HandleFunc("POST /api/feasibility", s.handleFeasibility)
	apiMux.HandleFunc("GET /api/report.pdf", s.handleReport(formatPDF))
	apiMux.HandleFunc("GET /api/report.xlsx", s.handleReport(formatXLSX))
	apiMux.HandleFunc("GET /api/report.md", s.handleReport(formatMarkdown))

	mux := http.NewServeMux()
	mux.Handle("/api/", s.requestLogMiddleware(apiMux))
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", s.handleHealthz)
	return s.revisionMiddleware(gziphandler.GzipHandler(s.securityHeadersMiddleware(mux)))
}

// Run starts the HTTP server and blocks until the context is canceled or an error occurs.
// It also handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.setupHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.reportTimeout + 15*time.Second,
		IdleTimeout:  15 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg}); err != nil {
		slog.Warn("failed to write error response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

// writeError maps validation failures to 400 and everything else to 500.
func writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	var verr *types.ValidationError
	var perr *types.InvalidProfileError
	switch {
	case errors.As(err, &verr), errors.As(err, &perr):
		log.Ctx(ctx).WarnContext(ctx, msg, slog.Any("error", err))
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, context.DeadlineExceeded):
		log.Ctx(ctx).ErrorContext(ctx, msg, slog.Any("error", err))
		writeJSONError(w, "timed out", http.StatusGatewayTimeout)
	default:
		log.Ctx(ctx).ErrorContext(ctx, msg, slog.Any("error", err))
		writeJSONError(w, msg, http.StatusInternalServerError)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) revisionMiddleware(next http.Handler) http.Handler {
	if s.serverName == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", s.serverName)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = log.With(ctx, log.Ctx(ctx).With(slog.String("reqPath", r.URL.Path)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
