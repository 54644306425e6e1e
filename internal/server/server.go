// Package server exposes the update service over HTTP and API Gateway.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"sigs.k8s.io/controller-runtime/pkg/healthz"

	"github.com/yuriy-kovalchuk/yk-dyndns/internal/update"
)

const (
	maxBodyBytes = 64 << 10

	msgOK            = "OK"
	msgMissingFields = "Bad request: Provide 'validation_hash', 'dns_record' and 'public_ip'"
	msgForbidden     = "Forbidden"
	msgInternal      = "Internal error"
)

// Updater runs a single update.
type Updater interface {
	Update(ctx context.Context, req update.Request) error
}

// Server serves POST /update plus /healthz and /metrics.
type Server struct {
	Updater Updater
	Log     logr.Logger
	// TrustForwardedFor takes the client address from X-Forwarded-For. Only
	// enable behind a proxy that sets it.
	TrustForwardedFor bool
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/update", s.handleUpdate).Methods(http.MethodPost)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	health := &healthz.Handler{Checks: map[string]healthz.Checker{"ping": healthz.Ping}}
	r.PathPrefix("/healthz").Handler(http.StripPrefix("/healthz", health)).Methods(http.MethodGet)
	return r
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Log.Info("serving", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	client := s.clientIP(r)

	req, err := decodeRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.Log.Info("client sent an unreadable body", "client", client, "error", err.Error())
		writeText(w, http.StatusBadRequest, msgMissingFields)
		return
	}
	req.SourceIP = client

	status, body := Response(s.Updater.Update(r.Context(), req))
	writeText(w, status, body)
}

func (s *Server) clientIP(r *http.Request) string {
	if s.TrustForwardedFor {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			return strings.TrimSpace(first)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func decodeRequest(body io.Reader) (update.Request, error) {
	var req update.Request
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return update.Request{}, fmt.Errorf("decoding request body: %w", err)
	}
	return req, nil
}

// Response maps an update result to a status code and body. Both
// authorization failures get the same answer so clients cannot probe which
// records exist.
func Response(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, msgOK
	case errors.Is(err, update.ErrBadRequest):
		return http.StatusBadRequest, msgMissingFields
	case errors.Is(err, update.ErrUnauthorized):
		return http.StatusForbidden, msgForbidden
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
