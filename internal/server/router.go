// HTTP routing.

package server

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Router builds the route table.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /api/health", Wrap(s, s.Health))
	mux.Handle("POST /api/auth/login", Wrap(s, s.Login))
	mux.Handle("GET /api/meta/schema", Wrap(s, s.MetaSchema))

	mux.Handle("GET /api/collections", Wrap(s, s.ListCollections))
	mux.Handle("POST /api/collections", WrapAdmin(s, s.CreateCollection))
	mux.Handle("GET /api/collections/{id}", Wrap(s, s.GetCollection))
	mux.Handle("PUT /api/collections/{id}", WrapAdmin(s, s.UpdateCollection))
	mux.Handle("DELETE /api/collections/{id}", WrapAdmin(s, s.DeleteCollection))

	mux.Handle("POST /api/collections/{id}/items", WrapAdmin(s, s.CreateItem))
	mux.Handle("PUT /api/collections/{id}/items/{itemID}", WrapAdmin(s, s.UpdateItem))
	mux.Handle("DELETE /api/collections/{id}/items/{itemID}", WrapAdmin(s, s.DeleteItem))

	mux.Handle("POST /api/collections/{id}/upload", WrapRaw(s, true, s.Upload))
	mux.Handle("GET /assets/{id}/{name}", WrapRaw(s, false, s.ServeAsset))
	mux.Handle("GET /api/collections/{id}/export.xlsx", WrapRaw(s, false, s.ExportXLSX))
	mux.Handle("POST /api/collections/import", WrapRaw(s, true, s.Import))
	mux.Handle("GET /api/collections/{id}/ws", WrapRaw(s, false, s.Subscribe))

	return logRequests(mux)
}

// logRequests logs every request with its status and duration.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Round(time.Microsecond))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.written {
		r.status = status
		r.written = true
	}
	r.ResponseWriter.WriteHeader(status)
}

// Hijack forwards to the underlying writer so websocket upgrades work
// through the logging wrapper.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}
