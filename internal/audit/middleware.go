package audit

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// HTTPRecorder records mutating HTTP requests after they have been handled.
type HTTPRecorder struct {
	Service *Service
	OnError func(error)
}

// Middleware records every non-GET request passing through it. The resource
// id is taken from the chi URL parameter "id" when present.
func (r HTTPRecorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if r.Service == nil || !r.Service.Enabled || !mutating(req.Method) {
			next.ServeHTTP(w, req)
			return
		}

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, req)

		ev := Event{
			Actor:  ActorFrom(req.Context()),
			Status: rec.Status(),
		}
		if rc := chi.RouteContext(req.Context()); rc != nil {
			ev.Route = rc.RoutePattern()
			ev.ResourceID = rc.URLParam("id")
		}
		ctx := context.WithoutCancel(req.Context())
		if err := r.Service.Record(ctx, req, ev); err != nil && r.OnError != nil {
			r.OnError(err)
		}
	})
}

func mutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) Status() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}
