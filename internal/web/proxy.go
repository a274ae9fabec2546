package web

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// backendPaths are owned by the CMS backend and proxied verbatim: the
// admin UI, the raw API, and uploaded/static assets.
var backendPaths = []string{"/admin", "/api", "/static", "/media"}

// mountBackendProxy forwards backend-owned paths to the CMS origin. When
// the origin cannot be parsed the proxy is skipped and those paths 404.
func (s *Server) mountBackendProxy(r chi.Router) {
	origin := s.cfg.BackendOrigin()
	backend, err := url.Parse(origin)
	if err != nil || backend.Host == "" {
		s.logger.Warn("backend proxy disabled", zap.String("origin", origin), zap.Error(err))
		return
	}

	proxy := httputil.NewSingleHostReverseProxy(backend)
	proxy.ErrorHandler = func(w http.ResponseWriter, req *http.Request, err error) {
		s.logger.Warn("backend proxy error",
			zap.String("path", req.URL.Path),
			zap.Error(err),
		)
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}

	for _, prefix := range backendPaths {
		r.Handle(prefix, proxy)
		r.Handle(prefix+"/*", proxy)
	}
}
