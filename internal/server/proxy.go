package server

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"project-portal/internal/domain"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const projectUnavailable = "Project not found or disabled"

// proxyProject handles ANY /project/:id/*path, forwarding to the project's port with the prefix stripped
func (s *Server) proxyProject(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.String(http.StatusNotFound, projectUnavailable)
		return
	}

	project, err := s.store.GetProject(c.Request.Context(), id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.Error("Failed to load project for proxy", zap.Uint("id", id), zap.Error(err))
		c.String(http.StatusInternalServerError, "Error setting up proxy")
		return
	}
	if err != nil || !project.Enabled {
		c.String(http.StatusNotFound, projectUnavailable)
		return
	}

	path, rawPath := upstreamPath(c)
	s.reverseProxy(project, path, rawPath).ServeHTTP(c.Writer, c.Request)
}

// upstreamPath strips the /project/:id prefix from the escaped request path so
// encoded segments such as %2F reach the upstream unchanged
func upstreamPath(c *gin.Context) (string, string) {
	prefix := "/project/" + c.Param("id")
	escaped, ok := strings.CutPrefix(c.Request.URL.EscapedPath(), prefix)
	if !ok {
		return c.Param("path"), ""
	}
	if escaped == "" {
		escaped = "/"
	}
	path, err := url.PathUnescape(escaped)
	if err != nil {
		return c.Param("path"), ""
	}
	if path == escaped {
		return path, ""
	}
	return path, escaped
}

func (s *Server) reverseProxy(project *domain.Project, path, rawPath string) *httputil.ReverseProxy {
	target := &url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(s.config.UpstreamHost, strconv.Itoa(project.Port)),
	}
	name, port := project.Name, project.Port

	return &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(target)
			r.Out.URL.Path = path
			r.Out.URL.RawPath = rawPath
			r.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			s.logger.Warn("Proxy upstream unavailable",
				zap.String("project", name),
				zap.String("target", target.Host),
				zap.Error(err))
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprintf(w, "Error: Could not connect to %s. Make sure the application is running on port %d.", name, port)
		},
	}
}
