// Package httpserver serves aggregated coverage over HTTP: a JSON API and
// the same per-image HTML pages the report package writes to disk.
package httpserver

import (
	"context"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zjy-dev/funccov/internal/coverage"
	"github.com/zjy-dev/funccov/internal/report"
)

// Source is the narrow read-only contract the server needs from the aggregator.
type Source interface {
	Images() []string
	Summarize(image string) (coverage.Summary, bool)
}

// Server provides an HTTP viewer for one analysis run.
type Server struct {
	addr      string
	source    Source
	server    *http.Server
	listener  net.Listener
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a new HTTP server.
func NewServer(addr string, source Source) *Server {
	if addr == "" {
		addr = "127.0.0.1:8080"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:      addr,
		source:    source,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}
}

// Handler builds the gin engine with all routes registered.
// Image names are path-escaped in URLs, so "/usr/lib/libc.so.6" is
// requested as /api/images/%2Fusr%2Flib%2Flibc.so.6.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.UseRawPath = true
	r.UnescapePathValues = true

	r.GET("/", s.handleIndex)
	r.GET("/api/health", s.handleHealth)
	r.GET("/api/images", s.handleImages)
	r.GET("/api/images/:image", s.handleImage)
	r.GET("/report/:image", s.handleReport)
	return r
}

// Start begins serving HTTP requests in the background.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener
	s.startTime = time.Now()

	go s.server.Serve(listener)
	return nil
}

// Addr returns the bound address once started, or the configured one.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// EscapeImage encodes an image name as a single URL path segment. '+' is
// escaped too because gin unescapes raw path values with query semantics.
func EscapeImage(image string) string {
	return strings.ReplaceAll(url.PathEscape(image), "+", "%2B")
}

type imageEntry struct {
	Image              string  `json:"image"`
	TotalCount         int     `json:"total_count"`
	CalledCount        int     `json:"called_count"`
	UncalledCount      int     `json:"uncalled_count"`
	CoveragePercentage float64 `json:"coverage_percentage"`
	Link               string  `json:"report"`
}

func (s *Server) entries() []imageEntry {
	images := s.source.Images()
	out := make([]imageEntry, 0, len(images))
	for _, image := range images {
		sum, ok := s.source.Summarize(image)
		if !ok {
			continue
		}
		out = append(out, imageEntry{
			Image:              image,
			TotalCount:         sum.TotalCount,
			CalledCount:        sum.CalledCount,
			UncalledCount:      sum.UncalledCount,
			CoveragePercentage: sum.CoveragePercentage,
			Link:               "/report/" + EscapeImage(image),
		})
	}
	return out
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
		"images": len(s.source.Images()),
	})
}

func (s *Server) handleImages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"images": s.entries()})
}

func (s *Server) handleImage(c *gin.Context) {
	sum, ok := s.source.Summarize(c.Param("image"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (s *Server) handleReport(c *gin.Context) {
	sum, ok := s.source.Summarize(c.Param("image"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
		return
	}

	content, err := report.RenderHTML(sum)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render report"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", content)
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Function Coverage</title></head>
<body>
<h1>Function Coverage</h1>
{{- if .}}
<table>
<tr><th>Image</th><th>Total</th><th>Called</th><th>Coverage</th></tr>
{{- range .}}
<tr><td><a href="{{.Link}}">{{.Image}}</a></td><td>{{.TotalCount}}</td><td>{{.CalledCount}}</td><td>{{printf "%.2f" .CoveragePercentage}}%</td></tr>
{{- end}}
</table>
{{- else}}
<p>No data to report.</p>
{{- end}}
</body>
</html>
`))

func (s *Server) handleIndex(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := indexTemplate.Execute(c.Writer, s.entries()); err != nil {
		_ = c.Error(err)
	}
}
