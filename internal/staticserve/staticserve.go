// Package staticserve implements the index/favicon/static-docroot
// external collaborator: GET / (index.html), GET|HEAD /favicon.ico,
// and GET|HEAD /static/<path>, all with conditional-GET keyed to file
// mtime, as spec.md §9's "corrected" ETag design requires for static
// content.
package staticserve

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"gitexplorer/internal/core"
	"gitexplorer/internal/httpframing"
	"gitexplorer/internal/sanitize"
)

// Server serves static content rooted at Docroot.
type Server struct {
	Docroot string
}

// New returns a Server rooted at docroot.
func New(docroot string) *Server {
	return &Server{Docroot: docroot}
}

// Index serves <Docroot>/index.html.
func (s *Server) Index(c *gin.Context) {
	s.serveFile(c, filepath.Join(s.Docroot, "index.html"))
}

// Favicon serves <Docroot>/favicon.ico.
func (s *Server) Favicon(c *gin.Context) {
	s.serveFile(c, filepath.Join(s.Docroot, "favicon.ico"))
}

// Static serves <Docroot>/static/<rest>, where rest is the router's
// forwarded capture. rest is sanitized against the static root before
// being joined, so a crafted "../" segment can't escape Docroot/static.
func (s *Server) Static(c *gin.Context) {
	staticRoot := filepath.Join(s.Docroot, "static")
	rel, err := sanitize.Path(core.ServedRoot(staticRoot), c.Param("rest"))
	if err != nil {
		c.String(http.StatusNotFound, "")
		return
	}
	s.serveFile(c, filepath.Join(staticRoot, filepath.FromSlash(string(rel))))
}

func (s *Server) serveFile(c *gin.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		c.String(http.StatusNotFound, "")
		return
	}

	validator := httpframing.Validator{LastModified: info.ModTime()}
	if httpframing.NotModified(c.Request, validator) {
		c.Status(http.StatusNotModified)
		return
	}
	httpframing.WriteValidators(c.Writer, validator)

	c.File(path)
}
