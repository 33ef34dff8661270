package staticserve_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"gitexplorer/internal/staticserve"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext(method, target string, rest string) (*gin.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, nil)
	if rest != "" {
		c.Params = gin.Params{{Key: "rest", Value: rest}}
	}
	return c, rec
}

func TestIndexServesFile(t *testing.T) {
	docroot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(docroot, "index.html"), []byte("<html></html>"), 0o644))

	srv := staticserve.New(docroot)
	c, rec := newContext(http.MethodGet, "/", "")
	srv.Index(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "<html></html>", rec.Body.String())
}

func TestIndexMissingIs404(t *testing.T) {
	srv := staticserve.New(t.TempDir())
	c, rec := newContext(http.MethodGet, "/", "")
	srv.Index(c)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStaticServesNestedFile(t *testing.T) {
	docroot := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(docroot, "static", "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docroot, "static", "css", "site.css"), []byte("body{}"), 0o644))

	srv := staticserve.New(docroot)
	c, rec := newContext(http.MethodGet, "/static/css/site.css", "css/site.css")
	srv.Static(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "body{}", rec.Body.String())
}

func TestStaticRejectsTraversal(t *testing.T) {
	docroot := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(docroot, "static"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docroot, "secret.txt"), []byte("nope"), 0o644))

	srv := staticserve.New(docroot)
	c, rec := newContext(http.MethodGet, "/static/../secret.txt", "../secret.txt")
	srv.Static(c)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFaviconConditionalGet(t *testing.T) {
	docroot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(docroot, "favicon.ico"), []byte("ICO"), 0o644))

	srv := staticserve.New(docroot)
	c, rec := newContext(http.MethodGet, "/favicon.ico", "")
	srv.Favicon(c)
	require.Equal(t, http.StatusOK, rec.Code)

	etag := rec.Header().Get("Last-Modified")
	require.NotEmpty(t, etag)

	c2, rec2 := newContext(http.MethodGet, "/favicon.ico", "")
	c2.Request.Header.Set("If-Modified-Since", etag)
	srv.Favicon(c2)
	require.Equal(t, http.StatusNotModified, rec2.Code)
}
