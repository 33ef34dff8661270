package httpframing_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gitexplorer/internal/httpframing"
)

func TestNotModifiedByIfNoneMatch(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("If-None-Match", `"abc123"`)

	require.True(t, httpframing.NotModified(req, httpframing.Validator{ETag: "abc123"}))
}

func TestNotModifiedByWildcardIfNoneMatch(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("If-None-Match", "*")

	require.True(t, httpframing.NotModified(req, httpframing.Validator{ETag: "whatever"}))
}

func TestNotModifiedByIfModifiedSince(t *testing.T) {
	lastMod := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("If-Modified-Since", lastMod.Format(http.TimeFormat))

	require.True(t, httpframing.NotModified(req, httpframing.Validator{LastModified: lastMod}))
}

func TestModifiedWhenNewerThanIfModifiedSince(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("If-Modified-Since", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).Format(http.TimeFormat))

	require.False(t, httpframing.NotModified(req, httpframing.Validator{
		LastModified: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}))
}

func TestSetContentDispositionAsciiName(t *testing.T) {
	rec := httptest.NewRecorder()
	httpframing.SetContentDisposition(rec, "demorepoone_master.zip")
	require.Equal(t, `attachment; filename="demorepoone_master.zip"`, rec.Header().Get("Content-Disposition"))
}

func TestSetContentDispositionNonAsciiNameEmitsFallbackAndStar(t *testing.T) {
	rec := httptest.NewRecorder()
	httpframing.SetContentDisposition(rec, "résumé.txt")
	got := rec.Header().Get("Content-Disposition")
	require.Contains(t, got, `filename="résumé.txt"`)
	require.Contains(t, got, "filename*=utf-8''")
}

func TestWriteBodyKnownSizeSetsContentLength(t *testing.T) {
	rec := httptest.NewRecorder()
	err := httpframing.WriteBody(rec, strings.NewReader("hello"), "text/plain", 5)
	require.NoError(t, err)
	require.Equal(t, "5", rec.Header().Get("Content-Length"))
	require.Equal(t, "hello", rec.Body.String())
}

func TestWriteBodyUnknownSizeStreamsWithoutContentLength(t *testing.T) {
	rec := httptest.NewRecorder()
	data := strings.Repeat("z", 200000)
	err := httpframing.WriteBody(rec, strings.NewReader(data), "application/zip", -1)
	require.NoError(t, err)
	require.Empty(t, rec.Header().Get("Content-Length"))
	require.Equal(t, data, rec.Body.String())
}

func TestWriteBodyPropagatesReadError(t *testing.T) {
	rec := httptest.NewRecorder()
	err := httpframing.WriteBody(rec, errReader{}, "text/plain", -1)
	require.Error(t, err)
}

type errReader struct{}

func (errReader) Read(p []byte) (int, error) { return 0, io.ErrClosedPipe }
