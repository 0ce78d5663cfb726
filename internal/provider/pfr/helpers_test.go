package pfr

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return b
}

// fixtureDoc parses a testdata page the same way the client does.
func fixtureDoc(t *testing.T, name string) *goquery.Document {
	t.Helper()
	return htmlDoc(t, fixture(t, name))
}

func htmlDoc(t *testing.T, body []byte) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(uncomment(body)))
	require.NoError(t, err)
	return doc
}

// tableRows wraps body rows in a table with the given id and returns them.
func tableRows(t *testing.T, id, rows string) *goquery.Selection {
	t.Helper()
	doc := htmlDoc(t, []byte(`<html><body><table id="`+id+`"><tbody>`+rows+`</tbody></table></body></html>`))
	return doc.Find("table#" + id + " tbody tr")
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL, Delay: -1}, discardLogger())
}

func servePage(body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(body)
	}
}
