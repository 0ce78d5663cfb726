package pfr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ffdraft/draftboard/internal/provider"
)

func TestClient_DocumentUncommentsTables(t *testing.T) {
	var ua string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		servePage(fixture(t, "MahoPa00.htm"))(w, r)
	}))

	doc, err := c.Document(t.Context(), "/players/M/MahoPa00.htm")
	require.NoError(t, err)
	assert.NotEmpty(t, ua)

	_, alias, ok := LocateTable(doc, provider.CategoryReceiving)
	require.True(t, ok)
	assert.Equal(t, "receiving_and_rushing", alias)
}

func TestClient_StatusError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))

	_, err := c.Document(t.Context(), "/players/M/MahoPa00.htm")
	require.ErrorIs(t, err, ErrStatus)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "slow down")
}

func TestClient_PacesRequests(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("<html></html>"))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(Options{BaseURL: srv.URL, Delay: 100 * time.Millisecond}, discardLogger())

	start := time.Now()
	for range 3 {
		_, err := c.Document(t.Context(), "/")
		require.NoError(t, err)
	}

	assert.Equal(t, int32(3), hits.Load())
	assert.GreaterOrEqual(t, time.Since(start), 180*time.Millisecond)
}

func TestClient_WaitHonorsContext(t *testing.T) {
	srv := httptest.NewServer(servePage([]byte("<html></html>")))
	t.Cleanup(srv.Close)

	c := NewClient(Options{BaseURL: srv.URL, Delay: time.Hour}, discardLogger())
	_, err := c.Document(t.Context(), "/")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Document(ctx, "/")
	assert.Error(t, err)
}

func TestLocateRows_MissingTable(t *testing.T) {
	doc := htmlDoc(t, []byte(`<html><body><table id="defense"><tbody><tr><td>1</td></tr></tbody></table></body></html>`))

	_, _, ok := LocateTable(doc, provider.CategoryPassing)
	assert.False(t, ok)
	assert.Equal(t, 0, LocateRows(doc, provider.CategoryPassing).Length())
}

func TestLocateRows_PrefersFirstAlias(t *testing.T) {
	doc := htmlDoc(t, []byte(`<html><body>
<table id="receiving_and_rushing"><tbody><tr><td>b</td></tr></tbody></table>
<table id="rushing_and_receiving"><tbody><tr><td>a</td></tr><tr><td>a</td></tr></tbody></table>
</body></html>`))

	_, alias, ok := LocateTable(doc, provider.CategoryRushing)
	require.True(t, ok)
	assert.Equal(t, "rushing_and_receiving", alias)
	assert.Equal(t, 2, LocateRows(doc, provider.CategoryRushing).Length())
}
