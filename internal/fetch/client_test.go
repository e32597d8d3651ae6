package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fplcast/internal/store"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *int64) {
	t.Helper()
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(store.NewSnapshotStore(t.TempDir()))
	c.BaseURL = srv.URL
	c.Sleep = 0
	return c, &calls
}

func TestFetchRawWritesSnapshot(t *testing.T) {
	c, calls := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"events":[]}`))
	})

	body, err := c.BootstrapStatic(context.Background(), false)
	require.NoError(t, err)
	assert.JSONEq(t, `{"events":[]}`, string(body))
	assert.EqualValues(t, 1, atomic.LoadInt64(calls))

	saved, err := c.Store.ReadLatest("bootstrap")
	require.NoError(t, err)
	assert.JSONEq(t, `{"events":[]}`, string(saved))
}

func TestFetchRawServesFreshSnapshot(t *testing.T) {
	c, calls := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := c.Fixtures(context.Background(), false)
	require.NoError(t, err)
	_, err = c.Fixtures(context.Background(), false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt64(calls))

	_, err = c.Fixtures(context.Background(), true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt64(calls))
}

func TestFetchRawIgnoresStaleSnapshot(t *testing.T) {
	c, calls := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, c.Store.Write("fixtures", stale, []byte(`{"old":true}`), false))

	body, err := c.Fixtures(context.Background(), false)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(body))
	assert.EqualValues(t, 1, atomic.LoadInt64(calls))
}

func TestFetchRawRetriesServerErrors(t *testing.T) {
	var served int64
	c, calls := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&served, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	})
	c.Attempts = 3

	body, err := c.BootstrapStatic(context.Background(), false)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.EqualValues(t, 2, atomic.LoadInt64(calls))
}

func TestFetchRawDoesNotRetryClientErrors(t *testing.T) {
	c, calls := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	c.Attempts = 3

	_, err := c.ElementSummary(context.Background(), 999, false)
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt64(calls))
}
