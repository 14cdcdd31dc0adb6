package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sivamaran/reddit-scraper/internal/post"
	"github.com/sivamaran/reddit-scraper/internal/store"
	"github.com/sivamaran/reddit-scraper/internal/store/memory"
)

type fakeExtractor struct {
	mu    sync.Mutex
	urls  []string
	docs  []post.Document
	err   error
	panic bool
}

func (f *fakeExtractor) Run(_ context.Context, urls []string) ([]post.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panic {
		panic("boom")
	}
	f.urls = append([]string(nil), urls...)
	if f.err != nil {
		return nil, f.err
	}
	if f.docs != nil {
		return f.docs, nil
	}
	out := make([]post.Document, 0, len(urls))
	for _, u := range urls {
		out = append(out, post.Document{URL: u, Platform: "reddit", ContentType: post.ContentTypePost})
	}
	return out, nil
}

type fakeIDGen struct {
	ids []string
	err error
}

func (f *fakeIDGen) NewID() (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if len(f.ids) == 0 {
		return "run-default", nil
	}
	id := f.ids[0]
	f.ids = f.ids[1:]
	return id, nil
}

type failingStore struct {
	pingErr   error
	upsertErr error
}

func (f failingStore) Upsert(context.Context, []post.Document) (store.Result, error) {
	return store.Result{}, f.upsertErr
}
func (f failingStore) Driver() string             { return "fake" }
func (f failingStore) Close() error               { return nil }
func (f failingStore) Ping(context.Context) error { return f.pingErr }

func postExtract(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/extract", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestExtractReturnsDocumentsAndStores(t *testing.T) {
	t.Parallel()

	ex := &fakeExtractor{}
	st := memory.New()
	s := NewServer(ex, st, &fakeIDGen{ids: []string{"run-1"}}, Config{}, zap.NewNop())

	rec := postExtract(t, s, `{"urls":["https://www.reddit.com/r/a/1"," ","https://www.reddit.com/r/a/1"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp extractResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "run-1", resp.RunID)
	require.Len(t, resp.Documents, 1)
	require.Equal(t, []string{"https://www.reddit.com/r/a/1"}, ex.urls)
	require.NotNil(t, resp.Stored)
	require.Equal(t, memory.Driver, resp.Stored.Driver)
	require.Equal(t, 1, resp.Stored.Upserted)
	require.Equal(t, 1, st.Len())
}

func TestExtractWithoutStore(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeExtractor{}, nil, &fakeIDGen{}, Config{}, nil)
	rec := postExtract(t, s, `{"urls":["https://www.reddit.com/r/a/1"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), `"stored"`)
}

func TestExtractRejectsBadRequests(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeExtractor{}, nil, &fakeIDGen{}, Config{MaxURLs: 2}, zap.NewNop())

	cases := []struct {
		name string
		body string
		want string
	}{
		{"invalid json", "{invalid", "invalid JSON"},
		{"empty", `{"urls":[]}`, "urls required"},
		{"blank", `{"urls":["  "]}`, "urls required"},
		{"too many", `{"urls":["a","b","c"]}`, "at most 2 urls"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := postExtract(t, s, tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Contains(t, rec.Body.String(), tc.want)
		})
	}
}

func TestExtractRejectsOversizedBody(t *testing.T) {
	t.Parallel()

	ex := &fakeExtractor{}
	s := NewServer(ex, nil, &fakeIDGen{}, Config{MaxBodyBytes: 64}, zap.NewNop())
	urls := make([]string, 20)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://www.reddit.com/r/test/comments/%d", i)
	}
	payload, err := json.Marshal(map[string][]string{"urls": urls})
	require.NoError(t, err)

	rec := postExtract(t, s, string(payload))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Contains(t, rec.Body.String(), "64 bytes")
	require.Nil(t, ex.urls)
}

func TestExtractErrorStatuses(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("open session: %w: %w", post.ErrSessionAcquisition, errors.New("no chrome")), http.StatusServiceUnavailable},
		{fmt.Errorf("run batch: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		s := NewServer(&fakeExtractor{err: tc.err}, nil, &fakeIDGen{}, Config{}, zap.NewNop())
		rec := postExtract(t, s, `{"urls":["https://www.reddit.com/r/a/1"]}`)
		require.Equal(t, tc.code, rec.Code, tc.err.Error())
	}

	s := NewServer(&fakeExtractor{}, nil, &fakeIDGen{err: errors.New("entropy")}, Config{}, zap.NewNop())
	rec := postExtract(t, s, `{"urls":["https://www.reddit.com/r/a/1"]}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestExtractStoreFailureStillReturnsDocuments(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeExtractor{}, failingStore{upsertErr: errors.New("disk full")}, &fakeIDGen{}, Config{}, zap.NewNop())
	rec := postExtract(t, s, `{"urls":["https://www.reddit.com/r/a/1"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp extractResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Documents, 1)
	require.Equal(t, "disk full", resp.StoreError)
	require.Nil(t, resp.Stored)
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	ok := NewServer(&fakeExtractor{}, failingStore{}, &fakeIDGen{}, Config{}, zap.NewNop())
	rec := httptest.NewRecorder()
	ok.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"store":"ok"`)

	down := NewServer(&fakeExtractor{}, failingStore{pingErr: errors.New("refused")}, &fakeIDGen{}, Config{}, zap.NewNop())
	rec = httptest.NewRecorder()
	down.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "refused")

	plain := NewServer(&fakeExtractor{}, nil, &fakeIDGen{}, Config{}, zap.NewNop())
	rec = httptest.NewRecorder()
	plain.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeExtractor{}, nil, &fakeIDGen{}, Config{}, zap.NewNop())
	postExtract(t, s, `{"urls":["https://www.reddit.com/r/a/1"]}`)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "http_requests_total"))
}

func TestRequestIDMiddleware(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeExtractor{}, nil, &fakeIDGen{}, Config{}, zap.NewNop())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "caller-id")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, "caller-id", rec.Header().Get("X-Request-ID"))
}

func TestRecoverMiddleware(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeExtractor{panic: true}, nil, &fakeIDGen{}, Config{}, zap.NewNop())
	rec := postExtract(t, s, `{"urls":["https://www.reddit.com/r/a/1"]}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "internal server error")
}
