package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sivamaran/reddit-scraper/internal/api"
	"github.com/sivamaran/reddit-scraper/internal/config"
	"github.com/sivamaran/reddit-scraper/internal/post"
	"github.com/sivamaran/reddit-scraper/internal/store"
	"github.com/sivamaran/reddit-scraper/internal/store/memory"
)

type fakeExtractor struct {
	urls []string
	err  error
}

func (f *fakeExtractor) Run(_ context.Context, urls []string) ([]post.Document, error) {
	f.urls = urls
	if f.err != nil {
		return nil, f.err
	}
	docs := make([]post.Document, 0, len(urls))
	for _, u := range urls {
		docs = append(docs, post.Document{URL: u, Platform: "reddit", Post: post.Body{Title: "<b>t</b>"}})
	}
	return docs, nil
}

type fakeIDs struct{}

func (fakeIDs) NewID() (string, error) { return "run-1", nil }

type fakeApp struct {
	extractor *fakeExtractor
	store     store.Upserter
	closed    bool
}

func (a *fakeApp) Close()                   { a.closed = true }
func (a *fakeApp) Logger() *zap.Logger      { return zap.NewNop() }
func (a *fakeApp) Config() config.Config    { return config.Config{} }
func (a *fakeApp) Extractor() api.Extractor { return a.extractor }
func (a *fakeApp) Store() store.Upserter    { return a.store }
func (a *fakeApp) IDs() api.IDGenerator     { return fakeIDs{} }

func withFakeApp(t *testing.T, a *fakeApp) {
	t.Helper()
	prev := newApp
	newApp = func(context.Context, string) (App, error) { return a, nil }
	t.Cleanup(func() { newApp = prev })
}

func TestReadURLs(t *testing.T) {
	t.Parallel()

	urls, err := readURLs(strings.NewReader("https://a\n\n   \n  https://b  \r\nhttps://a\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"https://a", "https://b", "https://a"}, urls)

	_, err = readURLFile(filepath.Join(t.TempDir(), "missing.txt"))
	require.ErrorContains(t, err, "open url file")
}

func TestWriteDocuments(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, writeDocuments(&buf, nil))
	require.Equal(t, "[]\n", buf.String())

	buf.Reset()
	require.NoError(t, writeDocuments(&buf, []post.Document{{URL: "u", Post: post.Body{Title: "<b>"}}}))
	require.Contains(t, buf.String(), "\n  {")
	require.Contains(t, buf.String(), `"title": "<b>"`)
}

func TestExtractCommandWritesAndStores(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "urls.txt")
	output := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(input, []byte("https://www.reddit.com/r/a/1\n\nhttps://www.reddit.com/r/a/2\n"), 0o600))

	st := memory.New()
	fa := &fakeApp{extractor: &fakeExtractor{}, store: st}
	withFakeApp(t, fa)

	root := newRootCmd()
	root.SetArgs([]string{"extract", "--input", input, "--output", output})
	require.NoError(t, root.ExecuteContext(context.Background()))

	require.Equal(t, []string{"https://www.reddit.com/r/a/1", "https://www.reddit.com/r/a/2"}, fa.extractor.urls)
	raw, err := os.ReadFile(output)
	require.NoError(t, err)
	var docs []post.Document
	require.NoError(t, json.Unmarshal(raw, &docs))
	require.Len(t, docs, 2)
	require.Equal(t, 2, st.Len())
	require.True(t, fa.closed)
}

func TestExtractCommandNoStoreAndEmptyInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "urls.txt")
	output := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(input, []byte("https://www.reddit.com/r/a/1\n"), 0o600))

	st := memory.New()
	withFakeApp(t, &fakeApp{extractor: &fakeExtractor{}, store: st})

	root := newRootCmd()
	root.SetArgs([]string{"extract", "-i", input, "-o", output, "--no-store"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	require.Equal(t, 0, st.Len())

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("\n  \n"), 0o600))
	emptyOut := filepath.Join(dir, "empty.json")
	root = newRootCmd()
	root.SetArgs([]string{"extract", "-i", empty, "-o", emptyOut})
	require.NoError(t, root.ExecuteContext(context.Background()))
	_, err := os.Stat(emptyOut)
	require.True(t, os.IsNotExist(err))
}

func TestExtractCommandSessionFailure(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "urls.txt")
	require.NoError(t, os.WriteFile(input, []byte("https://www.reddit.com/r/a/1\n"), 0o600))

	withFakeApp(t, &fakeApp{extractor: &fakeExtractor{err: post.ErrSessionAcquisition}})

	root := newRootCmd()
	root.SetArgs([]string{"extract", "-i", input, "-o", filepath.Join(dir, "out.json")})
	err := root.ExecuteContext(context.Background())
	require.True(t, errors.Is(err, post.ErrSessionAcquisition))
}

func TestRootFailsWhenAppCannotStart(t *testing.T) {
	prev := newApp
	newApp = func(context.Context, string) (App, error) { return nil, errors.New("bad config") }
	t.Cleanup(func() { newApp = prev })

	root := newRootCmd()
	root.SetArgs([]string{"extract"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	err := root.ExecuteContext(context.Background())
	require.ErrorContains(t, err, "failed to initialize application services")
}
