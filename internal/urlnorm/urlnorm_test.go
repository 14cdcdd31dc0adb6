package urlnorm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func redditFamily() Family {
	return NewFamily([]string{"reddit.com", "*.redd.it", "Reddit.com"}, "old.reddit.com")
}

func TestDedupe(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, []string{}},
		{"blank entries", []string{"", "  ", "\t"}, []string{}},
		{"trims and dedupes", []string{" a ", "b", "a", "b ", "c"}, []string{"a", "b", "c"}},
		{"keeps first-seen order", []string{"z", "y", "z", "x", "y"}, []string{"z", "y", "x"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Dedupe(tc.in))
		})
	}
}

func TestDedupeEachDistinctOnce(t *testing.T) {
	t.Parallel()

	in := []string{"u1", " u2", "u1 ", "u3", "u2", "", "u3"}
	out := Dedupe(in)
	counts := map[string]int{}
	for _, u := range out {
		counts[u]++
	}
	for u, n := range counts {
		require.Equalf(t, 1, n, "url %s repeated", u)
	}
	require.Len(t, out, 3)
}

func TestFamilyContains(t *testing.T) {
	t.Parallel()

	f := redditFamily()
	require.True(t, f.Contains("reddit.com"))
	require.True(t, f.Contains("www.reddit.com"))
	require.True(t, f.Contains("OLD.reddit.com:443"))
	require.True(t, f.Contains("i.redd.it"))
	require.False(t, f.Contains("notreddit.com"))
	require.False(t, f.Contains("example.com"))
	require.False(t, f.Contains(""))
	require.False(t, f.ContainsURL("::bad"))
	require.True(t, f.ContainsURL("https://www.reddit.com/r/golang"))
}

func TestMirrorOf(t *testing.T) {
	t.Parallel()

	f := redditFamily()
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{"www host", "https://www.reddit.com/r/test/comments/1/x/?a=1#c", "https://old.reddit.com/r/test/comments/1/x/?a=1#c"},
		{"bare host", "https://reddit.com/r/test", "https://old.reddit.com/r/test"},
		{"already mirror", "https://old.reddit.com/r/test", "https://old.reddit.com/r/test"},
		{"foreign host", "https://x.com/r/test/1", "https://x.com/r/test/1"},
		{"short link host", "https://redd.it/abc123", "https://redd.it/abc123"},
		{"media host", "https://i.redd.it/abc.jpg", "https://i.redd.it/abc.jpg"},
		{"unparseable", "::", "::"},
		{"no host", "/r/test", "/r/test"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, f.MirrorOf(tc.in))
		})
	}
}

func TestMirrorOfIdempotent(t *testing.T) {
	t.Parallel()

	f := redditFamily()
	for _, u := range []string{
		"https://www.reddit.com/r/a/1",
		"http://np.reddit.com/r/b?x=y",
		"https://old.reddit.com/r/c",
		"https://example.org/p",
		"not a url",
	} {
		once := f.MirrorOf(u)
		require.Equal(t, once, f.MirrorOf(once), u)
	}
}

func TestMirrorOfWithoutMirrorHost(t *testing.T) {
	t.Parallel()

	f := NewFamily([]string{"reddit.com"}, "")
	require.Equal(t, "https://www.reddit.com/r/a", f.MirrorOf("https://www.reddit.com/r/a"))
	require.Equal(t, "", f.MirrorHost())
}

func TestMirrorDomainsOverride(t *testing.T) {
	t.Parallel()

	f := NewFamily([]string{"reddit.com", "redd.it"}, "old.reddit.com")
	require.True(t, f.Contains("redd.it"))
	require.Equal(t, "https://redd.it/abc123", f.MirrorOf("https://redd.it/abc123"))

	widened := f.WithMirrorDomains([]string{"reddit.com", "redd.it"})
	require.Equal(t, "https://old.reddit.com/abc123", widened.MirrorOf("https://redd.it/abc123"))

	kept := f.WithMirrorDomains(nil)
	require.Equal(t, "https://old.reddit.com/r/a", kept.MirrorOf("https://www.reddit.com/r/a"))
	require.Equal(t, "https://i.redd.it/x.png", kept.MirrorOf("https://i.redd.it/x.png"))
}

func FuzzMirrorOfIdempotent(f *testing.F) {
	for _, seed := range []string{"https://www.reddit.com/r/a", "https://old.reddit.com", "http://%", ""} {
		f.Add(seed)
	}
	fam := redditFamily()
	f.Fuzz(func(t *testing.T, in string) {
		once := fam.MirrorOf(in)
		if twice := fam.MirrorOf(once); twice != once {
			t.Fatalf("MirrorOf not idempotent: %q -> %q -> %q", in, once, twice)
		}
	})
}
