package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sivamaran/reddit-scraper/internal/post"
)

func TestLatestKeepsLastPerURL(t *testing.T) {
	t.Parallel()

	out := Latest([]post.Document{
		{URL: "a", Source: "1"},
		{URL: "b", Source: "2"},
		{Source: "no-url"},
		{URL: "a", Source: "3"},
	})
	require.Len(t, out, 2)
	require.Equal(t, "a", out[0].URL)
	require.Equal(t, "3", out[0].Source)
	require.Equal(t, "b", out[1].URL)
	require.Equal(t, 3, Result{Matched: 1, Upserted: 2}.Total())
}
