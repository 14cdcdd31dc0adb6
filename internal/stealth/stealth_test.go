package stealth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIdentityWithinBounds(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(Config{Seed: 1})
	for i := 0; i < 50; i++ {
		id := gen.Identity()
		require.Contains(t, DefaultUserAgents, id.UserAgent)
		require.Contains(t, DefaultTimezones, id.Timezone)
		require.GreaterOrEqual(t, id.Viewport.Width, 1200)
		require.LessOrEqual(t, id.Viewport.Width, 1400)
		require.GreaterOrEqual(t, id.Viewport.Height, 700)
		require.LessOrEqual(t, id.Viewport.Height, 900)
		require.Equal(t, DefaultLocale, id.Locale)
	}
}

func TestGeneratorDeterministicForSeed(t *testing.T) {
	t.Parallel()

	a := NewGenerator(Config{Seed: 99})
	b := NewGenerator(Config{Seed: 99})
	require.Equal(t, a.Identity(), b.Identity())
	require.Equal(t, a.Uniform(time.Second, 3*time.Second), b.Uniform(time.Second, 3*time.Second))
	require.Equal(t, a.Fork().Int63(), b.Fork().Int63())
}

func TestUniform(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(Config{Seed: 5})
	lo, hi := 1200*time.Millisecond, 3*time.Second
	for i := 0; i < 100; i++ {
		d := gen.Uniform(lo, hi)
		require.GreaterOrEqual(t, d, lo)
		require.Less(t, d, hi)
	}
	require.Equal(t, time.Second, gen.Uniform(time.Second, time.Second))
}

func TestCustomPools(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(Config{
		UserAgents: []string{"ua"},
		Timezones:  []string{"UTC"},
		MinWidth:   800, MaxWidth: 800,
		MinHeight: 600, MaxHeight: 600,
		Seed: 3,
	})
	id := gen.Identity()
	require.Equal(t, "ua", id.UserAgent)
	require.Equal(t, "UTC", id.Timezone)
	require.Equal(t, Viewport{Width: 800, Height: 600}, id.Viewport)
}

func TestIdentityHeaders(t *testing.T) {
	t.Parallel()

	h := NewGenerator(Config{UserAgents: []string{"ua"}, Seed: 1}).Identity().Headers()
	require.Equal(t, "ua", h.Get("User-Agent"))
	require.Equal(t, DefaultAcceptLanguage, h.Get("Accept-Language"))
	require.Equal(t, DefaultAccept, h.Get("Accept"))
}
