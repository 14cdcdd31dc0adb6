package post

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringHelpers(t *testing.T) {
	t.Parallel()

	require.Nil(t, String(""))
	require.Equal(t, "x", *String("x"))
	require.False(t, NonEmpty(nil))
	require.False(t, NonEmpty(new(string)))
	require.True(t, NonEmpty(String("x")))
	require.Equal(t, "", Deref(nil))
	require.Equal(t, "y", Deref(String("y")))
}

func TestPartialRecordHasText(t *testing.T) {
	t.Parallel()

	require.False(t, PartialRecord{}.HasText())
	require.True(t, PartialRecord{Title: String("t")}.HasText())
	require.True(t, PartialRecord{Content: String("c")}.HasText())
	empty := ""
	require.False(t, PartialRecord{Title: &empty, Content: &empty}.HasText())
}

func TestStrategyString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "interactive", StrategyInteractive.String())
	require.Equal(t, "passive", StrategyPassive.String())
	require.Equal(t, "unknown", Strategy(9).String())
}

func TestErrorText(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", ErrorText(nil))
	require.Equal(t, ErrTextNavigationTimeout, ErrorText(fmt.Errorf("goto: %w", ErrNavigationTimeout)))
	require.Equal(t, ErrTextExtraction, ErrorText(ErrExtractionEmpty))
	require.Equal(t, "boom", ErrorText(errors.New("boom")))
}

func TestDocumentJSONKeepsNullEngagement(t *testing.T) {
	t.Parallel()

	doc := Document{URL: "https://www.reddit.com/r/x/1", ExternalLinks: []string{}}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"num_upvotes":null`)
	require.Contains(t, string(raw), `"username":""`)
	require.NotContains(t, string(raw), `"error"`)
}
