package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequestContext(t *testing.T) {
	rc := ParseRequestContext(map[string]interface{}{
		"hasRecentImages":  true,
		"previousCategory": "branding",
		"recentQueries":    []string{"логотип", "", "векторизуй"},
		"unknown":          42,
	})
	assert.True(t, rc.HasRecentImages)
	assert.Equal(t, "branding", rc.PreviousCategory)
	assert.Equal(t, []string{"логотип", "векторизуй"}, rc.RecentQueries)
}

func TestParseRequestContext_FromJSON(t *testing.T) {
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(`{"hasRecentImages":"true","recentQueries":["а","б"],"extra":{"x":1}}`), &raw))

	rc := ParseRequestContext(raw)
	assert.True(t, rc.HasRecentImages)
	assert.Equal(t, []string{"а", "б"}, rc.RecentQueries)
	assert.Empty(t, rc.PreviousCategory)
}

func TestParseRequestContext_Nil(t *testing.T) {
	assert.Equal(t, RequestContext{}, ParseRequestContext(nil))
}

func TestExtractHelpers(t *testing.T) {
	assert.True(t, ExtractBool("YES"))
	assert.True(t, ExtractBool(1.0))
	assert.False(t, ExtractBool("no"))
	assert.False(t, ExtractBool(nil))

	assert.Equal(t, "", ExtractString(nil))
	assert.Equal(t, "12", ExtractString(12))

	assert.Equal(t, []string{"single"}, ExtractStringSlice("single"))
	assert.Nil(t, ExtractStringSlice(7))
}

func TestWithQueryAndRecentText(t *testing.T) {
	rc := RequestContext{RecentQueries: []string{"Логотип"}}
	next := rc.WithQuery("Векторизуй")

	assert.Equal(t, []string{"Логотип"}, rc.RecentQueries, "input untouched")
	assert.Equal(t, "логотип векторизуй", next.RecentText())
	assert.Len(t, rc.WithQuery("  ").RecentQueries, 1)
}
