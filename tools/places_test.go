package tools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripagent/agent"
)

func serpPayload(results ...[2]string) string {
	type entry struct {
		Title string `json:"title"`
		Link  string `json:"link"`
	}
	var entries []entry
	for _, r := range results {
		entries = append(entries, entry{Title: r[0], Link: r[1]})
	}
	data, _ := json.Marshal(map[string]any{"organic_results": entries})
	return string(data)
}

func TestPlaceSearchSerpPrimary(t *testing.T) {
	serp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "serp-key", r.URL.Query().Get("api_key"))
		assert.Contains(t, r.URL.Query().Get("q"), "Rome")
		io.WriteString(w, serpPayload(
			[2]string{"Colosseum", "https://www.coopculture.it"},
			[2]string{"Vatican Museums", "https://www.museivaticani.va"},
		))
	}))
	defer serp.Close()

	p := NewPlaceSearch("serp-key", "")
	p.serpURL = serp.URL

	out, err := p.Search(context.Background(), "attractions in Rome", nil)
	require.NoError(t, err)
	assert.Equal(t, "Colosseum: https://www.coopculture.it\nVatican Museums: https://www.museivaticani.va", out)
}

func TestPlaceSearchFallsBackToTavily(t *testing.T) {
	serp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer serp.Close()

	tavily := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "tavily-key", body["api_key"])
		io.WriteString(w, `{"results": [{"title": "Trevi Fountain", "url": "https://turismoroma.it/trevi"}]}`)
	}))
	defer tavily.Close()

	p := NewPlaceSearch("serp-key", "tavily-key")
	p.serpURL = serp.URL
	p.tavilyURL = tavily.URL

	out, err := p.Search(context.Background(), "fountains in Rome", nil)
	require.NoError(t, err)
	assert.Equal(t, "Trevi Fountain: https://turismoroma.it/trevi", out)
}

func TestPlaceSearchBothProvidersFail(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	p := NewPlaceSearch("serp-key", "tavily-key")
	p.serpURL = failing.URL
	p.tavilyURL = failing.URL

	_, err := p.Search(context.Background(), "anything", nil)
	require.Error(t, err)
	var ee *ExecutionError
	require.ErrorAs(t, err, &ee)
	assert.Contains(t, ee.Error(), "serpapi")
	assert.Contains(t, ee.Error(), "tavily")
}

func TestPlaceSearchNoProvidersConfigured(t *testing.T) {
	p := NewPlaceSearch("", "")
	out, err := p.Search(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.Equal(t, "No search API available", out)
}

func TestPlaceSearchCredentialOverrideEnablesProvider(t *testing.T) {
	serp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "byok-serp", r.URL.Query().Get("api_key"))
		io.WriteString(w, serpPayload([2]string{"Duomo", "https://duomomilano.it"}))
	}))
	defer serp.Close()

	// No process-wide keys; the caller brings their own.
	p := NewPlaceSearch("", "")
	p.serpURL = serp.URL

	out, err := p.Search(context.Background(), "Milan sights",
		agent.Credentials{agent.CredSerpAPI: "byok-serp"})
	require.NoError(t, err)
	assert.Contains(t, out, "Duomo")
}

func TestFormatResultsFiltersJunkDomains(t *testing.T) {
	out, err := formatResults([]string{
		"Dead Restaurant: https://www.hugedomains.com/domain/deadplace",
		"Real Trattoria: https://www.realtrattoria.it",
		"Parked: https://sedo.com/buy",
	})
	require.NoError(t, err)
	assert.Equal(t, "Real Trattoria: https://www.realtrattoria.it", out)
}

func TestFormatResultsKeepsSomethingWhenAllJunk(t *testing.T) {
	out, err := formatResults([]string{
		"A: https://hugedomains.com/a",
		"B: https://dan.com/b",
		"C: https://afternic.com/c",
	})
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
}

func TestFormatResultsCapsAtFive(t *testing.T) {
	var in []string
	for i := 0; i < 8; i++ {
		in = append(in, "Place: https://example.com/"+string(rune('a'+i)))
	}
	out, err := formatResults(in)
	require.NoError(t, err)
	assert.Len(t, strings.Split(out, "\n"), 5)
}

func TestIsJunkLink(t *testing.T) {
	assert.True(t, isJunkLink(""))
	assert.True(t, isJunkLink("https://www.HugeDomains.com/x"))
	assert.False(t, isJunkLink("https://www.louvre.fr"))
}
