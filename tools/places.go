package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tripagent/agent"
)

const (
	serpAPIBaseURL   = "https://serpapi.com/search"
	tavilyAPIBaseURL = "https://api.tavily.com/search"
)

// junkDomains are parked or for-sale domains that show up in search
// results for dead businesses. Results pointing at them are filtered out.
var junkDomains = []string{
	"hugedomains.com",
	"dan.com",
	"afternic.com",
	"godaddy.com",
	"domainmarket.com",
	"sedo.com",
}

func isJunkLink(link string) bool {
	if link == "" {
		return true
	}
	link = strings.ToLower(link)
	for _, domain := range junkDomains {
		if strings.Contains(link, domain) {
			return true
		}
	}
	return false
}

// PlaceSearch finds attractions, restaurants, hotels, activities and
// transportation via SerpAPI, falling back to Tavily when SerpAPI is
// unavailable or fails.
type PlaceSearch struct {
	serpKey   string
	tavilyKey string
	serpURL   string
	tavilyURL string
	client    *http.Client
}

// NewPlaceSearch creates a place search over the configured providers.
// Either key may be empty; with both empty every search reports that no
// provider is available.
func NewPlaceSearch(serpKey, tavilyKey string) *PlaceSearch {
	return &PlaceSearch{
		serpKey:   serpKey,
		tavilyKey: tavilyKey,
		serpURL:   serpAPIBaseURL,
		tavilyURL: tavilyAPIBaseURL,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Search runs the query against the primary provider, then the fallback.
// Provider failures only propagate when no provider succeeded.
func (p *PlaceSearch) Search(ctx context.Context, query string, creds agent.Credentials) (string, error) {
	serpKey := creds.Or(agent.CredSerpAPI, p.serpKey)
	tavilyKey := creds.Or(agent.CredTavily, p.tavilyKey)

	var serpErr error
	if serpKey != "" {
		out, err := p.searchSerp(ctx, query, serpKey)
		if err == nil {
			return out, nil
		}
		serpErr = err
	}
	if tavilyKey != "" {
		out, err := p.searchTavily(ctx, query, tavilyKey)
		if err == nil {
			return out, nil
		}
		if serpErr != nil {
			return "", &ExecutionError{Tool: "place_search", Err: fmt.Errorf("serpapi: %v; tavily: %v", serpErr, err)}
		}
		return "", &ExecutionError{Tool: "place_search", Err: err}
	}
	if serpErr != nil {
		return "", &ExecutionError{Tool: "place_search", Err: serpErr}
	}
	return "No search API available", nil
}

type serpResponse struct {
	OrganicResults []struct {
		Title string `json:"title"`
		Link  string `json:"link"`
	} `json:"organic_results"`
	LocalResults struct {
		Places []struct {
			Title string `json:"title"`
			Link  string `json:"link"`
			Links struct {
				Website string `json:"website"`
			} `json:"links"`
		} `json:"places"`
	} `json:"local_results"`
}

func (p *PlaceSearch) searchSerp(ctx context.Context, query, apiKey string) (string, error) {
	params := url.Values{
		"q":       {query},
		"api_key": {apiKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.serpURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var sr serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	var lines []string
	for _, r := range sr.OrganicResults {
		if len(lines) >= 5 {
			break
		}
		if r.Title != "" && r.Link != "" {
			lines = append(lines, r.Title+": "+r.Link)
		}
	}
	for _, r := range sr.LocalResults.Places {
		if len(lines) >= 10 {
			break
		}
		link := r.Links.Website
		if link == "" {
			link = r.Link
		}
		if r.Title != "" && link != "" {
			lines = append(lines, r.Title+": "+link)
		}
	}
	return formatResults(lines)
}

type tavilyResponse struct {
	Results []struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	} `json:"results"`
}

func (p *PlaceSearch) searchTavily(ctx context.Context, query, apiKey string) (string, error) {
	body, _ := json.Marshal(map[string]any{
		"api_key":      apiKey,
		"query":        query,
		"search_depth": "advanced",
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tavilyURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	var tr tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	var lines []string
	for _, r := range tr.Results {
		if len(lines) >= 5 {
			break
		}
		if r.Title != "" && r.URL != "" {
			lines = append(lines, r.Title+": "+r.URL)
		}
	}
	return formatResults(lines)
}

// formatResults filters junk-domain entries and joins the rest. When
// everything looks junk the first two raw lines survive so the model has
// something to work with.
func formatResults(lines []string) (string, error) {
	if len(lines) == 0 {
		return "", fmt.Errorf("no results")
	}
	var clean []string
	for _, line := range lines {
		_, link, _ := strings.Cut(line, ": ")
		if !isJunkLink(link) {
			clean = append(clean, line)
		}
	}
	if len(clean) == 0 {
		if len(lines) > 2 {
			lines = lines[:2]
		}
		return strings.Join(lines, "\n"), nil
	}
	if len(clean) > 5 {
		clean = clean[:5]
	}
	return strings.Join(clean, "\n"), nil
}

type placeArgs struct {
	Place string `mapstructure:"place"`
}

func placeTools(p *PlaceSearch) []agent.Tool {
	placeSchema := objSchema(map[string]any{
		"place": strProp("Location to search in and around, e.g. \"Rome\""),
	}, "place")

	mk := func(name, desc, queryFmt string) agent.Tool {
		return &agent.FuncTool{
			ToolName:   name,
			ToolDesc:   desc,
			ToolParams: placeSchema,
			Fn: func(ctx context.Context, args map[string]any, creds agent.Credentials) (string, error) {
				var a placeArgs
				if err := decodeArgs(args, &a); err != nil {
					return "", err
				}
				return p.Search(ctx, fmt.Sprintf(queryFmt, a.Place), creds)
			},
		}
	}

	return []agent.Tool{
		mk("search_attractions",
			"Search for top attractions in and around a given place.",
			"official attractions and things to do in %s with website links"),
		mk("search_restaurants",
			"Search for top restaurants in and around a given place.",
			"top restaurants in %s official website or tripadvisor zomato"),
		mk("search_hotels",
			"Search for top hotels in and around a given place.",
			"best hotels in %s official website or booking.com tripadvisor"),
		mk("search_activities",
			"Search for top activities in and around a given place.",
			"tourist activities and experiences in %s verified links"),
		mk("search_transportation",
			"Search for transportation options in and around a given place.",
			"official public transport and taxi guide for %s"),
	}
}
