package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"tripagent/agent"
)

const openWeatherBaseURL = "http://api.openweathermap.org/data/2.5"

// WeatherService talks to the OpenWeatherMap API.
type WeatherService struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewWeatherService creates a weather service with the process default
// API key.
func NewWeatherService(apiKey string) *WeatherService {
	return &WeatherService{
		apiKey:  apiKey,
		baseURL: openWeatherBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type owmCurrent struct {
	Name string `json:"name"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

type owmForecast struct {
	List []struct {
		DtTxt string `json:"dt_txt"`
		Main  struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"list"`
}

func (s *WeatherService) get(ctx context.Context, path string, params url.Values, apiKey string) ([]byte, error) {
	key := apiKey
	if key == "" {
		key = s.apiKey
	}
	params.Set("appid", key)
	params.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}

// Current returns a one-line summary of current conditions in a city.
func (s *WeatherService) Current(ctx context.Context, city, apiKey string) (string, error) {
	data, err := s.get(ctx, "/weather", url.Values{"q": {city}}, apiKey)
	if err != nil {
		return "", &ExecutionError{Tool: "get_current_weather", Err: err}
	}

	var cur owmCurrent
	if err := json.Unmarshal(data, &cur); err != nil {
		return "", &ExecutionError{Tool: "get_current_weather", Err: err}
	}
	if len(cur.Weather) == 0 {
		return fmt.Sprintf("Couldn't fetch current weather for %s.", city), nil
	}

	name := cur.Name
	if name == "" {
		name = city
	}
	return fmt.Sprintf("Current Weather in %s: %.0f°C, %s (Humidity: %d%%, Wind: %.1f m/s)",
		name, cur.Main.Temp, cur.Weather[0].Description, cur.Main.Humidity, cur.Wind.Speed), nil
}

// Forecast returns a summarized 5-day forecast grouped by day with
// min/max temperatures.
func (s *WeatherService) Forecast(ctx context.Context, city, apiKey string) (string, error) {
	data, err := s.get(ctx, "/forecast", url.Values{"q": {city}, "cnt": {"40"}}, apiKey)
	if err != nil {
		return "", &ExecutionError{Tool: "get_weather_forecast", Err: err}
	}

	var fc owmForecast
	if err := json.Unmarshal(data, &fc); err != nil {
		return "", &ExecutionError{Tool: "get_weather_forecast", Err: err}
	}
	if len(fc.List) == 0 {
		return fmt.Sprintf("Couldn't fetch forecast for %s.", city), nil
	}

	type dayStats struct {
		min, max float64
		desc     string
	}
	days := make(map[string]*dayStats)
	var order []string
	for _, entry := range fc.List {
		date, _, _ := strings.Cut(entry.DtTxt, " ")
		desc := ""
		if len(entry.Weather) > 0 {
			desc = entry.Weather[0].Description
		}
		stats, ok := days[date]
		if !ok {
			days[date] = &dayStats{min: entry.Main.Temp, max: entry.Main.Temp, desc: desc}
			order = append(order, date)
			continue
		}
		if entry.Main.Temp < stats.min {
			stats.min = entry.Main.Temp
		}
		if entry.Main.Temp > stats.max {
			stats.max = entry.Main.Temp
		}
	}
	sort.Strings(order)
	if len(order) > 5 {
		order = order[:5]
	}

	lines := []string{fmt.Sprintf("5-Day Forecast for %s:", city)}
	for _, date := range order {
		s := days[date]
		lines = append(lines, fmt.Sprintf("- %s: High %.0f°C, Low %.0f°C (%s)", date, s.max, s.min, s.desc))
	}
	return strings.Join(lines, "\n"), nil
}

type cityArgs struct {
	City string `mapstructure:"city"`
}

func weatherTools(svc *WeatherService) []agent.Tool {
	citySchema := objSchema(map[string]any{
		"city": strProp("City name, e.g. \"Paris\""),
	}, "city")

	return []agent.Tool{
		&agent.FuncTool{
			ToolName:   "get_current_weather",
			ToolDesc:   "Get current weather conditions for a city.",
			ToolParams: citySchema,
			Fn: func(ctx context.Context, args map[string]any, creds agent.Credentials) (string, error) {
				var a cityArgs
				if err := decodeArgs(args, &a); err != nil {
					return "", err
				}
				return svc.Current(ctx, a.City, creds.Get(agent.CredWeather))
			},
		},
		&agent.FuncTool{
			ToolName:   "get_weather_forecast",
			ToolDesc:   "Get a summarized 5-day weather forecast for a city.",
			ToolParams: citySchema,
			Fn: func(ctx context.Context, args map[string]any, creds agent.Credentials) (string, error) {
				var a cityArgs
				if err := decodeArgs(args, &a); err != nil {
					return "", err
				}
				return svc.Forecast(ctx, a.City, creds.Get(agent.CredWeather))
			},
		},
	}
}
