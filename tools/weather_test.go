package tools

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWeatherService(t *testing.T, handler http.HandlerFunc) *WeatherService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	svc := NewWeatherService("default-key")
	svc.baseURL = srv.URL
	return svc
}

func TestWeatherCurrent(t *testing.T) {
	svc := newWeatherService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Equal(t, "Paris", r.URL.Query().Get("q"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "default-key", r.URL.Query().Get("appid"))
		io.WriteString(w, `{
			"name": "Paris",
			"main": {"temp": 18.4, "humidity": 60},
			"weather": [{"description": "clear sky"}],
			"wind": {"speed": 3.6}
		}`)
	})

	out, err := svc.Current(context.Background(), "Paris", "")
	require.NoError(t, err)
	assert.Equal(t, "Current Weather in Paris: 18°C, clear sky (Humidity: 60%, Wind: 3.6 m/s)", out)
}

func TestWeatherCurrentKeyOverride(t *testing.T) {
	svc := newWeatherService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "caller-key", r.URL.Query().Get("appid"))
		io.WriteString(w, `{"name":"Oslo","main":{"temp":5,"humidity":80},"weather":[{"description":"rain"}],"wind":{"speed":8}}`)
	})

	_, err := svc.Current(context.Background(), "Oslo", "caller-key")
	require.NoError(t, err)
}

func TestWeatherCurrentUpstreamError(t *testing.T) {
	svc := newWeatherService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"cod":401,"message":"Invalid API key"}`)
	})

	_, err := svc.Current(context.Background(), "Paris", "")
	require.Error(t, err)
	var ee *ExecutionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "get_current_weather", ee.Tool)
}

func TestWeatherForecastGroupsByDay(t *testing.T) {
	svc := newWeatherService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		io.WriteString(w, `{"list": [
			{"dt_txt": "2026-09-01 09:00:00", "main": {"temp": 14}, "weather": [{"description": "light rain"}]},
			{"dt_txt": "2026-09-01 15:00:00", "main": {"temp": 21}, "weather": [{"description": "clear sky"}]},
			{"dt_txt": "2026-09-02 12:00:00", "main": {"temp": 17}, "weather": [{"description": "clouds"}]}
		]}`)
	})

	out, err := svc.Forecast(context.Background(), "Berlin", "")
	require.NoError(t, err)
	assert.Contains(t, out, "5-Day Forecast for Berlin:")
	assert.Contains(t, out, "- 2026-09-01: High 21°C, Low 14°C (light rain)")
	assert.Contains(t, out, "- 2026-09-02: High 17°C, Low 17°C (clouds)")
}

func TestWeatherForecastEmptyList(t *testing.T) {
	svc := newWeatherService(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"list": []}`)
	})

	out, err := svc.Forecast(context.Background(), "Atlantis", "")
	require.NoError(t, err)
	assert.Equal(t, "Couldn't fetch forecast for Atlantis.", out)
}
