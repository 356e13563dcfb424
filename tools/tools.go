// Package tools implements the trip-planning tool suite: weather lookups,
// place search, currency conversion and trip arithmetic. Every executor
// reports upstream failures as errors; the dispatcher turns them into
// conversational error strings rather than aborting the turn.
package tools

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"tripagent/agent"
)

// Keys holds the process-wide default API keys for external services.
// Per-request overrides arrive through the credentials bundle.
type Keys struct {
	Weather  string
	SerpAPI  string
	Tavily   string
	Exchange string
}

// All builds the full tool suite against the given default keys.
func All(keys Keys) []agent.Tool {
	weather := NewWeatherService(keys.Weather)
	places := NewPlaceSearch(keys.SerpAPI, keys.Tavily)
	currency := NewCurrencyService(keys.Exchange)

	var out []agent.Tool
	out = append(out, weatherTools(weather)...)
	out = append(out, placeTools(places)...)
	out = append(out, currencyTools(currency)...)
	out = append(out, calculatorTools()...)
	return out
}

// NewRegistry builds the immutable tool registry for the planner.
func NewRegistry(keys Keys) (*agent.Registry, error) {
	return agent.NewRegistry(All(keys)...)
}

// ExecutionError wraps an upstream failure of a named tool.
type ExecutionError struct {
	Tool string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool %s: %v", e.Tool, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// decodeArgs decodes a model-supplied argument map into a typed struct.
// Weak typing tolerates numbers arriving as strings and vice versa.
func decodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func objSchema(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func strProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func numProp(desc string) map[string]any {
	return map[string]any{"type": "number", "description": desc}
}
