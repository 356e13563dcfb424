package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ProviderConfig describes one model backend from config.yaml.
type ProviderConfig struct {
	Provider string `yaml:"provider"` // "openai", "anthropic", "ollama"
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"-"` // resolved from env, never serialized
}

// Reply is what the gateway hands back to the agent: the assistant text,
// any requested tool calls, and an optional structured payload embedded in
// the text.
type Reply struct {
	Content    string
	ToolCalls  []ToolCallResult
	Structured json.RawMessage
}

// Gateway adapts a provider-agnostic generate request to the configured
// backend. The process-wide default client is built once; a per-request
// credential override gets a request-scoped client and never touches the
// default.
type Gateway struct {
	name          string
	cfg           ProviderConfig
	defaultClient Client
	maxTokens     int
	temperature   *float64
}

// NewGateway builds a gateway for the named provider configuration.
func NewGateway(name string, cfg ProviderConfig) (*Gateway, error) {
	client, err := newClient(name, cfg)
	if err != nil {
		return nil, err
	}
	temp := 0.1
	return &Gateway{
		name:          name,
		cfg:           cfg,
		defaultClient: client,
		maxTokens:     4096,
		temperature:   &temp,
	}, nil
}

// Provider returns the configured provider name.
func (g *Gateway) Provider() string { return g.name }

// newClient constructs a Client for a provider config.
func newClient(name string, cfg ProviderConfig) (Client, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("provider %s: missing API key", name)
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		return NewOpenAIClient(name, baseURL, cfg.APIKey), nil
	case "anthropic":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("provider %s: missing API key", name)
		}
		return NewAnthropicClient(cfg.APIKey), nil
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434/v1"
		}
		// No key required locally, but a key that is configured (or
		// supplied per request) still goes on the wire for proxied
		// ollama-compatible deployments.
		return NewOpenAIClient(name, baseURL, cfg.APIKey), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// Generate runs one model turn over the sanitized history with the full
// tool catalog. overrideKey, when non-empty, is a caller-supplied secret
// for the configured provider (BYOK); it yields a request-scoped client.
func (g *Gateway) Generate(ctx context.Context, msgs []Message, tools []ToolSchema, overrideKey string) (*Reply, error) {
	client := g.defaultClient
	if overrideKey != "" {
		cfg := g.cfg
		cfg.APIKey = overrideKey
		scoped, err := newClient(g.name, cfg)
		if err != nil {
			return nil, err
		}
		client = scoped
	}

	resp, err := client.Call(ctx, Request{
		Model:       g.cfg.Model,
		Messages:    msgs,
		Tools:       tools,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		return nil, err
	}

	reply := &Reply{
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
	}
	reply.Structured = ExtractStructured(resp.Content)
	return reply, nil
}

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)```")

// ExtractStructured finds the last ```json fenced block in content and
// returns it when it parses. Parse failure is not an error; the payload
// is simply absent.
func ExtractStructured(content string) json.RawMessage {
	matches := fencedJSON.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	raw := strings.TrimSpace(matches[len(matches)-1][1])
	if !json.Valid([]byte(raw)) {
		return nil
	}
	return json.RawMessage(raw)
}
