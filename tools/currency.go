package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tripagent/agent"
)

const (
	exchangeRatePrimaryURL  = "https://v6.exchangerate-api.com/v6"
	exchangeRateFallbackURL = "https://api.exchangerate.host/latest"
)

// CurrencyService converts between currencies using exchangerate-api.com,
// falling back to the keyless exchangerate.host when the primary provider
// fails or no key is configured.
type CurrencyService struct {
	apiKey      string
	primaryURL  string
	fallbackURL string
	client      *http.Client
}

// NewCurrencyService creates a converter with the process default API key.
func NewCurrencyService(apiKey string) *CurrencyService {
	return &CurrencyService{
		apiKey:      apiKey,
		primaryURL:  exchangeRatePrimaryURL,
		fallbackURL: exchangeRateFallbackURL,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Convert converts amount from one currency code to another.
func (s *CurrencyService) Convert(ctx context.Context, amount float64, from, to, apiKey string) (float64, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)

	key := apiKey
	if key == "" {
		key = s.apiKey
	}

	if key != "" {
		rate, err := s.primaryRate(ctx, from, to, key)
		if err == nil {
			return amount * rate, nil
		}
	}

	rate, err := s.fallbackRate(ctx, from, to)
	if err != nil {
		return 0, &ExecutionError{Tool: "convert_currency", Err: err}
	}
	return amount * rate, nil
}

type primaryResponse struct {
	ConversionRates map[string]float64 `json:"conversion_rates"`
	Rates           map[string]float64 `json:"rates"`
}

func (s *CurrencyService) primaryRate(ctx context.Context, from, to, key string) (float64, error) {
	url := fmt.Sprintf("%s/%s/latest/%s", s.primaryURL, key, from)
	data, err := s.get(ctx, url)
	if err != nil {
		return 0, err
	}

	var pr primaryResponse
	if err := json.Unmarshal(data, &pr); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	rates := pr.ConversionRates
	if rates == nil {
		rates = pr.Rates
	}
	if rates == nil {
		return 0, fmt.Errorf("response missing conversion rates")
	}
	rate, ok := rates[to]
	if !ok {
		return 0, fmt.Errorf("invalid target currency code: %s", to)
	}
	return rate, nil
}

type fallbackResponse struct {
	Rates map[string]float64 `json:"rates"`
}

func (s *CurrencyService) fallbackRate(ctx context.Context, from, to string) (float64, error) {
	url := fmt.Sprintf("%s?base=%s&symbols=%s", s.fallbackURL, from, to)
	data, err := s.get(ctx, url)
	if err != nil {
		return 0, err
	}

	var fr fallbackResponse
	if err := json.Unmarshal(data, &fr); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	rate, ok := fr.Rates[to]
	if !ok {
		return 0, fmt.Errorf("missing rate for %s from fallback provider", to)
	}
	return rate, nil
}

func (s *CurrencyService) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body[:min(len(body), 256)]))
	}
	return body, nil
}

type convertArgs struct {
	Amount       float64 `mapstructure:"amount"`
	FromCurrency string  `mapstructure:"from_currency"`
	ToCurrency   string  `mapstructure:"to_currency"`
}

func currencyTools(svc *CurrencyService) []agent.Tool {
	return []agent.Tool{
		&agent.FuncTool{
			ToolName: "convert_currency",
			ToolDesc: "Convert an amount from one currency to another.",
			ToolParams: objSchema(map[string]any{
				"amount":        numProp("Amount of money to convert"),
				"from_currency": strProp("ISO 4217 code of the original currency, e.g. \"USD\""),
				"to_currency":   strProp("ISO 4217 code of the target currency, e.g. \"INR\""),
			}, "amount", "from_currency", "to_currency"),
			Fn: func(ctx context.Context, args map[string]any, creds agent.Credentials) (string, error) {
				var a convertArgs
				if err := decodeArgs(args, &a); err != nil {
					return "", err
				}
				converted, err := svc.Convert(ctx, a.Amount, a.FromCurrency, a.ToCurrency, creds.Get(agent.CredExchange))
				if err != nil {
					// Readable failure for the model instead of a crash.
					return fmt.Sprintf("Currency conversion failed: %v", err), nil
				}
				return fmt.Sprintf("%.2f %s = %.2f %s", a.Amount, strings.ToUpper(a.FromCurrency), converted, strings.ToUpper(a.ToCurrency)), nil
			},
		},
	}
}
