package agent

// Credential bundle keys. Each names an external service a caller may
// bring their own key for.
const (
	CredProvider = "provider" // model provider secret
	CredWeather  = "weather"
	CredSerpAPI  = "serpapi"
	CredTavily   = "tavily"
	CredExchange = "exchange"
)

// Credentials maps a service key name to a caller-supplied override
// secret. Absent entries fall back to process-wide defaults. A bundle is
// scoped to one request and is never written into thread state.
type Credentials map[string]string

// Get returns the override for key, or "" when absent.
func (c Credentials) Get(key string) string {
	if c == nil {
		return ""
	}
	return c[key]
}

// Or returns the override for key, falling back to def.
func (c Credentials) Or(key, def string) string {
	if v := c.Get(key); v != "" {
		return v
	}
	return def
}
