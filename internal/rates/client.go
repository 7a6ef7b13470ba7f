package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// APIQuoter fetches rates from an exchangerates JSON API. The endpoint is
// expected to answer GET <base-url>?base=FROM&symbols=TO with a body like
// {"rates": {"TO": 16460.5}}.
type APIQuoter struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewAPIQuoter(baseURL, apiKey string) *APIQuoter {
	return &APIQuoter{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type quoteResponse struct {
	Rates map[string]decimal.Decimal `json:"rates"`
}

// Quote implements Quoter against the HTTP API.
func (q *APIQuoter) Quote(ctx context.Context, from, to string) (decimal.Decimal, error) {
	reqURL, err := url.Parse(q.baseURL)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse rate API URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("base", from)
	query.Set("symbols", to)
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build rate request: %w", err)
	}
	if q.apiKey != "" {
		req.Header.Set("apikey", q.apiKey)
	}

	resp, err := q.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch rate %s->%s: %w", from, to, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("fetch rate %s->%s: unexpected status %d", from, to, resp.StatusCode)
	}

	var body quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("decode rate response: %w", err)
	}

	rate, ok := body.Rates[to]
	if !ok || rate.IsZero() {
		return decimal.Zero, fmt.Errorf("rate %s->%s missing from response", from, to)
	}

	return rate, nil
}
