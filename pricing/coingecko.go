package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client looks up fiat prices from a CoinGecko-compatible endpoint. Lookups
// are best-effort: any failure is logged and reported as a zero price, never
// as an error. Fee estimates are a convenience, not part of the commit path.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

// NewClient creates a price lookup client against the given base URL.
func NewClient(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// PriceInFiat returns the coin's current price in the given fiat currency, or
// 0 when the lookup fails for any reason.
func (c *Client) PriceInFiat(ctx context.Context, coinID, vsCurrency string) float64 {
	endpoint := fmt.Sprintf("%s/api/v3/simple/price?ids=%s&vs_currencies=%s",
		c.baseURL, url.QueryEscape(coinID), url.QueryEscape(vsCurrency))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.Printf("Price lookup: failed to build request: %v", err)
		return 0
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Printf("Price lookup: request failed: %v", err)
		return 0
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Printf("Price lookup: unexpected status %d", resp.StatusCode)
		return 0
	}

	var quotes map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&quotes); err != nil {
		c.logger.Printf("Price lookup: failed to parse response: %v", err)
		return 0
	}
	return quotes[coinID][vsCurrency]
}
