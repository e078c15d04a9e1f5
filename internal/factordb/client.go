// Package factordb implements the external factor-lookup collaborator
// against the factordb.com HTTP API. A single negative or failed response
// is final for an attempt: the caller downgrades every error to "no
// answer" and never retries.
package factordb

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/ctfkit/rsacrack/pkg/factor"
)

const defaultBaseURL = "http://factordb.com"

// Client queries factordb.com with an enforced timeout.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client with a 15 second request timeout.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    defaultBaseURL,
	}
}

// WithBaseURL overrides the API endpoint, mainly for tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

// WithTimeout overrides the request timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.httpClient.Timeout = d
	return c
}

// apiResponse is the factordb.com answer: a status code and a list of
// (factor, exponent) entries with the factor serialized as a string.
type apiResponse struct {
	Status  string           `json:"status"`
	Factors [][2]json.Number `json:"factors"`
}

// Factors implements factor.Lookup. It returns a pair only when the
// database reports the number fully factored ("FF") into exactly two
// primes counting multiplicity; partial ("CF"), unknown ("C") and prime
// ("P") statuses are "no answer". The engine re-verifies the product, so
// the database is never trusted blindly.
func (c *Client) Factors(ctx context.Context, n *big.Int) (*factor.Pair, error) {
	endpoint := fmt.Sprintf("%s/api?query=%s", c.baseURL, url.QueryEscape(n.String()))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("factordb: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("factordb: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("factordb: unexpected status %s", resp.Status)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("factordb: malformed response: %w", err)
	}

	switch body.Status {
	case "FF":
		return pairFromFactors(n, body.Factors)
	case "P":
		return nil, fmt.Errorf("factordb: %d-bit number reported prime", n.BitLen())
	default:
		return nil, fmt.Errorf("factordb: status %q, no usable factors", body.Status)
	}
}

// pairFromFactors flattens the (factor, exponent) list and accepts it only
// as a two-factor decomposition of n.
func pairFromFactors(n *big.Int, entries [][2]json.Number) (*factor.Pair, error) {
	var flat []*big.Int
	for _, entry := range entries {
		f, ok := new(big.Int).SetString(entry[0].String(), 10)
		if !ok {
			return nil, fmt.Errorf("factordb: malformed factor %q", entry[0])
		}
		exp, err := entry[1].Int64()
		if err != nil || exp < 1 || exp > 64 {
			return nil, fmt.Errorf("factordb: malformed exponent %q", entry[1])
		}
		for i := int64(0); i < exp; i++ {
			flat = append(flat, f)
			if len(flat) > 2 {
				return nil, fmt.Errorf("factordb: more than two prime factors")
			}
		}
	}

	if len(flat) != 2 {
		return nil, fmt.Errorf("factordb: expected two prime factors, got %d", len(flat))
	}

	p := new(big.Int).Set(flat[0])
	q := new(big.Int).Set(flat[1])
	if new(big.Int).Mul(p, q).Cmp(n) != 0 {
		return nil, fmt.Errorf("factordb: factors do not multiply to n")
	}
	if p.Cmp(q) > 0 {
		p, q = q, p
	}
	return &factor.Pair{P: p, Q: q}, nil
}
