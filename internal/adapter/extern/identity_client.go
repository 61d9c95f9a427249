// Package extern holds HTTP clients for the ledger's two external
// collaborators: the identity registry and the asset mover.
package extern

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// IdentityClient implements ports.IdentityOracle against the identity
// registry's REST API. Answers are never cached; the engine depends on
// seeing the registry's current view on every call.
type IdentityClient struct {
	baseURL    string
	apiKey     string
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewIdentityClient creates a new IdentityClient.
func NewIdentityClient(baseURL, apiKey string, httpClient HTTPClient, log zerolog.Logger) *IdentityClient {
	return &IdentityClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		log:        log,
	}
}

// IsEligiblePrincipal reports whether addr is registered as a principal of
// the kind allowed to open escrows.
func (c *IdentityClient) IsEligiblePrincipal(ctx context.Context, addr common.Address) (bool, error) {
	var out struct {
		Eligible bool `json:"eligible"`
	}
	if err := c.getJSON(ctx, "/v1/principals/"+addr.Hex()+"/eligibility", &out); err != nil {
		return false, err
	}
	return out.Eligible, nil
}

// IsOnboarded reports whether addr already completed onboarding.
func (c *IdentityClient) IsOnboarded(ctx context.Context, addr common.Address) (bool, error) {
	var out struct {
		Onboarded bool `json:"onboarded"`
	}
	if err := c.getJSON(ctx, "/v1/principals/"+addr.Hex()+"/onboarding", &out); err != nil {
		return false, err
	}
	return out.Onboarded, nil
}

// Trusts reports whether truster currently holds an unexpired trust edge
// toward trustee.
func (c *IdentityClient) Trusts(ctx context.Context, truster, trustee common.Address) (bool, error) {
	var out struct {
		Trusted bool `json:"trusted"`
	}
	path := "/v1/trust/" + truster.Hex() + "/" + trustee.Hex()
	if err := c.getJSON(ctx, path, &out); err != nil {
		return false, err
	}
	return out.Trusted, nil
}

func (c *IdentityClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity registry unreachable: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("identity registry returned %d for %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode identity response: %w", err)
	}
	return nil
}
