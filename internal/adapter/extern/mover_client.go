package extern

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// Transfer modes accepted by the asset mover.
const (
	transferModeOriginal = "original"
	transferModeConvert  = "convert"
)

// MoverClient implements ports.ValueMover against the asset mover's REST
// API. Every call is one transfer; the mover is expected to apply it
// atomically or fail it whole.
type MoverClient struct {
	baseURL    string
	apiKey     string
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewMoverClient creates a new MoverClient.
func NewMoverClient(baseURL, apiKey string, httpClient HTTPClient, log zerolog.Logger) *MoverClient {
	return &MoverClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		log:        log,
	}
}

// TransferOriginal moves amount of the base asset to the recipient.
func (c *MoverClient) TransferOriginal(ctx context.Context, to common.Address, amount sdkmath.Int) error {
	return c.transfer(ctx, to, amount, transferModeOriginal)
}

// ConvertAndTransfer wraps amount into the time-decaying representation and
// moves it to the recipient.
func (c *MoverClient) ConvertAndTransfer(ctx context.Context, to common.Address, amount sdkmath.Int) error {
	return c.transfer(ctx, to, amount, transferModeConvert)
}

func (c *MoverClient) transfer(ctx context.Context, to common.Address, amount sdkmath.Int, mode string) error {
	body, err := json.Marshal(map[string]string{
		"to":     to.Hex(),
		"amount": amount.String(), // decimal string, avoids int64 overflow
		"mode":   mode,
	})
	if err != nil {
		return fmt.Errorf("marshal transfer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/transfers", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("asset mover unreachable: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("asset mover returned %d", resp.StatusCode)
	}

	c.log.Debug().
		Str("to", to.Hex()).
		Str("amount", amount.String()).
		Str("mode", mode).
		Msg("transfer accepted")

	return nil
}
