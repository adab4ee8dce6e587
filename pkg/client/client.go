// Package client talks to a running trader over its signed HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/xueqianLu/ethtrader/internal/middleware"
)

// SwapRequest buys Token with AmountIn wei. Amounts are decimal wei strings;
// MinAmountOut may be empty to use the server's slippage policy.
type SwapRequest struct {
	Token        string `json:"token"`
	AmountIn     string `json:"amountIn"`
	MinAmountOut string `json:"minAmountOut,omitempty"`
}

// SendRequest transfers Amount wei to To.
type SendRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// SignMessageRequest represents the request to sign a message.
type SignMessageRequest struct {
	Message string `json:"message"`
}

type InfoResponse struct {
	Address     string   `json:"address"`
	ChainID     uint64   `json:"chain_id"`
	Balance     *big.Int `json:"balance"`
	GasPrice    *big.Int `json:"gas_price"`
	BlockNumber uint64   `json:"block_number"`
}

type Token struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

type Price struct {
	TokenPerNative float64 `json:"token_per_native"`
	NativePerToken float64 `json:"native_per_token"`
}

type SwapResponse struct {
	Token        Token    `json:"token"`
	Pair         string   `json:"pair"`
	Price        Price    `json:"price"`
	AmountIn     *big.Int `json:"amount_in"`
	MinAmountOut *big.Int `json:"min_amount_out"`
	Deadline     uint64   `json:"deadline"`
	Nonce        uint64   `json:"nonce"`
	GasPrice     *big.Int `json:"gas_price"`
	TxHash       string   `json:"tx_hash"`
}

type SendResponse struct {
	To       string   `json:"to"`
	Amount   *big.Int `json:"amount"`
	Nonce    uint64   `json:"nonce"`
	GasPrice *big.Int `json:"gas_price"`
	TxHash   string   `json:"tx_hash"`
}

// SignMessageResponse represents the response for a signed message.
type SignMessageResponse struct {
	Address   string `json:"address"`
	Signature string `json:"signature"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Wallet string `json:"wallet"`
}

// APIError is a non-2xx response from the trader.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       int    `json:"code"`
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("trader returned %d (code %d): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("trader returned %d: %s", e.StatusCode, e.Message)
}

// Client is a client for the trader service.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
}

// NewClient creates a new trader client.
func NewClient(baseURL, apiKey, apiSecret string) *Client {
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Health checks the health of the trader service.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Info(ctx context.Context) (*InfoResponse, error) {
	var resp InfoResponse
	if err := c.doRequest(ctx, http.MethodGet, "/info", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Swap(ctx context.Context, req SwapRequest) (*SwapResponse, error) {
	var resp SwapResponse
	if err := c.doRequest(ctx, http.MethodPost, "/swap", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Send(ctx context.Context, req SendRequest) (*SendResponse, error) {
	var resp SendResponse
	if err := c.doRequest(ctx, http.MethodPost, "/send", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SignMessage asks the trader to sign a message with its key.
func (c *Client) SignMessage(ctx context.Context, req SignMessageRequest) (*SignMessageResponse, error) {
	var resp SignMessageResponse
	if err := c.doRequest(ctx, http.MethodPost, "/sign-message", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, data, result interface{}) error {
	var reqBody []byte
	var err error

	if data != nil {
		reqBody, err = json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal request data: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.APIKeyHeader, c.apiKey)
	req.Header.Set(middleware.TimestampHeader, timestamp)
	req.Header.Set(middleware.SignatureHeader, middleware.Sign(c.apiSecret, timestamp, reqBody))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(respBody, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = string(bytes.TrimSpace(respBody))
		}
		return apiErr
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
