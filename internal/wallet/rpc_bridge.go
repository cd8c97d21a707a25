package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Proton-105/agro-presale/pkg/config"
)

// SessionHeader carries the per-user session key to the bridge.
const SessionHeader = "X-Wallet-Session"

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// Bridge talks JSON-RPC 2.0 over HTTP to a wallet bridge service.
type Bridge struct {
	url        string
	httpClient *http.Client
}

// NewBridge returns nil when no bridge URL is configured.
func NewBridge(cfg config.WalletConfig, httpClient *http.Client) *Bridge {
	if cfg.BridgeURL == "" {
		return nil
	}

	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Bridge{url: cfg.BridgeURL, httpClient: httpClient}
}

// ForUser returns the provider bound to a Telegram user, or nil when no bridge is configured.
func (b *Bridge) ForUser(userID int64) Provider {
	if b == nil {
		return nil
	}

	return &bridgeProvider{bridge: b, session: "tg:" + strconv.FormatInt(userID, 10)}
}

// Call invokes method for the given session and returns the raw result.
func (b *Bridge) Call(ctx context.Context, session, method string, params ...any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SessionHeader, session)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("bridge returned status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}

	return rpcResp.Result, nil
}

type bridgeProvider struct {
	bridge  *Bridge
	session string
}

func (p *bridgeProvider) Accounts(ctx context.Context) ([]string, error) {
	return p.accounts(ctx, "eth_accounts")
}

func (p *bridgeProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	return p.accounts(ctx, "eth_requestAccounts")
}

func (p *bridgeProvider) accounts(ctx context.Context, method string) ([]string, error) {
	result, err := p.bridge.Call(ctx, p.session, method)
	if err != nil {
		return nil, err
	}

	var accounts []string
	if len(result) == 0 || string(result) == "null" {
		return accounts, nil
	}
	if err := json.Unmarshal(result, &accounts); err != nil {
		return nil, fmt.Errorf("unmarshal %s result: %w", method, err)
	}

	return accounts, nil
}
