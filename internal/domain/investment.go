package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// PaymentMethodMetaMask is the only payment method the presale API accepts from this front-end.
const PaymentMethodMetaMask = "metamask"

// InvestmentRequest is the body of POST /api/presale/invest.
type InvestmentRequest struct {
	TokenID       int64           `json:"token_id"`
	WalletAddress string          `json:"wallet_address"`
	AmountUSD     decimal.Decimal `json:"amount_usd"`
	PaymentMethod string          `json:"payment_method"`
}

// NewInvestmentRequest builds a request for the given offering and investor.
func NewInvestmentRequest(offeringID int64, wallet string, amount decimal.Decimal) InvestmentRequest {
	return InvestmentRequest{
		TokenID:       offeringID,
		WalletAddress: wallet,
		AmountUSD:     amount,
		PaymentMethod: PaymentMethodMetaMask,
	}
}

// MarshalJSON encodes amount_usd as a JSON number, which is what the API expects.
func (r InvestmentRequest) MarshalJSON() ([]byte, error) {
	type wire struct {
		TokenID       int64       `json:"token_id"`
		WalletAddress string      `json:"wallet_address"`
		AmountUSD     json.Number `json:"amount_usd"`
		PaymentMethod string      `json:"payment_method"`
	}

	return json.Marshal(wire{
		TokenID:       r.TokenID,
		WalletAddress: r.WalletAddress,
		AmountUSD:     json.Number(r.AmountUSD.String()),
		PaymentMethod: r.PaymentMethod,
	})
}

// Confirmation is what the API returned for an accepted investment, plus the values shown to the investor.
type Confirmation struct {
	Raw    json.RawMessage `json:"raw,omitempty"`
	Amount decimal.Decimal `json:"amount"`
	Symbol string          `json:"symbol"`
}
