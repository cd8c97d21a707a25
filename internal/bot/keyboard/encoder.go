package keyboard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	CallbackDataSeparator  = ":"
	CallbackDataLimitBytes = 64
)

// Callback identifiers. The payload after the separator is button specific.
const (
	CallbackTokensPage       = "tokens"
	CallbackBuy              = "buy"
	CallbackInvestConfirm    = "invest_confirm"
	CallbackInvestCancel     = "invest_cancel"
	CallbackWalletConnect    = "wallet_connect"
	CallbackWalletDisconnect = "wallet_disconnect"
	CallbackLanguage         = "lang"
	CallbackNoop             = "noop"
)

// EncodeCallback joins unique and data into Telegram callback data, enforcing the 64 byte limit.
func EncodeCallback(unique, data string) (string, error) {
	if unique == "" {
		return "", errors.New("callback unique is empty")
	}

	payload := unique
	if data != "" {
		payload = unique + CallbackDataSeparator + data
	}

	if len(payload) > CallbackDataLimitBytes {
		return "", fmt.Errorf("callback data exceeds %d byte limit: got %d", CallbackDataLimitBytes, len(payload))
	}

	return payload, nil
}

// DecodeCallback splits callback data at the first separator.
func DecodeCallback(callbackData string) (unique, data string, err error) {
	callbackData = strings.TrimPrefix(callbackData, "\f")
	if callbackData == "" {
		return "", "", errors.New("callback data is empty")
	}

	idx := strings.Index(callbackData, CallbackDataSeparator)
	if idx == -1 {
		return callbackData, "", nil
	}

	return callbackData[:idx], callbackData[idx+len(CallbackDataSeparator):], nil
}

// DecodeID parses a numeric callback payload such as the offering id of a Buy button.
func DecodeID(data string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid callback id %q: %w", data, err)
	}
	return id, nil
}
