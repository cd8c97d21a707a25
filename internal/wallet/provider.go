package wallet

import (
	"context"
	"errors"
	"fmt"
)

// CodeUserRejected is the provider error code for a request the user declined.
const CodeUserRejected = 4001

// Provider is the external wallet holding the user's accounts.
type Provider interface {
	// Accounts lists already-authorized accounts without prompting the user.
	Accounts(ctx context.Context) ([]string, error)
	// RequestAccounts asks the user to authorize an account.
	RequestAccounts(ctx context.Context) ([]string, error)
}

// RPCError is an error object returned by the wallet provider.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// IsUserRejected reports whether err carries the user-rejected provider code.
func IsUserRejected(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == CodeUserRejected
}
