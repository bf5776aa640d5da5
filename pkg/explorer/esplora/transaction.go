package esplora

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hotwallet-network/hotwallet-daemon/pkg/explorer"
)

// Broadcast publishes a raw signed transaction. A client-error response
// from the provider is a rejection of the transaction itself; server
// errors and throttling carry no verdict and map to ErrNetwork, so that
// callers never mistake a transient failure for a rejection.
func (e *esplora) Broadcast(ctx context.Context, txHex string) (string, error) {
	url := fmt.Sprintf("%s/tx", e.apiURL)
	headers := map[string]string{
		"Content-Type": "text/plain",
	}

	status, resp, err := e.doRequest(ctx, "POST", url, txHex, headers)
	if err != nil {
		return "", err
	}
	if status >= http.StatusInternalServerError ||
		status == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: %s", explorer.ErrNetwork, strings.TrimSpace(resp))
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("%w: %s", explorer.ErrTxRejected, strings.TrimSpace(resp))
	}

	return strings.TrimSpace(resp), nil
}
