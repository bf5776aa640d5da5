package esplora

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hotwallet-network/hotwallet-daemon/pkg/circuitbreaker"
	"github.com/hotwallet-network/hotwallet-daemon/pkg/explorer"
	"github.com/hotwallet-network/hotwallet-daemon/pkg/httputil"
	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"
)

const defaultRequestsPerSecond = 20

type esplora struct {
	apiURL  string
	breaker *gobreaker.CircuitBreaker
	limiter ratelimit.Limiter
}

// NewService returns a new esplora service as an explorer.Service
// interface. It performs a health check against the provided API URL.
func NewService(apiURL string) (explorer.Service, error) {
	service := &esplora{
		apiURL:  apiURL,
		breaker: circuitbreaker.NewCircuitBreaker("esplora"),
		limiter: ratelimit.New(defaultRequestsPerSecond),
	}

	if err := service.healthCheck(); err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}

	return service, nil
}

func (e *esplora) healthCheck() error {
	url := fmt.Sprintf("%s/blocks/tip/height", e.apiURL)
	status, resp, err := e.doRequest(context.Background(), "GET", url, "", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: %s", explorer.ErrProtocol, resp)
	}
	return nil
}

// doRequest runs one rate-limited HTTP call through the circuit breaker.
// Transport failures and an open breaker both map to explorer.ErrNetwork.
func (e *esplora) doRequest(
	ctx context.Context,
	method, url, body string,
	headers map[string]string,
) (int, string, error) {
	e.limiter.Take()

	type response struct {
		status int
		body   string
	}

	res, err := e.breaker.Execute(func() (interface{}, error) {
		status, resp, err := httputil.NewHTTPRequest(ctx, method, url, body, headers)
		if err != nil {
			return nil, err
		}
		return response{status, resp}, nil
	})
	if err != nil {
		return 0, "", fmt.Errorf("%w: %s", explorer.ErrNetwork, err)
	}

	r := res.(response)
	return r.status, r.body, nil
}
