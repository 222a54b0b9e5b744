package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/domain"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/pkg/httpclient"
)

// Client is the external product catalog capability. The catalog itself is
// out of scope; only current product data (for price refresh and snapshot
// fill-in) is fetched through it.
type Client interface {
	GetProduct(ctx context.Context, id string) (*domain.ProductSnapshot, error)
}

// HTTPClient fetches products from the hosted catalog API, with retry and a
// circuit breaker so a degraded catalog cannot stall price refreshes.
type HTTPClient struct {
	baseURL string
	http    *httpclient.CircuitBreakerClient
	logger  *slog.Logger
}

// NewHTTPClient creates a catalog client for the given base URL.
func NewHTTPClient(baseURL string, logger *slog.Logger) *HTTPClient {
	client := httpclient.New(httpclient.DefaultConfig())
	breaker := httpclient.NewCircuitBreakerClient(
		client,
		httpclient.DefaultCircuitBreakerConfig("catalog"),
		logger,
	)

	return &HTTPClient{
		baseURL: baseURL,
		http:    breaker,
		logger:  logger,
	}
}

// productEnvelope is the catalog's standard JSON response wrapper.
type productEnvelope struct {
	Data *domain.ProductSnapshot `json:"data"`
}

// GetProduct fetches the current product data by id.
func (c *HTTPClient) GetProduct(ctx context.Context, id string) (*domain.ProductSnapshot, error) {
	endpoint := fmt.Sprintf("%s/api/v1/products/%s", c.baseURL, url.PathEscape(id))

	resp, err := c.http.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("catalog get product %s: %w", id, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "catalog")
	}
	defer func() { _ = resp.Body.Close() }()

	var envelope productEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode catalog product %s: %w", id, err)
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("catalog product %s: empty response", id)
	}

	return envelope.Data, nil
}
