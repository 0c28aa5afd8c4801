package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aquabiolab/biolog-calendar/pkg/logging"
)

const (
	apiPrefix      = "/api/v5"
	defaultTimeout = 2 * time.Minute

	// filterTimeLayout is the ISO-8601 shape the v5 filter parameters take
	// (seconds precision, no zone designator).
	filterTimeLayout = "2006-01-02T15:04:05"
)

// Client talks to the RetailCRM v5 REST API. The api key and site code are
// attached to every request as query parameters.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	site       string
	logger     *logging.Logger
}

// NewClient constructs a RetailCRM client. A zero timeout takes the default
// of two minutes.
func NewClient(baseURL, apiKey, site string, timeout time.Duration, logger *logging.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		site:       site,
		logger:     logger,
	}
}

type ordersResponse struct {
	Success bool    `json:"success"`
	Orders  []Order `json:"orders"`
}

// ListOrders fetches one page of orders created within [from, to]. Page
// numbering is 1-based; the caller decides when to stop paginating.
func (c *Client) ListOrders(ctx context.Context, from, to time.Time, page, pageSize int) ([]Order, error) {
	q := url.Values{}
	q.Set("filter[createdAtFrom]", from.Format(filterTimeLayout))
	q.Set("filter[createdAtTo]", to.Format(filterTimeLayout))
	q.Set("limit", strconv.Itoa(pageSize))
	q.Set("page", strconv.Itoa(page))
	q.Set("apiKey", c.apiKey)
	q.Set("site", c.site)

	endpoint := c.baseURL + apiPrefix + "/orders?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("crm: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crm: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("crm: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		c.logger.Warn("retailcrm non-2xx response", "status", resp.StatusCode, "page", page, "body", msg)
		return nil, fmt.Errorf("crm: API returned %d: %s", resp.StatusCode, msg)
	}

	var out ordersResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("crm: decode response: %w", err)
	}
	return out.Orders, nil
}
