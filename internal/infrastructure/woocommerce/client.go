package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/storesync/reconciliation-backend/internal/domain/errors"
	"github.com/storesync/reconciliation-backend/internal/domain/reconciliation"
	"github.com/storesync/reconciliation-backend/internal/domain/values"
	"github.com/storesync/reconciliation-backend/internal/infrastructure/config"
)

const defaultPageSize = 100

// Client fetches orders from a WooCommerce REST API (wc/v3) and normalizes
// them into canonical domain orders. Pagination is drained fully and
// sequentially; callers receive the complete set or an error, never a
// partial page.
type Client struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	pageSize       int
	httpClient     *http.Client
	limiter        *rate.Limiter
}

// NewClient creates a WooCommerce API client from configuration
func NewClient(cfg *config.WooCommerceConfig) *Client {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 5
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:        cfg.BaseURL,
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		pageSize:       pageSize,
		httpClient:     &http.Client{Timeout: timeout},
		limiter:        rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// orderPayload mirrors the upstream order shape. Totals arrive as strings,
// occasionally as bare numbers; flexAmount absorbs both.
type orderPayload struct {
	ID       json.Number `json:"id"`
	Number   string      `json:"number"`
	Created  string      `json:"date_created"`
	DatePaid string      `json:"date_paid"`
	Status   string      `json:"status"`
	Total    flexAmount  `json:"total"`
	Currency string      `json:"currency"`
	Refunds  []struct {
		Total flexAmount `json:"total"`
	} `json:"refunds"`
}

// ListOrders returns every order created inside [start, end], draining all
// pages before returning
func (c *Client) ListOrders(ctx context.Context, start, end time.Time) ([]reconciliation.Order, error) {
	var orders []reconciliation.Order

	for page := 1; ; page++ {
		payloads, err := c.fetchPage(ctx, start, end, page)
		if err != nil {
			return nil, err
		}

		for _, p := range payloads {
			orders = append(orders, normalizeOrder(p))
		}

		// a short page means the listing is exhausted
		if len(payloads) < c.pageSize {
			return orders, nil
		}
	}
}

func (c *Client) fetchPage(ctx context.Context, start, end time.Time, page int) ([]orderPayload, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint, err := url.Parse(c.baseURL + "/wp-json/wc/v3/orders")
	if err != nil {
		return nil, errors.NewExternalError("woocommerce", "invalid base URL").WithCause(err)
	}

	q := endpoint.Query()
	q.Set("after", start.UTC().Format(time.RFC3339))
	q.Set("before", end.UTC().Format(time.RFC3339))
	q.Set("per_page", strconv.Itoa(c.pageSize))
	q.Set("page", strconv.Itoa(page))
	q.Set("orderby", "date")
	q.Set("order", "asc")
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.consumerKey, c.consumerSecret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewExternalError("woocommerce", "order fetch failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewExternalError("woocommerce",
			fmt.Sprintf("order fetch returned status %d", resp.StatusCode))
	}

	var payloads []orderPayload
	if err := json.NewDecoder(resp.Body).Decode(&payloads); err != nil {
		return nil, errors.NewExternalError("woocommerce", "malformed order response").WithCause(err)
	}

	return payloads, nil
}

// normalizeOrder converts an upstream payload into the canonical Order.
// Missing or malformed fields degrade to zero values; a single dirty record
// must never abort a run.
func normalizeOrder(p orderPayload) reconciliation.Order {
	currency := p.Currency
	if currency == "" {
		currency = values.USD
	}

	total := p.Total.Money(currency)

	// upstream reports payment via date_paid rather than an amount
	paid := values.Zero(currency)
	if p.DatePaid != "" {
		paid = total
	}

	refund := values.Zero(currency)
	for _, r := range p.Refunds {
		refund, _ = refund.Add(r.Total.Money(currency).Abs())
	}

	return reconciliation.Order{
		ID:          p.ID.String(),
		Number:      p.Number,
		Date:        parseUpstreamTime(p.Created),
		Status:      p.Status,
		Total:       total,
		AmountPaid:  paid,
		RefundTotal: refund,
		Currency:    currency,
	}
}

func parseUpstreamTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
