package zoho

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/storesync/reconciliation-backend/internal/domain/errors"
	"github.com/storesync/reconciliation-backend/internal/domain/reconciliation"
	"github.com/storesync/reconciliation-backend/internal/domain/values"
	"github.com/storesync/reconciliation-backend/internal/infrastructure/config"
)

const defaultPageSize = 200

// Client fetches invoices from a Zoho Books style API and normalizes them
// into canonical domain invoices. Pages are drained sequentially until the
// server reports no more; a failed page fails the whole listing.
type Client struct {
	baseURL        string
	accessToken    string
	organizationID string
	pageSize       int
	httpClient     *http.Client
	limiter        *rate.Limiter
}

// NewClient creates a Zoho Books API client from configuration
func NewClient(cfg *config.ZohoConfig) *Client {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 2
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:        cfg.BaseURL,
		accessToken:    cfg.AccessToken,
		organizationID: cfg.OrganizationID,
		pageSize:       pageSize,
		httpClient:     &http.Client{Timeout: timeout},
		limiter:        rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// invoicesResponse mirrors the upstream envelope. Amounts arrive as JSON
// numbers; json.Number keeps them exact until converted to decimal.
type invoicesResponse struct {
	Invoices []struct {
		InvoiceID       string      `json:"invoice_id"`
		InvoiceNumber   string      `json:"invoice_number"`
		ReferenceNumber string      `json:"reference_number"`
		Date            string      `json:"date"`
		Status          string      `json:"status"`
		Total           json.Number `json:"total"`
		Balance         json.Number `json:"balance"`
		CreditsApplied  json.Number `json:"credits_applied"`
		CurrencyCode    string      `json:"currency_code"`
	} `json:"invoices"`
	PageContext struct {
		HasMorePage bool `json:"has_more_page"`
	} `json:"page_context"`
}

// ListInvoices returns every invoice dated inside [start, end], draining
// all pages before returning
func (c *Client) ListInvoices(ctx context.Context, start, end time.Time) ([]reconciliation.Invoice, error) {
	var invoices []reconciliation.Invoice

	for page := 1; ; page++ {
		resp, err := c.fetchPage(ctx, start, end, page)
		if err != nil {
			return nil, err
		}

		for _, p := range resp.Invoices {
			currency := p.CurrencyCode
			if currency == "" {
				currency = values.USD
			}

			total := amountFrom(p.Total, currency)
			balance := amountFrom(p.Balance, currency)
			paid, _ := total.Sub(balance)

			invoices = append(invoices, reconciliation.Invoice{
				ID:          p.InvoiceID,
				Number:      p.InvoiceNumber,
				Reference:   p.ReferenceNumber,
				Date:        parseInvoiceDate(p.Date),
				Status:      p.Status,
				Total:       total,
				AmountPaid:  paid,
				CreditTotal: amountFrom(p.CreditsApplied, currency),
				Currency:    currency,
			})
		}

		if !resp.PageContext.HasMorePage {
			return invoices, nil
		}
	}
}

func (c *Client) fetchPage(ctx context.Context, start, end time.Time, page int) (*invoicesResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint, err := url.Parse(c.baseURL + "/books/v3/invoices")
	if err != nil {
		return nil, errors.NewExternalError("zoho", "invalid base URL").WithCause(err)
	}

	q := endpoint.Query()
	q.Set("organization_id", c.organizationID)
	q.Set("date_start", start.UTC().Format("2006-01-02"))
	q.Set("date_end", end.UTC().Format("2006-01-02"))
	q.Set("per_page", strconv.Itoa(c.pageSize))
	q.Set("page", strconv.Itoa(page))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewExternalError("zoho", "invoice fetch failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewExternalError("zoho",
			fmt.Sprintf("invoice fetch returned status %d", resp.StatusCode))
	}

	var payload invoicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.NewExternalError("zoho", "malformed invoice response").WithCause(err)
	}

	return &payload, nil
}

// amountFrom converts an upstream number to Money, degrading malformed or
// absent values to zero rather than failing the record
func amountFrom(n json.Number, currency string) values.Money {
	if n == "" {
		return values.Zero(currency)
	}
	dec, err := decimal.NewFromString(n.String())
	if err != nil {
		return values.Zero(currency)
	}
	m, err := values.NewMoney(dec, currency)
	if err != nil {
		return values.Zero(values.USD)
	}
	return m
}

func parseInvoiceDate(s string) time.Time {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
