package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sanjaykhatri/lead-management-backend/platform/config"
	"github.com/sanjaykhatri/lead-management-backend/platform/logger"
)

// HTTPClient implements Client against the processor's form-encoded REST API.
type HTTPClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewHTTPClient builds the processor client from billing configuration.
func NewHTTPClient(cfg config.BillingConfig, log *logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:   strings.TrimRight(cfg.GetBillingAPIBaseURL(), "/"),
		secretKey: cfg.GetBillingSecretKey(),
		httpClient: &http.Client{
			Timeout: cfg.GetBillingRequestTimeout(),
		},
		logger: log,
	}
}

// apiError is the processor's error envelope.
type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// RequestError is a non-2xx response from the processor.
type RequestError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("billing processor: %s (status %d, code %s)", e.Message, e.StatusCode, e.Code)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("billing processor request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope apiError
		_ = json.Unmarshal(data, &envelope)
		return &RequestError{
			StatusCode: resp.StatusCode,
			Code:       envelope.Error.Code,
			Message:    envelope.Error.Message,
		}
	}
	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}

// subscriptionPayload is the processor's wire shape for a subscription.
type subscriptionPayload struct {
	ID                 string            `json:"id"`
	Customer           string            `json:"customer"`
	Status             string            `json:"status"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	TrialEnd           *int64            `json:"trial_end"`
	Metadata           map[string]string `json:"metadata"`
	Items            struct {
		Data []struct {
			ID    string `json:"id"`
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

func (p subscriptionPayload) toSubscription() Subscription {
	sub := Subscription{
		ID:                 p.ID,
		CustomerID:         p.Customer,
		Status:             p.Status,
		CurrentPeriodStart: time.Unix(p.CurrentPeriodStart, 0).UTC(),
		CurrentPeriodEnd:   time.Unix(p.CurrentPeriodEnd, 0).UTC(),
		Metadata:           p.Metadata,
	}
	if p.TrialEnd != nil {
		t := time.Unix(*p.TrialEnd, 0).UTC()
		sub.TrialEnd = &t
	}
	if len(p.Items.Data) > 0 {
		sub.PriceID = p.Items.Data[0].Price.ID
	}
	return sub
}

func (c *HTTPClient) CreateCustomer(ctx context.Context, params CustomerParams) (string, error) {
	form := url.Values{}
	form.Set("email", params.Email)
	form.Set("name", params.Name)
	for key, value := range params.Metadata {
		form.Set("metadata["+key+"]", value)
	}

	var payload struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/customers", form, &payload); err != nil {
		return "", err
	}
	return payload.ID, nil
}

func (c *HTTPClient) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("customer", params.CustomerID)
	form.Set("line_items[0][price]", params.PriceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	if params.TrialDays > 0 {
		form.Set("subscription_data[trial_period_days]", strconv.Itoa(params.TrialDays))
	}
	for key, value := range params.Metadata {
		form.Set("subscription_data[metadata]["+key+"]", value)
	}

	var payload struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, &payload); err != nil {
		return CheckoutSession{}, err
	}
	return CheckoutSession{ID: payload.ID, URL: payload.URL}, nil
}

func (c *HTTPClient) CreateBillingPortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("return_url", returnURL)

	var payload struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/billing_portal/sessions", form, &payload); err != nil {
		return "", err
	}
	return payload.URL, nil
}

func (c *HTTPClient) GetSubscription(ctx context.Context, id string) (Subscription, error) {
	var payload subscriptionPayload
	if err := c.do(ctx, http.MethodGet, "/v1/subscriptions/"+id, nil, &payload); err != nil {
		return Subscription{}, err
	}
	return payload.toSubscription(), nil
}

func (c *HTTPClient) ListCustomerSubscriptions(ctx context.Context, customerID string) ([]Subscription, error) {
	var payload struct {
		Data []subscriptionPayload `json:"data"`
	}
	path := "/v1/subscriptions?customer=" + url.QueryEscape(customerID) + "&status=all&limit=100"
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	subs := make([]Subscription, 0, len(payload.Data))
	for _, p := range payload.Data {
		subs = append(subs, p.toSubscription())
	}
	return subs, nil
}

func (c *HTTPClient) CancelSubscription(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/subscriptions/"+id, nil, nil)
}

func (c *HTTPClient) ChangeSubscriptionPrice(ctx context.Context, id, priceID string) (Subscription, error) {
	var payload subscriptionPayload
	if err := c.do(ctx, http.MethodGet, "/v1/subscriptions/"+id, nil, &payload); err != nil {
		return Subscription{}, err
	}
	if len(payload.Items.Data) == 0 {
		return Subscription{}, fmt.Errorf("subscription %s has no items", id)
	}

	form := url.Values{}
	form.Set("items[0][id]", payload.Items.Data[0].ID)
	form.Set("items[0][price]", priceID)
	form.Set("proration_behavior", "none")

	var updated subscriptionPayload
	if err := c.do(ctx, http.MethodPost, "/v1/subscriptions/"+id, form, &updated); err != nil {
		return Subscription{}, err
	}

	c.logger.BillingEvent("subscription price changed", payload.Metadata["provider_id"],
		"subscriptionId", id, "priceId", priceID)
	return updated.toSubscription(), nil
}

// SettleOpenInvoice creates, finalizes and pays an invoice for the pending
// items on a subscription. A processor complaint about an already-open
// invoice is not an error; the open invoice will collect the charge.
func (c *HTTPClient) SettleOpenInvoice(ctx context.Context, subscriptionID string) error {
	form := url.Values{}
	form.Set("subscription", subscriptionID)
	form.Set("auto_advance", "true")

	var invoice struct {
		ID string `json:"id"`
	}
	err := c.do(ctx, http.MethodPost, "/v1/invoices", form, &invoice)
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) && strings.Contains(reqErr.Message, "already has an open invoice") {
			return nil
		}
		return err
	}

	if err := c.do(ctx, http.MethodPost, "/v1/invoices/"+invoice.ID+"/pay", nil, nil); err != nil {
		return err
	}
	return nil
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
