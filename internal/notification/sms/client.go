// Package sms sends text messages through a Twilio-compatible gateway.
package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sanjaykhatri/lead-management-backend/platform/config"
	"github.com/sanjaykhatri/lead-management-backend/platform/logger"
	"github.com/sanjaykhatri/lead-management-backend/platform/phone"
)

type Client struct {
	baseURL    string
	accountSID string
	authToken  string
	from       string
	http       *http.Client
	log        *logger.Logger
}

// NewClient builds the gateway client. Returns nil when SMS is not
// configured; a nil client drops messages silently.
func NewClient(cfg config.SMSConfig, log *logger.Logger) *Client {
	if !cfg.IsSMSEnabled() {
		return nil
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.GetSMSAPIBaseURL(), "/"),
		accountSID: cfg.GetSMSAccountSID(),
		authToken:  cfg.GetSMSAuthToken(),
		from:       cfg.GetSMSFromNumber(),
		http:       &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// Send delivers one text message. The recipient number is normalized to
// E.164 before dispatch.
func (c *Client) Send(ctx context.Context, toNumber, message string) error {
	if c == nil {
		return nil
	}

	normalized := phone.NormalizeE164(toNumber)
	if normalized == "" {
		return fmt.Errorf("sms recipient %q is not a usable number", toNumber)
	}

	form := url.Values{}
	form.Set("To", normalized)
	form.Set("From", c.from)
	form.Set("Body", message)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sms request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.Info("sms sent", "to", normalized)
	return nil
}
