package processor

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Webhook event types the reconciler consumes.
const (
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// ErrInvalidSignature is returned when a webhook payload fails verification.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// DefaultTolerance bounds how old a signed webhook may be.
const DefaultTolerance = 5 * time.Minute

// WebhookEvent is one verified event from the processor.
type WebhookEvent struct {
	ID           string
	Type         string
	Subscription Subscription
}

type webhookPayload struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object subscriptionPayload `json:"object"`
	} `json:"data"`
}

// VerifySignature checks the signature header against the raw payload.
// The header carries a unix timestamp and one or more HMAC-SHA256 signatures
// of "<timestamp>.<payload>": "t=1700000000,v1=abcdef...". Comparison is
// constant time and the timestamp must be within tolerance of now.
func VerifySignature(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	if header == "" {
		return ErrInvalidSignature
	}

	var timestamp int64
	var signatures [][]byte
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return ErrInvalidSignature
			}
			timestamp = parsed
		case "v1":
			sig, err := hex.DecodeString(value)
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}
	if timestamp == 0 || len(signatures) == 0 {
		return ErrInvalidSignature
	}

	sent := time.Unix(timestamp, 0)
	if now.Sub(sent) > tolerance || sent.Sub(now) > tolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// SignPayload produces a signature header for a payload (used by tests and
// the local webhook replay tool).
func SignPayload(payload []byte, secret string, at time.Time) string {
	timestamp := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	return "t=" + timestamp + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

// ParseWebhook verifies the signature and decodes the event. Events other
// than subscription lifecycle changes decode with an empty Subscription.
func ParseWebhook(payload []byte, header, secret string) (WebhookEvent, error) {
	if err := VerifySignature(payload, header, secret, DefaultTolerance, time.Now()); err != nil {
		return WebhookEvent{}, err
	}

	var decoded webhookPayload
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return WebhookEvent{}, fmt.Errorf("decode webhook payload: %w", err)
	}
	return WebhookEvent{
		ID:           decoded.ID,
		Type:         decoded.Type,
		Subscription: decoded.Data.Object.toSubscription(),
	}, nil
}
