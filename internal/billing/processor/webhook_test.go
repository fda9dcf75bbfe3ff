package processor

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const testSecret = "whsec_test"

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestVerifySignatureRoundTrip(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"customer.subscription.updated"}`)
	header := SignPayload(payload, testSecret, now)

	if err := VerifySignature(payload, header, testSecret, DefaultTolerance, now); err != nil {
		t.Fatalf("VerifySignature: %v", err)
	}
}

func TestVerifySignatureRejects(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	good := SignPayload(payload, testSecret, now)

	tests := []struct {
		name    string
		payload []byte
		header  string
		at      time.Time
	}{
		{"empty header", payload, "", now},
		{"wrong secret", payload, SignPayload(payload, "whsec_other", now), now},
		{"tampered payload", []byte(`{"id":"evt_2"}`), good, now},
		{"missing timestamp", payload, "v1=deadbeef", now},
		{"missing signature", payload, "t=1717243200", now},
		{"garbage timestamp", payload, "t=abc,v1=deadbeef", now},
		{"stale timestamp", payload, SignPayload(payload, testSecret, now.Add(-10*time.Minute)), now},
		{"future timestamp", payload, SignPayload(payload, testSecret, now.Add(10*time.Minute)), now},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySignature(tt.payload, tt.header, testSecret, DefaultTolerance, tt.at)
			if !errors.Is(err, ErrInvalidSignature) {
				t.Errorf("err = %v, want ErrInvalidSignature", err)
			}
		})
	}
}

func TestVerifySignatureAcceptsAnyValidV1(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	good := SignPayload(payload, testSecret, now)
	// Secret rotation sends signatures under both keys.
	_, v1 := splitHeader(t, good)
	header := "t=" + timestampOf(t, good) + ",v1=deadbeef,v1=" + v1

	if err := VerifySignature(payload, header, testSecret, DefaultTolerance, now); err != nil {
		t.Fatalf("VerifySignature with rotated signatures: %v", err)
	}
}

func TestParseWebhook(t *testing.T) {
	payload := []byte(`{
		"id": "evt_123",
		"type": "customer.subscription.updated",
		"data": {"object": {
			"id": "sub_456",
			"customer": "cus_789",
			"status": "active",
			"current_period_end": 1719792000,
			"trial_end": null,
			"metadata": {"provider_id": "0b019a3c-2a1c-4a3f-8f2e-0a4f4bd9c111"},
			"items": {"data": [{"id": "si_1", "price": {"id": "price_pro"}}]}
		}}
	}`)
	header := SignPayload(payload, testSecret, time.Now())

	event, err := ParseWebhook(payload, header, testSecret)
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if event.ID != "evt_123" || event.Type != EventSubscriptionUpdated {
		t.Errorf("event = %+v", event)
	}
	sub := event.Subscription
	if sub.ID != "sub_456" || sub.CustomerID != "cus_789" || sub.Status != StatusActive {
		t.Errorf("subscription = %+v", sub)
	}
	if sub.PriceID != "price_pro" {
		t.Errorf("priceID = %q, want price_pro", sub.PriceID)
	}
	if sub.Metadata["provider_id"] == "" {
		t.Error("metadata lost in decode")
	}
	if sub.TrialEnd != nil {
		t.Error("null trial_end decoded as non-nil")
	}
}

func TestParseWebhookBadSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_123","type":"customer.subscription.updated"}`)
	if _, err := ParseWebhook(payload, "t=1,v1=00", testSecret); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}
}

func TestKnownStatus(t *testing.T) {
	for _, s := range []string{"active", "trialing", "past_due", "canceled", "incomplete", "unpaid"} {
		if !KnownStatus(s) {
			t.Errorf("KnownStatus(%q) = false", s)
		}
	}
	for _, s := range []string{"paused", "incomplete_expired", "", "ACTIVE"} {
		if KnownStatus(s) {
			t.Errorf("KnownStatus(%q) = true", s)
		}
	}
}

func splitHeader(t *testing.T, header string) (string, string) {
	t.Helper()
	parts := strings.SplitN(header, ",v1=", 2)
	if len(parts) != 2 {
		t.Fatalf("malformed header %q", header)
	}
	return parts[0], parts[1]
}

func timestampOf(t *testing.T, header string) string {
	t.Helper()
	prefix, _ := splitHeader(t, header)
	return strings.TrimPrefix(prefix, "t=")
}
